package rules

import "time"

// Engine executes rule expressions.
type Engine interface {
	Evaluate(ctx Context, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule is a pre-compiled expression bound to its engine.
type CompiledRule interface {
	Evaluate(ctx Context) (any, error)
}

// ProgramCache stores compiled expression programs keyed by expression
// strings. Implementations must be safe for concurrent use.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// LogEvent describes one evaluation attempt for logging.
type LogEvent struct {
	Engine   string
	Expr     string
	Path     string
	Duration time.Duration
	Err      error
}

// Logger records rule evaluations.
type Logger interface {
	LogEvaluation(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// LogEvaluation implements Logger.
func (f LoggerFunc) LogEvaluation(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogEvaluation(LogEvent) {}
