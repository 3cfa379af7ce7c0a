package rules

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goliatone/go-settings"
)

// ErrNoEngine is returned when a Manager without an engine is asked to
// evaluate expressions.
var ErrNoEngine = errors.New("rules: engine not configured")

// Rule is one named validation expression. A truthy result means the rule
// passes; a falsy result produces a Violation carrying Message.
type Rule struct {
	Name string
	// Path scopes the rule to one scalar for reporting. Empty rules
	// report against the whole root.
	Path    settings.Path
	Expr    string
	Message string
}

// Violation reports one failed rule.
type Violation struct {
	Rule    string
	Path    string
	Message string
	// Err is set when the rule failed to evaluate rather than evaluating
	// to false.
	Err error
}

func (v Violation) String() string {
	if v.Err != nil {
		return fmt.Sprintf("%s (%s): %v", v.Rule, v.Path, v.Err)
	}
	return fmt.Sprintf("%s (%s): %s", v.Rule, v.Path, v.Message)
}

// ManagerOption configures a rules Manager.
type ManagerOption func(*Manager)

// WithEngine selects the expression engine. The default is expr-lang.
func WithEngine(engine Engine) ManagerOption {
	return func(m *Manager) {
		if engine != nil {
			m.engine = engine
		}
	}
}

// WithLogger records every evaluation attempt.
func WithLogger(logger Logger) ManagerOption {
	return func(m *Manager) {
		if logger == nil {
			m.logger = noopLogger{}
			return
		}
		m.logger = logger
	}
}

// WithStructValidation runs go-playground/validator struct-tag checks
// (`validate:"..."`) during Check in addition to expression rules.
func WithStructValidation() ManagerOption {
	return func(m *Manager) {
		m.validate = validator.New(validator.WithRequiredStructEnabled())
	}
}

// Manager evaluates validation rules against snapshots of a root. It
// participates in manager composition as a pure observer: it records scalar
// identities at registration and never overrides stored values.
type Manager struct {
	mu       sync.RWMutex
	engine   Engine
	logger   Logger
	validate *validator.Validate
	known    map[string]settings.Scalar
	rules    []Rule
	compiled map[string]CompiledRule
}

func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		engine:   NewExprEngine(),
		logger:   noopLogger{},
		known:    map[string]settings.Scalar{},
		compiled: map[string]CompiledRule{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Name identifies the manager in traces and activity events.
func (m *Manager) Name() string { return "rules" }

// InitScalar records the scalar so scoped rules can be checked against
// known paths.
func (m *Manager) InitScalar(s settings.Scalar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := s.Path.String()
	if _, ok := m.known[key]; ok {
		return
	}
	m.known[key] = s
}

// Override never contributes values; rules only observe.
func (m *Manager) Override(settings.Path) (any, bool) {
	return nil, false
}

// AddRule registers a rule, compiling its expression eagerly so malformed
// expressions fail at registration rather than on the first Check.
func (m *Manager) AddRule(rule Rule) error {
	if rule.Name == "" {
		return fmt.Errorf("rules: rule name must not be empty")
	}
	if rule.Expr == "" {
		return fmt.Errorf("rules: rule %q has no expression", rule.Name)
	}
	if m.engine == nil {
		return ErrNoEngine
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(rule.Path) > 0 {
		if _, ok := m.known[rule.Path.String()]; !ok {
			return fmt.Errorf("rules: rule %q targets unknown path %s", rule.Name, rule.Path)
		}
	}
	for _, existing := range m.rules {
		if existing.Name == rule.Name {
			return fmt.Errorf("rules: rule %q already registered", rule.Name)
		}
	}
	compiled, err := m.engine.Compile(rule.Expr)
	if err != nil {
		return err
	}
	m.rules = append(m.rules, rule)
	m.compiled[rule.Name] = compiled
	return nil
}

// Rules returns the registered rules in registration order.
func (m *Manager) Rules() []Rule {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Rule, len(m.rules))
	copy(out, m.rules)
	return out
}

// Check evaluates every registered rule against view, a read snapshot of
// the root. Evaluation errors become violations rather than aborting the
// run, so one broken rule never masks the others. When struct validation is
// enabled its findings are appended after the expression rules.
func (m *Manager) Check(view any) []Violation {
	snapshot := Flatten(view)

	m.mu.RLock()
	rules := make([]Rule, len(m.rules))
	copy(rules, m.rules)
	compiled := make(map[string]CompiledRule, len(m.compiled))
	for name, rule := range m.compiled {
		compiled[name] = rule
	}
	logger := m.logger
	validate := m.validate
	m.mu.RUnlock()

	var violations []Violation
	for _, rule := range rules {
		ctx := Context{Snapshot: snapshot, Path: rule.Path}
		start := time.Now()
		result, err := compiled[rule.Name].Evaluate(ctx)
		logger.LogEvaluation(LogEvent{
			Engine:   engineName(m.engine),
			Expr:     rule.Expr,
			Path:     ctx.pathLabel(),
			Duration: time.Since(start),
			Err:      err,
		})
		if err != nil {
			violations = append(violations, Violation{
				Rule: rule.Name,
				Path: ctx.pathLabel(),
				Err:  err,
			})
			continue
		}
		if !truthy(result) {
			violations = append(violations, Violation{
				Rule:    rule.Name,
				Path:    ctx.pathLabel(),
				Message: rule.Message,
			})
		}
	}

	if validate != nil {
		violations = append(violations, structViolations(validate, view)...)
	}
	return violations
}

func structViolations(validate *validator.Validate, view any) []Violation {
	err := validate.Struct(view)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []Violation{{Rule: "struct", Path: "<root>", Err: err}}
	}
	out := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, Violation{
			Rule:    "struct:" + fe.Tag(),
			Path:    fe.Namespace(),
			Message: fmt.Sprintf("failed %q validation on value %v", fe.Tag(), fe.Value()),
		})
	}
	return out
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case uint64:
		return v != 0
	case float64:
		return v != 0
	default:
		return true
	}
}

func engineName(e Engine) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*rules.exprEngine":
		return "expr"
	case "*rules.celEngine":
		return "cel"
	case "*rules.jsEngine":
		return "js"
	default:
		return "custom"
	}
}

// JSAvailable reports whether the JavaScript engine was compiled in. Builds
// without the js_eval tag get a nil engine from NewJSEngine.
func JSAvailable() bool {
	return jsEngineAvailable()
}
