package rules

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprEngineOption configures an expr engine instance.
type ExprEngineOption func(*exprEngine)

// ExprWithProgramCache wires a ProgramCache into the expr engine.
func ExprWithProgramCache(cache ProgramCache) ExprEngineOption {
	return func(e *exprEngine) {
		e.cache = cache
	}
}

// ExprWithFunctionRegistry wires a FunctionRegistry into the expr engine.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprEngineOption {
	return func(e *exprEngine) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

// exprEngine executes rule expressions using github.com/expr-lang/expr.
type exprEngine struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprEngine constructs an Engine backed by expr-lang/expr.
func NewExprEngine(opts ...ExprEngineOption) Engine {
	e := &exprEngine{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Evaluate compiles and runs expression against ctx.Snapshot.
func (e *exprEngine) Evaluate(ctx Context, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEngineError("expr", fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	env := e.environment(ctx)
	if e.cache == nil {
		result, err := exprlang.Eval(expression, env)
		if err != nil {
			return nil, wrapEvaluationError("expr", expression, ctx.pathLabel(), err)
		}
		return result, nil
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	result, err := exprlang.Run(program, env)
	if err != nil {
		return nil, wrapEvaluationError("expr", expression, ctx.pathLabel(), err)
	}
	return result, nil
}

// Compile returns a compiled rule that evaluates expression per invocation.
func (e *exprEngine) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEngineError("expr", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &exprCompiledRule{
		engine:     e,
		program:    program,
		expression: expression,
	}, nil
}

func (e *exprEngine) loadOrCompile(expression string) (*exprvm.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range e.registryNames() {
		fn := e.registryFunction(name)
		options = append(options, exprlang.Function(name, fn))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, wrapEvaluationError("expr", expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

type exprCompiledRule struct {
	engine     *exprEngine
	program    *exprvm.Program
	expression string
}

func (r *exprCompiledRule) Evaluate(ctx Context) (any, error) {
	if r.engine == nil {
		return nil, wrapEngineError("expr", fmt.Errorf("compiled rule missing engine"))
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	if r.program == nil {
		return r.engine.Evaluate(ctx, r.expression)
	}
	env := r.engine.environment(ctx)
	result, err := exprlang.Run(r.program, env)
	if err != nil {
		return nil, wrapEvaluationError("expr", r.expression, ctx.pathLabel(), err)
	}
	return result, nil
}

// environment exposes snapshot entries, metadata and registered functions as
// expression variables. Dotted scalar paths are valid expr identifiers when
// quoted via the snapshot map, so the snapshot is also bound as "value".
func (e *exprEngine) environment(ctx Context) map[string]any {
	env := map[string]any{
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
		"value":    ctx.Snapshot,
		"path":     ctx.pathLabel(),
	}
	for key, value := range ctx.Snapshot {
		env[key] = value
	}
	if e.registry != nil {
		env["call"] = func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		}
		for _, name := range e.registry.Names() {
			fn := name
			env[fn] = func(arguments ...any) (any, error) {
				return e.registry.Call(fn, arguments...)
			}
		}
	}
	return env
}

func (e *exprEngine) registryNames() []string {
	if e == nil || e.registry == nil {
		return nil
	}
	return e.registry.Names()
}

func (e *exprEngine) registryFunction(name string) func(...any) (any, error) {
	if e == nil || e.registry == nil {
		return nil
	}
	return func(arguments ...any) (any, error) {
		return e.registry.Call(name, arguments...)
	}
}
