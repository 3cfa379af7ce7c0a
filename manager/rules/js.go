//go:build js_eval

package rules

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsEngine struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewJSEngine constructs an Engine backed by goja.
func NewJSEngine(opts ...JSEngineOption) Engine {
	cfg := applyJSEngineOptions(opts)
	return &jsEngine{
		cache:    cfg.cache,
		registry: cfg.registry,
	}
}

func (e *jsEngine) Evaluate(ctx Context, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEngineError("js", fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	if e.cache == nil {
		return e.run(ctx, expression, nil)
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, expression, program)
}

func (e *jsEngine) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEngineError("js", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &jsCompiledRule{
		engine:     e,
		expression: expression,
		program:    program,
	}, nil
}

func (e *jsEngine) loadOrCompile(expression string) (*goja.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", e.wrapExpression(expression), false)
	if err != nil {
		return nil, wrapEvaluationError("js", expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

func (e *jsEngine) run(ctx Context, expression string, program *goja.Program) (any, error) {
	vm := goja.New()
	e.injectContext(vm, ctx)
	if program != nil {
		value, err := vm.RunProgram(program)
		if err != nil {
			return nil, wrapEvaluationError("js", expression, ctx.pathLabel(), err)
		}
		return value.Export(), nil
	}
	value, err := vm.RunString(e.wrapExpression(expression))
	if err != nil {
		return nil, wrapEvaluationError("js", expression, ctx.pathLabel(), err)
	}
	return value.Export(), nil
}

func (e *jsEngine) injectContext(vm *goja.Runtime, ctx Context) {
	vm.Set("now", ctx.timestamp())
	vm.Set("args", ctx.Args)
	vm.Set("metadata", ctx.Metadata)
	vm.Set("value", ctx.Snapshot)
	vm.Set("path", ctx.pathLabel())
	if e.registry != nil {
		vm.Set("call", func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		})
		for _, name := range e.registry.Names() {
			fn := name
			vm.Set(fn, func(arguments ...any) (any, error) {
				return e.registry.Call(fn, arguments...)
			})
		}
	}
}

func (e *jsEngine) wrapExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

type jsCompiledRule struct {
	engine     *jsEngine
	expression string
	program    *goja.Program
}

func (r *jsCompiledRule) Evaluate(ctx Context) (any, error) {
	if r.engine == nil {
		return nil, wrapEngineError("js", fmt.Errorf("compiled rule missing engine"))
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	return r.engine.run(ctx, r.expression, r.program)
}

func jsEngineAvailable() bool {
	return true
}
