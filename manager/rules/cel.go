package rules

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELEngineOption configures the CEL engine.
type CELEngineOption func(*celEngine)

// CELWithProgramCache wires a ProgramCache into the CEL engine.
func CELWithProgramCache(cache ProgramCache) CELEngineOption {
	return func(e *celEngine) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL engine.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEngineOption {
	return func(e *celEngine) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

// maxCallArgs bounds the per-arity overloads declared for call(name, args...).
const maxCallArgs = 8

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celEngine struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEngine constructs an Engine backed by cel-go.
func NewCELEngine(opts ...CELEngineOption) Engine {
	e := &celEngine{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEngine) Evaluate(ctx Context, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEngineError("cel", fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	out, _, err := program.program.Eval(e.activation(ctx))
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx.pathLabel(), err)
	}
	return out.Value(), nil
}

func (e *celEngine) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEngineError("cel", fmt.Errorf("expression must not be empty"))
	}
	return &celCompiledRule{
		engine:     e,
		expression: expression,
	}, nil
}

// loadOrCompile builds a CEL program over a fixed environment. Scalar values
// are addressed through the "value" map variable (value["server.port"]), so
// programs stay cacheable across snapshots.
func (e *celEngine) loadOrCompile(expression string) (*celProgram, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv()
	if err != nil {
		return nil, wrapEngineError("cel", err)
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapEvaluationError("cel", expression, "", issues.Err())
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, wrapEvaluationError("cel", expression, "", issues.Err())
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, "", err)
	}

	bundle := &celProgram{
		env:     env,
		program: prg,
	}
	if e.cache != nil {
		e.cache.Set(expression, bundle)
	}
	return bundle, nil
}

func (e *celEngine) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.DynType),
		celgo.Variable("metadata", celgo.DynType),
		celgo.Variable("value", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("path", celgo.StringType),
	}
	if e.registry != nil {
		// CEL overloads are fixed-arity, so the variadic call(name, args...)
		// is declared as one overload per arity sharing the same binding.
		binding := e.callBinding()
		overloads := make([]celgo.FunctionOpt, 0, maxCallArgs+1)
		for arity := 0; arity <= maxCallArgs; arity++ {
			argTypes := make([]*celgo.Type, 0, arity+1)
			argTypes = append(argTypes, celgo.StringType)
			for i := 0; i < arity; i++ {
				argTypes = append(argTypes, celgo.DynType)
			}
			overloads = append(overloads, celgo.Overload(
				fmt.Sprintf("call_dyn_%d", arity),
				argTypes,
				celgo.DynType,
				celgo.FunctionBinding(func(values ...ref.Val) ref.Val {
					return binding(values)
				}),
			))
		}
		opts = append(opts, celgo.Function("call", overloads...))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEngine) activation(ctx Context) map[string]any {
	activation := map[string]any{
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
		"value":    ctx.Snapshot,
		"path":     ctx.pathLabel(),
	}
	if e.registry != nil {
		activation["call"] = func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		}
	}
	return activation
}

type celCompiledRule struct {
	engine     *celEngine
	expression string
}

func (r *celCompiledRule) Evaluate(ctx Context) (any, error) {
	if r.engine == nil {
		return nil, wrapEngineError("cel", fmt.Errorf("compiled rule missing engine"))
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	program, err := r.engine.loadOrCompile(r.expression)
	if err != nil {
		return nil, err
	}
	out, _, err := program.program.Eval(r.engine.activation(ctx))
	if err != nil {
		return nil, wrapEvaluationError("cel", r.expression, ctx.pathLabel(), err)
	}
	return out.Value(), nil
}

func (e *celEngine) callBinding() func([]ref.Val) ref.Val {
	return func(values []ref.Val) ref.Val {
		if e.registry == nil {
			return types.NewErr("rules: function registry not configured")
		}
		if len(values) == 0 {
			return types.NewErr("rules: call requires function name")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("rules: call name must be string")
		}
		args := make([]any, 0, len(values)-1)
		for _, val := range values[1:] {
			args = append(args, val.Value())
		}
		result, err := e.registry.Call(name, args...)
		if err != nil {
			return types.NewErrFromString(err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
