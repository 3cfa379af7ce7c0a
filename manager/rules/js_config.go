package rules

type jsEngineConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// JSEngineOption configures the JS engine.
type JSEngineOption func(*jsEngineConfig)

// JSWithProgramCache applies a ProgramCache to the JS engine.
func JSWithProgramCache(cache ProgramCache) JSEngineOption {
	return func(cfg *jsEngineConfig) {
		cfg.cache = cache
	}
}

// JSWithFunctionRegistry applies a FunctionRegistry to the JS engine.
func JSWithFunctionRegistry(registry *FunctionRegistry) JSEngineOption {
	return func(cfg *jsEngineConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

func applyJSEngineOptions(opts []JSEngineOption) jsEngineConfig {
	cfg := jsEngineConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
