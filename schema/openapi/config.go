// Package openapi renders schema types as OpenAPI-compatible JSON Schema
// documents, including enum fields as tagged oneOf unions.
package openapi

// Info describes the generated document.
type Info struct {
	Title       string
	Version     string
	Description string
}

type generatorConfig struct {
	info          Info
	rootComponent string
}

// Option configures a Generator.
type Option func(*generatorConfig)

// WithInfo sets the document's info block.
func WithInfo(info Info) Option {
	return func(cfg *generatorConfig) {
		if info.Title != "" {
			cfg.info.Title = info.Title
		}
		if info.Version != "" {
			cfg.info.Version = info.Version
		}
		cfg.info.Description = info.Description
	}
}

// WithRootComponent registers the root schema under components/schemas with
// the given name instead of inlining it.
func WithRootComponent(name string) Option {
	return func(cfg *generatorConfig) {
		cfg.rootComponent = name
	}
}

func defaultConfig() generatorConfig {
	return generatorConfig{
		info: Info{
			Title:   "Settings Schema",
			Version: "1.0.0",
		},
	}
}
