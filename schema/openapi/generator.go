package openapi

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/goliatone/go-settings"
)

// Generator builds OpenAPI documents from schema types.
type Generator struct {
	config generatorConfig
}

// NewGenerator constructs a Generator with the given options applied over
// the defaults.
func NewGenerator(opts ...Option) *Generator {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Generator{config: cfg}
}

// Generate renders the schema of value's type as an OpenAPI document. Enum
// fields must have their variants registered before generation.
func (g *Generator) Generate(value any) (map[string]any, error) {
	if value == nil {
		return nil, fmt.Errorf("openapi: value cannot be nil")
	}
	t := reflect.TypeOf(value)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	schema, err := SchemaFor(t)
	if err != nil {
		return nil, err
	}

	name := g.config.rootComponent
	if name == "" {
		name = t.Name()
	}
	if name == "" {
		name = "Root"
	}

	info := map[string]any{
		"title":   g.config.info.Title,
		"version": g.config.info.Version,
	}
	if g.config.info.Description != "" {
		info["description"] = g.config.info.Description
	}

	return map[string]any{
		"openapi": "3.1.0",
		"info":    info,
		"components": map[string]any{
			"schemas": map[string]any{
				name: schema,
			},
		},
	}, nil
}

// SchemaFor renders one type as a JSON Schema fragment.
func SchemaFor(t reflect.Type) (map[string]any, error) {
	return schemaForType(t, reflect.StructTag(""))
}

var durationType = reflect.TypeOf(time.Duration(0))

func schemaForType(t reflect.Type, tag reflect.StructTag) (map[string]any, error) {
	if t == durationType {
		return applyTagMetadata(map[string]any{"type": "string", "format": "duration"}, tag), nil
	}
	switch t.Kind() {
	case reflect.Bool:
		return applyTagMetadata(map[string]any{"type": "boolean"}, tag), nil
	case reflect.String:
		return applyTagMetadata(map[string]any{"type": "string"}, tag), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return applyTagMetadata(map[string]any{"type": "integer"}, tag), nil
	case reflect.Float32, reflect.Float64:
		return applyTagMetadata(map[string]any{"type": "number"}, tag), nil
	case reflect.Struct:
		return schemaForStruct(t)
	case reflect.Interface:
		return schemaForEnum(t)
	case reflect.Slice:
		items, err := schemaForType(t.Elem(), "")
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "array", "items": items}, nil
	default:
		return nil, fmt.Errorf("openapi: unsupported kind %s for %s", t.Kind(), t)
	}
}

func schemaForStruct(t reflect.Type) (map[string]any, error) {
	properties := map[string]any{}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := fieldKey(field)
		if key == "-" {
			continue
		}
		schema, err := schemaForType(field.Type, field.Tag)
		if err != nil {
			return nil, fmt.Errorf("openapi: field %s.%s: %w", t, field.Name, err)
		}
		properties[key] = schema
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
	}, nil
}

// schemaForEnum renders a registered enum interface as a oneOf union. Every
// variant schema carries a const discriminant alongside its payload fields.
func schemaForEnum(t reflect.Type) (map[string]any, error) {
	infos, ok := settings.RegisteredVariants(t)
	if !ok {
		return nil, fmt.Errorf("openapi: no variants registered for %s", t)
	}
	oneOf := make([]any, 0, len(infos))
	for _, info := range infos {
		schema, err := schemaForStruct(info.Type)
		if err != nil {
			return nil, err
		}
		properties := schema["properties"].(map[string]any)
		properties[settings.DiscrimKey] = map[string]any{
			"type":  "string",
			"const": info.Tag,
		}
		schema["required"] = []any{settings.DiscrimKey}
		schema["title"] = info.Tag
		oneOf = append(oneOf, schema)
	}
	return map[string]any{
		"oneOf": oneOf,
		"discriminator": map[string]any{
			"propertyName": settings.DiscrimKey,
		},
	}, nil
}

// applyTagMetadata copies the default, min and max struct tags onto a scalar
// schema fragment.
func applyTagMetadata(schema map[string]any, tag reflect.StructTag) map[string]any {
	if tag == "" {
		return schema
	}
	if value, ok := tag.Lookup("default"); ok {
		schema["default"] = value
	}
	if value, ok := tag.Lookup("min"); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			schema["minimum"] = f
		}
	}
	if value, ok := tag.Lookup("max"); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			schema["maximum"] = f
		}
	}
	return schema
}

// fieldKey mirrors schema walking: `config` tag renames, "-" excludes,
// unexported fields are skipped.
func fieldKey(f reflect.StructField) string {
	if f.PkgPath != "" {
		return "-"
	}
	if tag, ok := f.Tag.Lookup("config"); ok {
		if tag == "-" {
			return "-"
		}
		if tag != "" {
			return tag
		}
	}
	return f.Name
}
