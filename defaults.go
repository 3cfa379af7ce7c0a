package settings

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// applyDefaults fills zero scalar fields from `default:"..."` struct tags and
// materializes nil enum fields as their default variant. v must be an
// addressable struct value. Parse failures are ignored here; ValidateSchema
// reports them before a root is stored.
func applyDefaults(v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if fieldKey(f) == "-" {
			continue
		}
		fv := v.Field(i)
		switch {
		case isScalarKind(fv.Kind()):
			tag, ok := f.Tag.Lookup("default")
			if !ok || !fv.IsZero() {
				continue
			}
			if parsed, err := parseScalar(tag, fv.Type()); err == nil {
				fv.Set(parsed)
			}
		case fv.Kind() == reflect.Struct:
			applyDefaults(fv)
		case fv.Kind() == reflect.Interface:
			applyEnumDefault(fv, f.Tag)
		case fv.Kind() == reflect.Slice:
			for j := 0; j < fv.Len(); j++ {
				if fv.Index(j).Kind() == reflect.Struct {
					applyDefaults(fv.Index(j))
				}
			}
		}
	}
}

func applyEnumDefault(fv reflect.Value, tag reflect.StructTag) {
	infos, ok := RegisteredVariants(fv.Type())
	if !ok || len(infos) == 0 {
		return
	}
	if fv.IsNil() {
		info := infos[0]
		if name, found := tag.Lookup("default"); found {
			if selected, exists := variantByTag(fv.Type(), name); exists {
				info = selected
			}
		}
		fv.Set(newWithDefaults(info.Type))
		return
	}
	// Re-apply defaults inside a caller-supplied payload so zero fields with
	// default tags still get filled.
	payload := reflect.New(fv.Elem().Type()).Elem()
	payload.Set(fv.Elem())
	applyDefaults(payload)
	fv.Set(payload)
}

// newWithDefaults builds a zero value of t with its default tags applied.
func newWithDefaults(t reflect.Type) reflect.Value {
	v := reflect.New(t).Elem()
	if t.Kind() == reflect.Struct {
		applyDefaults(v)
	}
	return v
}

// parseScalar converts a tag literal into a value of the scalar type t.
func parseScalar(text string, t reflect.Type) (reflect.Value, error) {
	if t == durationType {
		d, err := time.ParseDuration(text)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("settings: parse duration %q: %w", text, err)
		}
		return reflect.ValueOf(d), nil
	}
	switch t.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("settings: parse bool %q: %w", text, err)
		}
		return reflect.ValueOf(b).Convert(t), nil
	case reflect.String:
		return reflect.ValueOf(text).Convert(t), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("settings: parse int %q: %w", text, err)
		}
		return reflect.ValueOf(n).Convert(t), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("settings: parse uint %q: %w", text, err)
		}
		return reflect.ValueOf(n).Convert(t), nil
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("settings: parse float %q: %w", text, err)
		}
		return reflect.ValueOf(n).Convert(t), nil
	default:
		return reflect.Value{}, fmt.Errorf("settings: %s is not a scalar type", t)
	}
}
