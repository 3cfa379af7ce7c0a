package settings

import (
	"fmt"
	"reflect"
)

// ValidateSchema checks that T only uses addressable field shapes: scalar
// kinds, nested structs, registered enum interfaces, and slices thereof, with
// parseable default tags. It is the runtime stand-in for generator-time
// schema rejection; call it from a test per schema type to keep shape errors
// out of production paths. Register runs the same check before storing a
// root.
func ValidateSchema[T any]() error {
	var zero T
	return validateSchemaType(reflect.TypeOf(zero), nil, map[reflect.Type]bool{})
}

func validateSchemaType(t reflect.Type, at Path, inProgress map[reflect.Type]bool) error {
	if t == nil {
		return fmt.Errorf("%w: nil type at %q", ErrInvalidSchema, at.String())
	}
	if inProgress[t] {
		return fmt.Errorf("%w: recursive type %s at %q", ErrInvalidSchema, t, at.String())
	}

	switch {
	case isScalarKind(t.Kind()):
		return nil
	case t.Kind() == reflect.Struct:
		inProgress[t] = true
		defer delete(inProgress, t)
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			key := fieldKey(f)
			if key == "-" {
				continue
			}
			child := at.Join(key)
			if err := validateSchemaType(f.Type, child, inProgress); err != nil {
				return err
			}
			if tag, ok := f.Tag.Lookup("default"); ok && isScalarKind(f.Type.Kind()) {
				if _, err := parseScalar(tag, f.Type); err != nil {
					return fmt.Errorf("%w: default tag at %q: %v", ErrInvalidSchema, child.String(), err)
				}
			}
		}
		return nil
	case t.Kind() == reflect.Interface:
		infos, ok := RegisteredVariants(t)
		if !ok {
			return fmt.Errorf("%w: enum %s at %q has no registered variants", ErrInvalidSchema, t, at.String())
		}
		inProgress[t] = true
		defer delete(inProgress, t)
		for _, info := range infos {
			if err := validateSchemaType(info.Type, at.Join(info.Tag), inProgress); err != nil {
				return err
			}
		}
		return nil
	case t.Kind() == reflect.Slice:
		return validateSchemaType(t.Elem(), at.Join("0"), inProgress)
	default:
		return fmt.Errorf("%w: unsupported field kind %s at %q", ErrInvalidSchema, t.Kind(), at.String())
	}
}
