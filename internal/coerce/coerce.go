// Package coerce normalizes scalar values decoded by persistence codecs
// (json.Number, float64, int64, strings) back into the static types a schema
// declares.
package coerce

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Value converts raw into a value of type t, or reports why it cannot.
func Value(raw any, t reflect.Type) (any, error) {
	if raw == nil {
		return nil, fmt.Errorf("coerce: nil value for %s", t)
	}
	rv := reflect.ValueOf(raw)
	if rv.Type() == t {
		return raw, nil
	}

	if n, ok := raw.(json.Number); ok {
		return fromNumber(n, t)
	}
	if t == durationType {
		if s, ok := raw.(string); ok {
			d, err := time.ParseDuration(s)
			if err != nil {
				return nil, fmt.Errorf("coerce: duration %q: %w", s, err)
			}
			return d, nil
		}
	}

	if SameKindClass(rv.Kind(), t.Kind()) && rv.Type().ConvertibleTo(t) {
		return rv.Convert(t).Interface(), nil
	}
	return nil, fmt.Errorf("coerce: cannot convert %T to %s", raw, t)
}

func fromNumber(n json.Number, t reflect.Type) (any, error) {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("coerce: number %q as %s: %w", n, t, err)
		}
		return reflect.ValueOf(i).Convert(t).Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, err := n.Int64()
		if err != nil || i < 0 {
			return nil, fmt.Errorf("coerce: number %q is not a valid %s", n, t)
		}
		return reflect.ValueOf(uint64(i)).Convert(t).Interface(), nil
	case reflect.Float32, reflect.Float64:
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("coerce: number %q as %s: %w", n, t, err)
		}
		return reflect.ValueOf(f).Convert(t).Interface(), nil
	case reflect.String:
		return reflect.ValueOf(n.String()).Convert(t).Interface(), nil
	default:
		return nil, fmt.Errorf("coerce: cannot convert number %q to %s", n, t)
	}
}

// SameKindClass guards reflect conversions so cross-class conversions with
// surprising semantics (int -> string rune conversion, notably) are
// rejected.
func SameKindClass(a, b reflect.Kind) bool {
	return kindClass(a) != classOther && kindClass(a) == kindClass(b)
}

type class int

const (
	classOther class = iota
	classBool
	classNumber
	classString
)

func kindClass(k reflect.Kind) class {
	switch k {
	case reflect.Bool:
		return classBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return classNumber
	case reflect.String:
		return classString
	default:
		return classOther
	}
}
