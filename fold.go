package settings

import (
	"reflect"
	"strconv"

	"github.com/goliatone/go-settings/internal/coerce"
)

// foldValue builds the read snapshot for one subtree: a deep copy of v with
// manager overrides applied at every scalar path. The fold is total: a
// mismatched override type or an unknown discrim tag falls back to the raw
// value instead of failing.
func foldValue(m Manager, prefix Path, v reflect.Value) reflect.Value {
	switch {
	case isScalarKind(v.Kind()):
		return foldScalar(m, prefix, v)
	case v.Kind() == reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			field := out.Field(i)
			if !field.CanSet() {
				continue
			}
			key := fieldKey(t.Field(i))
			if key == "-" {
				field.Set(cloneValue(v.Field(i)))
				continue
			}
			field.Set(foldValue(m, prefix.Join(key), v.Field(i)))
		}
		return out
	case v.Kind() == reflect.Interface:
		return foldEnum(m, prefix, v)
	case v.Kind() == reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(foldValue(m, prefix.Join(strconv.Itoa(i)), v.Index(i)))
		}
		return out
	default:
		return cloneValue(v)
	}
}

func foldScalar(m Manager, path Path, v reflect.Value) reflect.Value {
	override, ok := m.Override(path)
	if !ok {
		return cloneValue(v)
	}
	ov := reflect.ValueOf(override)
	if !ov.IsValid() {
		return cloneValue(v)
	}
	out := reflect.New(v.Type()).Elem()
	switch {
	case ov.Type() == v.Type():
		out.Set(ov)
	case coerce.SameKindClass(ov.Kind(), v.Kind()) && ov.Type().ConvertibleTo(v.Type()):
		out.Set(ov.Convert(v.Type()))
	default:
		return cloneValue(v)
	}
	return out
}

// foldEnum resolves the effective variant (the discrim override when it
// names a registered variant, the live selection otherwise) and folds that
// variant's payload. Payloads of variants other than the live one are
// materialized from their defaults before overrides apply, which is how
// overrides retained for a previously selected variant survive a switch away
// and back.
func foldEnum(m Manager, prefix Path, v reflect.Value) reflect.Value {
	infos, ok := RegisteredVariants(v.Type())
	if !ok || len(infos) == 0 {
		return cloneValue(v)
	}
	selected := liveVariantTag(v, infos)
	effective := selected
	if override, found := m.Override(prefix.Join(DiscrimKey)); found {
		if tag, isString := override.(string); isString {
			if _, exists := variantByTag(v.Type(), tag); exists {
				effective = tag
			}
		}
	}
	info, exists := variantByTag(v.Type(), effective)
	if !exists {
		return cloneValue(v)
	}

	var base reflect.Value
	if effective == selected && !v.IsNil() {
		base = reflect.ValueOf(v.Interface())
	} else {
		base = newWithDefaults(info.Type)
	}

	payload := reflect.New(info.Type).Elem()
	for i := 0; i < info.Type.NumField(); i++ {
		field := payload.Field(i)
		if !field.CanSet() {
			continue
		}
		key := fieldKey(info.Type.Field(i))
		if key == "-" {
			field.Set(cloneValue(base.Field(i)))
			continue
		}
		field.Set(foldValue(m, prefix.Join(variantKey(info.Tag, key)), base.Field(i)))
	}

	out := reflect.New(v.Type()).Elem()
	out.Set(payload)
	return out
}
