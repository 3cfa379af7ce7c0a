package settings

import (
	"reflect"
	"strconv"
)

type scalarFn func(s Scalar, live bool)

func isScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// fieldKey resolves the path segment for a struct field, honoring
// `config:"name"` renames. Returns "-" for fields excluded from the schema.
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

func visitValue(prefix Path, v reflect.Value, tag reflect.StructTag, live bool, fn scalarFn) {
	switch {
	case isScalarKind(v.Kind()):
		fn(Scalar{Path: prefix, Type: v.Type(), Default: v.Interface(), Tag: tag}, live)
	case v.Kind() == reflect.Struct:
		visitStruct(prefix, v, live, fn)
	case v.Kind() == reflect.Interface:
		visitEnum(prefix, v, tag, live, fn)
	case v.Kind() == reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			visitValue(prefix.Join(strconv.Itoa(i)), v.Index(i), tag, live, fn)
		}
	}
}

func visitStruct(prefix Path, v reflect.Value, live bool, fn scalarFn) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		key := fieldKey(t.Field(i))
		if key == "-" {
			continue
		}
		visitValue(prefix.Join(key), v.Field(i), t.Field(i).Tag, live, fn)
	}
}

// visitEnum walks an enum field: the discrim scalar first, then every
// registered variant's payload shape in registration order. Only the
// selected variant's payload is visited with live values; the rest are
// visited with their defaults so manager state exists for every variant
// independently of the current selection.
func visitEnum(prefix Path, v reflect.Value, tag reflect.StructTag, live bool, fn scalarFn) {
	infos, ok := RegisteredVariants(v.Type())
	if !ok {
		return
	}
	selected := liveVariantTag(v, infos)
	fn(Scalar{Path: prefix.Join(DiscrimKey), Type: reflect.TypeOf(""), Default: selected, Tag: tag}, live)

	for _, info := range infos {
		isLive := !v.IsNil() && info.Tag == selected
		var payload reflect.Value
		if isLive {
			payload = reflect.ValueOf(v.Interface())
		} else {
			payload = newWithDefaults(info.Type)
		}
		visitVariantPayload(prefix, info.Tag, payload, live && isLive, fn)
	}
}

func visitVariantPayload(enumPath Path, tag string, payload reflect.Value, live bool, fn scalarFn) {
	t := payload.Type()
	for i := 0; i < t.NumField(); i++ {
		key := fieldKey(t.Field(i))
		if key == "-" {
			continue
		}
		visitValue(enumPath.Join(variantKey(tag, key)), payload.Field(i), t.Field(i).Tag, live, fn)
	}
}

// liveVariantTag resolves the discriminant of the currently stored variant,
// falling back to the first registered variant for nil enum fields.
func liveVariantTag(v reflect.Value, infos []VariantInfo) string {
	if !v.IsNil() {
		if variant, ok := v.Interface().(Variant); ok {
			return variant.Discriminant()
		}
	}
	if len(infos) > 0 {
		return infos[0].Tag
	}
	return ""
}
