package settings

import (
	"fmt"
	"reflect"
	"sync"
)

// Variant is implemented by every concrete payload of an enum field. The
// discriminant is the variant's stable tag; it becomes part of every payload
// scalar's path, so renaming it changes stored identities.
//
// Enum fields are declared as interface types in a schema struct. Variants
// must implement the enum interface with value receivers so folded snapshots
// can re-wrap payload copies.
type Variant interface {
	Discriminant() string
}

// VariantInfo describes one registered variant of an enum interface.
type VariantInfo struct {
	Tag  string
	Type reflect.Type
}

var variantRegistry = struct {
	sync.RWMutex
	byEnum map[reflect.Type][]VariantInfo
}{byEnum: map[reflect.Type][]VariantInfo{}}

// RegisterVariants declares the complete variant set of the enum interface E,
// in selection order. The first variant is the default when a schema value
// leaves the enum field nil. Registration is process-wide and must happen
// before any root using E is registered, typically from an init function.
//
// RegisterVariants panics on malformed registrations: schema shape errors are
// programming errors, caught at startup rather than surfaced at read time.
func RegisterVariants[E any](variants ...E) {
	enum := reflect.TypeOf((*E)(nil)).Elem()
	if enum.Kind() != reflect.Interface {
		panic(fmt.Sprintf("settings: RegisterVariants requires an interface type, got %s", enum))
	}
	if len(variants) == 0 {
		panic(fmt.Sprintf("settings: enum %s registered with no variants", enum))
	}

	infos := make([]VariantInfo, 0, len(variants))
	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		payload, ok := any(v).(Variant)
		if !ok {
			panic(fmt.Sprintf("settings: variant %T of enum %s does not implement Variant", v, enum))
		}
		typ := reflect.TypeOf(v)
		if typ.Kind() != reflect.Struct {
			panic(fmt.Sprintf("settings: variant %s of enum %s must be a struct, got %s", typ, enum, typ.Kind()))
		}
		tag := payload.Discriminant()
		if tag == "" {
			panic(fmt.Sprintf("settings: variant %s of enum %s has an empty discriminant", typ, enum))
		}
		if _, dup := seen[tag]; dup {
			panic(fmt.Sprintf("settings: duplicate variant tag %q for enum %s", tag, enum))
		}
		seen[tag] = struct{}{}
		infos = append(infos, VariantInfo{Tag: tag, Type: typ})
	}

	variantRegistry.Lock()
	defer variantRegistry.Unlock()
	if _, exists := variantRegistry.byEnum[enum]; exists {
		panic(fmt.Sprintf("settings: enum %s already registered", enum))
	}
	variantRegistry.byEnum[enum] = infos
}

// RegisteredVariants returns the ordered variant set of an enum interface
// type, and whether the type has been registered at all.
func RegisteredVariants(enum reflect.Type) ([]VariantInfo, bool) {
	variantRegistry.RLock()
	defer variantRegistry.RUnlock()
	infos, ok := variantRegistry.byEnum[enum]
	if !ok {
		return nil, false
	}
	out := make([]VariantInfo, len(infos))
	copy(out, infos)
	return out, true
}

func variantByTag(enum reflect.Type, tag string) (VariantInfo, bool) {
	variantRegistry.RLock()
	defer variantRegistry.RUnlock()
	for _, info := range variantRegistry.byEnum[enum] {
		if info.Tag == tag {
			return info, true
		}
	}
	return VariantInfo{}, false
}
