package settings

import "reflect"

// Scalar describes one addressable leaf of a schema: its path identity, its
// static type, the value it starts from, and the raw struct tag of the field
// that declared it. Managers read their own metadata (min, max, multiline,
// ...) from Tag.
type Scalar struct {
	Path    Path
	Type    reflect.Type
	Default any
	Tag     reflect.StructTag
}

// Manager attaches per-scalar state uniformly across a schema.
//
// InitScalar is called once per scalar when a root is registered, in
// deterministic declaration order, covering every registered enum variant's
// shape regardless of the current selection. Implementations must be
// idempotent for repeated paths.
//
// Override optionally supersedes the raw stored value for a scalar when a
// read snapshot is folded. Managers that only observe (validation, metrics)
// return false for every path.
type Manager interface {
	InitScalar(s Scalar)
	Override(path Path) (any, bool)
}

// Named is implemented by managers that expose a stable name for trace and
// activity output.
type Named interface {
	Name() string
}

// VisitScalars walks every scalar slot of value in declaration order,
// including the shapes of unselected enum variants. live reports whether the
// slot is backed by the current value tree (unselected variant payloads are
// visited with their defaults and live == false).
func VisitScalars(value any, fn func(s Scalar, live bool)) {
	if value == nil || fn == nil {
		return
	}
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}
	visitValue(nil, v, "", true, fn)
}

// managerName labels a manager for traces and events.
func managerName(m Manager) string {
	if named, ok := m.(Named); ok {
		return named.Name()
	}
	return reflect.TypeOf(m).String()
}

// members expands static manager tuples into their ordered leaves. A plain
// manager is its own single member.
func members(m Manager) []Manager {
	if m == nil {
		return nil
	}
	if group, ok := m.(interface{ managers() []Manager }); ok {
		var out []Manager
		for _, member := range group.managers() {
			out = append(out, members(member)...)
		}
		return out
	}
	return []Manager{m}
}
