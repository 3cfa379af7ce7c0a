package settings

import "reflect"

// FieldDescriptor describes one scalar slot of a schema: its flat path, the
// Go type behind it, whether the current value tree backs it, and the struct
// tag carrying per-field metadata. Editor surfaces and schema documents are
// built from descriptor lists.
type FieldDescriptor struct {
	Path string
	Type string
	Live bool
	Tag  reflect.StructTag
}

// Describe flattens a schema value into ordered field descriptors, covering
// every registered enum variant's shape.
func Describe(value any) []FieldDescriptor {
	var fields []FieldDescriptor
	VisitScalars(value, func(s Scalar, live bool) {
		fields = append(fields, FieldDescriptor{
			Path: s.Path.String(),
			Type: s.Type.String(),
			Live: live,
			Tag:  s.Tag,
		})
	})
	return fields
}
