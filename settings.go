// Package settings binds typed, hierarchical configuration schemas to an
// arbitrary set of per-field managers.
//
// A schema is a plain Go struct (possibly nesting other structs, enum
// interfaces and slices). Every scalar leaf of the schema gets a stable,
// path-derived identity that managers attach state to: a persistence manager
// keeps stored values, an editor manager keeps widget drafts, a rules manager
// keeps validation results. None of them know the schema's shape, and the
// schema knows nothing about them.
//
// Roots are registered against an explicit Registry and read back as
// immutable snapshots: Read folds the raw value tree and every manager's
// override contributions into a detached deep copy of the schema type, with
// enum fields carrying the selected variant's concrete payload so callers
// discriminate with an ordinary type switch.
package settings

import "strings"

// PathSeparator joins path segments in the flat string form used by
// persistence codecs and trace output.
const PathSeparator = "."

// DiscrimKey is the child segment addressing an enum field's selected
// variant tag.
const DiscrimKey = "discrim"

// Path identifies one addressable slot in a schema. Segments are struct
// field keys in declaration order; enum payload fields use "Variant:field"
// segments and the variant selector itself lives under DiscrimKey.
type Path []string

// Join returns a new Path with segment appended. The receiver is never
// mutated; joined paths share no backing storage with it.
func (p Path) Join(segment string) Path {
	out := make(Path, 0, len(p)+1)
	out = append(out, p...)
	return append(out, segment)
}

// String renders the path in its flat dotted form.
func (p Path) String() string {
	return strings.Join(p, PathSeparator)
}

// Equal reports whether two paths address the same slot.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// ParsePath splits a flat dotted key back into segments.
func ParsePath(key string) Path {
	if key == "" {
		return nil
	}
	return Path(strings.Split(key, PathSeparator))
}

func variantKey(tag, field string) string {
	return tag + ":" + field
}
