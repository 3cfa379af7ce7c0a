package settings

import "errors"

var (
	// ErrDuplicateRoot indicates Register was called twice for one name.
	ErrDuplicateRoot = errors.New("settings: root already registered")
	// ErrRootNotFound indicates a read, update or unregister against an
	// unknown root name.
	ErrRootNotFound = errors.New("settings: root not found")
	// ErrInvalidSchema indicates a schema type uses a field the binder
	// cannot address (unsupported kind, unregistered enum interface, or an
	// unparseable default tag).
	ErrInvalidSchema = errors.New("settings: invalid schema")
)
