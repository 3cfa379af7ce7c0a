// Package edit keeps interactive editor state for every scalar of a schema:
// a textual draft, a dirty flag and, once a draft is committed, a typed
// override that supersedes the stored value on reads.
package edit

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"sync"
	"time"

	"github.com/goliatone/go-settings"
	"github.com/goliatone/go-settings/pkg/activity"
)

var (
	// ErrUnknownField reports a path no InitScalar call ever announced.
	ErrUnknownField = errors.New("edit: unknown field")
	// ErrParse reports a draft that does not parse as the field's type.
	ErrParse = errors.New("edit: parse")
	// ErrRange reports a committed value outside the field's min/max tags.
	ErrRange = errors.New("edit: out of range")
)

type entry struct {
	scalar    settings.Scalar
	draft     string
	dirty     bool
	committed any
	has       bool
}

// Field is a read-only view of one editable scalar.
type Field struct {
	Path      settings.Path
	Type      reflect.Type
	Draft     string
	Dirty     bool
	Committed any
	Has       bool
}

// Manager holds editor state keyed by scalar path. The zero value is not
// usable; construct with NewManager.
type Manager struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*entry
	emitter *activity.Emitter
	root    string
}

// Option configures a Manager.
type Option func(*Manager)

// WithEmitter wires an activity emitter so every successful Commit emits a
// scalar lifecycle event attributed to root.
func WithEmitter(emitter *activity.Emitter, root string) Option {
	return func(m *Manager) {
		m.emitter = emitter
		m.root = root
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{entries: map[string]*entry{}}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Name identifies the manager in traces and activity events.
func (m *Manager) Name() string { return "edit" }

// InitScalar seeds the field's draft from its default. Repeated
// announcements of the same path are ignored.
func (m *Manager) InitScalar(s settings.Scalar) {
	key := s.Path.String()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; ok {
		return
	}
	m.entries[key] = &entry{scalar: s, draft: formatValue(s.Default)}
	m.order = append(m.order, key)
}

// Override exposes the committed value, if any, to snapshot folding.
func (m *Manager) Override(path settings.Path) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[path.String()]
	if !ok || !e.has {
		return nil, false
	}
	return e.committed, true
}

// SetDraft replaces the field's draft text and marks it dirty.
func (m *Manager) SetDraft(path settings.Path, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[path.String()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, path)
	}
	e.draft = text
	e.dirty = true
	return nil
}

// Commit parses the field's draft, enforces its min/max tags and installs
// the result as the field's override. The draft stays as typed; only the
// dirty flag is cleared.
func (m *Manager) Commit(path settings.Path) error {
	value, old, err := m.commit(path)
	if err != nil {
		return err
	}
	m.emit(activity.BuildOverrideCommittedEvent(activity.EventInput{
		Root:     m.root,
		Path:     path.String(),
		OldValue: old,
		NewValue: value,
	}))
	return nil
}

func (m *Manager) commit(path settings.Path) (value, old any, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[path.String()]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownField, path)
	}
	value, err = parseDraft(e.draft, e.scalar.Type)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}
	if err := checkRange(value, e.scalar); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrRange, path, err)
	}
	if e.has {
		old = e.committed
	} else {
		old = e.scalar.Default
	}
	e.committed = value
	e.has = true
	e.dirty = false
	return value, old, nil
}

// emit is best-effort; hook failures never fail a commit.
func (m *Manager) emit(event activity.Event) {
	if m.emitter == nil || !m.emitter.Enabled() {
		return
	}
	_ = m.emitter.Emit(context.Background(), event)
}

// Revert restores the field's draft from its committed value, or from its
// default when nothing was ever committed, and drops the dirty flag.
func (m *Manager) Revert(path settings.Path) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[path.String()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, path)
	}
	if e.has {
		e.draft = formatValue(e.committed)
	} else {
		e.draft = formatValue(e.scalar.Default)
	}
	e.dirty = false
	return nil
}

// Clear drops the field's override so reads fall back to the stored value.
func (m *Manager) Clear(path settings.Path) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[path.String()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, path)
	}
	e.committed = nil
	e.has = false
	return nil
}

// Dirty lists the paths whose drafts have uncommitted changes, in
// declaration order.
func (m *Manager) Dirty() []settings.Path {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []settings.Path
	for _, key := range m.order {
		if m.entries[key].dirty {
			out = append(out, m.entries[key].scalar.Path)
		}
	}
	return out
}

// Fields returns a snapshot of every editable scalar in declaration order.
func (m *Manager) Fields() []Field {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Field, 0, len(m.order))
	for _, key := range m.order {
		e := m.entries[key]
		out = append(out, Field{
			Path:      e.scalar.Path,
			Type:      e.scalar.Type,
			Draft:     e.draft,
			Dirty:     e.dirty,
			Committed: e.committed,
			Has:       e.has,
		})
	}
	return out
}

// Field returns the view for one path.
func (m *Manager) Field(path settings.Path) (Field, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[path.String()]
	if !ok {
		return Field{}, false
	}
	return Field{
		Path:      e.scalar.Path,
		Type:      e.scalar.Type,
		Draft:     e.draft,
		Dirty:     e.dirty,
		Committed: e.committed,
		Has:       e.has,
	}, true
}

var durationType = reflect.TypeOf(time.Duration(0))

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	if d, ok := v.(time.Duration); ok {
		return d.String()
	}
	return fmt.Sprintf("%v", v)
}

func parseDraft(text string, t reflect.Type) (any, error) {
	if t == durationType {
		d, err := time.ParseDuration(text)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	switch t.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(b).Convert(t).Interface(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(text, 10, t.Bits())
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(n).Convert(t).Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(text, 10, t.Bits())
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(n).Convert(t).Interface(), nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(text, t.Bits())
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(f).Convert(t).Interface(), nil
	case reflect.String:
		return reflect.ValueOf(text).Convert(t).Interface(), nil
	default:
		return nil, fmt.Errorf("unsupported field type %s", t)
	}
}

// checkRange enforces the min and max struct tags on numeric fields. Fields
// without tags accept any parsed value.
func checkRange(value any, s settings.Scalar) error {
	min, hasMin := s.Tag.Lookup("min")
	max, hasMax := s.Tag.Lookup("max")
	if !hasMin && !hasMax {
		return nil
	}
	v := reflect.ValueOf(value)
	var f float64
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f = float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f = float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		f = v.Float()
	default:
		return nil
	}
	if hasMin {
		lo, err := strconv.ParseFloat(min, 64)
		if err != nil {
			return fmt.Errorf("bad min tag %q", min)
		}
		if f < lo {
			return fmt.Errorf("%v below minimum %v", value, lo)
		}
	}
	if hasMax {
		hi, err := strconv.ParseFloat(max, 64)
		if err != nil {
			return fmt.Errorf("bad max tag %q", max)
		}
		if f > hi {
			return fmt.Errorf("%v above maximum %v", value, hi)
		}
	}
	return nil
}
