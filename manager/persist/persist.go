// Package persist implements the persistence manager: a per-scalar value
// store keyed by path that survives enum variant switches, serialized to and
// from flat snapshot documents by pluggable codecs.
//
// Loaded values take effect as read-fold overrides, so applying a snapshot
// never touches the raw value tree; a failed decode leaves both the tree and
// the store untouched.
package persist

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	settings "github.com/goliatone/go-settings"
	"github.com/goliatone/go-settings/internal/coerce"
)

// ErrFormat indicates a snapshot document could not be decoded or coerced
// back into the schema's scalar types.
var ErrFormat = errors.New("persist: malformed snapshot")

// Meta is storage metadata stamped on every encoded snapshot.
type Meta struct {
	SnapshotID string    `json:"snapshot_id,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// Option configures a Manager.
type Option func(*Manager)

// WithCodec selects the snapshot codec. The default is JSON.
func WithCodec(codec Codec) Option {
	return func(m *Manager) {
		if codec != nil {
			m.codec = codec
		}
	}
}

type entry struct {
	scalar settings.Scalar
	value  any
	loaded bool
}

// Manager is the persistence manager. One instance serves one root.
type Manager struct {
	mu      sync.RWMutex
	codec   Codec
	order   []string
	entries map[string]*entry
}

// NewManager constructs a persistence manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		codec:   JSONCodec{},
		entries: map[string]*entry{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Name implements settings.Named.
func (m *Manager) Name() string { return "persist" }

// InitScalar seeds the store with the scalar's initial value. Idempotent:
// repeated visits of a known path keep existing state.
func (m *Manager) InitScalar(s settings.Scalar) {
	key := s.Path.String()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[key]; exists {
		return
	}
	m.entries[key] = &entry{scalar: s, value: s.Default}
	m.order = append(m.order, key)
}

// Override implements settings.Manager: values applied by Decode or Set
// supersede the raw tree.
func (m *Manager) Override(path settings.Path) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e := m.entries[path.String()]
	if e == nil || !e.loaded {
		return nil, false
	}
	return e.value, true
}

// Snapshot refreshes the store from the live scalars of view and returns the
// complete flat document, including entries retained for scalars that are
// not currently live (unselected enum variants keep their last values).
func (m *Manager) Snapshot(view any) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	settings.VisitScalars(view, func(s settings.Scalar, live bool) {
		if !live {
			return
		}
		if e := m.entries[s.Path.String()]; e != nil {
			e.value = s.Default
		}
	})
	out := make(map[string]any, len(m.entries))
	for key, e := range m.entries {
		out[key] = e.value
	}
	return out
}

// Encode snapshots view and serializes the document with the configured
// codec, returning fresh storage metadata.
func (m *Manager) Encode(view any) ([]byte, Meta, error) {
	snapshot := m.Snapshot(view)
	data, err := m.codec.Marshal(snapshot)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("persist: encode %s snapshot: %w", m.codec.Name(), err)
	}
	return data, Meta{SnapshotID: uuid.NewString(), UpdatedAt: time.Now()}, nil
}

// Decode parses a snapshot document and applies it to the store atomically:
// every known key must coerce to its scalar's type or nothing is applied.
// Unknown keys are ignored so snapshots survive schema additions.
func (m *Manager) Decode(data []byte) error {
	decoded, err := m.codec.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFormat, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	staged := make(map[string]any, len(decoded))
	for key, raw := range decoded {
		e := m.entries[key]
		if e == nil {
			continue
		}
		value, err := coerce.Value(raw, e.scalar.Type)
		if err != nil {
			return fmt.Errorf("%w: key %q: %v", ErrFormat, key, err)
		}
		staged[key] = value
	}
	for key, value := range staged {
		e := m.entries[key]
		e.value = value
		e.loaded = true
	}
	return nil
}

// Set stores an override for one path, as if it had been loaded.
func (m *Manager) Set(path settings.Path, value any) error {
	key := path.String()
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entries[key]
	if e == nil {
		return fmt.Errorf("persist: unknown scalar %q", key)
	}
	coerced, err := coerce.Value(value, e.scalar.Type)
	if err != nil {
		return fmt.Errorf("persist: set %q: %w", key, err)
	}
	e.value = coerced
	e.loaded = true
	return nil
}

// Clear drops the loaded override for one path, restoring the scalar's
// initial value in future snapshots.
func (m *Manager) Clear(path settings.Path) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e := m.entries[path.String()]; e != nil {
		e.value = e.scalar.Default
		e.loaded = false
	}
}

// Forget evicts all store state under a path prefix. It exists as an
// explicit extension point for schemas with many large, rarely selected
// variants; nothing in the manager calls it implicitly.
func (m *Manager) Forget(prefix settings.Path) {
	lead := prefix.String()
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.order[:0]
	for _, key := range m.order {
		if key == lead || strings.HasPrefix(key, lead+settings.PathSeparator) {
			delete(m.entries, key)
			continue
		}
		kept = append(kept, key)
	}
	m.order = kept
}

// Keys returns the store's paths in first-visit order. Intended for tests
// and diagnostics.
func (m *Manager) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}
