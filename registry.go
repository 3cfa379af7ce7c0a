package settings

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/goliatone/go-settings/pkg/activity"
)

// Registry owns named configuration roots: for each root it stores the raw
// value tree, the composed manager set, and a generation counter for change
// detection. Access follows a single-writer-or-multiple-readers discipline
// per root; distinct roots never contend.
//
// A Registry is an explicit object intended to live in the host
// application's state container, not a package-level singleton.
type Registry struct {
	mu      sync.RWMutex
	roots   map[string]*root
	emitter *activity.Emitter
}

type root struct {
	mu    sync.RWMutex
	name  string
	value reflect.Value // addressable copy of the registered value
	typ   reflect.Type
	mgr   Manager
	gen   uint64
}

// RegistryOption configures a Registry on construction.
type RegistryOption func(*Registry)

// WithActivityEmitter wires a preconfigured activity emitter. Lifecycle
// events (registered, updated, unregistered) are emitted best-effort; hook
// failures never affect registry operations.
func WithActivityEmitter(emitter *activity.Emitter) RegistryOption {
	return func(r *Registry) {
		r.emitter = emitter
	}
}

// WithActivityHooks wires lifecycle hooks with default emitter settings.
func WithActivityHooks(hooks activity.Hooks) RegistryOption {
	return func(r *Registry) {
		r.emitter = activity.NewEmitter(hooks, activity.Config{Enabled: true})
	}
}

// New constructs an empty Registry.
func New(opts ...RegistryOption) *Registry {
	r := &Registry{roots: map[string]*root{}}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Register stores a new root under name: it validates the schema shape,
// applies default tags to zero scalars of initial, then visits every scalar
// slot once so each manager can materialize its per-scalar state. Registering
// a name twice fails with ErrDuplicateRoot.
func Register[T any](r *Registry, name string, initial T, m Manager) error {
	if name == "" {
		return fmt.Errorf("settings: root name must not be empty")
	}
	if m == nil {
		m = NoManager{}
	}
	if err := ValidateSchema[T](); err != nil {
		return err
	}

	r.mu.RLock()
	_, exists := r.roots[name]
	r.mu.RUnlock()
	if exists {
		return fmt.Errorf("%w: %q", ErrDuplicateRoot, name)
	}

	holder := reflect.New(reflect.TypeOf(initial))
	holder.Elem().Set(cloneValue(reflect.ValueOf(initial)))
	value := holder.Elem()
	if value.Kind() == reflect.Struct {
		applyDefaults(value)
	}

	// The visit runs on the still-private value tree. The root only becomes
	// visible once every manager has materialized its per-scalar state, so a
	// concurrent Read or Update can never observe a half-initialized root.
	visitValue(nil, value, "", true, func(s Scalar, _ bool) {
		m.InitScalar(s)
	})

	entry := &root{
		name:  name,
		value: value,
		typ:   value.Type(),
		mgr:   m,
		gen:   1,
	}
	r.mu.Lock()
	if _, exists := r.roots[name]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateRoot, name)
	}
	r.roots[name] = entry
	r.mu.Unlock()

	r.emit(activity.BuildRootRegisteredEvent(activity.EventInput{Root: name}))
	return nil
}

// Unregister removes a root, dropping its value tree and manager state.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	_, exists := r.roots[name]
	if exists {
		delete(r.roots, name)
	}
	r.mu.Unlock()
	if !exists {
		return fmt.Errorf("%w: %q", ErrRootNotFound, name)
	}
	r.emit(activity.BuildRootUnregisteredEvent(activity.EventInput{Root: name}))
	return nil
}

// Roots returns the sorted names of all registered roots.
func (r *Registry) Roots() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.roots))
	for name := range r.roots {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Generation reports the change counter for a root. The counter increments
// on every Update, so callers can cheaply detect whether the raw tree moved
// since their last read.
func (r *Registry) Generation(name string) (uint64, error) {
	entry, err := r.lookup(name)
	if err != nil {
		return 0, err
	}
	entry.mu.RLock()
	defer entry.mu.RUnlock()
	return entry.gen, nil
}

// Read folds the root's current value tree and every manager's override
// contributions into a detached snapshot of T. The snapshot is a deep copy:
// it stays valid after the call returns and never observes later writes.
func Read[T any](r *Registry, name string) (T, error) {
	var zero T
	entry, err := r.lookup(name)
	if err != nil {
		return zero, err
	}
	entry.mu.RLock()
	defer entry.mu.RUnlock()
	if entry.typ != reflect.TypeOf(zero) {
		return zero, fmt.Errorf("settings: root %q holds %s, not %s", name, entry.typ, reflect.TypeOf(zero))
	}
	return foldValue(entry.mgr, nil, entry.value).Interface().(T), nil
}

// Update grants fn exclusive access to the raw value tree. It is the write
// half of the per-root access discipline: no Read of the same root runs
// concurrently with fn. Returning an error from fn aborts the generation
// bump but any partial mutation fn performed is kept; mutators that need
// rollback semantics should operate on a scratch copy.
func Update[T any](r *Registry, name string, fn func(*T) error) error {
	entry, err := r.lookup(name)
	if err != nil {
		return err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	ptr, ok := entry.value.Addr().Interface().(*T)
	if !ok {
		var zero T
		return fmt.Errorf("settings: root %q holds %s, not %s", name, entry.typ, reflect.TypeOf(zero))
	}
	if err := fn(ptr); err != nil {
		return err
	}
	entry.gen++
	r.emit(activity.BuildRootUpdatedEvent(activity.EventInput{Root: name}))
	return nil
}

// ManagerOf retrieves the manager of type M registered for a root, searching
// tuple members in composition order. It is how host code reaches a specific
// manager to drive its side effects (save a snapshot, commit an edit).
func ManagerOf[M Manager](r *Registry, name string) (M, error) {
	var zero M
	entry, err := r.lookup(name)
	if err != nil {
		return zero, err
	}
	if m, ok := entry.mgr.(M); ok {
		return m, nil
	}
	for _, member := range members(entry.mgr) {
		if m, ok := member.(M); ok {
			return m, nil
		}
	}
	return zero, fmt.Errorf("settings: root %q has no manager of type %s", name, reflect.TypeFor[M]())
}

func (r *Registry) lookup(name string) (*root, error) {
	r.mu.RLock()
	entry, ok := r.roots[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRootNotFound, name)
	}
	return entry, nil
}

func (r *Registry) emit(event activity.Event) {
	if r.emitter == nil || !r.emitter.Enabled() {
		return
	}
	// Lifecycle notifications are best-effort; a failing hook must not turn
	// a successful registry operation into an error.
	_ = r.emitter.Emit(context.Background(), event)
}
