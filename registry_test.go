package settings

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestRegisterAppliesDefaults(t *testing.T) {
	r := New()
	if err := Register(r, "style", lineStyle{}, nil); err != nil {
		t.Fatalf("register: %v", err)
	}

	view, err := Read[lineStyle](r, "style")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if view.Thickness != 3 {
		t.Fatalf("expected thickness default 3, got %d", view.Thickness)
	}
	if view.Label != "solid" {
		t.Fatalf("expected label default, got %q", view.Label)
	}
	payload, ok := view.Mode.(modeA)
	if !ok {
		t.Fatalf("expected default variant modeA, got %T", view.Mode)
	}
	if payload.X != 5 {
		t.Fatalf("expected variant default x=5, got %d", payload.X)
	}
}

func TestRegisterKeepsExplicitValues(t *testing.T) {
	r := New()
	initial := lineStyle{Thickness: 7, Mode: modeB{}, Label: "dashed"}
	if err := Register(r, "style", initial, nil); err != nil {
		t.Fatalf("register: %v", err)
	}

	view, err := Read[lineStyle](r, "style")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if view.Thickness != 7 || view.Label != "dashed" {
		t.Fatalf("explicit values overwritten: %+v", view)
	}
	if _, ok := view.Mode.(modeB); !ok {
		t.Fatalf("expected modeB, got %T", view.Mode)
	}
}

func TestRegisterDuplicateRoot(t *testing.T) {
	r := New()
	if err := Register(r, "style", lineStyle{}, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := Register(r, "style", lineStyle{}, nil)
	if !errors.Is(err, ErrDuplicateRoot) {
		t.Fatalf("expected ErrDuplicateRoot, got %v", err)
	}
}

func TestReadUnknownRoot(t *testing.T) {
	r := New()
	if _, err := Read[lineStyle](r, "missing"); !errors.Is(err, ErrRootNotFound) {
		t.Fatalf("expected ErrRootNotFound, got %v", err)
	}
}

func TestRegisterInitializesEveryVariantShape(t *testing.T) {
	r := New()
	m := newMapManager("rec")
	if err := Register(r, "style", lineStyle{}, m); err != nil {
		t.Fatalf("register: %v", err)
	}

	expected := []string{
		"thickness",
		"mode.discrim",
		"mode.A:x",
		"label",
	}
	for _, key := range expected {
		if _, ok := m.inits[key]; !ok {
			t.Fatalf("expected InitScalar for %q, saw %v", key, mapKeys(m.inits))
		}
	}
	if _, ok := m.inits["Hidden"]; ok {
		t.Fatal("excluded field leaked into InitScalar")
	}
}

// gateManager blocks inside its first InitScalar call until released, so
// tests can observe registry state mid-registration.
type gateManager struct {
	*mapManager
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGateManager() *gateManager {
	return &gateManager{
		mapManager: newMapManager("gate"),
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
}

func (g *gateManager) InitScalar(s Scalar) {
	g.once.Do(func() {
		close(g.started)
		<-g.release
	})
	g.mapManager.InitScalar(s)
}

func TestRegisterPublishesOnlyInitializedRoots(t *testing.T) {
	r := New()
	g := newGateManager()

	done := make(chan error, 1)
	go func() {
		done <- Register(r, "style", lineStyle{}, g)
	}()
	<-g.started

	// Manager state is still materializing, so the root must not be
	// reachable yet.
	if _, err := Read[lineStyle](r, "style"); !errors.Is(err, ErrRootNotFound) {
		t.Fatalf("read mid-registration: expected ErrRootNotFound, got %v", err)
	}
	if names := r.Roots(); len(names) != 0 {
		t.Fatalf("root visible mid-registration: %v", names)
	}
	if err := Update(r, "style", func(*lineStyle) error { return nil }); !errors.Is(err, ErrRootNotFound) {
		t.Fatalf("update mid-registration: expected ErrRootNotFound, got %v", err)
	}

	close(g.release)
	if err := <-done; err != nil {
		t.Fatalf("register: %v", err)
	}
	view, err := Read[lineStyle](r, "style")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if view.Thickness != 3 {
		t.Fatalf("expected defaults applied, got thickness %d", view.Thickness)
	}
	if _, ok := g.inits["thickness"]; !ok {
		t.Fatal("expected InitScalar for thickness")
	}
}

func TestUpdateBumpsGeneration(t *testing.T) {
	r := New()
	if err := Register(r, "style", lineStyle{}, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	before, err := r.Generation("style")
	if err != nil {
		t.Fatalf("generation: %v", err)
	}

	err = Update(r, "style", func(s *lineStyle) error {
		s.Thickness = 9
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	after, _ := r.Generation("style")
	if after != before+1 {
		t.Fatalf("expected generation %d, got %d", before+1, after)
	}
	view, _ := Read[lineStyle](r, "style")
	if view.Thickness != 9 {
		t.Fatalf("update not visible, thickness=%d", view.Thickness)
	}
}

func TestUpdateErrorSkipsGenerationBump(t *testing.T) {
	r := New()
	if err := Register(r, "style", lineStyle{}, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	before, _ := r.Generation("style")

	boom := fmt.Errorf("boom")
	err := Update(r, "style", func(s *lineStyle) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	after, _ := r.Generation("style")
	if after != before {
		t.Fatalf("generation moved on failed update: %d -> %d", before, after)
	}
}

func TestReadSnapshotIsDetached(t *testing.T) {
	r := New()
	if err := Register(r, "style", lineStyle{}, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	view, _ := Read[lineStyle](r, "style")
	view.Thickness = 100

	fresh, _ := Read[lineStyle](r, "style")
	if fresh.Thickness == 100 {
		t.Fatal("snapshot mutation leaked into the registry")
	}
}

func TestUnregisterAndRoots(t *testing.T) {
	r := New()
	if err := Register(r, "a", lineStyle{}, nil); err != nil {
		t.Fatalf("register a: %v", err)
	}
	if err := Register(r, "b", timeouts{}, nil); err != nil {
		t.Fatalf("register b: %v", err)
	}

	roots := r.Roots()
	if len(roots) != 2 || roots[0] != "a" || roots[1] != "b" {
		t.Fatalf("unexpected roots: %v", roots)
	}

	if err := r.Unregister("a"); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if err := r.Unregister("a"); !errors.Is(err, ErrRootNotFound) {
		t.Fatalf("expected ErrRootNotFound, got %v", err)
	}
	if _, err := Read[lineStyle](r, "a"); !errors.Is(err, ErrRootNotFound) {
		t.Fatalf("expected read after unregister to fail, got %v", err)
	}
}

func TestReadTypeMismatch(t *testing.T) {
	r := New()
	if err := Register(r, "style", lineStyle{}, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := Read[timeouts](r, "style"); err == nil {
		t.Fatal("expected type mismatch error")
	}
}

func TestManagerOfFindsTupleMembers(t *testing.T) {
	a := newMapManager("a")
	b := newMapManager("b")
	r := New()
	if err := Register(r, "style", lineStyle{}, Compose3(a, NoManager{}, b)); err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := ManagerOf[*mapManager](r, "style")
	if err != nil {
		t.Fatalf("manager of: %v", err)
	}
	if got != a {
		t.Fatalf("expected first matching member, got %q", got.name)
	}

	if _, err := ManagerOf[Tuple3[Manager, Manager, Manager]](r, "style"); err == nil {
		t.Fatal("expected missing manager type to error")
	}
}

func TestDurationDefaults(t *testing.T) {
	r := New()
	if err := Register(r, "timeouts", timeouts{}, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	view, err := Read[timeouts](r, "timeouts")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if view.Dial != 5*time.Second {
		t.Fatalf("expected 5s dial default, got %s", view.Dial)
	}
	if view.Idle != 0 {
		t.Fatalf("expected zero idle, got %s", view.Idle)
	}
}

func mapKeys(m map[string]Scalar) []string {
	out := make([]string, 0, len(m))
	for key := range m {
		out = append(out, key)
	}
	return out
}
