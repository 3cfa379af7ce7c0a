package settings

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFoldWithoutOverridesIsIdentity(t *testing.T) {
	r := New()
	initial := lineStyle{Thickness: 4, Mode: modeA{X: 2}, Label: "dotted"}
	if err := Register(r, "style", initial, newMapManager("empty")); err != nil {
		t.Fatalf("register: %v", err)
	}

	view, err := Read[lineStyle](r, "style")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := cmp.Diff(initial, view); diff != "" {
		t.Fatalf("identity fold diverged (-want +got):\n%s", diff)
	}
}

func TestFoldAppliesScalarOverride(t *testing.T) {
	m := newMapManager("m")
	r := New()
	if err := Register(r, "style", lineStyle{Mode: modeA{X: 5}}, m); err != nil {
		t.Fatalf("register: %v", err)
	}

	m.overrides["thickness"] = 7
	view, err := Read[lineStyle](r, "style")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if view.Thickness != 7 {
		t.Fatalf("expected override 7, got %d", view.Thickness)
	}
	payload, ok := view.Mode.(modeA)
	if !ok || payload.X != 5 {
		t.Fatalf("untouched fields changed: %+v", view.Mode)
	}
}

func TestFoldSkipsMismatchedOverrideTypes(t *testing.T) {
	m := newMapManager("m")
	r := New()
	if err := Register(r, "style", lineStyle{Thickness: 4}, m); err != nil {
		t.Fatalf("register: %v", err)
	}

	m.overrides["thickness"] = "not a number"
	m.overrides["label"] = struct{}{}
	view, err := Read[lineStyle](r, "style")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if view.Thickness != 4 {
		t.Fatalf("mismatched override applied: %d", view.Thickness)
	}
	if view.Label != "solid" {
		t.Fatalf("mismatched override applied to label: %q", view.Label)
	}
}

func TestFoldSkipsCrossClassConvertibleOverrides(t *testing.T) {
	m := newMapManager("m")
	r := New()
	if err := Register(r, "style", lineStyle{}, m); err != nil {
		t.Fatalf("register: %v", err)
	}

	// int -> string is convertible in Go (rune conversion) but never a
	// legitimate override.
	m.overrides["label"] = 65
	m.overrides["thickness"] = true
	view, err := Read[lineStyle](r, "style")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if view.Label != "solid" {
		t.Fatalf("cross-class override applied: label=%q", view.Label)
	}
	if view.Thickness != 3 {
		t.Fatalf("cross-class override applied: thickness=%d", view.Thickness)
	}
}

func TestFoldConvertsCompatibleKinds(t *testing.T) {
	m := newMapManager("m")
	r := New()
	if err := Register(r, "style", lineStyle{}, m); err != nil {
		t.Fatalf("register: %v", err)
	}

	m.overrides["thickness"] = int64(8)
	view, _ := Read[lineStyle](r, "style")
	if view.Thickness != 8 {
		t.Fatalf("expected converted override, got %d", view.Thickness)
	}
}

func TestTupleOverrideLastWins(t *testing.T) {
	first := newMapManager("first")
	second := newMapManager("second")
	first.overrides["thickness"] = 5
	second.overrides["thickness"] = 9

	r := New()
	if err := Register(r, "style", lineStyle{}, Compose2(first, second)); err != nil {
		t.Fatalf("register: %v", err)
	}

	view, _ := Read[lineStyle](r, "style")
	if view.Thickness != 9 {
		t.Fatalf("expected later manager to win, got %d", view.Thickness)
	}

	// Only the earlier manager has a value for label.
	first.overrides["label"] = "dashed"
	view, _ = Read[lineStyle](r, "style")
	if view.Label != "dashed" {
		t.Fatalf("expected earlier manager's value to survive, got %q", view.Label)
	}
}

func TestDiscrimOverrideSwitchesVariant(t *testing.T) {
	m := newMapManager("m")
	r := New()
	if err := Register(r, "style", lineStyle{Mode: modeA{X: 1}}, m); err != nil {
		t.Fatalf("register: %v", err)
	}

	m.overrides["mode.discrim"] = "B"
	view, _ := Read[lineStyle](r, "style")
	if _, ok := view.Mode.(modeB); !ok {
		t.Fatalf("expected modeB, got %T", view.Mode)
	}
}

func TestUnknownDiscrimOverrideIsIgnored(t *testing.T) {
	m := newMapManager("m")
	r := New()
	if err := Register(r, "style", lineStyle{Mode: modeA{X: 1}}, m); err != nil {
		t.Fatalf("register: %v", err)
	}

	m.overrides["mode.discrim"] = "Nope"
	view, _ := Read[lineStyle](r, "style")
	payload, ok := view.Mode.(modeA)
	if !ok || payload.X != 1 {
		t.Fatalf("expected live variant to survive unknown discrim, got %#v", view.Mode)
	}
}

// Manager state is keyed by path, not by the current selection, so overrides
// of an unselected variant survive switching away and back.
func TestVariantStateRetention(t *testing.T) {
	m := newMapManager("m")
	r := New()
	if err := Register(r, "style", lineStyle{Mode: modeA{X: 1}}, m); err != nil {
		t.Fatalf("register: %v", err)
	}

	m.overrides["mode.A:x"] = 42

	// Switch to B: A's override stays in manager state.
	err := Update(r, "style", func(s *lineStyle) error {
		s.Mode = modeB{}
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	view, _ := Read[lineStyle](r, "style")
	if _, ok := view.Mode.(modeB); !ok {
		t.Fatalf("expected modeB, got %T", view.Mode)
	}

	// Switch back: the retained override reappears.
	err = Update(r, "style", func(s *lineStyle) error {
		s.Mode = modeA{X: 1}
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	view, _ = Read[lineStyle](r, "style")
	payload, ok := view.Mode.(modeA)
	if !ok {
		t.Fatalf("expected modeA, got %T", view.Mode)
	}
	if payload.X != 42 {
		t.Fatalf("retained override lost, x=%d", payload.X)
	}
}

// A discrim override materializes the target variant from its defaults plus
// any path-keyed overrides, even while the raw tree still holds the old one.
func TestDiscrimOverrideUsesRetainedPayloadState(t *testing.T) {
	m := newMapManager("m")
	r := New()
	if err := Register(r, "style", lineStyle{Mode: modeB{}}, m); err != nil {
		t.Fatalf("register: %v", err)
	}

	m.overrides["mode.discrim"] = "A"
	m.overrides["mode.A:x"] = 11

	view, _ := Read[lineStyle](r, "style")
	payload, ok := view.Mode.(modeA)
	if !ok {
		t.Fatalf("expected modeA, got %T", view.Mode)
	}
	if payload.X != 11 {
		t.Fatalf("expected override on materialized payload, got %d", payload.X)
	}
}

func TestFoldNilEnumUsesDefaultVariant(t *testing.T) {
	r := New()
	if err := Register(r, "style", lineStyle{}, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	view, _ := Read[lineStyle](r, "style")
	payload, ok := view.Mode.(modeA)
	if !ok {
		t.Fatalf("expected first registered variant, got %T", view.Mode)
	}
	if payload.X != 5 {
		t.Fatalf("expected payload defaults, got %d", payload.X)
	}
}
