package edit

import (
	"errors"
	"strings"
	"testing"
	"time"

	settings "github.com/goliatone/go-settings"
	"github.com/goliatone/go-settings/pkg/activity"
)

type panel struct {
	Thickness int           `config:"thickness" default:"3" min:"1" max:"10"`
	Scale     float64       `config:"scale" default:"1.5"`
	Title     string        `config:"title" default:"untitled"`
	Timeout   time.Duration `config:"timeout" default:"30s"`
	Grid      bool          `config:"grid"`
}

func register(t *testing.T, m *Manager) *settings.Registry {
	t.Helper()
	r := settings.New()
	if err := settings.Register(r, "panel", panel{}, m); err != nil {
		t.Fatalf("register: %v", err)
	}
	return r
}

func TestInitScalarSeedsDraftsFromDefaults(t *testing.T) {
	m := NewManager()
	register(t, m)

	field, ok := m.Field(settings.ParsePath("thickness"))
	if !ok {
		t.Fatal("expected thickness field")
	}
	if field.Draft != "3" {
		t.Fatalf("expected draft from default, got %q", field.Draft)
	}
	if field.Dirty || field.Has {
		t.Fatalf("fresh field must be clean: %+v", field)
	}

	field, _ = m.Field(settings.ParsePath("timeout"))
	if field.Draft != "30s" {
		t.Fatalf("expected duration formatting, got %q", field.Draft)
	}
}

func TestCommitInstallsOverride(t *testing.T) {
	m := NewManager()
	r := register(t, m)

	path := settings.ParsePath("thickness")
	if err := m.SetDraft(path, "7"); err != nil {
		t.Fatalf("set draft: %v", err)
	}
	if dirty := m.Dirty(); len(dirty) != 1 || !dirty[0].Equal(path) {
		t.Fatalf("unexpected dirty set: %v", dirty)
	}
	if err := m.Commit(path); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(m.Dirty()) != 0 {
		t.Fatal("commit left field dirty")
	}

	view, err := settings.Read[panel](r, "panel")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if view.Thickness != 7 {
		t.Fatalf("committed value not folded, got %d", view.Thickness)
	}
}

func TestCommitEmitsScalarEvent(t *testing.T) {
	capture := &activity.CaptureHook{}
	emitter := activity.NewEmitter(activity.Hooks{capture}, activity.Config{Enabled: true})
	m := NewManager(WithEmitter(emitter, "panel"))
	register(t, m)

	path := settings.ParsePath("thickness")
	if err := m.SetDraft(path, "7"); err != nil {
		t.Fatalf("set draft: %v", err)
	}
	if err := m.Commit(path); err != nil {
		t.Fatalf("commit: %v", err)
	}

	event, ok := capture.Last()
	if !ok {
		t.Fatal("expected a committed event")
	}
	if event.Verb != "settings.committed" || event.ObjectType != "settings.scalar" {
		t.Fatalf("unexpected event subject: %s %s", event.Verb, event.ObjectType)
	}
	if event.ObjectID != "panel" {
		t.Fatalf("unexpected root: %q", event.ObjectID)
	}
	if event.Metadata["path"] != "thickness" {
		t.Fatalf("unexpected path metadata: %v", event.Metadata)
	}
	if event.Metadata["old_value"] != 3 || event.Metadata["new_value"] != 7 {
		t.Fatalf("unexpected value metadata: %v", event.Metadata)
	}

	// Failed commits stay silent.
	capture.Reset()
	if err := m.SetDraft(path, "wide"); err != nil {
		t.Fatalf("set draft: %v", err)
	}
	if err := m.Commit(path); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("failed commit emitted %d events", len(capture.Events))
	}
}

func TestCommitParsesPerType(t *testing.T) {
	m := NewManager()
	register(t, m)

	cases := []struct {
		path  string
		draft string
		want  any
	}{
		{"scale", "2.25", 2.25},
		{"title", "draft title", "draft title"},
		{"grid", "true", true},
		{"timeout", "1m30s", 90 * time.Second},
	}
	for _, tc := range cases {
		path := settings.ParsePath(tc.path)
		if err := m.SetDraft(path, tc.draft); err != nil {
			t.Fatalf("%s: set draft: %v", tc.path, err)
		}
		if err := m.Commit(path); err != nil {
			t.Fatalf("%s: commit: %v", tc.path, err)
		}
		value, ok := m.Override(path)
		if !ok || value != tc.want {
			t.Fatalf("%s: expected %v, got %v (%v)", tc.path, tc.want, value, ok)
		}
	}
}

func TestCommitRejectsUnparseableDraft(t *testing.T) {
	m := NewManager()
	register(t, m)

	path := settings.ParsePath("thickness")
	if err := m.SetDraft(path, "wide"); err != nil {
		t.Fatalf("set draft: %v", err)
	}
	if err := m.Commit(path); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if _, ok := m.Override(path); ok {
		t.Fatal("failed commit installed an override")
	}
}

func TestCommitEnforcesRangeTags(t *testing.T) {
	m := NewManager()
	register(t, m)

	path := settings.ParsePath("thickness")
	for _, draft := range []string{"0", "11"} {
		if err := m.SetDraft(path, draft); err != nil {
			t.Fatalf("set draft: %v", err)
		}
		if err := m.Commit(path); !errors.Is(err, ErrRange) {
			t.Fatalf("draft %q: expected ErrRange, got %v", draft, err)
		}
	}
	if err := m.SetDraft(path, "10"); err != nil {
		t.Fatalf("set draft: %v", err)
	}
	if err := m.Commit(path); err != nil {
		t.Fatalf("boundary value rejected: %v", err)
	}
}

func TestRevertRestoresCommittedThenDefault(t *testing.T) {
	m := NewManager()
	register(t, m)
	path := settings.ParsePath("title")

	if err := m.SetDraft(path, "scratch"); err != nil {
		t.Fatalf("set draft: %v", err)
	}
	if err := m.Revert(path); err != nil {
		t.Fatalf("revert: %v", err)
	}
	field, _ := m.Field(path)
	if field.Draft != "untitled" || field.Dirty {
		t.Fatalf("expected default draft after revert, got %+v", field)
	}

	if err := m.SetDraft(path, "kept"); err != nil {
		t.Fatalf("set draft: %v", err)
	}
	if err := m.Commit(path); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := m.SetDraft(path, "scratch again"); err != nil {
		t.Fatalf("set draft: %v", err)
	}
	if err := m.Revert(path); err != nil {
		t.Fatalf("revert: %v", err)
	}
	field, _ = m.Field(path)
	if field.Draft != "kept" {
		t.Fatalf("expected committed draft after revert, got %q", field.Draft)
	}
}

func TestClearDropsOverride(t *testing.T) {
	m := NewManager()
	register(t, m)
	path := settings.ParsePath("grid")

	if err := m.SetDraft(path, "true"); err != nil {
		t.Fatalf("set draft: %v", err)
	}
	if err := m.Commit(path); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := m.Clear(path); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := m.Override(path); ok {
		t.Fatal("cleared field still overrides")
	}
}

func TestUnknownPathErrors(t *testing.T) {
	m := NewManager()
	register(t, m)
	path := settings.ParsePath("absent")

	if err := m.SetDraft(path, "x"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("set draft: expected ErrUnknownField, got %v", err)
	}
	if err := m.Commit(path); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("commit: expected ErrUnknownField, got %v", err)
	}
	if err := m.Revert(path); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("revert: expected ErrUnknownField, got %v", err)
	}
}

func TestRenderListsFieldsWithMarkers(t *testing.T) {
	m := NewManager()
	register(t, m)

	if err := m.SetDraft(settings.ParsePath("title"), "wip"); err != nil {
		t.Fatalf("set draft: %v", err)
	}
	out := m.Render("panel", DefaultStyles())
	if !strings.Contains(out, "panel") {
		t.Fatal("missing title")
	}
	if !strings.Contains(out, "thickness = 3") {
		t.Fatalf("missing field line:\n%s", out)
	}
	if !strings.Contains(out, "*") {
		t.Fatalf("missing dirty marker:\n%s", out)
	}
}
