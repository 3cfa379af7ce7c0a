package settings

import "time"

// lineStyle mirrors the shape most tests exercise: a scalar with bounds, an
// enum with a payload-carrying and a payload-free variant, and an excluded
// field.
type lineStyle struct {
	Thickness int    `config:"thickness" default:"3" min:"1" max:"10"`
	Mode      mode   `config:"mode"`
	Label     string `config:"label" default:"solid"`
	Hidden    string `config:"-"`
}

type mode interface {
	Variant
}

type modeA struct {
	X int `config:"x" default:"5"`
}

func (modeA) Discriminant() string { return "A" }

type modeB struct{}

func (modeB) Discriminant() string { return "B" }

type timeouts struct {
	Dial time.Duration `config:"dial" default:"5s"`
	Idle time.Duration `config:"idle"`
}

func init() {
	RegisterVariants[mode](modeA{}, modeB{})
}

// mapManager is a test double with canned overrides and a record of every
// scalar it was initialized with.
type mapManager struct {
	name      string
	inits     map[string]Scalar
	overrides map[string]any
}

func newMapManager(name string) *mapManager {
	return &mapManager{
		name:      name,
		inits:     map[string]Scalar{},
		overrides: map[string]any{},
	}
}

func (m *mapManager) Name() string { return m.name }

func (m *mapManager) InitScalar(s Scalar) {
	if _, ok := m.inits[s.Path.String()]; ok {
		return
	}
	m.inits[s.Path.String()] = s
}

func (m *mapManager) Override(path Path) (any, bool) {
	value, ok := m.overrides[path.String()]
	return value, ok
}
