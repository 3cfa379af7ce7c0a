package settings

// Manager composition is static: a tuple of heterogeneous manager types is
// itself a Manager, preserving each member's concrete type for direct access
// (no dynamic dispatch over a shared state shape). InitScalar dispatches to
// every member in declaration order; Override folds members left to right
// with the last present result winning, so a manager composed later (e.g. an
// editor) supersedes one composed earlier (e.g. persistence).

// NoManager is the empty composition. Useful for roots that only need raw
// value storage.
type NoManager struct{}

// InitScalar implements Manager.
func (NoManager) InitScalar(Scalar) {}

// Override implements Manager.
func (NoManager) Override(Path) (any, bool) { return nil, false }

// Name implements Named.
func (NoManager) Name() string { return "none" }

// Tuple2 composes two managers.
type Tuple2[A, B Manager] struct {
	M0 A
	M1 B
}

// Compose2 builds a two-manager tuple.
func Compose2[A, B Manager](m0 A, m1 B) Tuple2[A, B] {
	return Tuple2[A, B]{M0: m0, M1: m1}
}

// InitScalar implements Manager.
func (t Tuple2[A, B]) InitScalar(s Scalar) {
	t.M0.InitScalar(s)
	t.M1.InitScalar(s)
}

// Override implements Manager.
func (t Tuple2[A, B]) Override(path Path) (any, bool) {
	value, ok := t.M0.Override(path)
	if next, found := t.M1.Override(path); found {
		return next, true
	}
	return value, ok
}

func (t Tuple2[A, B]) managers() []Manager { return []Manager{t.M0, t.M1} }

// Tuple3 composes three managers.
type Tuple3[A, B, C Manager] struct {
	M0 A
	M1 B
	M2 C
}

// Compose3 builds a three-manager tuple.
func Compose3[A, B, C Manager](m0 A, m1 B, m2 C) Tuple3[A, B, C] {
	return Tuple3[A, B, C]{M0: m0, M1: m1, M2: m2}
}

// InitScalar implements Manager.
func (t Tuple3[A, B, C]) InitScalar(s Scalar) {
	t.M0.InitScalar(s)
	t.M1.InitScalar(s)
	t.M2.InitScalar(s)
}

// Override implements Manager.
func (t Tuple3[A, B, C]) Override(path Path) (any, bool) {
	value, ok := t.M0.Override(path)
	if next, found := t.M1.Override(path); found {
		value, ok = next, true
	}
	if next, found := t.M2.Override(path); found {
		return next, true
	}
	return value, ok
}

func (t Tuple3[A, B, C]) managers() []Manager { return []Manager{t.M0, t.M1, t.M2} }

// Tuple4 composes four managers.
type Tuple4[A, B, C, D Manager] struct {
	M0 A
	M1 B
	M2 C
	M3 D
}

// Compose4 builds a four-manager tuple.
func Compose4[A, B, C, D Manager](m0 A, m1 B, m2 C, m3 D) Tuple4[A, B, C, D] {
	return Tuple4[A, B, C, D]{M0: m0, M1: m1, M2: m2, M3: m3}
}

// InitScalar implements Manager.
func (t Tuple4[A, B, C, D]) InitScalar(s Scalar) {
	t.M0.InitScalar(s)
	t.M1.InitScalar(s)
	t.M2.InitScalar(s)
	t.M3.InitScalar(s)
}

// Override implements Manager.
func (t Tuple4[A, B, C, D]) Override(path Path) (any, bool) {
	value, ok := t.M0.Override(path)
	if next, found := t.M1.Override(path); found {
		value, ok = next, true
	}
	if next, found := t.M2.Override(path); found {
		value, ok = next, true
	}
	if next, found := t.M3.Override(path); found {
		return next, true
	}
	return value, ok
}

func (t Tuple4[A, B, C, D]) managers() []Manager { return []Manager{t.M0, t.M1, t.M2, t.M3} }
