package settings

import (
	"encoding/json"
	"fmt"
)

// Trace captures provenance for one scalar path: the raw stored value and
// each composed manager's contribution, in composition order.
type Trace struct {
	Path      string       `json:"path"`
	Raw       any          `json:"raw"`
	Layers    []Provenance `json:"layers,omitempty"`
	Effective any          `json:"effective"`
}

// Provenance details how a single manager contributed to a traced path.
type Provenance struct {
	Manager string `json:"manager"`
	Value   any    `json:"value,omitempty"`
	Found   bool   `json:"found"`
}

// ToJSON serialises the trace for logging or transport.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a payload previously produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

// Explain reports where the effective value of one scalar comes from: the
// raw tree, or whichever manager's override won the fold.
func (r *Registry) Explain(name string, path Path) (Trace, error) {
	entry, err := r.lookup(name)
	if err != nil {
		return Trace{}, err
	}
	entry.mu.RLock()
	defer entry.mu.RUnlock()

	var raw any
	found := false
	visitValue(nil, entry.value, "", true, func(s Scalar, live bool) {
		if !found && s.Path.Equal(path) {
			raw = s.Default
			found = true
		}
	})
	if !found {
		return Trace{}, fmt.Errorf("settings: root %q has no scalar %q", name, path.String())
	}

	trace := Trace{Path: path.String(), Raw: raw, Effective: raw}
	for _, member := range members(entry.mgr) {
		value, ok := member.Override(path)
		trace.Layers = append(trace.Layers, Provenance{
			Manager: managerName(member),
			Value:   value,
			Found:   ok,
		})
		if ok {
			trace.Effective = value
		}
	}
	return trace, nil
}
