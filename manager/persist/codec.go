package persist

import (
	"bytes"
	"encoding/json"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Codec serializes flat snapshot documents (path key -> scalar value).
type Codec interface {
	Name() string
	Marshal(snapshot map[string]any) ([]byte, error)
	Unmarshal(data []byte) (map[string]any, error)
}

// JSONCodec encodes snapshots as a single JSON object with sorted keys.
type JSONCodec struct {
	// Pretty switches to indented output.
	Pretty bool
}

// Name implements Codec.
func (JSONCodec) Name() string { return "json" }

// Marshal implements Codec.
func (c JSONCodec) Marshal(snapshot map[string]any) ([]byte, error) {
	if c.Pretty {
		return json.MarshalIndent(snapshot, "", "  ")
	}
	return json.Marshal(snapshot)
}

// Unmarshal implements Codec. Numbers decode as json.Number so integer
// scalars round-trip without float precision loss.
func (JSONCodec) Unmarshal(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// YAMLCodec encodes snapshots as a flat YAML mapping.
type YAMLCodec struct{}

// Name implements Codec.
func (YAMLCodec) Name() string { return "yaml" }

// Marshal implements Codec.
func (YAMLCodec) Marshal(snapshot map[string]any) ([]byte, error) {
	return yaml.Marshal(snapshot)
}

// Unmarshal implements Codec.
func (YAMLCodec) Unmarshal(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TOMLCodec encodes snapshots as flat TOML key/value pairs. Path keys
// containing dots are quoted by the encoder.
type TOMLCodec struct{}

// Name implements Codec.
func (TOMLCodec) Name() string { return "toml" }

// Marshal implements Codec.
func (TOMLCodec) Marshal(snapshot map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(snapshot); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal implements Codec.
func (TOMLCodec) Unmarshal(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := toml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
