package codec

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAML encodes values as YAML documents. It suits hand-edited preference
// files.
type YAML[V any] struct {
	Strict bool
}

// NewYAML constructs a YAML codec for V. When strict is true, Decode rejects
// fields V does not declare.
func NewYAML[V any](strict bool) YAML[V] {
	return YAML[V]{Strict: strict}
}

// Name implements Named.
func (YAML[V]) Name() string { return "yaml" }

// Encode implements Codec.
func (c YAML[V]) Encode(value V) ([]byte, error) {
	data, err := yaml.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("codec: yaml encode: %w", err)
	}
	return data, nil
}

// Decode implements Codec.
func (c YAML[V]) Decode(data []byte) (V, error) {
	var out V
	if len(bytes.TrimSpace(data)) == 0 {
		return out, ErrEmptyPayload
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(c.Strict)
	if err := decoder.Decode(&out); err != nil {
		var zero V
		return zero, fmt.Errorf("codec: yaml decode: %w", err)
	}
	return out, nil
}
