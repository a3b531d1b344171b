package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSONOption configures a JSON codec.
type JSONOption func(*jsonConfig)

type jsonConfig struct {
	disallowUnknown bool
	useNumber       bool
}

// WithDisallowUnknownFields makes Decode fail on fields V does not declare.
func WithDisallowUnknownFields() JSONOption {
	return func(cfg *jsonConfig) {
		cfg.disallowUnknown = true
	}
}

// WithUseNumber decodes numbers into json.Number when V holds interfaces.
func WithUseNumber() JSONOption {
	return func(cfg *jsonConfig) {
		cfg.useNumber = true
	}
}

// JSON is the default codec.
type JSON[V any] struct {
	cfg jsonConfig
}

// NewJSON constructs a JSON codec for V.
func NewJSON[V any](opts ...JSONOption) JSON[V] {
	cfg := jsonConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return JSON[V]{cfg: cfg}
}

// Name implements Named.
func (JSON[V]) Name() string { return "json" }

// Encode implements Codec.
func (c JSON[V]) Encode(value V) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("codec: json encode: %w", err)
	}
	return data, nil
}

// Decode implements Codec. Trailing data after the first JSON value is
// rejected.
func (c JSON[V]) Decode(data []byte) (V, error) {
	var out V
	if len(bytes.TrimSpace(data)) == 0 {
		return out, ErrEmptyPayload
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	if c.cfg.disallowUnknown {
		decoder.DisallowUnknownFields()
	}
	if c.cfg.useNumber {
		decoder.UseNumber()
	}
	if err := decoder.Decode(&out); err != nil {
		var zero V
		return zero, fmt.Errorf("codec: json decode: %w", err)
	}
	if decoder.More() {
		var zero V
		return zero, fmt.Errorf("codec: json decode: trailing data after value")
	}
	return out, nil
}
