// Package codec encodes bound values into the opaque blobs kept by a store and
// decodes them back. A codec must be schema-stable across process runs for a
// given key.
package codec

// Codec encodes and decodes a value of type V to and from a byte slice.
// Implementations return an error on malformed input and must not retain the
// slices they are given.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Named is implemented by codecs that report a short format name such as
// "json". The name is attached to change events.
type Named interface {
	Name() string
}

// NameOf returns the codec's format name, or "custom" when it does not
// implement Named.
func NameOf(c any) string {
	if named, ok := c.(Named); ok {
		return named.Name()
	}
	return "custom"
}

// Func adapts a pair of functions to Codec.
type Func[V any] struct {
	EncodeFunc func(V) ([]byte, error)
	DecodeFunc func([]byte) (V, error)
}

// Encode implements Codec.
func (f Func[V]) Encode(value V) ([]byte, error) {
	if f.EncodeFunc == nil {
		return nil, ErrNotConfigured
	}
	return f.EncodeFunc(value)
}

// Decode implements Codec.
func (f Func[V]) Decode(data []byte) (V, error) {
	if f.DecodeFunc == nil {
		var zero V
		return zero, ErrNotConfigured
	}
	return f.DecodeFunc(data)
}
