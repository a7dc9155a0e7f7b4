package codec

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// Sonic is a Codec backed by bytedance/sonic, a faster drop-in JSON
// implementation for hot write paths where jsoniter's reflection
// overhead matters. Codecs are opaque to the container layout, so
// swapping implementations never changes the artifact structure.
type Sonic[T any] struct{}

// NewSonic returns a Sonic codec for T.
func NewSonic[T any]() Sonic[T] { return Sonic[T]{} }

// Encode marshals item using sonic's default API.
func (Sonic[T]) Encode(item T) ([]byte, error) {
	b, err := sonic.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("codec: sonic encode: %w", err)
	}
	return b, nil
}

// Decode unmarshals data into a new T using sonic's default API.
func (Sonic[T]) Decode(data []byte) (T, error) {
	var out T
	if err := sonic.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("codec: sonic decode: %w", err)
	}
	return out, nil
}
