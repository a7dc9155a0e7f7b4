package codec

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// JSON is a Codec backed by json-iterator/go, configured compatible with
// encoding/json so struct tags behave as callers expect.
type JSON[T any] struct{}

// NewJSON returns a JSON codec for T.
func NewJSON[T any]() JSON[T] { return JSON[T]{} }

// Encode marshals item as compact JSON.
func (JSON[T]) Encode(item T) ([]byte, error) {
	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("codec: json encode: %w", err)
	}
	return b, nil
}

// Decode unmarshals data into a new T.
func (JSON[T]) Decode(data []byte) (T, error) {
	var out T
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("codec: json decode: %w", err)
	}
	return out, nil
}
