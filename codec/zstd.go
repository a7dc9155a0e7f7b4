package codec

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Zstd wraps another Codec and compresses its encoded bytes with zstd,
// useful for large or repetitive item payloads (e.g. JSON blobs) where
// vault size matters more than encode/decode latency.
type Zstd[T any] struct {
	inner Codec[T]

	encOnce sync.Once
	enc     *zstd.Encoder
	encErr  error

	decOnce sync.Once
	dec     *zstd.Decoder
	decErr  error
}

// NewZstd wraps inner with zstd compression.
func NewZstd[T any](inner Codec[T]) *Zstd[T] {
	return &Zstd[T]{inner: inner}
}

func (c *Zstd[T]) encoder() (*zstd.Encoder, error) {
	c.encOnce.Do(func() {
		c.enc, c.encErr = zstd.NewWriter(nil)
	})
	return c.enc, c.encErr
}

func (c *Zstd[T]) decoder() (*zstd.Decoder, error) {
	c.decOnce.Do(func() {
		c.dec, c.decErr = zstd.NewReader(nil)
	})
	return c.dec, c.decErr
}

// Encode encodes item with the wrapped codec, then compresses the result.
func (c *Zstd[T]) Encode(item T) ([]byte, error) {
	raw, err := c.inner.Encode(item)
	if err != nil {
		return nil, err
	}
	enc, err := c.encoder()
	if err != nil {
		return nil, fmt.Errorf("codec: zstd encoder: %w", err)
	}
	return enc.EncodeAll(raw, nil), nil
}

// Decode decompresses data, then decodes it with the wrapped codec.
func (c *Zstd[T]) Decode(data []byte) (T, error) {
	var zero T
	dec, err := c.decoder()
	if err != nil {
		return zero, fmt.Errorf("codec: zstd decoder: %w", err)
	}
	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return zero, fmt.Errorf("codec: zstd decompress: %w", err)
	}
	return c.inner.Decode(raw)
}
