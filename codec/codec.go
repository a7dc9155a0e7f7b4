// Package codec provides concrete implementations of the opaque item
// Codec contract pakdb's Builder/Reader accept: an
// Encode(item)->bytes / Decode(bytes)->item pair the core treats
// opaquely, with the single requirement Decode(Encode(x)) == x.
package codec

// Codec converts values of T to and from their persisted byte
// representation. Implementations must be self-describing enough that
// Decode(Encode(x)) reconstructs x; pakdb does not interpret the bytes
// itself.
type Codec[T any] interface {
	Encode(item T) ([]byte, error)
	Decode(data []byte) (T, error)
}
