// Package pointer implements pakdb's byte-range references into the
// vault: a (offset, size) pair optionally carrying a static type tag
// used for runtime type-match checks.
package pointer

import "github.com/rpcpool/pakdb/binfmt"

// Pointer is a byte range into the vault. A Pointer is "typed" when
// TypeName is non-empty; an untyped Pointer matches any requested
// type. AsUntyped and WithType convert between the two states.
type Pointer struct {
	Offset   uint64
	Size     uint64
	typeName string
}

// Untyped constructs an untyped Pointer.
func Untyped(offset, size uint64) Pointer {
	return Pointer{Offset: offset, Size: size}
}

// Typed constructs a Pointer tagged with a canonical type name.
func Typed(offset, size uint64, typeName string) Pointer {
	return Pointer{Offset: offset, Size: size, typeName: typeName}
}

// IsTyped reports whether the pointer carries a type tag.
func (p Pointer) IsTyped() bool { return p.typeName != "" }

// TypeName returns the pointer's type tag, or "" if untyped.
func (p Pointer) TypeName() string { return p.typeName }

// AsUntyped drops any type tag, freely narrowing a Typed pointer.
func (p Pointer) AsUntyped() Pointer {
	return Pointer{Offset: p.Offset, Size: p.Size}
}

// WithType attaches a caller-supplied type name, widening an untyped
// pointer (or replacing an existing tag).
func (p Pointer) WithType(typeName string) Pointer {
	return Pointer{Offset: p.Offset, Size: p.Size, typeName: typeName}
}

// Matches reports whether p is type-compatible with the given canonical
// type name: true if p is untyped, or if its type name equals typeName.
func (p Pointer) Matches(typeName string) bool {
	return !p.IsTyped() || p.typeName == typeName
}

// Encode appends p's binfmt encoding to w.
func (p Pointer) Encode(w *binfmt.Writer) {
	w.U64(p.Offset)
	w.U64(p.Size)
	w.String(p.typeName)
}

// Decode reads a Pointer from r.
func Decode(r *binfmt.Reader) (Pointer, error) {
	offset, err := r.U64()
	if err != nil {
		return Pointer{}, err
	}
	size, err := r.U64()
	if err != nil {
		return Pointer{}, err
	}
	typeName, err := r.String()
	if err != nil {
		return Pointer{}, err
	}
	return Pointer{Offset: offset, Size: size, typeName: typeName}, nil
}

// Key is a comparable identity for a Pointer, suitable for use as a map
// key when deduplicating pointer sets produced by the query engine.
type Key struct {
	Offset, Size uint64
	TypeName     string
}

// Key returns p's deduplication key.
func (p Pointer) Key() Key { return Key{Offset: p.Offset, Size: p.Size, TypeName: p.typeName} }
