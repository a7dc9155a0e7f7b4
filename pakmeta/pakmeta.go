// Package pakmeta implements the structural header of a pakdb artifact:
// the 24-byte Sizing record, the descriptive Meta record, and the
// indices directory.
package pakmeta

import (
	"fmt"

	"github.com/rpcpool/pakdb/binfmt"
	"github.com/rpcpool/pakdb/pointer"
)

// SizingLen is the exact on-disk size of a Sizing record.
const SizingLen = 24

// Sizing is the first 24 bytes of every artifact: the serialized sizes of
// the Meta blob, the indices-directory blob, and the vault blob, each as
// emitted by the codec rather than their logical payload lengths.
type Sizing struct {
	MetaSize    uint64
	IndicesSize uint64
	VaultSize   uint64
}

// Encode returns the fixed 24-byte encoding of s.
func (s Sizing) Encode() []byte {
	w := binfmt.NewWriter()
	w.U64(s.MetaSize)
	w.U64(s.IndicesSize)
	w.U64(s.VaultSize)
	return w.Bytes()
}

// DecodeSizing parses a Sizing record from exactly SizingLen bytes.
func DecodeSizing(buf []byte) (Sizing, error) {
	if len(buf) != SizingLen {
		return Sizing{}, fmt.Errorf("pakmeta: sizing record must be %d bytes, got %d", SizingLen, len(buf))
	}
	r := binfmt.NewReader(buf)
	metaSize, err := r.U64()
	if err != nil {
		return Sizing{}, err
	}
	indicesSize, err := r.U64()
	if err != nil {
		return Sizing{}, err
	}
	vaultSize, err := r.U64()
	if err != nil {
		return Sizing{}, err
	}
	return Sizing{MetaSize: metaSize, IndicesSize: indicesSize, VaultSize: vaultSize}, nil
}

// Meta is the artifact's descriptive header: four fixed fields plus an
// open-ended attribute bag for producer-settable extras such as the
// artifact instance id.
type Meta struct {
	Name        string
	Version     string
	Description string
	Author      string
	Attrs       Attrs
}

// Encode returns m's binfmt encoding.
func (m Meta) Encode() []byte {
	w := binfmt.NewWriter()
	w.String(m.Name)
	w.String(m.Version)
	w.String(m.Description)
	w.String(m.Author)
	m.Attrs.encode(w)
	return w.Bytes()
}

// DecodeMeta parses a Meta record from buf.
func DecodeMeta(buf []byte) (Meta, error) {
	r := binfmt.NewReader(buf)
	name, err := r.String()
	if err != nil {
		return Meta{}, err
	}
	version, err := r.String()
	if err != nil {
		return Meta{}, err
	}
	description, err := r.String()
	if err != nil {
		return Meta{}, err
	}
	author, err := r.String()
	if err != nil {
		return Meta{}, err
	}
	attrs, err := decodeAttrs(r)
	if err != nil {
		return Meta{}, err
	}
	return Meta{Name: name, Version: version, Description: description, Author: author, Attrs: attrs}, nil
}

// Indices is the persisted map from index key to the UntypedPointer of
// that key's TreeMeta inside the vault.
type Indices map[string]pointer.Pointer

// Encode returns the binfmt encoding of the indices directory.
func (idx Indices) Encode() []byte {
	w := binfmt.NewWriter()
	w.U32(uint32(len(idx)))
	for key, ptr := range idx {
		w.String(key)
		ptr.AsUntyped().Encode(w)
	}
	return w.Bytes()
}

// DecodeIndices parses an indices directory from buf.
func DecodeIndices(buf []byte) (Indices, error) {
	r := binfmt.NewReader(buf)
	count, err := r.U32()
	if err != nil {
		return nil, err
	}
	out := make(Indices, count)
	for i := uint32(0); i < count; i++ {
		key, err := r.String()
		if err != nil {
			return nil, err
		}
		ptr, err := pointer.Decode(r)
		if err != nil {
			return nil, err
		}
		out[key] = ptr
	}
	return out, nil
}
