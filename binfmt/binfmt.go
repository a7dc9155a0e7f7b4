// Package binfmt is pakdb's own small binary struct codec: fixed-width
// little-endian integers plus length-prefixed strings and byte vectors.
// It is used to encode the structural parts of an artifact (Sizing,
// Meta, the indices directory, and B-tree pages/TreeMetas) and is
// distinct from the opaque, caller-supplied item Codec.
package binfmt

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Writer accumulates a binfmt-encoded byte stream.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// U8 appends a single byte.
func (w *Writer) U8(v uint8) { w.buf = append(w.buf, v) }

// U32 appends a little-endian uint32.
func (w *Writer) U32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// U64 appends a little-endian uint64.
func (w *Writer) U64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// I64 appends a little-endian int64.
func (w *Writer) I64(v int64) { w.U64(uint64(v)) }

// RawBytes appends a uint64 length prefix followed by the raw bytes.
// This is the 8-byte prefix the layout's vault-start computation
// assumes when a byte blob is framed as a value.
func (w *Writer) RawBytes(v []byte) {
	w.U64(uint64(len(v)))
	w.buf = append(w.buf, v...)
}

// String appends a length-prefixed UTF-8 string.
func (w *Writer) String(s string) { w.RawBytes([]byte(s)) }

// Reader decodes a binfmt-encoded byte stream.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for sequential decoding.
func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return fmt.Errorf("binfmt: need %d bytes, have %d: %w", n, r.Remaining(), io.ErrUnexpectedEOF)
	}
	return nil
}

// U8 reads a single byte.
func (r *Reader) U8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// U64 reads a little-endian uint64.
func (r *Reader) U64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

// I64 reads a little-endian int64.
func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err
}

// RawBytes reads a uint64-length-prefixed byte slice. The returned slice
// is a copy, safe to retain past the lifetime of the Reader's backing
// buffer.
func (r *Reader) RawBytes() ([]byte, error) {
	n, err := r.U64()
	if err != nil {
		return nil, err
	}
	if err := r.need(int(n)); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return out, nil
}

// String reads a length-prefixed UTF-8 string.
func (r *Reader) String() (string, error) {
	b, err := r.RawBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
