package value

import (
	"fmt"

	"github.com/rpcpool/pakdb/binfmt"
)

// Encode appends v's binfmt encoding (a tag byte plus payload) to w.
func (v Value) Encode(w *binfmt.Writer) {
	w.U8(uint8(v.kind))
	switch v.kind {
	case KindVoid:
		// no payload
	case KindString:
		w.String(v.str)
	default:
		w.U64(v.bits)
	}
}

// Decode reads a Value from r.
func Decode(r *binfmt.Reader) (Value, error) {
	tag, err := r.U8()
	if err != nil {
		return Value{}, fmt.Errorf("value: decode tag: %w", err)
	}
	kind := Kind(tag)
	switch kind {
	case KindVoid:
		return Void(), nil
	case KindString:
		s, err := r.String()
		if err != nil {
			return Value{}, fmt.Errorf("value: decode string payload: %w", err)
		}
		return String(s), nil
	case KindFloat, KindInt, KindUint, KindBool:
		bits, err := r.U64()
		if err != nil {
			return Value{}, fmt.Errorf("value: decode payload: %w", err)
		}
		return Value{kind: kind, bits: bits}, nil
	default:
		return Value{}, fmt.Errorf("value: unknown tag %d", tag)
	}
}
