// Package value implements the tagged scalar used throughout pakdb as a
// B-tree key and as a query argument.
package value

import (
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Kind discriminates the concrete scalar a Value holds.
type Kind uint8

const (
	KindVoid Kind = iota
	KindString
	KindFloat
	KindInt
	KindUint
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is a tagged union of String, Float, Int, Uint, Boolean and Void.
// Float/Int/Uint/Boolean payloads are kept as raw bits so the value stays
// hashable and orderable bit-for-bit; String carries its bytes directly.
type Value struct {
	kind Kind
	str  string
	bits uint64
}

// Void returns the Void sentinel value.
func Void() Value { return Value{kind: KindVoid} }

// String constructs a String value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Float constructs a Float value from a float64, stored as its raw
// IEEE-754 bits.
func Float(f float64) Value { return Value{kind: KindFloat, bits: math.Float64bits(f)} }

// Int constructs a signed 64-bit Int value.
func Int(i int64) Value { return Value{kind: KindInt, bits: uint64(i)} }

// Uint constructs an unsigned 64-bit Uint value.
func Uint(u uint64) Value { return Value{kind: KindUint, bits: u} }

// Bool constructs a Boolean value.
func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.bits = 1
	}
	return v
}

// Kind reports the value's tag.
func (v Value) Kind() Kind { return v.kind }

// AsString projects the value to a string. ok is false if the tag isn't
// KindString.
func (v Value) AsString() (s string, ok bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsFloat64 projects the value to a float64. ok is false if the tag isn't
// KindFloat.
func (v Value) AsFloat64() (f float64, ok bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return math.Float64frombits(v.bits), true
}

// AsInt64 projects the value to an int64. ok is false if the tag isn't
// KindInt.
func (v Value) AsInt64() (i int64, ok bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return int64(v.bits), true
}

// AsUint64 projects the value to a uint64. ok is false if the tag isn't
// KindUint.
func (v Value) AsUint64() (u uint64, ok bool) {
	if v.kind != KindUint {
		return 0, false
	}
	return v.bits, true
}

// AsBool projects the value to a bool. ok is false if the tag isn't
// KindBool.
func (v Value) AsBool() (b bool, ok bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.bits != 0, true
}

// IsVoid reports whether v is the Void sentinel.
func (v Value) IsVoid() bool { return v.kind == KindVoid }

func (v Value) rawFloat() float64 { return math.Float64frombits(v.bits) }
func (v Value) rawInt() int64    { return int64(v.bits) }
func (v Value) rawUint() uint64  { return v.bits }
func (v Value) rawBool() bool    { return v.bits != 0 }

// Compare implements a total order over all values:
//
//   - same tag: natural comparison (string lex, numeric, false<true)
//   - (Float,Int)/(Int,Float) and (Float,Uint)/(Uint,Float): promote both
//     to float64 and compare
//   - (Int,Uint)/(Uint,Int): compare as signed 64-bit (Uint reinterpreted;
//     values above 2^63 collide, which is accepted: producers tag
//     their own indices)
//   - (Void,Void): equal. (Void, anything): incomparable, falls back to
//     "equal" so Void never meaningfully participates in range predicates.
//   - any other cross-tag pair (e.g. String vs Int) is likewise
//     incomparable and falls back to "equal" for the same reason.
//
// Compare returns -1, 0, or 1.
func (v Value) Compare(other Value) int {
	if v.kind == KindVoid || other.kind == KindVoid {
		if v.kind == KindVoid && other.kind == KindVoid {
			return 0
		}
		return 0
	}

	if v.kind == other.kind {
		switch v.kind {
		case KindString:
			return strings.Compare(v.str, other.str)
		case KindBool:
			return compareBool(v.rawBool(), other.rawBool())
		case KindFloat:
			return compareFloat64(v.rawFloat(), other.rawFloat())
		case KindInt:
			return compareInt64(v.rawInt(), other.rawInt())
		case KindUint:
			return compareUint64(v.rawUint(), other.rawUint())
		}
	}

	switch {
	case v.kind == KindFloat && other.kind == KindInt:
		return compareFloat64(v.rawFloat(), float64(other.rawInt()))
	case v.kind == KindInt && other.kind == KindFloat:
		return compareFloat64(float64(v.rawInt()), other.rawFloat())
	case v.kind == KindFloat && other.kind == KindUint:
		return compareFloat64(v.rawFloat(), float64(other.rawUint()))
	case v.kind == KindUint && other.kind == KindFloat:
		return compareFloat64(float64(v.rawUint()), other.rawFloat())
	case v.kind == KindInt && other.kind == KindUint:
		return compareInt64(v.rawInt(), int64(other.rawUint()))
	case v.kind == KindUint && other.kind == KindInt:
		return compareInt64(int64(v.rawUint()), other.rawInt())
	}

	// Incomparable tag pair (e.g. String vs Bool): total-order fallback.
	return 0
}

// Equal reports whether v and other compare equal under Compare. Note
// that a NaN Float value never compares equal to anything, not even to
// itself or to an Int/Uint, even though Compare returns a total order for
// sorting purposes; callers must not index NaN keys.
func (v Value) Equal(other Value) bool {
	if (v.kind == KindFloat && math.IsNaN(v.rawFloat())) ||
		(other.kind == KindFloat && math.IsNaN(other.rawFloat())) {
		return false
	}
	return v.Compare(other) == 0
}

// Less reports whether v sorts strictly before other.
func (v Value) Less(other Value) bool { return v.Compare(other) < 0 }

// Hash returns a hash over the tag discriminant and the payload's raw
// bits, so that two values that compare equal by the relaxed cross-tag
// rules are not required to hash equal: cross-tag equality is a
// query-time courtesy, not an identity.
func (v Value) Hash() uint64 {
	var buf [9]byte
	buf[0] = byte(v.kind)
	if v.kind == KindString {
		d := xxhash.New()
		d.Write(buf[:1])
		d.WriteString(v.str)
		return d.Sum64()
	}
	putUint64(buf[1:], v.bits)
	return xxhash.Sum64(buf[:])
}

func putUint64(b []byte, x uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(x >> (8 * i))
	}
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func compareFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
