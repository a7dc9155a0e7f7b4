package binfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripScalars(t *testing.T) {
	w := NewWriter()
	w.U8(7)
	w.U32(123456)
	w.U64(9999999999)
	w.I64(-42)
	w.String("hello")

	r := NewReader(w.Bytes())
	u8, err := r.U8()
	require.NoError(t, err)
	assert.EqualValues(t, 7, u8)

	u32, err := r.U32()
	require.NoError(t, err)
	assert.EqualValues(t, 123456, u32)

	u64, err := r.U64()
	require.NoError(t, err)
	assert.EqualValues(t, 9999999999, u64)

	i64, err := r.I64()
	require.NoError(t, err)
	assert.EqualValues(t, -42, i64)

	s, err := r.String()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
}

func TestRawBytesLengthPrefixed(t *testing.T) {
	w := NewWriter()
	w.RawBytes([]byte{1, 2, 3})
	assert.Equal(t, 8+3, w.Len())
}

func TestReaderUnexpectedEOF(t *testing.T) {
	r := NewReader([]byte{1, 2})
	_, err := r.U64()
	require.Error(t, err)
}

func TestEmptyString(t *testing.T) {
	w := NewWriter()
	w.String("")
	r := NewReader(w.Bytes())
	s, err := r.String()
	require.NoError(t, err)
	assert.Equal(t, "", s)
}
