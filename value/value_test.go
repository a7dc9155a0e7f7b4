package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpcpool/pakdb/binfmt"
)

func TestCompareSameTag(t *testing.T) {
	assert.True(t, String("a").Less(String("b")))
	assert.True(t, Int(1).Less(Int(2)))
	assert.True(t, Uint(1).Less(Uint(2)))
	assert.True(t, Float(1.5).Less(Float(2.5)))
	assert.True(t, Bool(false).Less(Bool(true)))
	assert.True(t, Int(5).Equal(Int(5)))
}

func TestCompareCrossNumeric(t *testing.T) {
	assert.True(t, Int(1).Equal(Float(1.0)))
	assert.True(t, Uint(1).Equal(Float(1.0)))
	assert.True(t, Int(-1).Less(Uint(0)))
	assert.True(t, Uint(0).Equal(Int(0)))
}

func TestVoidAlwaysEqual(t *testing.T) {
	assert.True(t, Void().Equal(Void()))
	assert.True(t, Void().Equal(Int(5)))
	assert.True(t, Int(5).Equal(Void()))
}

func TestIncomparableTagsFallBackToEqual(t *testing.T) {
	assert.True(t, String("x").Equal(Bool(true)))
}

func TestNaNNeverEqual(t *testing.T) {
	nan := Float(nan())
	assert.False(t, nan.Equal(nan))
	assert.False(t, nan.Equal(Float(1.0)))
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestHashIgnoresCrossTagEquality(t *testing.T) {
	assert.NotEqual(t, Int(1).Hash(), Float(1.0).Hash())
}

func TestHashStable(t *testing.T) {
	assert.Equal(t, String("hello").Hash(), String("hello").Hash())
	assert.Equal(t, Int(42).Hash(), Int(42).Hash())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Value{
		Void(),
		String("hello world"),
		Float(3.14159),
		Int(-12345),
		Uint(98765),
		Bool(true),
		Bool(false),
	}
	for _, v := range cases {
		w := binfmt.NewWriter()
		v.Encode(w)
		r := binfmt.NewReader(w.Bytes())
		got, err := Decode(r)
		require.NoError(t, err)
		assert.Equal(t, v.Kind(), got.Kind())
		assert.True(t, v.Equal(got))
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	w := binfmt.NewWriter()
	w.U8(255)
	_, err := Decode(binfmt.NewReader(w.Bytes()))
	require.Error(t, err)
}
