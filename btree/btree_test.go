package btree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpcpool/pakdb/pointer"
	"github.com/rpcpool/pakdb/value"
)

// memVault is a minimal in-memory VaultAppender/io.ReaderAt used to
// round-trip a Builder through Persist and back into a Reader.
type memVault struct {
	buf []byte
}

func (m *memVault) Append(data []byte) pointer.Pointer {
	off := uint64(len(m.buf))
	m.buf = append(m.buf, data...)
	return pointer.Untyped(off, uint64(len(data)))
}

func (m *memVault) ReadAt(p []byte, off int64) (int, error) {
	n := copy(p, m.buf[off:])
	if n < len(p) {
		return n, assertShortRead
	}
	return n, nil
}

var assertShortRead = errShort{}

type errShort struct{}

func (errShort) Error() string { return "short read" }

func buildAndOpen(t *testing.T, fanoutLog2 uint, items map[int64][]int64) (*Reader, *memVault) {
	t.Helper()
	b := NewBuilder(fanoutLog2)
	for k, ptrs := range items {
		for _, off := range ptrs {
			b.Insert(value.Int(k), pointer.Untyped(uint64(off), 1))
		}
	}
	vault := &memVault{}
	metaPtr := b.Persist(vault)
	r, err := Open(vault, 0, metaPtr)
	require.NoError(t, err)
	return r, vault
}

func keysOf(t *testing.T, set PointerSet) []uint64 {
	t.Helper()
	out := make([]uint64, 0, len(set))
	for k := range set {
		out = append(out, k.Offset)
	}
	return out
}

func TestBuilderSingleKey(t *testing.T) {
	r, _ := buildAndOpen(t, 6, map[int64][]int64{5: {100}})
	got, err := r.Equal(value.Int(5))
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{100}, keysOf(t, got))
}

func TestBuilderDuplicateKeysMerge(t *testing.T) {
	r, _ := buildAndOpen(t, 6, map[int64][]int64{5: {100, 200, 300}})
	got, err := r.Equal(value.Int(5))
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{100, 200, 300}, keysOf(t, got))
}

func TestBuilderEmptyTree(t *testing.T) {
	r, _ := buildAndOpen(t, 6, map[int64][]int64{})
	got, err := r.Equal(value.Int(5))
	require.NoError(t, err)
	assert.Empty(t, got)
}

// TestForcedSplit inserts ten keys in the order 10,20,30,40,25,5,15,
// 35,45,46 into a k=2 tree (max=4 entries/page), forcing at least one
// split; every read-time descent must still produce the full, correct
// result set afterward.
func TestForcedSplit(t *testing.T) {
	keys := []int64{10, 20, 30, 40, 25, 5, 15, 35, 45, 46}
	b := NewBuilder(2) // max = 4
	for i, k := range keys {
		b.Insert(value.Int(k), pointer.Untyped(uint64(i), 1))
	}
	assert.Greater(t, b.Len(), 1)

	vault := &memVault{}
	metaPtr := b.Persist(vault)
	r, err := Open(vault, 0, metaPtr)
	require.NoError(t, err)

	for _, k := range keys {
		got, err := r.Equal(value.Int(k))
		require.NoError(t, err)
		assert.Len(t, got, 1, "key %d", k)
	}

	// indices: 0:10 1:20 2:30 3:40 4:25 5:5 6:15 7:35 8:45 9:46
	lt30, err := r.Less(value.Int(30), true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{0, 1, 4, 5, 6}, keysOf(t, lt30))

	le30, err := r.Less(value.Int(30), false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{0, 1, 2, 4, 5, 6}, keysOf(t, le30))

	gt30, err := r.Greater(value.Int(30), true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{3, 7, 8, 9}, keysOf(t, gt30))

	ge30, err := r.Greater(value.Int(30), false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{2, 3, 7, 8, 9}, keysOf(t, ge30))

	lt20, err := r.Less(value.Int(20), true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{0, 5, 6}, keysOf(t, lt20))

	ge40, err := r.Greater(value.Int(40), false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{3, 8, 9}, keysOf(t, ge40))
}

func TestRangeQueriesAgainstLinearScan(t *testing.T) {
	keys := []int64{10, 20, 30, 40, 25, 5, 15, 35, 45, 46}
	b := NewBuilder(2) // max = 4
	for i, k := range keys {
		b.Insert(value.Int(k), pointer.Untyped(uint64(i), 1))
	}
	vault := &memVault{}
	metaPtr := b.Persist(vault)
	r, err := Open(vault, 0, metaPtr)
	require.NoError(t, err)

	pivot := int64(25)
	var wantLess, wantLessEq, wantGreater, wantGreaterEq []uint64
	for i, k := range keys {
		if k < pivot {
			wantLess = append(wantLess, uint64(i))
		}
		if k <= pivot {
			wantLessEq = append(wantLessEq, uint64(i))
		}
		if k > pivot {
			wantGreater = append(wantGreater, uint64(i))
		}
		if k >= pivot {
			wantGreaterEq = append(wantGreaterEq, uint64(i))
		}
	}

	got, err := r.Less(value.Int(pivot), true)
	require.NoError(t, err)
	assert.ElementsMatch(t, wantLess, keysOf(t, got))

	got, err = r.Less(value.Int(pivot), false)
	require.NoError(t, err)
	assert.ElementsMatch(t, wantLessEq, keysOf(t, got))

	got, err = r.Greater(value.Int(pivot), true)
	require.NoError(t, err)
	assert.ElementsMatch(t, wantGreater, keysOf(t, got))

	got, err = r.Greater(value.Int(pivot), false)
	require.NoError(t, err)
	assert.ElementsMatch(t, wantGreaterEq, keysOf(t, got))
}

func TestEqualMissingKey(t *testing.T) {
	r, _ := buildAndOpen(t, 6, map[int64][]int64{5: {1}, 10: {2}})
	got, err := r.Equal(value.Int(7))
	require.NoError(t, err)
	assert.Empty(t, got)
}
