package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySourceReadAt(t *testing.T) {
	src := NewMemorySource([]byte("hello world"))
	buf := make([]byte, 5)
	n, err := src.ReadAt(buf, 6)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "world", string(buf))
	assert.EqualValues(t, 11, src.Size())
}

func TestFileSourceReadAt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "artifact.pak")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	src, err := OpenFile(path)
	require.NoError(t, err)
	defer src.Close()

	buf := make([]byte, 4)
	n, err := src.ReadAt(buf, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "3456", string(buf))

	sz, err := src.Size()
	require.NoError(t, err)
	assert.EqualValues(t, 10, sz)
}

func TestConcurrentReadAt(t *testing.T) {
	src := NewMemorySource([]byte("abcdefghijklmnopqrstuvwxyz"))
	done := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		go func(i int) {
			buf := make([]byte, 2)
			_, err := src.ReadAt(buf, int64(i))
			assert.NoError(t, err)
			done <- true
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
