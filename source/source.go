// Package source provides the random-access byte providers pakdb reads
// artifacts from. A Source is exactly an io.ReaderAt:
// pread-at-offset semantics are inherently safe for concurrent
// callers, so no cursor or mutex is needed.
package source

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Source is anything pakdb can read fixed-size chunks from at arbitrary
// offsets.
type Source interface {
	io.ReaderAt
}

// FileSource wraps an *os.File opened for random-access reads.
type FileSource struct {
	f *os.File
}

// OpenFile opens path for reading and returns a FileSource backed by it.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", path, err)
	}
	return &FileSource{f: f}, nil
}

// ReadAt implements io.ReaderAt.
func (s *FileSource) ReadAt(p []byte, off int64) (int, error) { return s.f.ReadAt(p, off) }

// Size returns the file's current size in bytes.
func (s *FileSource) Size() (int64, error) {
	fi, err := s.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("source: stat: %w", err)
	}
	return fi.Size(), nil
}

// Close releases the underlying file descriptor.
func (s *FileSource) Close() error { return s.f.Close() }

// MemorySource is a Source backed by an in-memory byte slice, used by
// Builder.BuildInMemory and in tests.
type MemorySource struct {
	r *bytes.Reader
}

// NewMemorySource wraps buf for random-access reads. buf is not copied;
// callers must not mutate it afterward.
func NewMemorySource(buf []byte) *MemorySource {
	return &MemorySource{r: bytes.NewReader(buf)}
}

// ReadAt implements io.ReaderAt.
func (s *MemorySource) ReadAt(p []byte, off int64) (int, error) { return s.r.ReadAt(p, off) }

// Size returns the length of the wrapped buffer.
func (s *MemorySource) Size() int64 { return s.r.Size() }
