//go:build linux

package pakdb

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// fallocate reserves size bytes for f starting at offset so an artifact
// can be written without the file growing piecemeal. Filesystems that
// lack fallocate support fall back to extending the file.
func fallocate(f *os.File, offset int64, size int64) error {
	err := syscall.Fallocate(int(f.Fd()), 0, offset, size)
	if errors.Is(err, syscall.EOPNOTSUPP) {
		return f.Truncate(offset + size)
	}
	if err != nil {
		return fmt.Errorf("failure while linux fallocate: %w", err)
	}
	return nil
}
