//go:build !linux

package pakdb

import (
	"os"
)

func fallocate(f *os.File, offset int64, size int64) error {
	return f.Truncate(offset + size)
}
