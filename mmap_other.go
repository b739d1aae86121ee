//go:build !(linux || darwin || freebsd)

package blazeindex

import (
	"io"
	"os"
)

// mapFile falls back to reading the whole file on platforms without mmap.
func mapFile(f *os.File, size int) ([]byte, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, err
	}
	return data, nil
}

func unmapFile([]byte) error { return nil }
