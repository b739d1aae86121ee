//go:build linux || darwin || freebsd

package blazeindex

import (
	"log/slog"
	"os"

	"golang.org/x/sys/unix"
)

func mapFile(f *os.File, size int) ([]byte, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	// The parser walks the collection front to back exactly once.
	if err := unix.Madvise(data, unix.MADV_SEQUENTIAL); err != nil {
		slog.Default().Debug("madvise failed",
			slog.String("component", "mappedfile"),
			slog.String("path", f.Name()),
			slog.Any("error", err),
		)
	}
	return data, nil
}

func unmapFile(data []byte) error {
	return unix.Munmap(data)
}
