package blazeindex

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"runtime"
)

// ═══════════════════════════════════════════════════════════════════════════════
// MAPPED FILE
// ═══════════════════════════════════════════════════════════════════════════════
// The indexer reads the whole document collection through a read-only memory
// mapping. The parser walks the mapped bytes directly, so no copy of the input
// is ever made.
//
// LIFECYCLE:
// ----------
//
//	closed ──Open──▶ open ──Close──▶ closed
//	open ──Move──▶ (source closed, destination open)
//
// A zero-length file is "open" with nil Data and is never mapped. A mapping
// that becomes unreachable while still open is unmapped by a finalizer; any
// error at that point is logged, never raised.
// ═══════════════════════════════════════════════════════════════════════════════

// MappedFile is a read-only view of a file's bytes. The zero value is a closed
// MappedFile ready for Open, and it may be embedded anywhere in another
// struct. It is not safe for concurrent use; the mapped Data may be read
// concurrently once Open returns.
type MappedFile struct {
	m *mapping
}

// mapping owns the descriptor and the mapped region. It is always allocated on
// its own so the leak guard can be attached to it, like *os.File does with its
// inner *file.
type mapping struct {
	file   *os.File
	data   []byte
	path   string
	mapped bool
}

// OpenMappedFile maps the file at path for reading.
func OpenMappedFile(path string) (*MappedFile, error) {
	m := &MappedFile{}
	if err := m.Open(path); err != nil {
		return nil, err
	}
	return m, nil
}

// Open maps the file at path. It fails with ErrAlreadyOpen if m already owns a
// mapping and with *IOError if the file cannot be opened, inspected or mapped.
func (m *MappedFile) Open(path string) error {
	if m.m != nil {
		return fmt.Errorf("open %s: %w", path, ErrAlreadyOpen)
	}

	f, err := os.Open(path)
	if err != nil {
		return &IOError{Op: "open", Path: path, Err: unwrapPathError(err)}
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return &IOError{Op: "stat", Path: path, Err: unwrapPathError(err)}
	}
	size := fi.Size()
	if size > math.MaxInt {
		_ = f.Close()
		return &IOError{Op: "mmap", Path: path, Err: fmt.Errorf("file too large: %d bytes", size)}
	}

	var data []byte
	if size > 0 {
		data, err = mapFile(f, int(size))
		if err != nil {
			_ = f.Close()
			return &IOError{Op: "mmap", Path: path, Err: err}
		}
	}

	mp := &mapping{file: f, data: data, path: path, mapped: size > 0}
	runtime.SetFinalizer(mp, (*mapping).finalize)
	m.m = mp
	return nil
}

// Data returns the mapped bytes. It is nil for an empty file. Calling Data on
// a MappedFile that is not open panics.
func (m *MappedFile) Data() []byte {
	if m.m == nil {
		panic(fmt.Errorf("data: %w", ErrClosed))
	}
	return m.m.data
}

// Len returns the number of mapped bytes. Calling Len on a MappedFile that is
// not open panics.
func (m *MappedFile) Len() int {
	if m.m == nil {
		panic(fmt.Errorf("len: %w", ErrClosed))
	}
	return len(m.m.data)
}

func (m *MappedFile) IsOpen() bool { return m.m != nil }

// Path returns the path passed to Open, or "" when closed.
func (m *MappedFile) Path() string {
	if m.m == nil {
		return ""
	}
	return m.m.path
}

// Close unmaps the data and closes the descriptor. The receiver is closed
// afterwards even if an error is returned.
func (m *MappedFile) Close() error {
	mp := m.m
	if mp == nil {
		return fmt.Errorf("close: %w", ErrClosed)
	}
	m.m = nil
	runtime.SetFinalizer(mp, nil)
	return mp.release()
}

// Move transfers ownership of the mapping to a new MappedFile and leaves m
// closed. Moving a closed MappedFile yields another closed one.
func (m *MappedFile) Move() *MappedFile {
	dst := &MappedFile{m: m.m}
	m.m = nil
	return dst
}

func (mp *mapping) release() error {
	var unmapErr error
	if mp.mapped {
		if err := unmapFile(mp.data); err != nil {
			unmapErr = &IOError{Op: "munmap", Path: mp.path, Err: err}
		}
	}
	closeErr := mp.file.Close()
	mp.data, mp.mapped = nil, false

	if unmapErr != nil {
		return unmapErr
	}
	if closeErr != nil {
		return &IOError{Op: "close", Path: mp.path, Err: unwrapPathError(closeErr)}
	}
	return nil
}

func (mp *mapping) finalize() {
	logger := slog.Default().With(slog.String("component", "mappedfile"))
	logger.Warn("mapped file was not closed", slog.String("path", mp.path))
	if err := mp.release(); err != nil {
		logger.Error("failed to release mapped file", slog.String("path", mp.path), slog.Any("error", err))
	}
}

func unwrapPathError(err error) error {
	if pe, ok := err.(*os.PathError); ok {
		return pe.Err
	}
	return err
}
