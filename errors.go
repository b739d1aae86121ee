package blazeindex

import (
	"errors"
	"fmt"
)

// ═══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ═══════════════════════════════════════════════════════════════════════════════
// Two classes of failure flow through the indexer:
//
//   - Recoverable input errors are returned as values: *IOError, *EncodingError,
//     *ParseError, and the index sentinels below. Callers inspect them with
//     errors.Is / errors.As.
//   - Caller contract violations (reading a closed MappedFile, pushing an empty
//     token into the normalizer or stemmer) panic. They indicate a bug in the
//     calling code, not bad input.
// ═══════════════════════════════════════════════════════════════════════════════

var (
	ErrClosed           = errors.New("mapped file is not open")
	ErrAlreadyOpen      = errors.New("mapped file is already open")
	ErrEmptyToken       = errors.New("empty token")
	ErrEmptyTitle       = errors.New("empty document title")
	ErrDuplicateTitle   = errors.New("duplicate document title")
	ErrUnknownDocument  = errors.New("unknown document id")
	ErrPostingOrder     = errors.New("posting inserted out of document order")
	ErrPositionRequired = errors.New("positional index requires a term position")
	ErrCorruptIndex     = errors.New("corrupt index data")
)

// IOError reports a failed open, stat, map or unmap of a file. The underlying
// syscall error is reachable through Unwrap.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// EncodingError reports an invalid UTF-8 byte sequence or a code point that
// cannot be encoded.
type EncodingError struct {
	Offset int64  // stream offset of the offending byte, -1 when encoding
	Bytes  []byte // offending sequence, when decoding
	Rune   rune   // offending code point, when encoding
	Reason string
}

func (e *EncodingError) Error() string {
	if e.Bytes != nil {
		return fmt.Sprintf("encoding error at offset %d: %s (% x)", e.Offset, e.Reason, e.Bytes)
	}
	return fmt.Sprintf("encoding error: %s (U+%04X)", e.Reason, e.Rune)
}

// ParseError reports malformed JSON input. Offset is the byte position in the
// parsed buffer where the problem was detected.
type ParseError struct {
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Reason)
}

func parseErrorf(offset int, format string, args ...any) *ParseError {
	return &ParseError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}
