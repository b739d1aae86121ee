package blazeindex

import (
	"io"
)

// ═══════════════════════════════════════════════════════════════════════════════
// JSON STRING LITERALS
// ═══════════════════════════════════════════════════════════════════════════════
// ParseStringLiteral decodes one double-quoted literal and pushes the decoded
// bytes downstream one at a time. Raw UTF-8 is passed through untouched; the
// decoder stage after the parser validates it.
//
// ESCAPES:
// --------
//
//	\"  \\  \b  \f  \n  \r  \t   → the usual control characters
//	\uXXXX                       → exactly four lowercase hex digits
//
// A \u escape may only name a control character that has no short form:
//
//	0x00–0x07, 0x0B, 0x0E–0x1F, 0x7F
//
// so \u0008 (use \b), \u000a (use \n), \u0041 (a printable character) and
// \u00AB (uppercase hex) are all rejected. Every permitted value is a single
// byte, so the escape always produces exactly one output byte.
// ═══════════════════════════════════════════════════════════════════════════════

// ParseStringLiteral parses the literal starting at src[pos], which must be a
// double quote. Decoded bytes go to w. It returns the position just past the
// closing quote. Errors from w are returned unchanged.
func ParseStringLiteral(src []byte, pos int, w io.ByteWriter) (int, error) {
	if pos >= len(src) || src[pos] != '"' {
		return pos, parseErrorf(pos, "expected '\"' at start of string")
	}
	start := pos
	pos++

	for pos < len(src) {
		c := src[pos]
		switch c {
		case '"':
			return pos + 1, nil
		case '\\':
			b, n, err := parseEscape(src, pos)
			if err != nil {
				return pos, err
			}
			if err := w.WriteByte(b); err != nil {
				return pos, err
			}
			pos += n
		default:
			if err := w.WriteByte(c); err != nil {
				return pos, err
			}
			pos++
		}
	}
	return pos, parseErrorf(start, "unterminated string")
}

// parseEscape decodes the escape sequence at src[pos] (a backslash) and
// returns the produced byte and the length of the sequence.
func parseEscape(src []byte, pos int) (byte, int, error) {
	if pos+1 >= len(src) {
		return 0, 0, parseErrorf(pos, "unterminated escape sequence")
	}
	switch src[pos+1] {
	case '"':
		return '"', 2, nil
	case '\\':
		return '\\', 2, nil
	case 'b':
		return '\b', 2, nil
	case 'f':
		return '\f', 2, nil
	case 'n':
		return '\n', 2, nil
	case 'r':
		return '\r', 2, nil
	case 't':
		return '\t', 2, nil
	case 'u':
		return parseUnicodeEscape(src, pos)
	default:
		return 0, 0, parseErrorf(pos, "unknown escape sequence \\%c", src[pos+1])
	}
}

func parseUnicodeEscape(src []byte, pos int) (byte, int, error) {
	const width = 4
	digits := pos + 2
	if digits+width > len(src) {
		return 0, 0, parseErrorf(pos, "\\u escape needs %d hex digits", width)
	}

	var v int
	for i := digits; i < digits+width; i++ {
		d, ok := lowerHex(src[i])
		if !ok {
			return 0, 0, parseErrorf(i, "invalid hex digit %q in \\u escape", src[i])
		}
		v = v<<4 | d
	}
	if !escapableControl(v) {
		return 0, 0, parseErrorf(pos, "\\u%04x is not an escapable control character", v)
	}
	return byte(v), 2 + width, nil
}

func lowerHex(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	}
	return 0, false
}

func escapableControl(v int) bool {
	switch {
	case v <= 0x07, v == 0x0B, v >= 0x0E && v <= 0x1F, v == 0x7F:
		return true
	}
	return false
}
