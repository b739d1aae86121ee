package blazeindex

import (
	"unicode/utf8"
)

// ═══════════════════════════════════════════════════════════════════════════════
// STREAMING UTF-8 CODEC
// ═══════════════════════════════════════════════════════════════════════════════
// Bytes arrive one at a time from the string parser, so the decoder has to keep
// the partial multi-byte sequence between calls. That state lives in an
// explicit DecodeState value owned by exactly one stream.
//
// WELL-FORMED SEQUENCES (Unicode Table 3-7):
// ------------------------------------------
//
//	00..7F
//	C2..DF  80..BF
//	E0      A0..BF  80..BF
//	E1..EC  80..BF  80..BF
//	ED      80..9F  80..BF     (no surrogates)
//	EE..EF  80..BF  80..BF
//	F0      90..BF  80..BF  80..BF
//	F1..F3  80..BF  80..BF  80..BF
//	F4      80..8F  80..BF  80..BF  (≤ U+10FFFF)
//
// Anything else (stray continuation bytes, C0/C1 overlong leads, F5..FF) is an
// EncodingError.
// ═══════════════════════════════════════════════════════════════════════════════

// DecodeState holds a partially decoded UTF-8 sequence.
type DecodeState struct {
	need   int     // continuation bytes still expected
	lo, hi byte    // accepted range for the next continuation byte
	cp     rune    // code point accumulated so far
	seq    [4]byte // bytes of the pending sequence, for error reports
	n      int
	offset int64 // bytes consumed so far
}

// Decode consumes one byte. It returns ok=false while a multi-byte sequence is
// incomplete and exactly one code point when the sequence completes.
func (s *DecodeState) Decode(b byte) (r rune, ok bool, err error) {
	off := s.offset
	s.offset++

	if s.need == 0 {
		switch {
		case b < utf8.RuneSelf:
			return rune(b), true, nil
		case b >= 0xC2 && b <= 0xDF:
			s.start(b, 1, rune(b&0x1F), 0x80, 0xBF)
		case b == 0xE0:
			s.start(b, 2, rune(b&0x0F), 0xA0, 0xBF)
		case b == 0xED:
			s.start(b, 2, rune(b&0x0F), 0x80, 0x9F)
		case b >= 0xE1 && b <= 0xEF:
			s.start(b, 2, rune(b&0x0F), 0x80, 0xBF)
		case b == 0xF0:
			s.start(b, 3, rune(b&0x07), 0x90, 0xBF)
		case b >= 0xF1 && b <= 0xF3:
			s.start(b, 3, rune(b&0x07), 0x80, 0xBF)
		case b == 0xF4:
			s.start(b, 3, rune(b&0x07), 0x80, 0x8F)
		case b < 0xC0:
			return 0, false, &EncodingError{Offset: off, Bytes: []byte{b}, Reason: "unexpected continuation byte"}
		case b < 0xC2:
			return 0, false, &EncodingError{Offset: off, Bytes: []byte{b}, Reason: "overlong encoding"}
		default:
			return 0, false, &EncodingError{Offset: off, Bytes: []byte{b}, Reason: "invalid lead byte"}
		}
		return 0, false, nil
	}

	if b < s.lo || b > s.hi {
		bad := append(s.seq[:s.n:s.n], b)
		s.clear()
		return 0, false, &EncodingError{Offset: off, Bytes: bad, Reason: "invalid continuation byte"}
	}
	s.seq[s.n] = b
	s.n++
	s.cp = s.cp<<6 | rune(b&0x3F)
	s.need--
	s.lo, s.hi = 0x80, 0xBF
	if s.need > 0 {
		return 0, false, nil
	}
	r = s.cp
	s.clear()
	return r, true, nil
}

// Pending reports whether a multi-byte sequence has been started but not
// completed.
func (s *DecodeState) Pending() bool { return s.need > 0 }

// Offset returns the number of bytes consumed.
func (s *DecodeState) Offset() int64 { return s.offset }

func (s *DecodeState) start(b byte, need int, cp rune, lo, hi byte) {
	s.need, s.cp, s.lo, s.hi = need, cp, lo, hi
	s.seq[0] = b
	s.n = 1
}

func (s *DecodeState) clear() {
	s.need, s.cp, s.n = 0, 0, 0
}

// RuneDecoder is the byte → code point stage of the pipeline. It implements
// io.Writer and io.ByteWriter so byte producers can push into it directly.
type RuneDecoder struct {
	state DecodeState
	next  Consumer[rune]
}

// NewRuneDecoder returns a decoder that pushes every decoded code point to
// next.
func NewRuneDecoder(next Consumer[rune]) *RuneDecoder {
	return &RuneDecoder{next: next}
}

func (d *RuneDecoder) WriteByte(b byte) error {
	r, ok, err := d.state.Decode(b)
	if err != nil || !ok {
		return err
	}
	return d.next.Accept(r)
}

func (d *RuneDecoder) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := d.WriteByte(b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// Close reports a sequence truncated by the end of the stream and resets the
// decoder for the next stream.
func (d *RuneDecoder) Close() error {
	defer d.Reset()
	if d.state.Pending() {
		return &EncodingError{
			Offset: d.state.offset,
			Bytes:  append([]byte(nil), d.state.seq[:d.state.n]...),
			Reason: "truncated sequence",
		}
	}
	return nil
}

func (d *RuneDecoder) Reset() { d.state = DecodeState{} }

// EncodeRune appends the UTF-8 encoding of r to dst. Surrogate halves and
// values outside the Unicode range cannot be encoded.
func EncodeRune(dst []byte, r rune) ([]byte, error) {
	if !utf8.ValidRune(r) {
		return dst, &EncodingError{Offset: -1, Rune: r, Reason: "code point cannot be encoded"}
	}
	return utf8.AppendRune(dst, r), nil
}

// RuneEncoder turns code point tokens back into UTF-8 in a reusable buffer.
type RuneEncoder struct {
	buf []byte
}

// Encode returns the UTF-8 bytes of text. The result is overwritten by the
// next call.
func (e *RuneEncoder) Encode(text []rune) ([]byte, error) {
	e.buf = e.buf[:0]
	var err error
	for _, r := range text {
		if e.buf, err = EncodeRune(e.buf, r); err != nil {
			return nil, err
		}
	}
	return e.buf, nil
}
