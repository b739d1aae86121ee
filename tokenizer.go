package blazeindex

import "unicode"

// ═══════════════════════════════════════════════════════════════════════════════
// TOKENIZATION
// ═══════════════════════════════════════════════════════════════════════════════
// The tokenizer turns a stream of code points into word tokens. Letters and
// digits always extend the current token. Three punctuation marks, the
// joiners, may survive inside a token when they sit between compatible
// characters:
//
//	'  between two letters              "don't", "DOG'S"
//	,  between two digits               "3,141592653589793"
//	.  between two letters or digits    "Q.U.I.C.K", "3.14"
//
// Every other character, the hyphen included, ends the token. A joiner is kept
// tentatively; it is only confirmed when the following character matches the
// character before it. A token never ends with a joiner.
//
// EXAMPLE:
// --------
//
//	"ABC''DEF"        → ["ABC", "DEF"]
//	"123.ABC"         → ["123", "ABC"]
//	"Q.U.I.C.K."      → ["Q.U.I.C.K"]
//	"инженер-механик" → ["инженер", "механик"]
//
// The tokenizer never flushes on its own at end of input; the owner of the
// stream calls Flush once the last code point has been pushed.
// ═══════════════════════════════════════════════════════════════════════════════

// Tokenizer is the code point → token stage of the pipeline.
type Tokenizer struct {
	buf  []rune
	next Consumer[[]rune]
}

// NewTokenizer returns a tokenizer that pushes every completed token to next.
// The slice handed to next is reused once Accept returns.
func NewTokenizer(next Consumer[[]rune]) *Tokenizer {
	return &Tokenizer{next: next}
}

// Accept pushes one code point.
func (t *Tokenizer) Accept(r rune) error {
	switch {
	case isLetter(r) || isDigit(r):
		return t.acceptAlnum(r)
	case isJoiner(r):
		return t.acceptJoiner(r)
	default:
		return t.Flush()
	}
}

func (t *Tokenizer) acceptAlnum(r rune) error {
	n := len(t.buf)
	if n >= 2 && isJoiner(t.buf[n-1]) && !joinable(t.buf[n-1], t.buf[n-2], r) {
		if err := t.Flush(); err != nil {
			return err
		}
	}
	t.buf = append(t.buf, r)
	return nil
}

func (t *Tokenizer) acceptJoiner(r rune) error {
	n := len(t.buf)
	if n == 0 {
		return nil
	}
	last := t.buf[n-1]
	if joinerStarts(r, last) {
		t.buf = append(t.buf, r)
		return nil
	}
	return t.Flush()
}

// Flush emits the buffered token, minus any trailing joiner, and clears the
// buffer. Flushing an empty buffer emits nothing.
func (t *Tokenizer) Flush() error {
	n := len(t.buf)
	if n > 0 && isJoiner(t.buf[n-1]) {
		n--
	}
	var err error
	if n > 0 {
		err = t.next.Accept(t.buf[:n])
	}
	t.buf = t.buf[:0]
	return err
}

// Reset drops the buffered token without emitting it.
func (t *Tokenizer) Reset() { t.buf = t.buf[:0] }

func isLetter(r rune) bool { return unicode.IsLetter(r) }

func isDigit(r rune) bool { return unicode.IsDigit(r) }

func isJoiner(r rune) bool { return r == '\'' || r == ',' || r == '.' }

// joinerStarts reports whether joiner j may follow prev inside a token.
func joinerStarts(j, prev rune) bool {
	switch j {
	case '\'':
		return isLetter(prev)
	case ',':
		return isDigit(prev)
	case '.':
		return isLetter(prev) || isDigit(prev)
	}
	return false
}

// joinable reports whether joiner j between prev and next is kept.
func joinable(j, prev, next rune) bool {
	switch j {
	case '\'':
		return isLetter(prev) && isLetter(next)
	case ',':
		return isDigit(prev) && isDigit(next)
	case '.':
		return (isLetter(prev) && isLetter(next)) || (isDigit(prev) && isDigit(next))
	}
	return false
}
