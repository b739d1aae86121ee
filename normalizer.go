package blazeindex

import (
	"fmt"
	"unicode"
)

// ═══════════════════════════════════════════════════════════════════════════════
// NORMALIZATION
// ═══════════════════════════════════════════════════════════════════════════════
// Each raw token goes through these steps, in order:
//
//  1. Lowercase every code point, folding ё to е.
//  2. Remember whether the token looks like an acronym: letters at even
//     indexes, '.' at odd indexes ("Q.U.I.C.K").
//  3. Strip a trailing possessive 's ("dog's" → "dog").
//  4. Drop the token if it is a stop-word (when enabled).
//  5. Remove the dots of an acronym ("q.u.i.c.k" → "quick").
//  6. Emit (position, token) and advance the position.
//
// Stop-words are checked before acronym dots are removed, so "T.H.E." is kept
// as "the" even though "THE" alone is dropped.
//
// EXAMPLE:
// --------
//
//	"DOG'S"      → "dog"
//	"Q.U.I.C.K"  → "quick"
//	"ЁЛКА"       → "елка"
//	"THE"        → (dropped, stop-words enabled)
//
// Positions count emitted tokens only; dropped stop-words do not consume one.
// ═══════════════════════════════════════════════════════════════════════════════

// Normalizer is the token → (position, term) stage of the pipeline.
type Normalizer struct {
	stopWords bool
	pos       uint32
	buf       []rune
	next      Consumer[Token]
}

// NewNormalizer returns a normalizer that forwards terms to next, numbering
// them from position 0. With stopWords set, stop-words are dropped.
func NewNormalizer(next Consumer[Token], stopWords bool) *Normalizer {
	return &Normalizer{stopWords: stopWords, next: next}
}

// Accept normalizes one raw token. An empty token is a caller bug and panics
// with ErrEmptyToken.
func (n *Normalizer) Accept(token []rune) error {
	if len(token) == 0 {
		panic(fmt.Errorf("normalize: %w", ErrEmptyToken))
	}

	buf := n.buf[:0]
	for _, r := range token {
		buf = append(buf, foldRune(r))
	}
	n.buf = buf

	acronym := isAcronym(buf)
	buf = stripPossessive(buf)
	if len(buf) == 0 {
		return nil
	}
	if n.stopWords && isStopWord(buf) {
		return nil
	}
	if acronym {
		buf = removeDots(buf)
	}

	err := n.next.Accept(Token{Position: n.pos, Text: buf})
	n.pos++
	return err
}

// ResetPosition restarts position numbering, typically at a field boundary.
func (n *Normalizer) ResetPosition() { n.pos = 0 }

// Position returns the position the next emitted token will get.
func (n *Normalizer) Position() uint32 { return n.pos }

func foldRune(r rune) rune {
	r = unicode.ToLower(r)
	if r == 'ё' {
		return 'е'
	}
	return r
}

func isAcronym(token []rune) bool {
	for i, r := range token {
		if i%2 == 0 && !isLetter(r) {
			return false
		}
		if i%2 == 1 && r != '.' {
			return false
		}
	}
	return true
}

func stripPossessive(token []rune) []rune {
	n := len(token)
	if n >= 2 && token[n-2] == '\'' && token[n-1] == 's' {
		return token[:n-2]
	}
	return token
}

func removeDots(token []rune) []rune {
	out := token[:0]
	for _, r := range token {
		if r != '.' {
			out = append(out, r)
		}
	}
	return out
}
