package blazeindex

import (
	"fmt"
	"sort"
	"unicode"

	snowballeng "github.com/kljensen/snowball/english"
	snowballru "github.com/kljensen/snowball/russian"
	"github.com/surgebase/porter2"
)

// ═══════════════════════════════════════════════════════════════════════════════
// STEMMING
// ═══════════════════════════════════════════════════════════════════════════════
// The default stemmer strips the longest known suffix from a term, provided at
// least MinStem code points remain. The suffix table is kept in reverse
// lexicographic order, so every suffix sharing the word's last i characters
// sits in one contiguous range. The search narrows that range one character at
// a time, walking the word from its end:
//
//	word "мягкая", table (reversed) [... "ая", "яя", ...]
//	i=0  'я'  → all suffixes ending in я
//	i=1  'а'  → all suffixes ending in ая   ("ая" itself matches, length 2)
//	i=2  'к'  → empty range, stop
//	result "мягк"
//
// ALGORITHMS:
// -----------
// StemSuffix (default) uses the table above for English and Russian alike.
// StemSnowball and StemPorter2 delegate to the Snowball and Porter2
// implementations instead; Snowball picks its Russian or English stemmer from
// the script of the term, Porter2 only stems Latin-script terms.
// ═══════════════════════════════════════════════════════════════════════════════

// DefaultMinStem is the minimum number of code points left after stripping a
// suffix.
const DefaultMinStem = 2

// StemmerKind selects the stemming algorithm of an analyzer.
type StemmerKind string

const (
	StemSuffix   StemmerKind = "suffix"
	StemSnowball StemmerKind = "snowball"
	StemPorter2  StemmerKind = "porter2"
	StemNone     StemmerKind = "none"
)

// Valid reports whether k names a known algorithm.
func (k StemmerKind) Valid() bool {
	switch k {
	case StemSuffix, StemSnowball, StemPorter2, StemNone:
		return true
	}
	return false
}

// reversedSuffixes holds the suffix table with every entry reversed, which
// turns reverse lexicographic order into plain lexicographic order.
var reversedSuffixes = reverseAll(suffixes)

func reverseAll(words []string) [][]rune {
	out := make([][]rune, len(words))
	for i, w := range words {
		rs := []rune(w)
		for a, b := 0, len(rs)-1; a < b; a, b = a+1, b-1 {
			rs[a], rs[b] = rs[b], rs[a]
		}
		out[i] = rs
	}
	return out
}

// longestSuffix returns the length of the longest suffix in table that word
// ends with, such that at least minStem code points precede it.
func longestSuffix(table [][]rune, word []rune, minStem int) int {
	limit := len(word) - minStem
	if limit <= 0 {
		return 0
	}

	best := 0
	lo, hi := 0, len(table)
	for i := 0; lo < hi; i++ {
		// table[lo:hi] all match the last i code points of word; an entry of
		// exactly length i sorts first.
		if len(table[lo]) == i {
			best = i
			lo++
		}
		if i == limit || lo == hi {
			break
		}
		c := word[len(word)-1-i]
		r := table[lo:hi]
		first := sort.Search(len(r), func(k int) bool { return r[k][i] >= c })
		last := sort.Search(len(r), func(k int) bool { return r[k][i] > c })
		lo, hi = lo+first, lo+last
	}
	return best
}

// Stemmer is the suffix-table stemming stage of the pipeline.
type Stemmer struct {
	minStem int
	next    Consumer[Token]
}

// NewStemmer returns a stemmer that forwards stemmed tokens to next. Stems
// shorter than minStem code points are never produced; values below 1 select
// DefaultMinStem.
func NewStemmer(next Consumer[Token], minStem int) *Stemmer {
	if minStem < 1 {
		minStem = DefaultMinStem
	}
	return &Stemmer{minStem: minStem, next: next}
}

// Stem returns word without its longest known suffix. The result shares
// word's backing array.
func (s *Stemmer) Stem(word []rune) []rune {
	n := longestSuffix(reversedSuffixes, word, s.minStem)
	return word[:len(word)-n]
}

// Accept stems one term. An empty term is a caller bug and panics with
// ErrEmptyToken.
func (s *Stemmer) Accept(tok Token) error {
	if len(tok.Text) == 0 {
		panic(fmt.Errorf("stem: %w", ErrEmptyToken))
	}
	tok.Text = s.Stem(tok.Text)
	return s.next.Accept(tok)
}

// stemFuncStage adapts a string stemming function to the pipeline.
type stemFuncStage struct {
	stem func(term []rune) string
	buf  []rune
	next Consumer[Token]
}

func (s *stemFuncStage) Accept(tok Token) error {
	if len(tok.Text) == 0 {
		panic(fmt.Errorf("stem: %w", ErrEmptyToken))
	}
	if stemmed := s.stem(tok.Text); stemmed != "" {
		s.buf = append(s.buf[:0], []rune(stemmed)...)
		tok.Text = s.buf
	}
	return s.next.Accept(tok)
}

func snowballStem(term []rune) string {
	if isCyrillic(term) {
		return snowballru.Stem(string(term), false)
	}
	return snowballeng.Stem(string(term), false)
}

func porter2Stem(term []rune) string {
	if isCyrillic(term) {
		return string(term)
	}
	return porter2.Stem(string(term))
}

func isCyrillic(term []rune) bool {
	for _, r := range term {
		if unicode.Is(unicode.Cyrillic, r) {
			return true
		}
	}
	return false
}

// newStemStage builds the stemming stage for kind. StemNone yields next
// itself.
func newStemStage(kind StemmerKind, minStem int, next Consumer[Token]) (Consumer[Token], error) {
	switch kind {
	case StemSuffix, "":
		return NewStemmer(next, minStem), nil
	case StemSnowball:
		return &stemFuncStage{stem: snowballStem, next: next}, nil
	case StemPorter2:
		return &stemFuncStage{stem: porter2Stem, next: next}, nil
	case StemNone:
		return next, nil
	}
	return nil, fmt.Errorf("unknown stemmer %q", kind)
}
