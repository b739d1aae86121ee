// ═══════════════════════════════════════════════════════════════════════════════
// TEXT ANALYSIS OVERVIEW
// ═══════════════════════════════════════════════════════════════════════════════
// Text analysis transforms raw document bytes into index terms through a
// push-based pipeline. Each stage hands its output to the next one as soon as
// it is produced, so a document body is never materialized as a string.
//
// ANALYSIS PIPELINE:
// ------------------
//
//	bytes ─▶ NFC composition ─▶ UTF-8 decoding ─▶ tokenization
//	      ─▶ normalization ─▶ stemming ─▶ sink
//
//  1. Composition   → "е" + U+0308 becomes "ё" (optional)
//  2. Decoding      → bytes become code points, invalid UTF-8 is an error
//  3. Tokenization  → split on everything but letters, digits and joiners
//  4. Normalization → lowercase, fold ё, strip possessives, drop stop-words
//  5. Stemming      → strip the longest known suffix
//
// EXAMPLE TRANSFORMATION:
// -----------------------
// Input:  "The DOG'S Q.U.I.C.K. мягкая"
// Step 3: ["The", "DOG'S", "Q.U.I.C.K", "мягкая"]
// Step 4: ["dog", "quick", "мягкая"]          ("the" is a stop-word)
// Step 5: ["dog", "quick", "мягк"]
//
// An Analyzer is not safe for concurrent use. Parallel indexing gives every
// worker its own Analyzer.
// ═══════════════════════════════════════════════════════════════════════════════

package blazeindex

import (
	"bufio"
	"fmt"
	"io"

	"golang.org/x/text/unicode/norm"
)

// AnalyzerConfig holds configuration options for text analysis
type AnalyzerConfig struct {
	EnableStopwords bool        // Drop English and Russian stop-words (default: true)
	Stemmer         StemmerKind // Stemming algorithm (default: StemSuffix)
	MinStemLength   int         // Code points kept by the suffix stemmer (default: 2)
	ComposeUnicode  bool        // NFC-compose input before decoding (default: true)
}

// DefaultConfig returns the standard analyzer configuration
func DefaultConfig() AnalyzerConfig {
	return AnalyzerConfig{
		EnableStopwords: true,
		Stemmer:         StemSuffix,
		MinStemLength:   DefaultMinStem,
		ComposeUnicode:  true,
	}
}

// Validate reports configuration values no analyzer can be built from.
func (c AnalyzerConfig) Validate() error {
	if c.Stemmer != "" && !c.Stemmer.Valid() {
		return fmt.Errorf("unknown stemmer %q", c.Stemmer)
	}
	if c.MinStemLength < 0 {
		return fmt.Errorf("negative minimum stem length %d", c.MinStemLength)
	}
	return nil
}

// Analyzer owns one complete pipeline. Bytes of a field are pushed with Write
// or WriteByte; Finish ends the field.
type Analyzer struct {
	cfg        AnalyzerConfig
	decoder    *RuneDecoder
	tokenizer  *Tokenizer
	normalizer *Normalizer

	in  io.ByteWriter // head of the pipeline
	buf *bufio.Writer // feeds nfc when composing
	nfc io.WriteCloser
}

// NewAnalyzer builds a pipeline that delivers terms to sink. Tokens handed to
// sink are only valid for the duration of the Accept call.
func NewAnalyzer(cfg AnalyzerConfig, sink Consumer[Token]) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	stem, err := newStemStage(cfg.Stemmer, cfg.MinStemLength, sink)
	if err != nil {
		return nil, err
	}

	a := &Analyzer{cfg: cfg}
	a.normalizer = NewNormalizer(stem, cfg.EnableStopwords)
	a.tokenizer = NewTokenizer(a.normalizer)
	a.decoder = NewRuneDecoder(a.tokenizer)
	if cfg.ComposeUnicode {
		a.buf = bufio.NewWriter(nil)
	}
	a.startField()
	return a, nil
}

func (a *Analyzer) WriteByte(b byte) error { return a.in.WriteByte(b) }

func (a *Analyzer) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := a.in.WriteByte(b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// Finish ends the current field: it drains buffered bytes, reports a
// truncated UTF-8 sequence, flushes the last token and restarts position
// numbering. The analyzer is ready for the next field afterwards, even when
// an error is returned.
func (a *Analyzer) Finish() error {
	defer a.Reset()
	if a.nfc != nil {
		if err := a.buf.Flush(); err != nil {
			return err
		}
		if err := a.nfc.Close(); err != nil {
			return err
		}
	}
	if err := a.decoder.Close(); err != nil {
		return err
	}
	return a.tokenizer.Flush()
}

// Reset discards any partial field.
func (a *Analyzer) Reset() {
	a.decoder.Reset()
	a.tokenizer.Reset()
	a.normalizer.ResetPosition()
	a.startField()
}

func (a *Analyzer) startField() {
	if !a.cfg.ComposeUnicode {
		a.in = a.decoder
		return
	}
	a.nfc = norm.NFC.Writer(a.decoder)
	a.buf.Reset(a.nfc)
	a.in = a.buf
}

// docPositions maps field-relative token positions onto one position space per
// document. Each field starts right after the last position of the previous
// one, so title words precede body words.
type docPositions struct {
	base uint32
	end  uint32
}

func (d *docPositions) at(fieldPos uint32) uint32 {
	pos := d.base + fieldPos
	d.end = max(d.end, pos+1)
	return pos
}

// nextField moves the base past every position handed out so far.
func (d *docPositions) nextField() { d.base = d.end }

func (d *docPositions) reset() { d.base, d.end = 0, 0 }

// termCollector gathers emitted terms as strings, with their document
// positions.
type termCollector struct {
	docPositions
	enc       RuneEncoder
	terms     []string
	positions []uint32
}

func (c *termCollector) Accept(tok Token) error {
	b, err := c.enc.Encode(tok.Text)
	if err != nil {
		return err
	}
	c.terms = append(c.terms, string(b))
	c.positions = append(c.positions, c.at(tok.Position))
	return nil
}

func (c *termCollector) reset() {
	c.docPositions.reset()
	c.terms = c.terms[:0]
	c.positions = c.positions[:0]
}

// Analyze transforms text into index terms using the default configuration.
//
// Example:
//
//	terms, _ := Analyze("The quick brown fox")
//	// Returns: ["quick", "brown", "fox"]
func Analyze(text string) ([]string, error) {
	return AnalyzeWithConfig(text, DefaultConfig())
}

// AnalyzeWithConfig transforms text using a custom configuration
func AnalyzeWithConfig(text string, cfg AnalyzerConfig) ([]string, error) {
	var c termCollector
	a, err := NewAnalyzer(cfg, &c)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(a, text); err != nil {
		return nil, err
	}
	if err := a.Finish(); err != nil {
		return nil, err
	}
	return c.terms, nil
}
