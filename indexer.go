package blazeindex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wizenheimer/blazeindex/internal/metrics"
)

// ═══════════════════════════════════════════════════════════════════════════════
// INDEXER: Building an Index from a Document Collection
// ═══════════════════════════════════════════════════════════════════════════════
// A collection is a single JSON object mapping titles to bodies:
//
//	{"Cats": "cat sat", "Dogs": "dog sat"}
//
// Only string values are accepted. Insignificant JSON whitespace may appear
// between tokens. Documents get ids in the order they appear.
//
// SEQUENTIAL BUILD:
// -----------------
// The body literal is parsed straight out of the mapped file into the
// analyzer, whose terms are inserted into the index as they are produced.
//
// PARALLEL BUILD (Workers > 1):
// -----------------------------
// Documents are read in batches. Titles are registered and bodies decoded
// sequentially; the bodies of a batch are then analyzed concurrently, one
// analyzer per worker. Terms are merged into the index in document order by
// the calling goroutine, so the result is identical to a sequential build.
//
// Any error aborts the build; no partial index is returned.
// ═══════════════════════════════════════════════════════════════════════════════

const (
	defaultBatchSize = 256
)

// IndexerOption configures an Indexer.
type IndexerOption func(*indexerOptions)

type indexerOptions struct {
	logger      *slog.Logger
	analyzer    AnalyzerConfig
	workers     int
	batchSize   int
	indexTitles bool
	positions   bool
	metrics     *metrics.Metrics
}

// WithLogger sets the logger used for progress output.
func WithLogger(logger *slog.Logger) IndexerOption {
	return func(opts *indexerOptions) {
		opts.logger = logger
	}
}

// WithAnalyzerConfig replaces DefaultConfig for all documents.
func WithAnalyzerConfig(cfg AnalyzerConfig) IndexerOption {
	return func(opts *indexerOptions) {
		opts.analyzer = cfg
	}
}

// WithWorkers sets the number of goroutines analyzing bodies. Values below 2
// select the streaming sequential build.
func WithWorkers(n int) IndexerOption {
	return func(opts *indexerOptions) {
		opts.workers = n
	}
}

// WithBatchSize sets how many documents a parallel build holds in memory.
func WithBatchSize(n int) IndexerOption {
	return func(opts *indexerOptions) {
		opts.batchSize = n
	}
}

// WithTitleIndexing also indexes the words of every title. Title words take
// the first positions of a document and body positions follow them.
func WithTitleIndexing(enabled bool) IndexerOption {
	return func(opts *indexerOptions) {
		opts.indexTitles = enabled
	}
}

// WithPositions builds a positional index that records where in each document
// every term occurs.
func WithPositions(enabled bool) IndexerOption {
	return func(opts *indexerOptions) {
		opts.positions = enabled
	}
}

// WithMetrics records build progress into m.
func WithMetrics(m *metrics.Metrics) IndexerOption {
	return func(opts *indexerOptions) {
		opts.metrics = m
	}
}

// Indexer builds indexes from document collections. An Indexer holds no
// per-build state and may run several builds concurrently.
type Indexer struct {
	opts   indexerOptions
	logger *slog.Logger
}

// NewIndexer returns an Indexer configured by opts. It fails only when the
// analyzer configuration is invalid.
func NewIndexer(opts ...IndexerOption) (*Indexer, error) {
	options := indexerOptions{
		logger:    slog.Default(),
		analyzer:  DefaultConfig(),
		workers:   1,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if err := options.analyzer.Validate(); err != nil {
		return nil, fmt.Errorf("analyzer config: %w", err)
	}
	if options.batchSize < 1 {
		options.batchSize = defaultBatchSize
	}
	return &Indexer{
		opts:   options,
		logger: options.logger.With(slog.String("component", "indexer")),
	}, nil
}

// MakeIndex builds an index from the collection at textsPath using the
// default configuration.
func MakeIndex(ctx context.Context, textsPath string) (*Index, error) {
	ix, err := NewIndexer()
	if err != nil {
		return nil, err
	}
	return ix.MakeIndex(ctx, textsPath)
}

// MakeIndex builds an index from the collection at textsPath.
func (ix *Indexer) MakeIndex(ctx context.Context, textsPath string) (*Index, error) {
	start := time.Now()
	idx, err := ix.makeIndex(ctx, textsPath)
	if err != nil {
		ix.opts.metrics.BuildFailed(errorKind(err))
		ix.logger.Error("index build failed", slog.String("path", textsPath), slog.Any("error", err))
		return nil, err
	}

	elapsed := time.Since(start)
	stats := idx.Stats()
	ix.opts.metrics.BuildFinished(elapsed, stats.Terms, stats.DictionaryBytes)
	ix.logger.Info("index built",
		slog.String("path", textsPath),
		slog.Any("index", idx),
		slog.Duration("elapsed", elapsed),
	)
	return idx, nil
}

// BuildIndex builds an index from textsPath and writes it to indexPath.
func (ix *Indexer) BuildIndex(ctx context.Context, textsPath, indexPath string) (*Index, error) {
	idx, err := ix.MakeIndex(ctx, textsPath)
	if err != nil {
		return nil, err
	}
	if err := WriteIndexFile(indexPath, idx); err != nil {
		ix.opts.metrics.BuildFailed(errorKind(err))
		return nil, err
	}
	ix.logger.Info("index written", slog.String("path", indexPath))
	return idx, nil
}

func (ix *Indexer) makeIndex(ctx context.Context, textsPath string) (*Index, error) {
	m, err := OpenMappedFile(textsPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := m.Close(); err != nil {
			ix.logger.Warn("failed to close collection", slog.String("path", textsPath), slog.Any("error", err))
		}
	}()

	data := m.Data()
	ix.opts.metrics.BytesRead(len(data))
	ix.logger.Info("indexing collection",
		slog.String("path", textsPath),
		slog.Int("bytes", len(data)),
		slog.Int("workers", max(ix.opts.workers, 1)),
		slog.Bool("positions", ix.opts.positions),
	)

	idx := NewIndex()
	if ix.opts.positions {
		idx = NewPositionalIndex()
	}
	if ix.opts.workers > 1 {
		err = ix.buildParallel(ctx, data, idx)
	} else {
		err = ix.buildSequential(ctx, data, idx)
	}
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// SEQUENTIAL BUILD
// ═══════════════════════════════════════════════════════════════════════════════

// indexSink inserts every term it receives into idx for the current document.
type indexSink struct {
	docPositions
	idx   *Index
	doc   DocID
	enc   RuneEncoder
	terms int
}

func (s *indexSink) Accept(tok Token) error {
	b, err := s.enc.Encode(tok.Text)
	if err != nil {
		return err
	}
	s.terms++
	return s.idx.InsertTermAt(b, s.doc, s.at(tok.Position))
}

func (ix *Indexer) buildSequential(ctx context.Context, data []byte, idx *Index) error {
	sink := &indexSink{idx: idx}
	a, err := NewAnalyzer(ix.opts.analyzer, sink)
	if err != nil {
		return err
	}

	c := newCollectionReader(data)
	if err := c.begin(); err != nil {
		return err
	}
	var title bytes.Buffer
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		more, err := c.next()
		if err != nil || !more {
			return err
		}

		id, err := c.readTitle(&title, idx)
		if err != nil {
			return err
		}
		sink.doc, sink.terms = id, 0
		sink.reset()

		if ix.opts.indexTitles {
			if err := analyzeField(a, title.Bytes()); err != nil {
				return fmt.Errorf("document %q title: %w", title.String(), err)
			}
			sink.nextField()
		}
		if err := c.readBody(a); err != nil {
			a.Reset()
			return fmt.Errorf("document %q: %w", title.String(), err)
		}
		if err := a.Finish(); err != nil {
			return fmt.Errorf("document %q: %w", title.String(), err)
		}

		ix.opts.metrics.DocumentIndexed()
		ix.opts.metrics.TermsInserted(sink.terms)
		ix.logger.Debug("indexed document", slog.Int("docID", int(id)), slog.Int("terms", sink.terms))
	}
}

func analyzeField(a *Analyzer, text []byte) error {
	if _, err := a.Write(text); err != nil {
		a.Reset()
		return err
	}
	return a.Finish()
}

// ═══════════════════════════════════════════════════════════════════════════════
// PARALLEL BUILD
// ═══════════════════════════════════════════════════════════════════════════════

type pendingDoc struct {
	id        DocID
	title     string
	body      []byte
	terms     []string
	positions []uint32 // positions[i] is the position of terms[i]
	err       error
}

func (ix *Indexer) buildParallel(ctx context.Context, data []byte, idx *Index) error {
	c := newCollectionReader(data)
	if err := c.begin(); err != nil {
		return err
	}

	batch := make([]*pendingDoc, 0, ix.opts.batchSize)
	var title, body bytes.Buffer
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		more, err := c.next()
		if err == nil && more {
			var doc *pendingDoc
			if doc, err = c.readDocument(&title, &body, idx); err == nil {
				batch = append(batch, doc)
			}
		}

		// Documents read before a parse error are analyzed first; their
		// errors take precedence.
		if err != nil || !more || len(batch) == cap(batch) {
			if ferr := ix.flushBatch(ctx, batch, idx); ferr != nil {
				return ferr
			}
			batch = batch[:0]
		}
		if err != nil || !more {
			return err
		}
	}
}

// flushBatch analyzes the batch concurrently and merges the terms into idx in
// document order.
func (ix *Indexer) flushBatch(ctx context.Context, batch []*pendingDoc, idx *Index) error {
	if len(batch) == 0 {
		return nil
	}

	workers := min(ix.opts.workers, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	for w := range workers {
		g.Go(func() error {
			var sink termCollector
			a, err := NewAnalyzer(ix.opts.analyzer, &sink)
			if err != nil {
				return err
			}
			for i := w; i < len(batch); i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				doc := batch[i]
				sink.reset()
				if ix.opts.indexTitles {
					if err := analyzeField(a, []byte(doc.title)); err != nil {
						doc.err = fmt.Errorf("document %q title: %w", doc.title, err)
						continue
					}
					sink.nextField()
				}
				if err := analyzeField(a, doc.body); err != nil {
					doc.err = fmt.Errorf("document %q: %w", doc.title, err)
					continue
				}
				doc.terms = append([]string(nil), sink.terms...)
				doc.positions = append([]uint32(nil), sink.positions...)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, doc := range batch {
		if doc.err != nil {
			return doc.err
		}
		for i, term := range doc.terms {
			if err := idx.InsertTermAt([]byte(term), doc.id, doc.positions[i]); err != nil {
				return err
			}
		}
		ix.opts.metrics.DocumentIndexed()
		ix.opts.metrics.TermsInserted(len(doc.terms))
		ix.logger.Debug("indexed document", slog.Int("docID", int(doc.id)), slog.Int("terms", len(doc.terms)))
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// COLLECTION GRAMMAR
// ═══════════════════════════════════════════════════════════════════════════════
//
//	collection := ws '{' ws ( entry ( ws ',' ws entry )* ws )? '}' ws
//	entry      := string ws ':' ws string
//
// Titles and bodies must decode to non-empty strings.

type collectionReader struct {
	data  []byte
	pos   int
	first bool
}

func newCollectionReader(data []byte) *collectionReader {
	return &collectionReader{data: data, first: true}
}

func (c *collectionReader) begin() error {
	c.skipSpace()
	if c.pos >= len(c.data) || c.data[c.pos] != '{' {
		return parseErrorf(c.pos, "collection must be a JSON object")
	}
	c.pos++
	return nil
}

// next positions the reader at the next title. It returns false once the
// closing brace has been consumed.
func (c *collectionReader) next() (bool, error) {
	c.skipSpace()
	if c.pos >= len(c.data) {
		return false, parseErrorf(c.pos, "unterminated collection: expected ',' or '}'")
	}

	switch ch := c.data[c.pos]; {
	case ch == '}':
		c.pos++
		c.skipSpace()
		if c.pos != len(c.data) {
			return false, parseErrorf(c.pos, "unexpected data after collection")
		}
		return false, nil
	case c.first:
		c.first = false
		return true, nil
	case ch == ',':
		c.pos++
		c.skipSpace()
		return true, nil
	default:
		return false, parseErrorf(c.pos, "expected ',' or '}' after document")
	}
}

// readTitle parses the title into buf, registers it in idx and consumes the
// following colon.
func (c *collectionReader) readTitle(buf *bytes.Buffer, idx *Index) (DocID, error) {
	start := c.pos
	buf.Reset()
	end, err := ParseStringLiteral(c.data, c.pos, buf)
	if err != nil {
		return 0, err
	}
	c.pos = end
	if end-start == 2 {
		return 0, parseErrorf(start, "empty document title")
	}
	if err := validateUTF8(buf.Bytes(), int64(start)); err != nil {
		return 0, err
	}

	c.skipSpace()
	if c.pos >= len(c.data) || c.data[c.pos] != ':' {
		return 0, parseErrorf(c.pos, "expected ':' after document title")
	}
	c.pos++
	c.skipSpace()

	id, err := idx.InsertDocument(buf.String())
	if err != nil {
		return 0, fmt.Errorf("document at offset %d: %w", start, err)
	}
	return id, nil
}

// readDocument reads a whole entry, decoding the body into a private buffer.
func (c *collectionReader) readDocument(title, body *bytes.Buffer, idx *Index) (*pendingDoc, error) {
	id, err := c.readTitle(title, idx)
	if err != nil {
		return nil, err
	}
	body.Reset()
	if err := c.readBody(body); err != nil {
		return nil, fmt.Errorf("document %q: %w", title.String(), err)
	}
	return &pendingDoc{id: id, title: title.String(), body: bytes.Clone(body.Bytes())}, nil
}

// readBody parses the body literal into w.
func (c *collectionReader) readBody(w io.ByteWriter) error {
	start := c.pos
	if start+1 < len(c.data) && c.data[start] == '"' && c.data[start+1] == '"' {
		return parseErrorf(start, "empty document body")
	}
	end, err := ParseStringLiteral(c.data, c.pos, w)
	if err != nil {
		return err
	}
	c.pos = end
	return nil
}

func (c *collectionReader) skipSpace() {
	for c.pos < len(c.data) {
		switch c.data[c.pos] {
		case ' ', '\t', '\n', '\r':
			c.pos++
		default:
			return
		}
	}
}

// validateUTF8 reports the first invalid sequence in b. base is the offset of
// b in its input, used in the error.
func validateUTF8(b []byte, base int64) error {
	var s DecodeState
	for _, c := range b {
		if _, _, err := s.Decode(c); err != nil {
			var encErr *EncodingError
			if errors.As(err, &encErr) {
				encErr.Offset += base
			}
			return err
		}
	}
	if s.Pending() {
		return &EncodingError{Offset: base + s.Offset(), Reason: "truncated sequence", Bytes: append([]byte(nil), s.seq[:s.n]...)}
	}
	return nil
}

// errorKind classifies a build error for metrics.
func errorKind(err error) string {
	var (
		ioErr    *IOError
		encErr   *EncodingError
		parseErr *ParseError
	)
	switch {
	case errors.As(err, &ioErr):
		return "io"
	case errors.As(err, &encErr):
		return "encoding"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "other"
}
