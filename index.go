// Package blazeindex builds inverted indexes over JSON document collections.
//
// ═══════════════════════════════════════════════════════════════════════════════
// WHAT IS AN INVERTED INDEX?
// ═══════════════════════════════════════════════════════════════════════════════
// An inverted index is like the index at the back of a book, but for search engines.
//
// Example: Given these documents:
//
//	Doc 0: "cat sat"
//	Doc 1: "dog sat"
//
// The inverted index would look like:
//
//	"cat" → [0]
//	"sat" → [0, 1]
//	"dog" → [1]
//
// Document titles map to dense ids assigned in the order the documents were
// read, so a posting list is always sorted by document id.
// ═══════════════════════════════════════════════════════════════════════════════
package blazeindex

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/RoaringBitmap/roaring"
	"github.com/google/uuid"
)

// DocID identifies a document by its position in the collection.
type DocID uint32

// ═══════════════════════════════════════════════════════════════════════════════
// CORE DATA STRUCTURE
// ═══════════════════════════════════════════════════════════════════════════════
//
//	Index
//	├── titles:   []string           DocID → title
//	├── docs:     map[string]DocID   title → DocID
//	├── dict:     arena dictionary   term  → termID
//	└── postings: []postingList      termID → documents + occurrence counts
//	                                         (+ positions, when positional)
//
// A posting list records which documents contain a term as a roaring bitmap
// and, aligned with it, how many times the term occurred in each document.
// Terms are inserted in document order, so bitmap order is insertion order.
//
// A positional index additionally keeps every (document, position) pair of a
// term in a skip list, so the positions of a term inside one document can be
// read back. In a positional index the occurrence count of a document always
// equals the number of its recorded positions.
// ═══════════════════════════════════════════════════════════════════════════════

type postingList struct {
	docs      *roaring.Bitmap
	counts    []uint32
	last      DocID
	positions *skipList // nil unless the index is positional
}

// Index is an inverted index. It is safe for concurrent use.
type Index struct {
	mu         sync.RWMutex
	buildID    uuid.UUID
	positional bool
	titles     []string
	docs       map[string]DocID
	dict       *dictionary
	postings   []postingList
}

// NewIndex returns an empty index that records document presence and
// occurrence counts.
func NewIndex() *Index {
	return &Index{
		buildID: uuid.New(),
		docs:    make(map[string]DocID),
		dict:    newDictionary(),
	}
}

// NewPositionalIndex returns an empty index that also records the position of
// every occurrence. Terms must be inserted with InsertTermAt.
func NewPositionalIndex() *Index {
	idx := NewIndex()
	idx.positional = true
	return idx
}

// HasPositions reports whether the index records term positions.
func (idx *Index) HasPositions() bool { return idx.positional }

// BuildID identifies the build that produced the index. It survives a round
// trip through WriteTo and ReadIndex.
func (idx *Index) BuildID() uuid.UUID { return idx.buildID }

// ═══════════════════════════════════════════════════════════════════════════════
// INDEXING
// ═══════════════════════════════════════════════════════════════════════════════

// InsertDocument registers a document title and returns its id. Ids are dense
// and start at 0. Titles must be non-empty and unique.
func (idx *Index) InsertDocument(title string) (DocID, error) {
	if title == "" {
		return 0, ErrEmptyTitle
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.docs[title]; ok {
		return 0, fmt.Errorf("insert %q: %w", title, ErrDuplicateTitle)
	}
	id := DocID(len(idx.titles))
	idx.titles = append(idx.titles, title)
	idx.docs[title] = id
	return id, nil
}

// InsertTerm records one occurrence of term in document doc. The term bytes
// are copied. A document must not be inserted into a posting list after a
// later document. A positional index rejects InsertTerm with
// ErrPositionRequired.
//
// EXAMPLE:
// --------
//
//	InsertTerm("sat", 0)  → "sat": docs [0]    counts [1]
//	InsertTerm("sat", 0)  → "sat": docs [0]    counts [2]
//	InsertTerm("sat", 1)  → "sat": docs [0 1]  counts [2 1]
func (idx *Index) InsertTerm(term []byte, doc DocID) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.positional {
		return fmt.Errorf("insert term %q: %w", term, ErrPositionRequired)
	}
	return idx.insert(term, doc, 0)
}

// InsertTermAt records the occurrence of term at position pos of document doc.
// Positions of one document may arrive in any order; recording the same
// occurrence twice is a no-op. An index without positions ignores pos.
func (idx *Index) InsertTermAt(term []byte, doc DocID, pos uint32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.insert(term, doc, pos)
}

func (idx *Index) insert(term []byte, doc DocID, pos uint32) error {
	if int(doc) >= len(idx.titles) {
		return fmt.Errorf("insert term %q: doc %d: %w", term, doc, ErrUnknownDocument)
	}

	id, added := idx.dict.intern(term)
	if added {
		p := postingList{docs: roaring.New()}
		if idx.positional {
			p.positions = newSkipList()
		}
		idx.postings = append(idx.postings, p)
	}
	p := &idx.postings[id]

	n := len(p.counts)
	if n > 0 && doc < p.last {
		return fmt.Errorf("insert term %q: doc %d after doc %d: %w", term, doc, p.last, ErrPostingOrder)
	}
	if p.positions != nil && !p.positions.insert(occurrence{doc: doc, pos: pos}) {
		return nil
	}
	if n > 0 && doc == p.last {
		p.counts[n-1]++
		return nil
	}
	p.docs.Add(uint32(doc))
	p.counts = append(p.counts, 1)
	p.last = doc
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// READING
// ═══════════════════════════════════════════════════════════════════════════════

func (idx *Index) NumDocuments() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.titles)
}

func (idx *Index) NumTerms() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dict.count()
}

// Title returns the title of document id.
func (idx *Index) Title(id DocID) (string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if int(id) >= len(idx.titles) {
		return "", false
	}
	return idx.titles[id], true
}

// DocumentID returns the id assigned to title.
func (idx *Index) DocumentID(title string) (DocID, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	id, ok := idx.docs[title]
	return id, ok
}

// Postings returns the documents containing term, in insertion order.
func (idx *Index) Postings(term string) []DocID {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	p, ok := idx.posting(term)
	if !ok {
		return nil
	}
	ids := make([]DocID, 0, len(p.counts))
	it := p.docs.Iterator()
	for it.HasNext() {
		ids = append(ids, DocID(it.Next()))
	}
	return ids
}

// Occurrences returns how often term occurs in each document of its posting
// list, aligned with Postings.
func (idx *Index) Occurrences(term string) []uint32 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	p, ok := idx.posting(term)
	if !ok {
		return nil
	}
	return append([]uint32(nil), p.counts...)
}

// DocFrequency returns the number of documents containing term.
func (idx *Index) DocFrequency(term string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	p, ok := idx.posting(term)
	if !ok {
		return 0
	}
	return len(p.counts)
}

// Contains reports whether document doc contains term.
func (idx *Index) Contains(term string, doc DocID) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	p, ok := idx.posting(term)
	return ok && p.docs.Contains(uint32(doc))
}

// Positions returns the positions of term inside document doc in ascending
// order. It returns nil when the index records no positions or the term does
// not occur in doc.
func (idx *Index) Positions(term string, doc DocID) []uint32 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	p, ok := idx.posting(term)
	if !ok || p.positions == nil {
		return nil
	}
	return p.positions.positions(doc)
}

// Terms returns every term in dictionary order, which is the order in which
// terms were first inserted.
func (idx *Index) Terms() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	terms := make([]string, idx.dict.count())
	for i := range terms {
		terms[i] = idx.dict.term(termID(i))
	}
	return terms
}

// Stats summarizes the size of the index.
type Stats struct {
	Documents       int
	Terms           int
	Postings        int
	Occurrences     uint64
	DictionaryBytes int
}

func (idx *Index) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	s := Stats{
		Documents:       len(idx.titles),
		Terms:           idx.dict.count(),
		DictionaryBytes: idx.dict.size(),
	}
	for i := range idx.postings {
		s.Postings += len(idx.postings[i].counts)
		for _, c := range idx.postings[i].counts {
			s.Occurrences += uint64(c)
		}
	}
	return s
}

// LogValue lets an Index be passed directly to slog.
func (idx *Index) LogValue() slog.Value {
	s := idx.Stats()
	return slog.GroupValue(
		slog.String("build_id", idx.buildID.String()),
		slog.Bool("positions", idx.positional),
		slog.Int("documents", s.Documents),
		slog.Int("terms", s.Terms),
		slog.Int("postings", s.Postings),
		slog.Int("dictionary_bytes", s.DictionaryBytes),
	)
}

func (idx *Index) posting(term string) (*postingList, bool) {
	id, ok := idx.dict.lookup([]byte(term))
	if !ok {
		return nil, false
	}
	return &idx.postings[id], true
}
