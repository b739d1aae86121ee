package blazeindex

import (
	"bytes"
	"fmt"
	"math/bits"

	"github.com/cespare/xxhash/v2"
)

// ═══════════════════════════════════════════════════════════════════════════════
// TERM DICTIONARY
// ═══════════════════════════════════════════════════════════════════════════════
// All term bytes live back to back in one arena. A term is identified by a
// dense id and stored as a span (offset, length) into the arena, so the
// dictionary holds no per-term heap objects.
//
//	arena: [m y a g k t r a d i t i o n ...]
//	spans: {0,4} {4,9} ...
//
// The arena grows to the next power of two when it runs out of room. Growing
// moves the bytes, so a slice returned by bytes() is only valid until the next
// insert; spans stay valid forever.
//
// Lookups go through a hash table keyed by the xxhash of the term bytes. The
// rare collision is resolved by comparing the arena bytes of each candidate.
// ═══════════════════════════════════════════════════════════════════════════════

type termID uint32

type span struct {
	off uint32
	len uint32
}

type dictionary struct {
	arena []byte
	spans []span
	table map[uint64][]termID
}

func newDictionary() *dictionary {
	return &dictionary{table: make(map[uint64][]termID)}
}

// lookup returns the id of term, if present.
func (d *dictionary) lookup(term []byte) (termID, bool) {
	for _, id := range d.table[xxhash.Sum64(term)] {
		if bytes.Equal(d.bytes(id), term) {
			return id, true
		}
	}
	return 0, false
}

// intern returns the id of term, copying it into the arena if it is new.
func (d *dictionary) intern(term []byte) (id termID, added bool) {
	h := xxhash.Sum64(term)
	for _, id := range d.table[h] {
		if bytes.Equal(d.bytes(id), term) {
			return id, false
		}
	}

	off := len(d.arena)
	d.reserve(len(term))
	d.arena = append(d.arena, term...)

	id = termID(len(d.spans))
	d.spans = append(d.spans, span{off: uint32(off), len: uint32(len(term))})
	d.table[h] = append(d.table[h], id)
	return id, true
}

// reserve makes room for n more bytes, growing capacity to a power of two.
func (d *dictionary) reserve(n int) {
	need := len(d.arena) + n
	if need <= cap(d.arena) {
		return
	}
	grown := make([]byte, len(d.arena), nextPowerOfTwo(need))
	copy(grown, d.arena)
	d.arena = grown
}

// bytes returns a view of the term. The view is invalidated by intern.
func (d *dictionary) bytes(id termID) []byte {
	s := d.spans[id]
	return d.arena[s.off : s.off+s.len]
}

func (d *dictionary) term(id termID) string { return string(d.bytes(id)) }

func (d *dictionary) count() int { return len(d.spans) }

// size returns the number of bytes held in the arena.
func (d *dictionary) size() int { return len(d.arena) }

// rebuild recreates the hash table after arena and spans were loaded. It
// fails if a term appears twice.
func (d *dictionary) rebuild() error {
	d.table = make(map[uint64][]termID, len(d.spans))
	for i := range d.spans {
		term := d.bytes(termID(i))
		h := xxhash.Sum64(term)
		for _, id := range d.table[h] {
			if bytes.Equal(d.bytes(id), term) {
				return fmt.Errorf("duplicate term %q", term)
			}
		}
		d.table[h] = append(d.table[h], termID(i))
	}
	return nil
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
