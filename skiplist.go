package blazeindex

import (
	"math/rand/v2"
)

// ═══════════════════════════════════════════════════════════════════════════════
// WHAT IS A SKIP LIST?
// ═══════════════════════════════════════════════════════════════════════════════
// A skip list is a probabilistic data structure that allows O(log n) search
// and insert, similar to a balanced tree but with much simpler code.
//
// VISUAL REPRESENTATION:
// ----------------------
// A linked list with "express lanes":
//
//	Level 2: HEAD ------------------> [0:7] ------------------> nil
//	Level 1: HEAD ------> [0:3] ----> [0:7] ------> [2:1] ----> nil
//	Level 0: HEAD -> [0:0] -> [0:3] -> [0:7] -> [1:4] -> [2:1] -> nil
//
// Level 0 holds every key in order; each higher level holds roughly half of
// the keys of the level below. A search starts at the top and drops a level
// whenever the next key would overshoot.
//
// WHY A SKIP LIST FOR POSITIONS?
// ------------------------------
// A positional posting list holds one key per occurrence of a term, ordered by
// (document, position). Occurrences of one document form a contiguous run, so
// "all positions of term t in document d" is one seek plus a walk along
// level 0. Unlike a sorted slice, inserting out of order stays cheap, which
// matters when title and body fields of a document are merged.
// ═══════════════════════════════════════════════════════════════════════════════

const maxHeight = 32

// occurrence is one occurrence of a term: the document and the position of
// the term inside it.
type occurrence struct {
	doc DocID
	pos uint32
}

// less orders occurrences by document, then by position.
func (o occurrence) less(other occurrence) bool {
	if o.doc != other.doc {
		return o.doc < other.doc
	}
	return o.pos < other.pos
}

// ═══════════════════════════════════════════════════════════════════════════════
// NODE STRUCTURE
// ═══════════════════════════════════════════════════════════════════════════════
// Each node carries one forward pointer per level it takes part in. The tower
// is sized to the node's height, so most nodes hold a single pointer.
//
//	[0:3]
//	┌─────────┐
//	│ tower[1]│ ──▶ [0:7]
//	│ tower[0]│ ──▶ [0:7]
//	└─────────┘
// ═══════════════════════════════════════════════════════════════════════════════

type skipNode struct {
	key   occurrence
	tower []*skipNode
}

type skipList struct {
	head   skipNode
	height int
	length int
}

func newSkipList() *skipList {
	return &skipList{
		head:   skipNode{tower: make([]*skipNode, maxHeight)},
		height: 1,
	}
}

// search walks down from the top level and returns, for every level, the last
// node whose key is less than key. journey[0].tower[0] is the first node whose
// key is not less than key.
//
// SEARCH EXAMPLE (seek [1:0]):
// ----------------------------
//
//	Level 2: HEAD → [0:7]            end of level, drop
//	Level 1: [0:7]                   [2:1] would overshoot, drop
//	Level 0: [0:7]                   [1:4] would overshoot, stop
//	journey[0] = [0:7], its successor [1:4] is the answer
func (sl *skipList) search(key occurrence) (journey [maxHeight]*skipNode) {
	current := &sl.head
	for level := sl.height - 1; level >= 0; level-- {
		for next := current.tower[level]; next != nil && next.key.less(key); next = current.tower[level] {
			current = next
		}
		journey[level] = current
	}
	return journey
}

// insert adds key and reports whether it was not already present.
func (sl *skipList) insert(key occurrence) bool {
	journey := sl.search(key)
	if next := journey[0].tower[0]; next != nil && next.key == key {
		return false
	}

	height := randomHeight()
	for level := sl.height; level < height; level++ {
		journey[level] = &sl.head
	}
	node := &skipNode{key: key, tower: make([]*skipNode, height)}
	for level := range height {
		node.tower[level] = journey[level].tower[level]
		journey[level].tower[level] = node
	}
	sl.height = max(sl.height, height)
	sl.length++
	return true
}

// seek returns the first node whose key is not less than key, or nil.
func (sl *skipList) seek(key occurrence) *skipNode {
	return sl.search(key)[0].tower[0]
}

// positions returns the positions of doc in ascending order.
func (sl *skipList) positions(doc DocID) []uint32 {
	var out []uint32
	for n := sl.seek(occurrence{doc: doc}); n != nil && n.key.doc == doc; n = n.tower[0] {
		out = append(out, n.key.pos)
	}
	return out
}

// each calls fn for every key in order.
func (sl *skipList) each(fn func(occurrence)) {
	for n := sl.head.tower[0]; n != nil; n = n.tower[0] {
		fn(n.key)
	}
}

// randomHeight flips coins: height h is chosen with probability 1/2^h.
func randomHeight() int {
	height := 1
	for height < maxHeight && rand.Uint32()&1 == 1 {
		height++
	}
	return height
}
