package blazeindex

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ═══════════════════════════════════════════════════════════════════════════════
// OCCURRENCE ORDERING TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestOccurrence_Less(t *testing.T) {
	tests := []struct {
		name string
		a, b occurrence
		want bool
	}{
		{"Same doc, earlier position", occurrence{1, 5}, occurrence{1, 10}, true},
		{"Same doc, later position", occurrence{1, 10}, occurrence{1, 5}, false},
		{"Earlier doc, later position", occurrence{0, 99}, occurrence{1, 0}, true},
		{"Later doc", occurrence{2, 0}, occurrence{1, 99}, false},
		{"Equal", occurrence{1, 5}, occurrence{1, 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.less(tt.b))
		})
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// SKIP LIST TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func collectOccurrences(sl *skipList) []occurrence {
	var out []occurrence
	sl.each(func(o occurrence) { out = append(out, o) })
	return out
}

func TestSkipList_Empty(t *testing.T) {
	sl := newSkipList()

	assert.Equal(t, 0, sl.length)
	assert.Nil(t, sl.seek(occurrence{}))
	assert.Empty(t, sl.positions(0))
	assert.Empty(t, collectOccurrences(sl))
}

func TestSkipList_InsertKeepsOrder(t *testing.T) {
	sl := newSkipList()
	for _, o := range []occurrence{{1, 4}, {0, 7}, {2, 1}, {0, 0}, {0, 3}} {
		require.True(t, sl.insert(o))
	}

	assert.Equal(t, []occurrence{{0, 0}, {0, 3}, {0, 7}, {1, 4}, {2, 1}}, collectOccurrences(sl))
	assert.Equal(t, 5, sl.length)
}

func TestSkipList_InsertDuplicate(t *testing.T) {
	sl := newSkipList()
	require.True(t, sl.insert(occurrence{3, 2}))

	assert.False(t, sl.insert(occurrence{3, 2}))
	assert.Equal(t, 1, sl.length)
}

func TestSkipList_Seek(t *testing.T) {
	sl := newSkipList()
	for _, o := range []occurrence{{0, 0}, {0, 3}, {0, 7}, {1, 4}, {2, 1}} {
		sl.insert(o)
	}

	tests := []struct {
		name string
		key  occurrence
		want *occurrence
	}{
		{"Exact match", occurrence{0, 3}, &occurrence{0, 3}},
		{"Between positions", occurrence{0, 4}, &occurrence{0, 7}},
		{"Start of next document", occurrence{1, 0}, &occurrence{1, 4}},
		{"Past the end", occurrence{2, 2}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := sl.seek(tt.key)
			if tt.want == nil {
				assert.Nil(t, n)
				return
			}
			require.NotNil(t, n)
			assert.Equal(t, *tt.want, n.key)
		})
	}
}

func TestSkipList_Positions(t *testing.T) {
	sl := newSkipList()
	for _, o := range []occurrence{{0, 7}, {1, 4}, {0, 0}, {2, 1}, {0, 3}, {1, 9}} {
		sl.insert(o)
	}

	assert.Equal(t, []uint32{0, 3, 7}, sl.positions(0))
	assert.Equal(t, []uint32{4, 9}, sl.positions(1))
	assert.Equal(t, []uint32{1}, sl.positions(2))
	assert.Empty(t, sl.positions(3))
}

func TestSkipList_ManyRandomInserts(t *testing.T) {
	sl := newSkipList()
	want := make([]occurrence, 0, 2000)
	for i := range 2000 {
		want = append(want, occurrence{doc: DocID(i % 37), pos: uint32(i)})
	}
	shuffled := slices.Clone(want)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	for _, o := range shuffled {
		require.True(t, sl.insert(o))
	}

	slices.SortFunc(want, func(a, b occurrence) int {
		switch {
		case a.less(b):
			return -1
		case b.less(a):
			return 1
		}
		return 0
	})
	assert.Equal(t, want, collectOccurrences(sl))
	assert.LessOrEqual(t, sl.height, maxHeight)
}

func TestRandomHeight_Bounds(t *testing.T) {
	for range 1000 {
		h := randomHeight()
		assert.GreaterOrEqual(t, h, 1)
		assert.LessOrEqual(t, h, maxHeight)
	}
}
