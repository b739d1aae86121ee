package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.DocumentIndexed()
		m.TermsInserted(3)
		m.BytesRead(10)
		m.BuildFinished(time.Second, 1, 2)
		m.BuildFailed("io")
	})
}

func TestRegistryGathersAllCollectors(t *testing.T) {
	m := New()
	m.BuildFailed("parse")

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"blazeindex_docs_indexed_total",
		"blazeindex_terms_inserted_total",
		"blazeindex_bytes_read_total",
		"blazeindex_build_failures_total",
		"blazeindex_build_duration_seconds",
		"blazeindex_dictionary_terms",
		"blazeindex_dictionary_arena_bytes",
	}, names)
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.DocumentIndexed()
	m.DocumentIndexed()
	m.TermsInserted(5)
	m.TermsInserted(0)
	m.BytesRead(128)
	m.BuildFinished(250*time.Millisecond, 42, 512)
	m.BuildFailed("encoding")

	path := filepath.Join(t.TempDir(), "blazeindex.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "blazeindex_docs_indexed_total 2")
	assert.Contains(t, text, "blazeindex_terms_inserted_total 5")
	assert.Contains(t, text, "blazeindex_bytes_read_total 128")
	assert.Contains(t, text, "blazeindex_dictionary_terms 42")
	assert.Contains(t, text, "blazeindex_dictionary_arena_bytes 512")
	assert.Contains(t, text, `blazeindex_build_failures_total{kind="encoding"} 1`)
	assert.Contains(t, text, "blazeindex_build_duration_seconds_count 1")
}

func TestNewUsesPrivateRegistries(t *testing.T) {
	a, b := New(), New()
	a.DocumentIndexed()
	assert.NotSame(t, a.Registry(), b.Registry())
}
