package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.RunContext(context.Background(), append([]string{"blazeindex", "--log-level", "error"}, args...))
	return out.String(), err
}

func TestBuildAndInspect(t *testing.T) {
	dir := t.TempDir()
	texts := filepath.Join(dir, "texts.json")
	index := filepath.Join(dir, "index.bin")
	metricsFile := filepath.Join(dir, "blazeindex.prom")
	require.NoError(t, os.WriteFile(texts, []byte(`{"Cats":"The cat sat.","Dogs":"The dog sat."}`), 0o644))

	out, err := runApp(t, "build", "--texts", texts, "--index", index, "--workers", "2", "--metrics-file", metricsFile)
	require.NoError(t, err)
	assert.Contains(t, out, "indexed 2 documents, 3 terms, 4 postings")

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "blazeindex_docs_indexed_total 2")

	out, err = runApp(t, "inspect", "--index", index)
	require.NoError(t, err)
	assert.Contains(t, out, "documents:   2")
	assert.Contains(t, out, "terms:       3")

	out, err = runApp(t, "inspect", "--index", index, "--term", "sat", "--term", "fish")
	require.NoError(t, err)
	assert.Contains(t, out, "sat: 2 documents")
	assert.Contains(t, out, "0\t1\tCats")
	assert.Contains(t, out, "1\t1\tDogs")
	assert.Contains(t, out, "fish: 0 documents")
}

func TestBuildWithoutStopWords(t *testing.T) {
	dir := t.TempDir()
	texts := filepath.Join(dir, "texts.json")
	index := filepath.Join(dir, "index.bin")
	require.NoError(t, os.WriteFile(texts, []byte(`{"Cats":"The cat sat.","Dogs":"The dog sat."}`), 0o644))

	_, err := runApp(t, "build", "--texts", texts, "--index", index, "--stopwords=false")
	require.NoError(t, err)

	out, err := runApp(t, "inspect", "--index", index, "--term", "the")
	require.NoError(t, err)
	assert.Contains(t, out, "the: 2 documents")
}

func TestBuildWithPositions(t *testing.T) {
	dir := t.TempDir()
	texts := filepath.Join(dir, "texts.json")
	index := filepath.Join(dir, "index.bin")
	require.NoError(t, os.WriteFile(texts, []byte(`{"Cats":"The cat sat. Sat again.","Dogs":"The dog sat."}`), 0o644))

	_, err := runApp(t, "build", "--texts", texts, "--index", index, "--positions", "--workers", "2")
	require.NoError(t, err)

	out, err := runApp(t, "inspect", "--index", index)
	require.NoError(t, err)
	assert.Contains(t, out, "positions:   true")

	out, err = runApp(t, "inspect", "--index", index, "--term", "sat")
	require.NoError(t, err)
	assert.Contains(t, out, "0\t2\tCats")
	assert.Contains(t, out, "positions: [1 2]")
	assert.Contains(t, out, "1\t1\tDogs")
}

func TestBuildErrors(t *testing.T) {
	dir := t.TempDir()
	index := filepath.Join(dir, "index.bin")

	_, err := runApp(t, "build", "--texts", filepath.Join(dir, "missing.json"), "--index", index)
	assert.Error(t, err)

	texts := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(texts, []byte(`{"a":"b",}`), 0o644))
	_, err = runApp(t, "build", "--texts", texts, "--index", index)
	assert.Error(t, err)
	assert.NoFileExists(t, index, "a failed build writes no index")

	_, err = runApp(t, "build", "--texts", texts, "--index", index, "--stemmer", "lancaster")
	assert.Error(t, err)
}
