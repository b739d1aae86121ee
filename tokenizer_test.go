package blazeindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenRecorder struct {
	tokens []string
}

func (r *tokenRecorder) Accept(token []rune) error {
	r.tokens = append(r.tokens, string(token))
	return nil
}

// tokenize pushes text through a tokenizer and flushes it.
func tokenize(t *testing.T, text string) []string {
	t.Helper()
	rec := &tokenRecorder{}
	tok := NewTokenizer(rec)
	for _, r := range text {
		require.NoError(t, tok.Accept(r))
	}
	require.NoError(t, tok.Flush())
	return rec.tokens
}

func TestTokenizer_Joiners(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"ABC''DEF", []string{"ABC", "DEF"}},
		{"123.ABC", []string{"123", "ABC"}},
		{"0123456789,", []string{"0123456789"}},
		{"3,141592653589793", []string{"3,141592653589793"}},
		{"3.14", []string{"3.14"}},
		{"don't", []string{"don't"}},
		{"DOG'S", []string{"DOG'S"}},
		{"Q.U.I.C.K.", []string{"Q.U.I.C.K"}},
		{"a,b", []string{"a", "b"}},
		{"1'2", []string{"1", "2"}},
		{"A.1", []string{"A", "1"}},
		{"1.A", []string{"1", "A"}},
		{"'quoted'", []string{"quoted"}},
		{"end.", []string{"end"}},
		{"1,,2", []string{"1", "2"}},
		{"a.,b", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenize(t, tt.input))
		})
	}
}

func TestTokenizer_Separators(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"инженер-механик", []string{"инженер", "механик"}},
		{"cat sat", []string{"cat", "sat"}},
		{"  cat \t\n sat  ", []string{"cat", "sat"}},
		{"e-mail: user@host", []string{"e", "mail", "user", "host"}},
		{"мягкая, красная!", []string{"мягкая", "красная"}},
		{"", nil},
		{"--- ...", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenize(t, tt.input))
		})
	}
}

func TestTokenizer_RequiresExplicitFlush(t *testing.T) {
	rec := &tokenRecorder{}
	tok := NewTokenizer(rec)
	for _, r := range "cat sat" {
		require.NoError(t, tok.Accept(r))
	}
	assert.Equal(t, []string{"cat"}, rec.tokens, "the last token stays buffered until Flush")

	require.NoError(t, tok.Flush())
	assert.Equal(t, []string{"cat", "sat"}, rec.tokens)

	require.NoError(t, tok.Flush())
	assert.Equal(t, []string{"cat", "sat"}, rec.tokens, "flushing an empty buffer emits nothing")
}

func TestTokenizer_Reset(t *testing.T) {
	rec := &tokenRecorder{}
	tok := NewTokenizer(rec)
	for _, r := range "partial" {
		require.NoError(t, tok.Accept(r))
	}
	tok.Reset()
	require.NoError(t, tok.Flush())
	assert.Empty(t, rec.tokens)
}

func TestTokenizer_PropagatesConsumerError(t *testing.T) {
	tok := NewTokenizer(ConsumerFunc[[]rune](func([]rune) error { return assert.AnError }))
	require.NoError(t, tok.Accept('a'))
	assert.ErrorIs(t, tok.Accept(' '), assert.AnError)
}
