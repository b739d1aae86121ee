package blazeindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodeAll pushes every byte through a fresh decoder and closes it.
func decodeAll(input []byte) ([]rune, error) {
	var out []rune
	d := NewRuneDecoder(ConsumerFunc[rune](func(r rune) error {
		out = append(out, r)
		return nil
	}))
	if _, err := d.Write(input); err != nil {
		return out, err
	}
	return out, d.Close()
}

func TestDecodeState_ASCII(t *testing.T) {
	var s DecodeState
	for _, b := range []byte("Az09 ,.") {
		r, ok, err := s.Decode(b)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, rune(b), r)
	}
	assert.False(t, s.Pending())
	assert.Equal(t, int64(7), s.Offset())
}

func TestDecodeState_MultiByte(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  rune
	}{
		{"two bytes ё", []byte{0xD1, 0x91}, 'ё'},
		{"three bytes euro", []byte{0xE2, 0x82, 0xAC}, '€'},
		{"four bytes emoji", []byte{0xF0, 0x9F, 0x98, 0x80}, 0x1F600},
		{"largest code point", []byte{0xF4, 0x8F, 0xBF, 0xBF}, 0x10FFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s DecodeState
			for i, b := range tt.input {
				r, ok, err := s.Decode(b)
				require.NoError(t, err)
				if i < len(tt.input)-1 {
					assert.False(t, ok, "byte %d must not complete the sequence", i)
					assert.True(t, s.Pending())
					continue
				}
				require.True(t, ok)
				assert.Equal(t, tt.want, r)
			}
			assert.False(t, s.Pending())
		})
	}
}

func TestDecodeState_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		input  []byte
		offset int64
	}{
		{"stray continuation", []byte{0x80}, 0},
		{"invalid byte FF", []byte{0xFF}, 0},
		{"overlong lead C0", []byte{0xC0}, 0},
		{"overlong NUL", []byte{0xC0, 0x80}, 0},
		{"overlong lead C1", []byte{0xC1, 0xBF}, 0},
		{"overlong three bytes", []byte{0xE0, 0x80, 0x80}, 1},
		{"surrogate half", []byte{0xED, 0xA0, 0x80}, 1},
		{"above U+10FFFF", []byte{0xF4, 0x90, 0x80, 0x80}, 1},
		{"lead F5", []byte{0xF5, 0x80, 0x80, 0x80}, 0},
		{"ascii inside sequence", []byte{'a', 0xD1, 'b'}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeAll(tt.input)
			require.Error(t, err)
			var encErr *EncodingError
			require.ErrorAs(t, err, &encErr)
			assert.Equal(t, tt.offset, encErr.Offset)
		})
	}
}

func TestRuneDecoder_Truncated(t *testing.T) {
	for _, input := range [][]byte{{0xE0}, {0xD1}, {'o', 'k', 0xF0, 0x9F, 0x98}} {
		_, err := decodeAll(input)
		var encErr *EncodingError
		require.ErrorAs(t, err, &encErr, "input % x", input)
		assert.Equal(t, "truncated sequence", encErr.Reason)
	}
}

func TestRuneDecoder_Stream(t *testing.T) {
	got, err := decodeAll([]byte("ёлка tree"))
	require.NoError(t, err)
	assert.Equal(t, []rune("ёлка tree"), got)
}

func TestRuneDecoder_RoundTrip(t *testing.T) {
	inputs := []string{
		"plain ascii 0123456789",
		"Мягкие игрушки, ёлка",
		"€ 漢字 ❄",
		"\U0001F600 \U00010348 \U0010FFFF",
		"mixed: a ё € \U0001F600 z",
	}

	for _, input := range inputs {
		runes, err := decodeAll([]byte(input))
		require.NoError(t, err, "input %q", input)

		var out []byte
		for _, r := range runes {
			out, err = EncodeRune(out, r)
			require.NoError(t, err)
		}
		assert.Equal(t, []byte(input), out, "input %q", input)
		assert.Equal(t, []rune(input), runes)
	}
}

func TestRuneDecoder_FreshStatePerStream(t *testing.T) {
	var out []rune
	d := NewRuneDecoder(ConsumerFunc[rune](func(r rune) error {
		out = append(out, r)
		return nil
	}))

	require.NoError(t, d.WriteByte(0xD1))
	require.Error(t, d.Close())

	// The dangling lead byte of the previous stream must not leak into
	// the next one.
	_, err := d.Write([]byte{0x91})
	require.Error(t, err)

	d.Reset()
	_, err = d.Write([]byte("ok"))
	require.NoError(t, err)
	require.NoError(t, d.Close())
	assert.Equal(t, []rune("ok"), out)
}

func TestRuneDecoder_PropagatesConsumerError(t *testing.T) {
	stop := assert.AnError
	d := NewRuneDecoder(ConsumerFunc[rune](func(rune) error { return stop }))
	n, err := d.Write([]byte("abc"))
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 0, n)
}

func TestEncodeRune(t *testing.T) {
	tests := []struct {
		r    rune
		want []byte
	}{
		{'a', []byte{'a'}},
		{'ё', []byte{0xD1, 0x91}},
		{'€', []byte{0xE2, 0x82, 0xAC}},
		{0x1F600, []byte{0xF0, 0x9F, 0x98, 0x80}},
	}
	for _, tt := range tests {
		got, err := EncodeRune(nil, tt.r)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "U+%04X", tt.r)
	}
}

func TestEncodeRune_Unencodable(t *testing.T) {
	for _, r := range []rune{0xD800, 0xDFFF, 0x110000, -1} {
		dst := []byte("keep")
		got, err := EncodeRune(dst, r)
		var encErr *EncodingError
		require.ErrorAs(t, err, &encErr, "U+%04X", r)
		assert.Equal(t, r, encErr.Rune)
		assert.Equal(t, []byte("keep"), got)
	}
}

func TestRuneEncoder_Encode(t *testing.T) {
	var e RuneEncoder
	got, err := e.Encode([]rune("мягк"))
	require.NoError(t, err)
	assert.Equal(t, "мягк", string(got))

	got, err = e.Encode([]rune("cat"))
	require.NoError(t, err)
	assert.Equal(t, "cat", string(got))

	_, err = e.Encode([]rune{'a', 0xD800})
	assert.Error(t, err)
}
