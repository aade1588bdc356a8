package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/MrJamesThe3rd/routable/internal/encoding"
)

func TestDecode(t *testing.T) {
	const text = "descrição;amount\nCafé;12,50\n"

	latin1, err := charmap.Windows1252.NewEncoder().Bytes([]byte(text))
	require.NoError(t, err)

	utf16le, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(text))
	require.NoError(t, err)

	type testCase struct {
		name    string
		input   []byte
		charset encoding.Charset
	}

	tests := []testCase{
		{
			name:    "plain utf-8 passes through",
			input:   []byte(text),
			charset: encoding.CharsetUTF8,
		},
		{
			name:    "utf-8 bom is stripped",
			input:   append([]byte{0xEF, 0xBB, 0xBF}, text...),
			charset: encoding.CharsetUTF8,
		},
		{
			name:    "utf-16 with bom",
			input:   utf16le,
			charset: encoding.CharsetUTF16LE,
		},
		{
			// chardet may settle on any of the latin single-byte sets.
			name:  "latin-1 without bom",
			input: latin1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, charset, err := encoding.Decode(bytes.NewReader(tc.input))
			require.NoError(t, err)

			got, err := io.ReadAll(r)
			require.NoError(t, err)

			assert.Equal(t, text, string(got))

			if tc.charset != "" {
				assert.Equal(t, tc.charset, charset)
			} else {
				assert.NotEqual(t, encoding.CharsetUTF8, charset)
			}
		})
	}
}

func TestNewUTF8Reader_Empty(t *testing.T) {
	r, err := encoding.NewUTF8Reader(bytes.NewReader(nil))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, got)
}
