// Package encoding turns uploaded files of unknown charset into UTF-8.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	xenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// sniffSize is how much of the input is inspected before choosing a decoder.
const sniffSize = 4096

type Charset string

const (
	CharsetUTF8        Charset = "UTF-8"
	CharsetUTF16LE     Charset = "UTF-16LE"
	CharsetUTF16BE     Charset = "UTF-16BE"
	CharsetWindows1252 Charset = "windows-1252"
	CharsetISO88599    Charset = "ISO-8859-9"
	CharsetISO885915   Charset = "ISO-8859-15"
)

type bom struct {
	prefix  []byte
	charset Charset
	strip   bool
}

var boms = []bom{
	{prefix: []byte{0xEF, 0xBB, 0xBF}, charset: CharsetUTF8, strip: true},
	{prefix: []byte{0xFF, 0xFE}, charset: CharsetUTF16LE},
	{prefix: []byte{0xFE, 0xFF}, charset: CharsetUTF16BE},
}

// chardet names mapped onto the decoders we support. Anything else falls
// back to Windows-1252, which is what spreadsheet exports usually are.
var detected = map[string]Charset{
	"UTF-8":        CharsetUTF8,
	"ISO-8859-1":   CharsetWindows1252,
	"windows-1252": CharsetWindows1252,
	"ISO-8859-9":   CharsetISO88599,
	"ISO-8859-15":  CharsetISO885915,
}

func decoderFor(c Charset) xenc.Encoding {
	switch c {
	case CharsetUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case CharsetUTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	case CharsetISO88599:
		return charmap.ISO8859_9
	case CharsetISO885915:
		return charmap.ISO8859_15
	case CharsetWindows1252:
		return charmap.Windows1252
	}

	return nil
}

// Decode sniffs the start of r and returns a reader yielding UTF-8 together
// with the charset it settled on.
func Decode(r io.Reader) (io.Reader, Charset, error) {
	br := bufio.NewReaderSize(r, sniffSize)

	head, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("peeking input: %w", err)
	}

	charset, skip := sniff(head)
	if skip > 0 {
		_, _ = br.Discard(skip)
	}

	dec := decoderFor(charset)
	if dec == nil {
		return br, charset, nil
	}

	return transform.NewReader(br, dec.NewDecoder()), charset, nil
}

// NewUTF8Reader is Decode without the charset.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	out, _, err := Decode(r)
	return out, err
}

func sniff(head []byte) (Charset, int) {
	for _, b := range boms {
		if !bytes.HasPrefix(head, b.prefix) {
			continue
		}

		if b.strip {
			return b.charset, len(b.prefix)
		}

		return b.charset, 0
	}

	if utf8.Valid(head) {
		return CharsetUTF8, 0
	}

	if res, err := chardet.NewTextDetector().DetectBest(head); err == nil {
		if c, ok := detected[res.Charset]; ok {
			return c, 0
		}
	}

	return CharsetWindows1252, 0
}
