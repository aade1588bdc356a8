// Package plain reads a spreadsheet style CSV with an "amount" column.
package plain

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/routable/internal/encoding"
)

var ErrNoAmountColumn = errors.New(`header must contain an "amount" column`)

var delimiters = []rune{';', ',', '\t'}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse reads one amount per data row. The delimiter is taken from the header
// line and blank amount cells are skipped.
func (p *Parser) Parse(r io.Reader) ([]decimal.Decimal, error) {
	utf8r, err := encoding.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detecting encoding: %w", err)
	}

	br := bufio.NewReader(utf8r)

	header, err := br.Peek(br.Size())
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(header)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	if len(rows) == 0 {
		return nil, ErrNoAmountColumn
	}

	col := -1

	for i, name := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(name), "amount") {
			col = i
			break
		}
	}

	if col < 0 {
		return nil, ErrNoAmountColumn
	}

	var amounts []decimal.Decimal

	for i, row := range rows[1:] {
		if col >= len(row) || strings.TrimSpace(row[col]) == "" {
			continue
		}

		d, err := ParseAmount(row[col])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}

		amounts = append(amounts, d)
	}

	return amounts, nil
}

func sniffDelimiter(head []byte) rune {
	line, _, _ := bytes.Cut(head, []byte("\n"))

	best, bestCount := ',', 0

	for _, d := range delimiters {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}

	return best
}

// ParseAmount accepts "1234.56", "1,234.56" and "1.234,56". Whichever of '.'
// and ',' appears last is taken as the decimal separator.
func ParseAmount(s string) (decimal.Decimal, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), " ", "")

	if strings.LastIndex(clean, ",") > strings.LastIndex(clean, ".") {
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	} else {
		clean = strings.ReplaceAll(clean, ",", "")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", s)
	}

	return d, nil
}
