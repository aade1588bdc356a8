// Package cgd reads the CSV statements exported by Caixa Geral de Depósitos
// and turns every account movement into an item amount.
package cgd

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/routable/internal/encoding"
)

var ErrUnknownFormat = errors.New("no matching CGD format found: expected columns for conta, extrato, or cartão")

const dateLayout = "02-01-2006"

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse returns the absolute value of every dated, non-zero movement. Banner
// lines above the header and footer lines below the data are ignored.
func (p *Parser) Parse(r io.Reader) ([]decimal.Decimal, error) {
	utf8r, err := encoding.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detecting encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	profile, cols, headerIdx, ok := detectProfile(rows)
	if !ok {
		return nil, ErrUnknownFormat
	}

	var amounts []decimal.Decimal

	for i, row := range rows[headerIdx+1:] {
		if !isMovement(row, cols[profile.DateCol]) {
			continue
		}

		amount, found, err := movementAmount(profile, cols, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", headerIdx+i+2, err)
		}

		if found {
			amounts = append(amounts, amount)
		}
	}

	return amounts, nil
}

type colIndex map[string]int

func detectProfile(rows [][]string) (Profile, colIndex, int, bool) {
	for rowIdx, row := range rows {
		cols := make(colIndex, len(row))

		for i, cell := range row {
			if name := strings.TrimSpace(cell); name != "" {
				cols[name] = i
			}
		}

		for _, p := range profiles {
			if cols.has(p.requiredCols()...) {
				return p, cols, rowIdx, true
			}
		}
	}

	return Profile{}, nil, 0, false
}

func (c colIndex) has(names ...string) bool {
	for _, name := range names {
		if _, ok := c[name]; !ok {
			return false
		}
	}

	return true
}

// Footer and pagination rows carry no parseable date.
func isMovement(row []string, dateIdx int) bool {
	_, err := time.Parse(dateLayout, cellValue(row, dateIdx))
	return err == nil
}

func movementAmount(p Profile, cols colIndex, row []string) (decimal.Decimal, bool, error) {
	var candidates []string

	switch p.AmountMode {
	case amountSingle:
		candidates = []string{cellValue(row, cols[p.AmountCol])}
	case amountSplit:
		candidates = []string{cellValue(row, cols[p.DebitCol]), cellValue(row, cols[p.CreditCol])}
	}

	for _, s := range candidates {
		if s == "" {
			continue
		}

		d, err := parseEuropeanAmount(s)
		if err != nil {
			return decimal.Decimal{}, false, fmt.Errorf("invalid amount %q: %w", s, err)
		}

		if !d.IsZero() {
			return d.Abs(), true, nil
		}
	}

	return decimal.Decimal{}, false, nil
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
