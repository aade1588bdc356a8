package importer

import (
	"io"

	"github.com/shopspring/decimal"
)

type Format string

const (
	FormatCSV Format = "csv"
	FormatCGD Format = "cgd"
)

// Importer extracts item amounts from an uploaded file.
type Importer interface {
	Parse(r io.Reader) ([]decimal.Decimal, error)
}
