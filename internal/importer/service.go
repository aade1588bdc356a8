package importer

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/routable/internal/importer/cgd"
	"github.com/MrJamesThe3rd/routable/internal/importer/plain"
)

type Service struct {
	importers map[Format]Importer
}

func NewService() *Service {
	return &Service{
		importers: map[Format]Importer{
			FormatCSV: plain.NewParser(),
			FormatCGD: cgd.NewParser(),
		},
	}
}

// Import parses r with the importer registered for format. An empty format
// means FormatCSV.
func (s *Service) Import(format Format, r io.Reader) ([]decimal.Decimal, error) {
	if format == "" {
		format = FormatCSV
	}

	imp, ok := s.importers[format]
	if !ok {
		return nil, fmt.Errorf("unknown import format: %s", format)
	}

	return imp.Parse(r)
}
