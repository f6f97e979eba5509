package parser

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/esglens/internal/document"
)

// CSVParser handles CSV files. Each data row becomes one line of
// "header: value" pairs so disclosures stored in tables still reach the
// keyword filter with their column context.
type CSVParser struct{}

func (p *CSVParser) Parse(ctx context.Context, path string) ([]document.Page, error) {
	return parseFile(path, p.parse)
}

func (p *CSVParser) parse(r io.Reader) ([]document.Page, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse csv: %v", ErrIO, err)
	}
	page := document.Page{Number: 1}
	if len(records) == 0 {
		return []document.Page{page}, nil
	}

	headers := records[0]
	page.Lines = append(page.Lines, normalizeLine(strings.Join(headers, ", ")))
	for _, row := range records[1:] {
		var line strings.Builder
		for j, cell := range row {
			if strings.TrimSpace(cell) == "" {
				continue
			}
			if line.Len() > 0 {
				line.WriteString(", ")
			}
			if j < len(headers) && headers[j] != "" {
				line.WriteString(headers[j] + ": " + cell)
			} else {
				line.WriteString(cell)
			}
		}
		if line.Len() > 0 {
			page.Lines = append(page.Lines, normalizeLine(line.String()))
		}
	}
	return []document.Page{page}, nil
}
