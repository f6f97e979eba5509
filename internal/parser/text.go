package parser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/esglens/internal/document"
)

// TextParser handles plain text files. A form feed starts a new page.
type TextParser struct{}

func (p *TextParser) Parse(ctx context.Context, path string) ([]document.Page, error) {
	return parseFile(path, p.parse)
}

func (p *TextParser) parse(r io.Reader) ([]document.Page, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	pages := []document.Page{{Number: 1}}
	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), "\f")
		for i, part := range parts {
			if i > 0 {
				pages = append(pages, document.Page{Number: len(pages) + 1})
			}
			if strings.TrimSpace(part) == "" {
				continue
			}
			cur := &pages[len(pages)-1]
			cur.Lines = append(cur.Lines, normalizeLine(part))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return pages, nil
}

// parseFile opens path and hands it to parse. Blank output is reported as
// ErrExtraction.
func parseFile(path string, parse func(io.Reader) ([]document.Page, error)) ([]document.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer f.Close()

	pages, err := parse(f)
	if err != nil {
		return nil, err
	}
	if document.IsBlank(pages) {
		return nil, fmt.Errorf("%w: %s", ErrExtraction, path)
	}
	return pages, nil
}
