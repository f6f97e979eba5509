package parser

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dgallion1/esglens/internal/document"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Word documents carry no fixed pagination,
// so every paragraph lands on page 1.
type DOCXParser struct{}

func (p *DOCXParser) Parse(ctx context.Context, path string) ([]document.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: parse docx: %v", ErrIO, err)
	}

	page := document.Page{Number: 1}
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			if t := docxParagraphText(it); t != "" {
				page.Lines = append(page.Lines, normalizeLine(t))
			}
		case *docx.Table:
			for _, row := range it.TableRows {
				var cells []string
				for _, cell := range row.TableCells {
					for _, para := range cell.Paragraphs {
						if t := docxParagraphText(para); t != "" {
							cells = append(cells, t)
						}
					}
				}
				if len(cells) > 0 {
					page.Lines = append(page.Lines, normalizeLine(strings.Join(cells, ", ")))
				}
			}
		}
	}

	pages := []document.Page{page}
	if document.IsBlank(pages) {
		return nil, fmt.Errorf("%w: %s", ErrExtraction, path)
	}
	return pages, nil
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
