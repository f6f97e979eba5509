package parser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dgallion1/esglens/internal/document"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. It reads the embedded text layer with the Go
// library first, then tries pdftotext when the library cannot read the file,
// and finally falls back to OCR when no text was found.
type PDFParser struct {
	Pdftotext *Pdftotext // nil skips the pdftotext tier
	OCR       *OCR       // nil disables OCR
	Log       *slog.Logger
}

func (p *PDFParser) Parse(ctx context.Context, path string) ([]document.Page, error) {
	log := p.Log
	if log == nil {
		log = slog.Default()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	pages, directErr := extractPDFText(path)
	if directErr == nil && !document.IsBlank(pages) {
		return pages, nil
	}

	if directErr != nil && p.Pdftotext != nil {
		log.Warn("pdf reader failed, trying pdftotext", "path", path, "error", directErr)
		alt, err := p.Pdftotext.Pages(ctx, path)
		switch {
		case err != nil:
			log.Warn("pdftotext failed", "path", path, "error", err)
		case !document.IsBlank(alt):
			return alt, nil
		default:
			// Readable, but without a text layer.
			pages, directErr = alt, nil
		}
	}

	if p.OCR == nil {
		if directErr != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrIO, path, directErr)
		}
		return nil, fmt.Errorf("%w: no embedded text and ocr is disabled", ErrExtraction)
	}

	if directErr != nil {
		log.Warn("pdf text layer unreadable, trying ocr", "path", path, "error", directErr)
	} else {
		log.Info("pdf has no text layer, falling back to ocr", "path", path, "pages", len(pages))
	}
	return p.OCR.Pages(ctx, path)
}

func extractPDFText(path string) (pages []document.Page, err error) {
	// ledongthuc/pdf panics on some malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader: %v", r)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages = make([]document.Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		pg := document.Page{Number: i}
		page := reader.Page(i)
		if !page.V.IsNull() {
			pg.Lines = pageLines(page)
		}
		pages = append(pages, pg)
	}
	return pages, nil
}

// pageLines returns the page text one visual row per line. Row grouping is
// only trusted when it finds more than one row: text set with TL/T* line
// advances carries no positions and collapses into a single row, which the
// plain text extraction splits correctly.
func pageLines(page pdflib.Page) []string {
	rows, err := page.GetTextByRow()
	if err == nil && len(rows) > 1 {
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			lines = append(lines, normalizeLine(joinRow(row.Content)))
		}
		return lines
	}

	text, perr := page.GetPlainText(nil)
	if perr == nil {
		return normalizeLines(document.SplitLines(text))
	}
	if err == nil && len(rows) == 1 {
		return []string{normalizeLine(joinRow(rows[0].Content))}
	}
	return nil
}

// joinRow concatenates the text runs of a row, inserting a space where the
// horizontal gap between runs is wider than a fraction of the font size.
func joinRow(runs []pdflib.Text) string {
	var sb strings.Builder
	var prevEnd float64
	for i, t := range runs {
		if i > 0 && t.X-prevEnd > 0.15*t.FontSize && !strings.HasPrefix(t.S, " ") && !strings.HasSuffix(sb.String(), " ") {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	return sb.String()
}

// Pdftotext extracts the text layer with poppler's pdftotext CLI, which
// copes with files the Go reader rejects.
type Pdftotext struct {
	Runner Runner
	Bin    string // default "pdftotext"
}

// Pages runs `pdftotext -layout <path> -` and splits its output into pages
// on form feeds.
func (p *Pdftotext) Pages(ctx context.Context, path string) ([]document.Page, error) {
	bin := p.Bin
	if bin == "" {
		bin = "pdftotext"
	}
	out, errb, err := p.Runner.Run(ctx, bin, "-layout", path, "-")
	if err != nil {
		return nil, fmt.Errorf("%w: pdftotext: %v: %s", ErrIO, err, strings.TrimSpace(string(errb)))
	}
	return splitPages(string(out)), nil
}

// splitPages turns form-feed separated text into numbered pages. pdftotext
// ends every page, including the last, with a form feed.
func splitPages(text string) []document.Page {
	parts := strings.Split(text, "\f")
	if len(parts) > 1 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	pages := make([]document.Page, 0, len(parts))
	for i, part := range parts {
		pages = append(pages, document.Page{
			Number: i + 1,
			Lines:  normalizeLines(document.SplitLines(part)),
		})
	}
	return pages
}
