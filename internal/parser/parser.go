package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dgallion1/esglens/internal/document"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrIO means the file could not be opened or parsed.
	ErrIO = errors.New("cannot read document")
	// ErrExtraction means the file was read but no text could be recovered.
	ErrExtraction = errors.New("no extractable text")
	// ErrUnsupported means no parser handles the file extension.
	ErrUnsupported = errors.New("unsupported file type")
)

// Parser converts a document on disk into page-tagged lines.
type Parser interface {
	Parse(ctx context.Context, path string) ([]document.Page, error)
}

// Options configures the parsers returned by ForFile.
type Options struct {
	Pdftotext *Pdftotext // nil skips the pdftotext tier for PDFs
	OCR       *OCR       // nil disables the PDF OCR fallback
	Log       *slog.Logger
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFParser{Pdftotext: opts.Pdftotext, OCR: opts.OCR, Log: log}, nil
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Extract parses the file at path with the parser for its extension.
func Extract(ctx context.Context, path string, opts Options) ([]document.Page, error) {
	p, err := ForFile(path, opts)
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx, path)
}

// normalizeLine folds compatibility characters (ligatures, non-breaking
// spaces, full-width forms) so keyword patterns see plain text.
func normalizeLine(s string) string {
	return norm.NFKC.String(s)
}

func normalizeLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = normalizeLine(l)
	}
	return out
}
