package parser

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/esglens/internal/document"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec. A failed command's error carries
// the last line of its stderr.
type ExecRunner struct {
	Log *slog.Logger
}

func (r ExecRunner) logger() *slog.Logger {
	if r.Log == nil {
		return slog.Default()
	}
	return r.Log
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	attrs := []any{"cmd", name, "args", len(args), "duration_ms", time.Since(start).Milliseconds()}
	if err != nil {
		if last := lastLine(stderr.String()); last != "" {
			err = fmt.Errorf("%w (%s)", err, last)
		}
		r.logger().Warn("command failed", append(attrs, "error", err)...)
		return stdout.Bytes(), stderr.Bytes(), err
	}
	r.logger().Debug("command ok", append(attrs, "stdout_bytes", stdout.Len())...)
	return stdout.Bytes(), stderr.Bytes(), nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

// Recognizer turns a rendered page image into text.
type Recognizer interface {
	RecognizeImage(ctx context.Context, imagePath string) (string, error)
}

// TesseractRecognizer shells out to the tesseract CLI.
type TesseractRecognizer struct {
	Runner Runner
	Bin    string // default "tesseract"
	Lang   string // default "eng"
}

func (t *TesseractRecognizer) RecognizeImage(ctx context.Context, imagePath string) (string, error) {
	bin := t.Bin
	if bin == "" {
		bin = "tesseract"
	}
	lang := t.Lang
	if lang == "" {
		lang = "eng"
	}
	// tesseract <file> stdout -l <lang>
	out, errb, err := t.Runner.Run(ctx, bin, imagePath, "stdout", "-l", lang)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(string(errb)))
	}
	return string(out), nil
}

// OCR rasterizes PDF pages with pdftoppm and recognizes each image.
type OCR struct {
	Runner   Runner
	Engine   Recognizer
	Pdftoppm string // default "pdftoppm"
	DPI      int    // default 300
	MaxPages int    // 0 = no limit
	Log      *slog.Logger
}

// Pages returns one Page per rendered image, numbered by the source page.
func (o *OCR) Pages(ctx context.Context, path string) ([]document.Page, error) {
	log := o.Log
	if log == nil {
		log = slog.Default()
	}
	bin := o.Pdftoppm
	if bin == "" {
		bin = "pdftoppm"
	}
	dpi := o.DPI
	if dpi <= 0 {
		dpi = 300
	}

	want := expectedImages(path, o.MaxPages, log)
	log.Info("ocr starting", "path", path, "pages", want, "max_pages", o.MaxPages, "dpi", dpi)

	tmpDir, err := os.MkdirTemp("", "esglens-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			log.Warn("failed to remove ocr temp dir", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", strconv.Itoa(dpi), "-png"}
	if o.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(o.MaxPages))
	}
	args = append(args, path, prefix)
	if _, errb, err := o.Runner.Run(ctx, bin, args...); err != nil {
		return nil, fmt.Errorf("%w: pdftoppm: %v: %s", ErrIO, err, strings.TrimSpace(string(errb)))
	}

	images, err := renderedPages(prefix)
	if err != nil {
		return nil, err
	}
	if want > 0 && len(images) != want {
		return nil, fmt.Errorf("%w: pdftoppm rendered %d of %d pages", ErrIO, len(images), want)
	}

	pages := make([]document.Page, 0, len(images))
	failed := 0
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := o.Engine.RecognizeImage(ctx, img.path)
		if err != nil {
			failed++
			log.Warn("ocr page failed", "page", img.number, "error", err)
			pages = append(pages, document.Page{Number: img.number})
			continue
		}
		pages = append(pages, document.Page{
			Number: img.number,
			Lines:  normalizeLines(document.SplitLines(text)),
		})
	}
	if failed == len(images) {
		return nil, fmt.Errorf("%w: ocr failed on all %d pages", ErrExtraction, failed)
	}
	if document.IsBlank(pages) {
		return nil, fmt.Errorf("%w: ocr recognized no text", ErrExtraction)
	}
	log.Info("ocr complete", "path", path, "pages", len(pages), "failed", failed)
	return pages, nil
}

// expectedImages is the number of page images pdftoppm should produce, or
// 0 when pdfcpu cannot read the page tree.
func expectedImages(path string, maxPages int, log *slog.Logger) int {
	n, err := api.PageCountFile(path)
	if err != nil {
		log.Warn("pdf page count unavailable", "path", path, "error", err)
		return 0
	}
	if maxPages > 0 && maxPages < n {
		return maxPages
	}
	return n
}

type pageImage struct {
	number int
	path   string
}

// renderedPages collects prefix-N.png files (pdftoppm zero-pads N for
// larger documents) sorted by page number.
func renderedPages(prefix string) ([]pageImage, error) {
	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	images := make([]pageImage, 0, len(matches))
	for _, m := range matches {
		base := strings.TrimSuffix(filepath.Base(m), ".png")
		idx := strings.LastIndexByte(base, '-')
		n, err := strconv.Atoi(base[idx+1:])
		if err != nil {
			continue
		}
		images = append(images, pageImage{number: n, path: m})
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: pdftoppm produced no images", ErrExtraction)
	}
	sort.Slice(images, func(i, j int) bool { return images[i].number < images[j].number })
	return images, nil
}
