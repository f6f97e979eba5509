// Package uploads stores uploaded reports on disk under collision-free names.
package uploads

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// URLPrefix is where stored files are served.
const URLPrefix = "/static/uploads/"

// Upload describes one stored file.
type Upload struct {
	Original string // client-supplied file name
	Name     string // stored base name: <uuid hex>_<sanitized original>
	Path     string
	URL      string
	Size     int64
}

// Store writes uploads into a single directory.
type Store struct {
	dir string
}

// New creates dir if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string { return s.dir }

// Save copies r to a new file named after original. A partially written
// file is removed on error.
func (s *Store) Save(original string, r io.Reader) (Upload, error) {
	name := uuid.New().String()
	name = strings.ReplaceAll(name, "-", "") + "_" + SanitizeName(original)
	dst := filepath.Join(s.dir, name)

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Upload{}, fmt.Errorf("create upload: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return Upload{}, fmt.Errorf("write upload: %w", err)
	}
	return Upload{
		Original: original,
		Name:     name,
		Path:     dst,
		URL:      URLPrefix + name,
		Size:     n,
	}, nil
}

// SanitizeName reduces a client file name to a safe base name: directory
// parts are dropped and anything outside letters, digits, '.', '-' and '_'
// becomes '_'.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		return "upload"
	}
	return out
}

// CompanyName derives the display name from an uploaded file name by
// dropping its extension.
func CompanyName(original string) string {
	base := path.Base(strings.ReplaceAll(original, `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
