package uploads

import (
	"errors"
	"os"
	"regexp"
	"strings"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"report.pdf", "report.pdf"},
		{"Acme Corp 2024.pdf", "Acme_Corp_2024.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\esg report.pdf`, "esg_report.pdf"},
		{".hidden.pdf", "hidden.pdf"},
		{"", "upload"},
		{"..", "upload"},
		{"Nestlé.pdf", "Nestlé.pdf"},
	}
	for _, tc := range tests {
		if got := SanitizeName(tc.in); got != tc.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCompanyName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Acme.pdf", "Acme"},
		{"Acme Corp.v2.pdf", "Acme Corp.v2"},
		{"dir/Acme.docx", "Acme"},
		{"Acme", "Acme"},
	}
	for _, tc := range tests {
		if got := CompanyName(tc.in); got != tc.want {
			t.Errorf("CompanyName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

var storedName = regexp.MustCompile(`^[0-9a-f]{32}_Acme_Report.pdf$`)

func TestStore_Save(t *testing.T) {
	s, err := New(t.TempDir() + "/nested/uploads")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	up, err := s.Save("Acme Report.pdf", strings.NewReader("%PDF-1.4 body"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !storedName.MatchString(up.Name) {
		t.Errorf("unexpected stored name %q", up.Name)
	}
	if up.URL != URLPrefix+up.Name {
		t.Errorf("unexpected url %q", up.URL)
	}
	if up.Size != 13 {
		t.Errorf("expected size 13, got %d", up.Size)
	}
	data, err := os.ReadFile(up.Path)
	if err != nil || string(data) != "%PDF-1.4 body" {
		t.Errorf("unexpected file content %q (%v)", data, err)
	}

	again, err := s.Save("Acme Report.pdf", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if again.Name == up.Name {
		t.Error("expected distinct names for repeated uploads")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestStore_SaveRemovesPartialFile(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save("a.pdf", failingReader{}); err == nil {
		t.Fatal("expected error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected partial file to be removed, found %d entries", len(entries))
	}
}
