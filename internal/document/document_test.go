package document

import "testing"

func TestSplitLines(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a\nb", []string{"a", "b"}},
		{"a\r\nb\rc", []string{"a", "b", "c"}},
		{"", []string{""}},
	}
	for _, tc := range tests {
		got := SplitLines(tc.in)
		if len(got) != len(tc.want) {
			t.Errorf("SplitLines(%q): expected %q, got %q", tc.in, tc.want, got)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("SplitLines(%q)[%d]: expected %q, got %q", tc.in, i, tc.want[i], got[i])
			}
		}
	}
}

func TestTextAndIsBlank(t *testing.T) {
	pages := []Page{
		{Number: 1, Lines: []string{"one", "two"}},
		{Number: 2, Lines: []string{"three"}},
	}
	if got := Text(pages); got != "one\ntwo\nthree\n" {
		t.Errorf("unexpected text %q", got)
	}
	if IsBlank(pages) {
		t.Error("expected non-blank pages")
	}
	if !IsBlank([]Page{{Number: 1, Lines: []string{"  ", "\t"}}}) {
		t.Error("expected whitespace-only pages to be blank")
	}
	if !IsBlank(nil) {
		t.Error("expected nil pages to be blank")
	}
}
