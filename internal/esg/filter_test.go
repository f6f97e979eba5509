package esg

import (
	"testing"

	"github.com/dgallion1/esglens/internal/document"
)

func TestCandidateSentences_LengthThreshold(t *testing.T) {
	v := Default()
	pages := []document.Page{{Number: 1, Lines: []string{
		"GRI index",             // keyword, too short
		"GRI standards used!!",  // exactly 20 chars: excluded
		"GRI standards used!!!", // 21 chars: kept
		"   GRI standards used!!   ",
	}}}

	got := v.CandidateSentences(pages)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %+v", len(got), got)
	}
	if got[0].Text != "GRI standards used!!!" {
		t.Errorf("unexpected candidate %q", got[0].Text)
	}
}

func TestCandidateSentences_WholeWordCaseInsensitive(t *testing.T) {
	v := Default()
	pages := []document.Page{{Number: 2, Lines: []string{
		"The GRIND of daily work goes on and on",
		"our SUSTAINABILITY report covers many topics",
		"We are on track for net-zero operations by 2035",
		"Investments reviewed by B Corp assessors annually",
	}}}

	got := v.CandidateSentences(pages)
	want := []string{
		"our SUSTAINABILITY report covers many topics",
		"We are on track for net-zero operations by 2035",
		"Investments reviewed by B Corp assessors annually",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d candidates, got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].Text != w || got[i].Page != 2 {
			t.Errorf("candidate[%d]: expected %q on page 2, got %+v", i, w, got[i])
		}
	}
}

func TestCandidateSentences_TrimsAndKeepsPageOrder(t *testing.T) {
	v := Default()
	pages := []document.Page{
		{Number: 1, Lines: []string{"  Scope 3 emissions fell by twelve percent.  "}},
		{Number: 2, Lines: []string{"Nothing relevant is written on this line."}},
		{Number: 3, Lines: []string{"Board oversight of governance risks is quarterly."}},
	}

	got := v.CandidateSentences(pages)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(got), got)
	}
	if got[0].Page != 1 || got[0].Text != "Scope 3 emissions fell by twelve percent." {
		t.Errorf("unexpected first candidate %+v", got[0])
	}
	if got[1].Page != 3 {
		t.Errorf("expected second candidate on page 3, got %d", got[1].Page)
	}
}

func TestCandidateSentences_Deterministic(t *testing.T) {
	v := Default()
	pages := []document.Page{{Number: 1, Lines: []string{
		"Climate risk is reviewed by the audit committee.",
		"Diversity and inclusion targets apply to all sites.",
	}}}
	a := v.CandidateSentences(pages)
	b := v.CandidateSentences(pages)
	if len(a) != len(b) {
		t.Fatalf("length differs between runs: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("candidate[%d] differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestCandidateSentences_Empty(t *testing.T) {
	if got := Default().CandidateSentences(nil); len(got) != 0 {
		t.Errorf("expected no candidates, got %+v", got)
	}
}
