package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/esglens/internal/classify"
	"github.com/dgallion1/esglens/internal/config"
	"github.com/dgallion1/esglens/internal/esg"
	"github.com/dgallion1/esglens/internal/llm"
	"github.com/dgallion1/esglens/internal/parser"
	"github.com/dgallion1/esglens/internal/report"
)

const reportText = "Annual Report 2024\n" +
	"Environmental Goals\n" +
	"We have committed to the Science Based Targets initiative (SBTi) this year.\f" +
	"Governance\n" +
	"Our disclosures follow the GRI Standards and are reviewed annually.\n"

type fakeGenerator struct {
	out   string
	err   error
	calls int
}

func (f *fakeGenerator) Generate(context.Context, llm.Request) (string, error) {
	f.calls++
	return f.out, f.err
}
func (f *fakeGenerator) Model() string { return "fake" }
func (f *fakeGenerator) Close()        {}

func writeReport(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newAnalyzer(t *testing.T, strategy string, gen llm.Generator) *Analyzer {
	t.Helper()
	var c *classify.Classifier
	if gen != nil {
		c = classify.New(gen, esg.Default(), nil)
	}
	a, err := New(Options{Strategy: strategy, Classifier: c})
	if err != nil {
		t.Fatalf("new analyzer: %v", err)
	}
	return a
}

func TestAnalyze_Regex(t *testing.T) {
	a := newAnalyzer(t, config.StrategyRegex, nil)
	res, err := a.Analyze(context.Background(), writeReport(t, "acme.txt", reportText), "acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalMentions != 2 || res.Score != 2 || res.Grade != report.GradeC {
		t.Fatalf("unexpected result %+v", res)
	}
	sbti := res.Findings["Key Environmental & Climate Initiatives"]["Science Based Targets initiative (SBTi)"]
	if len(sbti) != 1 || sbti[0].Page != 1 || sbti[0].Section != "Environmental Goals" {
		t.Errorf("unexpected SBTi findings %+v", sbti)
	}
	gri := res.Findings["Key Global ESG Reporting Frameworks & Standards"]["Global Reporting Initiative (GRI)"]
	if len(gri) != 1 || gri[0].Page != 2 || gri[0].Section != "Governance" {
		t.Errorf("unexpected GRI findings %+v", gri)
	}
	if res.Metadata["pages"] != 2 || res.Metadata["strategy"] != config.StrategyRegex {
		t.Errorf("unexpected metadata %+v", res.Metadata)
	}
}

func TestAnalyze_LLM(t *testing.T) {
	gen := &fakeGenerator{out: `[{"initiative": "Global Reporting Initiative (GRI)", "category": "Key Global ESG Reporting Frameworks & Standards", "page": 2, "evidence_sentence": "Our disclosures follow the GRI Standards and are reviewed annually."}]`}
	a := newAnalyzer(t, config.StrategyLLM, gen)

	res, err := a.Analyze(context.Background(), writeReport(t, "acme.txt", reportText), "acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.calls != 1 {
		t.Errorf("expected one model call, got %d", gen.calls)
	}
	if res.TotalMentions != 1 {
		t.Errorf("expected 1 mention, got %d", res.TotalMentions)
	}
}

func TestAnalyze_BothMerges(t *testing.T) {
	gen := &fakeGenerator{out: `[{"initiative": "CDP", "category": "Key Environmental & Climate Initiatives", "page": 1, "evidence_sentence": "x"}]`}
	a := newAnalyzer(t, config.StrategyBoth, gen)

	res, err := a.Analyze(context.Background(), writeReport(t, "acme.txt", reportText), "acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalMentions != 3 {
		t.Errorf("expected 2 regex + 1 model mentions, got %d", res.TotalMentions)
	}
}

func TestAnalyze_BothMarkdownMatchesResult(t *testing.T) {
	gen := &fakeGenerator{out: `[
  {"initiative": "Carbon Disclosure Project (CDP)", "category": "Key Environmental & Climate Initiatives", "page": 1, "evidence_sentence": "We respond to CDP."},
  {"initiative": "Carbon Disclosure Project (CDP)", "category": "Key Global ESG Reporting Frameworks & Standards", "page": "2", "evidence_sentence": "CDP score A-."}
]`}
	a := newAnalyzer(t, config.StrategyBoth, gen)

	res, err := a.Analyze(context.Background(), writeReport(t, "acme.txt", reportText), "acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalMentions != 4 || res.Score != 4 || res.Grade != report.GradeC {
		t.Fatalf("expected 2 regex + 2 model mentions, got %+v", res)
	}
	if want := fmt.Sprintf("**%d (Grade: %s)**", res.Score, res.Grade); !strings.Contains(res.Markdown, want) {
		t.Errorf("markdown missing %q:\n%s", want, res.Markdown)
	}
	if want := fmt.Sprintf("| ✅ **Total ESG Mentions** | **%d** |", res.TotalMentions); !strings.Contains(res.Markdown, want) {
		t.Errorf("markdown missing %q:\n%s", want, res.Markdown)
	}
	if res.Markdown != report.Markdown("acme", res.Findings) {
		t.Error("stored markdown differs from a fresh render of the findings")
	}
}

func TestAnalyze_RegexOnPDFTagsSections(t *testing.T) {
	a := newAnalyzer(t, config.StrategyRegex, nil)
	path := filepath.Join("..", "parser", "testdata", "climate_report.pdf")

	res, err := a.Analyze(context.Background(), path, "climate_report")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalMentions != 2 || res.Metadata["pages"] != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	sbti := res.Findings["Key Environmental & Climate Initiatives"]["Science Based Targets initiative (SBTi)"]
	if len(sbti) != 1 || sbti[0].Page != 1 || sbti[0].Section != "Climate Action" || sbti[0].HighlightText != "SBTi" {
		t.Errorf("unexpected SBTi findings %+v", sbti)
	}
	gri := res.Findings["Key Global ESG Reporting Frameworks & Standards"]["Global Reporting Initiative (GRI)"]
	if len(gri) != 1 || gri[0].Page != 2 || gri[0].Section != "Governance" {
		t.Errorf("unexpected GRI findings %+v", gri)
	}
}

func TestAnalyze_ClassifierFailureIsNotFatal(t *testing.T) {
	gen := &fakeGenerator{err: &llm.ServiceError{Provider: "gemini", StatusCode: 503}}
	a := newAnalyzer(t, config.StrategyLLM, gen)

	res, err := a.Analyze(context.Background(), writeReport(t, "acme.txt", reportText), "acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalMentions != 0 || res.Grade != report.GradeC {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestAnalyze_NoCandidatesSkipsModel(t *testing.T) {
	gen := &fakeGenerator{out: "[]"}
	a := newAnalyzer(t, config.StrategyLLM, gen)

	_, err := a.Analyze(context.Background(), writeReport(t, "plain.txt", "Nothing relevant in this document whatsoever.\n"), "plain")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("expected no model call, got %d", gen.calls)
	}
}

func TestAnalyze_ExtractionErrors(t *testing.T) {
	a := newAnalyzer(t, config.StrategyRegex, nil)
	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing", filepath.Join(t.TempDir(), "gone.txt"), parser.ErrIO},
		{"blank", writeReport(t, "blank.txt", "\n \n"), parser.ErrExtraction},
		{"unsupported", writeReport(t, "pic.png", "x"), parser.ErrUnsupported},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := a.Analyze(context.Background(), tc.path, "x")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestNew_AutoStrategy(t *testing.T) {
	if s := newAnalyzer(t, config.StrategyAuto, nil).Strategy(); s != config.StrategyRegex {
		t.Errorf("expected regex without a classifier, got %q", s)
	}
	if s := newAnalyzer(t, config.StrategyAuto, &fakeGenerator{}).Strategy(); s != config.StrategyLLM {
		t.Errorf("expected llm with a classifier, got %q", s)
	}
	if _, err := New(Options{Strategy: "magic"}); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
