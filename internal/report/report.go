// Package report scores grouped findings and renders the analysis summary.
package report

import (
	"github.com/dgallion1/esglens/internal/esg"
)

// Grade is the letter band for a score.
type Grade string

const (
	GradeA Grade = "A - Excellent"
	GradeB Grade = "B - Good"
	GradeC Grade = "C - Needs Improvement"
)

const maxScore = 100

// Result is the structured outcome of one analysis.
type Result struct {
	Company       string         `json:"company"`
	Score         int            `json:"score"`
	Grade         Grade          `json:"grade"`
	TotalMentions int            `json:"total_mentions"`
	Findings      esg.Grouped    `json:"findings"`
	Markdown      string         `json:"markdown"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// TotalMentions counts every finding across categories and initiatives.
func TotalMentions(findings esg.Grouped) int {
	return findings.Mentions()
}

// Score awards one point per mention, capped at 100.
func Score(total int) int {
	if total < 0 {
		return 0
	}
	return min(maxScore, total)
}

func GradeFor(score int) Grade {
	switch {
	case score >= 80:
		return GradeA
	case score >= 50:
		return GradeB
	default:
		return GradeC
	}
}

// Build scores findings and renders the Markdown summary for company.
// A nil findings map is treated as empty.
func Build(company string, findings esg.Grouped, meta map[string]any) Result {
	if findings == nil {
		findings = esg.Grouped{}
	}
	total := TotalMentions(findings)
	score := Score(total)
	return Result{
		Company:       company,
		Score:         score,
		Grade:         GradeFor(score),
		TotalMentions: total,
		Findings:      findings,
		Markdown:      Markdown(company, findings),
		Metadata:      meta,
	}
}
