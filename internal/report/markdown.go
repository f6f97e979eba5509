package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dgallion1/esglens/internal/esg"
)

// NoFindingsMessage replaces the breakdown when nothing was detected.
const NoFindingsMessage = "No specific ESG framework mentions were detected in the document."

const (
	maxExamples    = 2
	maxExcerptRune = 150
)

type frameworkSummary struct {
	name     string
	findings []esg.Finding
}

// Markdown renders the report: a title, an executive summary table and a
// per-framework breakdown ordered by mention count, then name.
func Markdown(company string, findings esg.Grouped) string {
	total := TotalMentions(findings)
	score := Score(total)
	grade := GradeFor(score)
	frameworks := rankFrameworks(findings)

	var b strings.Builder
	fmt.Fprintf(&b, "### 📊 ESG Analysis: **%s.pdf**\n", company)
	b.WriteString("\nHere is a summary of the ESG analysis, designed for clarity and quick insights.\n")
	b.WriteString("\n---\n\n")

	b.WriteString("### **Executive Summary**\n")
	b.WriteString("\n| Metric | Result |\n")
	b.WriteString("| :--- | :--- |\n")
	fmt.Fprintf(&b, "| 🏆 **Overall ESG Score** | **%d (Grade: %s)** |\n", score, grade)
	fmt.Fprintf(&b, "| ✅ **Total ESG Mentions** | **%d** |\n", total)
	fmt.Fprintf(&b, "| 🔎 **Frameworks Detected** | **%d** |\n", len(frameworks))
	b.WriteString("\n---\n\n")

	b.WriteString("### **Detailed Framework Breakdown**\n")
	if len(frameworks) == 0 {
		b.WriteString(NoFindingsMessage)
		return b.String()
	}

	for i, fw := range frameworks {
		fmt.Fprintf(&b, "\n#### **%d. %s**\n", i+1, fw.name)
		fmt.Fprintf(&b, "*   **Total Mentions:** %d\n", len(fw.findings))
		fmt.Fprintf(&b, "*   **Unique Sections:** %d\n", uniqueSections(fw.findings))
		b.WriteString("*   **Example Evidence:**\n")
		for _, f := range fw.findings[:min(maxExamples, len(fw.findings))] {
			fmt.Fprintf(&b, "    *   *\"...%s...\"*\n", excerpt(f.Evidence))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func rankFrameworks(findings esg.Grouped) []frameworkSummary {
	byName := findings.Initiatives()
	out := make([]frameworkSummary, 0, len(byName))
	for name, fs := range byName {
		if len(fs) > 0 {
			out = append(out, frameworkSummary{name: name, findings: fs})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].findings) != len(out[j].findings) {
			return len(out[i].findings) > len(out[j].findings)
		}
		return out[i].name < out[j].name
	})
	return out
}

// uniqueSections counts distinct section names; findings without a section
// share one bucket.
func uniqueSections(findings []esg.Finding) int {
	seen := map[string]struct{}{}
	for _, f := range findings {
		seen[f.Section] = struct{}{}
	}
	return len(seen)
}

func excerpt(s string) string {
	r := []rune(s)
	if len(r) <= maxExcerptRune {
		return s
	}
	return string(r[:maxExcerptRune]) + "..."
}
