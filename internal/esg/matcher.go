package esg

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/esglens/internal/document"
)

// scan is the accumulator threaded through a document's lines.
type scan struct {
	section string
	found   ByFramework
}

// IsSectionHeader reports whether a trimmed line reads as a section heading:
// short, and containing one of the section keywords.
func (v *Vocabulary) IsSectionHeader(line string) bool {
	if utf8.RuneCountInString(line) >= v.maxHeader {
		return false
	}
	lower := strings.ToLower(line)
	for _, h := range v.sectionHeaders {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

// MatchFrameworks scans every line in page order and records at most one
// finding per framework per line, tagged with the section in effect.
func (v *Vocabulary) MatchFrameworks(pages []document.Page) ByFramework {
	s := scan{section: v.defaultSection, found: ByFramework{}}
	for _, p := range pages {
		for _, line := range p.Lines {
			s = v.step(s, p.Number, line)
		}
	}
	return s.found
}

// MatchSentences runs the matcher over already-filtered candidate sentences.
func (v *Vocabulary) MatchSentences(sentences []document.Sentence) ByFramework {
	s := scan{section: v.defaultSection, found: ByFramework{}}
	for _, sent := range sentences {
		s = v.step(s, sent.Page, sent.Text)
	}
	return s.found
}

func (v *Vocabulary) step(s scan, page int, raw string) scan {
	line := strings.TrimSpace(raw)
	if line == "" {
		return s
	}
	if v.IsSectionHeader(line) {
		s.section = line
		return s
	}
	for _, fw := range v.frameworks {
		hit, ok := fw.find(line)
		if !ok {
			continue
		}
		s.found[fw.Name] = append(s.found[fw.Name], Finding{
			Page:          page,
			Section:       s.section,
			Evidence:      line,
			HighlightText: hit,
		})
	}
	return s
}
