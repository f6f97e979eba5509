package esg

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/esglens/internal/document"
)

// HasKeyword reports whether line contains a whole-word vocabulary term.
func (v *Vocabulary) HasKeyword(line string) bool {
	return v.keywordRe.MatchString(line)
}

// CandidateSentences returns, in page order, every trimmed line that
// contains a keyword and is longer than the minimum sentence length.
func (v *Vocabulary) CandidateSentences(pages []document.Page) []document.Sentence {
	var out []document.Sentence
	for _, p := range pages {
		for _, line := range p.Lines {
			text := strings.TrimSpace(line)
			if utf8.RuneCountInString(text) <= v.minSentence {
				continue
			}
			if !v.HasKeyword(text) {
				continue
			}
			out = append(out, document.Sentence{Page: p.Number, Text: text})
		}
	}
	return out
}
