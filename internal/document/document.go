package document

import "strings"

// Page is the text of one source page, split into lines.
type Page struct {
	Number int      // 1-based page number
	Lines  []string // Lines in reading order, untrimmed
}

// Sentence is a candidate line that survived keyword filtering.
type Sentence struct {
	Page int    `json:"page"`
	Text string `json:"sentence"`
}

// Text joins all page lines into a single string.
func Text(pages []Page) string {
	var sb strings.Builder
	for _, p := range pages {
		for _, line := range p.Lines {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// IsBlank reports whether the pages contain no visible text at all.
func IsBlank(pages []Page) bool {
	return strings.TrimSpace(Text(pages)) == ""
}

// SplitLines breaks text into lines, accepting \n, \r\n and \r endings.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}
