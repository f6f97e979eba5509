package esg

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

//go:embed vocabulary.toml
var defaultVocabulary []byte

// Framework is a named initiative and the patterns that detect it.
type Framework struct {
	Name     string
	Category string
	Patterns []*regexp.Regexp
}

// find returns the text matched by the first pattern that hits, in declared order.
func (f Framework) find(line string) (string, bool) {
	for _, re := range f.Patterns {
		if loc := re.FindStringIndex(line); loc != nil {
			return line[loc[0]:loc[1]], true
		}
	}
	return "", false
}

// Vocabulary is the static detection configuration: keyword filter,
// framework patterns, section headers and the classifier taxonomy.
// It is never mutated after construction and is safe for concurrent use.
type Vocabulary struct {
	keywords       []string
	keywordRe      *regexp.Regexp
	sectionHeaders []string
	categories     []string
	frameworks     []Framework
	categoryOf     map[string]string

	defaultSection string
	minSentence    int
	maxHeader      int
}

type vocabularyFile struct {
	DefaultSection    string          `toml:"default_section"`
	MinSentenceLength int             `toml:"min_sentence_length"`
	MaxHeaderLength   int             `toml:"max_header_length"`
	Keywords          []string        `toml:"keywords"`
	SectionHeaders    []string        `toml:"section_headers"`
	Categories        []string        `toml:"categories"`
	Frameworks        []frameworkFile `toml:"frameworks"`
}

type frameworkFile struct {
	Name     string   `toml:"name"`
	Category string   `toml:"category"`
	Patterns []string `toml:"patterns"`
}

var defaultOnce = sync.OnceValue(func() *Vocabulary {
	v, err := Parse(defaultVocabulary)
	if err != nil {
		panic(fmt.Sprintf("embedded vocabulary: %v", err))
	}
	return v
})

// Default returns the built-in vocabulary.
func Default() *Vocabulary {
	return defaultOnce()
}

// Load reads a vocabulary from a TOML file.
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	v, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// Parse builds a Vocabulary from TOML and compiles every pattern.
func Parse(data []byte) (*Vocabulary, error) {
	var f vocabularyFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}

	if len(f.Keywords) == 0 {
		return nil, fmt.Errorf("vocabulary has no keywords")
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("vocabulary has no categories")
	}

	v := &Vocabulary{
		keywords:       append([]string(nil), f.Keywords...),
		categories:     append([]string(nil), f.Categories...),
		categoryOf:     make(map[string]string, len(f.Frameworks)),
		defaultSection: f.DefaultSection,
		minSentence:    f.MinSentenceLength,
		maxHeader:      f.MaxHeaderLength,
	}
	if v.defaultSection == "" {
		v.defaultSection = "General"
	}
	if v.minSentence <= 0 {
		v.minSentence = 20
	}
	if v.maxHeader <= 0 {
		v.maxHeader = 100
	}

	quoted := make([]string, 0, len(f.Keywords))
	for _, k := range f.Keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			return nil, fmt.Errorf("vocabulary has an empty keyword")
		}
		quoted = append(quoted, regexp.QuoteMeta(k))
	}
	re, err := regexp.Compile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
	if err != nil {
		return nil, fmt.Errorf("compile keyword pattern: %w", err)
	}
	v.keywordRe = re

	for _, h := range f.SectionHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			v.sectionHeaders = append(v.sectionHeaders, h)
		}
	}

	for _, ff := range f.Frameworks {
		if ff.Name == "" {
			return nil, fmt.Errorf("framework with empty name")
		}
		if _, dup := v.categoryOf[ff.Name]; dup {
			return nil, fmt.Errorf("duplicate framework %q", ff.Name)
		}
		if len(ff.Patterns) == 0 {
			return nil, fmt.Errorf("framework %q has no patterns", ff.Name)
		}
		fw := Framework{Name: ff.Name, Category: ff.Category}
		if fw.Category == "" {
			fw.Category = UncategorizedCategory
		}
		for _, p := range ff.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("framework %q: compile %q: %w", ff.Name, p, err)
			}
			fw.Patterns = append(fw.Patterns, re)
		}
		v.frameworks = append(v.frameworks, fw)
		v.categoryOf[fw.Name] = fw.Category
	}

	return v, nil
}

// Keywords returns the keyword filter terms.
func (v *Vocabulary) Keywords() []string { return append([]string(nil), v.keywords...) }

// Categories returns the classifier taxonomy in declared order.
func (v *Vocabulary) Categories() []string { return append([]string(nil), v.categories...) }

// Frameworks returns the framework definitions in declared order.
func (v *Vocabulary) Frameworks() []Framework { return append([]Framework(nil), v.frameworks...) }

// DefaultSection is the section label used before any header is seen.
func (v *Vocabulary) DefaultSection() string { return v.defaultSection }

// CategoryOf returns the configured category of a framework.
func (v *Vocabulary) CategoryOf(framework string) string {
	if c, ok := v.categoryOf[framework]; ok {
		return c
	}
	return UncategorizedCategory
}
