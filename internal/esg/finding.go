package esg

import "sort"

// UncategorizedCategory holds framework matches without a configured category.
const UncategorizedCategory = "Uncategorized"

// Finding is one recorded mention of an initiative.
type Finding struct {
	Page          int    `json:"page"`
	Section       string `json:"section,omitempty"`
	Evidence      string `json:"evidence"`
	HighlightText string `json:"highlight_text,omitempty"`
}

// ByFramework maps a framework name to its findings in scan order.
type ByFramework map[string][]Finding

// Group files each framework's findings under its configured category.
func (b ByFramework) Group(v *Vocabulary) Grouped {
	g := Grouped{}
	for name, findings := range b {
		for _, f := range findings {
			g.Add(v.CategoryOf(name), name, f)
		}
	}
	return g
}

// Grouped maps category → initiative → findings in scan order.
type Grouped map[string]map[string][]Finding

// Add appends a finding under (category, initiative).
func (g Grouped) Add(category, initiative string, f Finding) {
	inner, ok := g[category]
	if !ok {
		inner = map[string][]Finding{}
		g[category] = inner
	}
	inner[initiative] = append(inner[initiative], f)
}

// Merge appends every finding of other into g.
func (g Grouped) Merge(other Grouped) {
	for _, category := range sortedKeys(other) {
		inner := other[category]
		names := make([]string, 0, len(inner))
		for name := range inner {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, f := range inner[name] {
				g.Add(category, name, f)
			}
		}
	}
}

// Mentions counts leaf-level findings.
func (g Grouped) Mentions() int {
	n := 0
	for _, inner := range g {
		for _, findings := range inner {
			n += len(findings)
		}
	}
	return n
}

// Initiatives flattens the categories into initiative → findings.
// An initiative filed under several categories has its lists concatenated
// in category name order.
func (g Grouped) Initiatives() map[string][]Finding {
	out := map[string][]Finding{}
	for _, category := range sortedKeys(g) {
		for name, findings := range g[category] {
			out[name] = append(out[name], findings...)
		}
	}
	return out
}

func sortedKeys(g Grouped) []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
