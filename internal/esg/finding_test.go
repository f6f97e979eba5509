package esg

import "testing"

func TestByFramework_Group(t *testing.T) {
	v := Default()
	b := ByFramework{
		"Global Reporting Initiative (GRI)": {{Page: 1, Evidence: "a"}, {Page: 2, Evidence: "b"}},
		"Net Zero":                          {{Page: 3, Evidence: "c"}},
		"Custom Thing":                      {{Page: 4, Evidence: "d"}},
	}

	g := b.Group(v)
	gri := g["Key Global ESG Reporting Frameworks & Standards"]["Global Reporting Initiative (GRI)"]
	if len(gri) != 2 || gri[0].Evidence != "a" || gri[1].Evidence != "b" {
		t.Errorf("expected GRI findings in order, got %+v", gri)
	}
	if len(g["Key Environmental & Climate Initiatives"]["Net Zero"]) != 1 {
		t.Errorf("expected Net Zero under climate initiatives, got %+v", g)
	}
	if len(g[UncategorizedCategory]["Custom Thing"]) != 1 {
		t.Errorf("expected unknown framework to be uncategorized, got %+v", g)
	}
	if g.Mentions() != 4 {
		t.Errorf("expected 4 mentions, got %d", g.Mentions())
	}
}

func TestGrouped_MergeAndInitiatives(t *testing.T) {
	a := Grouped{}
	a.Add("Cat A", "GRI", Finding{Page: 1})
	b := Grouped{}
	b.Add("Cat A", "GRI", Finding{Page: 2})
	b.Add("Cat B", "GRI", Finding{Page: 3})
	b.Add("Cat B", "CDP", Finding{Page: 4})

	a.Merge(b)
	if a.Mentions() != 4 {
		t.Fatalf("expected 4 mentions after merge, got %d", a.Mentions())
	}
	if got := a["Cat A"]["GRI"]; len(got) != 2 || got[0].Page != 1 || got[1].Page != 2 {
		t.Errorf("expected merged list to keep order, got %+v", got)
	}

	flat := a.Initiatives()
	if len(flat) != 2 {
		t.Fatalf("expected 2 initiatives, got %d", len(flat))
	}
	gri := flat["GRI"]
	if len(gri) != 3 || gri[0].Page != 1 || gri[2].Page != 3 {
		t.Errorf("expected GRI findings concatenated by category order, got %+v", gri)
	}
}

func TestGrouped_EmptyMentions(t *testing.T) {
	if (Grouped{}).Mentions() != 0 {
		t.Error("expected zero mentions")
	}
	var g Grouped
	if g.Mentions() != 0 || len(g.Initiatives()) != 0 {
		t.Error("expected nil Grouped to be empty")
	}
}
