package classify

// Default breakpoint tables. The reference audit playbooks drifted on exact
// cutoffs; these are the canonical choices for this service (see DESIGN.md).
// Callers may override any of them from configuration.

// DefaultQualityScoreTable splits the vendor 1-10 quality score into the
// low and high bands used for budget-shift analysis: 1-6 low, 7-10 high.
func DefaultQualityScoreTable() *Table {
	t, err := NewTable("quality_score", []Breakpoint{
		{Lower: 1, Label: "Low"},
		{Lower: 7, Label: "High"},
	})
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultQualityScoreBands is the finer four-band distribution table.
func DefaultQualityScoreBands() *Table {
	t, err := NewTable("quality_score_bands", []Breakpoint{
		{Lower: 1, Label: "Poor"},
		{Lower: 4, Label: "Average"},
		{Lower: 7, Label: "Good"},
		{Lower: 9, Label: "Excellent"},
	})
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultCTRTable classifies click-through rate percentages.
func DefaultCTRTable() *Table {
	t, err := NewTable("ctr", []Breakpoint{
		{Lower: 0, Label: "Poor"},
		{Lower: 1, Label: "Average"},
		{Lower: 3, Label: "Good"},
		{Lower: 5, Label: "Excellent"},
	})
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultEfficiencyTable classifies the conversion-share / cost-share ratio.
// A segment converting proportionally to its spend sits near 1.0.
func DefaultEfficiencyTable() *Table {
	t, err := NewTable("efficiency", []Breakpoint{
		{Lower: 0, Label: "Low"},
		{Lower: 0.8, Label: "Balanced"},
		{Lower: 1.2, Label: "High"},
	})
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultAdStrengthTable holds the vendor's ordinal ad strength scale; ad
// strength arrives as a label, so it is resolved with FromLabel rather than
// computed.
func DefaultAdStrengthTable() *Table {
	t, err := NewTable("ad_strength", []Breakpoint{
		{Lower: 0, Label: "Poor"},
		{Lower: 1, Label: "Average"},
		{Lower: 2, Label: "Good"},
		{Lower: 3, Label: "Excellent"},
	})
	if err != nil {
		panic(err)
	}
	return t
}
