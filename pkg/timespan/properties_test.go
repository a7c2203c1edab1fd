package timespan

import (
	"strings"
	"testing"
)

// Rendering the valid entries of a parse and parsing that rendering
// again lands on the same total.
func TestReparseIdempotence(t *testing.T) {
	t.Parallel()
	g := English()

	inputs := []string{
		"1 day, 5 hours",
		"1d5h30s",
		"two thousand five hundred seconds",
		"12:30:15",
		"half of a day",
		"1.5 weeks and 2 days",
	}
	for _, input := range inputs {
		res, err := g.Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q): %v", input, err)
		}
		parts := make([]string, 0, len(res.Valid))
		for _, v := range res.Valid {
			parts = append(parts, v.String())
		}
		rendered := strings.Join(parts, " ")
		again, err := g.Parse(rendered)
		if err != nil {
			t.Fatalf("Parse(%q) of rendering of %q: %v", rendered, input, err)
		}
		if !almostEqual(again.Seconds, res.Seconds) {
			t.Errorf("%q reparsed as %q: %v seconds, want %v",
				input, rendered, again.Seconds, res.Seconds)
		}
	}
}

// Segment order does not change the total as long as every segment
// carries its own scale.
func TestSegmentOrderCommutes(t *testing.T) {
	t.Parallel()
	g := English()

	pairs := [][2]string{
		{"2 hours 30 minutes", "30 minutes 2 hours"},
		{"1 day 5 hours 10 seconds", "10 seconds 1 day 5 hours"},
		{"1.5 weeks 3 days", "3 days 1.5 weeks"},
	}
	for _, p := range pairs {
		a, err := g.Parse(p[0])
		if err != nil {
			t.Fatalf("Parse(%q): %v", p[0], err)
		}
		b, err := g.Parse(p[1])
		if err != nil {
			t.Fatalf("Parse(%q): %v", p[1], err)
		}
		if !almostEqual(a.Seconds, b.Seconds) {
			t.Errorf("%q = %v but %q = %v", p[0], a.Seconds, p[1], b.Seconds)
		}
	}
}

// With duplicates allowed, repeated scales sum; with duplicates
// rejected, only the first survives and the repeat is flagged.
func TestDuplicateScaleLaw(t *testing.T) {
	t.Parallel()
	g := English()

	res, err := g.Parse("1 hour 2 hours")
	if err != nil {
		t.Fatalf("lenient duplicates: %v", err)
	}
	checkResult(t, res, 10800, []wantValid{{1, "hour"}, {2, "hour"}}, nil)

	st := DefaultSettings()
	st.AllowDuplicateScales = false
	res, err = g.ParseWith("1 hour 2 hours", g.Flags, st)
	if err != nil {
		t.Fatalf("strict duplicates: %v", err)
	}
	checkResult(t, res, 3600,
		[]wantValid{{1, "hour"}},
		[]wantInvalid{{"2 hours", DuplicateScale}})
}
