package timespan

import "testing"

func TestParseHHMMSSFields(t *testing.T) {
	t.Parallel()
	g := English()

	tests := []struct {
		content string
		want    []float64
		bad     bool
	}{
		{content: "12:30", want: []float64{12, 30}},
		{content: "1:2:3", want: []float64{1, 2, 3}},
		{content: "0:0", want: []float64{0, 0}},
		{content: "1:30.5", want: []float64{1, 30.5}},
		{content: "1:1/2", want: []float64{1, 0.5}},
		{content: "22: 2,455: 5555", want: []float64{22, 2455, 5555}},
		{content: "22:  +2,455: 5555", bad: true},
		{content: "22: 2,455 : 5555", bad: true},
		{content: ":30", bad: true},
		{content: "30:", bad: true},
		{content: "1::2", bad: true},
		{content: "1:abc", bad: true},
		{content: "1:2,34", bad: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.content, func(t *testing.T) {
			t.Parallel()
			got, errs := parseHHMMSS(tt.content, g, DefaultSettings())
			if tt.bad {
				if errs == nil {
					t.Fatalf("parseHHMMSS(%q) = %v, want failure", tt.content, got)
				}
				if len(errs) != 1 || !errs[0].Reason.Has(MalformedHHMMSS) {
					t.Errorf("errs = %v, want one MALFORMED_HHMMSS entry", errs)
				}
				if errs[0].Fragment != tt.content {
					t.Errorf("fragment = %q, want full run %q", errs[0].Fragment, tt.content)
				}
				return
			}
			if errs != nil {
				t.Fatalf("parseHHMMSS(%q): %v", tt.content, errs)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseHHMMSS(%q) = %v, want %v", tt.content, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("field %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestClockLadder(t *testing.T) {
	t.Parallel()
	g := English()

	// One field per enabled scale maps the leftmost field onto the
	// largest scale.
	res, err := g.Parse("1:2:3:4:5:6:7:8:9:10")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.Valid) != 10 {
		t.Fatalf("valid = %v, want 10 entries", res.Valid)
	}
	if res.Valid[0].Scale.Singular != "century" || res.Valid[9].Scale.Singular != "millisecond" {
		t.Errorf("ladder ends = %s .. %s, want century .. millisecond",
			res.Valid[0].Scale.Singular, res.Valid[9].Scale.Singular)
	}

	// More fields than the ladder can hold fails the run.
	res, err = g.Parse("1:2:3:4:5:6:7:8:9:10:11")
	if err == nil {
		t.Fatalf("11 fields succeeded: %+v", res)
	}
	if res.TriggeredFlags()&MalformedHHMMSS == 0 {
		t.Errorf("triggered = %s, want MALFORMED_HHMMSS", res.TriggeredFlags())
	}
}
