package timespan

import (
	"testing"
	"time"
)

func TestNamedConversions(t *testing.T) {
	t.Parallel()
	ts := mustSpan(t, "1 day 12 hours")

	cases := []struct {
		name string
		fn   func(...int) (float64, error)
		want float64
	}{
		{"Milliseconds", ts.Milliseconds, 129600000},
		{"Minutes", ts.Minutes, 2160},
		{"Hours", ts.Hours, 36},
		{"Days", ts.Days, 1.5},
		{"Years", ts.Years, 129600.0 / 31536000},
	}
	for _, tc := range cases {
		got, err := tc.fn()
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestConversionPrecision(t *testing.T) {
	t.Parallel()
	ts := mustSpan(t, "100 minutes")

	got, err := ts.Hours(2)
	if err != nil {
		t.Fatalf("Hours: %v", err)
	}
	if got != 1.67 {
		t.Errorf("Hours(2) = %v, want 1.67", got)
	}

	full, err := ts.Hours()
	if err != nil {
		t.Fatalf("Hours: %v", err)
	}
	if full != 100.0/60 {
		t.Errorf("Hours() = %v, want %v", full, 100.0/60)
	}
}

func TestConversionDisabledScale(t *testing.T) {
	t.Parallel()

	g := mustEmbedded("english")
	for _, s := range g.Scales {
		if s.Seconds == secondsPerCentury {
			s.Enabled = false
		}
	}
	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	ts, err := New("5 hours", g)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := ts.Centuries(); err == nil {
		t.Errorf("Centuries on a disabled scale did not error")
	}
}

func TestDurationArithmetic(t *testing.T) {
	t.Parallel()
	ts := mustSpan(t, "1 hour")

	sum, err := ts.AddDuration(30 * time.Minute)
	if err != nil {
		t.Fatalf("AddDuration: %v", err)
	}
	if sum.Seconds() != 5400 {
		t.Errorf("AddDuration = %v seconds, want 5400", sum.Seconds())
	}

	diff, err := ts.SubDuration(15 * time.Minute)
	if err != nil {
		t.Fatalf("SubDuration: %v", err)
	}
	if diff.Seconds() != 2700 {
		t.Errorf("SubDuration = %v seconds, want 2700", diff.Seconds())
	}
}

func TestFloorDivAndEqual(t *testing.T) {
	t.Parallel()
	a := mustSpan(t, "100 minutes")
	b := mustSpan(t, "45 minutes")

	if got := a.FloorDiv(b); got != 2 {
		t.Errorf("FloorDiv = %v, want 2", got)
	}
	if a.Equal(b) {
		t.Errorf("Equal on unequal spans")
	}
	if !a.Equal(mustSpan(t, "1 hour 40 minutes")) {
		t.Errorf("Equal on equal spans = false")
	}
}
