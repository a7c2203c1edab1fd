package timespan

import "testing"

func TestFlagStrings(t *testing.T) {
	t.Parallel()

	if got := FlagsNone.String(); got != "NONE" {
		t.Errorf("NONE = %q", got)
	}
	if got := FlagsAll.String(); got != "ALL" {
		t.Errorf("ALL = %q", got)
	}
	if got := (LonelyValue | UnknownTerm).String(); got != "UNKNOWN_TERM | LONELY_VALUE" {
		t.Errorf("combined = %q", got)
	}
}

func TestParseFailureFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want FailureFlags
	}{
		{"NONE", FlagsNone},
		{"ALL", FlagsAll},
		{"LONELY_VALUE", LonelyValue},
		{"lonely_value", LonelyValue},
		{" MALFORMED_HHMMSS ", MalformedHHMMSS},
	}
	for _, tt := range tests {
		got, ok := ParseFailureFlag(tt.name)
		if !ok || got != tt.want {
			t.Errorf("ParseFailureFlag(%q) = %s, %v", tt.name, got, ok)
		}
	}
	if _, ok := ParseFailureFlag("NOT_A_FLAG"); ok {
		t.Errorf("bogus flag accepted")
	}

	set, ok := ParseFailureFlags([]string{"LONELY_VALUE", "DUPLICATE_SCALE"})
	if !ok || set != LonelyValue|DuplicateScale {
		t.Errorf("ParseFailureFlags = %s, %v", set, ok)
	}
	if _, ok := ParseFailureFlags([]string{"LONELY_VALUE", "nope"}); ok {
		t.Errorf("bogus flag list accepted")
	}
}

func TestFlagHas(t *testing.T) {
	t.Parallel()
	set := LonelyValue | UnknownTerm
	if !set.Has(LonelyValue) || !set.Has(UnknownTerm) || !set.Has(LonelyValue|UnknownTerm) {
		t.Errorf("Has misses contained flags")
	}
	if set.Has(DuplicateScale) || set.Has(LonelyValue|DuplicateScale) {
		t.Errorf("Has reports missing flags")
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Hello", "hello"},
		{"VEINTITRÉS", "veintitres"},
		{"día", "dia"},
		{"１２３", "123"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalize(tt.in); got != tt.want {
			t.Errorf("normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
