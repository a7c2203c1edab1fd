package timespan

import "strings"

// AssumeScale controls what happens to a trailing value with no scale.
type AssumeScale int

const (
	// AssumeSingle assigns the base scale only when the value is the sole
	// parsed content of the input.
	AssumeSingle AssumeScale = iota
	// AssumeLast assigns the base scale to the final dangling value even
	// when other segments parsed before it.
	AssumeLast
	// AssumeNever reports every dangling value as LONELY_VALUE.
	AssumeNever
)

func (a AssumeScale) String() string {
	switch a {
	case AssumeLast:
		return "LAST"
	case AssumeNever:
		return "NEVER"
	default:
		return "SINGLE"
	}
}

// ParseAssumeScale resolves the config spelling of an AssumeScale mode.
func ParseAssumeScale(s string) (AssumeScale, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "SINGLE":
		return AssumeSingle, true
	case "LAST":
		return AssumeLast, true
	case "NEVER":
		return AssumeNever, true
	}
	return AssumeSingle, false
}

// Settings tunes the lenience of a single parse. The zero value is not
// the default; use DefaultSettings.
type Settings struct {
	// AssumeScale decides how a dangling value with no scale resolves.
	AssumeScale AssumeScale

	// LimitAllowedTerms abandons a segment interrupted mid-way by one of
	// the grammar's allowed terms. When false the terms are ignored.
	LimitAllowedTerms bool

	// AllowDuplicateScales stacks repeated scales instead of rejecting
	// the repeats with DUPLICATE_SCALE.
	AllowDuplicateScales bool

	// AllowThousandsExtraDigits accepts more than three digits after a
	// thousand delimiter ("1,2345" reads as 12345).
	AllowThousandsExtraDigits bool

	// AllowThousandsLackingDigits accepts fewer than three digits after a
	// thousand delimiter ("1,23" reads as 123).
	AllowThousandsLackingDigits bool

	// AllowDecimalsLackingDigits accepts a decimal delimiter with nothing
	// after it ("1." reads as 1.0).
	AllowDecimalsLackingDigits bool
}

// DefaultSettings mirrors the shipped grammars' defaults.
func DefaultSettings() Settings {
	return Settings{
		AssumeScale:                 AssumeSingle,
		LimitAllowedTerms:           true,
		AllowDuplicateScales:        true,
		AllowThousandsExtraDigits:   false,
		AllowThousandsLackingDigits: false,
		AllowDecimalsLackingDigits:  true,
	}
}
