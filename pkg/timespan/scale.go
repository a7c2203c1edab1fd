package timespan

import "strings"

// Scale is one named unit of time with a fixed seconds-per-unit factor.
// A Scale's identity within a grammar is its position in Grammar.Scales;
// that order defines the HHMMSS ladder.
type Scale struct {
	// Seconds is the factor for one unit of this scale. Must be > 0 for
	// an enabled scale.
	Seconds float64
	// Singular and Plural are the canonical renderings of the unit.
	Singular string
	Plural   string
	// Terms are every spelling that resolves to this scale. Matched
	// against lower-cased normalized tokens.
	Terms []string
	// Enabled scales participate in parsing; disabled ones are ignored.
	Enabled bool
}

// valid reports whether the scale carries everything parsing needs.
func (s *Scale) valid() bool {
	return s != nil && s.Seconds > 0 && s.Singular != "" && s.Plural != "" && len(s.Terms) > 0
}

// NumeralKind classifies a word numeral for positional composition.
type NumeralKind int

const (
	// KindDigit is 0..9 ("five").
	KindDigit NumeralKind = iota
	// KindTeen is 10..19 ("thirteen").
	KindTeen
	// KindTen is 20,30..90 ("fifty").
	KindTen
	// KindHundred multiplies the preceding accumulated value ("hundred",
	// or stands alone for hundred-level words like "doscientos").
	KindHundred
	// KindThousand multiplies the whole accumulated group ("thousand",
	// "million", ...).
	KindThousand
	// KindMultiplier scales an adjacent value fractionally ("half").
	KindMultiplier
	// KindOperator binds a multiplier to its operand ("of", "de").
	KindOperator
)

var numeralKindNames = map[string]NumeralKind{
	"DIGIT":      KindDigit,
	"TEEN":       KindTeen,
	"TEN":        KindTen,
	"HUNDRED":    KindHundred,
	"THOUSAND":   KindThousand,
	"MULTIPLIER": KindMultiplier,
	"OPERATOR":   KindOperator,
}

func (k NumeralKind) String() string {
	for name, kind := range numeralKindNames {
		if kind == k {
			return name
		}
	}
	return "DIGIT"
}

// ParseNumeralKind resolves the config spelling of a numeral kind.
func ParseNumeralKind(s string) (NumeralKind, bool) {
	k, ok := numeralKindNames[strings.ToUpper(strings.TrimSpace(s))]
	return k, ok
}

// Numeral is one word-form number ("twelve", "hundred", "half").
type Numeral struct {
	Name  string
	Kind  NumeralKind
	Value float64
	Terms []string
}

func (n *Numeral) valid() bool {
	return n != nil && n.Name != "" && len(n.Terms) > 0
}
