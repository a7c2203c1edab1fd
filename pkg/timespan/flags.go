package timespan

import "strings"

// FailureFlags is a bitset of the ways an input fragment can fail to
// resolve. Every flag is data carried on the invalid list of a Result;
// whether a flag also fails the parse overall depends on which flags the
// caller (or the grammar's defaults) armed.
type FailureFlags uint32

const (
	// MalformedContent is the fallback for content the engine could not
	// classify at all.
	MalformedContent FailureFlags = 1 << iota
	// UnknownTerm marks a token that matched no grammar table.
	UnknownTerm
	// MalformedDecimal marks a number with a doubled or dangling decimal
	// delimiter.
	MalformedDecimal
	// MalformedThousand marks a thousand delimiter without the required
	// digit group around it.
	MalformedThousand
	// MalformedFraction marks anything other than two non-empty numeric
	// operands around exactly one fraction delimiter.
	MalformedFraction
	// MalformedHHMMSS marks a colon run with empty, unresolvable or too
	// many fields.
	MalformedHHMMSS
	// LonelyValue marks a value with no scale to attach to.
	LonelyValue
	// LonelyScale marks a scale with no preceding value, including a
	// scale leading the input.
	LonelyScale
	// DuplicateScale marks a repeated scale when duplicates are not
	// allowed by settings.
	DuplicateScale
	// ConsecutiveConnector marks more connectors in a row than tolerated.
	ConsecutiveConnector
	// ConsecutiveSegmentor marks doubled segmentors.
	ConsecutiveSegmentor
	// ConsecutiveSpecial marks doubled special characters.
	ConsecutiveSpecial
	// MisplacedAllowedTerm marks an allowed term interrupting a segment.
	MisplacedAllowedTerm
	// MisplacedSpecial marks a configured special character where none is
	// permitted.
	MisplacedSpecial
	// UnusedOperation marks an operator term with nothing to bind to.
	UnusedOperation
	// AmbiguousMultipliers marks a second multiplier in one segment.
	AmbiguousMultipliers

	flagsEnd
)

// FlagsNone arms no flags: any invalid content is tolerated as long as at
// least one valid value/scale pair was found.
const FlagsNone FailureFlags = 0

// FlagsAll arms every flag: any invalid content fails the parse.
const FlagsAll FailureFlags = flagsEnd - 1

var flagNames = map[FailureFlags]string{
	MalformedContent:     "MALFORMED_CONTENT",
	UnknownTerm:          "UNKNOWN_TERM",
	MalformedDecimal:     "MALFORMED_DECIMAL",
	MalformedThousand:    "MALFORMED_THOUSAND",
	MalformedFraction:    "MALFORMED_FRACTION",
	MalformedHHMMSS:      "MALFORMED_HHMMSS",
	LonelyValue:          "LONELY_VALUE",
	LonelyScale:          "LONELY_SCALE",
	DuplicateScale:       "DUPLICATE_SCALE",
	ConsecutiveConnector: "CONSECUTIVE_CONNECTOR",
	ConsecutiveSegmentor: "CONSECUTIVE_SEGMENTOR",
	ConsecutiveSpecial:   "CONSECUTIVE_SPECIAL",
	MisplacedAllowedTerm: "MISPLACED_ALLOWED_TERM",
	MisplacedSpecial:     "MISPLACED_SPECIAL",
	UnusedOperation:      "UNUSED_OPERATION",
	AmbiguousMultipliers: "AMBIGUOUS_MULTIPLIERS",
}

// flagOrder keeps String() output stable.
var flagOrder = []FailureFlags{
	MalformedContent, UnknownTerm, MalformedDecimal, MalformedThousand,
	MalformedFraction, MalformedHHMMSS, LonelyValue, LonelyScale,
	DuplicateScale, ConsecutiveConnector, ConsecutiveSegmentor,
	ConsecutiveSpecial, MisplacedAllowedTerm, MisplacedSpecial,
	UnusedOperation, AmbiguousMultipliers,
}

func (f FailureFlags) String() string {
	if f == FlagsNone {
		return "NONE"
	}
	if f == FlagsAll {
		return "ALL"
	}
	var parts []string
	for _, bit := range flagOrder {
		if f&bit != 0 {
			parts = append(parts, flagNames[bit])
		}
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, " | ")
}

// Has reports whether every bit in mask is set.
func (f FailureFlags) Has(mask FailureFlags) bool { return f&mask == mask }

// ParseFailureFlag resolves a single flag name as written in grammar and
// application configs ("LONELY_VALUE", "NONE", "ALL", ...).
func ParseFailureFlag(name string) (FailureFlags, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "NONE":
		return FlagsNone, true
	case "ALL":
		return FlagsAll, true
	}
	for bit, n := range flagNames {
		if n == strings.ToUpper(strings.TrimSpace(name)) {
			return bit, true
		}
	}
	return 0, false
}

// ParseFailureFlags folds a list of flag names into one set.
func ParseFailureFlags(names []string) (FailureFlags, bool) {
	var out FailureFlags
	for _, name := range names {
		bit, ok := ParseFailureFlag(name)
		if !ok {
			return 0, false
		}
		out |= bit
	}
	return out, true
}
