package timespan

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValidEntry is one successfully parsed value-scale pair.
type ValidEntry struct {
	Value float64
	Scale *Scale
}

func (v ValidEntry) String() string {
	name := v.Scale.Plural
	if v.Value == 1 {
		name = v.Scale.Singular
	}
	return formatNumber(v.Value) + " " + name
}

// InvalidEntry is one rejected fragment of the input together with the
// failure flag that rejected it. Fragment holds the offending text, or
// the canonical rendering of an offending number.
type InvalidEntry struct {
	Fragment string
	Reason   FailureFlags
}

func (iv InvalidEntry) String() string {
	return fmt.Sprintf("%q: %s", iv.Fragment, iv.Reason)
}

// Result is the complete outcome of a parse. Seconds is the sum of all
// valid entries whether or not the parse succeeded; Success reports
// whether at least one valid entry exists and no triggered flag was set
// in the effective failure policy.
type Result struct {
	Success bool
	Input   string
	Seconds float64
	Valid   []ValidEntry
	Invalid []InvalidEntry
}

// TriggeredFlags returns the union of the reasons on the invalid
// entries, regardless of which of them the policy treated as fatal.
func (r Result) TriggeredFlags() FailureFlags {
	var f FailureFlags
	for _, iv := range r.Invalid {
		f |= iv.Reason
	}
	return f
}

// ParseError reports a failed parse: either no value was recovered at
// all, or a triggered failure flag was part of the active policy.
type ParseError struct {
	Input   string
	Flags   FailureFlags
	Invalid []InvalidEntry
}

func (e *ParseError) Error() string {
	if len(e.Invalid) == 0 {
		return fmt.Sprintf("parse %q: no valid duration found", e.Input)
	}
	parts := make([]string, 0, len(e.Invalid))
	for _, iv := range e.Invalid {
		parts = append(parts, iv.String())
	}
	return fmt.Sprintf("parse %q: %s", e.Input, strings.Join(parts, "; "))
}

// formatNumber renders a float the way it appears in result fragments:
// integers without a trailing ".0", everything else in shortest form.
func formatNumber(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
