package timespan

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrOutOfRange is returned when a parsed amount of seconds does not
// fit in a time.Duration.
var ErrOutOfRange = errors.New("timespan: seconds exceed time.Duration range")

const maxDurationSeconds = float64(math.MaxInt64) / float64(time.Second)

// TimeSpan binds a parse result to the grammar that produced it and
// offers conversions and arithmetic on top. A TimeSpan is an absolute
// measurement; arithmetic results are never negative.
type TimeSpan struct {
	grammar *Grammar
	result  Result
}

// New parses input under g with the grammar's defaults. The TimeSpan is
// returned even when parsing fails so the diagnostic breakdown stays
// reachable.
func New(input string, g *Grammar) (*TimeSpan, error) {
	res, err := g.Parse(input)
	return &TimeSpan{grammar: g, result: res}, err
}

// NewGuessed parses input under every supplied grammar and keeps the
// best outcome.
func NewGuessed(input string, grammars ...*Grammar) (*TimeSpan, error) {
	res, g, err := Guess(input, grammars...)
	if g == nil {
		return nil, err
	}
	return &TimeSpan{grammar: g, result: res}, err
}

// Result returns the full parse outcome.
func (t *TimeSpan) Result() Result { return t.result }

// Grammar returns the grammar that produced the result.
func (t *TimeSpan) Grammar() *Grammar { return t.grammar }

// Seconds returns the parsed total in seconds.
func (t *TimeSpan) Seconds() float64 { return t.result.Seconds }

// Duration returns the parsed total as a time.Duration.
func (t *TimeSpan) Duration() (time.Duration, error) {
	if math.Abs(t.result.Seconds) > maxDurationSeconds {
		return 0, ErrOutOfRange
	}
	return time.Duration(t.result.Seconds * float64(time.Second)), nil
}

// In converts the parsed total to the named scale ("minutes", "day").
func (t *TimeSpan) In(scaleName string) (float64, error) {
	s := t.grammar.ScaleNamed(scaleName)
	if s == nil {
		return 0, grammarErrf(t.grammar.Name, "no scale named %q", scaleName)
	}
	return t.result.Seconds / s.Seconds, nil
}

// Ago returns base shifted into the past by the parsed amount.
func (t *TimeSpan) Ago(base time.Time) (time.Time, error) {
	d, err := t.Duration()
	if err != nil {
		return time.Time{}, err
	}
	return base.Add(-d), nil
}

// Hence returns base shifted into the future by the parsed amount.
func (t *TimeSpan) Hence(base time.Time) (time.Time, error) {
	d, err := t.Duration()
	if err != nil {
		return time.Time{}, err
	}
	return base.Add(d), nil
}

// rebuild renders an amount of seconds back through the grammar's base
// scale and reparses it, so derived TimeSpans carry a real Result.
func (t *TimeSpan) rebuild(seconds float64) (*TimeSpan, error) {
	base := t.grammar.BaseScale()
	content := formatNumber(math.Abs(seconds)/base.Seconds) + " " + base.Terms[0]
	return New(content, t.grammar)
}

// Add returns the absolute sum of both spans.
func (t *TimeSpan) Add(other *TimeSpan) (*TimeSpan, error) {
	return t.rebuild(t.result.Seconds + other.result.Seconds)
}

// AddSeconds returns the absolute sum of the span and raw seconds.
func (t *TimeSpan) AddSeconds(seconds float64) (*TimeSpan, error) {
	return t.rebuild(t.result.Seconds + seconds)
}

// Sub returns the absolute difference of both spans.
func (t *TimeSpan) Sub(other *TimeSpan) (*TimeSpan, error) {
	return t.rebuild(t.result.Seconds - other.result.Seconds)
}

// Mul returns the span scaled by a factor.
func (t *TimeSpan) Mul(factor float64) (*TimeSpan, error) {
	return t.rebuild(t.result.Seconds * factor)
}

// Div returns the span divided by a divisor.
func (t *TimeSpan) Div(divisor float64) (*TimeSpan, error) {
	return t.rebuild(t.result.Seconds / divisor)
}

// Mod returns the remainder of the span divided by another span.
func (t *TimeSpan) Mod(other *TimeSpan) (*TimeSpan, error) {
	return t.rebuild(math.Mod(t.result.Seconds, other.result.Seconds))
}

// Ratio returns how many times other fits into the span.
func (t *TimeSpan) Ratio(other *TimeSpan) float64 {
	return t.result.Seconds / other.result.Seconds
}

// Cmp compares two spans by seconds: -1, 0 or 1.
func (t *TimeSpan) Cmp(other *TimeSpan) int {
	switch {
	case t.result.Seconds < other.result.Seconds:
		return -1
	case t.result.Seconds > other.result.Seconds:
		return 1
	}
	return 0
}

// String renders the span as "Days, HH:MM:SS.MS".
func (t *TimeSpan) String() string {
	return formatClock(t.result.Seconds)
}

func formatClock(seconds float64) string {
	days := math.Floor(seconds / 86400)
	rem := seconds - days*86400
	hours := math.Floor(rem / 3600)
	rem -= hours * 3600
	minutes := math.Floor(rem / 60)
	rem -= minutes * 60
	secs := math.Floor(rem)
	frac := math.Round((rem-secs)*1e9) / 1e9
	if frac >= 1 {
		secs++
		frac = 0
	}

	out := fmt.Sprintf("%02d:%02d:%02d", int64(hours), int64(minutes), int64(secs))
	if frac > 0 {
		dec := strconv.FormatFloat(frac, 'f', -1, 64)
		out += strings.TrimRight("."+dec[2:], ".0")
	}
	if days > 0 {
		unit := "Days"
		if days == 1 {
			unit = "Day"
		}
		return fmt.Sprintf("%d %s, %s", int64(days), unit, out)
	}
	return out
}
