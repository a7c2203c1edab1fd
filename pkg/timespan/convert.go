package timespan

import (
	"math"
	"time"
)

// Canonical seconds-per-unit factors, matching the shipped grammars.
const (
	secondsPerMillisecond = 0.001
	secondsPerMinute      = 60
	secondsPerHour        = 3600
	secondsPerDay         = 86400
	secondsPerWeek        = 604800
	secondsPerMonth       = 2635200
	secondsPerYear        = 31536000
	secondsPerDecade      = 315360000
	secondsPerCentury     = 3153600000
)

// scaleWithFactor finds the enabled scale with the given seconds factor.
func (g *Grammar) scaleWithFactor(factor float64) *Scale {
	for _, s := range g.enabled {
		if s.Seconds == factor {
			return s
		}
	}
	return nil
}

// convert divides the total by the factor of the matching enabled scale.
// precision, when given, rounds to that many decimal places.
func (t *TimeSpan) convert(factor float64, precision []int) (float64, error) {
	s := t.grammar.scaleWithFactor(factor)
	if s == nil {
		return 0, grammarErrf(t.grammar.Name, "no enabled scale with factor %v seconds", factor)
	}
	v := t.result.Seconds / s.Seconds
	if len(precision) > 0 {
		p := math.Pow(10, float64(precision[0]))
		v = math.Round(v*p) / p
	}
	return v, nil
}

// Milliseconds converts the span to milliseconds, optionally rounded to
// the given number of decimal places. The grammar must have the scale
// enabled; each helper below works the same way.
func (t *TimeSpan) Milliseconds(precision ...int) (float64, error) {
	return t.convert(secondsPerMillisecond, precision)
}

func (t *TimeSpan) Minutes(precision ...int) (float64, error) {
	return t.convert(secondsPerMinute, precision)
}

func (t *TimeSpan) Hours(precision ...int) (float64, error) {
	return t.convert(secondsPerHour, precision)
}

func (t *TimeSpan) Days(precision ...int) (float64, error) {
	return t.convert(secondsPerDay, precision)
}

func (t *TimeSpan) Weeks(precision ...int) (float64, error) {
	return t.convert(secondsPerWeek, precision)
}

func (t *TimeSpan) Months(precision ...int) (float64, error) {
	return t.convert(secondsPerMonth, precision)
}

func (t *TimeSpan) Years(precision ...int) (float64, error) {
	return t.convert(secondsPerYear, precision)
}

func (t *TimeSpan) Decades(precision ...int) (float64, error) {
	return t.convert(secondsPerDecade, precision)
}

func (t *TimeSpan) Centuries(precision ...int) (float64, error) {
	return t.convert(secondsPerCentury, precision)
}

// AddDuration returns the absolute sum of the span and a time.Duration.
func (t *TimeSpan) AddDuration(d time.Duration) (*TimeSpan, error) {
	return t.rebuild(t.result.Seconds + d.Seconds())
}

// SubDuration returns the absolute difference of the span and a
// time.Duration.
func (t *TimeSpan) SubDuration(d time.Duration) (*TimeSpan, error) {
	return t.rebuild(t.result.Seconds - d.Seconds())
}

// FloorDiv returns how many whole times other fits into the span.
func (t *TimeSpan) FloorDiv(other *TimeSpan) float64 {
	return math.Floor(t.result.Seconds / other.result.Seconds)
}

// Equal reports whether both spans measure the same amount of seconds.
func (t *TimeSpan) Equal(other *TimeSpan) bool {
	return t.result.Seconds == other.result.Seconds
}
