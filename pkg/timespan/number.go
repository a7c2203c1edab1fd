package timespan

import (
	"strconv"
	"strings"
	"unicode"
)

// minThousandDigits is how many digits must follow a thousand delimiter
// for it to read as a grouping mark rather than garbage.
func minThousandDigits(st Settings) int {
	if st.AllowThousandsLackingDigits {
		return 1
	}
	return 3
}

func trimConnectors(s string, g *Grammar) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || runeIn(g.Connectors, r)
	})
}

// parseNumber resolves a digit segment, honoring the grammar's decimal
// and thousand delimiters. A nil InvalidEntry means success.
func parseNumber(content string, g *Grammar, st Settings) (float64, *InvalidEntry) {
	content = trimConnectors(content, g)
	rs := []rune(content)
	var num strings.Builder
	decimalLocked := false
	minDigits := minThousandDigits(st)

	for i, r := range rs {
		switch {
		case classify(r) == classNumber:
			num.WriteRune(r)
		case runeIn(g.DecimalDelimiters, r):
			// Reject double decimals and, depending on settings, decimals
			// with no following digit.
			more := i+1 < len(rs)
			if decimalLocked ||
				(more && classify(rs[i+1]) != classNumber) ||
				(!more && !st.AllowDecimalsLackingDigits) {
				return 0, &InvalidEntry{Fragment: content, Reason: MalformedDecimal}
			}
			num.WriteByte('.')
			decimalLocked = true
		case !decimalLocked && runeIn(g.ThousandDelimiters, r):
			// A grouping mark needs a digit before it, at least minDigits
			// digits after it, and no fourth digit unless extras are
			// allowed.
			grouped := i > 0 && classify(rs[i-1]) == classNumber && i+minDigits < len(rs)
			if grouped {
				for k := 1; k <= minDigits; k++ {
					if classify(rs[i+k]) != classNumber {
						grouped = false
						break
					}
				}
			}
			tooLong := !st.AllowThousandsExtraDigits && i+4 < len(rs) && classify(rs[i+4]) == classNumber
			if !grouped || tooLong {
				return 0, &InvalidEntry{Fragment: content, Reason: MalformedThousand}
			}
		}
	}

	f, err := strconv.ParseFloat(num.String(), 64)
	if err != nil {
		return 0, &InvalidEntry{Fragment: content, Reason: MalformedContent}
	}
	return f, nil
}

// parseFraction resolves "numerator/denominator" where both sides parse
// as numbers. Failures come back as a single MALFORMED_FRACTION entry
// carrying any underlying number flags.
func parseFraction(content string, g *Grammar, st Settings) (float64, []InvalidEntry) {
	malformed := func(extra FailureFlags) []InvalidEntry {
		return []InvalidEntry{{Fragment: content, Reason: extra | MalformedFraction}}
	}

	parts := strings.Split(content, g.FractionDelimiters[0])
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return 0, malformed(0)
	}

	// Tolerate at most one connector against either side of the bar.
	if edgeConnectors([]rune(parts[0]), g, true) > 1 || edgeConnectors([]rune(parts[1]), g, false) > 1 {
		return 0, malformed(0)
	}

	numerator, numErr := parseNumber(parts[0], g, st)
	denominator, denErr := parseNumber(parts[1], g, st)

	var flags FailureFlags
	if numErr != nil {
		flags |= numErr.Reason
	}
	if denErr != nil {
		flags |= denErr.Reason
	}
	if denErr == nil && denominator == 0 {
		flags |= MalformedFraction
	}
	if flags != 0 {
		return 0, malformed(flags)
	}
	return numerator / denominator, nil
}

// edgeConnectors counts the run of connector runes at one end of rs.
func edgeConnectors(rs []rune, g *Grammar, trailing bool) int {
	n := 0
	if trailing {
		for i := len(rs) - 1; i >= 0; i-- {
			if !runeIn(g.Connectors, rs[i]) {
				break
			}
			n++
		}
		return n
	}
	for _, r := range rs {
		if !runeIn(g.Connectors, r) {
			break
		}
		n++
	}
	return n
}
