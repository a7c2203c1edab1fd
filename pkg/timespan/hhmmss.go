package timespan

import "strings"

// parseHHMMSS splits a clock-style run ("1:30:25.5") into its numeric
// fields. Field values may themselves be fractions. Any bad field fails
// the whole run with MALFORMED_HHMMSS.
func parseHHMMSS(content string, g *Grammar, st Settings) ([]float64, []InvalidEntry) {
	fields := strings.Split(content, g.HHMMSSDelimiters[0])

	var flags FailureFlags
	fail := func() []InvalidEntry {
		return []InvalidEntry{{Fragment: content, Reason: flags | MalformedHHMMSS}}
	}

	for _, f := range fields {
		if f == "" {
			return nil, fail()
		}
	}

	values := make([]float64, 0, len(fields))
	bad := false
	for _, field := range fields {
		rs := []rune(field)
		// Up to two leading connectors per field, none trailing.
		if edgeConnectors(rs, g, false) > 2 {
			return nil, fail()
		}
		if edgeConnectors(rs, g, true) > 0 {
			return nil, fail()
		}

		if containsAny(field, g.FractionDelimiters) {
			v, errs := parseFraction(field, g, st)
			if errs != nil {
				for _, e := range errs {
					flags |= e.Reason
				}
				flags |= MalformedHHMMSS
				bad = true
				continue
			}
			values = append(values, v)
		} else {
			v, err := parseNumber(field, g, st)
			if err != nil {
				flags |= err.Reason | MalformedHHMMSS
				bad = true
				continue
			}
			values = append(values, v)
		}
	}

	if bad {
		return nil, fail()
	}
	return values, nil
}

func containsAny(s string, set []string) bool {
	for _, item := range set {
		if item != "" && strings.Contains(s, item) {
			return true
		}
	}
	return false
}

// normalizeDelims rewrites every delimiter in set to the first one so
// downstream splitting only considers a single spelling.
func normalizeDelims(s string, set []string) string {
	for _, d := range set[1:] {
		s = strings.ReplaceAll(s, d, set[0])
	}
	return s
}
