// Package timespan parses human-written duration expressions into seconds.
//
// Parsing is driven entirely by a Grammar: a locale-specific table of
// separators, time scales and word numerals. The engine accepts lenient
// input ("1 day, 5 hours", "1d5h30s", "half of a day", "12:30:15") and
// always returns a full diagnostic breakdown of which fragments resolved
// to a value/scale pair and which did not, instead of a bare pass/fail.
//
// Typical use:
//
//	g := timespan.English()
//	ts, err := timespan.New("2 hours 30 minutes", g)
//	if err != nil {
//		// err describes which fragments failed to resolve
//	}
//	fmt.Println(ts.Seconds()) // 9000
//
// A Grammar is immutable after loading and safe for concurrent parses.
package timespan
