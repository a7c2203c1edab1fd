package timespan

import (
	"strconv"
	"strings"
)

const (
	kindNone        tokenKind   = -1
	numeralKindNone NumeralKind = -1
)

// Parse runs input through the grammar's backend with the grammar's
// default failure flags and settings.
func (g *Grammar) Parse(input string) (Result, error) {
	return g.ParseWith(input, g.Flags, g.Settings)
}

// ParseWith runs input through the grammar's backend with explicit
// failure flags and settings. The Result is populated even on error so
// callers can inspect the diagnostic breakdown of a failed parse.
func (g *Grammar) ParseWith(input string, flags FailureFlags, st Settings) (Result, error) {
	if !g.compiled() {
		return Result{Input: input}, &GrammarError{Grammar: g.Name, Reason: "grammar not compiled"}
	}

	valid, invalid := g.parse(g, normalize(input), st)

	var seconds float64
	for _, v := range valid {
		seconds += v.Value * v.Scale.Seconds
	}
	success := len(valid) > 0
	for _, iv := range invalid {
		if iv.Reason&flags != 0 {
			success = false
		}
	}

	res := Result{
		Success: success,
		Input:   input,
		Seconds: seconds,
		Valid:   valid,
		Invalid: invalid,
	}
	if !success {
		return res, &ParseError{Input: input, Flags: res.TriggeredFlags() & flags, Invalid: invalid}
	}
	return res, nil
}

func ptr(f float64) *float64 { return &f }

func fval(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func truthy(p *float64) bool { return p != nil && *p != 0 }

// tokenTextIn reports membership of a textual token in set. Numbers and
// clock runs never match.
func tokenTextIn(t token, set []string) bool {
	if t.kind == tokenNumber || t.kind == tokenClock {
		return false
	}
	return in(set, t.text)
}

func containsScale(scales []*Scale, s *Scale) bool {
	for _, x := range scales {
		if x == s {
			return true
		}
	}
	return false
}

func countOf(list []string, s string) int {
	n := 0
	for _, x := range list {
		if x == s {
			n++
		}
	}
	return n
}

// concatNumerals glues two spoken numbers positionally, the way "twenty
// three" reads as 23.
func concatNumerals(a, b float64) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatInt(int64(a), 10)+strconv.FormatInt(int64(b), 10), 64)
	return f
}

// parseSegments is the segment backend: a single pass over the token
// stream tracking an accumulating value, an optional multiplier and the
// pending scale, flushing a valid entry whenever a value meets a scale
// and an invalid entry whenever the stream breaks the segment rules.
func parseSegments(g *Grammar, content string, st Settings) ([]ValidEntry, []InvalidEntry) {
	var invalid []InvalidEntry
	var valid []ValidEntry

	tokens := segmentContent(content, g, st, &invalid)

	var (
		skipIterations     int
		resetProgress      bool
		segmentProgress    string
		parsedScales       []*Scale
		parsedScale        *Scale
		parsedValue        *float64
		segmentValue       *float64
		segmentMultiplier  *float64
		previousSpecials   []string
		previousConnectors []string
		previousSegmentors []string

		currentNumKind       = numeralKindNone
		currentKindConverted = kindNone
		prevKind             = kindNone
		prevKindConverted    = kindNone
		prevNumKind          = numeralKindNone

		encounteredHundredThousand bool
		highestNumeralValue        float64
	)

	lonely := func(v float64) {
		invalid = append(invalid, InvalidEntry{Fragment: formatNumber(v), Reason: LonelyValue})
	}

	for i := 0; i < len(tokens); i++ {
		if skipIterations > 0 {
			skipIterations--
			continue
		}
		tok := tokens[i]
		currentKindConverted = tok.kind
		currentNumKind = numeralKindNone
		if tok.kind == tokenNumeral {
			if n := g.numeralFor(tok.text); n != nil {
				currentNumKind = n.Kind
			}
		}

		switch tok.kind {
		case tokenClock, tokenUnknown:
			// Any pending value is orphaned by unresolvable content.
			if truthy(segmentValue) {
				lonely(*segmentValue)
				segmentValue = nil
			}
			if truthy(segmentMultiplier) {
				lonely(*segmentMultiplier)
				segmentMultiplier = nil
			}
			if truthy(parsedValue) {
				lonely(*parsedValue)
				parsedValue = nil
			}

			if tok.kind == tokenClock {
				duplicate := false
				if !st.AllowDuplicateScales {
					for _, p := range tok.clock {
						if containsScale(parsedScales, p.scale) {
							duplicate = true
							break
						}
					}
				}
				if duplicate {
					invalid = append(invalid, InvalidEntry{Fragment: tok.clock[0].segment, Reason: DuplicateScale})
				} else {
					for _, p := range tok.clock {
						valid = append(valid, ValidEntry{Value: p.value, Scale: p.scale})
						parsedScales = append(parsedScales, p.scale)
					}
				}
				continue
			}
			invalid = append(invalid, InvalidEntry{Fragment: tok.text, Reason: UnknownTerm})
			resetProgress = true

		case tokenScale:
			if prevKind == tokenScale {
				invalid = append(invalid, InvalidEntry{Fragment: tok.text, Reason: LonelyScale})
				resetProgress = true
			} else if parsedValue == nil && segmentValue == nil && segmentMultiplier == nil {
				invalid = append(invalid, InvalidEntry{Fragment: tok.text, Reason: LonelyScale})
				resetProgress = true
			}
			parsedScale = g.scaleFor(tok.text)

		case tokenNumber:
			if encounteredHundredThousand && prevNumKind != numeralKindNone {
				// A digit after a spoken hundred/thousand group closes
				// that group; absorb the separators that follow.
				parsedValue = ptr(tok.num)
				for next := i + 1; next < len(tokens) && tokens[next].kind == tokenSymbol; next++ {
					if tokenTextIn(tokens[next], g.Segmentors) {
						skipIterations++
						if next+1 < len(tokens) && tokenTextIn(tokens[next+1], g.Connectors) {
							skipIterations++
						}
					}
				}
			} else {
				if prevKindConverted == tokenNumber {
					if truthy(segmentValue) {
						lonely(*segmentValue)
						segmentValue = nil
					}
					if truthy(parsedValue) {
						lonely(*parsedValue)
					}
				}
				parsedValue = ptr(tok.num)
			}

		case tokenSymbol:
			var toInvalidate []InvalidEntry

			// Segmentors join progress only mid-segment, never leading.
			if strings.TrimSpace(segmentProgress) != "" && in(g.Segmentors, tok.text) {
				segmentProgress += tok.text
			}

			switch {
			case countOf(previousConnectors, tok.text) >= 2:
				// Two consecutive connectors are tolerated, a third is not.
				toInvalidate = append(toInvalidate, InvalidEntry{Fragment: tok.text, Reason: ConsecutiveConnector})
				resetProgress = true
			case in(previousSegmentors, tok.text):
				toInvalidate = append(toInvalidate, InvalidEntry{Fragment: tok.text, Reason: ConsecutiveSegmentor})
				resetProgress = true
			case in(previousSpecials, tok.text):
				toInvalidate = append(toInvalidate, InvalidEntry{Fragment: tok.text, Reason: ConsecutiveSpecial})
				resetProgress = true
			}
			if len(toInvalidate) > 0 {
				if parsedValue != nil || segmentValue != nil {
					lonely(fval(parsedValue) + fval(segmentValue))
				}
				invalid = append(invalid, toInvalidate...)
			}

			switch {
			case in(g.Connectors, tok.text):
				previousConnectors = append(previousConnectors, tok.text)
			case in(g.Segmentors, tok.text):
				previousSegmentors = append(previousSegmentors, tok.text)
			default:
				if st.LimitAllowedTerms && in(g.AllowedTerms, tok.text) {
					// An allowed term mid-segment abandons the segment.
					resetProgress = true
					if strings.TrimSpace(segmentProgress) != "" {
						toAbandon := segmentProgress + tok.text
						for next := i + 1; next < len(tokens) && tokenTextIn(tokens[next], g.AllowedTerms); next++ {
							toAbandon += tokens[next].text
							skipIterations++
						}
						invalid = append(invalid, InvalidEntry{Fragment: toAbandon, Reason: MisplacedAllowedTerm})
					}
				}
				if !in(g.AllowedTerms, tok.text) {
					if truthy(segmentValue) {
						lonely(*segmentValue)
						segmentValue = nil
					}
					if truthy(parsedValue) {
						lonely(*parsedValue)
					}
					invalid = append(invalid, InvalidEntry{Fragment: tok.text, Reason: MisplacedSpecial})
					resetProgress = true
				} else {
					previousSpecials = append(previousSpecials, tok.text)
				}
			}

		case tokenNumeral:
			numeral := g.numeralFor(tok.text)
			if numeral.Kind != KindOperator {
				currentKindConverted = tokenNumber
			}

			if encounteredHundredThousand {
				// Absorb the separators trailing a closed spoken group.
				connectorsBefore := 0
				for next := i + 1; next < len(tokens) && tokens[next].kind == tokenSymbol; next++ {
					connectorsBefore++
					if connectorsBefore > 2 {
						break
					}
					if tokenTextIn(tokens[next], g.Segmentors) {
						skipIterations += 1 + (connectorsBefore - 2)
						if next+1 < len(tokens) && tokenTextIn(tokens[next+1], g.Connectors) {
							skipIterations++
						}
					}
				}
			}

			switch {
			case numeral.Kind == KindOperator:
				previousMultiplier := false
				previousNumeric := false
				nextMultiplier := false
				nextNumeric := false
				nextScale := false
				previousValue := 0.0
				nextValue := 0.0
				nextExists := false

				if i-2 >= 0 {
					if prevNumKind == KindMultiplier {
						previousMultiplier = true
					}
					switch prevKind {
					case tokenNumeral:
						if pn := g.numeralFor(tokens[i-2].text); pn != nil {
							previousNumeric = true
							previousValue = pn.Value
						}
					case tokenNumber:
						previousNumeric = true
						previousValue = tokens[i-2].num
					}
				}
				if i+2 < len(tokens) {
					nextExists = true
					switch nt := tokens[i+2]; nt.kind {
					case tokenNumeral:
						if nn := g.numeralFor(nt.text); nn != nil {
							nextNumeric = true
							nextValue = nn.Value
							if nn.Kind == KindMultiplier {
								nextMultiplier = true
							}
						}
					case tokenNumber:
						nextNumeric = true
						nextValue = nt.num
					case tokenScale:
						nextScale = true
					}
				}

				noMultipliers := !previousMultiplier && !nextMultiplier
				previousIsOperator := prevNumKind == KindOperator
				atEnd := !nextExists
				noNumerics := !previousNumeric && !nextNumeric
				noNextScale := !nextScale

				if previousNumeric && nextNumeric && noMultipliers && !previousIsOperator {
					product := previousValue * nextValue
					tokens[i+2] = token{kind: tokenNumber, num: product, text: formatNumber(product)}
				} else if (noMultipliers || atEnd || previousIsOperator) && (noNumerics || noNextScale) {
					// Nothing numeric on both sides and no scale ahead:
					// the operator binds nothing.
					invalid = append(invalid, InvalidEntry{Fragment: tok.text, Reason: UnusedOperation})
				}

			case numeral.Kind == KindMultiplier:
				// A second multiplier in one segment is ambiguous about
				// what it applies to; reject the whole segment.
				if truthy(segmentMultiplier) {
					invalid = append(invalid, InvalidEntry{
						Fragment: segmentProgress + tok.text,
						Reason:   AmbiguousMultipliers,
					})
					resetProgress = true
				} else {
					if truthy(segmentValue) {
						lonely(*segmentValue)
						segmentValue = nil
					}
					segmentMultiplier = ptr(numeral.Value)
				}

			case parsedValue == nil:
				parsedValue = ptr(numeral.Value)

			case numeral.Kind == KindThousand:
				encounteredHundredThousand = true
				nextNumKind := numeralKindNone
				nextTokKind := kindNone
				for _, item := range tokens[i+1:] {
					if nextNumKind == numeralKindNone && item.kind != tokenSymbol {
						if item.kind == tokenNumeral {
							if n := g.numeralFor(item.text); n != nil {
								nextNumKind = n.Kind
							}
						}
						nextTokKind = item.kind
					}
					if nextNumKind != numeralKindNone || (item.kind != tokenSymbol && item.kind != tokenNumeral) {
						break
					}
				}

				if nextNumKind == KindDigit || nextNumKind == KindTeen || nextNumKind == KindTen ||
					nextNumKind == KindHundred || nextTokKind == tokenNumber {
					// More digits follow: this group closes into the
					// running segment value.
					if truthy(segmentValue) && highestNumeralValue <= numeral.Value {
						lonely(*segmentValue)
					}
					pv := *parsedValue * numeral.Value
					if truthy(segmentValue) && highestNumeralValue > numeral.Value {
						segmentValue = ptr(*segmentValue + pv)
					} else {
						segmentValue = ptr(pv)
					}
					parsedValue = nil
				} else {
					if truthy(segmentValue) && (highestNumeralValue == 0 || highestNumeralValue < numeral.Value) {
						segmentValue = ptr((*segmentValue + *parsedValue) * numeral.Value)
						parsedValue = nil
					} else {
						parsedValue = ptr(*parsedValue * numeral.Value)
					}
				}
				highestNumeralValue = numeral.Value

			case numeral.Kind == KindHundred:
				encounteredHundredThousand = true
				// "hundred" multiplies; standalone hundred-level words
				// like "quinientos" add their full value.
				if numeral.Value == 100 {
					parsedValue = ptr(*parsedValue * numeral.Value)
				} else {
					parsedValue = ptr(*parsedValue + numeral.Value)
				}

			case truthy(segmentValue) &&
				(numeral.Kind == KindDigit || numeral.Kind == KindTeen || numeral.Kind == KindTen) &&
				prevNumKind == KindDigit:
				// A fresh small numeral after a completed group orphans
				// the group.
				sv := *segmentValue + fval(parsedValue)
				lonely(sv)
				segmentValue = nil
				parsedValue = ptr(numeral.Value)

			case numeral.Kind == KindDigit && prevNumKind == KindTen:
				parsedValue = ptr(*parsedValue + numeral.Value)

			case numeral.Kind == KindDigit && prevNumKind == KindDigit && !encounteredHundredThousand:
				parsedValue = ptr(concatNumerals(*parsedValue, numeral.Value))

			case (numeral.Kind == KindTeen || numeral.Kind == KindTen) &&
				(prevNumKind == KindDigit || prevNumKind == KindTeen || prevNumKind == KindTen) &&
				!encounteredHundredThousand:
				parsedValue = ptr(concatNumerals(*parsedValue, numeral.Value))

			case (numeral.Kind == KindDigit || numeral.Kind == KindTeen || numeral.Kind == KindTen) &&
				(prevNumKind == KindHundred || prevNumKind == KindThousand):
				parsedValue = ptr(*parsedValue + numeral.Value)

			case (prevKindConverted == tokenNumber || prevNumKind == KindMultiplier) &&
				numeral.Kind != KindHundred && numeral.Kind != KindThousand && numeral.Kind != KindMultiplier:
				if truthy(segmentValue) {
					lonely(*segmentValue)
					segmentValue = nil
				}
				if truthy(parsedValue) {
					lonely(*parsedValue)
				}
				parsedValue = ptr(numeral.Value)
			}
		}

		// Previous-token bookkeeping. Connectors and non-segmentor
		// specials are transparent to it.
		isSegmentorTok := tokenTextIn(tok, g.Segmentors)
		if tok.kind != tokenSymbol || isSegmentorTok {
			prevKind = tok.kind
			prevNumKind = currentNumKind
			prevKindConverted = currentKindConverted
			currentNumKind = numeralKindNone
			currentKindConverted = kindNone
			previousConnectors = nil
			previousSpecials = nil
		}

		if !isSegmentorTok {
			segmentProgress += tok.progress()
			if !tokenTextIn(tok, g.Connectors) && !resetProgress {
				previousSegmentors = nil
			}
			for k := 1; k <= skipIterations; k++ {
				if i+k < len(tokens) {
					segmentProgress += tokens[i+k].progress()
				}
			}
		} else {
			if parsedValue != nil {
				segmentValue = ptr(fval(segmentValue) + *parsedValue)
			}
			parsedValue = nil
		}

		// A value met a scale: flush the segment.
		if (parsedValue != nil || segmentValue != nil || segmentMultiplier != nil) && parsedScale != nil {
			pv := fval(parsedValue)
			sv := fval(segmentValue)
			mult := segmentMultiplier
			if pv == 0 && sv == 0 && truthy(mult) {
				pv = *mult
				mult = nil
			}

			if !st.AllowDuplicateScales && containsScale(parsedScales, parsedScale) {
				invalid = append(invalid, InvalidEntry{
					Fragment: strings.TrimSpace(segmentProgress),
					Reason:   DuplicateScale,
				})
			} else {
				total := pv + sv
				if truthy(mult) {
					total *= *mult
				}
				valid = append(valid, ValidEntry{Value: total, Scale: parsedScale})
			}
			parsedScales = append(parsedScales, parsedScale)
			resetProgress = true
		}

		// Reset segmentation state only; previousSpecials persists so
		// consecutive specials are caught across segments.
		if resetProgress {
			highestNumeralValue = 0
			encounteredHundredThousand = false
			resetProgress = false
			segmentProgress = ""
			segmentValue = nil
			parsedScale = nil
			parsedValue = nil
			segmentMultiplier = nil
		}
	}

	// A trailing value with no scale either assumes the base scale or
	// fails as lonely, per the assume-scale setting.
	if parsedValue != nil || segmentValue != nil || segmentMultiplier != nil {
		pv := fval(parsedValue)
		sv := fval(segmentValue)
		mult := segmentMultiplier
		if pv == 0 && sv == 0 && truthy(mult) {
			pv = *mult
			mult = nil
		}

		if st.AssumeScale == AssumeLast ||
			(st.AssumeScale == AssumeSingle && (len(tokens) == 1 || (len(valid) == 0 && len(invalid) == 0))) {
			total := pv + sv
			if truthy(mult) {
				total *= *mult
			}
			valid = append(valid, ValidEntry{Value: total, Scale: g.base})
		} else {
			invalid = append(invalid, InvalidEntry{Fragment: formatNumber(pv + sv), Reason: LonelyValue})
		}
	}

	return valid, invalid
}
