package timespan

import "strconv"

type tokenKind int

const (
	tokenNumber tokenKind = iota
	tokenScale
	tokenNumeral
	tokenSymbol
	tokenUnknown
	tokenClock
)

// clockPart is one resolved field of an HHMMSS run: its value, the
// ladder scale it lands on, and the full source run for diagnostics.
type clockPart struct {
	value   float64
	scale   *Scale
	segment string
}

// token is one grouped unit of normalized input.
type token struct {
	kind  tokenKind
	text  string
	num   float64
	clock []clockPart
}

// progress renders the token the way segment diagnostics concatenate it.
func (t token) progress() string {
	if t.kind == tokenNumber {
		return formatNumber(t.num)
	}
	return t.text
}

func (g *Grammar) runeIsDelimiter(r rune) bool {
	return runeIn(g.HHMMSSDelimiters, r) || runeIn(g.DecimalDelimiters, r) ||
		runeIn(g.ThousandDelimiters, r) || runeIn(g.FractionDelimiters, r)
}

func (g *Grammar) runeIsConnectorOrDelimiter(r rune) bool {
	return runeIn(g.Connectors, r) || g.runeIsDelimiter(r)
}

func (g *Grammar) runeIsClockOrFraction(r rune) bool {
	return runeIn(g.HHMMSSDelimiters, r) || runeIn(g.FractionDelimiters, r)
}

// detectNumberSegment looks ahead from a digit and captures the full run
// of digits, connectors and delimiters that belongs to one number,
// stopping where a separator genuinely splits two values apart.
func detectNumberSegment(rs []rune, g *Grammar, st Settings) []rune {
	minDigits := minThousandDigits(st)
	var seg []rune
	sawClockOrFraction := false
	trailingConnectors := 0

	i := 0
	for i < len(rs) {
		cur := rs[i]
		if classify(cur) != classNumber && !g.runeIsConnectorOrDelimiter(cur) {
			break
		}

		havePrev := i > 0
		haveNext := i+1 < len(rs)
		var prev, next rune
		if havePrev {
			prev = rs[i-1]
		}
		if haveNext {
			next = rs[i+1]
		}
		prevIsNumber := havePrev && classify(prev) == classNumber
		nextIsNumber := haveNext && classify(next) == classNumber

		if g.runeIsClockOrFraction(cur) {
			sawClockOrFraction = true
		}
		if runeIn(g.Connectors, cur) {
			trailingConnectors++
		} else {
			trailingConnectors = 0
		}

		// A connector flanked by plain characters, or a segmentor, may
		// end the run unless it is doing delimiter duty in a valid
		// format.
		surroundedConnector := runeIn(g.Connectors, cur) &&
			(!(havePrev && g.runeIsConnectorOrDelimiter(prev)) || !(haveNext && g.runeIsConnectorOrDelimiter(next)))
		if surroundedConnector || runeIn(g.Segmentors, cur) {
			switch {
			case runeIn(g.DecimalDelimiters, cur) && haveNext && classify(next) != classNumber:
				// A decimal mark followed by symbols: keep it only if no
				// number follows the symbol run.
				nextNonSymbolIsNumber := false
				for k := i + 1; k < len(rs); k++ {
					c := classify(rs[k])
					if c != classOther {
						nextNonSymbolIsNumber = c == classNumber
						break
					}
				}
				if !nextNonSymbolIsNumber {
					seg = append(seg, cur)
				}
				return trimTrailing(seg, trailingConnectors)

			case runeIn(g.ThousandDelimiters, cur) &&
				!(havePrev && g.runeIsClockOrFraction(prev)) &&
				!(haveNext && g.runeIsClockOrFraction(next)):
				shortGroup := false
				if runeIn(g.Connectors, cur) && prevIsNumber && nextIsNumber {
					for k := 1; k <= minDigits; k++ {
						if i+k >= len(rs) || classify(rs[i+k]) != classNumber {
							shortGroup = true
							break
						}
					}
				}
				if (haveNext && runeIn(g.Connectors, next) && next != cur) ||
					(haveNext && runeIn(g.ThousandDelimiters, next) && !runeIn(g.Connectors, next)) ||
					shortGroup ||
					(prevIsNumber && !nextIsNumber && !(haveNext && g.runeIsConnectorOrDelimiter(next))) ||
					(nextIsNumber && !prevIsNumber && !sawClockOrFraction) {
					return trimTrailing(seg, trailingConnectors)
				}

			case runeIn(g.Connectors, cur) &&
				!g.runeIsClockOrFraction(cur) &&
				!(havePrev && g.runeIsClockOrFraction(prev)) &&
				!(haveNext && g.runeIsClockOrFraction(next)) &&
				nextIsNumber && !sawClockOrFraction:
				return trimTrailing(seg, trailingConnectors)
			}
		}

		seg = append(seg, cur)
		i++
	}

	return trimTrailing(seg, trailingConnectors)
}

// trimTrailing drops all but one trailing connector so extras surface as
// CONSECUTIVE_CONNECTOR later instead of vanishing into the number.
func trimTrailing(seg []rune, trailingConnectors int) []rune {
	if trailingConnectors > 0 {
		trailingConnectors--
	}
	if trailingConnectors > 0 {
		return seg[:len(seg)-trailingConnectors]
	}
	return seg
}

// segmentContent groups normalized input into tokens: numbers (with
// their delimiter runs already resolved), grammar terms, specials and
// unknown words. Number, fraction and clock failures land in invalid.
func segmentContent(content string, g *Grammar, st Settings, invalid *[]InvalidEntry) []token {
	rs := []rune(content)
	var tokens []token
	var buffer string
	var prevClass charClass
	hasPrev := false
	skipIterations := 0
	skipSave := false

	saveBuffer := func() {
		if f, err := strconv.ParseFloat(buffer, 64); err == nil {
			tokens = append(tokens, token{kind: tokenNumber, num: f, text: buffer})
		} else if g.numeralFor(buffer) != nil {
			tokens = append(tokens, token{kind: tokenNumeral, text: buffer})
		} else if g.scaleFor(buffer) != nil {
			tokens = append(tokens, token{kind: tokenScale, text: buffer})
		} else if g.isSpecial(buffer) {
			tokens = append(tokens, token{kind: tokenSymbol, text: buffer})
		} else {
			tokens = append(tokens, token{kind: tokenUnknown, text: buffer})
		}
		buffer = ""
	}

	for i := 0; i < len(rs); i++ {
		if skipIterations > 0 {
			skipIterations--
			continue
		}
		char := rs[i]
		curClass := classify(char)

		if !skipSave && buffer != "" && (!hasPrev || curClass != prevClass) {
			saveBuffer()
		}
		skipSave = false

		// A bare leading decimal mark reads as "0." when a digit follows.
		previousSpecial := i == 0 || (hasPrev && prevClass == classOther)
		nextNumber := i+1 < len(rs) && classify(rs[i+1]) == classNumber
		if runeIn(g.DecimalDelimiters, char) && previousSpecial && nextNumber {
			buffer += "0" + string(char)
			skipSave = true
			continue
		}

		switch {
		case curClass == classNumber:
			detected := detectNumberSegment(rs[i:], g, st)
			numberSegment := buffer + string(detected)
			buffer = ""
			skipIterations = len(detected) - 1

			switch {
			case containsAny(numberSegment, g.HHMMSSDelimiters):
				numberSegment = normalizeDelims(numberSegment, g.HHMMSSDelimiters)
				vals, errs := parseHHMMSS(numberSegment, g, st)
				if errs != nil {
					*invalid = append(*invalid, errs...)
					continue
				}
				ladder := g.enabled
				baseIndex := 0
				if len(vals) != len(ladder) {
					baseIndex = g.baseIndex
				}
				if len(vals) > len(ladder)-baseIndex {
					*invalid = append(*invalid, InvalidEntry{Fragment: numberSegment, Reason: MalformedHHMMSS})
					continue
				}
				// Rightmost field lands on the base scale, each field to
				// its left one rung up the ladder.
				parts := make([]clockPart, len(vals))
				for j, v := range vals {
					parts[j] = clockPart{
						value:   v,
						scale:   ladder[baseIndex+len(vals)-1-j],
						segment: numberSegment,
					}
				}
				tokens = append(tokens, token{kind: tokenClock, text: numberSegment, clock: parts})

			case containsAny(numberSegment, g.FractionDelimiters):
				numberSegment = normalizeDelims(numberSegment, g.FractionDelimiters)
				v, errs := parseFraction(numberSegment, g, st)
				if errs != nil {
					*invalid = append(*invalid, errs...)
				} else {
					buffer = strconv.FormatFloat(v, 'g', -1, 64)
				}

			default:
				v, err := parseNumber(numberSegment, g, st)
				if err != nil {
					*invalid = append(*invalid, *err)
				} else {
					buffer = strconv.FormatFloat(v, 'g', -1, 64)
				}
			}

		case curClass == classLetter || (curClass == classOther && !g.isSpecial(string(char))):
			// Letters and unconfigured symbols group into words.
			buffer += string(char)

		default:
			// Configured specials never group.
			buffer += string(char)
			saveBuffer()
		}

		prevClass = curClass
		hasPrev = true
	}

	if buffer != "" {
		saveBuffer()
	}
	return tokens
}
