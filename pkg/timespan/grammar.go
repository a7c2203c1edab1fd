package timespan

import (
	"fmt"
	"strings"
)

// ErrGrammar wraps every grammar configuration failure so callers can
// distinguish "the system cannot run" from "the input did not parse".
type GrammarError struct {
	Grammar string
	Reason  string
}

func (e *GrammarError) Error() string {
	if e.Grammar == "" {
		return "grammar: " + e.Reason
	}
	return fmt.Sprintf("grammar %q: %s", e.Grammar, e.Reason)
}

func grammarErrf(name, format string, args ...any) error {
	return &GrammarError{Grammar: name, Reason: fmt.Sprintf(format, args...)}
}

// Grammar is the immutable, locale-specific configuration driving a
// parse: separators, delimiters, the ordered scale table and the numeral
// table, plus the locale's default strictness and settings.
//
// A Grammar must pass Compile before use. After that it is read-only and
// safe to share across concurrent parses.
type Grammar struct {
	// Name identifies the locale ("english"). Used for guess tie-breaks.
	Name string
	// Backend names the registered parsing backend for this grammar.
	Backend string

	Connectors   []string
	Segmentors   []string
	AllowedTerms []string

	// The four delimiter sets must be pairwise disjoint.
	HHMMSSDelimiters   []string
	DecimalDelimiters  []string
	ThousandDelimiters []string
	FractionDelimiters []string

	// Scales in ladder order, smallest first. Position is identity: the
	// HHMMSS decoder walks this order and duplicate detection compares
	// positions.
	Scales []*Scale

	Numerals []*Numeral

	// Flags and Settings are the locale defaults, used by Parse when the
	// caller does not override them.
	Flags    FailureFlags
	Settings Settings

	// Extra carries opaque config data the engine ignores.
	Extra map[string]any

	// compiled lookups
	parse       ParseFunc
	termScale   map[string]*Scale
	termNumeral map[string]*Numeral
	specialSet  map[string]struct{}
	enabled     []*Scale
	base        *Scale
	baseIndex   int
}

// Compile validates the grammar invariants, resolves the parsing backend
// and builds the lookup tables. It must be called once before parsing;
// loaders do this for you.
func (g *Grammar) Compile() error {
	if g == nil {
		return &GrammarError{Reason: "nil grammar"}
	}
	if len(g.Connectors) == 0 || len(g.Segmentors) == 0 {
		return grammarErrf(g.Name, "connectors and segmentors must each have at least one entry")
	}
	if overlap(g.Connectors, g.Segmentors) {
		return grammarErrf(g.Name, "connectors and segmentors overlap")
	}
	all := make([]string, 0,
		len(g.HHMMSSDelimiters)+len(g.DecimalDelimiters)+len(g.ThousandDelimiters)+len(g.FractionDelimiters))
	all = append(all, g.HHMMSSDelimiters...)
	all = append(all, g.DecimalDelimiters...)
	all = append(all, g.ThousandDelimiters...)
	all = append(all, g.FractionDelimiters...)
	seen := make(map[string]struct{}, len(all))
	for _, d := range all {
		if _, dup := seen[d]; dup {
			return grammarErrf(g.Name, "delimiter %q appears in more than one delimiter set", d)
		}
		seen[d] = struct{}{}
	}

	g.enabled = g.enabled[:0]
	for _, s := range g.Scales {
		if !s.Enabled {
			continue
		}
		if !s.valid() {
			return grammarErrf(g.Name, "enabled scale %q is missing required attributes", s.Singular)
		}
		g.enabled = append(g.enabled, s)
	}
	if len(g.enabled) == 0 {
		return grammarErrf(g.Name, "at least one scale must be enabled")
	}

	for _, n := range g.Numerals {
		if !n.valid() {
			return grammarErrf(g.Name, "numeral %q is missing required attributes", n.Name)
		}
	}

	backend := g.Backend
	if backend == "" {
		backend = DefaultBackend
	}
	fn, ok := lookupBackend(backend)
	if !ok {
		return grammarErrf(g.Name, "unknown parser backend %q", backend)
	}
	g.parse = fn

	// Lookup keys go through the same normalization as input, so
	// accented spellings in the config match their stripped forms.
	g.termScale = make(map[string]*Scale)
	for _, s := range g.enabled {
		for _, t := range s.Terms {
			g.termScale[normalize(t)] = s
		}
	}
	g.termNumeral = make(map[string]*Numeral)
	for _, n := range g.Numerals {
		for _, t := range n.Terms {
			g.termNumeral[normalize(t)] = n
		}
	}
	g.specialSet = make(map[string]struct{})
	for _, set := range [][]string{
		g.Connectors, g.Segmentors, g.AllowedTerms,
		g.HHMMSSDelimiters, g.DecimalDelimiters, g.ThousandDelimiters, g.FractionDelimiters,
	} {
		for _, t := range set {
			g.specialSet[normalize(t)] = struct{}{}
		}
	}

	// The base scale anchors HHMMSS runs and scale assumption: the scale
	// worth exactly one second, or the smallest enabled one without it.
	g.base = nil
	for i, s := range g.enabled {
		if s.Seconds == 1 {
			g.base, g.baseIndex = s, i
			break
		}
	}
	if g.base == nil {
		g.base, g.baseIndex = g.enabled[0], 0
	}
	return nil
}

func (g *Grammar) compiled() bool { return g != nil && g.parse != nil }

// ScaleNamed returns the enabled scale whose singular or plural form
// matches name, or nil.
func (g *Grammar) ScaleNamed(name string) *Scale {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range g.enabled {
		if strings.ToLower(s.Singular) == name || strings.ToLower(s.Plural) == name {
			return s
		}
	}
	return nil
}

// BaseScale returns the scale dangling values are assumed into: the
// one-second scale, or the smallest enabled scale if seconds are
// disabled.
func (g *Grammar) BaseScale() *Scale { return g.base }

// EnabledScales returns the enabled scales in ladder order.
func (g *Grammar) EnabledScales() []*Scale { return g.enabled }

func (g *Grammar) scaleFor(term string) *Scale {
	return g.termScale[strings.ToLower(term)]
}

func (g *Grammar) numeralFor(term string) *Numeral {
	return g.termNumeral[strings.ToLower(term)]
}

func (g *Grammar) isSpecial(term string) bool {
	_, ok := g.specialSet[strings.ToLower(term)]
	return ok
}

// scaleIndex returns the position of s within the enabled ladder, or -1.
func (g *Grammar) scaleIndex(s *Scale) int {
	for i, e := range g.enabled {
		if e == s {
			return i
		}
	}
	return -1
}

// delimiters returns every configured delimiter, all four sets together.
func (g *Grammar) delimiters() []string {
	out := make([]string, 0,
		len(g.HHMMSSDelimiters)+len(g.DecimalDelimiters)+len(g.ThousandDelimiters)+len(g.FractionDelimiters))
	out = append(out, g.HHMMSSDelimiters...)
	out = append(out, g.DecimalDelimiters...)
	out = append(out, g.ThousandDelimiters...)
	out = append(out, g.FractionDelimiters...)
	return out
}

func overlap(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// in reports membership of s in set.
func in(set []string, s string) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

// runeIn reports whether r equals any single-rune entry of set. Char
// level scanning only considers single-character separators; multi
// character terms like "and" are handled at the token level.
func runeIn(set []string, r rune) bool {
	for _, x := range set {
		rs := []rune(x)
		if len(rs) == 1 && rs[0] == r {
			return true
		}
	}
	return false
}
