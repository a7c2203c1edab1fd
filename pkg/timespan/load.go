package timespan

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	yaml "go.yaml.in/yaml/v3"
)

//go:embed locales/*.json
var localeFS embed.FS

// grammarFile is the on-disk grammar schema. Grammar files are JSON;
// LoadGrammarFile also accepts YAML, which is coerced to JSON so both
// formats go through the same strict decoder.
type grammarFile struct {
	Name               string         `json:"name"`
	Backend            string         `json:"backend,omitempty"`
	Flags              []string       `json:"flags,omitempty"`
	Settings           *settingsFile  `json:"settings,omitempty"`
	Connectors         []string       `json:"connectors"`
	Segmentors         []string       `json:"segmentors"`
	AllowedTerms       []string       `json:"allowed_terms,omitempty"`
	HHMMSSDelimiters   []string       `json:"hhmmss_delimiters,omitempty"`
	DecimalDelimiters  []string       `json:"decimal_delimiters,omitempty"`
	ThousandDelimiters []string       `json:"thousand_delimiters,omitempty"`
	FractionDelimiters []string       `json:"fraction_delimiters,omitempty"`
	Scales             []scaleFile    `json:"scales"`
	Numerals           []numeralFile  `json:"numerals,omitempty"`
	Extra              map[string]any `json:"extra,omitempty"`
}

type settingsFile struct {
	AssumeScale                 string `json:"assume_scale,omitempty"`
	LimitAllowedTerms           *bool  `json:"limit_allowed_terms,omitempty"`
	AllowDuplicateScales        *bool  `json:"allow_duplicate_scales,omitempty"`
	AllowThousandsExtraDigits   *bool  `json:"allow_thousands_extra_digits,omitempty"`
	AllowThousandsLackingDigits *bool  `json:"allow_thousands_lacking_digits,omitempty"`
	AllowDecimalsLackingDigits  *bool  `json:"allow_decimals_lacking_digits,omitempty"`
}

type scaleFile struct {
	Seconds  float64  `json:"seconds"`
	Singular string   `json:"singular"`
	Plural   string   `json:"plural"`
	Terms    []string `json:"terms"`
	Disabled bool     `json:"disabled,omitempty"`
}

type numeralFile struct {
	Name  string          `json:"name"`
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value,omitempty"`
	Terms []string        `json:"terms"`
}

// numeralValue accepts a plain number or a "numerator/denominator"
// string, so thirds and the like keep an exact source form.
func numeralValue(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("value %s is neither a number nor a string", raw)
	}
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not a number", s)
		}
		return f, nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, fmt.Errorf("value %q has a bad numerator", s)
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
	if err != nil || d == 0 {
		return 0, fmt.Errorf("value %q has a bad denominator", s)
	}
	return n / d, nil
}

func (f *grammarFile) build() (*Grammar, error) {
	g := &Grammar{
		Name:               f.Name,
		Backend:            f.Backend,
		Connectors:         f.Connectors,
		Segmentors:         f.Segmentors,
		AllowedTerms:       f.AllowedTerms,
		HHMMSSDelimiters:   f.HHMMSSDelimiters,
		DecimalDelimiters:  f.DecimalDelimiters,
		ThousandDelimiters: f.ThousandDelimiters,
		FractionDelimiters: f.FractionDelimiters,
		Settings:           DefaultSettings(),
		Extra:              f.Extra,
	}
	flags, ok := ParseFailureFlags(f.Flags)
	if !ok {
		return nil, fmt.Errorf("grammar %q: unrecognized failure flag in %v", f.Name, f.Flags)
	}
	g.Flags = flags
	if f.Settings != nil {
		s := f.Settings
		if s.AssumeScale != "" {
			as, ok := ParseAssumeScale(s.AssumeScale)
			if !ok {
				return nil, fmt.Errorf("grammar %q: unrecognized assume_scale %q", f.Name, s.AssumeScale)
			}
			g.Settings.AssumeScale = as
		}
		setBool := func(dst *bool, src *bool) {
			if src != nil {
				*dst = *src
			}
		}
		setBool(&g.Settings.LimitAllowedTerms, s.LimitAllowedTerms)
		setBool(&g.Settings.AllowDuplicateScales, s.AllowDuplicateScales)
		setBool(&g.Settings.AllowThousandsExtraDigits, s.AllowThousandsExtraDigits)
		setBool(&g.Settings.AllowThousandsLackingDigits, s.AllowThousandsLackingDigits)
		setBool(&g.Settings.AllowDecimalsLackingDigits, s.AllowDecimalsLackingDigits)
	}
	for _, sf := range f.Scales {
		g.Scales = append(g.Scales, &Scale{
			Seconds:  sf.Seconds,
			Singular: sf.Singular,
			Plural:   sf.Plural,
			Terms:    sf.Terms,
			Enabled:  !sf.Disabled,
		})
	}
	for _, nf := range f.Numerals {
		kind, ok := ParseNumeralKind(nf.Kind)
		if !ok {
			return nil, fmt.Errorf("grammar %q, numeral %q: unrecognized kind %q", f.Name, nf.Name, nf.Kind)
		}
		val, err := numeralValue(nf.Value)
		if err != nil {
			return nil, fmt.Errorf("grammar %q, numeral %q: %w", f.Name, nf.Name, err)
		}
		g.Numerals = append(g.Numerals, &Numeral{
			Name:  nf.Name,
			Kind:  kind,
			Value: val,
			Terms: nf.Terms,
		})
	}
	if err := g.Compile(); err != nil {
		return nil, err
	}
	return g, nil
}

// ParseGrammar builds a grammar from JSON data. Unknown fields are
// rejected so typos in hand-written grammar files surface immediately.
func ParseGrammar(data []byte) (*Grammar, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var f grammarFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode grammar: %w", err)
	}
	return f.build()
}

// LoadGrammarFile reads a grammar from a JSON or YAML file. YAML is
// converted to JSON first so both formats share strict decoding.
func LoadGrammarFile(path string) (*Grammar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read grammar: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("read grammar %s: %w", path, err)
		}
	}
	return ParseGrammar(data)
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

func mustEmbedded(name string) *Grammar {
	data, err := localeFS.ReadFile("locales/" + name + ".json")
	if err != nil {
		panic("timespan: missing embedded grammar " + name + ": " + err.Error())
	}
	g, err := ParseGrammar(data)
	if err != nil {
		panic("timespan: bad embedded grammar " + name + ": " + err.Error())
	}
	return g
}

var (
	englishOnce = sync.OnceValue(func() *Grammar { return mustEmbedded("english") })
	spanishOnce = sync.OnceValue(func() *Grammar { return mustEmbedded("spanish") })
)

// English returns the built-in English grammar. The returned grammar is
// shared; use WithFlags or WithSettings for per-caller variants.
func English() *Grammar { return englishOnce() }

// Spanish returns the built-in Spanish grammar.
func Spanish() *Grammar { return spanishOnce() }

// Builtin returns every embedded grammar, for use with Guess.
func Builtin() []*Grammar {
	return []*Grammar{English(), Spanish()}
}

// WithFlags returns a copy of g whose default failure flags are f.
// The compiled lookup tables are shared with g.
func (g *Grammar) WithFlags(f FailureFlags) *Grammar {
	c := *g
	c.Flags = f
	return &c
}

// WithSettings returns a copy of g with different default settings.
func (g *Grammar) WithSettings(s Settings) *Grammar {
	c := *g
	c.Settings = s
	return &c
}
