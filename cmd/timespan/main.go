// Command timespan parses a human duration expression from the command
// line and prints the breakdown.
//
//	timespan "1 hour 30 minutes"
//	timespan -locale spanish "dos horas y media"
//	timespan -guess "veinte minutos"
//	timespan -strict "5 bananas 2 hours"
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"durabot/pkg/timespan"
)

func main() {
	var (
		locale  = flag.String("locale", "english", "grammar to parse with (built-in name or grammar file path)")
		guess   = flag.Bool("guess", false, "try every built-in grammar and keep the best parse")
		strict  = flag.Bool("strict", false, "fail on any unparsable content")
		showDur = flag.Bool("go", false, "also print the value as a Go time.Duration")
	)
	flag.Parse()

	input := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if input == "" {
		fmt.Fprintln(os.Stderr, "usage: timespan [-locale name|-guess] [-strict] <expression>")
		os.Exit(2)
	}

	ts, err := parse(input, *locale, *guess, *strict)
	if err != nil && ts == nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	res := ts.Result()
	fmt.Printf("input:   %q\n", res.Input)
	fmt.Printf("grammar: %s\n", ts.Grammar().Name)
	if len(res.Valid) > 0 {
		fmt.Println("valid:")
		for _, v := range res.Valid {
			fmt.Printf("  %s\n", v)
		}
	}
	if len(res.Invalid) > 0 {
		fmt.Println("invalid:")
		for _, iv := range res.Invalid {
			fmt.Printf("  %s\n", iv)
		}
	}
	fmt.Printf("seconds: %v\n", res.Seconds)
	fmt.Printf("span:    %s\n", ts)
	if *showDur {
		if d, derr := ts.Duration(); derr == nil {
			fmt.Printf("go:      %s\n", d)
		} else {
			fmt.Printf("go:      out of time.Duration range\n")
		}
	}
	if res.Success {
		if at, herr := ts.Hence(time.Now()); herr == nil {
			fmt.Printf("hence:   %s\n", at.Format("2006-01-02 15:04:05 MST"))
		}
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func parse(input, locale string, guess, strict bool) (*timespan.TimeSpan, error) {
	if guess {
		grammars := timespan.Builtin()
		if strict {
			for i, g := range grammars {
				grammars[i] = g.WithFlags(timespan.FlagsAll)
			}
		}
		return timespan.NewGuessed(input, grammars...)
	}

	g, err := grammarFor(locale)
	if err != nil {
		return nil, err
	}
	if strict {
		g = g.WithFlags(timespan.FlagsAll)
	}
	return timespan.New(input, g)
}

// grammarFor resolves -locale: a built-in grammar name first, then a
// grammar definition file path.
func grammarFor(locale string) (*timespan.Grammar, error) {
	name := strings.ToLower(strings.TrimSpace(locale))
	for _, g := range timespan.Builtin() {
		if g.Name == name {
			return g, nil
		}
	}
	g, err := timespan.LoadGrammarFile(locale)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("unknown locale %q (not a built-in grammar or readable file)", locale)
		}
		return nil, fmt.Errorf("load grammar %q: %w", locale, err)
	}
	return g, nil
}
