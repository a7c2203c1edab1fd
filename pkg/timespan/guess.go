package timespan

import (
	"errors"

	"golang.org/x/sync/errgroup"
)

// ErrNoGrammars is returned by Guess when no grammars were supplied.
var ErrNoGrammars = errors.New("timespan: no grammars to guess from")

// Guess parses input under every grammar concurrently and keeps the
// best outcome: fewest invalid entries, then most valid entries, then
// first grammar name in ascending order. The winning grammar is
// returned alongside its result; the error mirrors what ParseWith
// would have returned for that grammar.
func Guess(input string, grammars ...*Grammar) (Result, *Grammar, error) {
	if len(grammars) == 0 {
		return Result{Input: input}, nil, ErrNoGrammars
	}

	type outcome struct {
		res Result
		err error
	}
	outcomes := make([]outcome, len(grammars))

	var eg errgroup.Group
	for i, g := range grammars {
		i, g := i, g
		eg.Go(func() error {
			outcomes[i].res, outcomes[i].err = g.Parse(input)
			return nil
		})
	}
	eg.Wait()

	best := 0
	for i := 1; i < len(grammars); i++ {
		if betterGuess(outcomes[i].res, grammars[i], outcomes[best].res, grammars[best]) {
			best = i
		}
	}
	return outcomes[best].res, grammars[best], outcomes[best].err
}

// betterGuess reports whether candidate a beats the incumbent b.
func betterGuess(a Result, ga *Grammar, b Result, gb *Grammar) bool {
	if len(a.Invalid) != len(b.Invalid) {
		return len(a.Invalid) < len(b.Invalid)
	}
	if len(a.Valid) != len(b.Valid) {
		return len(a.Valid) > len(b.Valid)
	}
	return ga.Name < gb.Name
}
