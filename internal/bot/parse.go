package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"durabot/pkg/timespan"
)

var errInputTooLong = errors.New("expression too long")

// chatGrammar resolves the grammar for a chat: its stored /locale
// choice, then the configured default, then english. guessing reports
// that the chat asked for per-message guessing instead.
func (b *Bot) chatGrammar(ctx context.Context, chatID int64) (g *timespan.Grammar, guessing bool) {
	cfg := b.config()

	if b.store != nil {
		if loc, ok, err := b.store.ChatLocale(ctx, chatID); err == nil && ok {
			if loc == guessLocale {
				return nil, true
			}
			if g, ok := b.grammarNamed(loc); ok {
				return b.withOverrides(g), false
			}
			// Stored locale no longer exists (grammar dir changed);
			// fall through to defaults.
		}
	}

	if cfg.Locale == guessLocale {
		return nil, true
	}
	if g, ok := b.grammarNamed(cfg.Locale); ok {
		return b.withOverrides(g), false
	}
	return b.withOverrides(timespan.English()), false
}

// withOverrides layers the config's strictness/settings over a grammar.
func (b *Bot) withOverrides(g *timespan.Grammar) *timespan.Grammar {
	cfg := b.config()
	if cfg.Flags != nil {
		g = g.WithFlags(*cfg.Flags)
	}
	if cfg.Settings != nil {
		g = g.WithSettings(*cfg.Settings)
	}
	return g
}

// guessCandidates resolves the configured guess list to grammars.
func (b *Bot) guessCandidates() []*timespan.Grammar {
	cfg := b.config()
	names := cfg.Guess
	if len(names) == 0 {
		names = b.grammarNames()
	}
	out := make([]*timespan.Grammar, 0, len(names))
	for _, name := range names {
		if g, ok := b.grammarNamed(name); ok {
			out = append(out, b.withOverrides(g))
		}
	}
	if len(out) == 0 {
		out = append(out, b.withOverrides(timespan.English()))
	}
	return out
}

// parseSpan parses one duration expression for a chat.
func (b *Bot) parseSpan(ctx context.Context, chatID int64, expr string) (*timespan.TimeSpan, error) {
	maxLen := b.config().MaxInputLen
	if maxLen <= 0 {
		maxLen = defaultMaxInputLen
	}
	if len(expr) > maxLen {
		return nil, fmt.Errorf("%w (%d > %d bytes)", errInputTooLong, len(expr), maxLen)
	}

	g, guessing := b.chatGrammar(ctx, chatID)
	if guessing {
		return timespan.NewGuessed(expr, b.guessCandidates()...)
	}
	return timespan.New(expr, g)
}

// splitSpan finds the longest word prefix of args that parses cleanly
// as a duration and returns it with the remaining text. Clean means no
// invalid entries at all: a lenient grammar would otherwise swallow the
// reminder text as ignorable noise.
func (b *Bot) splitSpan(ctx context.Context, chatID int64, args string) (*timespan.TimeSpan, string, string, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return nil, "", "", errors.New("empty expression")
	}

	var (
		fullErr  error
		fullSpan *timespan.TimeSpan
	)
	for i := len(fields); i >= 1; i-- {
		expr := strings.Join(fields[:i], " ")
		ts, err := b.parseSpan(ctx, chatID, expr)
		if i == len(fields) {
			fullErr, fullSpan = err, ts
		}
		if err == nil && ts != nil && len(ts.Result().Invalid) == 0 && ts.Result().Success {
			return ts, expr, strings.Join(fields[i:], " "), nil
		}
	}

	// Nothing split cleanly; report what the whole input looked like.
	if fullErr != nil {
		return nil, "", "", fullErr
	}
	if fullSpan != nil {
		return nil, "", "", &timespan.ParseError{
			Input:   args,
			Flags:   fullSpan.Result().TriggeredFlags(),
			Invalid: fullSpan.Result().Invalid,
		}
	}
	return nil, "", "", errors.New("no duration found")
}
