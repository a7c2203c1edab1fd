package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"durabot/internal/scheduler"
	"durabot/internal/storage"
	kit "durabot/internal/transport"
	logx "durabot/pkg/logx"
	"durabot/pkg/timespan"
)

// guessLocale is the per-chat locale value meaning "pick the best
// grammar per message".
const guessLocale = "guess"

const defaultMaxInputLen = 512

// Config is the parser-facing part of the bot, swappable on config
// hot reload via Apply.
type Config struct {
	Owners []int64

	// Locale is the default grammar for chats with no /locale choice.
	Locale string
	// Guess lists candidate grammar names for guessing; empty means all.
	Guess []string

	// Flags overrides the grammar's default failure policy (nil keeps it).
	Flags *timespan.FailureFlags
	// Settings overrides the grammar's default settings (nil keeps them).
	Settings *timespan.Settings

	MaxInputLen int
}

type Deps struct {
	Adapter   kit.Adapter
	Store     *storage.Store
	Scheduler *scheduler.Service
	Log       logx.Logger
}

// Bot routes chat commands onto the parsing engine, storage and the
// scheduler.
type Bot struct {
	adapter kit.Adapter
	store   *storage.Store
	sched   *scheduler.Service
	log     logx.Logger

	mu       sync.RWMutex
	cfg      Config
	grammars map[string]*timespan.Grammar

	limMu    sync.Mutex
	limiters map[int64]*rate.Limiter
}

func New(cfg Config, deps Deps) *Bot {
	log := deps.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	b := &Bot{
		adapter:  deps.Adapter,
		store:    deps.Store,
		sched:    deps.Scheduler,
		log:      log,
		cfg:      cfg,
		grammars: map[string]*timespan.Grammar{},
		limiters: map[int64]*rate.Limiter{},
	}
	for _, g := range timespan.Builtin() {
		b.grammars[g.Name] = g
	}
	return b
}

// Apply swaps the parser config at runtime.
func (b *Bot) Apply(cfg Config) {
	b.mu.Lock()
	b.cfg = cfg
	b.mu.Unlock()
}

// SetGrammars replaces the extra (non-builtin) grammar catalog, keyed
// by grammar name. Builtins stay available unless shadowed.
func (b *Bot) SetGrammars(extra map[string]*timespan.Grammar) {
	next := map[string]*timespan.Grammar{}
	for _, g := range timespan.Builtin() {
		next[g.Name] = g
	}
	for name, g := range extra {
		next[name] = g
	}
	b.mu.Lock()
	b.grammars = next
	b.mu.Unlock()
}

func (b *Bot) grammarNames() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.grammars))
	for name := range b.grammars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (b *Bot) grammarNamed(name string) (*timespan.Grammar, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	g, ok := b.grammars[strings.ToLower(strings.TrimSpace(name))]
	return g, ok
}

func (b *Bot) config() Config {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cfg
}

// Commands lists the bot's command menu.
func (b *Bot) Commands() []kit.BotCommand {
	return []kit.BotCommand{
		{Command: "/remind", Description: "one-shot reminder: /remind <duration> <text>"},
		{Command: "/every", Description: "recurring reminder: /every <duration>|cron <spec> <text>"},
		{Command: "/cancel", Description: "cancel a reminder by id"},
		{Command: "/list", Description: "list pending reminders"},
		{Command: "/when", Description: "explain how a duration parses"},
		{Command: "/locale", Description: "choose the parsing locale"},
		{Command: "/help", Description: "usage"},
	}
}

// Run consumes updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context, updates <-chan kit.Update) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			if up.Message == nil {
				continue
			}
			b.handleMessage(ctx, up.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, m *kit.Message) {
	cmd, args := splitCommand(m.Text)
	if cmd == "" {
		return
	}
	if !b.allow(m) {
		b.log.Debug("rate limited", logx.Int64("chat", m.ChatID), logx.String("cmd", cmd))
		return
	}

	var err error
	switch cmd {
	case "remind":
		err = b.handleRemind(ctx, m, args)
	case "every":
		err = b.handleEvery(ctx, m, args)
	case "cancel":
		err = b.handleCancel(ctx, m, args)
	case "list":
		err = b.handleList(ctx, m)
	case "when":
		err = b.handleWhen(ctx, m, args)
	case "locale":
		err = b.handleLocale(ctx, m, args)
	case "help", "start":
		err = b.reply(ctx, m, helpText)
	default:
		return
	}
	if err != nil {
		b.log.Warn("command failed",
			logx.String("cmd", cmd),
			logx.Int64("chat", m.ChatID),
			logx.Err(err))
	}
}

// allow applies the per-chat limiter. Owners are never throttled.
func (b *Bot) allow(m *kit.Message) bool {
	cfg := b.config()
	for _, id := range cfg.Owners {
		if id == m.FromID {
			return true
		}
	}
	b.limMu.Lock()
	lim, ok := b.limiters[m.ChatID]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(2), 4)
		b.limiters[m.ChatID] = lim
	}
	b.limMu.Unlock()
	return lim.Allow()
}

func (b *Bot) reply(ctx context.Context, m *kit.Message, text string) error {
	_, err := b.adapter.SendText(ctx,
		kit.ChatTarget{ChatID: m.ChatID, ThreadID: m.ThreadID},
		text, nil)
	return err
}

// Deliver is the scheduler's delivery hook.
func (b *Bot) Deliver(ctx context.Context, r storage.Reminder) error {
	text := r.Text
	if text == "" {
		text = "(no text)"
	}
	_, err := b.adapter.SendText(ctx,
		kit.ChatTarget{ChatID: r.ChatID},
		fmt.Sprintf("⏰ Reminder #%d: %s", r.ID, text), nil)
	return err
}

// splitCommand extracts ("remind", "rest of line") from "/remind@bot rest
// of line". Non-commands return "".
func splitCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	head, rest, _ := strings.Cut(text[1:], " ")
	if at := strings.IndexByte(head, '@'); at >= 0 {
		head = head[:at]
	}
	return strings.ToLower(head), strings.TrimSpace(rest)
}
