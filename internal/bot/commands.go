package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"durabot/internal/storage"
	kit "durabot/internal/transport"
	"durabot/pkg/timespan"
)

const helpText = `durabot — reminders in plain language

/remind <duration> <text> — one-shot reminder
    /remind 1 hour 30 minutes stretch
    /remind half an hour tea
/every <duration> <text> — recurring reminder
    /every 2 hours drink water
/every cron <m h dom mon dow> <text> — cron reminder
    /every cron 0 9 * * 1-5 standup
/cancel <id> — cancel a reminder
/list — pending reminders in this chat
/when <duration> — show how an expression parses
/locale <name|guess> — pick the parsing locale`

// minEveryInterval keeps recurring reminders from spamming the chat.
const minEveryInterval = 10 * time.Second

const timeLayout = "2006-01-02 15:04:05 MST"

func (b *Bot) handleRemind(ctx context.Context, m *kit.Message, args string) error {
	if strings.TrimSpace(args) == "" {
		return b.reply(ctx, m, "usage: /remind <duration> <text>")
	}
	ts, expr, text, err := b.splitSpan(ctx, m.ChatID, args)
	if err != nil {
		return b.reply(ctx, m, parseFailureText(err))
	}
	if ts.Seconds() <= 0 {
		return b.reply(ctx, m, "the duration must be positive")
	}
	due, err := ts.Hence(time.Now())
	if err != nil {
		return b.reply(ctx, m, "that duration is too large to schedule")
	}
	if text == "" {
		text = "Reminder"
	}

	r := storage.Reminder{
		ChatID: m.ChatID,
		Kind:   storage.KindOnce,
		Text:   text,
		Spec:   expr,
		DueAt:  due,
	}
	id, err := b.store.AddReminder(ctx, r)
	if err != nil {
		return fmt.Errorf("store reminder: %w", err)
	}
	r.ID = id
	if err := b.sched.Schedule(r); err != nil {
		_, _ = b.store.Delete(ctx, m.ChatID, id)
		return fmt.Errorf("schedule reminder: %w", err)
	}

	return b.reply(ctx, m, fmt.Sprintf("#%d in %s (at %s): %s",
		id, ts, due.Format(timeLayout), text))
}

func (b *Bot) handleEvery(ctx context.Context, m *kit.Message, args string) error {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return b.reply(ctx, m, "usage: /every <duration> <text> or /every cron <m h dom mon dow> <text>")
	}

	if strings.EqualFold(fields[0], "cron") {
		return b.handleEveryCron(ctx, m, fields[1:])
	}

	ts, expr, text, err := b.splitSpan(ctx, m.ChatID, args)
	if err != nil {
		return b.reply(ctx, m, parseFailureText(err))
	}
	if ts.Seconds() < minEveryInterval.Seconds() {
		return b.reply(ctx, m, fmt.Sprintf("the interval must be at least %s", minEveryInterval))
	}
	if text == "" {
		text = "Reminder"
	}

	r := storage.Reminder{
		ChatID:       m.ChatID,
		Kind:         storage.KindEvery,
		Text:         text,
		Spec:         expr,
		EverySeconds: ts.Seconds(),
	}
	id, err := b.store.AddReminder(ctx, r)
	if err != nil {
		return fmt.Errorf("store reminder: %w", err)
	}
	r.ID = id
	if err := b.sched.Schedule(r); err != nil {
		_, _ = b.store.Delete(ctx, m.ChatID, id)
		return fmt.Errorf("schedule reminder: %w", err)
	}

	return b.reply(ctx, m, fmt.Sprintf("#%d every %s: %s", id, ts, text))
}

func (b *Bot) handleEveryCron(ctx context.Context, m *kit.Message, fields []string) error {
	if len(fields) < 5 {
		return b.reply(ctx, m, "usage: /every cron <m h dom mon dow> <text>")
	}
	spec := strings.Join(fields[:5], " ")
	text := strings.Join(fields[5:], " ")
	if err := b.sched.ValidateCron(spec); err != nil {
		return b.reply(ctx, m, fmt.Sprintf("bad cron spec %q: %v", spec, err))
	}
	if text == "" {
		text = "Reminder"
	}

	r := storage.Reminder{
		ChatID:   m.ChatID,
		Kind:     storage.KindCron,
		Text:     text,
		Spec:     spec,
		CronSpec: spec,
	}
	id, err := b.store.AddReminder(ctx, r)
	if err != nil {
		return fmt.Errorf("store reminder: %w", err)
	}
	r.ID = id
	if err := b.sched.Schedule(r); err != nil {
		_, _ = b.store.Delete(ctx, m.ChatID, id)
		return fmt.Errorf("schedule reminder: %w", err)
	}

	reply := fmt.Sprintf("#%d on cron %q: %s", id, spec, text)
	if next, ok := b.sched.Next(id); ok {
		reply += fmt.Sprintf("\nnext fire: %s", next.Format(timeLayout))
	}
	return b.reply(ctx, m, reply)
}

func (b *Bot) handleCancel(ctx context.Context, m *kit.Message, args string) error {
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil || id <= 0 {
		return b.reply(ctx, m, "usage: /cancel <id>")
	}
	ok, err := b.store.Delete(ctx, m.ChatID, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	if !ok {
		return b.reply(ctx, m, fmt.Sprintf("no reminder #%d in this chat", id))
	}
	b.sched.Cancel(id)
	return b.reply(ctx, m, fmt.Sprintf("cancelled #%d", id))
}

func (b *Bot) handleList(ctx context.Context, m *kit.Message) error {
	pending, err := b.store.Pending(ctx, m.ChatID)
	if err != nil {
		return fmt.Errorf("list reminders: %w", err)
	}
	if len(pending) == 0 {
		return b.reply(ctx, m, "no pending reminders")
	}

	var sb strings.Builder
	for i, r := range pending {
		if i > 0 {
			sb.WriteByte('\n')
		}
		switch r.Kind {
		case storage.KindOnce:
			fmt.Fprintf(&sb, "#%d at %s: %s", r.ID, r.DueAt.Format(timeLayout), r.Text)
		case storage.KindEvery:
			fmt.Fprintf(&sb, "#%d every %s: %s", r.ID, formatSeconds(r.EverySeconds), r.Text)
		case storage.KindCron:
			fmt.Fprintf(&sb, "#%d cron %q: %s", r.ID, r.CronSpec, r.Text)
		}
		if r.Spec != "" {
			fmt.Fprintf(&sb, " (%q)", r.Spec)
		}
	}
	return b.reply(ctx, m, sb.String())
}

func (b *Bot) handleWhen(ctx context.Context, m *kit.Message, args string) error {
	if strings.TrimSpace(args) == "" {
		return b.reply(ctx, m, "usage: /when <duration>")
	}
	ts, err := b.parseSpan(ctx, m.ChatID, args)
	if ts == nil {
		if err != nil {
			return b.reply(ctx, m, parseFailureText(err))
		}
		return b.reply(ctx, m, "nothing to parse")
	}
	return b.reply(ctx, m, explainText(ts))
}

func (b *Bot) handleLocale(ctx context.Context, m *kit.Message, args string) error {
	name := strings.ToLower(strings.TrimSpace(args))
	if name == "" {
		current := b.config().Locale
		if loc, ok, err := b.store.ChatLocale(ctx, m.ChatID); err == nil && ok {
			current = loc
		}
		return b.reply(ctx, m, fmt.Sprintf("locale: %s\navailable: %s, guess",
			current, strings.Join(b.grammarNames(), ", ")))
	}

	if name != guessLocale {
		if _, ok := b.grammarNamed(name); !ok {
			return b.reply(ctx, m, fmt.Sprintf("unknown locale %q (available: %s, guess)",
				name, strings.Join(b.grammarNames(), ", ")))
		}
	}
	if err := b.store.SetChatLocale(ctx, m.ChatID, name); err != nil {
		return fmt.Errorf("set locale: %w", err)
	}
	return b.reply(ctx, m, fmt.Sprintf("locale set to %s", name))
}

// parseFailureText renders a parse error for chat, listing the rejected
// fragments when available.
func parseFailureText(err error) string {
	var perr *timespan.ParseError
	if !errors.As(err, &perr) {
		return fmt.Sprintf("could not parse that: %v", err)
	}
	if len(perr.Invalid) == 0 {
		return fmt.Sprintf("no duration found in %q", perr.Input)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "could not parse %q:", perr.Input)
	for _, iv := range perr.Invalid {
		fmt.Fprintf(&sb, "\n- %q: %s", iv.Fragment, iv.Reason)
	}
	return sb.String()
}

// explainText is the /when breakdown: totals, the entry lists and a few
// conversions.
func explainText(ts *timespan.TimeSpan) string {
	res := ts.Result()
	var sb strings.Builder

	fmt.Fprintf(&sb, "input: %q\n", res.Input)
	fmt.Fprintf(&sb, "locale: %s\n", ts.Grammar().Name)
	if res.Success {
		sb.WriteString("parsed: yes\n")
	} else {
		sb.WriteString("parsed: no\n")
	}
	fmt.Fprintf(&sb, "total: %s (%s seconds)\n", ts, formatSeconds(res.Seconds))

	if len(res.Valid) > 0 {
		sb.WriteString("valid:\n")
		for _, v := range res.Valid {
			fmt.Fprintf(&sb, "- %s\n", v)
		}
	}
	if len(res.Invalid) > 0 {
		sb.WriteString("invalid:\n")
		for _, iv := range res.Invalid {
			fmt.Fprintf(&sb, "- %s\n", iv)
		}
	}

	if res.Success {
		if mins, err := ts.In("minutes"); err == nil {
			fmt.Fprintf(&sb, "= %s minutes\n", formatSeconds(mins))
		} else if mins, err := ts.In("minutos"); err == nil {
			fmt.Fprintf(&sb, "= %s minutos\n", formatSeconds(mins))
		}
		if at, err := ts.Hence(time.Now()); err == nil {
			fmt.Fprintf(&sb, "from now: %s", at.Format(timeLayout))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatSeconds renders a float without a trailing ".0".
func formatSeconds(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
