package bot

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"durabot/internal/scheduler"
	"durabot/internal/storage"
	kit "durabot/internal/transport"
	logx "durabot/pkg/logx"
)

type fakeAdapter struct {
	mu    sync.Mutex
	sends []string
	chats []int64
}

func (f *fakeAdapter) Start(ctx context.Context, out chan<- kit.Update) error { return nil }
func (f *fakeAdapter) Stop(ctx context.Context) error                         { return nil }

func (f *fakeAdapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, text)
	f.chats = append(f.chats, to.ChatID)
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(f.sends)}, nil
}

func (f *fakeAdapter) last(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sends) == 0 {
		t.Fatalf("no message sent")
	}
	return f.sends[len(f.sends)-1]
}

func (f *fakeAdapter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

func newTestBot(t *testing.T, cfg Config) (*Bot, *fakeAdapter, *storage.Store) {
	t.Helper()
	store, err := storage.Open(storage.Config{
		Path: filepath.Join(t.TempDir(), "bot.db"),
	}, logx.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	adapter := &fakeAdapter{}
	var b *Bot
	sched := scheduler.New(scheduler.Config{Workers: 1}, store,
		func(ctx context.Context, r storage.Reminder) error { return b.Deliver(ctx, r) },
		logx.Nop())
	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("start scheduler: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		sched.Stop(ctx)
	})

	b = New(cfg, Deps{Adapter: adapter, Store: store, Scheduler: sched, Log: logx.Nop()})
	return b, adapter, store
}

func msg(chatID int64, text string) *kit.Message {
	return &kit.Message{ID: 1, ChatID: chatID, FromID: 7, Text: text}
}

func TestSplitCommand(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in, cmd, args string
	}{
		{"/remind 5 min tea", "remind", "5 min tea"},
		{"/remind@durabot 5 min tea", "remind", "5 min tea"},
		{"/LIST", "list", ""},
		{"hello there", "", ""},
		{"  /help  ", "help", ""},
	}
	for _, tc := range cases {
		cmd, args := splitCommand(tc.in)
		if cmd != tc.cmd || args != tc.args {
			t.Fatalf("splitCommand(%q) = (%q, %q), want (%q, %q)",
				tc.in, cmd, args, tc.cmd, tc.args)
		}
	}
}

func TestRemindStoresAndConfirms(t *testing.T) {
	t.Parallel()
	b, adapter, store := newTestBot(t, Config{Locale: "english"})
	ctx := context.Background()

	b.handleMessage(ctx, msg(11, "/remind 1 hour 30 minutes stretch your legs"))

	reply := adapter.last(t)
	if !strings.Contains(reply, "stretch your legs") {
		t.Fatalf("confirmation %q does not echo the text", reply)
	}
	pending, err := store.Pending(ctx, 11)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	r := pending[0]
	if r.Kind != storage.KindOnce || r.Text != "stretch your legs" {
		t.Fatalf("stored reminder = %+v", r)
	}
	want := time.Now().Add(90 * time.Minute)
	if diff := r.DueAt.Sub(want); diff < -5*time.Second || diff > 5*time.Second {
		t.Fatalf("due at %v, want about %v", r.DueAt, want)
	}
}

func TestRemindRejectsGarbage(t *testing.T) {
	t.Parallel()
	b, adapter, store := newTestBot(t, Config{Locale: "english"})
	ctx := context.Background()

	b.handleMessage(ctx, msg(12, "/remind soonish maybe"))

	reply := adapter.last(t)
	if !strings.Contains(reply, "could not parse") && !strings.Contains(reply, "no duration") {
		t.Fatalf("unexpected reply %q", reply)
	}
	pending, err := store.Pending(ctx, 12)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("garbage created %d reminders", len(pending))
	}
}

func TestEveryEnforcesMinimumInterval(t *testing.T) {
	t.Parallel()
	b, adapter, _ := newTestBot(t, Config{Locale: "english"})
	ctx := context.Background()

	b.handleMessage(ctx, msg(13, "/every 2 seconds ping"))

	if reply := adapter.last(t); !strings.Contains(reply, "at least") {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestEveryCron(t *testing.T) {
	t.Parallel()
	b, adapter, store := newTestBot(t, Config{Locale: "english"})
	ctx := context.Background()

	b.handleMessage(ctx, msg(14, "/every cron 0 9 * * 1-5 standup"))

	reply := adapter.last(t)
	if !strings.Contains(reply, "standup") || !strings.Contains(reply, "next fire") {
		t.Fatalf("unexpected reply %q", reply)
	}
	pending, err := store.Pending(ctx, 14)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Kind != storage.KindCron {
		t.Fatalf("stored = %+v", pending)
	}

	b.handleMessage(ctx, msg(14, "/every cron 61 * * * * broken"))
	if reply := adapter.last(t); !strings.Contains(reply, "bad cron spec") {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestCancelIsChatScoped(t *testing.T) {
	t.Parallel()
	b, adapter, store := newTestBot(t, Config{Locale: "english"})
	ctx := context.Background()

	b.handleMessage(ctx, msg(15, "/remind 1 hour tea"))
	pending, err := store.Pending(ctx, 15)
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending = %v, %v", pending, err)
	}
	id := pending[0].ID

	b.handleMessage(ctx, msg(99, "/cancel "+itoa(id)))
	if reply := adapter.last(t); !strings.Contains(reply, "no reminder") {
		t.Fatalf("cross-chat cancel replied %q", reply)
	}

	b.handleMessage(ctx, msg(15, "/cancel "+itoa(id)))
	if reply := adapter.last(t); !strings.Contains(reply, "cancelled") {
		t.Fatalf("cancel replied %q", reply)
	}
	pending, err = store.Pending(ctx, 15)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("reminder survived cancel: %v", pending)
	}
}

func TestListFormatsKinds(t *testing.T) {
	t.Parallel()
	b, adapter, _ := newTestBot(t, Config{Locale: "english"})
	ctx := context.Background()

	b.handleMessage(ctx, msg(16, "/list"))
	if reply := adapter.last(t); reply != "no pending reminders" {
		t.Fatalf("empty list replied %q", reply)
	}

	b.handleMessage(ctx, msg(16, "/remind 2 hours tea"))
	b.handleMessage(ctx, msg(16, "/every 15 minutes water"))
	b.handleMessage(ctx, msg(16, "/list"))

	reply := adapter.last(t)
	if !strings.Contains(reply, "tea") || !strings.Contains(reply, "water") {
		t.Fatalf("list reply %q", reply)
	}
	if !strings.Contains(reply, "every 900") {
		t.Fatalf("list reply %q missing the interval", reply)
	}
}

func TestWhenExplainsParse(t *testing.T) {
	t.Parallel()
	b, adapter, _ := newTestBot(t, Config{Locale: "english"})
	ctx := context.Background()

	b.handleMessage(ctx, msg(17, "/when 1h 30m"))
	reply := adapter.last(t)
	if !strings.Contains(reply, "parsed: yes") {
		t.Fatalf("when reply %q", reply)
	}
	if !strings.Contains(reply, "5400") {
		t.Fatalf("when reply %q missing total seconds", reply)
	}
	if !strings.Contains(reply, "locale: english") {
		t.Fatalf("when reply %q missing locale", reply)
	}
}

func TestLocalePersistsAndChangesParsing(t *testing.T) {
	t.Parallel()
	// The sender is an owner so the burst of commands is not throttled.
	b, adapter, store := newTestBot(t, Config{Locale: "english", Owners: []int64{7}})
	ctx := context.Background()

	b.handleMessage(ctx, msg(18, "/locale klingon"))
	if reply := adapter.last(t); !strings.Contains(reply, "unknown locale") {
		t.Fatalf("bad locale replied %q", reply)
	}

	b.handleMessage(ctx, msg(18, "/locale spanish"))
	if reply := adapter.last(t); !strings.Contains(reply, "locale set to spanish") {
		t.Fatalf("locale reply %q", reply)
	}
	if loc, ok, err := store.ChatLocale(ctx, 18); err != nil || !ok || loc != "spanish" {
		t.Fatalf("stored locale = %q, %v, %v", loc, ok, err)
	}

	b.handleMessage(ctx, msg(18, "/when dos horas"))
	if reply := adapter.last(t); !strings.Contains(reply, "7200") {
		t.Fatalf("spanish parse reply %q", reply)
	}

	b.handleMessage(ctx, msg(18, "/locale guess"))
	if reply := adapter.last(t); !strings.Contains(reply, "locale set to guess") {
		t.Fatalf("guess reply %q", reply)
	}
	b.handleMessage(ctx, msg(18, "/when 2 hours"))
	if reply := adapter.last(t); !strings.Contains(reply, "7200") {
		t.Fatalf("guessed parse reply %q", reply)
	}
}

func TestOwnersBypassRateLimit(t *testing.T) {
	t.Parallel()
	b, adapter, _ := newTestBot(t, Config{Locale: "english", Owners: []int64{7}})
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		b.handleMessage(ctx, msg(19, "/list"))
	}
	if got := adapter.count(); got != 20 {
		t.Fatalf("owner got %d replies, want 20", got)
	}
}

func TestRateLimitDropsBursts(t *testing.T) {
	t.Parallel()
	b, adapter, _ := newTestBot(t, Config{Locale: "english"})
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		b.handleMessage(ctx, msg(20, "/list"))
	}
	if got := adapter.count(); got >= 20 {
		t.Fatalf("limiter let all %d replies through", got)
	}
}

func TestHelp(t *testing.T) {
	t.Parallel()
	b, adapter, _ := newTestBot(t, Config{Locale: "english"})
	ctx := context.Background()

	b.handleMessage(ctx, msg(21, "/help"))
	if reply := adapter.last(t); !strings.Contains(reply, "/remind") {
		t.Fatalf("help reply %q", reply)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
