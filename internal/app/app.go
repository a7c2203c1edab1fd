package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"durabot/internal/bot"
	"durabot/internal/config"
	"durabot/internal/scheduler"
	"durabot/internal/storage"
	kit "durabot/internal/transport"
	"durabot/internal/transport/telegram"
	logx "durabot/pkg/logx"
	"durabot/pkg/timespan"
)

const updateBuffer = 64

// App wires config, logging, storage, the telegram adapter, the
// scheduler and the bot together, and owns their lifecycles.
type App struct {
	cfgm *config.Manager
	logs *logx.Service
	log  logx.Logger

	store   *storage.Store
	adapter *telegram.Adapter
	sched   *scheduler.Service
	bot     *bot.Bot

	updates chan kit.Update

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New loads the config at path and constructs every component. Nothing
// is started yet; Start begins polling and scheduling.
func New(path string) (*App, error) {
	cfgm := config.NewManager(path)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logs, root := logx.New(logxConfig(cfg.Logging))
	log := root.With(logx.String("component", "app"))
	cfgm.SetLogger(root.With(logx.String("component", "config")))

	fail := func(err error) (*App, error) {
		_ = logs.Close()
		return nil, err
	}

	busy, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 5*time.Second)
	if err != nil {
		return fail(err)
	}
	store, err := storage.Open(storage.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, root.With(logx.String("component", "storage")))
	if err != nil {
		return fail(fmt.Errorf("open storage: %w", err))
	}

	poll, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		_ = store.Close()
		return fail(err)
	}
	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: poll,
	}, root.With(logx.String("component", "telegram")))
	if err != nil {
		_ = store.Close()
		return fail(fmt.Errorf("telegram adapter: %w", err))
	}

	prune, err := config.ParseDurationOrDefault("scheduler.prune_after", cfg.Scheduler.PruneAfter, 24*time.Hour)
	if err != nil {
		_ = store.Close()
		return fail(err)
	}

	// The scheduler delivers through the bot; the bot schedules through
	// the scheduler. Break the cycle with a late-bound closure.
	var b *bot.Bot
	sched := scheduler.New(scheduler.Config{
		Workers:    cfg.Scheduler.Workers,
		Timezone:   cfg.Scheduler.Timezone,
		PruneAfter: prune,
	}, store, func(ctx context.Context, r storage.Reminder) error {
		return b.Deliver(ctx, r)
	}, root.With(logx.String("component", "scheduler")))

	b = bot.New(botConfig(cfg), bot.Deps{
		Adapter:   adapter,
		Store:     store,
		Scheduler: sched,
		Log:       root.With(logx.String("component", "bot")),
	})
	if cfg.Parser.GrammarDir != "" {
		b.SetGrammars(loadGrammarDir(cfg.Parser.GrammarDir, log))
	}

	return &App{
		cfgm:    cfgm,
		logs:    logs,
		log:     log,
		store:   store,
		adapter: adapter,
		sched:   sched,
		bot:     b,
		updates: make(chan kit.Update, updateBuffer),
	}, nil
}

// Start brings the components up: adapter polling, the scheduler (which
// reloads pending reminders from storage), the bot loop, the config
// watcher and systemd readiness.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app already started")
	}
	a.running = true
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel
	a.mu.Unlock()

	if err := a.adapter.Start(runCtx, a.updates); err != nil {
		cancel()
		return fmt.Errorf("start adapter: %w", err)
	}
	if err := a.sched.Start(runCtx); err != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = a.adapter.Stop(stopCtx)
		stopCancel()
		cancel()
		return fmt.Errorf("start scheduler: %w", err)
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_ = a.bot.Run(runCtx, a.updates)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.cfgm.Watch(runCtx); err != nil && runCtx.Err() == nil {
			a.log.Warn("config watcher exited", logx.Err(err))
		}
	}()
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.reloadLoop(runCtx)
	}()

	menuCtx, menuCancel := context.WithTimeout(runCtx, 10*time.Second)
	if err := a.adapter.UpdateMenuCommands(menuCtx, a.bot.Commands()); err != nil {
		a.log.Warn("set command menu", logx.Err(err))
	}
	menuCancel()

	a.notifyReady(runCtx)
	a.log.Info("started")
	return nil
}

// Stop shuts components down in reverse order. It returns when
// everything has stopped or ctx expires.
func (a *App) Stop(ctx context.Context) {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	cancel := a.cancel
	a.mu.Unlock()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	stopCtx, stopCancel := context.WithTimeout(ctx, 5*time.Second)
	_ = a.adapter.Stop(stopCtx)
	stopCancel()

	cancel()
	a.sched.Stop(ctx)

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.log.Warn("stop timed out waiting for goroutines")
	}

	if err := a.store.Close(); err != nil {
		a.log.Warn("close storage", logx.Err(err))
	}
	a.log.Info("stopped")
	_ = a.logs.Close()
}

// reloadLoop applies committed config changes to the live components.
// Token and storage path changes need a restart and only log a warning.
func (a *App) reloadLoop(ctx context.Context) {
	sub := a.cfgm.Subscribe(1)
	defer a.cfgm.Unsubscribe(sub)

	prev := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-sub:
			if !ok {
				return
			}
			changed, fields := config.SummarizeConfigChange(prev, cfg)
			if len(changed) == 0 {
				prev = cfg
				continue
			}
			a.log.Info("config reloaded", fields...)

			a.logs.Apply(logxConfig(cfg.Logging))
			a.bot.Apply(botConfig(cfg))
			if cfg.Parser.GrammarDir != "" {
				a.bot.SetGrammars(loadGrammarDir(cfg.Parser.GrammarDir, a.log))
			} else if prev != nil && prev.Parser.GrammarDir != "" {
				a.bot.SetGrammars(nil)
			}

			if prev != nil && prev.Telegram.Token != cfg.Telegram.Token {
				a.log.Warn("telegram.token changed; restart to apply")
			}
			if prev != nil && prev.Storage.Path != cfg.Storage.Path {
				a.log.Warn("storage.path changed; restart to apply")
			}
			prev = cfg
		}
	}
}

// notifyReady tells systemd we are up and keeps the watchdog fed when
// one is configured. Both are no-ops outside systemd.
func (a *App) notifyReady(ctx context.Context) {
	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Warn("sd_notify", logx.Err(err))
	} else if ok {
		a.log.Debug("systemd notified ready")
	}

	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		t := time.NewTicker(interval / 2)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			}
		}
	}()
}

func logxConfig(c config.LoggingConfig) logx.Config {
	return logx.Config{
		Level:   c.Level,
		Console: c.Console,
		File: logx.FileConfig{
			Enabled: c.File.Enabled,
			Path:    c.File.Path,
		},
	}
}

// botConfig translates the parser section into the bot's runtime
// config. Validation already ran, so the flag and scale spellings are
// known good; unparsable values fall back to grammar defaults.
func botConfig(cfg *config.Config) bot.Config {
	out := bot.Config{
		Owners:      cfg.Telegram.OwnerUserIDs,
		Locale:      cfg.Parser.Locale,
		Guess:       cfg.Parser.Guess,
		MaxInputLen: cfg.Parser.MaxInputLen,
	}
	if len(cfg.Parser.FailureFlags) > 0 {
		if f, ok := timespan.ParseFailureFlags(cfg.Parser.FailureFlags); ok {
			out.Flags = &f
		}
	}
	if cfg.Parser.AssumeScale != "" || cfg.Parser.AllowDuplicateScales != nil {
		st := timespan.DefaultSettings()
		if a, ok := timespan.ParseAssumeScale(cfg.Parser.AssumeScale); ok {
			st.AssumeScale = a
		}
		if cfg.Parser.AllowDuplicateScales != nil {
			st.AllowDuplicateScales = *cfg.Parser.AllowDuplicateScales
		}
		out.Settings = &st
	}
	return out
}
