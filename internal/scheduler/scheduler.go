package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"durabot/internal/storage"
	logx "durabot/pkg/logx"
)

type Config struct {
	Workers  int
	Timezone string // IANA TZ, e.g. "Europe/Madrid"
	// PruneAfter is how long delivered one-shots are kept before the
	// hourly prune removes them.
	PruneAfter time.Duration
}

// DeliverFunc sends one due reminder to its chat.
type DeliverFunc func(ctx context.Context, r storage.Reminder) error

// Service fires reminders at their due time: one-shots on time.Timer,
// recurring ones through robfig/cron. Deliveries run on a small worker
// pool so a slow send cannot delay the next trigger.
type Service struct {
	mu sync.Mutex

	cfg     Config
	log     logx.Logger
	store   *storage.Store
	deliver DeliverFunc

	parser cron.Parser
	c      *cron.Cron
	loc    *time.Location

	entries map[int64]cron.EntryID
	timers  map[int64]*time.Timer

	queue  chan storage.Reminder
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func New(cfg Config, store *storage.Store, deliver DeliverFunc, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:     cfg,
		log:     log,
		store:   store,
		deliver: deliver,
		parser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		entries: map[int64]cron.EntryID{},
		timers:  map[int64]*time.Timer{},
	}
}

// ValidateCron reports whether spec is an acceptable cron expression.
func (s *Service) ValidateCron(spec string) error {
	_, err := s.parser.Parse(spec)
	return err
}

// Start brings up the worker pool and reloads every pending reminder
// from storage.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stopCh != nil {
		s.mu.Unlock()
		return nil
	}
	s.stopCh = make(chan struct{})

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	s.queue = make(chan storage.Reminder, 256)

	loc := s.loadLocationLocked()
	s.loc = loc
	s.c = cron.New(cron.WithParser(s.parser), cron.WithLocation(loc))

	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}
	s.c.Start()

	s.wg.Add(1)
	go s.pruneLoop(ctx)

	s.mu.Unlock()

	n, err := s.reload(ctx)
	if err != nil {
		return fmt.Errorf("reload reminders: %w", err)
	}
	s.log.Info("scheduler started",
		logx.Int("workers", workers),
		logx.String("tz", loc.String()),
		logx.Int("reloaded", n))
	return nil
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	if s.stopCh == nil {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.stopCh = nil
	if s.c != nil {
		<-s.c.Stop().Done()
		s.c = nil
	}
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.entries = map[int64]cron.EntryID{}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	s.log.Info("scheduler stopped")
}

// reload schedules every undelivered reminder found in storage.
func (s *Service) reload(ctx context.Context) (int, error) {
	pending, err := s.store.Pending(ctx, 0)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range pending {
		if err := s.Schedule(r); err != nil {
			s.log.Warn("skipping unschedulable reminder",
				logx.Int64("id", r.ID), logx.Err(err))
			continue
		}
		n++
	}
	return n, nil
}

// Schedule registers one reminder. The reminder must already be stored.
func (s *Service) Schedule(r storage.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh == nil {
		return errors.New("scheduler not started")
	}

	switch r.Kind {
	case storage.KindOnce:
		if r.DueAt.IsZero() {
			return fmt.Errorf("reminder %d: once kind without due time", r.ID)
		}
		delay := time.Until(r.DueAt)
		if delay < 0 {
			// Missed while the bot was down; fire immediately.
			delay = 0
		}
		id := r.ID
		rem := r
		s.timers[id] = time.AfterFunc(delay, func() {
			s.mu.Lock()
			delete(s.timers, id)
			s.mu.Unlock()
			s.enqueue(rem)
		})
		return nil

	case storage.KindEvery:
		if r.EverySeconds <= 0 {
			return fmt.Errorf("reminder %d: every kind without interval", r.ID)
		}
		every := time.Duration(r.EverySeconds * float64(time.Second))
		if every < time.Second {
			every = time.Second
		}
		return s.addCronLocked(r, fmt.Sprintf("@every %s", every))

	case storage.KindCron:
		if strings.TrimSpace(r.CronSpec) == "" {
			return fmt.Errorf("reminder %d: cron kind without spec", r.ID)
		}
		return s.addCronLocked(r, r.CronSpec)
	}
	return fmt.Errorf("reminder %d: unknown kind %q", r.ID, r.Kind)
}

func (s *Service) addCronLocked(r storage.Reminder, spec string) error {
	rem := r
	entry, err := s.c.AddFunc(spec, func() { s.enqueue(rem) })
	if err != nil {
		return err
	}
	s.entries[r.ID] = entry
	return nil
}

// Cancel unschedules a reminder. Storage cleanup is the caller's job.
func (s *Service) Cancel(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	if e, ok := s.entries[id]; ok {
		if s.c != nil {
			s.c.Remove(e)
		}
		delete(s.entries, id)
	}
}

// Next returns the next fire time of a recurring reminder, if known.
func (s *Service) Next(id int64) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || s.c == nil {
		return time.Time{}, false
	}
	return s.c.Entry(e).Next, true
}

func (s *Service) enqueue(r storage.Reminder) {
	select {
	case s.queue <- r:
	default:
		s.log.Warn("scheduler queue full, dropping delivery",
			logx.Int64("id", r.ID), logx.Int64("chat", r.ChatID))
	}
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		stopCh := s.stopCh
		queue := s.queue
		s.mu.Unlock()
		if stopCh == nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case r := <-queue:
			s.execOne(ctx, r)
		}
	}
}

func (s *Service) execOne(ctx context.Context, r storage.Reminder) {
	start := time.Now()
	dctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err := s.deliver(dctx, r)
	cancel()

	if err != nil {
		s.log.Warn("reminder delivery failed",
			logx.Int64("id", r.ID),
			logx.Int64("chat", r.ChatID),
			logx.Duration("took", time.Since(start)),
			logx.Err(err))
		return
	}
	s.log.Info("reminder delivered",
		logx.Int64("id", r.ID),
		logx.Int64("chat", r.ChatID),
		logx.Duration("took", time.Since(start)))

	if !r.Recurring() {
		mctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.store.MarkDelivered(mctx, r.ID, time.Now()); err != nil {
			s.log.Warn("mark delivered failed", logx.Int64("id", r.ID), logx.Err(err))
		}
		cancel()
	}
}

func (s *Service) pruneLoop(ctx context.Context) {
	defer s.wg.Done()
	after := s.cfg.PruneAfter
	if after <= 0 {
		after = 24 * time.Hour
	}
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		s.mu.Lock()
		stopCh := s.stopCh
		s.mu.Unlock()
		if stopCh == nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			n, err := s.store.PruneDelivered(pctx, after)
			cancel()
			if err != nil {
				s.log.Warn("prune failed", logx.Err(err))
			} else if n > 0 {
				s.log.Debug("pruned delivered reminders", logx.Int64("count", n))
			}
		}
	}
}

func (s *Service) loadLocationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone, falling back to Local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}
