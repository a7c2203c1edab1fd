package storage

import (
	"errors"
	"time"
)

var ErrClosed = errors.New("storage closed")

// Config configures the sqlite store.
type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means driver default
}

type ReminderKind string

const (
	// KindOnce fires a single time at DueAt.
	KindOnce ReminderKind = "once"
	// KindEvery repeats every EverySeconds seconds.
	KindEvery ReminderKind = "every"
	// KindCron repeats on a cron schedule (CronSpec).
	KindCron ReminderKind = "cron"
)

// Reminder is one stored reminder. Exactly one of DueAt, EverySeconds
// and CronSpec is meaningful, selected by Kind.
type Reminder struct {
	ID     int64
	ChatID int64
	Kind   ReminderKind
	Text   string

	// Spec is the user's original wording, kept for /list display.
	Spec string

	DueAt        time.Time
	EverySeconds float64
	CronSpec     string

	CreatedAt   time.Time
	DeliveredAt *time.Time
}

// Recurring reports whether the reminder survives a delivery.
func (r Reminder) Recurring() bool {
	return r.Kind == KindEvery || r.Kind == KindCron
}
