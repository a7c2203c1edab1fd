package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "durabot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// Store persists reminders and per-chat preferences in sqlite.
type Store struct {
	db  *sql.DB
	log logx.Logger
}

func Open(cfg Config, log logx.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &Store{db: db, log: log}

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *Store) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) AddReminder(ctx context.Context, r Reminder) (int64, error) {
	if s == nil || s.db == nil {
		return 0, ErrClosed
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders(chat_id, kind, text, spec, due_at, every_seconds, cron_spec, created_at, delivered_at)
		 VALUES(?,?,?,?,?,?,?,?,NULL)`,
		r.ChatID, string(r.Kind), r.Text, r.Spec, nullTime(r.DueAt), r.EverySeconds, r.CronSpec,
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Pending returns every undelivered reminder; chatID 0 means all chats.
func (s *Store) Pending(ctx context.Context, chatID int64) ([]Reminder, error) {
	if s == nil || s.db == nil {
		return nil, ErrClosed
	}
	q := `SELECT id, chat_id, kind, text, spec, due_at, every_seconds, cron_spec, created_at, delivered_at
	      FROM reminders WHERE delivered_at IS NULL`
	args := []any{}
	if chatID != 0 {
		q += ` AND chat_id = ?`
		args = append(args, chatID)
	}
	q += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Reminder fetches one reminder by id.
func (s *Store) Reminder(ctx context.Context, id int64) (Reminder, bool, error) {
	if s == nil || s.db == nil {
		return Reminder{}, false, ErrClosed
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, chat_id, kind, text, spec, due_at, every_seconds, cron_spec, created_at, delivered_at
		 FROM reminders WHERE id = ?`, id)
	r, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Reminder{}, false, nil
	}
	if err != nil {
		return Reminder{}, false, err
	}
	return r, true, nil
}

// MarkDelivered stamps a one-shot as delivered. Recurring reminders are
// left untouched so they keep firing.
func (s *Store) MarkDelivered(ctx context.Context, id int64, at time.Time) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET delivered_at = ? WHERE id = ? AND kind = ?`,
		at.UTC().Format(time.RFC3339Nano), id, string(KindOnce))
	return err
}

// Delete removes a reminder, scoped to the owning chat so one chat
// cannot cancel another's reminders. Reports whether a row was removed.
func (s *Store) Delete(ctx context.Context, chatID, id int64) (bool, error) {
	if s == nil || s.db == nil {
		return false, ErrClosed
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE id = ? AND chat_id = ?`, id, chatID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// PruneDelivered drops delivered one-shots older than the cutoff and
// returns how many rows went away.
func (s *Store) PruneDelivered(ctx context.Context, olderThan time.Duration) (int64, error) {
	if s == nil || s.db == nil {
		return 0, ErrClosed
	}
	cutoff := time.Now().Add(-olderThan).UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE delivered_at IS NOT NULL AND delivered_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) SetChatLocale(ctx context.Context, chatID int64, locale string) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_prefs(chat_id, locale) VALUES(?,?)
		 ON CONFLICT(chat_id) DO UPDATE SET locale=excluded.locale`,
		chatID, locale)
	return err
}

func (s *Store) ChatLocale(ctx context.Context, chatID int64) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, ErrClosed
	}
	var locale string
	err := s.db.QueryRowContext(ctx,
		`SELECT locale FROM chat_prefs WHERE chat_id = ?`, chatID).Scan(&locale)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return locale, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (Reminder, error) {
	var (
		r         Reminder
		kind      string
		due       sql.NullString
		created   string
		delivered sql.NullString
	)
	err := row.Scan(&r.ID, &r.ChatID, &kind, &r.Text, &r.Spec, &due, &r.EverySeconds, &r.CronSpec, &created, &delivered)
	if err != nil {
		return Reminder{}, err
	}
	r.Kind = ReminderKind(kind)
	if due.Valid && due.String != "" {
		t, err := time.Parse(time.RFC3339Nano, due.String)
		if err != nil {
			return Reminder{}, fmt.Errorf("reminder %d: bad due_at %q: %w", r.ID, due.String, err)
		}
		r.DueAt = t
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Reminder{}, fmt.Errorf("reminder %d: bad created_at %q: %w", r.ID, created, err)
	}
	r.CreatedAt = t
	if delivered.Valid && delivered.String != "" {
		t, err := time.Parse(time.RFC3339Nano, delivered.String)
		if err != nil {
			return Reminder{}, fmt.Errorf("reminder %d: bad delivered_at %q: %w", r.ID, delivered.String, err)
		}
		r.DeliveredAt = &t
	}
	return r, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
