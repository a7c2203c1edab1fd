package config

import (
	"fmt"
	"strings"
	"time"

	"durabot/pkg/timespan"
)

type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Logging   LoggingConfig   `json:"logging"`
	Parser    ParserConfig    `json:"parser"`
	Storage   StorageConfig   `json:"storage"`
	Scheduler SchedulerConfig `json:"scheduler"`
}

type TelegramConfig struct {
	Token        string  `json:"token"`
	OwnerUserIDs []int64 `json:"owner_user_ids,omitempty"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// ParserConfig controls how user input is turned into durations.
//
// Locale names a built-in grammar ("english", "spanish") or a file in
// GrammarDir. FailureFlags overrides the grammar's default strictness;
// an empty list keeps the grammar default, ["NONE"] disables all flags.
type ParserConfig struct {
	Locale string `json:"locale"`

	// Guess lists the candidate locales for grammar guessing.
	// Empty means all loaded grammars.
	Guess []string `json:"guess,omitempty"`

	FailureFlags []string `json:"failure_flags,omitempty"`

	// AssumeScale is "SINGLE", "LAST" or "NEVER" (empty keeps the
	// grammar default).
	AssumeScale string `json:"assume_scale,omitempty"`

	AllowDuplicateScales *bool `json:"allow_duplicate_scales,omitempty"`

	// GrammarDir holds extra grammar definition files (.json/.yaml);
	// reloaded on config hot reload.
	GrammarDir string `json:"grammar_dir,omitempty"`

	// MaxInputLen caps the length of duration expressions accepted from
	// chat. 0 means the default (512).
	MaxInputLen int `json:"max_input_len,omitempty"`
}

type StorageConfig struct {
	Path string `json:"path"`
	// BusyTimeout is a Go duration string (sqlite busy_timeout pragma).
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

type SchedulerConfig struct {
	Workers int `json:"workers,omitempty"`
	// Timezone is an IANA TZ name used for cron reminders, e.g. "Europe/Madrid".
	Timezone string `json:"timezone,omitempty"`
	// PruneAfter is how long delivered one-shot reminders are kept
	// before pruning. Go duration string; empty means "24h".
	PruneAfter string `json:"prune_after,omitempty"`
}

// Validate rejects configs that cannot be applied. It is called before
// commit on both initial load and hot reload.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if _, err := ParseDurationField("telegram.poll_timeout", c.Telegram.PollTimeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("scheduler.prune_after", c.Scheduler.PruneAfter); err != nil {
		return err
	}
	if c.Scheduler.Workers < 0 {
		return fmt.Errorf("scheduler.workers must be >= 0")
	}
	if tz := strings.TrimSpace(c.Scheduler.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("scheduler.timezone: invalid %q: %w", tz, err)
		}
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("storage.path is required")
	}
	if c.Parser.MaxInputLen < 0 {
		return fmt.Errorf("parser.max_input_len must be >= 0")
	}
	if len(c.Parser.FailureFlags) > 0 {
		if _, ok := timespan.ParseFailureFlags(c.Parser.FailureFlags); !ok {
			return fmt.Errorf("parser.failure_flags: unknown flag in %v", c.Parser.FailureFlags)
		}
	}
	if c.Parser.AssumeScale != "" {
		if _, ok := timespan.ParseAssumeScale(c.Parser.AssumeScale); !ok {
			return fmt.Errorf("parser.assume_scale: invalid %q", c.Parser.AssumeScale)
		}
	}
	return nil
}
