package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
telegram:
  token: "123:abc"
  owner_user_ids: [42]
  poll_timeout: "10s"
logging:
  level: "INFO"
  console: true
  file:
    enabled: false
parser:
  locale: "english"
  guess: ["english", "spanish"]
  failure_flags: ["UNKNOWN_TERM", "MALFORMED_CONTENT"]
storage:
  path: "./durabot.db"
scheduler:
  workers: 2
  timezone: "UTC"
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	m := NewManager(writeConfig(t, "config.yaml", validYAML))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Parser.Locale != "english" || len(cfg.Parser.Guess) != 2 {
		t.Fatalf("parser = %+v", cfg.Parser)
	}
	if cfg.Scheduler.Workers != 2 {
		t.Fatalf("workers = %d", cfg.Scheduler.Workers)
	}
	if got := m.Get(); got != cfg {
		t.Fatal("Get did not return the committed config")
	}
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()

	m := NewManager(writeConfig(t, "config.json", `{
		"telegram": {"token": "123:abc"},
		"logging": {"level": "DEBUG", "console": true, "file": {"enabled": false}},
		"parser": {"locale": "english"},
		"storage": {"path": "./durabot.db"},
		"scheduler": {}
	}`))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
}

func TestLoadRejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
	}{
		{"unknown field", `{"telegram": {"token": "x"}, "storage": {"path": "p"}, "bogus": 1}`},
		{"missing token", `{"telegram": {}, "storage": {"path": "p"}}`},
		{"missing storage path", `{"telegram": {"token": "x"}, "storage": {}}`},
		{"bad flag", `{"telegram": {"token": "x"}, "storage": {"path": "p"},
			"parser": {"locale": "english", "failure_flags": ["NOT_A_FLAG"]}}`},
		{"bad assume scale", `{"telegram": {"token": "x"}, "storage": {"path": "p"},
			"parser": {"assume_scale": "SOMETIMES"}}`},
		{"bad timezone", `{"telegram": {"token": "x"}, "storage": {"path": "p"},
			"scheduler": {"timezone": "Mars/Olympus"}}`},
		{"bad duration", `{"telegram": {"token": "x", "poll_timeout": "soon"}, "storage": {"path": "p"}}`},
		{"trailing data", `{"telegram": {"token": "x"}, "storage": {"path": "p"}} {}`},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := NewManager(writeConfig(t, "config.json", tc.content))
			if _, err := m.Load(); err == nil {
				t.Fatal("Load succeeded, want error")
			}
		})
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	t.Parallel()

	old := &Config{}
	next := &Config{}
	next.Parser.Locale = "spanish"
	next.Logging.Level = "DEBUG"

	changed, _ := SummarizeConfigChange(old, next)
	want := []string{"logging", "parser"}
	if len(changed) != len(want) {
		t.Fatalf("changed = %v, want %v", changed, want)
	}
	for i := range want {
		if changed[i] != want[i] {
			t.Fatalf("changed = %v, want %v", changed, want)
		}
	}

	changed, _ = SummarizeConfigChange(next, next)
	if len(changed) != 0 {
		t.Fatalf("no-op diff = %v, want empty", changed)
	}
}
