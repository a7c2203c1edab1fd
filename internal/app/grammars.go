package app

import (
	"os"
	"path/filepath"
	"strings"

	logx "durabot/pkg/logx"
	"durabot/pkg/timespan"
)

// loadGrammarDir loads every grammar file in dir, keyed by grammar
// name. Files that fail to load are skipped with a warning so one bad
// grammar cannot take down a reload.
func loadGrammarDir(dir string, log logx.Logger) map[string]*timespan.Grammar {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn("read grammar dir", logx.String("dir", dir), logx.Err(err))
		return nil
	}

	out := map[string]*timespan.Grammar{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}
		path := filepath.Join(dir, e.Name())
		g, err := timespan.LoadGrammarFile(path)
		if err != nil {
			log.Warn("skip grammar file", logx.String("path", path), logx.Err(err))
			continue
		}
		out[g.Name] = g
		log.Debug("loaded grammar",
			logx.String("name", g.Name),
			logx.String("path", path))
	}
	return out
}
