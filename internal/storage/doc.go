package storage

// Package storage persists durabot's state in a single sqlite file:
//   - Reminders (one-shot and recurring) with delivery bookkeeping
//   - Per-chat preferences (selected parsing locale)
