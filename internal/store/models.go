package store

import "time"

// ChangelogContent is the validated payload produced by the generation
// workflow. Changes maps a category name (UI/UX, Features, Bug Fixes, ...)
// to its change descriptions; the key set is open — any category the model
// returns is kept.
type ChangelogContent struct {
	Title   string              `json:"title"`
	Version string              `json:"version"`
	Date    string              `json:"date"` // ISO calendar date, YYYY-MM-DD
	Changes map[string][]string `json:"changes"`
}

// Changelog is one persisted generation result. Records are immutable:
// regenerating the same repository/range inserts a new record under a fresh
// ID rather than updating an existing one.
type Changelog struct {
	ID         string           `json:"id"` // UUID
	Repository string           `json:"repository"`
	Content    ChangelogContent `json:"content"`
	CreatedAt  time.Time        `json:"created_at"`
}
