package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS changelogs (
        id TEXT PRIMARY KEY, -- UUID
        repository TEXT NOT NULL,
        content TEXT NOT NULL, -- serialized ChangelogContent
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE INDEX IF NOT EXISTS idx_changelogs_repository ON changelogs (repository);
    `
	_, err := s.db.Exec(schema)
	return err
}

// InsertChangelog appends one immutable record and returns it with its
// generated ID and creation time. There is deliberately no dedup: two
// generations for the same repository and range produce two records.
func (s *SQLiteStore) InsertChangelog(repository string, content ChangelogContent) (*Changelog, error) {
	contentBytes, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal changelog content: %w", err)
	}

	stmt, err := s.db.Prepare("INSERT INTO changelogs (id, repository, content, created_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare changelog insert: %w", err)
	}
	defer stmt.Close()

	id := uuid.NewString()
	now := time.Now()
	if _, err = stmt.Exec(id, repository, string(contentBytes), now); err != nil {
		return nil, fmt.Errorf("failed to execute changelog insert: %w", err)
	}

	return &Changelog{ID: id, Repository: repository, Content: content, CreatedAt: now}, nil
}

// ListChangelogs returns one page of records, newest first, optionally
// filtered to a repository, along with the total record count for the same
// filter.
func (s *SQLiteStore) ListChangelogs(repository string, page, limit int) ([]Changelog, int, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	var (
		rows *sql.Rows
		err  error
	)
	if repository != "" {
		rows, err = s.db.Query(
			"SELECT id, repository, content, created_at FROM changelogs WHERE repository = ? ORDER BY created_at DESC LIMIT ? OFFSET ?",
			repository, limit, offset)
	} else {
		rows, err = s.db.Query(
			"SELECT id, repository, content, created_at FROM changelogs ORDER BY created_at DESC LIMIT ? OFFSET ?",
			limit, offset)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query changelogs: %w", err)
	}
	defer rows.Close()

	var changelogs []Changelog
	for rows.Next() {
		var (
			c           Changelog
			contentJSON string
		)
		if err := rows.Scan(&c.ID, &c.Repository, &contentJSON, &c.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan changelog row: %w", err)
		}
		if err := json.Unmarshal([]byte(contentJSON), &c.Content); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal content for changelog %s: %w", c.ID, err)
		}
		changelogs = append(changelogs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate changelog rows: %w", err)
	}

	total, err := s.countChangelogs(repository)
	if err != nil {
		return nil, 0, err
	}
	return changelogs, total, nil
}

func (s *SQLiteStore) countChangelogs(repository string) (int, error) {
	var (
		total int
		err   error
	)
	if repository != "" {
		err = s.db.QueryRow("SELECT COUNT(*) FROM changelogs WHERE repository = ?", repository).Scan(&total)
	} else {
		err = s.db.QueryRow("SELECT COUNT(*) FROM changelogs").Scan(&total)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count changelogs: %w", err)
	}
	return total, nil
}

// ListRepositories returns the distinct repositories that have at least one
// stored changelog.
func (s *SQLiteStore) ListRepositories() ([]string, error) {
	rows, err := s.db.Query("SELECT repository FROM changelogs GROUP BY repository ORDER BY repository")
	if err != nil {
		return nil, fmt.Errorf("failed to query repositories: %w", err)
	}
	defer rows.Close()

	var repositories []string
	for rows.Next() {
		var repo string
		if err := rows.Scan(&repo); err != nil {
			return nil, fmt.Errorf("failed to scan repository row: %w", err)
		}
		repositories = append(repositories, repo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate repository rows: %w", err)
	}
	return repositories, nil
}
