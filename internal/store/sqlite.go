package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/newsatlas/geolocate/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite, for local runs
// without a Postgres instance.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS stories (
	id            TEXT PRIMARY KEY,
	url           TEXT NOT NULL UNIQUE,
	title         TEXT NOT NULL DEFAULT '',
	body          TEXT NOT NULL,
	places        TEXT,
	locations     TEXT,
	core_location TEXT,
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_stories_created_at ON stories(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveStory(ctx context.Context, story *model.Story) error {
	if story.ID == "" {
		story.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if story.CreatedAt.IsZero() {
		story.CreatedAt = now
	}
	story.UpdatedAt = now

	placesJSON, locationsJSON, coreJSON, err := marshalStoryFields(story)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO stories (id, url, title, body, places, locations, core_location, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			title = excluded.title,
			body = excluded.body,
			places = excluded.places,
			locations = excluded.locations,
			core_location = excluded.core_location,
			updated_at = excluded.updated_at`,
		story.ID, story.URL, story.Title, story.Text,
		nullableJSON(placesJSON), nullableJSON(locationsJSON), nullableJSON(coreJSON),
		story.CreatedAt, story.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: save story")
}

func (s *SQLiteStore) GetStory(ctx context.Context, id string) (*model.Story, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, url, title, body, places, locations, core_location, created_at, updated_at
		FROM stories WHERE id = ?`, id)
	return s.scan(row)
}

func (s *SQLiteStore) GetStoryByURL(ctx context.Context, url string) (*model.Story, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, url, title, body, places, locations, core_location, created_at, updated_at
		FROM stories WHERE url = ?`, url)
	return s.scan(row)
}

func (s *SQLiteStore) ListStories(ctx context.Context, filter StoryFilter) ([]model.Story, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, title, body, places, locations, core_location, created_at, updated_at
		FROM stories ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, filter.Offset)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list stories")
	}
	defer rows.Close()

	var stories []model.Story
	for rows.Next() {
		story, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, *story)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate stories")
	}
	return stories, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scan(row rowScanner) (*model.Story, error) {
	var (
		story                               model.Story
		placesJSON, locationsJSON, coreJSON sql.NullString
	)
	err := row.Scan(
		&story.ID, &story.URL, &story.Title, &story.Text,
		&placesJSON, &locationsJSON, &coreJSON,
		&story.CreatedAt, &story.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "sqlite: scan story")
	}
	if err := unmarshalStoryFields(&story,
		[]byte(placesJSON.String), []byte(locationsJSON.String), []byte(coreJSON.String)); err != nil {
		return nil, err
	}
	return &story, nil
}

// nullableJSON stores empty JSON payloads as NULL instead of empty strings.
func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
