package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/newsatlas/geolocate/internal/db"
	"github.com/newsatlas/geolocate/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres connects to Postgres and returns a store.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS stories (
	id            TEXT PRIMARY KEY,
	url           TEXT NOT NULL UNIQUE,
	title         TEXT NOT NULL DEFAULT '',
	body          TEXT NOT NULL,
	places        JSONB,
	locations     JSONB,
	core_location JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_stories_created_at ON stories(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveStory(ctx context.Context, story *model.Story) error {
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

	_, err = s.pool.Exec(ctx, `
		INSERT INTO stories (id, url, title, body, places, locations, core_location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (url) DO UPDATE SET
			title = EXCLUDED.title,
			body = EXCLUDED.body,
			places = EXCLUDED.places,
			locations = EXCLUDED.locations,
			core_location = EXCLUDED.core_location,
			updated_at = EXCLUDED.updated_at`,
		story.ID, story.URL, story.Title, story.Text,
		placesJSON, locationsJSON, coreJSON,
		story.CreatedAt, story.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: save story")
}

func (s *PostgresStore) GetStory(ctx context.Context, id string) (*model.Story, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, url, title, body, places, locations, core_location, created_at, updated_at
		FROM stories WHERE id = $1`, id)
	return scanStory(row)
}

func (s *PostgresStore) GetStoryByURL(ctx context.Context, url string) (*model.Story, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, url, title, body, places, locations, core_location, created_at, updated_at
		FROM stories WHERE url = $1`, url)
	return scanStory(row)
}

func (s *PostgresStore) ListStories(ctx context.Context, filter StoryFilter) ([]model.Story, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, url, title, body, places, locations, core_location, created_at, updated_at
		FROM stories ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, filter.Offset)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list stories")
	}
	defer rows.Close()

	var stories []model.Story
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, *story)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate stories")
	}
	return stories, nil
}

// scanStory reads one story row, decoding the JSONB fields.
func scanStory(row pgx.Row) (*model.Story, error) {
	var (
		story                               model.Story
		placesJSON, locationsJSON, coreJSON []byte
	)
	err := row.Scan(
		&story.ID, &story.URL, &story.Title, &story.Text,
		&placesJSON, &locationsJSON, &coreJSON,
		&story.CreatedAt, &story.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "postgres: scan story")
	}
	if err := unmarshalStoryFields(&story, placesJSON, locationsJSON, coreJSON); err != nil {
		return nil, err
	}
	return &story, nil
}

func marshalStoryFields(story *model.Story) (places, locations, core []byte, err error) {
	if places, err = json.Marshal(story.Places); err != nil {
		return nil, nil, nil, eris.Wrap(err, "store: marshal places")
	}
	if locations, err = json.Marshal(story.Locations); err != nil {
		return nil, nil, nil, eris.Wrap(err, "store: marshal locations")
	}
	if story.CoreLocation != nil {
		if core, err = json.Marshal(story.CoreLocation); err != nil {
			return nil, nil, nil, eris.Wrap(err, "store: marshal core location")
		}
	}
	return places, locations, core, nil
}

func unmarshalStoryFields(story *model.Story, places, locations, core []byte) error {
	if len(places) > 0 {
		if err := json.Unmarshal(places, &story.Places); err != nil {
			return eris.Wrap(err, "store: unmarshal places")
		}
	}
	if len(locations) > 0 {
		if err := json.Unmarshal(locations, &story.Locations); err != nil {
			return eris.Wrap(err, "store: unmarshal locations")
		}
	}
	if len(core) > 0 {
		if err := json.Unmarshal(core, &story.CoreLocation); err != nil {
			return eris.Wrap(err, "store: unmarshal core location")
		}
	}
	return nil
}
