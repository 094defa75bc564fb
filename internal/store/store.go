// Package store persists resolved stories. A story with no resolvable core
// location is still persisted, just without that field populated.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/newsatlas/geolocate/internal/model"
)

// ErrNotFound indicates no story matched the lookup.
var ErrNotFound = eris.New("store: story not found")

// StoryFilter specifies criteria for listing stories.
type StoryFilter struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Store defines the persistence interface for resolved stories.
type Store interface {
	// SaveStory upserts a story by URL, assigning an ID when absent.
	SaveStory(ctx context.Context, story *model.Story) error
	GetStory(ctx context.Context, id string) (*model.Story, error)
	GetStoryByURL(ctx context.Context, url string) (*model.Story, error)
	ListStories(ctx context.Context, filter StoryFilter) ([]model.Story, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "postgres":
		return NewPostgres(ctx, dsn)
	case "sqlite":
		return NewSQLite(dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
