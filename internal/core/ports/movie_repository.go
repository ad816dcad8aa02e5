package ports

import (
	"context"

	"github.com/moviestream/streaming-api/internal/core/domain"
)

// ListMoviesFilter carries the query parameters for browsing the catalog.
type ListMoviesFilter struct {
	Genre         string // optional: exact genre match
	Search        string // optional: case-insensitive title match
	PublishedOnly bool
	Page          int // 1-based
	Limit         int // capped at 100 by the service
}

// MovieRepository defines persistence for the catalog.
type MovieRepository interface {
	Create(ctx context.Context, m *domain.Movie) (*domain.Movie, error)
	FindByID(ctx context.Context, id string) (*domain.Movie, error)
	FindByTMDBID(ctx context.Context, tmdbID int) (*domain.Movie, error)
	List(ctx context.Context, filter ListMoviesFilter) ([]*domain.Movie, int64, error)
	// Update replaces the stored document and returns domain.ErrMovieNotFound
	// when the id is unknown.
	Update(ctx context.Context, m *domain.Movie) (*domain.Movie, error)
	Delete(ctx context.Context, id string) error
}

// MetadataProvider fetches catalog enrichment from an external movie database.
type MetadataProvider interface {
	Search(ctx context.Context, query string, year int) ([]domain.MovieMetadata, error)
	Details(ctx context.Context, tmdbID int) (*domain.MovieMetadata, error)
}
