package ports

import (
	"context"

	"github.com/moviestream/streaming-api/internal/core/domain"
)

// CreateMovieInput carries the admin-supplied fields of a new movie.
type CreateMovieInput struct {
	Title          string
	Overview       string
	Genres         []string
	ReleaseYear    int
	RuntimeMinutes int
	PosterURL      string
	BackdropURL    string
	VideoKey       string
	Published      bool
}

// UpdateMovieInput is a partial update. Nil fields keep their stored value.
type UpdateMovieInput struct {
	Title          *string
	Overview       *string
	Genres         []string
	ReleaseYear    *int
	RuntimeMinutes *int
	Rating         *float64
	PosterURL      *string
	BackdropURL    *string
	VideoKey       *string
	Published      *bool
}

// ListMoviesResult is a page of catalog entries.
type ListMoviesResult struct {
	Items      []*domain.Movie
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// MovieService defines catalog use cases.
type MovieService interface {
	List(ctx context.Context, filter ListMoviesFilter) (*ListMoviesResult, error)
	Search(ctx context.Context, query string) ([]*domain.Movie, error)
	Get(ctx context.Context, id string) (*domain.Movie, error)
	Create(ctx context.Context, input CreateMovieInput) (*domain.Movie, error)
	Update(ctx context.Context, id string, input UpdateMovieInput) (*domain.Movie, error)
	Delete(ctx context.Context, id string) error
	SearchMetadata(ctx context.Context, query string, year int) ([]domain.MovieMetadata, error)
	MetadataDetails(ctx context.Context, tmdbID int) (*domain.MovieMetadata, error)
	ImportFromTMDB(ctx context.Context, tmdbID int, publish bool) (*domain.Movie, bool, error)
}
