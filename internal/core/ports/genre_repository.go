package ports

import (
	"context"

	"github.com/moviestream/streaming-api/internal/core/domain"
)

// GenreRepository defines persistence for catalog genres.
type GenreRepository interface {
	Create(ctx context.Context, g *domain.Genre) (*domain.Genre, error)
	FindByID(ctx context.Context, id string) (*domain.Genre, error)
	List(ctx context.Context) ([]*domain.Genre, error)
	Update(ctx context.Context, g *domain.Genre) (*domain.Genre, error)
	Delete(ctx context.Context, id string) error
}

// GenreService defines genre use cases.
type GenreService interface {
	List(ctx context.Context) ([]*domain.Genre, error)
	Get(ctx context.Context, id string) (*domain.Genre, error)
	Create(ctx context.Context, name string) (*domain.Genre, error)
	Rename(ctx context.Context, id, name string) (*domain.Genre, error)
	Delete(ctx context.Context, id string) error
}
