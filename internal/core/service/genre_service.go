package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/core/ports"
)

const maxGenreNameLength = 50

type genreService struct {
	repo ports.GenreRepository
	log  zerolog.Logger
	now  func() time.Time
}

// NewGenreService returns a GenreService.
func NewGenreService(repo ports.GenreRepository, log zerolog.Logger) ports.GenreService {
	return &genreService{repo: repo, log: log, now: time.Now}
}

func validGenreName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > maxGenreNameLength || domain.Slugify(name) == "" {
		return "", fmt.Errorf("%w: genre name must be 1-%d characters with at least one letter or digit", domain.ErrInvalidInput, maxGenreNameLength)
	}
	return name, nil
}

func (s *genreService) List(ctx context.Context) ([]*domain.Genre, error) {
	genres, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	if genres == nil {
		genres = []*domain.Genre{}
	}
	return genres, nil
}

func (s *genreService) Get(ctx context.Context, id string) (*domain.Genre, error) {
	g, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get genre: %w", err)
	}
	return g, nil
}

func (s *genreService) Create(ctx context.Context, name string) (*domain.Genre, error) {
	name, err := validGenreName(name)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	g, err := s.repo.Create(ctx, &domain.Genre{
		Name:      name,
		Slug:      domain.Slugify(name),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("create genre: %w", err)
	}
	s.log.Info().Str("genre_id", g.ID).Str("slug", g.Slug).Msg("genre created")
	return g, nil
}

// Rename changes the display name and slug. Movies keep the genre names they
// were tagged with.
func (s *genreService) Rename(ctx context.Context, id, name string) (*domain.Genre, error) {
	name, err := validGenreName(name)
	if err != nil {
		return nil, err
	}
	g, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("rename genre: %w", err)
	}
	g.Name = name
	g.Slug = domain.Slugify(name)
	g.UpdatedAt = s.now().UTC()

	updated, err := s.repo.Update(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("rename genre: %w", err)
	}
	return updated, nil
}

func (s *genreService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete genre: %w", err)
	}
	s.log.Info().Str("genre_id", id).Msg("genre deleted")
	return nil
}
