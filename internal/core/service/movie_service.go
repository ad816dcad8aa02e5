package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/core/ports"
	"github.com/moviestream/streaming-api/internal/pkg/metrics"
)

const (
	defaultMovieLimit = 20
	maxMovieLimit     = 100
	maxSearchResults  = 20
	minSearchLength   = 2
)

type movieService struct {
	repo     ports.MovieRepository
	metadata ports.MetadataProvider
	lists    ports.Cache[*ports.ListMoviesResult]
	items    ports.Cache[*domain.Movie]
	log      zerolog.Logger
	now      func() time.Time
}

// NewMovieService returns a MovieService. metadata may be nil when TMDB is not
// configured; the import and search passthrough then report the dependency as
// unavailable.
func NewMovieService(
	repo ports.MovieRepository,
	metadata ports.MetadataProvider,
	lists ports.Cache[*ports.ListMoviesResult],
	items ports.Cache[*domain.Movie],
	log zerolog.Logger,
) ports.MovieService {
	return &movieService{
		repo:     repo,
		metadata: metadata,
		lists:    lists,
		items:    items,
		log:      log,
		now:      time.Now,
	}
}

func normalizeMovieFilter(f ports.ListMoviesFilter) ports.ListMoviesFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultMovieLimit
	}
	if f.Limit > maxMovieLimit {
		f.Limit = maxMovieLimit
	}
	f.Genre = strings.TrimSpace(f.Genre)
	f.Search = strings.TrimSpace(f.Search)
	return f
}

func movieListKey(f ports.ListMoviesFilter) string {
	return fmt.Sprintf("g=%s|q=%s|p=%t|page=%d|limit=%d",
		strings.ToLower(f.Genre), strings.ToLower(f.Search), f.PublishedOnly, f.Page, f.Limit)
}

func (s *movieService) List(ctx context.Context, filter ports.ListMoviesFilter) (*ports.ListMoviesResult, error) {
	filter = normalizeMovieFilter(filter)
	key := movieListKey(filter)
	if cached, ok := s.lists.Get(key); ok {
		return cached, nil
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	if items == nil {
		items = []*domain.Movie{}
	}

	result := &ports.ListMoviesResult{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}
	s.lists.Set(key, result)
	return result, nil
}

// Search matches published titles case-insensitively.
func (s *movieService) Search(ctx context.Context, query string) ([]*domain.Movie, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minSearchLength {
		return nil, fmt.Errorf("%w: search query must be at least %d characters", domain.ErrInvalidInput, minSearchLength)
	}
	res, err := s.List(ctx, ports.ListMoviesFilter{
		Search:        query,
		PublishedOnly: true,
		Page:          1,
		Limit:         maxSearchResults,
	})
	if err != nil {
		return nil, fmt.Errorf("search movies: %w", err)
	}
	return res.Items, nil
}

func (s *movieService) Get(ctx context.Context, id string) (*domain.Movie, error) {
	if m, ok := s.items.Get(id); ok {
		return m, nil
	}
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get movie: %w", err)
	}
	s.items.Set(id, m)
	return m, nil
}

func (s *movieService) Create(ctx context.Context, in ports.CreateMovieInput) (*domain.Movie, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	now := s.now().UTC()
	genres := in.Genres
	if genres == nil {
		genres = []string{}
	}

	created, err := s.repo.Create(ctx, &domain.Movie{
		Title:          title,
		Slug:           domain.Slugify(title),
		Overview:       in.Overview,
		Genres:         genres,
		ReleaseYear:    in.ReleaseYear,
		RuntimeMinutes: in.RuntimeMinutes,
		PosterURL:      in.PosterURL,
		BackdropURL:    in.BackdropURL,
		VideoKey:       in.VideoKey,
		Published:      in.Published,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, fmt.Errorf("create movie: %w", err)
	}
	s.invalidate()

	metrics.MoviesCreatedTotal.WithLabelValues("manual").Inc()
	s.log.Info().Str("movie_id", created.ID).Str("title", created.Title).Msg("movie created")
	return created, nil
}

// Update applies a partial update. Changing the title also changes the slug.
func (s *movieService) Update(ctx context.Context, id string, in ports.UpdateMovieInput) (*domain.Movie, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update movie: %w", err)
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
		}
		m.Title = title
		m.Slug = domain.Slugify(title)
	}
	if in.Overview != nil {
		m.Overview = *in.Overview
	}
	if in.Genres != nil {
		m.Genres = in.Genres
	}
	if in.ReleaseYear != nil {
		m.ReleaseYear = *in.ReleaseYear
	}
	if in.RuntimeMinutes != nil {
		m.RuntimeMinutes = *in.RuntimeMinutes
	}
	if in.Rating != nil {
		m.Rating = *in.Rating
	}
	if in.PosterURL != nil {
		m.PosterURL = *in.PosterURL
	}
	if in.BackdropURL != nil {
		m.BackdropURL = *in.BackdropURL
	}
	if in.VideoKey != nil {
		m.VideoKey = *in.VideoKey
	}
	if in.Published != nil {
		m.Published = *in.Published
	}
	m.UpdatedAt = s.now().UTC()

	updated, err := s.repo.Update(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("update movie: %w", err)
	}
	s.invalidate()
	s.log.Info().Str("movie_id", id).Msg("movie updated")
	return updated, nil
}

func (s *movieService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	s.invalidate()
	s.log.Info().Str("movie_id", id).Msg("movie deleted")
	return nil
}

func (s *movieService) SearchMetadata(ctx context.Context, query string, year int) ([]domain.MovieMetadata, error) {
	if s.metadata == nil {
		return nil, fmt.Errorf("search metadata: %w", domain.ErrDependencyUnavailable)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	res, err := s.metadata.Search(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("search metadata: %w", err)
	}
	return res, nil
}

func (s *movieService) MetadataDetails(ctx context.Context, tmdbID int) (*domain.MovieMetadata, error) {
	if tmdbID <= 0 {
		return nil, fmt.Errorf("%w: tmdb id must be positive", domain.ErrInvalidInput)
	}
	if s.metadata == nil {
		return nil, fmt.Errorf("metadata details: %w", domain.ErrDependencyUnavailable)
	}
	md, err := s.metadata.Details(ctx, tmdbID)
	if err != nil {
		return nil, fmt.Errorf("metadata details: %w", err)
	}
	return md, nil
}

// ImportFromTMDB creates a catalog entry from provider metadata. The boolean
// result is true when the movie already existed and was returned unchanged.
func (s *movieService) ImportFromTMDB(ctx context.Context, tmdbID int, publish bool) (*domain.Movie, bool, error) {
	if tmdbID <= 0 {
		return nil, false, fmt.Errorf("%w: tmdb id must be positive", domain.ErrInvalidInput)
	}

	existing, err := s.repo.FindByTMDBID(ctx, tmdbID)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, domain.ErrMovieNotFound) {
		return nil, false, fmt.Errorf("import movie: %w", err)
	}

	if s.metadata == nil {
		return nil, false, fmt.Errorf("import movie: %w", domain.ErrDependencyUnavailable)
	}
	md, err := s.metadata.Details(ctx, tmdbID)
	if err != nil {
		return nil, false, fmt.Errorf("import movie: %w", err)
	}

	now := s.now().UTC()
	m := &domain.Movie{
		Title:          md.Title,
		Slug:           domain.Slugify(md.Title),
		Overview:       md.Overview,
		Genres:         md.Genres,
		RuntimeMinutes: md.RuntimeMinutes,
		Rating:         md.Rating,
		PosterURL:      md.PosterURL,
		BackdropURL:    md.BackdropURL,
		TMDBID:         md.TMDBID,
		Published:      publish,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if m.Genres == nil {
		m.Genres = []string{}
	}
	if !md.ReleaseDate.IsZero() {
		m.ReleaseYear = md.ReleaseDate.Year()
	}

	created, err := s.repo.Create(ctx, m)
	if err != nil {
		return nil, false, fmt.Errorf("import movie: %w", err)
	}
	s.invalidate()

	metrics.MoviesCreatedTotal.WithLabelValues("tmdb").Inc()
	s.log.Info().Str("movie_id", created.ID).Int("tmdb_id", tmdbID).Msg("movie imported")
	return created, false, nil
}

func (s *movieService) invalidate() {
	s.lists.Purge()
	s.items.Purge()
}
