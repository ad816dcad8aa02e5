package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/core/ports"
)

func newMovieSvc(repo *stubMovieRepo, md ports.MetadataProvider) ports.MovieService {
	return NewMovieService(repo, md,
		newMapCache[*ports.ListMoviesResult](), newMapCache[*domain.Movie](), zerolog.Nop())
}

func seedMovies(t *testing.T, svc ports.MovieService, titles ...string) []*domain.Movie {
	t.Helper()
	out := make([]*domain.Movie, 0, len(titles))
	for _, title := range titles {
		m, err := svc.Create(context.Background(), ports.CreateMovieInput{Title: title, Published: true, Genres: []string{"drama"}})
		if err != nil {
			t.Fatalf("seed %q: %v", title, err)
		}
		out = append(out, m)
	}
	return out
}

func TestMovieService_Create_SetsSlug(t *testing.T) {
	svc := newMovieSvc(newStubMovieRepo(), nil)

	m, err := svc.Create(context.Background(), ports.CreateMovieInput{Title: "  The Matrix: Reloaded! "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.Slug != "the-matrix-reloaded" {
		t.Fatalf("unexpected slug %q", m.Slug)
	}
	if m.Genres == nil {
		t.Fatalf("expected non-nil genres")
	}

	if _, err := svc.Create(context.Background(), ports.CreateMovieInput{Title: " "}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMovieService_List_LimitCappedAt100(t *testing.T) {
	svc := newMovieSvc(newStubMovieRepo(), nil)

	res, err := svc.List(context.Background(), ports.ListMoviesFilter{Limit: 999, Page: 1})
	if err != nil {
		t.Fatal(err)
	}
	if res.Limit != 100 {
		t.Errorf("expected limit 100, got %d", res.Limit)
	}
}

func TestMovieService_List_DefaultsAndPaging(t *testing.T) {
	svc := newMovieSvc(newStubMovieRepo(), nil)
	seedMovies(t, svc, "A1", "A2", "A3", "A4", "A5")

	res, err := svc.List(context.Background(), ports.ListMoviesFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Limit != 20 || res.Page != 1 {
		t.Errorf("expected defaults page=1 limit=20, got page=%d limit=%d", res.Page, res.Limit)
	}

	res, err = svc.List(context.Background(), ports.ListMoviesFilter{Limit: 2, Page: 1})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 5 || res.TotalPages != 3 || len(res.Items) != 2 {
		t.Errorf("unexpected paging: total=%d pages=%d items=%d", res.Total, res.TotalPages, len(res.Items))
	}
}

func TestMovieService_List_PublishedOnly(t *testing.T) {
	repo := newStubMovieRepo()
	svc := newMovieSvc(repo, nil)
	seedMovies(t, svc, "Visible")
	if _, err := svc.Create(context.Background(), ports.CreateMovieInput{Title: "Draft"}); err != nil {
		t.Fatal(err)
	}

	res, _ := svc.List(context.Background(), ports.ListMoviesFilter{PublishedOnly: true})
	if res.Total != 1 || res.Items[0].Title != "Visible" {
		t.Fatalf("expected only the published movie, got %+v", res.Items)
	}
	res, _ = svc.List(context.Background(), ports.ListMoviesFilter{})
	if res.Total != 2 {
		t.Fatalf("expected both movies for admins, got %d", res.Total)
	}
}

func TestMovieService_List_CachedUntilWrite(t *testing.T) {
	repo := newStubMovieRepo()
	svc := newMovieSvc(repo, nil)
	seedMovies(t, svc, "One")

	_, _ = svc.List(context.Background(), ports.ListMoviesFilter{})
	_, _ = svc.List(context.Background(), ports.ListMoviesFilter{})
	if repo.listCalls != 1 {
		t.Fatalf("expected second list to be served from cache, repo called %d times", repo.listCalls)
	}

	seedMovies(t, svc, "Two")
	res, _ := svc.List(context.Background(), ports.ListMoviesFilter{})
	if repo.listCalls != 2 || res.Total != 2 {
		t.Fatalf("expected write to invalidate cache, calls=%d total=%d", repo.listCalls, res.Total)
	}
}

func TestMovieService_Search(t *testing.T) {
	svc := newMovieSvc(newStubMovieRepo(), nil)
	seedMovies(t, svc, "Alien", "Aliens", "Heat")

	if _, err := svc.Search(context.Background(), " a "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short query, got %v", err)
	}

	got, err := svc.Search(context.Background(), "ALIEN")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
}

func TestMovieService_Search_MaxResults(t *testing.T) {
	svc := newMovieSvc(newStubMovieRepo(), nil)
	titles := make([]string, 25)
	for i := range titles {
		titles[i] = "Star " + string(rune('A'+i))
	}
	seedMovies(t, svc, titles...)

	got, err := svc.Search(context.Background(), "star")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 20 {
		t.Fatalf("expected 20 results, got %d", len(got))
	}
}

func TestMovieService_GetAndDelete(t *testing.T) {
	svc := newMovieSvc(newStubMovieRepo(), nil)
	m := seedMovies(t, svc, "Heat")[0]

	got, err := svc.Get(context.Background(), m.ID)
	if err != nil || got.Title != "Heat" {
		t.Fatalf("get: %v %+v", err, got)
	}
	if err := svc.Delete(context.Background(), m.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), m.ID); !errors.Is(err, domain.ErrMovieNotFound) {
		t.Fatalf("expected ErrMovieNotFound after delete, got %v", err)
	}
	if err := svc.Delete(context.Background(), m.ID); !errors.Is(err, domain.ErrMovieNotFound) {
		t.Fatalf("expected ErrMovieNotFound, got %v", err)
	}
}

func TestMovieService_ImportFromTMDB(t *testing.T) {
	md := &stubMetadata{details: map[int]*domain.MovieMetadata{
		603: {
			TMDBID:      603,
			Title:       "The Matrix",
			ReleaseDate: time.Date(1999, 3, 30, 0, 0, 0, 0, time.UTC),
			Rating:      8.2,
			Genres:      []string{"Action", "Science Fiction"},
			PosterURL:   "https://image.tmdb.org/t/p/w500/poster.jpg",
		},
	}}
	svc := newMovieSvc(newStubMovieRepo(), md)

	m, existed, err := svc.ImportFromTMDB(context.Background(), 603, true)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if existed {
		t.Fatalf("expected new movie")
	}
	if m.ReleaseYear != 1999 || m.Slug != "the-matrix" || !m.Published || m.TMDBID != 603 {
		t.Fatalf("unexpected imported movie: %+v", m)
	}

	again, existed, err := svc.ImportFromTMDB(context.Background(), 603, false)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if !existed || again.ID != m.ID {
		t.Fatalf("expected existing movie to be returned, got existed=%v id=%s", existed, again.ID)
	}
	if md.calls != 1 {
		t.Fatalf("expected metadata to be fetched once, got %d", md.calls)
	}
}

func TestMovieService_MetadataUnavailable(t *testing.T) {
	svc := newMovieSvc(newStubMovieRepo(), nil)

	if _, _, err := svc.ImportFromTMDB(context.Background(), 1, true); !errors.Is(err, domain.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	if _, err := svc.SearchMetadata(context.Background(), "x", 0); !errors.Is(err, domain.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	if _, _, err := svc.ImportFromTMDB(context.Background(), 0, true); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMovieService_Update(t *testing.T) {
	repo := newStubMovieRepo()
	svc := newMovieSvc(repo, nil)
	m := seedMovies(t, svc, "Old Title")[0]

	// Warm the list cache so the update has something to invalidate.
	if _, err := svc.List(context.Background(), ports.ListMoviesFilter{PublishedOnly: true}); err != nil {
		t.Fatal(err)
	}
	calls := repo.listCalls

	title := "New Title"
	published := false
	updated, err := svc.Update(context.Background(), m.ID, ports.UpdateMovieInput{Title: &title, Published: &published})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "New Title" || updated.Slug != "new-title" || updated.Published {
		t.Fatalf("unexpected movie: %+v", updated)
	}
	if len(updated.Genres) != 1 || updated.Genres[0] != "drama" {
		t.Fatalf("untouched fields must be kept, got genres %v", updated.Genres)
	}

	res, err := svc.List(context.Background(), ports.ListMoviesFilter{PublishedOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if repo.listCalls != calls+1 || res.Total != 0 {
		t.Fatalf("expected cache invalidation and unpublished movie hidden, calls=%d total=%d", repo.listCalls, res.Total)
	}

	blank := " "
	if _, err := svc.Update(context.Background(), m.ID, ports.UpdateMovieInput{Title: &blank}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Update(context.Background(), "missing", ports.UpdateMovieInput{}); !errors.Is(err, domain.ErrMovieNotFound) {
		t.Fatalf("expected ErrMovieNotFound, got %v", err)
	}
}

func TestMovieService_MetadataDetails(t *testing.T) {
	md := &stubMetadata{details: map[int]*domain.MovieMetadata{550: {TMDBID: 550, Title: "Fight Club"}}}
	svc := newMovieSvc(newStubMovieRepo(), md)

	got, err := svc.MetadataDetails(context.Background(), 550)
	if err != nil || got.Title != "Fight Club" {
		t.Fatalf("unexpected details: %+v %v", got, err)
	}
	if _, err := svc.MetadataDetails(context.Background(), 1); !errors.Is(err, domain.ErrMovieNotFound) {
		t.Fatalf("expected ErrMovieNotFound, got %v", err)
	}
	if _, err := svc.MetadataDetails(context.Background(), -1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := newMovieSvc(newStubMovieRepo(), nil).MetadataDetails(context.Background(), 550); !errors.Is(err, domain.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}
