package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/moviestream/streaming-api/internal/api/middleware"
	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/core/ports"
)

func newTestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withClaim(c echo.Context, accountID string, role domain.Role) {
	c.Set(middleware.ClaimKey, &domain.SessionClaim{ID: "s1", AccountID: accountID, Role: role, Watchlist: []string{}})
}

type stubAuthService struct {
	registerFn func(ctx context.Context, email, password, name string) (*domain.Account, error)
	loginFn    func(ctx context.Context, email, password string, device domain.DeviceInfo) (*domain.Session, *domain.Account, error)
	providerFn func(ctx context.Context, a domain.ProviderAssertion, device domain.DeviceInfo) (*domain.Session, *domain.Account, error)
	refreshFn  func(ctx context.Context, current *domain.Session) (*domain.Session, error)
	loggedOut  []string
}

func (s *stubAuthService) Register(ctx context.Context, email, password, name string) (*domain.Account, error) {
	return s.registerFn(ctx, email, password, name)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string, device domain.DeviceInfo) (*domain.Session, *domain.Account, error) {
	return s.loginFn(ctx, email, password, device)
}

func (s *stubAuthService) LoginWithProvider(ctx context.Context, a domain.ProviderAssertion, device domain.DeviceInfo) (*domain.Session, *domain.Account, error) {
	return s.providerFn(ctx, a, device)
}

func (s *stubAuthService) Refresh(ctx context.Context, current *domain.Session) (*domain.Session, error) {
	return s.refreshFn(ctx, current)
}

func (s *stubAuthService) Logout(_ context.Context, claim *domain.SessionClaim) {
	s.loggedOut = append(s.loggedOut, claim.AccountID)
}

type stubProvider struct {
	assertion *domain.ProviderAssertion
	err       error
	codes     []string
}

func (p *stubProvider) Name() string { return "google" }

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (p *stubProvider) Exchange(_ context.Context, code string) (*domain.ProviderAssertion, error) {
	p.codes = append(p.codes, code)
	return p.assertion, p.err
}

type stubMovieService struct {
	movies     map[string]*domain.Movie
	lastList   ports.ListMoviesFilter
	lastUpdate ports.UpdateMovieInput
	existed    bool
}

func (s *stubMovieService) List(_ context.Context, f ports.ListMoviesFilter) (*ports.ListMoviesResult, error) {
	s.lastList = f
	return &ports.ListMoviesResult{Page: 1, Limit: 20}, nil
}

func (s *stubMovieService) Search(context.Context, string) ([]*domain.Movie, error) {
	return nil, nil
}

func (s *stubMovieService) Get(_ context.Context, id string) (*domain.Movie, error) {
	if m, ok := s.movies[id]; ok {
		return m, nil
	}
	return nil, domain.ErrMovieNotFound
}

func (s *stubMovieService) Create(_ context.Context, in ports.CreateMovieInput) (*domain.Movie, error) {
	return &domain.Movie{ID: "m-new", Title: in.Title, Slug: domain.Slugify(in.Title)}, nil
}

func (s *stubMovieService) Update(_ context.Context, id string, in ports.UpdateMovieInput) (*domain.Movie, error) {
	m, ok := s.movies[id]
	if !ok {
		return nil, domain.ErrMovieNotFound
	}
	s.lastUpdate = in
	out := *m
	if in.Title != nil {
		out.Title = *in.Title
	}
	if in.Published != nil {
		out.Published = *in.Published
	}
	return &out, nil
}

func (s *stubMovieService) Delete(context.Context, string) error { return nil }

func (s *stubMovieService) MetadataDetails(_ context.Context, tmdbID int) (*domain.MovieMetadata, error) {
	if tmdbID == 603 {
		return &domain.MovieMetadata{TMDBID: 603, Title: "The Matrix"}, nil
	}
	return nil, domain.ErrMovieNotFound
}

func (s *stubMovieService) SearchMetadata(context.Context, string, int) ([]domain.MovieMetadata, error) {
	return nil, domain.ErrDependencyUnavailable
}

func (s *stubMovieService) ImportFromTMDB(_ context.Context, tmdbID int, publish bool) (*domain.Movie, bool, error) {
	return &domain.Movie{ID: "m-imp", TMDBID: tmdbID, Published: publish}, s.existed, nil
}

type stubSettingsService struct {
	plans []domain.Plan
}

func (s *stubSettingsService) Get(context.Context) (*domain.Settings, error) {
	return &domain.Settings{}, nil
}

func (s *stubSettingsService) Update(_ context.Context, patch domain.Settings) (*domain.Settings, error) {
	return &patch, nil
}

func (s *stubSettingsService) Plans(context.Context) ([]domain.Plan, error) {
	return s.plans, nil
}

type stubSignature struct{ err error }

func (s stubSignature) Verify([]byte, string) error { return s.err }

type stubDispatcher struct {
	events []domain.BillingEvent
	err    error
}

func (d *stubDispatcher) Enqueue(ev domain.BillingEvent) error {
	if d.err != nil {
		return d.err
	}
	d.events = append(d.events, ev)
	return nil
}

type stubGenreService struct {
	genres map[string]*domain.Genre
}

func (s *stubGenreService) List(context.Context) ([]*domain.Genre, error) {
	out := []*domain.Genre{}
	for _, g := range s.genres {
		out = append(out, g)
	}
	return out, nil
}

func (s *stubGenreService) Get(_ context.Context, id string) (*domain.Genre, error) {
	if g, ok := s.genres[id]; ok {
		return g, nil
	}
	return nil, domain.ErrGenreNotFound
}

func (s *stubGenreService) Create(_ context.Context, name string) (*domain.Genre, error) {
	for _, g := range s.genres {
		if g.Name == name {
			return nil, domain.ErrGenreExists
		}
	}
	g := &domain.Genre{ID: "g-new", Name: name, Slug: domain.Slugify(name)}
	s.genres[g.ID] = g
	return g, nil
}

func (s *stubGenreService) Rename(_ context.Context, id, name string) (*domain.Genre, error) {
	g, ok := s.genres[id]
	if !ok {
		return nil, domain.ErrGenreNotFound
	}
	g.Name, g.Slug = name, domain.Slugify(name)
	return g, nil
}

func (s *stubGenreService) Delete(_ context.Context, id string) error {
	if _, ok := s.genres[id]; !ok {
		return domain.ErrGenreNotFound
	}
	delete(s.genres, id)
	return nil
}

type stubSubscriptionService struct {
	subs map[string]*domain.Subscription
}

func (s *stubSubscriptionService) Current(_ context.Context, accountID string) (*domain.Subscription, error) {
	if sub, ok := s.subs[accountID]; ok {
		return sub, nil
	}
	return nil, domain.ErrSubscriptionNotFound
}

type stubAccountService struct {
	ports.AccountService
	accounts map[string]*domain.Account
}

func (s *stubAccountService) Profile(_ context.Context, accountID string) (*domain.Account, error) {
	if a, ok := s.accounts[accountID]; ok {
		return a, nil
	}
	return nil, domain.ErrAccountNotFound
}
