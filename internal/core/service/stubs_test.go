package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/core/ports"
)

var errStoreDown = errors.New("store down")

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

type stubAccountRepo struct {
	byID     map[string]*domain.Account
	findErr  error // returned by FindByID / FindByEmail when set
	touched  []string
	nextID   int
	roleSets []domain.Role
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{byID: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	c := *a
	c.Watchlist = slices.Clone(a.Watchlist)
	return &c
}

func (r *stubAccountRepo) seed(a *domain.Account) *domain.Account {
	r.byID[a.ID] = cloneAccount(a)
	return a
}

func (r *stubAccountRepo) Create(_ context.Context, a *domain.Account) (*domain.Account, error) {
	for _, existing := range r.byID {
		if existing.Email == a.Email {
			return nil, domain.ErrAccountExists
		}
	}
	c := cloneAccount(a)
	if c.ID == "" {
		r.nextID++
		c.ID = "acc-" + string(rune('0'+r.nextID))
	}
	r.byID[c.ID] = cloneAccount(c)
	return c, nil
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, a := range r.byID {
		if a.Email == email {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) List(_ context.Context, f ports.ListAccountsFilter) ([]*domain.Account, int64, error) {
	var out []*domain.Account
	for _, a := range r.byID {
		if f.Role != "" && a.Role != f.Role {
			continue
		}
		out = append(out, cloneAccount(a))
	}
	total := int64(len(out))
	start := (f.Page - 1) * f.Limit
	if start > len(out) {
		start = len(out)
	}
	end := min(start+f.Limit, len(out))
	return out[start:end], total, nil
}

func (r *stubAccountRepo) update(id string, fn func(*domain.Account)) (*domain.Account, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	fn(a)
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) UpdateProfile(_ context.Context, id, name string) (*domain.Account, error) {
	return r.update(id, func(a *domain.Account) { a.Name = name })
}

func (r *stubAccountRepo) UpdateRole(_ context.Context, id string, role domain.Role) (*domain.Account, error) {
	r.roleSets = append(r.roleSets, role)
	return r.update(id, func(a *domain.Account) { a.Role = role })
}

func (r *stubAccountRepo) SetActive(_ context.Context, id string, active bool) (*domain.Account, error) {
	return r.update(id, func(a *domain.Account) { a.Active = active })
}

func (r *stubAccountRepo) TouchLogin(_ context.Context, id string, at time.Time) error {
	r.touched = append(r.touched, id)
	_, err := r.update(id, func(a *domain.Account) { a.LastLoginAt = &at })
	return err
}

func (r *stubAccountRepo) AddToWatchlist(_ context.Context, id, movieID string) (*domain.Account, error) {
	return r.update(id, func(a *domain.Account) {
		if !slices.Contains(a.Watchlist, movieID) {
			a.Watchlist = append(a.Watchlist, movieID)
		}
	})
}

func (r *stubAccountRepo) RemoveFromWatchlist(_ context.Context, id, movieID string) (*domain.Account, error) {
	return r.update(id, func(a *domain.Account) {
		a.Watchlist = slices.DeleteFunc(a.Watchlist, func(m string) bool { return m == movieID })
	})
}

type stubDeviceRepo struct {
	err     error
	upserts []domain.DeviceInfo
}

func (r *stubDeviceRepo) Upsert(_ context.Context, _ string, info domain.DeviceInfo, _ time.Time) error {
	if r.err != nil {
		return r.err
	}
	r.upserts = append(r.upserts, info)
	return nil
}

type stubLimiter struct {
	limit    int
	failures map[string]int
	resets   []string
}

func newStubLimiter(limit int) *stubLimiter {
	return &stubLimiter{limit: limit, failures: make(map[string]int)}
}

func (l *stubLimiter) Exceeded(_ context.Context, key string) (bool, error) {
	return l.failures[key] >= l.limit, nil
}

func (l *stubLimiter) RecordFailure(_ context.Context, key string) error {
	l.failures[key]++
	return nil
}

func (l *stubLimiter) Reset(_ context.Context, key string) error {
	delete(l.failures, key)
	l.resets = append(l.resets, key)
	return nil
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

type stubMovieRepo struct {
	byID      map[string]*domain.Movie
	listCalls int
	nextID    int
}

func newStubMovieRepo() *stubMovieRepo {
	return &stubMovieRepo{byID: make(map[string]*domain.Movie)}
}

func (r *stubMovieRepo) Create(_ context.Context, m *domain.Movie) (*domain.Movie, error) {
	c := *m
	if c.ID == "" {
		r.nextID++
		c.ID = "mov-" + string(rune('0'+r.nextID))
	}
	stored := c
	r.byID[c.ID] = &stored
	return &c, nil
}

func (r *stubMovieRepo) FindByID(_ context.Context, id string) (*domain.Movie, error) {
	m, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrMovieNotFound
	}
	c := *m
	return &c, nil
}

func (r *stubMovieRepo) FindByTMDBID(_ context.Context, tmdbID int) (*domain.Movie, error) {
	for _, m := range r.byID {
		if m.TMDBID == tmdbID {
			c := *m
			return &c, nil
		}
	}
	return nil, domain.ErrMovieNotFound
}

func (r *stubMovieRepo) List(_ context.Context, f ports.ListMoviesFilter) ([]*domain.Movie, int64, error) {
	r.listCalls++
	var out []*domain.Movie
	for _, m := range r.byID {
		if f.PublishedOnly && !m.Published {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(m.Title), strings.ToLower(f.Search)) {
			continue
		}
		if f.Genre != "" && !slices.Contains(m.Genres, f.Genre) {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *domain.Movie) int { return strings.Compare(a.ID, b.ID) })
	total := int64(len(out))
	start := min((f.Page-1)*f.Limit, len(out))
	end := min(start+f.Limit, len(out))
	return out[start:end], total, nil
}

func (r *stubMovieRepo) Update(_ context.Context, m *domain.Movie) (*domain.Movie, error) {
	if _, ok := r.byID[m.ID]; !ok {
		return nil, domain.ErrMovieNotFound
	}
	stored := *m
	r.byID[m.ID] = &stored
	c := *m
	return &c, nil
}

func (r *stubMovieRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrMovieNotFound
	}
	delete(r.byID, id)
	return nil
}

type stubMetadata struct {
	details map[int]*domain.MovieMetadata
	calls   int
}

func (m *stubMetadata) Search(_ context.Context, query string, _ int) ([]domain.MovieMetadata, error) {
	var out []domain.MovieMetadata
	for _, d := range m.details {
		if strings.Contains(strings.ToLower(d.Title), strings.ToLower(query)) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *stubMetadata) Details(_ context.Context, id int) (*domain.MovieMetadata, error) {
	m.calls++
	d, ok := m.details[id]
	if !ok {
		return nil, domain.ErrMovieNotFound
	}
	return d, nil
}

// mapCache never expires; expiry is covered by the cache package tests.
type mapCache[V any] struct {
	mu    sync.Mutex
	items map[string]V
}

func newMapCache[V any]() *mapCache[V] {
	return &mapCache[V]{items: make(map[string]V)}
}

func (c *mapCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *mapCache[V]) Set(key string, v V) {
	c.mu.Lock()
	c.items[key] = v
	c.mu.Unlock()
}

func (c *mapCache[V]) Purge() {
	c.mu.Lock()
	clear(c.items)
	c.mu.Unlock()
}

type stubGenreRepo struct {
	byID   map[string]*domain.Genre
	nextID int
}

func newStubGenreRepo() *stubGenreRepo {
	return &stubGenreRepo{byID: make(map[string]*domain.Genre)}
}

func (r *stubGenreRepo) Create(_ context.Context, g *domain.Genre) (*domain.Genre, error) {
	for _, existing := range r.byID {
		if existing.Slug == g.Slug {
			return nil, domain.ErrGenreExists
		}
	}
	c := *g
	r.nextID++
	c.ID = "gen-" + string(rune('0'+r.nextID))
	stored := c
	r.byID[c.ID] = &stored
	return &c, nil
}

func (r *stubGenreRepo) FindByID(_ context.Context, id string) (*domain.Genre, error) {
	g, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrGenreNotFound
	}
	c := *g
	return &c, nil
}

func (r *stubGenreRepo) List(context.Context) ([]*domain.Genre, error) {
	out := make([]*domain.Genre, 0, len(r.byID))
	for _, g := range r.byID {
		c := *g
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *domain.Genre) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *stubGenreRepo) Update(_ context.Context, g *domain.Genre) (*domain.Genre, error) {
	if _, ok := r.byID[g.ID]; !ok {
		return nil, domain.ErrGenreNotFound
	}
	for id, existing := range r.byID {
		if id != g.ID && existing.Slug == g.Slug {
			return nil, domain.ErrGenreExists
		}
	}
	stored := *g
	r.byID[g.ID] = &stored
	c := *g
	return &c, nil
}

func (r *stubGenreRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrGenreNotFound
	}
	delete(r.byID, id)
	return nil
}

// ---------------------------------------------------------------------------
// Billing
// ---------------------------------------------------------------------------

type stubBillingRepo struct {
	subs     map[string]*domain.Subscription
	payments map[string]*domain.Payment
	err      error
}

func newStubBillingRepo() *stubBillingRepo {
	return &stubBillingRepo{
		subs:     make(map[string]*domain.Subscription),
		payments: make(map[string]*domain.Payment),
	}
}

func (r *stubBillingRepo) UpsertSubscription(_ context.Context, s *domain.Subscription) error {
	if r.err != nil {
		return r.err
	}
	c := *s
	r.subs[s.AccountID] = &c
	return nil
}

func (r *stubBillingRepo) InsertPayment(_ context.Context, p *domain.Payment) error {
	if r.err != nil {
		return r.err
	}
	c := *p
	r.payments[p.EventID] = &c
	return nil
}

func (r *stubBillingRepo) FindSubscription(_ context.Context, accountID string) (*domain.Subscription, error) {
	if r.err != nil {
		return nil, r.err
	}
	sub, ok := r.subs[accountID]
	if !ok {
		return nil, domain.ErrSubscriptionNotFound
	}
	c := *sub
	return &c, nil
}

func (r *stubBillingRepo) FindSubscriptionByProviderRef(_ context.Context, ref string) (*domain.Subscription, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, sub := range r.subs {
		if sub.ProviderRef == ref {
			c := *sub
			return &c, nil
		}
	}
	return nil, domain.ErrSubscriptionNotFound
}

type stubDedup struct {
	dupResult bool
	dupErr    error
	marked    []string
}

func (d *stubDedup) IsDuplicate(_ context.Context, _ string) (bool, error) {
	return d.dupResult, d.dupErr
}

func (d *stubDedup) Mark(_ context.Context, eventID string) error {
	d.marked = append(d.marked, eventID)
	return nil
}

// ---------------------------------------------------------------------------
// Stats & settings
// ---------------------------------------------------------------------------

type stubStatsRepo struct {
	calls       int
	revenue     map[string]int64 // "all", "cur", "prev"
	created     map[string]int64 // "cur", "prev"
	periodStart time.Time
	err         error
}

func (r *stubStatsRepo) CountAccounts(context.Context) (int64, map[domain.Role]int64, int64, error) {
	r.calls++
	if r.err != nil {
		return 0, nil, 0, r.err
	}
	return 10, map[domain.Role]int64{domain.RoleAdmin: 1, domain.RoleGuest: 9}, 8, nil
}

func (r *stubStatsRepo) CountAccountsCreated(_ context.Context, from, _ time.Time) (int64, error) {
	if from.Equal(r.periodStart) {
		return r.created["cur"], nil
	}
	return r.created["prev"], nil
}

func (r *stubStatsRepo) CountMovies(context.Context) (int64, int64, error) {
	return 40, 25, nil
}

func (r *stubStatsRepo) CountDevices(context.Context) (int64, error) {
	return 17, nil
}

func (r *stubStatsRepo) SumRevenue(_ context.Context, from, _ time.Time) (int64, error) {
	switch {
	case from.IsZero():
		return r.revenue["all"], nil
	case from.Equal(r.periodStart):
		return r.revenue["cur"], nil
	default:
		return r.revenue["prev"], nil
	}
}

type stubSettingsRepo struct {
	stored *domain.Settings
	saves  int
}

func (r *stubSettingsRepo) Get(context.Context) (*domain.Settings, error) {
	if r.stored == nil {
		return &domain.Settings{}, nil
	}
	c := *r.stored
	return &c, nil
}

func (r *stubSettingsRepo) Save(_ context.Context, s *domain.Settings) error {
	c := *s
	r.stored = &c
	r.saves++
	return nil
}
