package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/core/ports"
)

const (
	statsPeriod   = 30 * 24 * time.Hour
	statsCacheKey = "dashboard"
)

type statsService struct {
	repo  ports.StatsRepository
	cache ports.Cache[*domain.DashboardStats]
	log   zerolog.Logger
	now   func() time.Time
}

func NewStatsService(repo ports.StatsRepository, cache ports.Cache[*domain.DashboardStats], log zerolog.Logger) ports.StatsService {
	return &statsService{repo: repo, cache: cache, log: log, now: time.Now}
}

// Snapshot aggregates the admin dashboard figures. The current period is the
// last 30 days and is compared to the 30 days before it.
func (s *statsService) Snapshot(ctx context.Context) (*domain.DashboardStats, error) {
	if cached, ok := s.cache.Get(statsCacheKey); ok {
		return cached, nil
	}

	now := s.now().UTC()
	periodStart := now.Add(-statsPeriod)
	prevStart := periodStart.Add(-statsPeriod)

	total, byRole, active, err := s.repo.CountAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: count accounts: %w", err)
	}
	moviesTotal, published, err := s.repo.CountMovies(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: count movies: %w", err)
	}
	devices, err := s.repo.CountDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: count devices: %w", err)
	}
	revenueAll, err := s.repo.SumRevenue(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("stats: revenue: %w", err)
	}
	revenueCur, err := s.repo.SumRevenue(ctx, periodStart, now)
	if err != nil {
		return nil, fmt.Errorf("stats: revenue: %w", err)
	}
	revenuePrev, err := s.repo.SumRevenue(ctx, prevStart, periodStart)
	if err != nil {
		return nil, fmt.Errorf("stats: revenue: %w", err)
	}
	newCur, err := s.repo.CountAccountsCreated(ctx, periodStart, now)
	if err != nil {
		return nil, fmt.Errorf("stats: new accounts: %w", err)
	}
	newPrev, err := s.repo.CountAccountsCreated(ctx, prevStart, periodStart)
	if err != nil {
		return nil, fmt.Errorf("stats: new accounts: %w", err)
	}

	if byRole == nil {
		byRole = map[domain.Role]int64{}
	}
	for _, r := range []domain.Role{domain.RoleAdmin, domain.RoleSubscriber, domain.RoleGuest} {
		if _, ok := byRole[r]; !ok {
			byRole[r] = 0
		}
	}

	snap := &domain.DashboardStats{
		AccountsTotal:         total,
		AccountsByRole:        byRole,
		ActiveAccounts:        active,
		MoviesTotal:           moviesTotal,
		PublishedMovies:       published,
		DevicesTotal:          devices,
		RevenueCents:          revenueAll,
		RevenueThisPeriod:     revenueCur,
		RevenuePrevPeriod:     revenuePrev,
		RevenueDeltaPct:       domain.PercentDelta(revenueCur, revenuePrev),
		NewAccountsThisPeriod: newCur,
		NewAccountsPrevPeriod: newPrev,
		NewAccountsDeltaPct:   domain.PercentDelta(newCur, newPrev),
		GeneratedAt:           now,
	}
	s.cache.Set(statsCacheKey, snap)
	s.log.Debug().Int64("accounts", total).Int64("movies", moviesTotal).Msg("dashboard snapshot built")
	return snap, nil
}
