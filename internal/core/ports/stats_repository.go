package ports

import (
	"context"
	"time"

	"github.com/moviestream/streaming-api/internal/core/domain"
)

// StatsRepository runs the count/sum queries behind the admin dashboard.
type StatsRepository interface {
	CountAccounts(ctx context.Context) (total int64, byRole map[domain.Role]int64, active int64, err error)
	CountAccountsCreated(ctx context.Context, from, to time.Time) (int64, error)
	CountMovies(ctx context.Context) (total, published int64, err error)
	CountDevices(ctx context.Context) (int64, error)
	// SumRevenue sums payment amounts in [from, to). Zero times mean unbounded.
	SumRevenue(ctx context.Context, from, to time.Time) (int64, error)
}

// StatsService builds the dashboard snapshot.
type StatsService interface {
	Snapshot(ctx context.Context) (*domain.DashboardStats, error)
}
