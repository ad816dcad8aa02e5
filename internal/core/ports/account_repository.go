package ports

import (
	"context"
	"time"

	"github.com/moviestream/streaming-api/internal/core/domain"
)

// ListAccountsFilter carries paging and filters for the admin user list.
type ListAccountsFilter struct {
	Role   domain.Role // empty = any role
	Search string      // optional: partial match on email or name
	Page   int         // 1-based
	Limit  int
}

// AccountRepository defines persistence for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	List(ctx context.Context, filter ListAccountsFilter) ([]*domain.Account, int64, error)
	UpdateProfile(ctx context.Context, id, name string) (*domain.Account, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.Account, error)
	SetActive(ctx context.Context, id string, active bool) (*domain.Account, error)
	TouchLogin(ctx context.Context, id string, at time.Time) error
	// AddToWatchlist and RemoveFromWatchlist have set semantics.
	AddToWatchlist(ctx context.Context, id, movieID string) (*domain.Account, error)
	RemoveFromWatchlist(ctx context.Context, id, movieID string) (*domain.Account, error)
}

// DeviceRepository records the clients an account logs in from.
type DeviceRepository interface {
	Upsert(ctx context.Context, accountID string, info domain.DeviceInfo, at time.Time) error
}
