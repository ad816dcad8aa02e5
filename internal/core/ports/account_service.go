package ports

import (
	"context"

	"github.com/moviestream/streaming-api/internal/core/domain"
)

// ListAccountsResult is a page of accounts.
type ListAccountsResult struct {
	Items      []*domain.Account
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// AccountService covers profile, watchlist and admin account management.
type AccountService interface {
	Profile(ctx context.Context, accountID string) (*domain.Account, error)
	UpdateProfile(ctx context.Context, accountID, name string) (*domain.Account, error)
	AddToWatchlist(ctx context.Context, accountID, movieID string) (*domain.Account, error)
	RemoveFromWatchlist(ctx context.Context, accountID, movieID string) (*domain.Account, error)
	List(ctx context.Context, filter ListAccountsFilter) (*ListAccountsResult, error)
	ChangeRole(ctx context.Context, accountID string, role domain.Role) (*domain.Account, error)
	SetActive(ctx context.Context, accountID string, active bool) (*domain.Account, error)
}
