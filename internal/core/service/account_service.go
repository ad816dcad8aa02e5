package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/core/ports"
)

const (
	defaultAccountLimit = 20
	maxAccountLimit     = 100
)

type accountService struct {
	repo   ports.AccountRepository
	movies ports.MovieRepository
	log    zerolog.Logger
}

// NewAccountService returns an AccountService. Changes made here never touch
// sessions that were already issued.
func NewAccountService(repo ports.AccountRepository, movies ports.MovieRepository, log zerolog.Logger) ports.AccountService {
	return &accountService{repo: repo, movies: movies, log: log}
}

func (s *accountService) Profile(ctx context.Context, accountID string) (*domain.Account, error) {
	a, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	return a, nil
}

func (s *accountService) UpdateProfile(ctx context.Context, accountID, name string) (*domain.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	a, err := s.repo.UpdateProfile(ctx, accountID, name)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return a, nil
}

func (s *accountService) AddToWatchlist(ctx context.Context, accountID, movieID string) (*domain.Account, error) {
	if _, err := s.movies.FindByID(ctx, movieID); err != nil {
		return nil, fmt.Errorf("add to watchlist: %w", err)
	}
	a, err := s.repo.AddToWatchlist(ctx, accountID, movieID)
	if err != nil {
		return nil, fmt.Errorf("add to watchlist: %w", err)
	}
	return a, nil
}

func (s *accountService) RemoveFromWatchlist(ctx context.Context, accountID, movieID string) (*domain.Account, error) {
	a, err := s.repo.RemoveFromWatchlist(ctx, accountID, movieID)
	if err != nil {
		return nil, fmt.Errorf("remove from watchlist: %w", err)
	}
	return a, nil
}

func (s *accountService) List(ctx context.Context, filter ports.ListAccountsFilter) (*ports.ListAccountsResult, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, filter.Role)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultAccountLimit
	}
	if filter.Limit > maxAccountLimit {
		filter.Limit = maxAccountLimit
	}
	filter.Search = strings.TrimSpace(filter.Search)

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	if items == nil {
		items = []*domain.Account{}
	}
	return &ports.ListAccountsResult{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

func (s *accountService) ChangeRole(ctx context.Context, accountID string, role domain.Role) (*domain.Account, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	a, err := s.repo.UpdateRole(ctx, accountID, role)
	if err != nil {
		return nil, fmt.Errorf("change role: %w", err)
	}
	s.log.Info().Str("account_id", accountID).Str("role", string(role)).Msg("account role changed")
	return a, nil
}

func (s *accountService) SetActive(ctx context.Context, accountID string, active bool) (*domain.Account, error) {
	a, err := s.repo.SetActive(ctx, accountID, active)
	if err != nil {
		return nil, fmt.Errorf("set active: %w", err)
	}
	s.log.Info().Str("account_id", accountID).Bool("active", active).Msg("account activation changed")
	return a, nil
}
