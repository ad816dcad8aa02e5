package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/core/ports"
	"github.com/moviestream/streaming-api/internal/pkg/metrics"
)

const minPasswordLength = 8

// dummyHash is compared against when the account has no usable hash so that
// unknown emails cost the same as wrong passwords.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("moviestream-timing-equaliser"), bcrypt.DefaultCost)
	return h
})

// AuthService implements registration, credential and provider login, and the
// session lifecycle on top of a SessionIssuer.
type AuthService struct {
	accounts ports.AccountRepository
	devices  ports.DeviceRepository
	issuer   ports.SessionIssuer
	limiter  ports.AttemptLimiter
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(
	accounts ports.AccountRepository,
	devices ports.DeviceRepository,
	issuer ports.SessionIssuer,
	limiter ports.AttemptLimiter,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		accounts: accounts,
		devices:  devices,
		issuer:   issuer,
		limiter:  limiter,
		log:      log,
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a credentials account with the guest role.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*domain.Account, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || name == "" || len(password) < minPasswordLength {
		return nil, domain.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now().UTC()
	created, err := s.accounts.Create(ctx, &domain.Account{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         domain.RoleGuest,
		Active:       true,
		Watchlist:    []string{},
		Provider:     domain.ProviderCredentials,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("account_id", created.ID).Msg("account registered")
	return created, nil
}

// Login checks local credentials. Every credential failure returns the same
// generic ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string, device domain.DeviceInfo) (*domain.Session, *domain.Account, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		metrics.LoginAttemptsTotal.WithLabelValues(domain.ProviderCredentials, "invalid").Inc()
		return nil, nil, domain.ErrInvalidCredentials
	}

	exceeded, err := s.limiter.Exceeded(ctx, email)
	if err != nil {
		s.log.Warn().Err(err).Msg("attempt limiter check failed, continuing")
	} else if exceeded {
		metrics.LoginAttemptsTotal.WithLabelValues(domain.ProviderCredentials, "throttled").Inc()
		return nil, nil, domain.ErrTooManyAttempts
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, nil, fmt.Errorf("login: %w", err)
	}

	hash := dummyHash()
	if account != nil && account.HasPassword() {
		hash = []byte(account.PasswordHash)
	}
	matched := bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil

	if account == nil || !account.HasPassword() || !matched || !account.Active {
		if ferr := s.limiter.RecordFailure(ctx, email); ferr != nil {
			s.log.Warn().Err(ferr).Msg("failed to record login failure")
		}
		metrics.LoginAttemptsTotal.WithLabelValues(domain.ProviderCredentials, "invalid").Inc()
		return nil, nil, domain.ErrInvalidCredentials
	}

	if rerr := s.limiter.Reset(ctx, email); rerr != nil {
		s.log.Warn().Err(rerr).Msg("failed to reset login attempts")
	}
	return s.startSession(ctx, account, device, domain.ProviderCredentials)
}

// LoginWithProvider turns a verified provider assertion into a session. Role and
// watchlist always come from storage; the assertion only identifies the email.
func (s *AuthService) LoginWithProvider(ctx context.Context, assertion domain.ProviderAssertion, device domain.DeviceInfo) (*domain.Session, *domain.Account, error) {
	email := normalizeEmail(assertion.Email)
	if email == "" || assertion.Provider == "" {
		metrics.LoginAttemptsTotal.WithLabelValues(assertion.Provider, "invalid").Inc()
		return nil, nil, domain.ErrProviderAssertionInvalid
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		account, err = s.provision(ctx, email, assertion)
		if err != nil {
			return nil, nil, err
		}
	case err != nil:
		return nil, nil, fmt.Errorf("provider login: %w", err)
	}

	if !account.Active {
		metrics.LoginAttemptsTotal.WithLabelValues(assertion.Provider, "invalid").Inc()
		return nil, nil, domain.ErrInvalidCredentials
	}
	return s.startSession(ctx, account, device, assertion.Provider)
}

// provision creates the account on first provider login.
func (s *AuthService) provision(ctx context.Context, email string, assertion domain.ProviderAssertion) (*domain.Account, error) {
	name := strings.TrimSpace(assertion.Name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	now := s.now().UTC()
	created, err := s.accounts.Create(ctx, &domain.Account{
		Email:     email,
		Name:      name,
		Role:      domain.RoleGuest,
		Active:    true,
		Watchlist: []string{},
		Provider:  assertion.Provider,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if errors.Is(err, domain.ErrAccountExists) {
		// lost a race with a concurrent first login
		return s.accounts.FindByEmail(ctx, email)
	}
	if err != nil {
		return nil, fmt.Errorf("provision account: %w", err)
	}
	s.log.Info().Str("account_id", created.ID).Str("provider", assertion.Provider).Msg("account provisioned")
	return created, nil
}

func (s *AuthService) startSession(ctx context.Context, account *domain.Account, device domain.DeviceInfo, method string) (*domain.Session, *domain.Account, error) {
	now := s.now().UTC()
	if err := s.accounts.TouchLogin(ctx, account.ID, now); err != nil {
		s.log.Warn().Err(err).Str("account_id", account.ID).Msg("failed to stamp last login")
	} else {
		account.LastLoginAt = &now
	}
	if err := s.devices.Upsert(ctx, account.ID, device, now); err != nil {
		s.log.Warn().Err(err).Str("account_id", account.ID).Msg("failed to record device")
	}

	session, err := s.issuer.Issue(account)
	if err != nil {
		return nil, nil, fmt.Errorf("start session: %w", err)
	}

	metrics.LoginAttemptsTotal.WithLabelValues(method, "success").Inc()
	s.log.Info().
		Str("account_id", account.ID).
		Str("role", string(account.Role)).
		Str("method", method).
		Msg("session issued")
	return session, account, nil
}

// Refresh re-issues the session with the account's current role and watchlist.
// When the store cannot be reached the current session is returned unchanged
// and flagged stale instead of failing the request.
func (s *AuthService) Refresh(ctx context.Context, current *domain.Session) (*domain.Session, error) {
	if current == nil || current.Claim == nil {
		return nil, domain.ErrUnauthenticated
	}

	account, err := s.accounts.FindByID(ctx, current.Claim.AccountID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		metrics.SessionRefreshTotal.WithLabelValues("rejected").Inc()
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		s.log.Warn().Err(err).
			Str("account_id", current.Claim.AccountID).
			Msg("account store unavailable, keeping embedded claim")
		metrics.SessionRefreshTotal.WithLabelValues("stale").Inc()
		return &domain.Session{Token: current.Token, Claim: current.Claim, Stale: true}, nil
	}
	if !account.Active {
		metrics.SessionRefreshTotal.WithLabelValues("rejected").Inc()
		return nil, domain.ErrUnauthenticated
	}

	session, err := s.issuer.Issue(account)
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	metrics.SessionRefreshTotal.WithLabelValues("reissued").Inc()
	return session, nil
}

// Logout is a best-effort reset of the login attempt counter. The token itself
// stays valid until it expires; the client discards it.
func (s *AuthService) Logout(ctx context.Context, claim *domain.SessionClaim) {
	if claim == nil {
		return
	}
	account, err := s.accounts.FindByID(ctx, claim.AccountID)
	if err != nil {
		s.log.Debug().Err(err).Str("account_id", claim.AccountID).Msg("logout: account lookup failed")
		return
	}
	if err := s.limiter.Reset(ctx, account.Email); err != nil {
		s.log.Debug().Err(err).Str("account_id", claim.AccountID).Msg("logout: attempt reset failed")
	}
}
