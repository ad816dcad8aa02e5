package ports

import (
	"context"

	"github.com/moviestream/streaming-api/internal/core/domain"
)

// AuthService is the credential and provider adapter plus session lifecycle.
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*domain.Account, error)
	Login(ctx context.Context, email, password string, device domain.DeviceInfo) (*domain.Session, *domain.Account, error)
	LoginWithProvider(ctx context.Context, assertion domain.ProviderAssertion, device domain.DeviceInfo) (*domain.Session, *domain.Account, error)
	Refresh(ctx context.Context, current *domain.Session) (*domain.Session, error)
	Logout(ctx context.Context, claim *domain.SessionClaim)
}

// SessionIssuer mints and verifies signed session claims.
type SessionIssuer interface {
	Issue(account *domain.Account) (*domain.Session, error)
	Verify(token string) (*domain.SessionClaim, error)
}

// AttemptLimiter counts failed logins per key inside a sliding window.
type AttemptLimiter interface {
	Exceeded(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// IdentityProvider is an external OpenID Connect provider.
type IdentityProvider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*domain.ProviderAssertion, error)
}

// IdentityProviderRegistry holds the configured providers keyed by name.
type IdentityProviderRegistry map[string]IdentityProvider
