package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/moviestream/streaming-api/internal/core/domain"
)

const defaultSessionTTL = 24 * time.Hour

// sessionClaims is the JWT payload of a session token.
type sessionClaims struct {
	Role      domain.Role `json:"role"`
	Watchlist []string    `json:"watchlist"`
	jwt.RegisteredClaims
}

// JWTSessionIssuer signs session claims with HS256. It keeps no server-side state.
type JWTSessionIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewSessionIssuer(secret string, ttl time.Duration, issuer string) *JWTSessionIssuer {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &JWTSessionIssuer{secret: []byte(secret), ttl: ttl, issuer: issuer, now: time.Now}
}

// TTL is the fixed validity window of issued sessions.
func (s *JWTSessionIssuer) TTL() time.Duration {
	return s.ttl
}

// Issue mints a claim embedding the account's current role and watchlist.
func (s *JWTSessionIssuer) Issue(account *domain.Account) (*domain.Session, error) {
	if account == nil || account.ID == "" {
		return nil, fmt.Errorf("issue session: %w: missing account", domain.ErrInvalidInput)
	}

	now := s.now().UTC().Truncate(time.Second)
	claim := &domain.SessionClaim{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		Role:      account.Role,
		Watchlist: account.WatchlistSnapshot(),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Role:      claim.Role,
		Watchlist: claim.Watchlist,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        claim.ID,
			Subject:   claim.AccountID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(claim.IssuedAt),
			NotBefore: jwt.NewNumericDate(claim.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claim.ExpiresAt),
		},
	})
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &domain.Session{Token: signed, Claim: claim}, nil
}

// Verify checks signature, algorithm and expiry and returns the embedded claim.
// Every failure wraps domain.ErrUnauthenticated.
func (s *JWTSessionIssuer) Verify(token string) (*domain.SessionClaim, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}

	var claims sessionClaims
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	tkn, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: session expired", domain.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if !tkn.Valid || claims.Subject == "" || !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: malformed session", domain.ErrUnauthenticated)
	}

	claim := &domain.SessionClaim{
		ID:        claims.ID,
		AccountID: claims.Subject,
		Role:      claims.Role,
		Watchlist: claims.Watchlist,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}
	if claims.IssuedAt != nil {
		claim.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	if claim.Watchlist == nil {
		claim.Watchlist = []string{}
	}
	return claim, nil
}
