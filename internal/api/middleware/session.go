package middleware

import (
	"fmt"
	"net/http"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/moviestream/streaming-api/internal/core/domain"
)

const (
	// SessionCookie carries the signed session token for browser clients.
	SessionCookie = "moviestream_session"
	// ClaimKey is the echo context key holding the verified *domain.SessionClaim.
	ClaimKey = "session_claim"
)

// TokenVerifier turns a raw session token into its claim.
type TokenVerifier interface {
	Verify(token string) (*domain.SessionClaim, error)
}

// Session requires a valid session token in the Authorization header or the
// session cookie and stores the claim under ClaimKey.
func Session(v TokenVerifier) echo.MiddlewareFunc {
	return echojwt.WithConfig(sessionConfig(v, false))
}

// OptionalSession attaches the claim when a valid token is present and lets
// anonymous requests through.
func OptionalSession(v TokenVerifier) echo.MiddlewareFunc {
	return echojwt.WithConfig(sessionConfig(v, true))
}

func sessionConfig(v TokenVerifier, optional bool) echojwt.Config {
	return echojwt.Config{
		ContextKey:  ClaimKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ,cookie:" + SessionCookie,
		ParseTokenFunc: func(_ echo.Context, auth string) (interface{}, error) {
			claim, err := v.Verify(auth)
			if err != nil {
				return nil, err
			}
			return claim, nil
		},
		ContinueOnIgnoredError: optional,
		ErrorHandler: func(_ echo.Context, err error) error {
			if optional {
				return nil
			}
			return fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
		},
	}
}

// ClaimFromContext returns the claim stored by Session, OptionalSession or Edge.
func ClaimFromContext(c echo.Context) (*domain.SessionClaim, bool) {
	claim, ok := c.Get(ClaimKey).(*domain.SessionClaim)
	return claim, ok && claim != nil
}

// TokenFromRequest returns the raw session token, preferring the bearer header.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get(echo.HeaderAuthorization); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
	}
	if ck, err := r.Cookie(SessionCookie); err == nil {
		return ck.Value
	}
	return ""
}
