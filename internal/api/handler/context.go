package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/moviestream/streaming-api/internal/api/middleware"
	"github.com/moviestream/streaming-api/internal/core/domain"
)

// ctxClaim returns the session claim injected by the session middleware and
// fails fast when it is missing: a route wired without the middleware must not
// reach a service call.
func ctxClaim(c echo.Context) (*domain.SessionClaim, error) {
	claim, ok := middleware.ClaimFromContext(c)
	if !ok || claim.AccountID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return claim, nil
}

// optionalClaim returns the claim when the request carries one.
func optionalClaim(c echo.Context) *domain.SessionClaim {
	claim, _ := middleware.ClaimFromContext(c)
	return claim
}

func isAdmin(claim *domain.SessionClaim) bool {
	return claim != nil && claim.Role == domain.RoleAdmin
}

func deviceInfo(c echo.Context) domain.DeviceInfo {
	return domain.DeviceInfo{
		UserAgent: c.Request().UserAgent(),
		IP:        c.RealIP(),
	}
}
