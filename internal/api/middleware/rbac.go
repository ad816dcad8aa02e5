package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/moviestream/streaming-api/internal/core/domain"
)

// Gate decides whether a claim satisfies a route requirement.
type Gate interface {
	Decide(claim *domain.SessionClaim, req domain.Requirement) domain.Decision
}

// RequireRole enforces req on API routes using the claim stored by Session.
// Redirect outcomes become 401 and deny outcomes 403.
func RequireRole(gate Gate, req domain.Requirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claim, _ := ClaimFromContext(c)
			switch gate.Decide(claim, req) {
			case domain.DecisionAllow:
				return next(c)
			case domain.DecisionRedirect:
				return domain.ErrUnauthenticated
			default:
				return domain.ErrForbidden
			}
		}
	}
}
