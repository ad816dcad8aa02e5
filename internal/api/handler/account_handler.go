package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/core/ports"
)

// AccountHandler serves the profile, the watchlist and admin user management.
type AccountHandler struct {
	service ports.AccountService
}

func NewAccountHandler(service ports.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// Profile handles GET /api/auth/profile.
//
// @Summary      Current account
// @Tags         account
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  accountEnvelope
// @Failure      401  {object}  errorResponse
// @Router       /auth/profile [get]
func (h *AccountHandler) Profile(c echo.Context) error {
	claim, err := ctxClaim(c)
	if err != nil {
		return err
	}
	a, err := h.service.Profile(c.Request().Context(), claim.AccountID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountEnvelope{User: a})
}

// UpdateProfile handles PUT /api/auth/profile.
//
// @Summary      Update display name
// @Tags         account
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Profile"
// @Success      200   {object}  accountEnvelope
// @Failure      422   {object}  errorResponse
// @Router       /auth/profile [put]
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	claim, err := ctxClaim(c)
	if err != nil {
		return err
	}
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	a, err := h.service.UpdateProfile(c.Request().Context(), claim.AccountID, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountEnvelope{User: a})
}

// AddToWatchlist handles POST /api/watchlist/:movieId.
//
// @Summary      Add a movie to the watchlist
// @Tags         account
// @Produce      json
// @Security     BearerAuth
// @Param        movieId  path      string  true  "Movie ID"
// @Success      200      {object}  watchlistResponse
// @Failure      404      {object}  errorResponse
// @Router       /watchlist/{movieId} [post]
func (h *AccountHandler) AddToWatchlist(c echo.Context) error {
	claim, err := ctxClaim(c)
	if err != nil {
		return err
	}
	a, err := h.service.AddToWatchlist(c.Request().Context(), claim.AccountID, c.Param("movieId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, watchlistResponse{Watchlist: a.WatchlistSnapshot(), RefreshRequired: true})
}

// RemoveFromWatchlist handles DELETE /api/watchlist/:movieId.
//
// @Summary      Remove a movie from the watchlist
// @Tags         account
// @Produce      json
// @Security     BearerAuth
// @Param        movieId  path      string  true  "Movie ID"
// @Success      200      {object}  watchlistResponse
// @Router       /watchlist/{movieId} [delete]
func (h *AccountHandler) RemoveFromWatchlist(c echo.Context) error {
	claim, err := ctxClaim(c)
	if err != nil {
		return err
	}
	a, err := h.service.RemoveFromWatchlist(c.Request().Context(), claim.AccountID, c.Param("movieId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, watchlistResponse{Watchlist: a.WatchlistSnapshot(), RefreshRequired: true})
}

// List handles GET /api/users.
//
// @Summary      List accounts
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        role    query     string  false  "admin, subscriber or guest"
// @Param        search  query     string  false  "Email or name contains"
// @Param        page    query     int     false  "Page (1-based)"
// @Param        limit   query     int     false  "Page size (max 100)"
// @Success      200     {object}  accountListResponse
// @Failure      400     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Router       /users [get]
func (h *AccountHandler) List(c echo.Context) error {
	res, err := h.service.List(c.Request().Context(), ports.ListAccountsFilter{
		Role:   domain.Role(c.QueryParam("role")),
		Search: c.QueryParam("search"),
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAccountList(res))
}

// Get handles GET /api/users/:id.
//
// @Summary      Get an account
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Account ID"
// @Success      200  {object}  accountEnvelope
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [get]
func (h *AccountHandler) Get(c echo.Context) error {
	a, err := h.service.Profile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountEnvelope{User: a})
}

// ChangeRole handles PATCH /api/users/:id/role. The account's existing
// sessions keep their old role until they are refreshed or expire.
//
// @Summary      Change an account's role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Account ID"
// @Param        body  body      changeRoleRequest  true  "Role"
// @Success      200   {object}  accountEnvelope
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /users/{id}/role [patch]
func (h *AccountHandler) ChangeRole(c echo.Context) error {
	var req changeRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	a, err := h.service.ChangeRole(c.Request().Context(), c.Param("id"), domain.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountEnvelope{User: a})
}

// SetActive handles PATCH /api/users/:id/active.
//
// @Summary      Activate or deactivate an account
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "Account ID"
// @Param        body  body      setActiveRequest  true  "Active flag"
// @Success      200   {object}  accountEnvelope
// @Failure      404   {object}  errorResponse
// @Router       /users/{id}/active [patch]
func (h *AccountHandler) SetActive(c echo.Context) error {
	var req setActiveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	a, err := h.service.SetActive(c.Request().Context(), c.Param("id"), *req.Active)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountEnvelope{User: a})
}
