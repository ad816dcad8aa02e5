package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/core/ports"
)

// AdminHandler serves the dashboard statistics and the settings document.
type AdminHandler struct {
	stats    ports.StatsService
	settings ports.SettingsService
}

func NewAdminHandler(stats ports.StatsService, settings ports.SettingsService) *AdminHandler {
	return &AdminHandler{stats: stats, settings: settings}
}

// Stats handles GET /api/admin/stats.
//
// @Summary      Dashboard statistics
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.DashboardStats
// @Failure      403  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /admin/stats [get]
func (h *AdminHandler) Stats(c echo.Context) error {
	s, err := h.stats.Snapshot(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

// GetSettings handles GET /api/admin/settings.
//
// @Summary      Read settings
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Settings
// @Router       /admin/settings [get]
func (h *AdminHandler) GetSettings(c echo.Context) error {
	s, err := h.settings.Get(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

// UpdateSettings handles PUT /api/admin/settings. Sections present in the body
// replace the stored ones; omitted sections are left untouched.
//
// @Summary      Update settings
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      domain.Settings  true  "Sections to replace"
// @Success      200   {object}  domain.Settings
// @Failure      400   {object}  errorResponse
// @Router       /admin/settings [put]
func (h *AdminHandler) UpdateSettings(c echo.Context) error {
	var patch domain.Settings
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	s, err := h.settings.Update(c.Request().Context(), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}
