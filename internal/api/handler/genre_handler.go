package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/moviestream/streaming-api/internal/core/ports"
)

// GenreHandler serves the genre list and its admin management.
type GenreHandler struct {
	service ports.GenreService
}

func NewGenreHandler(service ports.GenreService) *GenreHandler {
	return &GenreHandler{service: service}
}

// List handles GET /api/genres.
//
// @Summary      List genres
// @Tags         genres
// @Produce      json
// @Success      200  {object}  genreListResponse
// @Router       /genres [get]
func (h *GenreHandler) List(c echo.Context) error {
	genres, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, genreListResponse{Genres: genres})
}

// Get handles GET /api/genres/:id.
//
// @Summary      Get a genre
// @Tags         genres
// @Produce      json
// @Param        id   path      string  true  "Genre ID"
// @Success      200  {object}  domain.Genre
// @Failure      404  {object}  errorResponse
// @Router       /genres/{id} [get]
func (h *GenreHandler) Get(c echo.Context) error {
	g, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, g)
}

// Create handles POST /api/genres.
//
// @Summary      Add a genre
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      genreRequest  true  "Genre"
// @Success      201   {object}  domain.Genre
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /genres [post]
func (h *GenreHandler) Create(c echo.Context) error {
	var req genreRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	g, err := h.service.Create(c.Request().Context(), req.Name)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderLocation, "/api/genres/"+g.ID)
	return c.JSON(http.StatusCreated, g)
}

// Update handles PUT /api/genres/:id.
//
// @Summary      Rename a genre
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string        true  "Genre ID"
// @Param        body  body      genreRequest  true  "Genre"
// @Success      200   {object}  domain.Genre
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /genres/{id} [put]
func (h *GenreHandler) Update(c echo.Context) error {
	var req genreRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	g, err := h.service.Rename(c.Request().Context(), c.Param("id"), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, g)
}

// Delete handles DELETE /api/genres/:id.
//
// @Summary      Remove a genre
// @Tags         admin
// @Security     BearerAuth
// @Param        id  path  string  true  "Genre ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /genres/{id} [delete]
func (h *GenreHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
