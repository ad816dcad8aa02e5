package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/core/ports"
)

// MovieHandler serves the catalog and the admin TMDB tools.
type MovieHandler struct {
	service ports.MovieService
}

func NewMovieHandler(service ports.MovieService) *MovieHandler {
	return &MovieHandler{service: service}
}

// List handles GET /api/movies. Only admins may ask for unpublished entries.
//
// @Summary      Browse the catalog
// @Tags         movies
// @Produce      json
// @Param        genre   query     string  false  "Genre"
// @Param        search  query     string  false  "Title contains"
// @Param        page    query     int     false  "Page (1-based)"
// @Param        limit   query     int     false  "Page size (max 100)"
// @Param        all     query     bool    false  "Include unpublished (admin only)"
// @Success      200     {object}  movieListResponse
// @Failure      503     {object}  errorResponse
// @Router       /movies [get]
func (h *MovieHandler) List(c echo.Context) error {
	filter := ports.ListMoviesFilter{
		Genre:         c.QueryParam("genre"),
		Search:        c.QueryParam("search"),
		Page:          queryInt(c, "page"),
		Limit:         queryInt(c, "limit"),
		PublishedOnly: true,
	}
	if isAdmin(optionalClaim(c)) && c.QueryParam("all") == "true" {
		filter.PublishedOnly = false
	}

	res, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMovieList(res))
}

// Search handles GET /api/movies/search?q=.
//
// @Summary      Search published movies by title
// @Tags         movies
// @Produce      json
// @Param        q    query     string  true  "At least two characters"
// @Success      200  {array}   domain.Movie
// @Failure      400  {object}  errorResponse
// @Router       /movies/search [get]
func (h *MovieHandler) Search(c echo.Context) error {
	movies, err := h.service.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return err
	}
	if movies == nil {
		movies = []*domain.Movie{}
	}
	return c.JSON(http.StatusOK, movies)
}

// Get handles GET /api/movies/:id. Unpublished movies are hidden from non-admins.
//
// @Summary      Get a movie
// @Tags         movies
// @Produce      json
// @Param        id   path      string  true  "Movie ID"
// @Success      200  {object}  domain.Movie
// @Failure      404  {object}  errorResponse
// @Router       /movies/{id} [get]
func (h *MovieHandler) Get(c echo.Context) error {
	m, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if !m.Published && !isAdmin(optionalClaim(c)) {
		return domain.ErrMovieNotFound
	}
	return c.JSON(http.StatusOK, m)
}

// Create handles POST /api/movies.
//
// @Summary      Add a movie
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createMovieRequest  true  "Movie"
// @Success      201   {object}  domain.Movie
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /movies [post]
func (h *MovieHandler) Create(c echo.Context) error {
	var req createMovieRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	m, err := h.service.Create(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderLocation, "/api/movies/"+m.ID)
	return c.JSON(http.StatusCreated, m)
}

// Update handles PUT and PATCH /api/movies/:id. Both accept a partial body.
//
// @Summary      Edit a movie
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Movie ID"
// @Param        body  body      updateMovieRequest  true  "Changed fields"
// @Success      200   {object}  domain.Movie
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /movies/{id} [put]
// @Router       /movies/{id} [patch]
func (h *MovieHandler) Update(c echo.Context) error {
	var req updateMovieRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	m, err := h.service.Update(c.Request().Context(), c.Param("id"), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

// Delete handles DELETE /api/movies/:id.
//
// @Summary      Remove a movie
// @Tags         admin
// @Security     BearerAuth
// @Param        id  path  string  true  "Movie ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /movies/{id} [delete]
func (h *MovieHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// SearchTMDB handles GET /api/tmdb/search.
//
// @Summary      Search the metadata provider
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        q     query     string  true   "Title"
// @Param        year  query     int     false  "Release year"
// @Success      200   {array}   domain.MovieMetadata
// @Failure      503   {object}  errorResponse
// @Router       /tmdb/search [get]
func (h *MovieHandler) SearchTMDB(c echo.Context) error {
	results, err := h.service.SearchMetadata(c.Request().Context(), c.QueryParam("q"), queryInt(c, "year"))
	if err != nil {
		return err
	}
	if results == nil {
		results = []domain.MovieMetadata{}
	}
	return c.JSON(http.StatusOK, results)
}

// TMDBDetails handles GET /api/tmdb/movie/:id.
//
// @Summary      Metadata provider details for one movie
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "TMDB id"
// @Success      200  {object}  domain.MovieMetadata
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /tmdb/movie/{id} [get]
func (h *MovieHandler) TMDBDetails(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tmdb id")
	}
	md, err := h.service.MetadataDetails(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, md)
}

// ImportTMDB handles POST /api/tmdb/import. Importing a movie that already
// exists returns it with 200 instead of 201.
//
// @Summary      Import a movie from the metadata provider
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      importMovieRequest  true  "TMDB id"
// @Success      200   {object}  importMovieResponse
// @Success      201   {object}  importMovieResponse
// @Failure      404   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /tmdb/import [post]
func (h *MovieHandler) ImportTMDB(c echo.Context) error {
	var req importMovieRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	m, existed, err := h.service.ImportFromTMDB(c.Request().Context(), req.TMDBID, req.Publish)
	if err != nil {
		return err
	}
	status := http.StatusCreated
	if existed {
		status = http.StatusOK
	}
	return c.JSON(status, importMovieResponse{Movie: m, Existed: existed})
}

// queryInt returns 0 for missing or malformed values; services apply defaults.
func queryInt(c echo.Context, name string) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return n
}
