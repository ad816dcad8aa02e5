package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/core/ports"
)

// pageResponse describes a page for the frontend renderer. Access control has
// already happened in the edge filter by the time a page handler runs.
type pageResponse struct {
	Page   string            `json:"page"`
	Path   string            `json:"path"`
	Params map[string]string `json:"params,omitempty"`
	Viewer *viewer           `json:"viewer"`
	Movie  *domain.Movie     `json:"movie,omitempty"`
}

type viewer struct {
	AccountID string      `json:"account_id"`
	Role      domain.Role `json:"role"`
	Watchlist []string    `json:"watchlist"`
}

// PageHandler serves the edge-filtered page routes.
type PageHandler struct {
	movies ports.MovieService
}

func NewPageHandler(movies ports.MovieService) *PageHandler {
	return &PageHandler{movies: movies}
}

// Render returns a handler describing the named page.
func (h *PageHandler) Render(page string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, describePage(c, page))
	}
}

// Movie serves /movie/:id and /movie/:id/watch. The video key is only
// included on the watch page, which the edge filter restricts to subscribers.
func (h *PageHandler) Movie(watch bool) echo.HandlerFunc {
	page := "movie"
	if watch {
		page = "movie.watch"
	}
	return func(c echo.Context) error {
		m, err := h.movies.Get(c.Request().Context(), c.Param("id"))
		if err != nil {
			return err
		}
		claim := optionalClaim(c)
		if !m.Published && !isAdmin(claim) {
			return domain.ErrMovieNotFound
		}

		out := *m
		if !watch {
			out.VideoKey = ""
		}
		resp := describePage(c, page)
		resp.Movie = &out
		return c.JSON(http.StatusOK, resp)
	}
}

func describePage(c echo.Context, page string) pageResponse {
	resp := pageResponse{Page: page, Path: c.Request().URL.Path}
	if names := c.ParamNames(); len(names) > 0 {
		resp.Params = make(map[string]string, len(names))
		for _, n := range names {
			resp.Params[n] = c.Param(n)
		}
	}
	if claim := optionalClaim(c); claim != nil {
		resp.Viewer = &viewer{AccountID: claim.AccountID, Role: claim.Role, Watchlist: claim.Watchlist}
	}
	return resp
}
