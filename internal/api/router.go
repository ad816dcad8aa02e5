package api

import (
	"fmt"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/moviestream/streaming-api/internal/api/handler"
	"github.com/moviestream/streaming-api/internal/api/middleware"
	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/infrastructure/http/handlers"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Auth          *handler.AuthHandler
	Accounts      *handler.AccountHandler
	Movies        *handler.MovieHandler
	Genres        *handler.GenreHandler
	Admin         *handler.AdminHandler
	Subscriptions *handler.SubscriptionHandler
	Pages         *handler.PageHandler
	Health        *handlers.HealthHandler
}

// Options carries the cross-cutting pieces of the router.
type Options struct {
	Verifier middleware.TokenVerifier
	Gate     middleware.Gate
	Edge     middleware.EdgeConfig
	Logger   zerolog.Logger
	// Registerer and Gatherer default to the prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(h Handlers, opts Options) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Logger)
	e.Validator = handler.NewValidator()

	promMW, err := echoprometheus.MiddlewareConfig{
		Namespace:  "moviestream",
		Registerer: opts.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}.ToMiddleware()
	if err != nil {
		return nil, fmt.Errorf("prometheus middleware: %w", err)
	}

	opts.Edge.Logger = opts.Logger
	edge, err := middleware.Edge(opts.Edge, opts.Verifier, opts.Gate)
	if err != nil {
		return nil, fmt.Errorf("edge filter: %w", err)
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(opts.Logger))
	e.Use(promMW)
	e.Use(edge)

	// --- Ops ---
	e.GET("/health", h.Health.Liveness)
	e.GET("/health/ready", h.Health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: opts.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	registerAPI(e.Group("/api"), h, opts)
	registerPages(e, h.Pages)

	return e, nil
}

func registerAPI(api *echo.Group, h Handlers, opts Options) {
	session := middleware.Session(opts.Verifier)
	optional := middleware.OptionalSession(opts.Verifier)
	admin := middleware.RequireRole(opts.Gate, domain.RequireAdmin)

	// --- Auth ---
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/logout", h.Auth.Logout, optional)
	api.GET("/auth/oauth/:provider/login", h.Auth.OAuthLogin)
	api.GET("/auth/oauth/:provider/callback", h.Auth.OAuthCallback)
	api.GET("/auth/session", h.Auth.Session, session)
	api.POST("/auth/session/refresh", h.Auth.Refresh, session)
	api.GET("/auth/profile", h.Accounts.Profile, session)
	api.PUT("/auth/profile", h.Accounts.UpdateProfile, session)

	// --- Catalog ---
	api.GET("/movies", h.Movies.List, optional)
	api.GET("/movies/search", h.Movies.Search)
	api.GET("/movies/:id", h.Movies.Get, optional)
	api.POST("/movies", h.Movies.Create, session, admin)
	api.PUT("/movies/:id", h.Movies.Update, session, admin)
	api.PATCH("/movies/:id", h.Movies.Update, session, admin)
	api.DELETE("/movies/:id", h.Movies.Delete, session, admin)

	api.GET("/genres", h.Genres.List)
	api.GET("/genres/:id", h.Genres.Get)
	api.POST("/genres", h.Genres.Create, session, admin)
	api.PUT("/genres/:id", h.Genres.Update, session, admin)
	api.DELETE("/genres/:id", h.Genres.Delete, session, admin)

	api.POST("/watchlist/:movieId", h.Accounts.AddToWatchlist, session)
	api.DELETE("/watchlist/:movieId", h.Accounts.RemoveFromWatchlist, session)

	// --- Subscriptions ---
	api.GET("/subscriptions", h.Subscriptions.Current, session)
	api.GET("/subscriptions/plans", h.Subscriptions.Plans)
	api.POST("/subscriptions/webhook", h.Subscriptions.Webhook)

	// --- Admin ---
	adminGroup := api.Group("/admin", session, admin)
	adminGroup.GET("/stats", h.Admin.Stats)
	adminGroup.GET("/settings", h.Admin.GetSettings)
	adminGroup.PUT("/settings", h.Admin.UpdateSettings)

	users := api.Group("/users", session, admin)
	users.GET("", h.Accounts.List)
	users.GET("/:id", h.Accounts.Get)
	users.PATCH("/:id/role", h.Accounts.ChangeRole)
	users.PATCH("/:id/active", h.Accounts.SetActive)

	tmdb := api.Group("/tmdb", session, admin)
	tmdb.GET("/search", h.Movies.SearchTMDB)
	tmdb.GET("/movie/:id", h.Movies.TMDBDetails)
	tmdb.POST("/import", h.Movies.ImportTMDB)
}

// registerPages mounts the browser pages. Access control for these routes is
// done by the edge filter.
func registerPages(e *echo.Echo, p *handler.PageHandler) {
	pages := map[string]string{
		"/":                       "home",
		"/pricing":                "pricing",
		"/browse":                 "browse",
		"/browse/genre/:slug":     "browse.genre",
		"/browse/search":          "browse.search",
		"/auth/login":             "auth.login",
		"/auth/register":          "auth.register",
		"/auth/error":             "auth.error",
		"/unauthorized":           "unauthorized",
		"/dashboard":              "dashboard",
		"/dashboard/profile":      "dashboard.profile",
		"/dashboard/subscription": "dashboard.subscription",
		"/dashboard/watchlist":    "dashboard.watchlist",
		"/admin":                  "admin",
		"/admin/movies":           "admin.movies",
		"/admin/movies/add":       "admin.movies.add",
		"/admin/movies/edit/:id":  "admin.movies.edit",
		"/admin/movies/:id":       "admin.movies.detail",
		"/admin/genres":           "admin.genres",
		"/admin/genres/add":       "admin.genres.add",
		"/admin/genres/edit/:id":  "admin.genres.edit",
		"/admin/users":            "admin.users",
		"/admin/users/:id":        "admin.users.detail",
		"/admin/subscriptions":    "admin.subscriptions",
		"/admin/settings":         "admin.settings",
		"/admin/settings/storage": "admin.settings.storage",
		"/admin/settings/payment": "admin.settings.payment",
		"/admin/settings/tmdb":    "admin.settings.tmdb",
		"/admin/settings/plans":   "admin.settings.plans",
		"/admin/analytics":        "admin.analytics",
	}
	for path, name := range pages {
		e.GET(path, p.Render(name))
	}
	e.GET("/movie/:id", p.Movie(false))
	e.GET("/movie/:id/watch", p.Movie(true))
}

// requestLogger feeds echo's request logger into zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			switch {
			case v.Status >= 500:
				evt = log.Error().Err(v.Error)
			case v.Error != nil:
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
