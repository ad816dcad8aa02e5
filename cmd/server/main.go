package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/moviestream/streaming-api/internal/api"
	"github.com/moviestream/streaming-api/internal/api/handler"
	"github.com/moviestream/streaming-api/internal/api/middleware"
	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/core/ports"
	"github.com/moviestream/streaming-api/internal/core/service"
	"github.com/moviestream/streaming-api/internal/infrastructure/billing"
	"github.com/moviestream/streaming-api/internal/infrastructure/cache"
	"github.com/moviestream/streaming-api/internal/infrastructure/config"
	mongodb "github.com/moviestream/streaming-api/internal/infrastructure/db/mongo"
	redisdb "github.com/moviestream/streaming-api/internal/infrastructure/db/redis"
	"github.com/moviestream/streaming-api/internal/infrastructure/http/handlers"
	"github.com/moviestream/streaming-api/internal/infrastructure/oauth"
	"github.com/moviestream/streaming-api/internal/infrastructure/queue"
	"github.com/moviestream/streaming-api/internal/infrastructure/tmdb"
	"github.com/moviestream/streaming-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// @title MovieStream API
// @version 1.0
// @description Subscription streaming backend: accounts, sessions, catalog, billing webhooks and admin tools.
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.Init(logger.Options{Pretty: true})
		boot.Fatal().Err(err).Msg("configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "moviestream-api",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	accountRepo := mongodb.NewAccountRepository(db)
	deviceRepo := mongodb.NewDeviceRepository(db)
	movieRepo := mongodb.NewMovieRepository(db)
	genreRepo := mongodb.NewGenreRepository(db)
	billingRepo := mongodb.NewBillingRepository(db)
	settingsRepo := mongodb.NewSettingsRepository(db)
	statsRepo := mongodb.NewStatsRepository(db)

	if err := mongodb.EnsureIndexes(ctx, accountRepo, deviceRepo, movieRepo, genreRepo, billingRepo); err != nil {
		return err
	}

	// --- Caches ---
	movieLists := cache.NewMemory[*ports.ListMoviesResult]("movie_lists", cfg.Cache.MovieTTL)
	movieItems := cache.NewMemory[*domain.Movie]("movies", cfg.Cache.MovieTTL)
	statsCache := cache.NewMemory[*domain.DashboardStats]("stats", cfg.Cache.StatsTTL)
	go movieLists.Run(ctx, cfg.Cache.SweepInterval)
	go movieItems.Run(ctx, cfg.Cache.SweepInterval)
	go statsCache.Run(ctx, cfg.Cache.SweepInterval)

	// --- External providers ---
	var metadata ports.MetadataProvider
	if cfg.TMDB.APIKey != "" {
		metadata = tmdb.NewClient(tmdb.Config{
			APIKey:       cfg.TMDB.APIKey,
			BaseURL:      cfg.TMDB.BaseURL,
			ImageBaseURL: cfg.TMDB.ImageBaseURL,
			Language:     cfg.TMDB.Language,
			Timeout:      cfg.TMDB.Timeout,
		})
	} else {
		log.Warn().Msg("TMDB_API_KEY not set, metadata import disabled")
	}

	providers := identityProviders(ctx, cfg, logger.Component("oauth"))

	// --- Services ---
	issuer := service.NewSessionIssuer(cfg.Session.Secret, cfg.Session.TTL, cfg.Session.Issuer)
	gate := service.NewPolicyGate()
	limiter := redisdb.NewAttemptLimiter(rdb, cfg.Login.MaxAttempts, cfg.Login.Window)

	authService := service.NewAuthService(accountRepo, deviceRepo, issuer, limiter, logger.Component("auth"))
	accountService := service.NewAccountService(accountRepo, movieRepo, logger.Component("accounts"))
	movieService := service.NewMovieService(movieRepo, metadata, movieLists, movieItems, logger.Component("catalog"))
	genreService := service.NewGenreService(genreRepo, logger.Component("genres"))
	subscriptionService := service.NewSubscriptionService(billingRepo)
	settingsService := service.NewSettingsService(settingsRepo, logger.Component("settings"))
	statsService := service.NewStatsService(statsRepo, statsCache, logger.Component("stats"))
	billingService := service.NewBillingEventService(accountRepo, billingRepo, redisdb.NewDedupChecker(rdb), logger.Component("billing"))

	dispatcher := queue.NewDispatcher(cfg.Billing.Workers, billingService, billingRepo, logger.Component("dispatcher"))
	dispatcher.Start(ctx)

	if cfg.Billing.WebhookSecret == "" {
		log.Warn().Msg("STRIPE_WEBHOOK_SECRET not set, billing webhooks will be rejected")
	}

	// --- HTTP ---
	e, err := api.NewRouter(api.Handlers{
		Auth: handler.NewAuthHandler(authService, providers, handler.CookieConfig{
			Secure: cfg.Session.CookieSecure,
			TTL:    cfg.Session.TTL,
		}, cfg.Edge.LandingPath, logger.Component("auth_handler")),
		Accounts: handler.NewAccountHandler(accountService),
		Movies:   handler.NewMovieHandler(movieService),
		Genres:   handler.NewGenreHandler(genreService),
		Admin:    handler.NewAdminHandler(statsService, settingsService),
		Subscriptions: handler.NewSubscriptionHandler(
			settingsService,
			subscriptionService,
			billing.NewVerifier(cfg.Billing.WebhookSecret, cfg.Billing.SignatureMaxSkew),
			billing.ParseEvent,
			dispatcher,
			billing.SignatureHeader,
			logger.Component("webhook"),
		),
		Pages:  handler.NewPageHandler(movieService),
		Health: handlers.NewHealthHandler(handlers.MongoCheck(db), handlers.RedisCheck(rdb)),
	}, api.Options{
		Verifier: issuer,
		Gate:     gate,
		Edge: middleware.EdgeConfig{
			LandingPath:           cfg.Edge.LandingPath,
			ContentSecurityPolicy: cfg.Edge.ContentSecurityPolicy,
		},
		Logger: logger.Component("http"),
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}

// identityProviders discovers every configured OIDC provider. A provider whose
// discovery fails is left out and logged; the server still starts.
func identityProviders(ctx context.Context, cfg *config.Config, log zerolog.Logger) ports.IdentityProviderRegistry {
	registry := ports.IdentityProviderRegistry{}
	configured := map[string]config.OIDCProviderConfig{
		"google": cfg.Google,
		"sso":    cfg.SSO,
	}
	base := strings.TrimRight(cfg.PublicURL, "/")

	for name, pc := range configured {
		if !pc.Enabled() {
			continue
		}
		dctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		p, err := oauth.NewProvider(dctx, oauth.Config{
			Name:         name,
			Issuer:       pc.Issuer,
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			RedirectURL:  base + "/api/auth/oauth/" + name + "/callback",
		})
		cancel()
		if err != nil {
			log.Error().Err(err).Str("provider", name).Msg("identity provider disabled")
			continue
		}
		registry[p.Name()] = p
		log.Info().Str("provider", name).Msg("identity provider ready")
	}
	return registry
}

