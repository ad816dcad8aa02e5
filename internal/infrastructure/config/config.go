package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	// PublicURL is the externally visible base URL, used for OAuth redirects.
	PublicURL string `env:"PUBLIC_URL, default=http://localhost:8080"`

	Session SessionConfig
	Login   LoginConfig
	Edge    EdgeConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	TMDB    TMDBConfig
	Billing BillingConfig
	Cache   CacheConfig

	Google OIDCProviderConfig `env:", prefix=OIDC_GOOGLE_"`
	SSO    OIDCProviderConfig `env:", prefix=OIDC_SSO_"`
}

type SessionConfig struct {
	Secret       string        `env:"JWT_SECRET"`
	TTL          time.Duration `env:"SESSION_TTL,    default=24h"`
	Issuer       string        `env:"SESSION_ISSUER, default=moviestream"`
	CookieSecure bool          `env:"COOKIE_SECURE,  default=false"`
}

type LoginConfig struct {
	MaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS,   default=5"`
	Window      time.Duration `env:"LOGIN_ATTEMPT_WINDOW, default=15m"`
}

type EdgeConfig struct {
	// ContentSecurityPolicy overrides the edge filter's built-in policy when set.
	ContentSecurityPolicy string `env:"EDGE_CSP"`
	LandingPath           string `env:"EDGE_LANDING_PATH, default=/browse"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=moviestream"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type TMDBConfig struct {
	APIKey       string        `env:"TMDB_API_KEY"`
	BaseURL      string        `env:"TMDB_BASE_URL,       default=https://api.themoviedb.org/3"`
	ImageBaseURL string        `env:"TMDB_IMAGE_BASE_URL, default=https://image.tmdb.org/t/p"`
	Language     string        `env:"TMDB_LANGUAGE,       default=en-US"`
	Timeout      time.Duration `env:"TMDB_TIMEOUT,        default=10s"`
}

type BillingConfig struct {
	WebhookSecret    string        `env:"STRIPE_WEBHOOK_SECRET"`
	SignatureMaxSkew time.Duration `env:"WEBHOOK_TOLERANCE, default=5m"`
	Workers          int           `env:"BILLING_WORKERS,   default=8"`
}

type CacheConfig struct {
	MovieTTL      time.Duration `env:"CACHE_MOVIE_TTL,      default=60s"`
	StatsTTL      time.Duration `env:"CACHE_STATS_TTL,      default=30s"`
	SweepInterval time.Duration `env:"CACHE_SWEEP_INTERVAL, default=1m"`
}

// OIDCProviderConfig configures one OpenID Connect identity provider. A
// provider without an issuer is disabled.
type OIDCProviderConfig struct {
	Issuer       string `env:"ISSUER"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
}

func (p OIDCProviderConfig) Enabled() bool {
	return p.Issuer != "" && p.ClientID != ""
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads .env.local and .env when present, then the process environment.
// Values already set in the environment win over the files.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Session.Secret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.Session.Secret) < 32 {
		return errors.New("config: JWT_SECRET must be at least 32 bytes in production")
	}
	return nil
}
