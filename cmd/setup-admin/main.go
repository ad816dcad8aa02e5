// Command setup-admin creates the first administrator, or promotes an
// existing account to admin.
//
//	setup-admin -email ops@example.com -password 'long-secret' -name Ops
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"

	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/core/service"
	"github.com/moviestream/streaming-api/internal/infrastructure/config"
	mongodb "github.com/moviestream/streaming-api/internal/infrastructure/db/mongo"
	"github.com/moviestream/streaming-api/pkg/logger"
)

func main() {
	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "admin email")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password (min 8 chars)")
	name := flag.String("name", "Administrator", "display name")
	flag.Parse()

	log := logger.Init(logger.Options{Pretty: true, Service: "setup-admin"})

	if *email == "" {
		log.Fatal().Msg("-email is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")
	var mcfg config.MongoConfig
	if err := envconfig.Process(ctx, &mcfg); err != nil {
		log.Fatal().Err(err).Msg("configuration")
	}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: mcfg.URI, Database: mcfg.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo")
	}
	defer client.Disconnect(context.Background())

	accounts := mongodb.NewAccountRepository(db)
	if err := mongodb.EnsureIndexes(ctx, accounts); err != nil {
		log.Fatal().Err(err).Msg("indexes")
	}

	admin, err := setupAdmin(ctx, accounts, *email, *password, *name, log)
	if err != nil {
		log.Fatal().Err(err).Msg("setup admin")
	}
	log.Info().Str("account_id", admin.ID).Str("email", admin.Email).Msg("admin ready")
}

func setupAdmin(ctx context.Context, accounts *mongodb.AccountRepository, email, password, name string, log zerolog.Logger) (*domain.Account, error) {
	auth := service.NewAuthService(accounts, nil, nil, nil, log)
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := accounts.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == domain.RoleAdmin {
			return existing, nil
		}
		log.Info().Str("account_id", existing.ID).Str("from", string(existing.Role)).Msg("promoting existing account")
		return accounts.UpdateRole(ctx, existing.ID, domain.RoleAdmin)
	case !errors.Is(err, domain.ErrAccountNotFound):
		return nil, err
	}

	created, err := auth.Register(ctx, email, password, name)
	if err != nil {
		return nil, err
	}
	return accounts.UpdateRole(ctx, created.ID, domain.RoleAdmin)
}
