// Command gateway serves the rostering web client's backend-for-frontend:
// edge guard, API proxy, session cookies, registration and page data.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/helpdesk-roster/rosterweb/internal/api"
	"github.com/helpdesk-roster/rosterweb/internal/api/handler"
	"github.com/helpdesk-roster/rosterweb/internal/api/middleware"
	"github.com/helpdesk-roster/rosterweb/internal/core/ports"
	"github.com/helpdesk-roster/rosterweb/internal/core/service"
	"github.com/helpdesk-roster/rosterweb/internal/infrastructure/apiclient"
	"github.com/helpdesk-roster/rosterweb/internal/infrastructure/config"
	mongodb "github.com/helpdesk-roster/rosterweb/internal/infrastructure/db/mongo"
	redisdb "github.com/helpdesk-roster/rosterweb/internal/infrastructure/db/redis"
	"github.com/helpdesk-roster/rosterweb/internal/infrastructure/queue"
	"github.com/helpdesk-roster/rosterweb/internal/infrastructure/retry"
	"github.com/helpdesk-roster/rosterweb/internal/infrastructure/storage"
	"github.com/helpdesk-roster/rosterweb/internal/infrastructure/tokenstore"
	"github.com/helpdesk-roster/rosterweb/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("godotenv: no .env file loaded")
	}

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "gateway",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := connectRedis(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, log)
	if rdb != nil {
		defer rdb.Close()
	}

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "rosterweb-gateway",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo unavailable")
	}
	defer func() {
		if err := mongodb.Disconnect(mongoClient, shutdownTimeout); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	drafts := mongodb.NewDraftRepository(db)
	if err := drafts.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("draft indexes")
	}

	var verifier middleware.Verifier
	if !cfg.MockAuth() {
		verifier, err = middleware.NewVerifier(ctx, middleware.VerifierConfig{
			Alg:     cfg.JWT.Alg,
			Secret:  cfg.JWT.Secret,
			JWKSURL: cfg.JWT.JWKSURL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("jwt verifier")
		}
	}

	policy := retry.Policy{
		MaxAttempts: cfg.Retry.Attempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
		Factor:      retry.DefaultFactor,
	}

	// Calls made while handling a request carry the caller's token.
	client := apiclient.New(apiclient.Config{
		BaseURL: cfg.API.BaseURL,
		Origin:  cfg.API.BackendOrigin,
		Timeout: cfg.API.Timeout,
		Trace:   cfg.IsDevelopment(),
	}, tokenstore.FromContext{}, logger.Component("apiclient"))

	debouncer := queue.NewDebouncer(cfg.Draft.Debounce, logger.Component("drafts"))
	uploader := storage.NewUploader(storage.Config{
		BaseURL:   cfg.Upload.BaseURL,
		PublicURL: cfg.Upload.PublicURL,
		Token:     cfg.Upload.Token,
	}, logger.Component("uploader"))

	e, err := api.NewRouter(api.Deps{
		Config:   cfg,
		Log:      log,
		Verifier: verifier,
		ClientFor: func(src ports.TokenSource) ports.APIClient {
			return client.WithTokens(src)
		},
		Schedules:     service.NewScheduleService(client, policy, logger.Component("schedule")),
		Dashboards:    service.NewDashboardService(client, policy),
		Performance:   service.NewPerformanceService(client, policy),
		Registrations: service.NewRegistrationService(client, uploader, logger.Component("registration")),
		Drafts:        service.NewDraftService(drafts, debouncer, cfg.Draft.TTL, logger.Component("drafts")),
		Health:        readinessChecks(handler.MongoPinger(db), rdb),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("router")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("auth_mode", cfg.Auth.Mode).Msg("gateway listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	// Pending draft saves are written before the stores close.
	debouncer.Close()
}
