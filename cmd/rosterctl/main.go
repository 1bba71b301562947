// Command rosterctl is a terminal client for the help-desk rostering backend.
// It keeps its session token in Redis so consecutive invocations stay signed in.
//
//	rosterctl [-profile name] <command> [flags]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/helpdesk-roster/rosterweb/internal/infrastructure/config"
	redisdb "github.com/helpdesk-roster/rosterweb/internal/infrastructure/db/redis"
	"github.com/helpdesk-roster/rosterweb/internal/infrastructure/tokenstore"
	"github.com/helpdesk-roster/rosterweb/pkg/logger"
)

const migrateTimeout = 2 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  true,
		Service: "rosterctl",
		Output:  os.Stderr,
	})

	profile, args := splitProfile(os.Args[1:])
	if len(args) == 0 {
		usage(os.Stderr)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis unavailable")
	}
	defer rdb.Close()

	store := tokenstore.New(redisdb.NewTokenKV(rdb, "rosterctl:"+profile), logger.Component("tokenstore"))
	if cfg.Auth.MigrateLegacy {
		if tokenstore.MigrateLegacy(ctx, store, migrateTimeout) {
			log.Info().Msg("moved legacy session token")
		}
	}

	app := newApp(cfg, store, os.Stdout, log)
	if err := app.run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
