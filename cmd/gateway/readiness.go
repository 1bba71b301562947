package main

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/helpdesk-roster/rosterweb/internal/api/handler"
	redisdb "github.com/helpdesk-roster/rosterweb/internal/infrastructure/db/redis"
)

// connectRedis dials Redis for the readiness probe. The gateway serves no
// request from Redis, so an empty address or a failed ping only drops the
// probe and returns nil.
func connectRedis(ctx context.Context, cfg redisdb.Config, log zerolog.Logger) *redis.Client {
	if cfg.Addr == "" {
		log.Info().Msg("redis not configured, readiness skips it")
		return nil
	}
	rdb, err := redisdb.Connect(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.Addr).Msg("redis unavailable, readiness skips it")
		return nil
	}
	return rdb
}

// readinessChecks lists what /health/ready pings. rdb may be nil.
func readinessChecks(mongo handler.Pinger, rdb *redis.Client) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{"mongodb": mongo}
	if rdb != nil {
		checks["redis"] = handler.RedisPinger(rdb)
	}
	return checks
}
