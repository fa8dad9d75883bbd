package redis

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const pingTimeout = 3 * time.Second

// NewClient connects and pings Redis. A nil client with a nil error means
// Redis is not configured or not reachable and the host runs without it.
func NewClient(addr, password string) (*redis.Client, error) {
	if addr == "" {
		log.Info().Msg("REDIS_URL not set, running without Redis")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		// Don't fail startup if Redis is unavailable
		log.Warn().Err(err).Str("addr", addr).Msg("could not connect to Redis, continuing without it")
		if cerr := client.Close(); cerr != nil {
			return nil, errors.Wrap(cerr, "close unreachable redis client")
		}
		return nil, nil
	}

	log.Info().Str("addr", addr).Msg("connected to Redis")
	return client, nil
}
