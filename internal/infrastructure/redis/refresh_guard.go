package redisstore

import (
	"context"
	"time"

	"carbonprice-service/internal/application"

	"github.com/redis/go-redis/v9"
)

// Guard coalesces force-refreshes across API processes: only the caller
// that wins the SetNX reservation runs the scrape chain inside the TTL.
type Guard struct {
	Client *redis.Client
	TTL    time.Duration
}

var _ application.RefreshGuard = (*Guard)(nil)

func New(client *redis.Client, ttl time.Duration) *Guard {
	return &Guard{Client: client, TTL: ttl}
}

func (g *Guard) TryReserve(ctx context.Context, key string) (bool, error) {
	ok, err := g.Client.SetNX(ctx, key, "1", g.TTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}
