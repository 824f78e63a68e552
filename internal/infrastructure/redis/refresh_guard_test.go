package redisstore_test

import (
	"context"
	"testing"
	"time"

	redisstore "carbonprice-service/internal/infrastructure/redis"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestTryReserve(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	guard := redisstore.New(client, time.Second)

	ctx := context.Background()
	ok, err := guard.TryReserve(ctx, "refresh:eua")
	require.NoError(t, err)
	require.True(t, ok)

	// A second caller inside the TTL loses the reservation.
	ok, err = guard.TryReserve(ctx, "refresh:eua")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTryReserve_ReopensAfterTTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	guard := redisstore.New(client, time.Second)

	ctx := context.Background()
	ok, err := guard.TryReserve(ctx, "refresh:eua")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	ok, err = guard.TryReserve(ctx, "refresh:eua")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestTryReserve_IndependentKeys(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	guard := redisstore.New(client, time.Second)

	ctx := context.Background()
	ok, err := guard.TryReserve(ctx, "refresh:eua")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = guard.TryReserve(ctx, "refresh:cea")
	require.NoError(t, err)
	require.True(t, ok)
}
