package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/amnii/internal/redisclient"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var _ Store = (*Redis)(nil)

// setupRedis connects to TEST_REDIS_ADDR; without it the test is skipped.
func setupRedis(t *testing.T) *Redis {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	rc, err := redisclient.Connect(context.Background(), redisclient.Config{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	return NewRedis(rc.Raw(), time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRedis_SetGetMiss(t *testing.T) {
	c := setupRedis(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()

	_, ok := c.Get(ctx, key)
	require.False(t, ok)

	c.Set(ctx, key, []byte("v1"))

	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	require.Equal(t, "v1", string(got))
}

func TestRedis_DeletePrefix(t *testing.T) {
	c := setupRedis(t)
	ctx := context.Background()

	ns := "test:" + uuid.NewString() + ":"
	movies := ns + "movies:"
	genres := ns + "genres:"

	// more keys than one SCAN page
	for i := 0; i < 250; i++ {
		c.Set(ctx, fmt.Sprintf("%slimit=20:cursor=%d", movies, i), []byte("page"))
	}
	c.Set(ctx, genres+"limit=20:cursor=", []byte("page"))

	c.DeletePrefix(ctx, movies)

	for _, i := range []int{0, 99, 100, 249} {
		_, ok := c.Get(ctx, fmt.Sprintf("%slimit=20:cursor=%d", movies, i))
		require.False(t, ok, "key %d should be gone", i)
	}

	_, ok := c.Get(ctx, genres+"limit=20:cursor=")
	require.True(t, ok, "other prefixes survive")

	c.DeletePrefix(ctx, ns)
}
