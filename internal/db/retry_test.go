package db

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoff_GrowsAndCaps(t *testing.T) {
	require.GreaterOrEqual(t, backoff(0), 500*time.Millisecond)
	require.Less(t, backoff(0), 750*time.Millisecond)

	require.GreaterOrEqual(t, backoff(2), 2*time.Second)

	for _, attempt := range []int{10, 64, 1000} {
		d := backoff(attempt)
		require.GreaterOrEqual(t, d, 10*time.Second)
		require.Less(t, d, 10*time.Second+250*time.Millisecond)
	}
}

func TestConnectWithRetry_BadURL(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := ConnectWithRetry(context.Background(), "::not a url::", 1, 1, log)
	require.Error(t, err)
}

func TestConnectWithRetry_CancelledContext(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ConnectWithRetry(ctx, "::not a url::", 1, 5, log)
	require.Error(t, err)
}
