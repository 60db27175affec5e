package db

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// backoff doubles from 500ms up to 10s with up to 250ms of jitter.
func backoff(attempt int) time.Duration {
	base := 500 * time.Millisecond
	capDelay := 10 * time.Second

	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt)))

	if delay > capDelay || delay <= 0 {
		delay = capDelay
	}

	return delay + time.Duration(rand.Intn(250))*time.Millisecond
}

// ConnectWithRetry keeps dialing Postgres until it answers, attempts run out
// or ctx is done. Containers often start the API before the database.
func ConnectWithRetry(ctx context.Context, dbURL string, maxConns int32, attempts int, log *slog.Logger) (*pgxpool.Pool, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		pool, err := NewPool(ctx, dbURL, maxConns)
		if err == nil {
			return pool, nil
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}

		wait := backoff(attempt)
		log.WarnContext(ctx, "postgres not ready, retrying", "attempt", attempt+1, "wait", wait, "err", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil, lastErr
}
