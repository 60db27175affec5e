package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keeps cached values in a shared Redis so every API replica sees the
// same invalidations.
type Redis struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	log    *slog.Logger
}

func NewRedis(rdb *redis.Client, ttl time.Duration, log *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Redis{rdb: rdb, ttl: ttl, prefix: "amnii:", log: log}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.WarnContext(ctx, "cache get failed", "key", key, "err", err)
		}
		return nil, false
	}
	return b, true
}

func (r *Redis) Set(ctx context.Context, key string, val []byte) {
	if err := r.rdb.Set(ctx, r.prefix+key, val, r.ttl).Err(); err != nil {
		r.log.WarnContext(ctx, "cache set failed", "key", key, "err", err)
	}
}

// DeletePrefix walks matching keys with SCAN so a large keyspace never blocks
// the server the way KEYS would.
func (r *Redis) DeletePrefix(ctx context.Context, prefix string) {
	iter := r.rdb.Scan(ctx, 0, r.prefix+prefix+"*", 100).Iterator()

	keys := make([]string, 0, 16)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		r.log.WarnContext(ctx, "cache scan failed", "prefix", prefix, "err", err)
		return
	}
	if len(keys) == 0 {
		return
	}

	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		r.log.WarnContext(ctx, "cache invalidate failed", "prefix", prefix, "err", err)
	}
}
