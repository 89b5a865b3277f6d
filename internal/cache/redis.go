package cache

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/brightpath/learning-core/internal/logger"
)

// RedisStore backs the read-through cache with a shared redis instance so
// several processes can pool reads. Staleness up to the TTL across
// processes is accepted; same-process writes still invalidate
// synchronously through the repository layer.
type RedisStore struct {
	rdb *goredis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewRedisStore(baseLog *logger.Logger, addr string, ttl time.Duration) (*RedisStore, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis cache requires an address")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{
		rdb: rdb,
		ttl: ttl,
		log: baseLog.With("cache", "redis"),
	}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := s.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false
	}
	if err != nil {
		s.log.Debug("Cache read failed, treating as miss", "key", key, "error", err)
		return nil, false
	}
	return value, true
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) {
	if err := s.rdb.Set(ctx, key, value, s.ttl).Err(); err != nil {
		s.log.Debug("Cache write failed", "key", key, "error", err)
	}
}

func (s *RedisStore) Invalidate(ctx context.Context, key string) {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.log.Debug("Cache invalidation failed", "key", key, "error", err)
	}
}

func (s *RedisStore) Close() error { return s.rdb.Close() }
