package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/drxagencia/dashboards/internal/config"
)

// Store represents a generic cache backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ErrCacheMiss indicates the key is absent from the cache.
var ErrCacheMiss = errors.New("cache miss")

// Module provides the cache store to the Fx graph.
var Module = fx.Provide(NewStore)

// NewStore initialises the configured cache store (redis, memory or noop).
func NewStore(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.Cache.Driver {
	case "noop":
		if logger != nil {
			logger.Info("cache disabled; using noop store")
		}
		return noopStore{}, nil
	case "memory":
		if logger != nil {
			logger.Info("using in-process cache", zap.Int("size", cfg.Cache.MemorySize))
		}
		return NewMemoryStore(cfg.Cache.MemorySize, cfg.Cache.DefaultTTL)
	case "redis":
		return newRedisStore(lc, cfg.Cache, logger)
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
	}
}

type noopStore struct{}

func (noopStore) Get(context.Context, string) ([]byte, error) {
	return nil, ErrCacheMiss
}

func (noopStore) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (noopStore) Delete(context.Context, string) error {
	return nil
}

type redisStore struct {
	client     *goredis.Client
	defaultTTL time.Duration
}

func newRedisStore(lc fx.Lifecycle, cfg config.Cache, logger *zap.Logger) (Store, error) {
	opts := &goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	client := goredis.NewClient(opts)
	store := &redisStore{client: client, defaultTTL: cfg.DefaultTTL}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("ping redis: %w", err)
			}
			if logger != nil {
				logger.Info("redis cache connected", zap.String("addr", cfg.Redis.Addr))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if logger != nil {
				logger.Info("closing redis cache")
			}
			return client.Close()
		},
	})

	return store, nil
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrCacheMiss
	}
	res, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("cache key is required")
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.client.Del(ctx, key).Err()
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// memoryStore keeps entries in an expirable LRU. The LRU's lifetime bounds
// every entry and reclaims memory; per-key ttls shorter than it are
// enforced on read.
type memoryStore struct {
	entries    *expirable.LRU[string, memoryEntry]
	defaultTTL time.Duration
	lifetime   time.Duration
	now        func() time.Time
}

// NewMemoryStore returns a size-bounded in-process store. Entries live at
// most defaultTTL; a longer ttl passed to Set is capped.
func NewMemoryStore(size int, defaultTTL time.Duration) (Store, error) {
	if size <= 0 {
		return nil, fmt.Errorf("create lru cache: size must be positive, got %d", size)
	}
	if defaultTTL <= 0 {
		defaultTTL = time.Minute * 5
	}
	return newMemoryStore(size, defaultTTL), nil
}

// NewSessionStore returns an in-process store with no size bound, so a live
// entry is never evicted to make room. Entries are dropped once they expire,
// and never outlive lifetime.
func NewSessionStore(lifetime time.Duration) Store {
	if lifetime <= 0 {
		lifetime = 12 * time.Hour
	}
	return newMemoryStore(0, lifetime)
}

func newMemoryStore(size int, lifetime time.Duration) *memoryStore {
	return &memoryStore{
		entries:    expirable.NewLRU[string, memoryEntry](size, nil, lifetime),
		defaultTTL: lifetime,
		lifetime:   lifetime,
		now:        time.Now,
	}
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	entry, ok := s.entries.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	if !s.now().Before(entry.expiresAt) {
		s.entries.Remove(key)
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), entry.value...), nil
}

func (s *memoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("cache key is required")
	}
	if ttl <= 0 || ttl > s.lifetime {
		ttl = s.defaultTTL
	}
	s.entries.Add(key, memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: s.now().Add(ttl),
	})
	return nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.entries.Remove(key)
	return nil
}
