package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/herbal-board/internal/cache"
	appconfig "github.com/wolfman30/herbal-board/internal/config"
	"github.com/wolfman30/herbal-board/internal/feed"
	"github.com/wolfman30/herbal-board/internal/http/handlers"
	"github.com/wolfman30/herbal-board/internal/patients"
	"github.com/wolfman30/herbal-board/pkg/logging"
)

// Storage is the persistence side of one board instance.
type Storage struct {
	Repo    patients.Repository
	Cache   cache.Cache
	Bus     feed.Bus
	Checks  map[string]handlers.Check
	closers []func()
}

// Close releases every connection opened for the storage.
func (s *Storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// BuildStorage connects the store, cache and change feed. With
// UseMemoryStore everything stays in process. Without Redis the cache and
// feed fall back to in-process versions, so changes made by other instances
// are not seen.
func BuildStorage(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.UseMemoryStore {
		logger.Warn("using in-memory store; data is lost on restart")
		return &Storage{
			Repo:   patients.NewInMemoryRepository(),
			Cache:  cache.NewMemory(),
			Bus:    feed.NewMemoryBus(),
			Checks: map[string]handlers.Check{},
		}, nil
	}

	pool, err := BuildPostgresPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &Storage{
		Repo:    patients.NewPostgresRepository(pool),
		Checks:  map[string]handlers.Check{"postgres": pool.Ping},
		closers: []func(){pool.Close},
	}

	redisClient := BuildRedisClient(ctx, cfg, logger, true)
	if redisClient == nil {
		logger.Warn("redis unavailable; cache and change feed are local to this instance")
		s.Cache = cache.NewMemory()
		s.Bus = feed.NewMemoryBus()
		return s, nil
	}
	s.Cache = cache.NewRedis(redisClient, cfg.OwnerKey, logger)
	s.Bus = feed.NewRedisBus(redisClient, cfg.OwnerKey, logger)
	s.Checks["redis"] = redisCheck(redisClient)
	s.closers = append(s.closers, func() { _ = redisClient.Close() })
	return s, nil
}

func redisCheck(client *redis.Client) handlers.Check {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
