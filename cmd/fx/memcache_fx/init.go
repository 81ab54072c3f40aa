package memcache_fx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"rightmycv/internal/services"
	"rightmycv/pkg/config"
	mem "rightmycv/pkg/memcache"
)

var Module = fx.Provide(provideVerificationStore)

func provideVerificationStore(lc fx.Lifecycle, cfg *config.Config, clock services.Clock, log *zap.Logger) (mem.VerificationStore, error) {
	log = log.Named("verification_cache")

	switch cfg.Cache.Driver {
	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			},
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		})
		return mem.NewRedisVerificationStore(client, cfg.Cache.TTL, clock, log), nil

	case config.CacheMemory:
		cache := mem.NewVerificationCache(mem.CacheConfig{
			TTL:           cfg.Cache.TTL,
			Capacity:      cfg.Cache.Capacity,
			SweepInterval: cfg.Cache.SweepInterval,
		}, clock)

		sweepCtx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go func() {
					defer close(done)
					mem.Run(sweepCtx, cache, cache.SweepInterval(), func(removed int) {
						if removed > 0 {
							log.Debug("sweep removed entries", zap.Int("removed", removed), zap.Int("remaining", cache.Len()))
						}
					})
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				cancel()
				select {
				case <-done:
				case <-ctx.Done():
				}
				return nil
			},
		})
		return cache, nil
	}
	return nil, fmt.Errorf("unsupported CACHE_DRIVER %q", cfg.Cache.Driver)
}
