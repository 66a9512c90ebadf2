package repositories

import (
	"context"

	"streamkit/internal/core/ports"
	"streamkit/internal/infrastructure/repositories/memory"
	redisrepo "streamkit/internal/infrastructure/repositories/redis"
	"streamkit/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RepositoryFactory creates repositories with fallback support.
type RepositoryFactory struct {
	useRedis    bool
	redisClient *redis.Client
	logger      *zap.SugaredLogger
}

// NewRepositoryFactory connects to Redis when enabled, falling back to
// in-memory repositories when the connection fails.
func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		useRedis: cfg.Redis.Enabled,
		logger:   logger,
	}

	if cfg.Redis.Enabled {
		client, err := redisrepo.NewRedisClient(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			logger,
		)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory repositories",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
			logger.Info("using Redis repositories")
		}
	}

	if !factory.useRedis {
		logger.Info("using memory repositories")
	}

	return factory, nil
}

// CreateStatsRepository creates a stats repository (Redis or memory).
// The Redis repository is wrapped with retry and circuit breaker logic;
// the in-process memory repository needs neither.
func (f *RepositoryFactory) CreateStatsRepository() ports.StatsRepository {
	if f.useRedis && f.redisClient != nil {
		return NewReliableStatsRepository(redisrepo.NewRedisStatsRepository(f.redisClient), f.logger)
	}
	return memory.NewMemoryStatsRepository()
}

// Close closes the Redis connection if used.
func (f *RepositoryFactory) Close() error {
	if f.redisClient != nil {
		return redisrepo.CloseRedisClient(f.redisClient)
	}
	return nil
}

// HealthCheck checks Redis connection health.
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	if f.useRedis && f.redisClient != nil {
		return f.redisClient.Ping(ctx).Err()
	}
	return nil
}
