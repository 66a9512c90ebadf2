package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"streamkit/internal/core/domain"
	"streamkit/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisStatsRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisStatsRepository(client *redis.Client) ports.StatsRepository {
	return &RedisStatsRepository{
		client: client,
		prefix: "streamkit:session:",
	}
}

func (r *RedisStatsRepository) sessionKey(sessionID string) string {
	return r.prefix + sessionID
}

func (r *RedisStatsRepository) indexKey() string {
	return r.prefix + "index"
}

func (r *RedisStatsRepository) SaveSessionStats(ctx context.Context, sessionID string, stats domain.SessionStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal session stats: %w", err)
	}

	if err := r.client.Set(ctx, r.sessionKey(sessionID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set session stats in Redis: %w", err)
	}
	if err := r.client.SAdd(ctx, r.indexKey(), sessionID).Err(); err != nil {
		return fmt.Errorf("failed to index session: %w", err)
	}
	return nil
}

func (r *RedisStatsRepository) GetSessionStats(ctx context.Context, sessionID string) (domain.SessionStats, error) {
	data, err := r.client.Get(ctx, r.sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return domain.SessionStats{}, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return domain.SessionStats{}, fmt.Errorf("failed to get session stats from Redis: %w", err)
	}

	var stats domain.SessionStats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return domain.SessionStats{}, fmt.Errorf("failed to unmarshal session stats: %w", err)
	}
	return stats, nil
}

func (r *RedisStatsRepository) ListSessions(ctx context.Context) ([]string, error) {
	sessions, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions from Redis: %w", err)
	}
	return sessions, nil
}

func (r *RedisStatsRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.SRem(ctx, r.indexKey(), sessionID).Err(); err != nil {
		return fmt.Errorf("failed to remove session from index: %w", err)
	}
	if err := r.client.Del(ctx, r.sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session stats from Redis: %w", err)
	}
	return nil
}
