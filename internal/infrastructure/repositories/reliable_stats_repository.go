package repositories

import (
	"context"
	"errors"

	"streamkit/internal/core/domain"
	"streamkit/internal/core/ports"
	"streamkit/pkg/circuitbreaker"
	"streamkit/pkg/retry"

	"go.uber.org/zap"
)

// ReliableStatsRepository wraps a StatsRepository with retry logic and a
// circuit breaker. Used in front of the Redis repository so transient
// connection failures do not surface as stats errors.
type ReliableStatsRepository struct {
	repo   ports.StatsRepository
	logger *zap.SugaredLogger

	retryConfig retry.Config
	breaker     *circuitbreaker.CircuitBreaker
}

// NewReliableStatsRepository creates a wrapper with default retry and
// circuit breaker settings.
func NewReliableStatsRepository(repo ports.StatsRepository, logger *zap.SugaredLogger) *ReliableStatsRepository {
	retryConfig := retry.DefaultConfig()
	retryConfig.IsRetryable = func(err error) bool {
		// Missing snapshots are a stable outcome, not a transient fault.
		return !errors.Is(err, domain.ErrSnapshotNotFound)
	}

	wrapper := &ReliableStatsRepository{
		repo:        repo,
		logger:      logger,
		retryConfig: retryConfig,
		breaker:     circuitbreaker.New(circuitbreaker.DefaultConfig()),
	}

	wrapper.breaker.OnStateChange(func(from, to circuitbreaker.State) {
		logger.Infow("stats repository circuit breaker state changed",
			"from", from.String(),
			"to", to.String(),
		)
	})

	return wrapper
}

// SaveSessionStats persists a snapshot with retry logic.
func (w *ReliableStatsRepository) SaveSessionStats(ctx context.Context, sessionID string, stats domain.SessionStats) error {
	return retry.Do(ctx, w.retryConfig, func() error {
		return w.breaker.Execute(ctx, func() error {
			return w.repo.SaveSessionStats(ctx, sessionID, stats)
		})
	})
}

// GetSessionStats reads a snapshot through the circuit breaker. Reads are
// not retried; callers poll on their own cadence.
func (w *ReliableStatsRepository) GetSessionStats(ctx context.Context, sessionID string) (domain.SessionStats, error) {
	return circuitbreaker.ExecuteWithResult(ctx, w.breaker, func() (domain.SessionStats, error) {
		return w.repo.GetSessionStats(ctx, sessionID)
	})
}

// ListSessions lists snapshot keys through the circuit breaker.
func (w *ReliableStatsRepository) ListSessions(ctx context.Context) ([]string, error) {
	return circuitbreaker.ExecuteWithResult(ctx, w.breaker, func() ([]string, error) {
		return w.repo.ListSessions(ctx)
	})
}

// Delete removes a snapshot with retry logic.
func (w *ReliableStatsRepository) Delete(ctx context.Context, sessionID string) error {
	return retry.Do(ctx, w.retryConfig, func() error {
		return w.breaker.Execute(ctx, func() error {
			return w.repo.Delete(ctx, sessionID)
		})
	})
}

// BreakerStats returns current circuit breaker statistics.
func (w *ReliableStatsRepository) BreakerStats() circuitbreaker.Stats {
	return w.breaker.GetStats()
}
