package ports

import (
	"context"

	"streamkit/internal/core/domain"
)

// StatsRepository persists session stats snapshots for external tooling.
type StatsRepository interface {
	SaveSessionStats(ctx context.Context, sessionID string, stats domain.SessionStats) error
	GetSessionStats(ctx context.Context, sessionID string) (domain.SessionStats, error)
	ListSessions(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, sessionID string) error
}
