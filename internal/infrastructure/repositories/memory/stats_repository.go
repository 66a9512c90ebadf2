package memory

import (
	"context"
	"sort"
	"sync"

	"streamkit/internal/core/domain"
	"streamkit/internal/core/ports"
)

type MemoryStatsRepository struct {
	sessions map[string]domain.SessionStats
	mu       sync.RWMutex
}

func NewMemoryStatsRepository() ports.StatsRepository {
	return &MemoryStatsRepository{
		sessions: make(map[string]domain.SessionStats),
	}
}

func (r *MemoryStatsRepository) SaveSessionStats(ctx context.Context, sessionID string, stats domain.SessionStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[sessionID] = stats
	return nil
}

func (r *MemoryStatsRepository) GetSessionStats(ctx context.Context, sessionID string) (domain.SessionStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats, exists := r.sessions[sessionID]
	if !exists {
		return domain.SessionStats{}, domain.ErrSnapshotNotFound
	}
	return stats, nil
}

func (r *MemoryStatsRepository) ListSessions(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]string, 0, len(r.sessions))
	for sessionID := range r.sessions {
		sessions = append(sessions, sessionID)
	}
	sort.Strings(sessions)
	return sessions, nil
}

func (r *MemoryStatsRepository) Delete(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[sessionID]; !exists {
		return domain.ErrSnapshotNotFound
	}
	delete(r.sessions, sessionID)
	return nil
}
