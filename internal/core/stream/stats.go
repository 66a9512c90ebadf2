package stream

import (
	"context"

	"streamkit/internal/core/domain"
	apperr "streamkit/pkg/errors"
)

// GetStats fetches a best-effort statistics snapshot from the engine.
// The shape depends on the stream role: local streams report the
// publish-side counters, remote streams the subscribe-side ones.
func (s *Stream) GetStats(ctx context.Context) (domain.StreamStats, error) {
	s.mu.Lock()
	if err := s.requireInitializedLocked(); err != nil {
		s.mu.Unlock()
		return domain.StreamStats{}, err
	}
	role := s.spec.Role
	s.mu.Unlock()

	// Sampling runs outside the stream lock; it only reads engine-side
	// counters and must not block stream mutations.
	if role == domain.RoleLocal {
		local, err := s.engine.SampleLocalStats(ctx, s.id)
		if err != nil {
			return domain.StreamStats{}, coded(err, apperr.ErrCodeInternal, "failed to sample local stats")
		}
		return domain.StreamStats{Role: role, Local: &local}, nil
	}

	remote, err := s.engine.SampleRemoteStats(ctx, s.id)
	if err != nil {
		return domain.StreamStats{}, coded(err, apperr.ErrCodeInternal, "failed to sample remote stats")
	}
	return domain.StreamStats{Role: role, Remote: &remote}, nil
}
