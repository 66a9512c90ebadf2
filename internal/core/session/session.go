package session

import (
	"context"
	"sync"
	"time"

	"streamkit/internal/core/domain"
	"streamkit/internal/core/ports"
	"streamkit/internal/core/stream"
	apperr "streamkit/pkg/errors"
	"streamkit/pkg/utils"

	"go.uber.org/zap"
)

// MetricsRecorder receives session and stream metrics updates.
// Implemented by the prometheus collector; a no-op recorder is used
// when monitoring is disabled.
type MetricsRecorder interface {
	RecordStreamCreated(role domain.StreamRole)
	RecordStreamClosed(role domain.StreamRole)
	RecordSessionStats(stats domain.SessionStats)
}

type nopRecorder struct{}

func (nopRecorder) RecordStreamCreated(domain.StreamRole) {}
func (nopRecorder) RecordStreamClosed(domain.StreamRole)  {}
func (nopRecorder) RecordSessionStats(domain.SessionStats) {}

// Session owns a set of streams, assigns their numeric IDs and
// aggregates session-wide statistics.
type Session struct {
	id       string
	engine   ports.MediaEngine
	repo     ports.StatsRepository
	recorder MetricsRecorder
	logger   *zap.SugaredLogger

	mu        sync.RWMutex
	streams   map[domain.StreamID]*stream.Stream
	nextID    domain.StreamID
	createdAt time.Time
	zapLogger *zap.Logger
}

// New creates an empty session over the given engine.
func New(engine ports.MediaEngine, repo ports.StatsRepository, recorder MetricsRecorder, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Session{
		id:        utils.GenerateSessionID(),
		engine:    engine,
		repo:      repo,
		recorder:  recorder,
		logger:    logger.Sugar(),
		streams:   make(map[domain.StreamID]*stream.Stream),
		nextID:    1,
		createdAt: time.Now(),
		zapLogger: logger,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CreateStream allocates a stream in the uninitialized state.
func (s *Session) CreateStream(spec domain.StreamSpec) (*stream.Stream, error) {
	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	st := stream.New(id, spec, s.engine, s.zapLogger)
	s.streams[id] = st
	s.recorder.RecordStreamCreated(spec.Role)

	s.logger.Infow("stream created",
		"stream_id", id,
		"role", spec.Role,
		"audio", spec.Audio,
		"video", spec.Video,
	)
	return st, nil
}

// GetStream returns the stream with the given ID.
func (s *Session) GetStream(id domain.StreamID) (*stream.Stream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.streams[id]
	if !exists {
		return nil, domain.ErrStreamNotFound
	}
	return st, nil
}

// ListStreams returns all streams ordered by ID.
func (s *Session) ListStreams() []*stream.Stream {
	s.mu.RLock()
	defer s.mu.RUnlock()

	streams := make([]*stream.Stream, 0, len(s.streams))
	for id := domain.StreamID(1); id < s.nextID; id++ {
		if st, exists := s.streams[id]; exists {
			streams = append(streams, st)
		}
	}
	return streams
}

// CloseStream closes a stream and removes it from the session.
func (s *Session) CloseStream(id domain.StreamID) error {
	s.mu.Lock()
	st, exists := s.streams[id]
	if exists {
		delete(s.streams, id)
	}
	s.mu.Unlock()

	if !exists {
		return domain.ErrStreamNotFound
	}

	// The stream left the session either way, so the gauge goes down
	// even when teardown reports an error.
	err := st.Close()
	s.recorder.RecordStreamClosed(st.Spec().Role)
	return err
}

// ListDevices enumerates the currently available media devices. The
// result is a fresh snapshot; entries with blank labels are expected
// before permission has been granted.
func (s *Session) ListDevices(ctx context.Context) ([]domain.MediaDevice, error) {
	return s.engine.EnumerateDevices(ctx)
}

// Stats aggregates session-wide counters. The snapshot is persisted to
// the stats repository best-effort for external tooling.
func (s *Session) Stats(ctx context.Context) (domain.SessionStats, error) {
	stats, err := s.engine.SampleSessionStats(ctx)
	if err != nil {
		return domain.SessionStats{}, err
	}

	s.mu.RLock()
	stats.UserCount = len(s.streams)
	s.mu.RUnlock()
	stats.Duration = time.Since(s.createdAt)
	stats.Timestamp = time.Now()

	s.recorder.RecordSessionStats(stats)

	if s.repo != nil {
		if err := s.repo.SaveSessionStats(ctx, s.id, stats); err != nil {
			s.logger.Warnw("failed to persist session stats", "error", err)
		}
	}
	return stats, nil
}

// Close closes every stream in the session.
func (s *Session) Close() error {
	s.mu.Lock()
	streams := make([]*stream.Stream, 0, len(s.streams))
	for _, st := range s.streams {
		streams = append(streams, st)
	}
	s.streams = make(map[domain.StreamID]*stream.Stream)
	s.mu.Unlock()

	var firstErr error
	for _, st := range streams {
		if err := st.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.recorder.RecordStreamClosed(st.Spec().Role)
	}
	s.logger.Infow("session closed", "session_id", s.id, "streams", len(streams))
	return firstErr
}

func validateSpec(spec domain.StreamSpec) error {
	switch spec.Role {
	case domain.RoleLocal, domain.RoleRemote:
	default:
		return apperr.NewInvalidArgumentError("stream role must be local or remote")
	}
	if !spec.Audio && !spec.Video && !spec.ScreenShare {
		return apperr.NewInvalidArgumentError("stream must carry at least one media kind")
	}
	if spec.ScreenShare && spec.CameraID != "" {
		return apperr.NewInvalidArgumentError("screen share streams cannot use a camera device")
	}
	if spec.ScreenShare {
		// Screen capture is delivered as the video track.
		if !spec.Video {
			return apperr.NewInvalidArgumentError("screen share streams must enable video")
		}
	}
	return nil
}
