package stream

import (
	"fmt"

	"streamkit/internal/core/domain"
	"streamkit/internal/core/ports"
	apperr "streamkit/pkg/errors"
)

// HasAudio reports whether an owned audio track is currently bound.
func (s *Stream) HasAudio() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audioTrack != nil
}

// HasVideo reports whether an owned video track is currently bound.
func (s *Stream) HasVideo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videoTrack != nil
}

// GetAudioTrack returns the owned audio track, if any.
func (s *Stream) GetAudioTrack() (ports.MediaTrack, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audioTrack, s.audioTrack != nil
}

// GetVideoTrack returns the owned video track, if any.
func (s *Stream) GetVideoTrack() (ports.MediaTrack, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videoTrack, s.videoTrack != nil
}

// AddTrack binds a track of a kind the stream does not hold yet. Adding
// a second track of the same kind fails; use ReplaceTrack instead.
func (s *Stream) AddTrack(track ports.MediaTrack) error {
	if track == nil {
		return apperr.NewInvalidArgumentError("track is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireTrackMutationLocked(); err != nil {
		return err
	}
	if s.trackOfLocked(track.Kind()) != nil {
		return apperr.NewUnsupportedOperationError(fmt.Sprintf("stream already holds a %s track", track.Kind()))
	}

	if err := s.engine.AttachTrack(s.id, track); err != nil {
		return coded(err, apperr.ErrCodeInternal, "failed to attach track")
	}
	s.setTrackOfLocked(track.Kind(), track)
	s.setEnabledFlagLocked(track.Kind(), track.Enabled())
	s.logger.Infow("track added", "kind", track.Kind(), "track_id", track.ID())
	return nil
}

// RemoveTrack detaches the given track. Removing a track that is not
// bound to this stream is a safe no-op.
func (s *Stream) RemoveTrack(track ports.MediaTrack) error {
	if track == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireTrackMutationLocked(); err != nil {
		return err
	}
	current := s.trackOfLocked(track.Kind())
	if current == nil || current.ID() != track.ID() {
		return nil
	}

	if err := s.engine.DetachTrack(s.id, current); err != nil {
		return coded(err, apperr.ErrCodeInternal, "failed to detach track")
	}
	s.setTrackOfLocked(track.Kind(), nil)
	s.setEnabledFlagLocked(track.Kind(), false)
	s.logger.Infow("track removed", "kind", track.Kind(), "track_id", track.ID())
	return nil
}

// ReplaceTrack atomically swaps the active track of the matching kind.
// The previous track is stopped and released; subscribers are not
// notified of the swap.
func (s *Stream) ReplaceTrack(track ports.MediaTrack) error {
	if track == nil {
		return apperr.NewInvalidArgumentError("track is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireTrackMutationLocked(); err != nil {
		return err
	}

	if err := s.engine.AttachTrack(s.id, track); err != nil {
		return coded(err, apperr.ErrCodeInternal, "failed to attach replacement track")
	}

	previous := s.trackOfLocked(track.Kind())
	if previous != nil {
		if err := s.engine.DetachTrack(s.id, previous); err != nil {
			s.logger.Warnw("failed to detach previous track", "track_id", previous.ID(), "error", err)
		}
		// Releasing the prior holder enforces exclusive track ownership.
		s.releaseTracks(previous)
	}
	s.setTrackOfLocked(track.Kind(), track)
	s.setEnabledFlagLocked(track.Kind(), track.Enabled())
	s.logger.Infow("track replaced", "kind", track.Kind(), "track_id", track.ID())
	return nil
}

func (s *Stream) requireTrackMutationLocked() error {
	if err := s.requireInitializedLocked(); err != nil {
		return err
	}
	if !s.engine.Capabilities().TrackMutation {
		return apperr.NewUnsupportedOperationError("runtime track mutation is not supported by this engine")
	}
	return nil
}

func (s *Stream) setEnabledFlagLocked(kind domain.MediaKind, enabled bool) {
	if kind == domain.MediaKindAudio {
		s.audioEnabled = enabled
	} else {
		s.videoEnabled = enabled
	}
}
