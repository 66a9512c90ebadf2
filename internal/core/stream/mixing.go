package stream

import (
	"context"

	"streamkit/internal/core/domain"
	apperr "streamkit/pkg/errors"
	"streamkit/pkg/validation"
)

// StartAudioMixing starts the single background mixing channel of the
// stream. Starting while mixing is already active fails with CONFLICT.
func (s *Stream) StartAudioMixing(ctx context.Context, opts domain.AudioMixingOptions) error {
	if err := validation.ValidateFilePath(opts.FilePath); err != nil {
		return apperr.NewInvalidArgumentError(err.Error())
	}
	if err := validation.ValidateMixingPosition(opts.StartPosition); err != nil {
		return apperr.NewInvalidArgumentError(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitializedLocked(); err != nil {
		return err
	}
	if s.mixing != nil && s.mixing.State != domain.MixingStopped {
		return apperr.NewConflictError("audio mixing is already active")
	}

	if err := s.engine.StartMixing(ctx, s.id, opts); err != nil {
		return coded(err, apperr.ErrCodeInternal, "failed to start audio mixing")
	}
	s.mixing = &domain.AudioMixing{
		FilePath: opts.FilePath,
		Position: opts.StartPosition,
		State:    domain.MixingPlaying,
		Volume:   domain.DefaultEffectVolume,
	}
	s.logger.Infow("audio mixing started", "file_path", opts.FilePath)
	return nil
}

// PauseAudioMixing pauses the active mixing session.
func (s *Stream) PauseAudioMixing() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireMixingStateLocked(domain.MixingPlaying); err != nil {
		return err
	}
	if err := s.engine.PauseMixing(s.id); err != nil {
		return coded(err, apperr.ErrCodeInternal, "failed to pause audio mixing")
	}
	s.mixing.State = domain.MixingPaused
	return nil
}

// ResumeAudioMixing resumes a paused mixing session.
func (s *Stream) ResumeAudioMixing() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireMixingStateLocked(domain.MixingPaused); err != nil {
		return err
	}
	if err := s.engine.ResumeMixing(s.id); err != nil {
		return coded(err, apperr.ErrCodeInternal, "failed to resume audio mixing")
	}
	s.mixing.State = domain.MixingPlaying
	return nil
}

// StopAudioMixing stops the active mixing session.
func (s *Stream) StopAudioMixing() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireMixingStateLocked(domain.MixingPlaying, domain.MixingPaused); err != nil {
		return err
	}
	if err := s.engine.StopMixing(s.id); err != nil {
		return coded(err, apperr.ErrCodeInternal, "failed to stop audio mixing")
	}
	s.mixing.State = domain.MixingStopped
	s.mixing.Position = 0
	return nil
}

// SetAudioMixingPosition seeks within the loaded mixing file.
// Out-of-range positions fail; they are never clamped.
func (s *Stream) SetAudioMixingPosition(positionMs int) error {
	if err := validation.ValidateMixingPosition(positionMs); err != nil {
		return apperr.NewInvalidArgumentError(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireMixingStateLocked(domain.MixingPlaying, domain.MixingPaused); err != nil {
		return err
	}
	if err := s.engine.SetMixingPosition(s.id, positionMs); err != nil {
		return coded(err, apperr.ErrCodeInternal, "failed to set audio mixing position")
	}
	s.mixing.Position = positionMs
	return nil
}

// SetAudioMixingVolume adjusts the mixing channel volume.
func (s *Stream) SetAudioMixingVolume(volume int) error {
	if err := validation.ValidateVolume(volume); err != nil {
		return apperr.NewInvalidArgumentError(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireMixingStateLocked(domain.MixingPlaying, domain.MixingPaused); err != nil {
		return err
	}
	if err := s.engine.SetMixingVolume(s.id, volume); err != nil {
		return coded(err, apperr.ErrCodeInternal, "failed to set audio mixing volume")
	}
	s.mixing.Volume = volume
	return nil
}

// GetAudioMixingDuration returns the duration of the loaded mixing file
// in milliseconds.
func (s *Stream) GetAudioMixingDuration(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireMixingStateLocked(domain.MixingPlaying, domain.MixingPaused); err != nil {
		return 0, err
	}
	duration, err := s.engine.MixingDuration(ctx, s.id)
	if err != nil {
		return 0, coded(err, apperr.ErrCodeInternal, "failed to get audio mixing duration")
	}
	return duration, nil
}

// GetAudioMixingPosition returns the current playback offset in
// milliseconds.
func (s *Stream) GetAudioMixingPosition() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireMixingStateLocked(domain.MixingPlaying, domain.MixingPaused); err != nil {
		return 0, err
	}
	position, err := s.engine.MixingPosition(s.id)
	if err != nil {
		return 0, coded(err, apperr.ErrCodeInternal, "failed to get audio mixing position")
	}
	s.mixing.Position = position
	return position, nil
}

// GetAudioMixing returns a snapshot of the mixing session, if any.
func (s *Stream) GetAudioMixing() (domain.AudioMixing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mixing == nil {
		return domain.AudioMixing{}, false
	}
	return *s.mixing, true
}

func (s *Stream) requireMixingStateLocked(states ...domain.MixingState) error {
	if err := s.requireInitializedLocked(); err != nil {
		return err
	}
	if s.mixing == nil {
		return apperr.NewNotActiveError("audio mixing is not active")
	}
	for _, state := range states {
		if s.mixing.State == state {
			return nil
		}
	}
	return apperr.NewNotActiveError("audio mixing is not in a compatible state")
}

// stopMixingLocked tears the mixing session down on close, best-effort.
func (s *Stream) stopMixingLocked() {
	if s.mixing == nil || s.mixing.State == domain.MixingStopped {
		return
	}
	if err := s.engine.StopMixing(s.id); err != nil {
		s.logger.Warnw("failed to stop audio mixing on close", "error", err)
	}
	s.mixing.State = domain.MixingStopped
}
