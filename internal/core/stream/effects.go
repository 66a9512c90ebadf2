package stream

import (
	"context"
	"fmt"

	"streamkit/internal/core/domain"
	apperr "streamkit/pkg/errors"
	"streamkit/pkg/validation"
)

// PreloadEffect loads an audio effect file under a caller-chosen sound
// ID. The ID must stay unique while the effect is loaded.
func (s *Stream) PreloadEffect(ctx context.Context, soundID int, filePath string) error {
	if err := validation.ValidateSoundID(soundID); err != nil {
		return apperr.NewInvalidArgumentError(err.Error())
	}
	if err := validation.ValidateFilePath(filePath); err != nil {
		return apperr.NewInvalidArgumentError(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitializedLocked(); err != nil {
		return err
	}
	if _, exists := s.effects[soundID]; exists {
		return apperr.NewConflictError(fmt.Sprintf("sound ID %d is already loaded", soundID))
	}

	effect := &domain.AudioEffect{
		SoundID:  soundID,
		FilePath: filePath,
		State:    domain.EffectLoading,
		Volume:   domain.DefaultEffectVolume,
	}
	s.effects[soundID] = effect
	s.effectOrder = append(s.effectOrder, soundID)

	if err := s.engine.LoadEffect(ctx, s.id, soundID, filePath); err != nil {
		s.removeEffectLocked(soundID)
		return coded(err, apperr.ErrCodeInternal, "failed to load effect")
	}
	effect.State = domain.EffectLoaded
	s.logger.Debugw("effect preloaded", "sound_id", soundID, "file_path", filePath)
	return nil
}

// PlayEffect starts playback of an effect. An effect that was never
// preloaded is loaded first; opts.FilePath is required in that case.
func (s *Stream) PlayEffect(ctx context.Context, opts domain.EffectOptions) error {
	if err := validation.ValidateSoundID(opts.SoundID); err != nil {
		return apperr.NewInvalidArgumentError(err.Error())
	}
	volume := domain.DefaultEffectVolume
	if opts.Volume != nil {
		volume = *opts.Volume
	}
	if err := validation.ValidateVolume(volume); err != nil {
		return apperr.NewInvalidArgumentError(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitializedLocked(); err != nil {
		return err
	}

	effect, exists := s.effects[opts.SoundID]
	if !exists {
		if err := validation.ValidateFilePath(opts.FilePath); err != nil {
			return apperr.NewInvalidArgumentError("effect is not loaded and no file path was given")
		}
		effect = &domain.AudioEffect{
			SoundID:  opts.SoundID,
			FilePath: opts.FilePath,
			State:    domain.EffectLoading,
			Volume:   volume,
		}
		s.effects[opts.SoundID] = effect
		s.effectOrder = append(s.effectOrder, opts.SoundID)

		if err := s.engine.LoadEffect(ctx, s.id, opts.SoundID, opts.FilePath); err != nil {
			s.removeEffectLocked(opts.SoundID)
			return coded(err, apperr.ErrCodeInternal, "failed to load effect")
		}
		effect.State = domain.EffectLoaded
	}

	if effect.State != domain.EffectLoaded {
		return apperr.NewInvalidStateError(fmt.Sprintf("effect %d cannot play from state %s", opts.SoundID, effect.State))
	}

	if err := s.engine.PlayEffect(s.id, opts.SoundID, volume, opts.Cycle); err != nil {
		return coded(err, apperr.ErrCodeInternal, "failed to play effect")
	}
	effect.State = domain.EffectPlaying
	effect.Volume = volume
	s.logger.Debugw("effect playing", "sound_id", opts.SoundID, "volume", volume)
	return nil
}

// PauseEffect pauses a playing effect.
func (s *Stream) PauseEffect(soundID int) error {
	return s.transitionEffect(soundID, domain.EffectPaused, s.engine.PauseEffect, domain.EffectPlaying)
}

// ResumeEffect resumes a paused effect.
func (s *Stream) ResumeEffect(soundID int) error {
	return s.transitionEffect(soundID, domain.EffectPlaying, s.engine.ResumeEffect, domain.EffectPaused)
}

// StopEffect stops a playing or paused effect; the effect stays loaded.
func (s *Stream) StopEffect(soundID int) error {
	return s.transitionEffect(soundID, domain.EffectLoaded, s.engine.StopEffect, domain.EffectPlaying, domain.EffectPaused)
}

// UnloadEffect releases an effect from any non-unloaded state.
func (s *Stream) UnloadEffect(soundID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitializedLocked(); err != nil {
		return err
	}
	if _, exists := s.effects[soundID]; !exists {
		return apperr.NewInvalidStateError(fmt.Sprintf("effect %d is not loaded", soundID))
	}
	if err := s.engine.UnloadEffect(s.id, soundID); err != nil {
		return coded(err, apperr.ErrCodeInternal, "failed to unload effect")
	}
	s.removeEffectLocked(soundID)
	s.logger.Debugw("effect unloaded", "sound_id", soundID)
	return nil
}

// SetVolumeOfEffect adjusts the volume of one loaded effect.
func (s *Stream) SetVolumeOfEffect(soundID, volume int) error {
	if err := validation.ValidateVolume(volume); err != nil {
		return apperr.NewInvalidArgumentError(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitializedLocked(); err != nil {
		return err
	}
	effect, exists := s.effects[soundID]
	if !exists {
		return apperr.NewInvalidStateError(fmt.Sprintf("effect %d is not loaded", soundID))
	}
	if err := s.engine.SetEffectVolume(s.id, soundID, volume); err != nil {
		return coded(err, apperr.ErrCodeInternal, "failed to set effect volume")
	}
	effect.Volume = volume
	return nil
}

// GetEffectsVolume returns the volume of every loaded effect, ordered by
// insertion.
func (s *Stream) GetEffectsVolume() []domain.EffectVolume {
	s.mu.Lock()
	defer s.mu.Unlock()

	volumes := make([]domain.EffectVolume, 0, len(s.effectOrder))
	for _, soundID := range s.effectOrder {
		effect, exists := s.effects[soundID]
		if !exists || effect.State == domain.EffectLoading {
			continue
		}
		volumes = append(volumes, domain.EffectVolume{SoundID: soundID, Volume: effect.Volume})
	}
	return volumes
}

// GetEffect returns a snapshot of one effect entry.
func (s *Stream) GetEffect(soundID int) (domain.AudioEffect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	effect, exists := s.effects[soundID]
	if !exists {
		return domain.AudioEffect{}, false
	}
	return *effect, true
}

// PauseAllEffects pauses every playing effect, best-effort: a single
// effect's failure does not abort the batch; the first error is reported.
func (s *Stream) PauseAllEffects() error {
	return s.batchEffects(domain.EffectPaused, s.engine.PauseEffect, domain.EffectPlaying)
}

// ResumeAllEffects resumes every paused effect, best-effort.
func (s *Stream) ResumeAllEffects() error {
	return s.batchEffects(domain.EffectPlaying, s.engine.ResumeEffect, domain.EffectPaused)
}

// StopAllEffects stops every playing or paused effect, best-effort.
func (s *Stream) StopAllEffects() error {
	return s.batchEffects(domain.EffectLoaded, s.engine.StopEffect, domain.EffectPlaying, domain.EffectPaused)
}

func (s *Stream) transitionEffect(soundID int, target domain.EffectState, op func(domain.StreamID, int) error, from ...domain.EffectState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitializedLocked(); err != nil {
		return err
	}

	effect, exists := s.effects[soundID]
	if !exists {
		return apperr.NewInvalidStateError(fmt.Sprintf("effect %d is not loaded", soundID))
	}
	if !effectStateIn(effect.State, from) {
		return apperr.NewInvalidStateError(fmt.Sprintf("effect %d cannot transition from %s to %s", soundID, effect.State, target))
	}
	if err := op(s.id, soundID); err != nil {
		return coded(err, apperr.ErrCodeInternal, "effect operation failed")
	}
	effect.State = target
	return nil
}

func (s *Stream) batchEffects(target domain.EffectState, op func(domain.StreamID, int) error, from ...domain.EffectState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitializedLocked(); err != nil {
		return err
	}

	var firstErr error
	for _, soundID := range s.effectOrder {
		effect, exists := s.effects[soundID]
		if !exists || !effectStateIn(effect.State, from) {
			continue
		}
		if err := op(s.id, soundID); err != nil {
			if firstErr == nil {
				firstErr = coded(err, apperr.ErrCodeInternal, fmt.Sprintf("effect %d operation failed", soundID))
			}
			s.logger.Warnw("batch effect operation failed", "sound_id", soundID, "error", err)
			continue
		}
		effect.State = target
	}
	return firstErr
}

// stopAllEffectsLocked unloads everything on close, best-effort.
func (s *Stream) stopAllEffectsLocked() {
	for _, soundID := range s.effectOrder {
		if _, exists := s.effects[soundID]; !exists {
			continue
		}
		if err := s.engine.UnloadEffect(s.id, soundID); err != nil {
			s.logger.Warnw("failed to unload effect on close", "sound_id", soundID, "error", err)
		}
	}
}

func (s *Stream) removeEffectLocked(soundID int) {
	delete(s.effects, soundID)
	for i, id := range s.effectOrder {
		if id == soundID {
			s.effectOrder = append(s.effectOrder[:i], s.effectOrder[i+1:]...)
			break
		}
	}
}

func effectStateIn(state domain.EffectState, states []domain.EffectState) bool {
	for _, candidate := range states {
		if state == candidate {
			return true
		}
	}
	return false
}
