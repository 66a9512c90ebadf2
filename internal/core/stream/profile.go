package stream

import (
	"context"

	"streamkit/internal/core/domain"
	apperr "streamkit/pkg/errors"
	"streamkit/pkg/validation"
)

// SetAudioProfile selects the audio encoding preset. Only effective
// before Init completes; later calls are accepted without error but have
// no effect. That is documented upstream behavior, not a bug.
func (s *Stream) SetAudioProfile(profile domain.AudioProfile) error {
	if _, ok := profile.Spec(); !ok {
		return apperr.NewInvalidArgumentError("unknown audio profile")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return apperr.NewInvalidStateError("stream is closed")
	}
	if s.state != StateUninitialized {
		s.logger.Debugw("audio profile ignored after initialization", "profile", profile)
		return nil
	}
	s.audioProfile = profile
	return nil
}

// SetVideoProfile selects the video encoding preset; pre-init only, same
// semantics as SetAudioProfile.
func (s *Stream) SetVideoProfile(profile domain.VideoProfile) error {
	if _, ok := profile.Spec(); !ok {
		return apperr.NewInvalidArgumentError("unknown video profile")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return apperr.NewInvalidStateError("stream is closed")
	}
	if s.state != StateUninitialized {
		s.logger.Debugw("video profile ignored after initialization", "profile", profile)
		return nil
	}
	s.videoProfile = profile
	return nil
}

// SetScreenProfile selects the screen-share preset; pre-init only, same
// semantics as SetAudioProfile.
func (s *Stream) SetScreenProfile(profile domain.ScreenProfile) error {
	if _, ok := profile.Spec(); !ok {
		return apperr.NewInvalidArgumentError("unknown screen profile")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return apperr.NewInvalidStateError("stream is closed")
	}
	if s.state != StateUninitialized {
		s.logger.Debugw("screen profile ignored after initialization", "profile", profile)
		return nil
	}
	s.screenProfile = profile
	return nil
}

// AudioProfile returns the configured audio profile.
func (s *Stream) AudioProfile() domain.AudioProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audioProfile
}

// VideoProfile returns the configured video profile.
func (s *Stream) VideoProfile() domain.VideoProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videoProfile
}

// ScreenProfile returns the configured screen-share profile.
func (s *Stream) ScreenProfile() domain.ScreenProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screenProfile
}

// SetVideoEncoderConfiguration applies resolution/framerate/bitrate
// deltas on top of the active profile. Effective both before and after
// initialization.
func (s *Stream) SetVideoEncoderConfiguration(ctx context.Context, cfg domain.VideoEncoderConfig) error {
	if err := validation.ValidateEncoderConfig(cfg); err != nil {
		return apperr.NewInvalidArgumentError(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return apperr.NewInvalidStateError("stream is closed")
	}

	if s.state != StateUninitialized && s.state != StateInitializing {
		if err := s.engine.ApplyEncoderConfig(s.id, cfg); err != nil {
			return coded(err, apperr.ErrCodeInternal, "failed to apply encoder configuration")
		}
	}
	s.encoderConfig = &cfg
	return nil
}

// GetVideoEncoderConfiguration returns the configured encoder override,
// if any.
func (s *Stream) GetVideoEncoderConfiguration() (domain.VideoEncoderConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.encoderConfig == nil {
		return domain.VideoEncoderConfig{}, false
	}
	return *s.encoderConfig, true
}

// SetBeautyEffectOptions toggles the real-time image enhancement pass.
// Stop and Close disable it implicitly before tearing the stream down.
func (s *Stream) SetBeautyEffectOptions(ctx context.Context, enabled bool, opts domain.BeautyEffectOptions) error {
	if err := validation.ValidateBeautyOptions(opts); err != nil {
		return apperr.NewInvalidArgumentError(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitializedLocked(); err != nil {
		return err
	}
	if !s.engine.Capabilities().BeautyEffect {
		return apperr.NewUnsupportedOperationError("beauty effect is not supported by this engine")
	}

	if err := s.engine.SetBeautyEffect(s.id, enabled, opts); err != nil {
		return coded(err, apperr.ErrCodeInternal, "failed to set beauty effect")
	}
	s.beautyEnabled = enabled
	s.beautyOptions = opts
	return nil
}

// BeautyEffectEnabled reports whether the enhancement pass is active.
func (s *Stream) BeautyEffectEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beautyEnabled
}

// disableBeautyLocked turns the enhancement pass off before stop or
// close so the engine does not leak the processing resources.
func (s *Stream) disableBeautyLocked() {
	if !s.beautyEnabled {
		return
	}
	if err := s.engine.SetBeautyEffect(s.id, false, s.beautyOptions); err != nil {
		s.logger.Warnw("failed to disable beauty effect", "error", err)
	}
	s.beautyEnabled = false
}
