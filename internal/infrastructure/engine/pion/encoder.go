package pion

import (
	"context"

	"streamkit/internal/core/domain"
	apperr "streamkit/pkg/errors"
)

// ApplyAudioProfile records the audio encoding parameters for the
// stream. The static RTP tracks carry pre-encoded media, so the profile
// only drives the advertised parameters and stats shaping.
func (e *Engine) ApplyAudioProfile(id domain.StreamID, profile domain.AudioProfile) error {
	if _, ok := profile.Spec(); !ok {
		return apperr.NewInvalidArgumentError("unknown audio profile")
	}
	_, err := e.stream(id)
	return err
}

// ApplyVideoProfile records the video encoding parameters for the stream.
func (e *Engine) ApplyVideoProfile(id domain.StreamID, profile domain.VideoProfile) error {
	spec, ok := profile.Spec()
	if !ok {
		return apperr.NewInvalidArgumentError("unknown video profile")
	}
	es, err := e.stream(id)
	if err != nil {
		return err
	}

	es.mu.Lock()
	es.encoderWidth = spec.Width
	es.encoderHeight = spec.Height
	es.encoderFPS = spec.FrameRate
	es.mu.Unlock()
	return nil
}

// ApplyScreenProfile records the screen-share encoding parameters.
func (e *Engine) ApplyScreenProfile(id domain.StreamID, profile domain.ScreenProfile) error {
	spec, ok := profile.Spec()
	if !ok {
		return apperr.NewInvalidArgumentError("unknown screen profile")
	}
	es, err := e.stream(id)
	if err != nil {
		return err
	}

	es.mu.Lock()
	es.encoderWidth = spec.Width
	es.encoderHeight = spec.Height
	es.encoderFPS = spec.FrameRate
	es.mu.Unlock()
	return nil
}

// ApplyEncoderConfig layers explicit overrides on top of the active
// profile. Zero fields keep the current value.
func (e *Engine) ApplyEncoderConfig(id domain.StreamID, cfg domain.VideoEncoderConfig) error {
	es, err := e.stream(id)
	if err != nil {
		return err
	}

	es.mu.Lock()
	if cfg.Width > 0 {
		es.encoderWidth = cfg.Width
	}
	if cfg.Height > 0 {
		es.encoderHeight = cfg.Height
	}
	if cfg.FrameRate > 0 {
		es.encoderFPS = cfg.FrameRate
	}
	es.mu.Unlock()
	return nil
}

// SetBeautyEffect is not available in this engine; the capability set
// already reports it as unsupported.
func (e *Engine) SetBeautyEffect(id domain.StreamID, enabled bool, opts domain.BeautyEffectOptions) error {
	return apperr.NewUnsupportedOperationError("beauty effect is not available in this engine")
}

// BindSurface attaches the stream media to a rendering surface.
func (e *Engine) BindSurface(id domain.StreamID, surfaceID string, opts domain.PlayOptions) error {
	es, err := e.stream(id)
	if err != nil {
		return err
	}

	es.mu.Lock()
	es.surfaceID = surfaceID
	es.playOpts = opts
	es.mu.Unlock()

	e.logger.Debugw("surface bound", "stream_id", id, "surface_id", surfaceID, "fit", opts.Fit)
	return nil
}

// UnbindSurface detaches the stream from its rendering surface.
func (e *Engine) UnbindSurface(id domain.StreamID) error {
	es, err := e.stream(id)
	if err != nil {
		return err
	}

	es.mu.Lock()
	es.surfaceID = ""
	es.mu.Unlock()
	return nil
}

// SetRenderMuted silences one media kind at the rendering surface
// without touching the underlying track.
func (e *Engine) SetRenderMuted(id domain.StreamID, kind domain.MediaKind, muted bool) error {
	es, err := e.stream(id)
	if err != nil {
		return err
	}

	es.mu.Lock()
	es.renderMuted[kind] = muted
	es.mu.Unlock()
	return nil
}

// ResumePlayback restarts rendering after an autoplay rejection.
func (e *Engine) ResumePlayback(ctx context.Context, id domain.StreamID) error {
	es, err := e.stream(id)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	es.mu.Lock()
	bound := es.surfaceID != ""
	es.mu.Unlock()

	if !bound {
		return apperr.NewNotActiveError("stream is not bound to a surface")
	}
	es.emit(domain.Event{Type: domain.EventPlayerStateChanged, Detail: "playing"})
	return nil
}
