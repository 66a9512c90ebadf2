package stream

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"streamkit/internal/core/domain"
	"streamkit/internal/core/ports"
	apperr "streamkit/pkg/errors"
	"streamkit/pkg/retry"
	"streamkit/pkg/validation"

	"go.uber.org/zap"
)

// State is the lifecycle state of a stream.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StatePlaying
	StateStopped
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StateStopped:
		return "stopped"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// Stream is a single local or remote audio/video media flow and its
// controls. All operations on one stream are serialized: a later call
// observes the state mutations of all earlier calls, and operations are
// queued on the internal lock rather than interleaved.
type Stream struct {
	id     domain.StreamID
	spec   domain.StreamSpec
	engine ports.MediaEngine
	logger *zap.SugaredLogger

	retryCfg retry.Config

	mu    sync.Mutex
	state State

	audioEnabled bool
	videoEnabled bool
	audioTrack   ports.MediaTrack
	videoTrack   ports.MediaTrack
	surfaceID    string

	audioProfile  domain.AudioProfile
	videoProfile  domain.VideoProfile
	screenProfile domain.ScreenProfile
	encoderConfig *domain.VideoEncoderConfig
	beautyEnabled bool
	beautyOptions domain.BeautyEffectOptions

	effects     map[int]*domain.AudioEffect
	effectOrder []int
	mixing      *domain.AudioMixing

	handlersMu sync.Mutex
	handlers   map[domain.EventType][]EventHandler
}

// New creates a stream in the uninitialized state. No engine resources
// are allocated until Init.
func New(id domain.StreamID, spec domain.StreamSpec, engine ports.MediaEngine, logger *zap.Logger) *Stream {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stream{
		id:            id,
		spec:          spec,
		engine:        engine,
		logger:        logger.Sugar().With("stream_id", id),
		retryCfg:      retry.DefaultConfig(),
		state:         StateUninitialized,
		audioProfile:  domain.DefaultAudioProfile,
		videoProfile:  domain.DefaultVideoProfile,
		screenProfile: domain.DefaultScreenProfile,
		beautyOptions: domain.DefaultBeautyEffectOptions(),
		effects:       make(map[int]*domain.AudioEffect),
		handlers:      make(map[domain.EventType][]EventHandler),
	}
}

func (s *Stream) ID() domain.StreamID     { return s.id }
func (s *Stream) Spec() domain.StreamSpec { return s.spec }
func (s *Stream) IsLocal() bool           { return s.spec.Role == domain.RoleLocal }

func (s *Stream) Capabilities() domain.CapabilitySet {
	return s.engine.Capabilities()
}

func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Stream) AudioEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audioEnabled
}

func (s *Stream) VideoEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videoEnabled
}

// Init acquires engine resources and moves the stream to the ready
// state. A concurrent Init while one is in flight fails with
// ALREADY_INITIALIZING; the first call's outcome is unaffected.
func (s *Stream) Init(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateInitializing:
		s.mu.Unlock()
		return apperr.NewAlreadyInitializingError("stream initialization already in progress")
	case StateClosed:
		s.mu.Unlock()
		return apperr.NewInvalidStateError("stream is closed")
	case StateUninitialized:
		// proceed
	default:
		s.mu.Unlock()
		return apperr.NewInvalidStateError("stream is already initialized")
	}
	s.state = StateInitializing
	s.mu.Unlock()

	audioTrack, videoTrack, err := s.initialize(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		// Closed while initializing: the pending outcome still fires,
		// with a closed-state error, and acquired resources are released.
		s.releaseTracks(audioTrack, videoTrack)
		if err == nil {
			if cerr := s.engine.CloseStream(s.id); cerr != nil {
				s.logger.Warnw("failed to close engine stream after close during init", "error", cerr)
			}
		}
		return apperr.NewInvalidStateError("stream was closed during initialization")
	}

	if err != nil {
		s.state = StateUninitialized
		s.logger.Warnw("stream initialization failed", "error", err)
		return err
	}

	s.audioTrack = audioTrack
	s.videoTrack = videoTrack
	if s.spec.Role == domain.RoleLocal {
		s.audioEnabled = audioTrack != nil
		s.videoEnabled = videoTrack != nil
	} else {
		// Remote streams own no tracks; they start unmuted for every
		// media kind declared on the stream.
		s.audioEnabled = s.spec.Audio
		s.videoEnabled = s.spec.Video
	}
	s.state = StateReady

	s.logger.Infow("stream initialized",
		"role", s.spec.Role,
		"audio", s.audioTrack != nil,
		"video", s.videoTrack != nil,
	)
	return nil
}

// initialize runs outside the stream lock; results are committed by Init.
func (s *Stream) initialize(ctx context.Context) (audio, video ports.MediaTrack, err error) {
	if err := s.engine.OpenStream(ctx, s.id, s.spec.Role); err != nil {
		return nil, nil, coded(err, apperr.ErrCodeInternal, "failed to open engine stream")
	}
	s.engine.Subscribe(s.id, s.dispatch)

	defer func() {
		if err != nil {
			s.releaseTracks(audio, video)
			audio, video = nil, nil
			if cerr := s.engine.CloseStream(s.id); cerr != nil {
				s.logger.Warnw("failed to close engine stream after init failure", "error", cerr)
			}
		}
	}()

	// Profile setters are only effective before initialization completes;
	// apply the accumulated values now.
	if err := s.engine.ApplyAudioProfile(s.id, s.audioProfile); err != nil {
		return audio, video, coded(err, apperr.ErrCodeInternal, "failed to apply audio profile")
	}
	if s.spec.ScreenShare {
		if err := s.engine.ApplyScreenProfile(s.id, s.screenProfile); err != nil {
			return audio, video, coded(err, apperr.ErrCodeInternal, "failed to apply screen profile")
		}
	} else {
		if err := s.engine.ApplyVideoProfile(s.id, s.videoProfile); err != nil {
			return audio, video, coded(err, apperr.ErrCodeInternal, "failed to apply video profile")
		}
	}
	if s.encoderConfig != nil {
		if err := s.engine.ApplyEncoderConfig(s.id, *s.encoderConfig); err != nil {
			return audio, video, coded(err, apperr.ErrCodeInternal, "failed to apply encoder config")
		}
	}

	if s.spec.Role != domain.RoleLocal {
		return nil, nil, nil
	}

	if s.spec.Audio {
		audio, err = s.acquireTrack(ctx, domain.MediaKindAudio, s.spec.MicrophoneID)
		if err != nil {
			return audio, video, err
		}
	}
	if s.spec.Video {
		video, err = s.acquireTrack(ctx, domain.MediaKindVideo, s.spec.CameraID)
		if err != nil {
			return audio, video, err
		}
	}
	return audio, video, nil
}

func (s *Stream) acquireTrack(ctx context.Context, kind domain.MediaKind, deviceID string) (ports.MediaTrack, error) {
	track, err := retry.DoWithResult(ctx, s.retryCfg, func() (ports.MediaTrack, error) {
		return s.engine.AcquireTrack(ctx, s.id, kind, deviceID)
	})
	if err != nil {
		return nil, coded(err, apperr.ErrCodeDeviceError, fmt.Sprintf("failed to acquire %s track", kind))
	}
	if err := s.engine.AttachTrack(s.id, track); err != nil {
		if serr := track.Stop(); serr != nil {
			s.logger.Warnw("failed to stop track after attach failure", "track_id", track.ID(), "error", serr)
		}
		return nil, coded(err, apperr.ErrCodeInternal, fmt.Sprintf("failed to attach %s track", kind))
	}
	return track, nil
}

func (s *Stream) releaseTracks(tracks ...ports.MediaTrack) {
	for _, track := range tracks {
		if track == nil {
			continue
		}
		if err := track.Stop(); err != nil {
			s.logger.Warnw("failed to stop track", "track_id", track.ID(), "error", err)
		}
	}
}

// Play binds rendering to the given surface. Calling Play while already
// playing re-validates the surface identifier and re-binds.
func (s *Stream) Play(surfaceID string, opts domain.PlayOptions) error {
	if err := validation.ValidateSurfaceID(surfaceID); err != nil {
		return apperr.NewInvalidArgumentError(err.Error())
	}
	if err := validation.ValidateVideoFit(opts.Fit); err != nil {
		return apperr.NewInvalidArgumentError(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateReady, StateStopped, StatePlaying:
		// valid
	default:
		return apperr.NewInvalidStateError(fmt.Sprintf("cannot play from state %s", s.state))
	}

	if err := s.engine.BindSurface(s.id, surfaceID, opts); err != nil {
		return coded(err, apperr.ErrCodeInternal, "failed to bind rendering surface")
	}
	s.surfaceID = surfaceID
	s.state = StatePlaying
	s.emit(domain.EventPlayerStateChanged, "", "playing")
	return nil
}

// Stop ends playback. Stopping an already stopped stream is a no-op.
func (s *Stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateStopped:
		return nil
	case StatePlaying:
		// proceed
	default:
		return apperr.NewInvalidStateError(fmt.Sprintf("cannot stop from state %s", s.state))
	}

	// Beauty effect teardown must precede stopping the stream.
	s.disableBeautyLocked()

	if err := s.engine.UnbindSurface(s.id); err != nil {
		return coded(err, apperr.ErrCodeInternal, "failed to unbind rendering surface")
	}
	s.surfaceID = ""
	s.state = StateStopped
	s.emit(domain.EventPlayerStateChanged, "", "stopped")
	return nil
}

// Close releases all owned tracks, effects and the mixing session, and
// revokes device authorization. Close is terminal and idempotent.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil
	}
	wasInitializing := s.state == StateInitializing
	s.state = StateClosed

	// Engine-side resources only exist once initialization started; the
	// in-flight Init commit releases its own tracks when it observes the
	// closed state.
	if !wasInitializing {
		s.disableBeautyLocked()
		s.stopAllEffectsLocked()
		s.stopMixingLocked()

		if s.surfaceID != "" {
			if err := s.engine.UnbindSurface(s.id); err != nil {
				s.logger.Warnw("failed to unbind surface on close", "error", err)
			}
			s.surfaceID = ""
		}

		s.releaseTracks(s.audioTrack, s.videoTrack)
		s.audioTrack = nil
		s.videoTrack = nil
		s.audioEnabled = false
		s.videoEnabled = false

		if err := s.engine.CloseStream(s.id); err != nil {
			s.logger.Warnw("failed to close engine stream", "error", err)
		}
	}

	s.effects = make(map[int]*domain.AudioEffect)
	s.effectOrder = nil
	s.mixing = nil

	s.emit(domain.EventPlayerStateChanged, "", "closed")
	s.logger.Infow("stream closed")
	return nil
}

// MuteAudio stops outbound audio for local streams, or local audio
// rendering for remote streams.
func (s *Stream) MuteAudio() error { return s.setMuted(domain.MediaKindAudio, true) }

// UnmuteAudio re-enables audio.
func (s *Stream) UnmuteAudio() error { return s.setMuted(domain.MediaKindAudio, false) }

// MuteVideo stops outbound video for local streams, or local video
// rendering for remote streams.
func (s *Stream) MuteVideo() error { return s.setMuted(domain.MediaKindVideo, true) }

// UnmuteVideo re-enables video.
func (s *Stream) UnmuteVideo() error { return s.setMuted(domain.MediaKindVideo, false) }

func (s *Stream) setMuted(kind domain.MediaKind, muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitializedLocked(); err != nil {
		return err
	}

	if s.spec.Role == domain.RoleLocal {
		track := s.trackOfLocked(kind)
		if track == nil {
			// No-op when the media kind is absent.
			return nil
		}
		if err := track.SetEnabled(!muted); err != nil {
			return coded(err, apperr.ErrCodeInternal, "failed to toggle track")
		}
	} else {
		has := (kind == domain.MediaKindAudio && s.spec.Audio) || (kind == domain.MediaKindVideo && s.spec.Video)
		if !has {
			return nil
		}
		// Inbound reception continues; only local rendering is toggled.
		if err := s.engine.SetRenderMuted(s.id, kind, muted); err != nil {
			return coded(err, apperr.ErrCodeInternal, "failed to toggle rendering")
		}
	}

	if kind == domain.MediaKindAudio {
		s.audioEnabled = !muted
	} else {
		s.videoEnabled = !muted
	}
	s.logger.Debugw("media toggled", "kind", kind, "muted", muted)
	return nil
}

// SwitchDevice rebinds the active track of the given kind to another
// device without a new publish cycle. Only supported for local streams
// that are not in dual-stream mode and not backed by an external source.
func (s *Stream) SwitchDevice(ctx context.Context, kind domain.MediaKind, deviceID string) error {
	if err := validation.ValidateDeviceID(deviceID); err != nil {
		return apperr.NewInvalidArgumentError(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitializedLocked(); err != nil {
		return err
	}
	if !s.engine.Capabilities().DeviceSwitch {
		return apperr.NewUnsupportedOperationError("device switching is not supported by this engine")
	}
	if s.spec.Role != domain.RoleLocal {
		return apperr.NewUnsupportedOperationError("device switching is only supported for local streams")
	}
	if s.spec.DualStream {
		return apperr.NewUnsupportedOperationError("device switching is not supported in dual-stream mode")
	}
	if s.spec.ExternalSource {
		return apperr.NewUnsupportedOperationError("device switching is not supported for external media sources")
	}

	current := s.trackOfLocked(kind)
	if current == nil {
		return apperr.NewNotActiveError(fmt.Sprintf("stream has no active %s track", kind))
	}

	replacement, err := s.acquireTrack(ctx, kind, deviceID)
	if err != nil {
		return err
	}
	if err := replacement.SetEnabled(current.Enabled()); err != nil {
		s.logger.Warnw("failed to carry enabled state to new track", "error", err)
	}

	if err := s.engine.DetachTrack(s.id, current); err != nil {
		s.logger.Warnw("failed to detach previous track", "track_id", current.ID(), "error", err)
	}
	s.releaseTracks(current)
	s.setTrackOfLocked(kind, replacement)

	s.emit(domain.EventDeviceChanged, kind, deviceID)
	s.logger.Infow("device switched", "kind", kind, "device_id", deviceID)
	return nil
}

// Resume recovers playback after an autoplay-policy rejection. In
// environments with GestureResume capability this must be invoked from a
// user-initiated context; the stream cannot verify that itself.
func (s *Stream) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePlaying {
		return apperr.NewNotActiveError("stream is not playing")
	}
	if err := s.engine.ResumePlayback(ctx, s.id); err != nil {
		return coded(err, apperr.ErrCodeInternal, "failed to resume playback")
	}
	return nil
}

func (s *Stream) requireInitializedLocked() error {
	switch s.state {
	case StateReady, StatePlaying, StateStopped:
		return nil
	case StateClosed:
		return apperr.NewInvalidStateError("stream is closed")
	default:
		return apperr.NewInvalidStateError("stream is not initialized")
	}
}

func (s *Stream) trackOfLocked(kind domain.MediaKind) ports.MediaTrack {
	if kind == domain.MediaKindAudio {
		return s.audioTrack
	}
	return s.videoTrack
}

func (s *Stream) setTrackOfLocked(kind domain.MediaKind, track ports.MediaTrack) {
	if kind == domain.MediaKindAudio {
		s.audioTrack = track
	} else {
		s.videoTrack = track
	}
}

// coded passes through structured errors and wraps plain ones.
func coded(err error, fallback apperr.ErrorCode, message string) error {
	if mediaErr := apperr.GetMediaError(err); mediaErr != nil {
		return err
	}
	status := http.StatusInternalServerError
	if fallback == apperr.ErrCodeDeviceError {
		status = http.StatusConflict
	}
	return apperr.Wrap(err, fallback, message, status)
}
