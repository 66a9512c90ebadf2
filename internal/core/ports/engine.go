package ports

import (
	"context"

	"streamkit/internal/core/domain"
)

// MediaTrack is a native track owned by exactly one stream at a time.
type MediaTrack interface {
	ID() domain.TrackID
	Kind() domain.MediaKind
	DeviceID() string
	// SetEnabled starts or stops outbound transmission for local tracks.
	SetEnabled(enabled bool) error
	Enabled() bool
	// Stop releases the native track. A stopped track cannot be reused.
	Stop() error
}

// DeviceRegistry enumerates available media devices. The result is a
// fresh snapshot on every call; entries with blank labels are valid
// before permission has been granted.
type DeviceRegistry interface {
	EnumerateDevices(ctx context.Context) ([]domain.MediaDevice, error)
}

// TrackSource acquires and releases native tracks for a stream.
type TrackSource interface {
	AcquireTrack(ctx context.Context, id domain.StreamID, kind domain.MediaKind, deviceID string) (MediaTrack, error)
	AttachTrack(id domain.StreamID, track MediaTrack) error
	DetachTrack(id domain.StreamID, track MediaTrack) error
}

// EncoderControl applies profile and encoder settings to a stream.
type EncoderControl interface {
	ApplyAudioProfile(id domain.StreamID, profile domain.AudioProfile) error
	ApplyVideoProfile(id domain.StreamID, profile domain.VideoProfile) error
	ApplyScreenProfile(id domain.StreamID, profile domain.ScreenProfile) error
	ApplyEncoderConfig(id domain.StreamID, cfg domain.VideoEncoderConfig) error
	SetBeautyEffect(id domain.StreamID, enabled bool, opts domain.BeautyEffectOptions) error
}

// EffectPlayer executes effect playback commands. State transitions are
// validated by the stream controller before they reach the player.
type EffectPlayer interface {
	LoadEffect(ctx context.Context, id domain.StreamID, soundID int, filePath string) error
	PlayEffect(id domain.StreamID, soundID int, volume, cycle int) error
	PauseEffect(id domain.StreamID, soundID int) error
	ResumeEffect(id domain.StreamID, soundID int) error
	StopEffect(id domain.StreamID, soundID int) error
	UnloadEffect(id domain.StreamID, soundID int) error
	SetEffectVolume(id domain.StreamID, soundID, volume int) error
}

// MixingPlayer drives the single background mixing channel of a stream.
type MixingPlayer interface {
	StartMixing(ctx context.Context, id domain.StreamID, opts domain.AudioMixingOptions) error
	PauseMixing(id domain.StreamID) error
	ResumeMixing(id domain.StreamID) error
	StopMixing(id domain.StreamID) error
	SetMixingPosition(id domain.StreamID, positionMs int) error
	SetMixingVolume(id domain.StreamID, volume int) error
	MixingDuration(ctx context.Context, id domain.StreamID) (int, error)
	MixingPosition(id domain.StreamID) (int, error)
}

// RenderControl binds stream media to a rendering surface.
type RenderControl interface {
	BindSurface(id domain.StreamID, surfaceID string, opts domain.PlayOptions) error
	UnbindSurface(id domain.StreamID) error
	SetRenderMuted(id domain.StreamID, kind domain.MediaKind, muted bool) error
	// ResumePlayback recovers rendering after an autoplay-policy rejection.
	ResumePlayback(ctx context.Context, id domain.StreamID) error
}

// StatsSampler fetches best-effort statistics snapshots.
type StatsSampler interface {
	SampleLocalStats(ctx context.Context, id domain.StreamID) (domain.LocalStreamStats, error)
	SampleRemoteStats(ctx context.Context, id domain.StreamID) (domain.RemoteStreamStats, error)
	SampleSessionStats(ctx context.Context) (domain.SessionStats, error)
}

// MediaEngine is the full capability surface the stream facade consumes
// from the wrapped communication engine.
type MediaEngine interface {
	DeviceRegistry
	TrackSource
	EncoderControl
	EffectPlayer
	MixingPlayer
	RenderControl
	StatsSampler

	Capabilities() domain.CapabilitySet

	// OpenStream allocates engine-side state for a stream.
	OpenStream(ctx context.Context, id domain.StreamID, role domain.StreamRole) error
	// CloseStream releases all engine-side resources of the stream and
	// revokes device authorization.
	CloseStream(id domain.StreamID) error

	// Subscribe registers the event sink for a stream. Engine events are
	// delivered sequentially per stream.
	Subscribe(id domain.StreamID, sink func(domain.Event))
}
