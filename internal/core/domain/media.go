package domain

// StreamID is the numeric stream identifier, unique within one session.
type StreamID int64

// TrackID identifies a native media track owned by the engine.
type TrackID string

type StreamRole string

const (
	RoleLocal  StreamRole = "local"
	RoleRemote StreamRole = "remote"
)

type MediaKind string

const (
	MediaKindAudio MediaKind = "audio"
	MediaKindVideo MediaKind = "video"
)

type DeviceKind string

const (
	DeviceAudioInput  DeviceKind = "audio-input"
	DeviceVideoInput  DeviceKind = "video-input"
	DeviceAudioOutput DeviceKind = "audio-output"
)

// MediaDevice is an immutable enumeration snapshot. Label may be empty
// until media permission has been granted; callers must tolerate that.
type MediaDevice struct {
	DeviceID string     `json:"device_id"`
	Kind     DeviceKind `json:"kind"`
	Label    string     `json:"label"`
}

// CapabilitySet declares which optional operations the running engine
// supports. Unsupported operations fail with UNSUPPORTED_OPERATION
// instead of failing unpredictably at the engine boundary.
type CapabilitySet struct {
	TrackMutation bool `json:"track_mutation"`
	DeviceSwitch  bool `json:"device_switch"`
	BeautyEffect  bool `json:"beauty_effect"`
	// GestureResume marks environments where playback recovery after an
	// autoplay rejection must be triggered from a user-initiated context.
	// The stream exposes the constraint but cannot satisfy it itself.
	GestureResume bool `json:"gesture_resume"`
}

// StreamSpec describes a stream at creation time.
type StreamSpec struct {
	Role           StreamRole `json:"role"`
	Audio          bool       `json:"audio"`
	Video          bool       `json:"video"`
	ScreenShare    bool       `json:"screen_share"`
	ExternalSource bool       `json:"external_source"`
	DualStream     bool       `json:"dual_stream"`
	MicrophoneID   string     `json:"microphone_id,omitempty"`
	CameraID       string     `json:"camera_id,omitempty"`
}

type VideoFit string

const (
	FitCover   VideoFit = "cover"
	FitContain VideoFit = "contain"
	FitFill    VideoFit = "fill"
)

// PlayOptions tune how a stream is rendered on its surface.
type PlayOptions struct {
	Fit   VideoFit `json:"fit,omitempty"`
	Muted bool     `json:"muted,omitempty"`
}
