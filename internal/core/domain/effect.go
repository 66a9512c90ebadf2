package domain

type EffectState string

const (
	EffectUnloaded EffectState = "unloaded"
	EffectLoading  EffectState = "loading"
	EffectLoaded   EffectState = "loaded"
	EffectPlaying  EffectState = "playing"
	EffectPaused   EffectState = "paused"
)

const DefaultEffectVolume = 100

// AudioEffect is one independently controllable audio clip, keyed by a
// caller-chosen sound ID that must stay unique while the effect is loaded.
type AudioEffect struct {
	SoundID  int         `json:"sound_id"`
	FilePath string      `json:"file_path"`
	State    EffectState `json:"state"`
	Volume   int         `json:"volume"`
}

// EffectVolume is one entry of a getEffectsVolume snapshot.
type EffectVolume struct {
	SoundID int `json:"sound_id"`
	Volume  int `json:"volume"`
}

type MixingState string

const (
	MixingStopped MixingState = "stopped"
	MixingPlaying MixingState = "playing"
	MixingPaused  MixingState = "paused"
)

// MaxMixingPositionMs bounds setAudioMixingPosition offsets. Out-of-range
// values fail with INVALID_ARGUMENT; they are never clamped silently.
const MaxMixingPositionMs = 100_000_000

// AudioMixing is the single background mixing session of a stream.
type AudioMixing struct {
	FilePath string      `json:"file_path"`
	Position int         `json:"position_ms"`
	State    MixingState `json:"state"`
	Volume   int         `json:"volume"`
}

// AudioMixingOptions configure startAudioMixing.
type AudioMixingOptions struct {
	FilePath string `json:"file_path"`
	// Cycle is the number of playback loops; -1 loops indefinitely.
	Cycle int `json:"cycle,omitempty"`
	// Replace substitutes the mixing audio for the microphone signal
	// instead of blending with it.
	Replace bool `json:"replace,omitempty"`
	// StartPosition is the initial playback offset in milliseconds.
	StartPosition int `json:"start_position,omitempty"`
}

// EffectOptions configure playEffect. Playing an effect that was never
// preloaded loads it first.
type EffectOptions struct {
	SoundID  int    `json:"sound_id"`
	FilePath string `json:"file_path,omitempty"`
	Cycle    int    `json:"cycle,omitempty"`
	// Volume is optional; nil falls back to DefaultEffectVolume. A
	// pointer keeps an explicit zero distinct from an absent field.
	Volume *int `json:"volume,omitempty"`
}
