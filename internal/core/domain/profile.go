package domain

type AudioProfile string

const (
	AudioProfileSpeechLowQuality  AudioProfile = "speech_low_quality"
	AudioProfileSpeechStandard    AudioProfile = "speech_standard"
	AudioProfileMusicStandard     AudioProfile = "music_standard"
	AudioProfileStandardStereo    AudioProfile = "standard_stereo"
	AudioProfileHighQuality       AudioProfile = "high_quality"
	AudioProfileHighQualityStereo AudioProfile = "high_quality_stereo"
)

type AudioProfileSpec struct {
	SampleRate int
	Channels   int
	Bitrate    int
}

var audioProfiles = map[AudioProfile]AudioProfileSpec{
	AudioProfileSpeechLowQuality:  {SampleRate: 16000, Channels: 1, Bitrate: 24},
	AudioProfileSpeechStandard:    {SampleRate: 32000, Channels: 1, Bitrate: 24},
	AudioProfileMusicStandard:     {SampleRate: 48000, Channels: 1, Bitrate: 40},
	AudioProfileStandardStereo:    {SampleRate: 48000, Channels: 2, Bitrate: 64},
	AudioProfileHighQuality:       {SampleRate: 48000, Channels: 1, Bitrate: 128},
	AudioProfileHighQualityStereo: {SampleRate: 48000, Channels: 2, Bitrate: 192},
}

func (p AudioProfile) Spec() (AudioProfileSpec, bool) {
	spec, ok := audioProfiles[p]
	return spec, ok
}

type VideoProfile string

const (
	VideoProfile120p VideoProfile = "120p_1"
	VideoProfile180p VideoProfile = "180p_1"
	VideoProfile240p VideoProfile = "240p_1"
	VideoProfile360p VideoProfile = "360p_1"
	VideoProfile480p VideoProfile = "480p_1"
	VideoProfile720p VideoProfile = "720p_1"
	VideoProfile1080p VideoProfile = "1080p_1"
)

type VideoProfileSpec struct {
	Width     int
	Height    int
	FrameRate int
	Bitrate   int
}

var videoProfiles = map[VideoProfile]VideoProfileSpec{
	VideoProfile120p:  {Width: 160, Height: 120, FrameRate: 15, Bitrate: 65},
	VideoProfile180p:  {Width: 320, Height: 180, FrameRate: 15, Bitrate: 140},
	VideoProfile240p:  {Width: 320, Height: 240, FrameRate: 15, Bitrate: 200},
	VideoProfile360p:  {Width: 640, Height: 360, FrameRate: 15, Bitrate: 400},
	VideoProfile480p:  {Width: 640, Height: 480, FrameRate: 15, Bitrate: 500},
	VideoProfile720p:  {Width: 1280, Height: 720, FrameRate: 15, Bitrate: 1130},
	VideoProfile1080p: {Width: 1920, Height: 1080, FrameRate: 15, Bitrate: 2080},
}

func (p VideoProfile) Spec() (VideoProfileSpec, bool) {
	spec, ok := videoProfiles[p]
	return spec, ok
}

type ScreenProfile string

const (
	ScreenProfile480p  ScreenProfile = "480p_1"
	ScreenProfile480p2 ScreenProfile = "480p_2"
	ScreenProfile720p  ScreenProfile = "720p_1"
	ScreenProfile720p2 ScreenProfile = "720p_2"
	ScreenProfile1080p ScreenProfile = "1080p_1"
	ScreenProfile1080p2 ScreenProfile = "1080p_2"
)

var screenProfiles = map[ScreenProfile]VideoProfileSpec{
	ScreenProfile480p:   {Width: 640, Height: 480, FrameRate: 5, Bitrate: 400},
	ScreenProfile480p2:  {Width: 640, Height: 480, FrameRate: 30, Bitrate: 1000},
	ScreenProfile720p:   {Width: 1280, Height: 720, FrameRate: 5, Bitrate: 1130},
	ScreenProfile720p2:  {Width: 1280, Height: 720, FrameRate: 30, Bitrate: 2000},
	ScreenProfile1080p:  {Width: 1920, Height: 1080, FrameRate: 5, Bitrate: 2080},
	ScreenProfile1080p2: {Width: 1920, Height: 1080, FrameRate: 30, Bitrate: 3000},
}

func (p ScreenProfile) Spec() (VideoProfileSpec, bool) {
	spec, ok := screenProfiles[p]
	return spec, ok
}

// Defaults applied to a stream before any profile setter runs.
const (
	DefaultAudioProfile  = AudioProfileMusicStandard
	DefaultVideoProfile  = VideoProfile480p
	DefaultScreenProfile = ScreenProfile720p
)

// VideoEncoderConfig overrides resolution/framerate/bitrate on top of the
// active profile. Zero fields keep the profile value.
type VideoEncoderConfig struct {
	Width      int `json:"width,omitempty"`
	Height     int `json:"height,omitempty"`
	FrameRate  int `json:"frame_rate,omitempty"`
	BitrateMin int `json:"bitrate_min,omitempty"`
	BitrateMax int `json:"bitrate_max,omitempty"`
}

type LighteningContrastLevel int

const (
	LighteningContrastLow    LighteningContrastLevel = 0
	LighteningContrastNormal LighteningContrastLevel = 1
	LighteningContrastHigh   LighteningContrastLevel = 2
)

// BeautyEffectOptions is a pure value object; applied and removed as a unit.
type BeautyEffectOptions struct {
	LighteningContrastLevel LighteningContrastLevel `json:"lightening_contrast_level"`
	LighteningLevel         float64                 `json:"lightening_level"`
	RednessLevel            float64                 `json:"redness_level"`
	SmoothnessLevel         float64                 `json:"smoothness_level"`
}

func DefaultBeautyEffectOptions() BeautyEffectOptions {
	return BeautyEffectOptions{
		LighteningContrastLevel: LighteningContrastNormal,
		LighteningLevel:         0.7,
		RednessLevel:            0.1,
		SmoothnessLevel:         0.5,
	}
}
