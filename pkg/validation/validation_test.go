package validation

import (
	"strings"
	"testing"

	"streamkit/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestValidateSurfaceID(t *testing.T) {
	tests := []struct {
		name      string
		surfaceID string
		wantErr   bool
	}{
		{"valid", "player_main-1", false},
		{"empty", "", true},
		{"spaces", "player main", true},
		{"dots", "player.main", true},
		{"too long", strings.Repeat("a", 256), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSurfaceID(tt.surfaceID)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDeviceID(t *testing.T) {
	tests := []struct {
		name     string
		deviceID string
		wantErr  bool
	}{
		{"valid", "mic-1", false},
		{"dotted", "usb:04f2.b604", false},
		{"padded", "  mic-1  ", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"illegal chars", "mic 1!", true},
		{"too long", strings.Repeat("d", 257), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDeviceID(tt.deviceID)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateVolume(t *testing.T) {
	assert.NoError(t, ValidateVolume(0))
	assert.NoError(t, ValidateVolume(100))
	assert.Error(t, ValidateVolume(-1))
	assert.Error(t, ValidateVolume(101))
}

func TestValidateSoundID(t *testing.T) {
	assert.NoError(t, ValidateSoundID(1))
	assert.Error(t, ValidateSoundID(0))
	assert.Error(t, ValidateSoundID(-5))
}

func TestValidateMixingPosition(t *testing.T) {
	assert.NoError(t, ValidateMixingPosition(0))
	assert.NoError(t, ValidateMixingPosition(domain.MaxMixingPositionMs))
	assert.Error(t, ValidateMixingPosition(-1))
	assert.Error(t, ValidateMixingPosition(domain.MaxMixingPositionMs+1))
}

func TestValidateFilePath(t *testing.T) {
	assert.NoError(t, ValidateFilePath("/media/effects/ding.mp3"))
	assert.Error(t, ValidateFilePath(""))
	assert.Error(t, ValidateFilePath("   "))
	assert.Error(t, ValidateFilePath(strings.Repeat("p", 1025)))
}

func TestValidateVideoFit(t *testing.T) {
	assert.NoError(t, ValidateVideoFit(""))
	assert.NoError(t, ValidateVideoFit(domain.FitCover))
	assert.NoError(t, ValidateVideoFit(domain.FitContain))
	assert.NoError(t, ValidateVideoFit(domain.FitFill))
	assert.Error(t, ValidateVideoFit("stretch"))
}

func TestValidateEncoderConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     domain.VideoEncoderConfig
		wantErr bool
	}{
		{"zero delta", domain.VideoEncoderConfig{}, false},
		{"full hd", domain.VideoEncoderConfig{Width: 1920, Height: 1080, FrameRate: 30}, false},
		{"negative width", domain.VideoEncoderConfig{Width: -1}, true},
		{"too wide", domain.VideoEncoderConfig{Width: 4096, Height: 2160}, true},
		{"frame rate too high", domain.VideoEncoderConfig{FrameRate: 61}, true},
		{"negative bitrate", domain.VideoEncoderConfig{BitrateMin: -100}, true},
		{"inverted bitrate bounds", domain.VideoEncoderConfig{BitrateMin: 2000, BitrateMax: 1000}, true},
		{"min without max", domain.VideoEncoderConfig{BitrateMin: 2000}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEncoderConfig(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateBeautyOptions(t *testing.T) {
	valid := domain.BeautyEffectOptions{
		LighteningContrastLevel: domain.LighteningContrastNormal,
		LighteningLevel:         0.7,
		RednessLevel:            0.1,
		SmoothnessLevel:         0.5,
	}
	assert.NoError(t, ValidateBeautyOptions(valid))

	tests := []struct {
		name   string
		mutate func(*domain.BeautyEffectOptions)
	}{
		{"contrast too high", func(o *domain.BeautyEffectOptions) { o.LighteningContrastLevel = 3 }},
		{"lightening above one", func(o *domain.BeautyEffectOptions) { o.LighteningLevel = 1.5 }},
		{"negative redness", func(o *domain.BeautyEffectOptions) { o.RednessLevel = -0.1 }},
		{"smoothness above one", func(o *domain.BeautyEffectOptions) { o.SmoothnessLevel = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := valid
			tt.mutate(&opts)
			assert.Error(t, ValidateBeautyOptions(opts))
		})
	}
}
