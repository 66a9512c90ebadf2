package validation

import (
	"fmt"
	"regexp"
	"strings"

	"streamkit/internal/core/domain"
)

var (
	// SurfaceIDRegex validates rendering surface identifiers
	SurfaceIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// DeviceIDRegex validates device identifiers
	DeviceIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)
)

// ValidateSurfaceID validates a rendering surface identifier
func ValidateSurfaceID(surfaceID string) error {
	if surfaceID == "" {
		return fmt.Errorf("surface ID is required")
	}
	if len(surfaceID) > 255 {
		return fmt.Errorf("surface ID is too long (max 255 characters)")
	}
	if !SurfaceIDRegex.MatchString(surfaceID) {
		return fmt.Errorf("invalid surface ID format (only letters, numbers, _, - allowed)")
	}
	return nil
}

// ValidateDeviceID validates a device identifier
func ValidateDeviceID(deviceID string) error {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return fmt.Errorf("device ID is required")
	}
	if len(deviceID) > 256 {
		return fmt.Errorf("device ID is too long (max 256 characters)")
	}
	if !DeviceIDRegex.MatchString(deviceID) {
		return fmt.Errorf("invalid device ID format")
	}
	return nil
}

// ValidateVolume validates an effect or mixing volume value
func ValidateVolume(volume int) error {
	if volume < 0 || volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100")
	}
	return nil
}

// ValidateSoundID validates an effect sound ID
func ValidateSoundID(soundID int) error {
	if soundID <= 0 {
		return fmt.Errorf("sound ID must be positive")
	}
	return nil
}

// ValidateMixingPosition validates an audio mixing position offset
func ValidateMixingPosition(positionMs int) error {
	if positionMs < 0 || positionMs > domain.MaxMixingPositionMs {
		return fmt.Errorf("mixing position must be between 0 and %d ms", domain.MaxMixingPositionMs)
	}
	return nil
}

// ValidateFilePath validates an effect or mixing file path
func ValidateFilePath(filePath string) error {
	filePath = strings.TrimSpace(filePath)
	if filePath == "" {
		return fmt.Errorf("file path is required")
	}
	if len(filePath) > 1024 {
		return fmt.Errorf("file path is too long (max 1024 characters)")
	}
	return nil
}

// ValidateVideoFit validates a play option fit mode
func ValidateVideoFit(fit domain.VideoFit) error {
	switch fit {
	case "", domain.FitCover, domain.FitContain, domain.FitFill:
		return nil
	}
	return fmt.Errorf("invalid fit mode (must be cover, contain, or fill)")
}

// ValidateEncoderConfig validates encoder configuration deltas
func ValidateEncoderConfig(cfg domain.VideoEncoderConfig) error {
	if cfg.Width < 0 || cfg.Height < 0 {
		return fmt.Errorf("encoder resolution must not be negative")
	}
	if cfg.Width > 3840 || cfg.Height > 2160 {
		return fmt.Errorf("encoder resolution is too high (max 3840x2160)")
	}
	if cfg.FrameRate < 0 || cfg.FrameRate > 60 {
		return fmt.Errorf("encoder frame rate must be between 0 and 60")
	}
	if cfg.BitrateMin < 0 || cfg.BitrateMax < 0 {
		return fmt.Errorf("encoder bitrate must not be negative")
	}
	if cfg.BitrateMax > 0 && cfg.BitrateMin > cfg.BitrateMax {
		return fmt.Errorf("encoder bitrate_min must be <= bitrate_max")
	}
	return nil
}

// ValidateBeautyOptions validates beauty effect option ranges
func ValidateBeautyOptions(opts domain.BeautyEffectOptions) error {
	if opts.LighteningContrastLevel < domain.LighteningContrastLow || opts.LighteningContrastLevel > domain.LighteningContrastHigh {
		return fmt.Errorf("lightening contrast level must be 0, 1 or 2")
	}
	if opts.LighteningLevel < 0 || opts.LighteningLevel > 1 {
		return fmt.Errorf("lightening level must be between 0 and 1")
	}
	if opts.RednessLevel < 0 || opts.RednessLevel > 1 {
		return fmt.Errorf("redness level must be between 0 and 1")
	}
	if opts.SmoothnessLevel < 0 || opts.SmoothnessLevel > 1 {
		return fmt.Errorf("smoothness level must be between 0 and 1")
	}
	return nil
}
