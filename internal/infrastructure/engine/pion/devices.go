package pion

import (
	"context"

	"streamkit/internal/core/domain"
	apperr "streamkit/pkg/errors"
)

const deviceCacheKey = "devices"

// EnumerateDevices returns a snapshot of the configured devices. The
// snapshot is cached for the configured TTL since enumeration is a hot
// path for polling clients. Labels are blanked out until media
// permission has been granted.
func (e *Engine) EnumerateDevices(ctx context.Context) ([]domain.MediaDevice, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if cached, ok := e.deviceCache.Get(deviceCacheKey); ok {
		if devices, ok := cached.([]domain.MediaDevice); ok {
			return devices, nil
		}
	}

	if len(e.config.Devices) == 0 {
		return nil, apperr.NewDeviceError("no media devices are available")
	}

	devices := make([]domain.MediaDevice, 0, len(e.config.Devices))
	for _, dev := range e.config.Devices {
		snapshot := dev
		if !e.config.PermissionGranted {
			snapshot.Label = ""
		}
		devices = append(devices, snapshot)
	}

	e.deviceCache.Set(deviceCacheKey, devices)
	return devices, nil
}

// deviceForKind resolves the device to capture from. An empty deviceID
// selects the first configured device of the matching kind.
func (e *Engine) deviceForKind(kind domain.MediaKind, deviceID string) (domain.MediaDevice, error) {
	want := domain.DeviceAudioInput
	if kind == domain.MediaKindVideo {
		want = domain.DeviceVideoInput
	}

	for _, dev := range e.config.Devices {
		if dev.Kind != want {
			continue
		}
		if deviceID == "" || dev.DeviceID == deviceID {
			return dev, nil
		}
	}

	if deviceID != "" {
		return domain.MediaDevice{}, apperr.NewDeviceError("device " + deviceID + " is not available")
	}
	return domain.MediaDevice{}, apperr.NewDeviceError("no " + string(want) + " device is available")
}
