package domain

import "errors"

var (
	ErrStreamNotFound   = errors.New("stream not found")
	ErrTrackNotFound    = errors.New("track not found")
	ErrEffectNotFound   = errors.New("effect not found")
	ErrDeviceNotFound   = errors.New("device not found")
	ErrSnapshotNotFound = errors.New("stats snapshot not found")
)
