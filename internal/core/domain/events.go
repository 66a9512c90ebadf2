package domain

import "time"

type EventType string

const (
	EventAccessAllowed        EventType = "access-allowed"
	EventAccessDenied         EventType = "access-denied"
	EventTrackEnded           EventType = "track-ended"
	EventDeviceChanged        EventType = "device-changed"
	EventPlayerStateChanged   EventType = "player-state-changed"
	EventAutoplayBlocked      EventType = "autoplay-blocked"
	EventScreenSharingStopped EventType = "screen-sharing-stopped"
)

// Event is a lifecycle-adjacent notification originating from the engine
// or from the stream controller itself.
type Event struct {
	Type      EventType `json:"type"`
	StreamID  StreamID  `json:"stream_id"`
	Kind      MediaKind `json:"kind,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
