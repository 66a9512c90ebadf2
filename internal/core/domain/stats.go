package domain

import "time"

// LocalStreamStats is the publish-side snapshot shape.
type LocalStreamStats struct {
	SendBytes       uint64    `json:"send_bytes"`
	SendPackets     uint64    `json:"send_packets"`
	SendPacketsLost uint64    `json:"send_packets_lost"`
	SendBitrate     int       `json:"send_bitrate"`
	Width           int       `json:"width"`
	Height          int       `json:"height"`
	FrameRate       int       `json:"frame_rate"`
	Timestamp       time.Time `json:"timestamp"`
}

// RemoteStreamStats is the subscribe-side snapshot shape.
type RemoteStreamStats struct {
	RecvBytes       uint64        `json:"recv_bytes"`
	RecvPackets     uint64        `json:"recv_packets"`
	RecvPacketsLost uint64        `json:"recv_packets_lost"`
	RecvBitrate     int           `json:"recv_bitrate"`
	EndToEndDelay   time.Duration `json:"end_to_end_delay"`
	Width           int           `json:"width"`
	Height          int           `json:"height"`
	FrameRate       int           `json:"frame_rate"`
	Timestamp       time.Time     `json:"timestamp"`
}

// StreamStats carries exactly one of the two shapes depending on the
// stream role the caller queried.
type StreamStats struct {
	Role   StreamRole         `json:"role"`
	Local  *LocalStreamStats  `json:"local,omitempty"`
	Remote *RemoteStreamStats `json:"remote,omitempty"`
}

// SessionStats aggregates session-wide counters; its lifecycle is
// independent from any single stream.
type SessionStats struct {
	Duration    time.Duration `json:"duration"`
	SendBytes   uint64        `json:"send_bytes"`
	RecvBytes   uint64        `json:"recv_bytes"`
	SendBitrate int           `json:"send_bitrate"`
	RecvBitrate int           `json:"recv_bitrate"`
	UserCount   int           `json:"user_count"`
	Timestamp   time.Time     `json:"timestamp"`
}
