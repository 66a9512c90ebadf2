package pion

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"streamkit/internal/core/domain"
	"streamkit/internal/core/ports"
	apperr "streamkit/pkg/errors"
	"streamkit/pkg/optimize"
	"streamkit/pkg/utils"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3"
)

// rtpBufferPool amortizes read buffer allocations across track churn.
var rtpBufferPool = optimize.NewBytePool(1500) // MTU size

// localTrack wraps a pion static RTP track behind the MediaTrack port.
// The enabled flag gates outbound writes; a disabled track keeps its
// transceiver but transmits nothing.
type localTrack struct {
	id       domain.TrackID
	kind     domain.MediaKind
	deviceID string
	native   *webrtc.TrackLocalStaticRTP
	counters *streamCounters

	mu      sync.Mutex
	enabled bool
	stopped bool
}

func (t *localTrack) ID() domain.TrackID { return t.id }

func (t *localTrack) Kind() domain.MediaKind { return t.kind }

func (t *localTrack) DeviceID() string { return t.deviceID }

func (t *localTrack) SetEnabled(enabled bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return apperr.NewInvalidStateError("track has been stopped")
	}
	t.enabled = enabled
	return nil
}

func (t *localTrack) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled && !t.stopped
}

func (t *localTrack) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return nil
	}
	t.stopped = true
	t.enabled = false
	return nil
}

func (t *localTrack) markStopped() {
	t.mu.Lock()
	t.stopped = true
	t.enabled = false
	t.mu.Unlock()
}

// WriteRTP feeds one packet into the track. Media pumps call this; the
// write is dropped while the track is disabled.
func (t *localTrack) WriteRTP(packet *rtp.Packet) error {
	if !t.Enabled() {
		return nil
	}
	if err := t.native.WriteRTP(packet); err != nil {
		return err
	}
	t.counters.sendPackets.Add(1)
	t.counters.sendBytes.Add(uint64(packet.MarshalSize()))
	return nil
}

// AcquireTrack captures a native track from the requested device. The
// first acquisition surfaces the permission decision as an event.
func (e *Engine) AcquireTrack(ctx context.Context, id domain.StreamID, kind domain.MediaKind, deviceID string) (ports.MediaTrack, error) {
	es, err := e.stream(id)
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if !e.config.PermissionGranted {
		es.emit(domain.Event{Type: domain.EventAccessDenied, Kind: kind})
		return nil, apperr.NewPermissionError("media capture permission was denied")
	}

	device, err := e.deviceForKind(kind, deviceID)
	if err != nil {
		return nil, err
	}

	capability := webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}
	if kind == domain.MediaKindVideo {
		capability = webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}
	}

	trackID := utils.GenerateTrackID(string(kind))
	native, err := webrtc.NewTrackLocalStaticRTP(capability, trackID, fmt.Sprintf("stream-%d", id))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrCodeDeviceError, "failed to create native track", http.StatusConflict)
	}

	track := &localTrack{
		id:       domain.TrackID(trackID),
		kind:     kind,
		deviceID: device.DeviceID,
		native:   native,
		counters: &es.counters,
		enabled:  true,
	}

	es.emit(domain.Event{Type: domain.EventAccessAllowed, Kind: kind})
	e.logger.Debugw("track acquired",
		"stream_id", id,
		"track_id", trackID,
		"kind", kind,
		"device_id", device.DeviceID,
	)
	return track, nil
}

// AttachTrack adds the track to the stream's peer connection.
func (e *Engine) AttachTrack(id domain.StreamID, track ports.MediaTrack) error {
	es, err := e.stream(id)
	if err != nil {
		return err
	}

	lt, ok := track.(*localTrack)
	if !ok {
		return apperr.NewInvalidArgumentError("track does not belong to this engine")
	}

	sender, err := es.pc.AddTrack(lt.native)
	if err != nil {
		return apperr.Wrap(err, apperr.ErrCodeInternal, "failed to attach track", http.StatusInternalServerError)
	}

	es.mu.Lock()
	es.tracks[lt.id] = lt
	es.senders[lt.id] = sender
	es.mu.Unlock()

	// The sender RTCP stream must be drained for interceptors to run.
	go e.drainSenderRTCP(es, sender)
	return nil
}

// DetachTrack removes the track from the peer connection and stops it.
func (e *Engine) DetachTrack(id domain.StreamID, track ports.MediaTrack) error {
	es, err := e.stream(id)
	if err != nil {
		return err
	}

	es.mu.Lock()
	sender, exists := es.senders[track.ID()]
	delete(es.senders, track.ID())
	delete(es.tracks, track.ID())
	es.mu.Unlock()

	if !exists {
		return apperr.NewNotFoundError("track")
	}
	if err := es.pc.RemoveTrack(sender); err != nil {
		return apperr.Wrap(err, apperr.ErrCodeInternal, "failed to detach track", http.StatusInternalServerError)
	}
	return nil
}

// handleRemoteTrack consumes inbound media on subscribe-side streams,
// accounting packets and bytes as they arrive.
func (e *Engine) handleRemoteTrack(es *engineStream) func(*webrtc.TrackRemote, *webrtc.RTPReceiver) {
	return func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		e.logger.Infow("remote track started",
			"stream_id", es.id,
			"track_id", track.ID(),
			"codec", track.Codec().MimeType,
		)

		go e.processRTCP(es, receiver)

		packetBuffer := rtpBufferPool.Get()
		defer rtpBufferPool.Put(packetBuffer)
		rtpPacket := &rtp.Packet{}

		for {
			n, _, err := track.Read(packetBuffer)
			if err != nil {
				e.logger.Warnw("remote track read ended",
					"stream_id", es.id,
					"track_id", track.ID(),
					"error", err,
				)
				kind := domain.MediaKindAudio
				if track.Kind() == webrtc.RTPCodecTypeVideo {
					kind = domain.MediaKindVideo
				}
				es.emit(domain.Event{Type: domain.EventTrackEnded, Kind: kind})
				return
			}
			if err := rtpPacket.Unmarshal(packetBuffer[:n]); err != nil {
				e.logger.Warnw("error unmarshaling RTP packet",
					"stream_id", es.id,
					"track_id", track.ID(),
					"error", err,
				)
				continue
			}

			es.counters.recvPackets.Add(1)
			es.counters.recvBytes.Add(uint64(n))
		}
	}
}

// processRTCP extracts loss and delay figures from receiver reports.
func (e *Engine) processRTCP(es *engineStream, receiver *webrtc.RTPReceiver) {
	for {
		packets, _, err := receiver.ReadRTCP()
		if err != nil {
			return
		}

		for _, packet := range packets {
			report, ok := packet.(*rtcp.ReceiverReport)
			if !ok {
				continue
			}
			for _, block := range report.Reports {
				es.counters.recvLost.Add(uint64(block.FractionLost))
				if block.LastSenderReport != 0 && block.Delay != 0 {
					rtt := time.Duration(block.Delay) * time.Second / 65536
					es.counters.setDelay(rtt)
				}
			}
		}
	}
}

func (e *Engine) drainSenderRTCP(es *engineStream, sender *webrtc.RTPSender) {
	buf := rtpBufferPool.Get()
	defer rtpBufferPool.Put(buf)
	for {
		if _, _, err := sender.Read(buf); err != nil {
			return
		}
	}
}
