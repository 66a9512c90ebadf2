package pion

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"streamkit/internal/core/domain"
)

// streamCounters accumulates transport-level figures for one stream.
// Writers are the RTP pumps; readers are the samplers.
type streamCounters struct {
	sendBytes   atomic.Uint64
	sendPackets atomic.Uint64
	sendLost    atomic.Uint64
	recvBytes   atomic.Uint64
	recvPackets atomic.Uint64
	recvLost    atomic.Uint64

	mu    sync.Mutex
	delay time.Duration
	// Per-stream and session-wide samplers run on independent cadences,
	// so each keeps its own delta baseline.
	stream  bitrateBaseline
	session bitrateBaseline
}

// bitrateBaseline remembers the previous sample of one sampler.
type bitrateBaseline struct {
	lastSample    time.Time
	lastSendBytes uint64
	lastRecvBytes uint64
}

func (c *streamCounters) setDelay(d time.Duration) {
	c.mu.Lock()
	c.delay = d
	c.mu.Unlock()
}

// streamBitrates computes bitrates for the per-stream samplers.
func (c *streamCounters) streamBitrates() (sendKbps, recvKbps int) {
	return c.bitrates(&c.stream)
}

// sessionBitrates computes bitrates for the session-wide sampler.
func (c *streamCounters) sessionBitrates() (sendKbps, recvKbps int) {
	return c.bitrates(&c.session)
}

// bitrates computes send/recv bitrates in kbps from the byte deltas
// since the baseline's previous sample, then advances the baseline.
func (c *streamCounters) bitrates(baseline *bitrateBaseline) (sendKbps, recvKbps int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	send := c.sendBytes.Load()
	recv := c.recvBytes.Load()

	if !baseline.lastSample.IsZero() {
		elapsed := now.Sub(baseline.lastSample).Seconds()
		if elapsed > 0 {
			sendKbps = int(float64(send-baseline.lastSendBytes) * 8 / 1000 / elapsed)
			recvKbps = int(float64(recv-baseline.lastRecvBytes) * 8 / 1000 / elapsed)
		}
	}

	baseline.lastSample = now
	baseline.lastSendBytes = send
	baseline.lastRecvBytes = recv
	return sendKbps, recvKbps
}

// SampleLocalStats snapshots the publish-side counters for a stream.
func (e *Engine) SampleLocalStats(ctx context.Context, id domain.StreamID) (domain.LocalStreamStats, error) {
	es, err := e.stream(id)
	if err != nil {
		return domain.LocalStreamStats{}, err
	}

	select {
	case <-ctx.Done():
		return domain.LocalStreamStats{}, ctx.Err()
	default:
	}

	sendKbps, _ := es.counters.streamBitrates()

	es.mu.Lock()
	width, height, fps := es.encoderWidth, es.encoderHeight, es.encoderFPS
	es.mu.Unlock()

	return domain.LocalStreamStats{
		SendBytes:       es.counters.sendBytes.Load(),
		SendPackets:     es.counters.sendPackets.Load(),
		SendPacketsLost: es.counters.sendLost.Load(),
		SendBitrate:     sendKbps,
		Width:           width,
		Height:          height,
		FrameRate:       fps,
		Timestamp:       time.Now(),
	}, nil
}

// SampleRemoteStats snapshots the subscribe-side counters for a stream.
func (e *Engine) SampleRemoteStats(ctx context.Context, id domain.StreamID) (domain.RemoteStreamStats, error) {
	es, err := e.stream(id)
	if err != nil {
		return domain.RemoteStreamStats{}, err
	}

	select {
	case <-ctx.Done():
		return domain.RemoteStreamStats{}, ctx.Err()
	default:
	}

	_, recvKbps := es.counters.streamBitrates()

	es.counters.mu.Lock()
	delay := es.counters.delay
	es.counters.mu.Unlock()

	es.mu.Lock()
	width, height, fps := es.encoderWidth, es.encoderHeight, es.encoderFPS
	es.mu.Unlock()

	return domain.RemoteStreamStats{
		RecvBytes:       es.counters.recvBytes.Load(),
		RecvPackets:     es.counters.recvPackets.Load(),
		RecvPacketsLost: es.counters.recvLost.Load(),
		RecvBitrate:     recvKbps,
		EndToEndDelay:   delay,
		Width:           width,
		Height:          height,
		FrameRate:       fps,
		Timestamp:       time.Now(),
	}, nil
}

// SampleSessionStats sums counters across every open stream. Duration
// and user count are filled in by the session owner.
func (e *Engine) SampleSessionStats(ctx context.Context) (domain.SessionStats, error) {
	select {
	case <-ctx.Done():
		return domain.SessionStats{}, ctx.Err()
	default:
	}

	e.mu.RLock()
	streams := make([]*engineStream, 0, len(e.streams))
	for _, es := range e.streams {
		streams = append(streams, es)
	}
	e.mu.RUnlock()

	var stats domain.SessionStats
	for _, es := range streams {
		stats.SendBytes += es.counters.sendBytes.Load()
		stats.RecvBytes += es.counters.recvBytes.Load()
		sendKbps, recvKbps := es.counters.sessionBitrates()
		stats.SendBitrate += sendKbps
		stats.RecvBitrate += recvKbps
	}
	stats.Timestamp = time.Now()
	return stats, nil
}
