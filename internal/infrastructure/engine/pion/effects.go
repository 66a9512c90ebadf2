package pion

import (
	"context"
	"os"
	"time"

	"streamkit/internal/core/domain"
	apperr "streamkit/pkg/errors"
)

// Effect and mixing playback are modeled as wall-clock players over the
// loaded files. Decoding and actual mixing into the outbound media
// happen downstream of the RTP tracks and are out of scope here; the
// clocks keep positions, durations and loop counts accurate for the
// control surface.

// assumedBitrateKbps is used to estimate a file's play duration without
// decoding it.
const assumedBitrateKbps = 128

type effectClock struct {
	filePath   string
	durationMs int
	volume     int
	cycle      int

	playing   bool
	startedAt time.Time
	baseMs    int
}

type mixingClock struct {
	filePath   string
	durationMs int
	volume     int
	cycle      int
	replace    bool

	playing   bool
	startedAt time.Time
	baseMs    int
}

func estimateDurationMs(path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, apperr.NewDeviceError("audio file is not readable: " + path)
	}
	if info.IsDir() {
		return 0, apperr.NewInvalidArgumentError("audio file path is a directory: " + path)
	}
	// bytes / (kbps/8) gives milliseconds at the assumed bitrate.
	ms := int(info.Size() / (assumedBitrateKbps / 8))
	if ms <= 0 {
		ms = 1
	}
	return ms, nil
}

// positionMs computes the playback offset, wrapping at the duration
// while looping.
func clockPositionMs(playing bool, startedAt time.Time, baseMs, durationMs int) int {
	pos := baseMs
	if playing {
		pos += int(time.Since(startedAt) / time.Millisecond)
	}
	if durationMs > 0 {
		pos %= durationMs
	}
	return pos
}

// LoadEffect reads the file metadata and prepares the effect clock.
func (e *Engine) LoadEffect(ctx context.Context, id domain.StreamID, soundID int, filePath string) error {
	es, err := e.stream(id)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	durationMs, err := estimateDurationMs(filePath)
	if err != nil {
		return err
	}

	es.mu.Lock()
	es.effects[soundID] = &effectClock{
		filePath:   filePath,
		durationMs: durationMs,
		volume:     domain.DefaultEffectVolume,
	}
	es.mu.Unlock()
	return nil
}

// PlayEffect starts the effect clock from the beginning.
func (e *Engine) PlayEffect(id domain.StreamID, soundID int, volume, cycle int) error {
	es, err := e.stream(id)
	if err != nil {
		return err
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	clock, exists := es.effects[soundID]
	if !exists {
		return apperr.NewNotFoundError("effect")
	}
	clock.volume = volume
	clock.cycle = cycle
	clock.baseMs = 0
	clock.startedAt = time.Now()
	clock.playing = true
	return nil
}

// PauseEffect freezes the effect clock at its current position.
func (e *Engine) PauseEffect(id domain.StreamID, soundID int) error {
	return e.withEffect(id, soundID, func(clock *effectClock) error {
		if clock.playing {
			clock.baseMs = clockPositionMs(true, clock.startedAt, clock.baseMs, clock.durationMs)
			clock.playing = false
		}
		return nil
	})
}

// ResumeEffect restarts a paused effect clock.
func (e *Engine) ResumeEffect(id domain.StreamID, soundID int) error {
	return e.withEffect(id, soundID, func(clock *effectClock) error {
		if !clock.playing {
			clock.startedAt = time.Now()
			clock.playing = true
		}
		return nil
	})
}

// StopEffect halts playback and rewinds the effect clock.
func (e *Engine) StopEffect(id domain.StreamID, soundID int) error {
	return e.withEffect(id, soundID, func(clock *effectClock) error {
		clock.playing = false
		clock.baseMs = 0
		return nil
	})
}

// UnloadEffect discards the effect clock entirely.
func (e *Engine) UnloadEffect(id domain.StreamID, soundID int) error {
	es, err := e.stream(id)
	if err != nil {
		return err
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	if _, exists := es.effects[soundID]; !exists {
		return apperr.NewNotFoundError("effect")
	}
	delete(es.effects, soundID)
	return nil
}

// SetEffectVolume adjusts the playback volume of one effect.
func (e *Engine) SetEffectVolume(id domain.StreamID, soundID, volume int) error {
	return e.withEffect(id, soundID, func(clock *effectClock) error {
		clock.volume = volume
		return nil
	})
}

func (e *Engine) withEffect(id domain.StreamID, soundID int, fn func(*effectClock) error) error {
	es, err := e.stream(id)
	if err != nil {
		return err
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	clock, exists := es.effects[soundID]
	if !exists {
		return apperr.NewNotFoundError("effect")
	}
	return fn(clock)
}

// StartMixing loads the mixing file and starts its clock.
func (e *Engine) StartMixing(ctx context.Context, id domain.StreamID, opts domain.AudioMixingOptions) error {
	es, err := e.stream(id)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	durationMs, err := estimateDurationMs(opts.FilePath)
	if err != nil {
		return err
	}
	if opts.StartPosition >= durationMs {
		return apperr.NewInvalidArgumentError("start position is beyond the end of the file")
	}

	es.mu.Lock()
	es.mixing = &mixingClock{
		filePath:   opts.FilePath,
		durationMs: durationMs,
		volume:     domain.DefaultEffectVolume,
		cycle:      opts.Cycle,
		replace:    opts.Replace,
		baseMs:     opts.StartPosition,
		startedAt:  time.Now(),
		playing:    true,
	}
	es.mu.Unlock()
	return nil
}

// PauseMixing freezes the mixing clock.
func (e *Engine) PauseMixing(id domain.StreamID) error {
	return e.withMixing(id, func(clock *mixingClock) error {
		if clock.playing {
			clock.baseMs = clockPositionMs(true, clock.startedAt, clock.baseMs, clock.durationMs)
			clock.playing = false
		}
		return nil
	})
}

// ResumeMixing restarts a paused mixing clock.
func (e *Engine) ResumeMixing(id domain.StreamID) error {
	return e.withMixing(id, func(clock *mixingClock) error {
		if !clock.playing {
			clock.startedAt = time.Now()
			clock.playing = true
		}
		return nil
	})
}

// StopMixing halts the mixing session and discards its clock.
func (e *Engine) StopMixing(id domain.StreamID) error {
	es, err := e.stream(id)
	if err != nil {
		return err
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	if es.mixing == nil {
		return apperr.NewNotActiveError("audio mixing is not active")
	}
	es.mixing = nil
	return nil
}

// SetMixingPosition seeks the mixing clock.
func (e *Engine) SetMixingPosition(id domain.StreamID, positionMs int) error {
	return e.withMixing(id, func(clock *mixingClock) error {
		if positionMs >= clock.durationMs {
			return apperr.NewInvalidArgumentError("position is beyond the end of the file")
		}
		clock.baseMs = positionMs
		clock.startedAt = time.Now()
		return nil
	})
}

// SetMixingVolume adjusts the mixing channel volume.
func (e *Engine) SetMixingVolume(id domain.StreamID, volume int) error {
	return e.withMixing(id, func(clock *mixingClock) error {
		clock.volume = volume
		return nil
	})
}

// MixingDuration returns the estimated duration of the mixing file in
// milliseconds.
func (e *Engine) MixingDuration(ctx context.Context, id domain.StreamID) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	var duration int
	err := e.withMixing(id, func(clock *mixingClock) error {
		duration = clock.durationMs
		return nil
	})
	return duration, err
}

// MixingPosition returns the current playback offset in milliseconds.
func (e *Engine) MixingPosition(id domain.StreamID) (int, error) {
	var position int
	err := e.withMixing(id, func(clock *mixingClock) error {
		position = clockPositionMs(clock.playing, clock.startedAt, clock.baseMs, clock.durationMs)
		return nil
	})
	return position, err
}

func (e *Engine) withMixing(id domain.StreamID, fn func(*mixingClock) error) error {
	es, err := e.stream(id)
	if err != nil {
		return err
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	if es.mixing == nil {
		return apperr.NewNotActiveError("audio mixing is not active")
	}
	return fn(es.mixing)
}
