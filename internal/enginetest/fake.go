// Package enginetest provides an in-memory MediaEngine for exercising
// the stream and session controllers without a real transport.
package enginetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"streamkit/internal/core/domain"
	"streamkit/internal/core/ports"
)

// FakeTrack is an in-memory MediaTrack.
type FakeTrack struct {
	TrackID   domain.TrackID
	TrackKind domain.MediaKind
	Device    string

	mu      sync.Mutex
	enabled bool
	stopped bool
}

func NewFakeTrack(id string, kind domain.MediaKind, deviceID string) *FakeTrack {
	return &FakeTrack{
		TrackID:   domain.TrackID(id),
		TrackKind: kind,
		Device:    deviceID,
		enabled:   true,
	}
}

func (t *FakeTrack) ID() domain.TrackID { return t.TrackID }

func (t *FakeTrack) Kind() domain.MediaKind { return t.TrackKind }

func (t *FakeTrack) DeviceID() string { return t.Device }

func (t *FakeTrack) SetEnabled(enabled bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return fmt.Errorf("track %s is stopped", t.TrackID)
	}
	t.enabled = enabled
	return nil
}

func (t *FakeTrack) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled && !t.stopped
}

func (t *FakeTrack) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.enabled = false
	return nil
}

func (t *FakeTrack) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// FakeEngine implements ports.MediaEngine with in-memory state. Failures
// are injected per operation name via FailWith; every call is recorded
// for assertions.
type FakeEngine struct {
	mu sync.Mutex

	Devices []domain.MediaDevice
	Caps    domain.CapabilitySet

	// DurationMs is reported by MixingDuration.
	DurationMs int
	// PositionMs is reported by MixingPosition.
	PositionMs int

	LocalStats   domain.LocalStreamStats
	RemoteStats  domain.RemoteStreamStats
	SessionStats domain.SessionStats

	// OpenHook runs inside OpenStream before it returns, off the engine
	// lock. Tests use it to hold initialization in flight.
	OpenHook func(id domain.StreamID)

	errs     map[string]error
	calls    []string
	nextID   int
	opened   map[domain.StreamID]domain.StreamRole
	sinks    map[domain.StreamID]func(domain.Event)
	attached map[domain.StreamID]map[domain.TrackID]ports.MediaTrack
	surfaces map[domain.StreamID]string
}

func New() *FakeEngine {
	return &FakeEngine{
		Devices: []domain.MediaDevice{
			{DeviceID: "mic-1", Kind: domain.DeviceAudioInput, Label: "Fake Microphone"},
			{DeviceID: "cam-1", Kind: domain.DeviceVideoInput, Label: "Fake Camera"},
		},
		Caps: domain.CapabilitySet{
			TrackMutation: true,
			DeviceSwitch:  true,
			BeautyEffect:  true,
		},
		DurationMs: 60_000,
		errs:       make(map[string]error),
		opened:     make(map[domain.StreamID]domain.StreamRole),
		sinks:      make(map[domain.StreamID]func(domain.Event)),
		attached:   make(map[domain.StreamID]map[domain.TrackID]ports.MediaTrack),
		surfaces:   make(map[domain.StreamID]string),
	}
}

// FailWith makes every subsequent call of the named operation return err.
// A nil err clears the injection.
func (f *FakeEngine) FailWith(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, op)
		return
	}
	f.errs[op] = err
}

// CallCount returns how many times the named operation was invoked.
func (f *FakeEngine) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, call := range f.calls {
		if call == op {
			count++
		}
	}
	return count
}

// Calls returns the recorded operation names in invocation order.
func (f *FakeEngine) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// Opened reports whether engine-side state exists for the stream.
func (f *FakeEngine) Opened(id domain.StreamID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.opened[id]
	return ok
}

// Surface returns the bound rendering surface of the stream, if any.
func (f *FakeEngine) Surface(id domain.StreamID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.surfaces[id]
}

// AttachedCount returns the number of tracks attached to the stream.
func (f *FakeEngine) AttachedCount(id domain.StreamID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.attached[id])
}

// Emit pushes an event into the stream's registered sink.
func (f *FakeEngine) Emit(id domain.StreamID, event domain.Event) {
	f.mu.Lock()
	sink := f.sinks[id]
	f.mu.Unlock()
	if sink != nil {
		event.StreamID = id
		if event.Timestamp.IsZero() {
			event.Timestamp = time.Now()
		}
		sink(event)
	}
}

// record logs the call and returns the injected error, if any.
func (f *FakeEngine) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	return f.errs[op]
}

func (f *FakeEngine) Capabilities() domain.CapabilitySet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Caps
}

func (f *FakeEngine) EnumerateDevices(ctx context.Context) ([]domain.MediaDevice, error) {
	if err := f.record("EnumerateDevices"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.MediaDevice, len(f.Devices))
	copy(out, f.Devices)
	return out, nil
}

func (f *FakeEngine) OpenStream(ctx context.Context, id domain.StreamID, role domain.StreamRole) error {
	if err := f.record("OpenStream"); err != nil {
		return err
	}
	f.mu.Lock()
	f.opened[id] = role
	hook := f.OpenHook
	f.mu.Unlock()
	if hook != nil {
		hook(id)
	}
	return nil
}

func (f *FakeEngine) CloseStream(id domain.StreamID) error {
	if err := f.record("CloseStream"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.opened, id)
	delete(f.sinks, id)
	delete(f.attached, id)
	delete(f.surfaces, id)
	return nil
}

func (f *FakeEngine) Subscribe(id domain.StreamID, sink func(domain.Event)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks[id] = sink
}

func (f *FakeEngine) AcquireTrack(ctx context.Context, id domain.StreamID, kind domain.MediaKind, deviceID string) (ports.MediaTrack, error) {
	if err := f.record("AcquireTrack"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	if deviceID == "" {
		deviceID = fmt.Sprintf("default-%s", kind)
	}
	return NewFakeTrack(fmt.Sprintf("%s-%d", kind, f.nextID), kind, deviceID), nil
}

func (f *FakeEngine) AttachTrack(id domain.StreamID, track ports.MediaTrack) error {
	if err := f.record("AttachTrack"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attached[id] == nil {
		f.attached[id] = make(map[domain.TrackID]ports.MediaTrack)
	}
	f.attached[id][track.ID()] = track
	return nil
}

func (f *FakeEngine) DetachTrack(id domain.StreamID, track ports.MediaTrack) error {
	if err := f.record("DetachTrack"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.attached[id], track.ID())
	return nil
}

func (f *FakeEngine) ApplyAudioProfile(id domain.StreamID, profile domain.AudioProfile) error {
	return f.record("ApplyAudioProfile")
}

func (f *FakeEngine) ApplyVideoProfile(id domain.StreamID, profile domain.VideoProfile) error {
	return f.record("ApplyVideoProfile")
}

func (f *FakeEngine) ApplyScreenProfile(id domain.StreamID, profile domain.ScreenProfile) error {
	return f.record("ApplyScreenProfile")
}

func (f *FakeEngine) ApplyEncoderConfig(id domain.StreamID, cfg domain.VideoEncoderConfig) error {
	return f.record("ApplyEncoderConfig")
}

func (f *FakeEngine) SetBeautyEffect(id domain.StreamID, enabled bool, opts domain.BeautyEffectOptions) error {
	return f.record("SetBeautyEffect")
}

func (f *FakeEngine) LoadEffect(ctx context.Context, id domain.StreamID, soundID int, filePath string) error {
	return f.record("LoadEffect")
}

func (f *FakeEngine) PlayEffect(id domain.StreamID, soundID, volume, cycle int) error {
	return f.record("PlayEffect")
}

func (f *FakeEngine) PauseEffect(id domain.StreamID, soundID int) error {
	return f.record("PauseEffect")
}

func (f *FakeEngine) ResumeEffect(id domain.StreamID, soundID int) error {
	return f.record("ResumeEffect")
}

func (f *FakeEngine) StopEffect(id domain.StreamID, soundID int) error {
	return f.record("StopEffect")
}

func (f *FakeEngine) UnloadEffect(id domain.StreamID, soundID int) error {
	return f.record("UnloadEffect")
}

func (f *FakeEngine) SetEffectVolume(id domain.StreamID, soundID, volume int) error {
	return f.record("SetEffectVolume")
}

func (f *FakeEngine) StartMixing(ctx context.Context, id domain.StreamID, opts domain.AudioMixingOptions) error {
	return f.record("StartMixing")
}

func (f *FakeEngine) PauseMixing(id domain.StreamID) error {
	return f.record("PauseMixing")
}

func (f *FakeEngine) ResumeMixing(id domain.StreamID) error {
	return f.record("ResumeMixing")
}

func (f *FakeEngine) StopMixing(id domain.StreamID) error {
	return f.record("StopMixing")
}

func (f *FakeEngine) SetMixingPosition(id domain.StreamID, positionMs int) error {
	return f.record("SetMixingPosition")
}

func (f *FakeEngine) SetMixingVolume(id domain.StreamID, volume int) error {
	return f.record("SetMixingVolume")
}

func (f *FakeEngine) MixingDuration(ctx context.Context, id domain.StreamID) (int, error) {
	if err := f.record("MixingDuration"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.DurationMs, nil
}

func (f *FakeEngine) MixingPosition(id domain.StreamID) (int, error) {
	if err := f.record("MixingPosition"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.PositionMs, nil
}

func (f *FakeEngine) BindSurface(id domain.StreamID, surfaceID string, opts domain.PlayOptions) error {
	if err := f.record("BindSurface"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.surfaces[id] = surfaceID
	return nil
}

func (f *FakeEngine) UnbindSurface(id domain.StreamID) error {
	if err := f.record("UnbindSurface"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.surfaces, id)
	return nil
}

func (f *FakeEngine) SetRenderMuted(id domain.StreamID, kind domain.MediaKind, muted bool) error {
	return f.record("SetRenderMuted")
}

func (f *FakeEngine) ResumePlayback(ctx context.Context, id domain.StreamID) error {
	return f.record("ResumePlayback")
}

func (f *FakeEngine) SampleLocalStats(ctx context.Context, id domain.StreamID) (domain.LocalStreamStats, error) {
	if err := f.record("SampleLocalStats"); err != nil {
		return domain.LocalStreamStats{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.LocalStats, nil
}

func (f *FakeEngine) SampleRemoteStats(ctx context.Context, id domain.StreamID) (domain.RemoteStreamStats, error) {
	if err := f.record("SampleRemoteStats"); err != nil {
		return domain.RemoteStreamStats{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.RemoteStats, nil
}

func (f *FakeEngine) SampleSessionStats(ctx context.Context) (domain.SessionStats, error) {
	if err := f.record("SampleSessionStats"); err != nil {
		return domain.SessionStats{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.SessionStats, nil
}

var _ ports.MediaEngine = (*FakeEngine)(nil)
