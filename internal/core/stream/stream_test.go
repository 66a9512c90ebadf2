package stream

import (
	"context"
	"testing"
	"time"

	"streamkit/internal/core/domain"
	"streamkit/internal/enginetest"
	apperr "streamkit/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newLocalStream(t *testing.T, engine *enginetest.FakeEngine) *Stream {
	t.Helper()
	return New(1, domain.StreamSpec{
		Role:  domain.RoleLocal,
		Audio: true,
		Video: true,
	}, engine, zaptest.NewLogger(t))
}

func newReadyStream(t *testing.T, engine *enginetest.FakeEngine) *Stream {
	t.Helper()
	st := newLocalStream(t, engine)
	require.NoError(t, st.Init(context.Background()))
	return st
}

func TestStream_InitLocal(t *testing.T) {
	engine := enginetest.New()
	st := newLocalStream(t, engine)

	assert.Equal(t, StateUninitialized, st.State())
	require.NoError(t, st.Init(context.Background()))

	assert.Equal(t, StateReady, st.State())
	assert.True(t, st.HasAudio())
	assert.True(t, st.HasVideo())
	assert.True(t, st.AudioEnabled())
	assert.True(t, st.VideoEnabled())
	assert.True(t, engine.Opened(1))
	assert.Equal(t, 2, engine.CallCount("AcquireTrack"))
	assert.Equal(t, 2, engine.CallCount("AttachTrack"))
	assert.Equal(t, 1, engine.CallCount("ApplyAudioProfile"))
	assert.Equal(t, 1, engine.CallCount("ApplyVideoProfile"))
}

func TestStream_InitRemote(t *testing.T) {
	engine := enginetest.New()
	st := New(7, domain.StreamSpec{
		Role:  domain.RoleRemote,
		Audio: true,
		Video: true,
	}, engine, zaptest.NewLogger(t))

	require.NoError(t, st.Init(context.Background()))

	assert.Equal(t, StateReady, st.State())
	assert.False(t, st.HasAudio())
	assert.False(t, st.HasVideo())
	assert.Zero(t, engine.CallCount("AcquireTrack"))
}

func TestStream_InitScreenShare(t *testing.T) {
	engine := enginetest.New()
	st := New(3, domain.StreamSpec{
		Role:        domain.RoleLocal,
		Video:       true,
		ScreenShare: true,
	}, engine, zaptest.NewLogger(t))

	require.NoError(t, st.Init(context.Background()))

	assert.Equal(t, 1, engine.CallCount("ApplyScreenProfile"))
	assert.Zero(t, engine.CallCount("ApplyVideoProfile"))
}

func TestStream_InitTwice(t *testing.T) {
	engine := enginetest.New()
	st := newReadyStream(t, engine)

	err := st.Init(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeInvalidState))
}

func TestStream_ConcurrentInit(t *testing.T) {
	engine := enginetest.New()

	entered := make(chan struct{})
	release := make(chan struct{})
	engine.OpenHook = func(domain.StreamID) {
		close(entered)
		<-release
	}

	st := newLocalStream(t, engine)

	firstDone := make(chan error, 1)
	go func() { firstDone <- st.Init(context.Background()) }()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("initialization never reached the engine")
	}

	err := st.Init(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeAlreadyInitializing))

	close(release)
	require.NoError(t, <-firstDone)
	assert.Equal(t, StateReady, st.State())
}

func TestStream_CloseDuringInit(t *testing.T) {
	engine := enginetest.New()

	entered := make(chan struct{})
	release := make(chan struct{})
	engine.OpenHook = func(domain.StreamID) {
		close(entered)
		<-release
	}

	st := newLocalStream(t, engine)

	initDone := make(chan error, 1)
	go func() { initDone <- st.Init(context.Background()) }()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("initialization never reached the engine")
	}

	require.NoError(t, st.Close())
	close(release)

	err := <-initDone
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeInvalidState))
	assert.Equal(t, StateClosed, st.State())
	assert.False(t, engine.Opened(1))
}

func TestStream_InitAfterClose(t *testing.T) {
	engine := enginetest.New()
	st := newLocalStream(t, engine)

	require.NoError(t, st.Close())

	err := st.Init(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeInvalidState))
}

func TestStream_InitFailureRollsBack(t *testing.T) {
	engine := enginetest.New()
	engine.FailWith("AttachTrack", apperr.NewInternalError("attach failed"))

	st := newLocalStream(t, engine)
	err := st.Init(context.Background())
	require.Error(t, err)

	assert.Equal(t, StateUninitialized, st.State())
	assert.False(t, engine.Opened(1))

	// A later attempt succeeds once the engine recovers.
	engine.FailWith("AttachTrack", nil)
	require.NoError(t, st.Init(context.Background()))
	assert.Equal(t, StateReady, st.State())
}

func TestStream_PlayStopLifecycle(t *testing.T) {
	engine := enginetest.New()
	st := newReadyStream(t, engine)

	require.NoError(t, st.Play("surface-1", domain.PlayOptions{Fit: domain.FitContain}))
	assert.Equal(t, StatePlaying, st.State())
	assert.Equal(t, "surface-1", engine.Surface(1))

	// Re-playing re-binds without error.
	require.NoError(t, st.Play("surface-2", domain.PlayOptions{}))
	assert.Equal(t, "surface-2", engine.Surface(1))

	require.NoError(t, st.Stop())
	assert.Equal(t, StateStopped, st.State())
	assert.Empty(t, engine.Surface(1))

	// Stopping again is a no-op.
	require.NoError(t, st.Stop())

	// Play from stopped resumes.
	require.NoError(t, st.Play("surface-1", domain.PlayOptions{}))
	assert.Equal(t, StatePlaying, st.State())
}

func TestStream_PlayValidation(t *testing.T) {
	engine := enginetest.New()
	st := newReadyStream(t, engine)

	tests := []struct {
		name      string
		surfaceID string
		opts      domain.PlayOptions
	}{
		{name: "empty surface", surfaceID: ""},
		{name: "bad surface characters", surfaceID: "no spaces here"},
		{name: "bad fit mode", surfaceID: "surface-1", opts: domain.PlayOptions{Fit: "stretch"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := st.Play(tt.surfaceID, tt.opts)
			require.Error(t, err)
			assert.True(t, apperr.HasCode(err, apperr.ErrCodeInvalidArgument))
		})
	}
}

func TestStream_PlayBeforeInit(t *testing.T) {
	engine := enginetest.New()
	st := newLocalStream(t, engine)

	err := st.Play("surface-1", domain.PlayOptions{})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeInvalidState))
}

func TestStream_CloseReleasesEverything(t *testing.T) {
	engine := enginetest.New()
	st := newReadyStream(t, engine)

	audio, ok := st.GetAudioTrack()
	require.True(t, ok)
	require.NoError(t, st.Play("surface-1", domain.PlayOptions{}))
	require.NoError(t, st.PreloadEffect(context.Background(), 10, "/media/chime.mp3"))
	require.NoError(t, st.StartAudioMixing(context.Background(), domain.AudioMixingOptions{FilePath: "/media/bed.mp3"}))

	require.NoError(t, st.Close())
	assert.Equal(t, StateClosed, st.State())

	assert.True(t, audio.(*enginetest.FakeTrack).Stopped())
	assert.False(t, engine.Opened(1))
	assert.Equal(t, 1, engine.CallCount("UnloadEffect"))
	assert.Equal(t, 1, engine.CallCount("StopMixing"))
	assert.Equal(t, 1, engine.CallCount("UnbindSurface"))

	// Close is idempotent and terminal.
	require.NoError(t, st.Close())
	err := st.MuteAudio()
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeInvalidState))
}

func TestStream_MuteLocalTracks(t *testing.T) {
	engine := enginetest.New()
	st := newReadyStream(t, engine)

	require.NoError(t, st.MuteAudio())
	assert.False(t, st.AudioEnabled())
	audio, _ := st.GetAudioTrack()
	assert.False(t, audio.Enabled())

	require.NoError(t, st.UnmuteAudio())
	assert.True(t, st.AudioEnabled())
	assert.True(t, audio.Enabled())

	require.NoError(t, st.MuteVideo())
	assert.False(t, st.VideoEnabled())
}

func TestStream_MuteBeforeInit(t *testing.T) {
	engine := enginetest.New()
	st := newLocalStream(t, engine)

	err := st.MuteAudio()
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeInvalidState))
}

func TestStream_MuteAbsentKindIsNoop(t *testing.T) {
	engine := enginetest.New()
	st := New(1, domain.StreamSpec{Role: domain.RoleLocal, Audio: true}, engine, zaptest.NewLogger(t))
	require.NoError(t, st.Init(context.Background()))

	require.NoError(t, st.MuteVideo())
	assert.Zero(t, engine.CallCount("SetRenderMuted"))
}

func TestStream_MuteRemoteTogglesRendering(t *testing.T) {
	engine := enginetest.New()
	st := New(2, domain.StreamSpec{Role: domain.RoleRemote, Audio: true, Video: true}, engine, zaptest.NewLogger(t))
	require.NoError(t, st.Init(context.Background()))

	// Remote streams start unmuted even though they hold no local tracks.
	assert.True(t, st.AudioEnabled())
	assert.True(t, st.VideoEnabled())

	require.NoError(t, st.MuteVideo())
	assert.Equal(t, 1, engine.CallCount("SetRenderMuted"))
	assert.False(t, st.VideoEnabled())

	require.NoError(t, st.UnmuteVideo())
	assert.Equal(t, 2, engine.CallCount("SetRenderMuted"))
	assert.True(t, st.VideoEnabled())
}

func TestStream_SwitchDevice(t *testing.T) {
	engine := enginetest.New()
	st := newReadyStream(t, engine)

	previous, _ := st.GetAudioTrack()
	require.NoError(t, st.MuteAudio())

	events := make(chan domain.Event, 1)
	st.On(domain.EventDeviceChanged, func(e domain.Event) { events <- e })

	require.NoError(t, st.SwitchDevice(context.Background(), domain.MediaKindAudio, "mic-2"))

	current, ok := st.GetAudioTrack()
	require.True(t, ok)
	assert.NotEqual(t, previous.ID(), current.ID())
	assert.Equal(t, "mic-2", current.DeviceID())
	assert.True(t, previous.(*enginetest.FakeTrack).Stopped())
	// The muted state carries over to the replacement track.
	assert.False(t, current.Enabled())
	assert.Equal(t, 1, engine.CallCount("DetachTrack"))

	select {
	case e := <-events:
		assert.Equal(t, domain.EventDeviceChanged, e.Type)
		assert.Equal(t, domain.MediaKindAudio, e.Kind)
		assert.Equal(t, "mic-2", e.Detail)
	case <-time.After(2 * time.Second):
		t.Fatal("device change event never arrived")
	}
}

func TestStream_SwitchDeviceRejections(t *testing.T) {
	tests := []struct {
		name   string
		spec   domain.StreamSpec
		mutate func(*enginetest.FakeEngine)
		code   apperr.ErrorCode
	}{
		{
			name: "remote role",
			spec: domain.StreamSpec{Role: domain.RoleRemote, Audio: true},
			code: apperr.ErrCodeUnsupportedOperation,
		},
		{
			name: "dual stream mode",
			spec: domain.StreamSpec{Role: domain.RoleLocal, Audio: true, DualStream: true},
			code: apperr.ErrCodeUnsupportedOperation,
		},
		{
			name: "external source",
			spec: domain.StreamSpec{Role: domain.RoleLocal, Audio: true, ExternalSource: true},
			code: apperr.ErrCodeUnsupportedOperation,
		},
		{
			name:   "engine without device switch",
			spec:   domain.StreamSpec{Role: domain.RoleLocal, Audio: true},
			mutate: func(f *enginetest.FakeEngine) { f.Caps.DeviceSwitch = false },
			code:   apperr.ErrCodeUnsupportedOperation,
		},
		{
			name: "no active track of kind",
			spec: domain.StreamSpec{Role: domain.RoleLocal, Audio: true},
			code: apperr.ErrCodeNotActive,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := enginetest.New()
			if tt.mutate != nil {
				tt.mutate(engine)
			}
			st := New(1, tt.spec, engine, zaptest.NewLogger(t))
			require.NoError(t, st.Init(context.Background()))

			kind := domain.MediaKindAudio
			if tt.name == "no active track of kind" {
				kind = domain.MediaKindVideo
			}
			err := st.SwitchDevice(context.Background(), kind, "mic-2")
			require.Error(t, err)
			assert.True(t, apperr.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestStream_Resume(t *testing.T) {
	engine := enginetest.New()
	st := newReadyStream(t, engine)

	err := st.Resume(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeNotActive))

	require.NoError(t, st.Play("surface-1", domain.PlayOptions{}))
	require.NoError(t, st.Resume(context.Background()))
	assert.Equal(t, 1, engine.CallCount("ResumePlayback"))
}

func TestStream_GetStats(t *testing.T) {
	engine := enginetest.New()
	engine.LocalStats = domain.LocalStreamStats{SendBytes: 4096, SendPackets: 32, SendBitrate: 500}
	st := newReadyStream(t, engine)

	stats, err := st.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RoleLocal, stats.Role)
	require.NotNil(t, stats.Local)
	assert.Nil(t, stats.Remote)
	assert.Equal(t, uint64(4096), stats.Local.SendBytes)

	remoteEngine := enginetest.New()
	remoteEngine.RemoteStats = domain.RemoteStreamStats{RecvBytes: 2048, EndToEndDelay: 40 * time.Millisecond}
	remote := New(2, domain.StreamSpec{Role: domain.RoleRemote, Audio: true}, remoteEngine, zaptest.NewLogger(t))
	require.NoError(t, remote.Init(context.Background()))

	stats, err = remote.GetStats(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stats.Remote)
	assert.Nil(t, stats.Local)
	assert.Equal(t, uint64(2048), stats.Remote.RecvBytes)
}

func TestStream_EngineEventsReachHandlers(t *testing.T) {
	engine := enginetest.New()
	st := newReadyStream(t, engine)

	first := make(chan domain.Event, 1)
	second := make(chan domain.Event, 1)
	st.On(domain.EventTrackEnded, func(e domain.Event) { first <- e })
	st.On(domain.EventTrackEnded, func(e domain.Event) { second <- e })

	engine.Emit(1, domain.Event{Type: domain.EventTrackEnded, Kind: domain.MediaKindVideo})

	for _, ch := range []chan domain.Event{first, second} {
		select {
		case e := <-ch:
			assert.Equal(t, domain.EventTrackEnded, e.Type)
			assert.Equal(t, domain.StreamID(1), e.StreamID)
		case <-time.After(2 * time.Second):
			t.Fatal("event never reached handler")
		}
	}
}
