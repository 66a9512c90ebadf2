package stream

import (
	"context"
	"testing"

	"streamkit/internal/core/domain"
	"streamkit/internal/enginetest"
	apperr "streamkit/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_StartAudioMixing(t *testing.T) {
	engine := enginetest.New()
	st := newReadyStream(t, engine)

	require.NoError(t, st.StartAudioMixing(context.Background(), domain.AudioMixingOptions{
		FilePath:      "/media/bed.mp3",
		StartPosition: 1500,
	}))

	mixing, active := st.GetAudioMixing()
	require.True(t, active)
	assert.Equal(t, domain.MixingPlaying, mixing.State)
	assert.Equal(t, 1500, mixing.Position)
	assert.Equal(t, domain.DefaultEffectVolume, mixing.Volume)

	// A second start while active is a conflict.
	err := st.StartAudioMixing(context.Background(), domain.AudioMixingOptions{FilePath: "/media/other.mp3"})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeConflict))
}

func TestStream_StartAudioMixingValidation(t *testing.T) {
	engine := enginetest.New()
	st := newReadyStream(t, engine)

	err := st.StartAudioMixing(context.Background(), domain.AudioMixingOptions{FilePath: ""})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeInvalidArgument))

	err = st.StartAudioMixing(context.Background(), domain.AudioMixingOptions{
		FilePath:      "/media/bed.mp3",
		StartPosition: domain.MaxMixingPositionMs + 1,
	})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeInvalidArgument))
}

func TestStream_MixingRequiresInit(t *testing.T) {
	engine := enginetest.New()
	st := newLocalStream(t, engine)

	err := st.StartAudioMixing(context.Background(), domain.AudioMixingOptions{FilePath: "/media/bed.mp3"})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeInvalidState))
}

func TestStream_MixingPauseResumeStop(t *testing.T) {
	engine := enginetest.New()
	st := newReadyStream(t, engine)

	// No mixing session yet.
	err := st.PauseAudioMixing()
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeNotActive))

	require.NoError(t, st.StartAudioMixing(context.Background(), domain.AudioMixingOptions{FilePath: "/media/bed.mp3"}))
	require.NoError(t, st.PauseAudioMixing())

	mixing, _ := st.GetAudioMixing()
	assert.Equal(t, domain.MixingPaused, mixing.State)

	// Pausing twice is rejected.
	err = st.PauseAudioMixing()
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeNotActive))

	require.NoError(t, st.ResumeAudioMixing())
	mixing, _ = st.GetAudioMixing()
	assert.Equal(t, domain.MixingPlaying, mixing.State)

	require.NoError(t, st.StopAudioMixing())
	mixing, _ = st.GetAudioMixing()
	assert.Equal(t, domain.MixingStopped, mixing.State)
	assert.Zero(t, mixing.Position)

	// A stopped session can be restarted.
	require.NoError(t, st.StartAudioMixing(context.Background(), domain.AudioMixingOptions{FilePath: "/media/next.mp3"}))
}

func TestStream_MixingPositionAndVolume(t *testing.T) {
	engine := enginetest.New()
	engine.DurationMs = 180_000
	engine.PositionMs = 42_000
	st := newReadyStream(t, engine)

	require.NoError(t, st.StartAudioMixing(context.Background(), domain.AudioMixingOptions{FilePath: "/media/bed.mp3"}))

	err := st.SetAudioMixingPosition(-1)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeInvalidArgument))

	err = st.SetAudioMixingPosition(domain.MaxMixingPositionMs + 1)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeInvalidArgument))

	require.NoError(t, st.SetAudioMixingPosition(30_000))
	mixing, _ := st.GetAudioMixing()
	assert.Equal(t, 30_000, mixing.Position)

	err = st.SetAudioMixingVolume(101)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeInvalidArgument))

	require.NoError(t, st.SetAudioMixingVolume(65))
	mixing, _ = st.GetAudioMixing()
	assert.Equal(t, 65, mixing.Volume)

	duration, err := st.GetAudioMixingDuration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 180_000, duration)

	position, err := st.GetAudioMixingPosition()
	require.NoError(t, err)
	assert.Equal(t, 42_000, position)
}

func TestStream_MixingQueriesAfterStop(t *testing.T) {
	engine := enginetest.New()
	st := newReadyStream(t, engine)

	require.NoError(t, st.StartAudioMixing(context.Background(), domain.AudioMixingOptions{FilePath: "/media/bed.mp3"}))
	require.NoError(t, st.StopAudioMixing())

	_, err := st.GetAudioMixingDuration(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeNotActive))

	err = st.SetAudioMixingPosition(1000)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeNotActive))
}
