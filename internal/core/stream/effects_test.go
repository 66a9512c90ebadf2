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

func vol(v int) *int { return &v }

func TestStream_PreloadEffect(t *testing.T) {
	engine := enginetest.New()
	st := newReadyStream(t, engine)

	require.NoError(t, st.PreloadEffect(context.Background(), 10, "/media/chime.mp3"))

	effect, ok := st.GetEffect(10)
	require.True(t, ok)
	assert.Equal(t, domain.EffectLoaded, effect.State)
	assert.Equal(t, domain.DefaultEffectVolume, effect.Volume)

	// The sound ID must stay unique while loaded.
	err := st.PreloadEffect(context.Background(), 10, "/media/other.mp3")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeConflict))
}

func TestStream_PreloadEffectValidation(t *testing.T) {
	engine := enginetest.New()
	st := newReadyStream(t, engine)

	err := st.PreloadEffect(context.Background(), 0, "/media/chime.mp3")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeInvalidArgument))

	err = st.PreloadEffect(context.Background(), 5, "  ")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeInvalidArgument))
}

func TestStream_PreloadEffectRequiresInit(t *testing.T) {
	engine := enginetest.New()
	st := newLocalStream(t, engine)

	err := st.PreloadEffect(context.Background(), 10, "/media/chime.mp3")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeInvalidState))
}

func TestStream_PreloadEffectLoadFailure(t *testing.T) {
	engine := enginetest.New()
	engine.FailWith("LoadEffect", apperr.NewInternalError("decode failed"))
	st := newReadyStream(t, engine)

	err := st.PreloadEffect(context.Background(), 10, "/media/broken.mp3")
	require.Error(t, err)

	// The failed entry does not linger.
	_, ok := st.GetEffect(10)
	assert.False(t, ok)
	assert.Empty(t, st.GetEffectsVolume())
}

func TestStream_PlayEffectLoadsOnDemand(t *testing.T) {
	engine := enginetest.New()
	st := newReadyStream(t, engine)

	// No file path and never loaded: rejected.
	err := st.PlayEffect(context.Background(), domain.EffectOptions{SoundID: 20})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeInvalidArgument))

	require.NoError(t, st.PlayEffect(context.Background(), domain.EffectOptions{
		SoundID:  20,
		FilePath: "/media/sting.mp3",
		Volume:   vol(80),
	}))

	effect, ok := st.GetEffect(20)
	require.True(t, ok)
	assert.Equal(t, domain.EffectPlaying, effect.State)
	assert.Equal(t, 80, effect.Volume)
	assert.Equal(t, 1, engine.CallCount("LoadEffect"))
	assert.Equal(t, 1, engine.CallCount("PlayEffect"))
}

func TestStream_PlayEffectVolumeDefaults(t *testing.T) {
	engine := enginetest.New()
	st := newReadyStream(t, engine)

	// An omitted volume falls back to the default.
	require.NoError(t, st.PlayEffect(context.Background(), domain.EffectOptions{
		SoundID:  20,
		FilePath: "/media/sting.mp3",
	}))
	effect, ok := st.GetEffect(20)
	require.True(t, ok)
	assert.Equal(t, domain.DefaultEffectVolume, effect.Volume)

	// An explicit zero mutes the effect instead of defaulting.
	require.NoError(t, st.PlayEffect(context.Background(), domain.EffectOptions{
		SoundID:  21,
		FilePath: "/media/quiet.mp3",
		Volume:   vol(0),
	}))
	effect, ok = st.GetEffect(21)
	require.True(t, ok)
	assert.Equal(t, 0, effect.Volume)

	// Out-of-range values are still rejected.
	err := st.PlayEffect(context.Background(), domain.EffectOptions{
		SoundID:  22,
		FilePath: "/media/loud.mp3",
		Volume:   vol(150),
	})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeInvalidArgument))
}

func TestStream_EffectTransitions(t *testing.T) {
	engine := enginetest.New()
	st := newReadyStream(t, engine)

	require.NoError(t, st.PreloadEffect(context.Background(), 10, "/media/chime.mp3"))

	// Pausing a loaded-but-not-playing effect is rejected.
	err := st.PauseEffect(10)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeInvalidState))

	require.NoError(t, st.PlayEffect(context.Background(), domain.EffectOptions{SoundID: 10}))
	require.NoError(t, st.PauseEffect(10))

	effect, _ := st.GetEffect(10)
	assert.Equal(t, domain.EffectPaused, effect.State)

	require.NoError(t, st.ResumeEffect(10))
	effect, _ = st.GetEffect(10)
	assert.Equal(t, domain.EffectPlaying, effect.State)

	require.NoError(t, st.StopEffect(10))
	effect, _ = st.GetEffect(10)
	assert.Equal(t, domain.EffectLoaded, effect.State)

	// A stopped effect stays loaded and can play again.
	require.NoError(t, st.PlayEffect(context.Background(), domain.EffectOptions{SoundID: 10}))

	require.NoError(t, st.StopEffect(10))
	require.NoError(t, st.UnloadEffect(10))
	_, ok := st.GetEffect(10)
	assert.False(t, ok)

	err = st.PauseEffect(10)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeInvalidState))
}

func TestStream_EffectVolumes(t *testing.T) {
	engine := enginetest.New()
	st := newReadyStream(t, engine)

	require.NoError(t, st.PreloadEffect(context.Background(), 30, "/media/a.mp3"))
	require.NoError(t, st.PreloadEffect(context.Background(), 10, "/media/b.mp3"))
	require.NoError(t, st.SetVolumeOfEffect(30, 55))

	err := st.SetVolumeOfEffect(30, 150)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeInvalidArgument))

	// Snapshot keeps insertion order.
	volumes := st.GetEffectsVolume()
	require.Len(t, volumes, 2)
	assert.Equal(t, domain.EffectVolume{SoundID: 30, Volume: 55}, volumes[0])
	assert.Equal(t, domain.EffectVolume{SoundID: 10, Volume: domain.DefaultEffectVolume}, volumes[1])
}

func TestStream_BatchEffectOperations(t *testing.T) {
	engine := enginetest.New()
	st := newReadyStream(t, engine)

	require.NoError(t, st.PlayEffect(context.Background(), domain.EffectOptions{SoundID: 1, FilePath: "/media/a.mp3"}))
	require.NoError(t, st.PlayEffect(context.Background(), domain.EffectOptions{SoundID: 2, FilePath: "/media/b.mp3"}))
	require.NoError(t, st.PreloadEffect(context.Background(), 3, "/media/c.mp3"))

	require.NoError(t, st.PauseAllEffects())
	for _, soundID := range []int{1, 2} {
		effect, _ := st.GetEffect(soundID)
		assert.Equal(t, domain.EffectPaused, effect.State)
	}
	// The merely loaded effect is untouched.
	effect, _ := st.GetEffect(3)
	assert.Equal(t, domain.EffectLoaded, effect.State)

	require.NoError(t, st.ResumeAllEffects())
	effect, _ = st.GetEffect(1)
	assert.Equal(t, domain.EffectPlaying, effect.State)

	require.NoError(t, st.StopAllEffects())
	for _, soundID := range []int{1, 2} {
		effect, _ := st.GetEffect(soundID)
		assert.Equal(t, domain.EffectLoaded, effect.State)
	}
}

func TestStream_BatchEffectsReportFirstError(t *testing.T) {
	engine := enginetest.New()
	st := newReadyStream(t, engine)

	require.NoError(t, st.PlayEffect(context.Background(), domain.EffectOptions{SoundID: 1, FilePath: "/media/a.mp3"}))
	require.NoError(t, st.PlayEffect(context.Background(), domain.EffectOptions{SoundID: 2, FilePath: "/media/b.mp3"}))

	engine.FailWith("PauseEffect", apperr.NewInternalError("player wedged"))
	err := st.PauseAllEffects()
	require.Error(t, err)

	// The batch visited both entries despite the failures.
	assert.Equal(t, 2, engine.CallCount("PauseEffect"))
}
