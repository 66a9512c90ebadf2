package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"streamkit/internal/core/domain"
	"streamkit/internal/core/session"
	"streamkit/internal/core/stream"
	"streamkit/internal/infrastructure/notify"

	"github.com/gin-gonic/gin"
)

var streamEventTypes = []domain.EventType{
	domain.EventAccessAllowed,
	domain.EventAccessDenied,
	domain.EventTrackEnded,
	domain.EventDeviceChanged,
	domain.EventPlayerStateChanged,
	domain.EventAutoplayBlocked,
	domain.EventScreenSharingStopped,
}

type StreamHandler struct {
	session  *session.Session
	notifier *notify.WebSocketNotifier
	healthFn func(ctx context.Context) error
}

func NewStreamHandler(sess *session.Session, notifier *notify.WebSocketNotifier, healthFn func(ctx context.Context) error) *StreamHandler {
	return &StreamHandler{
		session:  sess,
		notifier: notifier,
		healthFn: healthFn,
	}
}

func (h *StreamHandler) SetupRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)
	if h.notifier != nil {
		router.GET("/ws/events", gin.WrapF(h.notifier.HandleWebSocket))
	}

	api := router.Group("/api/v1")
	{
		api.POST("/streams", h.CreateStream)
		api.GET("/streams", h.ListStreams)
		api.GET("/streams/:id", h.GetStream)
		api.DELETE("/streams/:id", h.RemoveStream)

		api.POST("/streams/:id/init", h.InitStream)
		api.POST("/streams/:id/play", h.PlayStream)
		api.POST("/streams/:id/stop", h.StopStream)
		api.POST("/streams/:id/close", h.CloseStream)
		api.POST("/streams/:id/resume", h.ResumeStream)
		api.POST("/streams/:id/mute", h.Mute)
		api.POST("/streams/:id/unmute", h.Unmute)
		api.POST("/streams/:id/switch-device", h.SwitchDevice)

		api.POST("/streams/:id/profiles", h.SetProfiles)
		api.POST("/streams/:id/encoder-config", h.SetEncoderConfig)
		api.POST("/streams/:id/beauty", h.SetBeautyEffect)

		api.POST("/streams/:id/effects/preload", h.PreloadEffect)
		api.POST("/streams/:id/effects/play", h.PlayEffect)
		api.POST("/streams/:id/effects/pause", h.PauseEffect)
		api.POST("/streams/:id/effects/resume", h.ResumeEffect)
		api.POST("/streams/:id/effects/stop", h.StopEffect)
		api.POST("/streams/:id/effects/unload", h.UnloadEffect)
		api.POST("/streams/:id/effects/volume", h.SetEffectVolume)
		api.POST("/streams/:id/effects/pause-all", h.PauseAllEffects)
		api.POST("/streams/:id/effects/resume-all", h.ResumeAllEffects)
		api.POST("/streams/:id/effects/stop-all", h.StopAllEffects)
		api.GET("/streams/:id/effects", h.GetEffectsVolume)

		api.POST("/streams/:id/mixing/start", h.StartMixing)
		api.POST("/streams/:id/mixing/pause", h.PauseMixing)
		api.POST("/streams/:id/mixing/resume", h.ResumeMixing)
		api.POST("/streams/:id/mixing/stop", h.StopMixing)
		api.POST("/streams/:id/mixing/position", h.SetMixingPosition)
		api.POST("/streams/:id/mixing/volume", h.SetMixingVolume)
		api.GET("/streams/:id/mixing", h.GetMixing)

		api.GET("/streams/:id/stats", h.GetStreamStats)
		api.GET("/stats", h.GetSessionStats)
		api.GET("/devices", h.ListDevices)
	}
}

// streamSnapshot is the wire representation of a stream's control state.
type streamSnapshot struct {
	ID            domain.StreamID      `json:"id"`
	State         string               `json:"state"`
	Spec          domain.StreamSpec    `json:"spec"`
	AudioEnabled  bool                 `json:"audio_enabled"`
	VideoEnabled  bool                 `json:"video_enabled"`
	AudioProfile  domain.AudioProfile  `json:"audio_profile"`
	VideoProfile  domain.VideoProfile  `json:"video_profile"`
	ScreenProfile domain.ScreenProfile `json:"screen_profile"`
	BeautyEnabled bool                 `json:"beauty_enabled"`
	Capabilities  domain.CapabilitySet `json:"capabilities"`
}

func snapshotOf(st *stream.Stream) streamSnapshot {
	return streamSnapshot{
		ID:            st.ID(),
		State:         st.State().String(),
		Spec:          st.Spec(),
		AudioEnabled:  st.AudioEnabled(),
		VideoEnabled:  st.VideoEnabled(),
		AudioProfile:  st.AudioProfile(),
		VideoProfile:  st.VideoProfile(),
		ScreenProfile: st.ScreenProfile(),
		BeautyEnabled: st.BeautyEffectEnabled(),
		Capabilities:  st.Capabilities(),
	}
}

func (h *StreamHandler) CreateStream(c *gin.Context) {
	var spec domain.StreamSpec
	if err := c.BindJSON(&spec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := h.session.CreateStream(spec)
	if err != nil {
		c.Error(err)
		return
	}

	// Fan stream events out to the WebSocket feed.
	if h.notifier != nil {
		for _, eventType := range streamEventTypes {
			st.On(eventType, h.notifier.Publish)
		}
	}

	c.JSON(http.StatusCreated, gin.H{"stream": snapshotOf(st)})
}

func (h *StreamHandler) ListStreams(c *gin.Context) {
	streams := h.session.ListStreams()
	snapshots := make([]streamSnapshot, 0, len(streams))
	for _, st := range streams {
		snapshots = append(snapshots, snapshotOf(st))
	}
	c.JSON(http.StatusOK, gin.H{"streams": snapshots})
}

func (h *StreamHandler) GetStream(c *gin.Context) {
	st, ok := h.lookupStream(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"stream": snapshotOf(st)})
}

func (h *StreamHandler) RemoveStream(c *gin.Context) {
	id, ok := streamIDParam(c)
	if !ok {
		return
	}
	if err := h.session.CloseStream(id); err != nil {
		if err == domain.ErrStreamNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Stream not found"})
			return
		}
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StreamHandler) InitStream(c *gin.Context) {
	st, ok := h.lookupStream(c)
	if !ok {
		return
	}
	if err := st.Init(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stream": snapshotOf(st)})
}

func (h *StreamHandler) PlayStream(c *gin.Context) {
	st, ok := h.lookupStream(c)
	if !ok {
		return
	}

	var req struct {
		SurfaceID string             `json:"surface_id" binding:"required"`
		Options   domain.PlayOptions `json:"options"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := st.Play(req.SurfaceID, req.Options); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stream": snapshotOf(st)})
}

func (h *StreamHandler) StopStream(c *gin.Context) {
	st, ok := h.lookupStream(c)
	if !ok {
		return
	}
	if err := st.Stop(); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stream": snapshotOf(st)})
}

func (h *StreamHandler) CloseStream(c *gin.Context) {
	st, ok := h.lookupStream(c)
	if !ok {
		return
	}
	if err := st.Close(); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stream": snapshotOf(st)})
}

func (h *StreamHandler) ResumeStream(c *gin.Context) {
	st, ok := h.lookupStream(c)
	if !ok {
		return
	}
	if err := st.Resume(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stream": snapshotOf(st)})
}

func (h *StreamHandler) Mute(c *gin.Context) {
	h.toggleMedia(c, true)
}

func (h *StreamHandler) Unmute(c *gin.Context) {
	h.toggleMedia(c, false)
}

func (h *StreamHandler) toggleMedia(c *gin.Context, mute bool) {
	st, ok := h.lookupStream(c)
	if !ok {
		return
	}

	var req struct {
		Kind domain.MediaKind `json:"kind" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var err error
	switch req.Kind {
	case domain.MediaKindAudio:
		if mute {
			err = st.MuteAudio()
		} else {
			err = st.UnmuteAudio()
		}
	case domain.MediaKindVideo:
		if mute {
			err = st.MuteVideo()
		} else {
			err = st.UnmuteVideo()
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be audio or video"})
		return
	}

	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stream": snapshotOf(st)})
}

func (h *StreamHandler) SwitchDevice(c *gin.Context) {
	st, ok := h.lookupStream(c)
	if !ok {
		return
	}

	var req struct {
		Kind     domain.MediaKind `json:"kind" binding:"required"`
		DeviceID string           `json:"device_id" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := st.SwitchDevice(c.Request.Context(), req.Kind, req.DeviceID); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stream": snapshotOf(st)})
}

func (h *StreamHandler) SetProfiles(c *gin.Context) {
	st, ok := h.lookupStream(c)
	if !ok {
		return
	}

	var req struct {
		Audio  domain.AudioProfile  `json:"audio,omitempty"`
		Video  domain.VideoProfile  `json:"video,omitempty"`
		Screen domain.ScreenProfile `json:"screen,omitempty"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Audio != "" {
		if err := st.SetAudioProfile(req.Audio); err != nil {
			c.Error(err)
			return
		}
	}
	if req.Video != "" {
		if err := st.SetVideoProfile(req.Video); err != nil {
			c.Error(err)
			return
		}
	}
	if req.Screen != "" {
		if err := st.SetScreenProfile(req.Screen); err != nil {
			c.Error(err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"stream": snapshotOf(st)})
}

func (h *StreamHandler) SetEncoderConfig(c *gin.Context) {
	st, ok := h.lookupStream(c)
	if !ok {
		return
	}

	var cfg domain.VideoEncoderConfig
	if err := c.BindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := st.SetVideoEncoderConfiguration(c.Request.Context(), cfg); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stream": snapshotOf(st)})
}

func (h *StreamHandler) SetBeautyEffect(c *gin.Context) {
	st, ok := h.lookupStream(c)
	if !ok {
		return
	}

	var req struct {
		Enabled bool                        `json:"enabled"`
		Options *domain.BeautyEffectOptions `json:"options,omitempty"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := domain.DefaultBeautyEffectOptions()
	if req.Options != nil {
		opts = *req.Options
	}

	if err := st.SetBeautyEffectOptions(c.Request.Context(), req.Enabled, opts); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stream": snapshotOf(st)})
}

func (h *StreamHandler) PreloadEffect(c *gin.Context) {
	st, ok := h.lookupStream(c)
	if !ok {
		return
	}

	var req struct {
		SoundID  int    `json:"sound_id" binding:"required"`
		FilePath string `json:"file_path" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := st.PreloadEffect(c.Request.Context(), req.SoundID, req.FilePath); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StreamHandler) PlayEffect(c *gin.Context) {
	st, ok := h.lookupStream(c)
	if !ok {
		return
	}

	var opts domain.EffectOptions
	if err := c.BindJSON(&opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := st.PlayEffect(c.Request.Context(), opts); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StreamHandler) PauseEffect(c *gin.Context) { h.effectOp(c, (*stream.Stream).PauseEffect) }

func (h *StreamHandler) ResumeEffect(c *gin.Context) { h.effectOp(c, (*stream.Stream).ResumeEffect) }

func (h *StreamHandler) StopEffect(c *gin.Context) { h.effectOp(c, (*stream.Stream).StopEffect) }

func (h *StreamHandler) UnloadEffect(c *gin.Context) { h.effectOp(c, (*stream.Stream).UnloadEffect) }

func (h *StreamHandler) effectOp(c *gin.Context, op func(*stream.Stream, int) error) {
	st, ok := h.lookupStream(c)
	if !ok {
		return
	}

	var req struct {
		SoundID int `json:"sound_id" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := op(st, req.SoundID); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StreamHandler) SetEffectVolume(c *gin.Context) {
	st, ok := h.lookupStream(c)
	if !ok {
		return
	}

	var req struct {
		SoundID int `json:"sound_id" binding:"required"`
		Volume  int `json:"volume"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := st.SetVolumeOfEffect(req.SoundID, req.Volume); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StreamHandler) GetEffectsVolume(c *gin.Context) {
	st, ok := h.lookupStream(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"effects": st.GetEffectsVolume()})
}

func (h *StreamHandler) PauseAllEffects(c *gin.Context) {
	h.allEffectsOp(c, (*stream.Stream).PauseAllEffects)
}

func (h *StreamHandler) ResumeAllEffects(c *gin.Context) {
	h.allEffectsOp(c, (*stream.Stream).ResumeAllEffects)
}

func (h *StreamHandler) StopAllEffects(c *gin.Context) {
	h.allEffectsOp(c, (*stream.Stream).StopAllEffects)
}

func (h *StreamHandler) allEffectsOp(c *gin.Context, op func(*stream.Stream) error) {
	st, ok := h.lookupStream(c)
	if !ok {
		return
	}
	if err := op(st); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StreamHandler) StartMixing(c *gin.Context) {
	st, ok := h.lookupStream(c)
	if !ok {
		return
	}

	var opts domain.AudioMixingOptions
	if err := c.BindJSON(&opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := st.StartAudioMixing(c.Request.Context(), opts); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StreamHandler) PauseMixing(c *gin.Context) { h.mixingOp(c, (*stream.Stream).PauseAudioMixing) }

func (h *StreamHandler) ResumeMixing(c *gin.Context) {
	h.mixingOp(c, (*stream.Stream).ResumeAudioMixing)
}

func (h *StreamHandler) StopMixing(c *gin.Context) { h.mixingOp(c, (*stream.Stream).StopAudioMixing) }

func (h *StreamHandler) mixingOp(c *gin.Context, op func(*stream.Stream) error) {
	st, ok := h.lookupStream(c)
	if !ok {
		return
	}
	if err := op(st); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StreamHandler) SetMixingPosition(c *gin.Context) {
	st, ok := h.lookupStream(c)
	if !ok {
		return
	}

	var req struct {
		PositionMs int `json:"position_ms"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := st.SetAudioMixingPosition(req.PositionMs); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StreamHandler) SetMixingVolume(c *gin.Context) {
	st, ok := h.lookupStream(c)
	if !ok {
		return
	}

	var req struct {
		Volume int `json:"volume"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := st.SetAudioMixingVolume(req.Volume); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StreamHandler) GetMixing(c *gin.Context) {
	st, ok := h.lookupStream(c)
	if !ok {
		return
	}

	mixing, active := st.GetAudioMixing()
	if !active {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}

	response := gin.H{"active": true, "mixing": mixing}
	if duration, err := st.GetAudioMixingDuration(c.Request.Context()); err == nil {
		response["duration_ms"] = duration
	}
	if position, err := st.GetAudioMixingPosition(); err == nil {
		response["position_ms"] = position
	}
	c.JSON(http.StatusOK, response)
}

func (h *StreamHandler) GetStreamStats(c *gin.Context) {
	st, ok := h.lookupStream(c)
	if !ok {
		return
	}
	stats, err := st.GetStats(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *StreamHandler) GetSessionStats(c *gin.Context) {
	stats, err := h.session.Stats(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": h.session.ID(), "stats": stats})
}

func (h *StreamHandler) ListDevices(c *gin.Context) {
	devices, err := h.session.ListDevices(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices})
}

func (h *StreamHandler) Health(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK

	if h.healthFn != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.healthFn(ctx); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"streams":   len(h.session.ListStreams()),
	})
}

func (h *StreamHandler) lookupStream(c *gin.Context) (*stream.Stream, bool) {
	id, ok := streamIDParam(c)
	if !ok {
		return nil, false
	}
	st, err := h.session.GetStream(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stream not found"})
		return nil, false
	}
	return st, true
}

func streamIDParam(c *gin.Context) (domain.StreamID, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stream id must be a positive integer"})
		return 0, false
	}
	return domain.StreamID(id), true
}

