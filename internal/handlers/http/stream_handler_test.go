package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"streamkit/internal/core/session"
	"streamkit/internal/enginetest"
	"streamkit/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestRouter(t *testing.T, healthFn func(ctx context.Context) error) (*gin.Engine, *enginetest.FakeEngine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := enginetest.New()
	sess := session.New(engine, nil, nil, zaptest.NewLogger(t))
	handler := NewStreamHandler(sess, nil, healthFn)

	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(zaptest.NewLogger(t).Sugar()))
	handler.SetupRoutes(router)
	return router, engine
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func createStream(t *testing.T, router *gin.Engine, spec map[string]interface{}) int {
	t.Helper()
	recorder := doJSON(t, router, http.MethodPost, "/api/v1/streams", spec)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	body := decodeBody(t, recorder)
	streamBody := body["stream"].(map[string]interface{})
	return int(streamBody["id"].(float64))
}

func TestStreamHandler_CreateStream(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/streams", map[string]interface{}{
		"role":  "local",
		"audio": true,
		"video": true,
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	body := decodeBody(t, recorder)
	streamBody := body["stream"].(map[string]interface{})
	assert.Equal(t, float64(1), streamBody["id"])
	assert.Equal(t, "uninitialized", streamBody["state"])
	assert.Equal(t, "music_standard", streamBody["audio_profile"])
}

func TestStreamHandler_CreateStreamRejected(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/streams", map[string]interface{}{
		"role": "broadcast",
	})
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	body := decodeBody(t, recorder)
	assert.Equal(t, "INVALID_ARGUMENT", body["error"])
}

func TestStreamHandler_Lifecycle(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	id := createStream(t, router, map[string]interface{}{"role": "local", "audio": true, "video": true})

	recorder := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/streams/%d/init", id), nil)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	body := decodeBody(t, recorder)
	assert.Equal(t, "ready", body["stream"].(map[string]interface{})["state"])

	// A second init is a state conflict.
	recorder = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/streams/%d/init", id), nil)
	require.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, "INVALID_STATE", decodeBody(t, recorder)["error"])

	recorder = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/streams/%d/play", id), map[string]interface{}{
		"surface_id": "surface-1",
	})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	assert.Equal(t, "playing", decodeBody(t, recorder)["stream"].(map[string]interface{})["state"])

	recorder = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/streams/%d/stop", id), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "stopped", decodeBody(t, recorder)["stream"].(map[string]interface{})["state"])

	recorder = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/streams/%d/close", id), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "closed", decodeBody(t, recorder)["stream"].(map[string]interface{})["state"])
}

func TestStreamHandler_StreamLookup(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	recorder := doJSON(t, router, http.MethodGet, "/api/v1/streams/42", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = doJSON(t, router, http.MethodGet, "/api/v1/streams/abc", nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = doJSON(t, router, http.MethodDelete, "/api/v1/streams/42", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestStreamHandler_RemoveStream(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	id := createStream(t, router, map[string]interface{}{"role": "local", "audio": true})

	recorder := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/streams/%d", id), nil)
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	recorder = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/streams/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestStreamHandler_Mute(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	id := createStream(t, router, map[string]interface{}{"role": "local", "audio": true, "video": true})
	doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/streams/%d/init", id), nil)

	recorder := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/streams/%d/mute", id), map[string]interface{}{
		"kind": "audio",
	})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	streamBody := decodeBody(t, recorder)["stream"].(map[string]interface{})
	assert.Equal(t, false, streamBody["audio_enabled"])
	assert.Equal(t, true, streamBody["video_enabled"])

	recorder = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/streams/%d/unmute", id), map[string]interface{}{
		"kind": "audio",
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	streamBody = decodeBody(t, recorder)["stream"].(map[string]interface{})
	assert.Equal(t, true, streamBody["audio_enabled"])

	recorder = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/streams/%d/mute", id), map[string]interface{}{
		"kind": "subtitles",
	})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestStreamHandler_Effects(t *testing.T) {
	router, engine := newTestRouter(t, nil)
	id := createStream(t, router, map[string]interface{}{"role": "local", "audio": true})
	doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/streams/%d/init", id), nil)

	recorder := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/streams/%d/effects/preload", id), map[string]interface{}{
		"sound_id":  10,
		"file_path": "/media/chime.mp3",
	})
	require.Equal(t, http.StatusNoContent, recorder.Code, recorder.Body.String())

	recorder = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/streams/%d/effects/play", id), map[string]interface{}{
		"sound_id": 10,
		"volume":   70,
	})
	require.Equal(t, http.StatusNoContent, recorder.Code, recorder.Body.String())
	assert.Equal(t, 1, engine.CallCount("PlayEffect"))

	recorder = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/streams/%d/effects/pause", id), map[string]interface{}{
		"sound_id": 10,
	})
	require.Equal(t, http.StatusNoContent, recorder.Code)

	recorder = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/streams/%d/effects", id), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	effects := decodeBody(t, recorder)["effects"].([]interface{})
	require.Len(t, effects, 1)
	entry := effects[0].(map[string]interface{})
	assert.Equal(t, float64(10), entry["sound_id"])
	assert.Equal(t, float64(70), entry["volume"])

	// Operating on a never-loaded sound ID is a state conflict.
	recorder = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/streams/%d/effects/stop", id), map[string]interface{}{
		"sound_id": 99,
	})
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestStreamHandler_Mixing(t *testing.T) {
	router, engine := newTestRouter(t, nil)
	engine.DurationMs = 90_000
	engine.PositionMs = 12_000

	id := createStream(t, router, map[string]interface{}{"role": "local", "audio": true})
	doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/streams/%d/init", id), nil)

	recorder := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/streams/%d/mixing", id), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, false, decodeBody(t, recorder)["active"])

	recorder = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/streams/%d/mixing/start", id), map[string]interface{}{
		"file_path": "/media/bed.mp3",
	})
	require.Equal(t, http.StatusNoContent, recorder.Code, recorder.Body.String())

	// Starting again conflicts.
	recorder = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/streams/%d/mixing/start", id), map[string]interface{}{
		"file_path": "/media/other.mp3",
	})
	require.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, "CONFLICT", decodeBody(t, recorder)["error"])

	recorder = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/streams/%d/mixing", id), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, true, body["active"])
	assert.Equal(t, float64(90_000), body["duration_ms"])
	assert.Equal(t, float64(12_000), body["position_ms"])
}

func TestStreamHandler_StatsAndDevices(t *testing.T) {
	router, engine := newTestRouter(t, nil)
	engine.SessionStats.SendBytes = 5_000

	id := createStream(t, router, map[string]interface{}{"role": "local", "audio": true})
	doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/streams/%d/init", id), nil)

	recorder := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/streams/%d/stats", id), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	stats := decodeBody(t, recorder)["stats"].(map[string]interface{})
	assert.Equal(t, "local", stats["role"])
	assert.NotNil(t, stats["local"])

	recorder = doJSON(t, router, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	assert.NotEmpty(t, body["session_id"])
	assert.Equal(t, float64(5_000), body["stats"].(map[string]interface{})["send_bytes"])

	recorder = doJSON(t, router, http.MethodGet, "/api/v1/devices", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	devices := decodeBody(t, recorder)["devices"].([]interface{})
	assert.Len(t, devices, 2)
}

func TestStreamHandler_Health(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	recorder := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "healthy", decodeBody(t, recorder)["status"])

	failing, _ := newTestRouter(t, func(context.Context) error { return fmt.Errorf("redis gone") })
	recorder = doJSON(t, failing, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.Equal(t, "degraded", decodeBody(t, recorder)["status"])
}
