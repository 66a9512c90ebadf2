package pion

import (
	"context"
	"net/http"
	"sync"
	"time"

	"streamkit/internal/core/domain"
	"streamkit/pkg/cache"
	"streamkit/pkg/config"
	apperr "streamkit/pkg/errors"

	"github.com/pion/webrtc/v3"
	"go.uber.org/zap"
)

// EngineConfig configures the pion-backed media engine.
type EngineConfig struct {
	ICEServers []webrtc.ICEServer
	PortRange  struct {
		Min uint16
		Max uint16
	}
	Devices           []domain.MediaDevice
	PermissionGranted bool
	DeviceCacheTTL    time.Duration
}

// ConfigFromApp maps the application configuration onto the engine
// configuration.
func ConfigFromApp(cfg *config.Config) EngineConfig {
	ec := EngineConfig{
		PermissionGranted: cfg.Engine.PermissionGranted,
		DeviceCacheTTL:    cfg.Engine.DeviceCacheTTL,
	}
	ec.PortRange.Min = cfg.Engine.PortRange.Min
	ec.PortRange.Max = cfg.Engine.PortRange.Max

	for _, ice := range cfg.Engine.ICEServers {
		ec.ICEServers = append(ec.ICEServers, webrtc.ICEServer{
			URLs:       ice.URLs,
			Username:   ice.Username,
			Credential: ice.Credential,
		})
	}
	for _, dev := range cfg.Engine.Devices {
		ec.Devices = append(ec.Devices, domain.MediaDevice{
			DeviceID: dev.ID,
			Kind:     domain.DeviceKind(dev.Kind),
			Label:    dev.Label,
		})
	}
	return ec
}

// Engine implements the media engine port on top of pion/webrtc. Each
// stream owns one peer connection; tracks, effects and mixing state hang
// off the per-stream record.
type Engine struct {
	config      EngineConfig
	api         *webrtc.API
	deviceCache *cache.Cache
	logger      *zap.SugaredLogger

	mu      sync.RWMutex
	streams map[domain.StreamID]*engineStream
}

type engineStream struct {
	id   domain.StreamID
	role domain.StreamRole
	pc   *webrtc.PeerConnection

	mu      sync.Mutex
	tracks  map[domain.TrackID]*localTrack
	senders map[domain.TrackID]*webrtc.RTPSender
	sink    func(domain.Event)

	effects map[int]*effectClock
	mixing  *mixingClock

	surfaceID   string
	playOpts    domain.PlayOptions
	renderMuted map[domain.MediaKind]bool

	encoderWidth  int
	encoderHeight int
	encoderFPS    int

	counters streamCounters
	openedAt time.Time
}

// New creates an engine over the given configuration.
func New(cfg EngineConfig, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	settingEngine := webrtc.SettingEngine{}
	if cfg.PortRange.Min > 0 && cfg.PortRange.Max > 0 {
		if err := settingEngine.SetEphemeralUDPPortRange(cfg.PortRange.Min, cfg.PortRange.Max); err != nil {
			return nil, apperr.NewInternalError("invalid UDP port range: " + err.Error())
		}
	}

	ttl := cfg.DeviceCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Engine{
		config:      cfg,
		api:         webrtc.NewAPI(webrtc.WithSettingEngine(settingEngine)),
		deviceCache: cache.New(ttl),
		logger:      logger.Sugar(),
		streams:     make(map[domain.StreamID]*engineStream),
	}, nil
}

// Capabilities reports the optional operations this engine supports.
// Beauty effect and autoplay gesture recovery have no server-side
// counterpart here.
func (e *Engine) Capabilities() domain.CapabilitySet {
	return domain.CapabilitySet{
		TrackMutation: true,
		DeviceSwitch:  true,
		BeautyEffect:  false,
		GestureResume: false,
	}
}

// OpenStream allocates the peer connection and per-stream state.
func (e *Engine) OpenStream(ctx context.Context, id domain.StreamID, role domain.StreamRole) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.streams[id]; exists {
		return apperr.NewConflictError("stream is already open in the engine")
	}

	pc, err := e.api.NewPeerConnection(webrtc.Configuration{
		ICEServers:   e.config.ICEServers,
		SDPSemantics: webrtc.SDPSemanticsUnifiedPlanWithFallback,
	})
	if err != nil {
		return apperr.Wrap(err, apperr.ErrCodeInternal, "failed to create peer connection", http.StatusInternalServerError)
	}

	es := &engineStream{
		id:          id,
		role:        role,
		pc:          pc,
		tracks:      make(map[domain.TrackID]*localTrack),
		senders:     make(map[domain.TrackID]*webrtc.RTPSender),
		effects:     make(map[int]*effectClock),
		renderMuted: make(map[domain.MediaKind]bool),
		openedAt:    time.Now(),
	}

	if role == domain.RoleRemote {
		pc.OnTrack(e.handleRemoteTrack(es))
	}
	pc.OnConnectionStateChange(e.handleConnectionState(es))

	e.streams[id] = es
	e.logger.Infow("engine stream opened", "stream_id", id, "role", role)
	return nil
}

// CloseStream tears the stream down and closes its peer connection.
func (e *Engine) CloseStream(id domain.StreamID) error {
	e.mu.Lock()
	es, exists := e.streams[id]
	if exists {
		delete(e.streams, id)
	}
	e.mu.Unlock()

	if !exists {
		return apperr.NewNotFoundError("engine stream")
	}

	es.mu.Lock()
	for _, track := range es.tracks {
		track.markStopped()
	}
	es.tracks = make(map[domain.TrackID]*localTrack)
	es.senders = make(map[domain.TrackID]*webrtc.RTPSender)
	es.effects = make(map[int]*effectClock)
	es.mixing = nil
	pc := es.pc
	es.mu.Unlock()

	if pc != nil {
		if err := pc.Close(); err != nil {
			e.logger.Warnw("failed to close peer connection", "stream_id", id, "error", err)
		}
	}
	e.logger.Infow("engine stream closed", "stream_id", id)
	return nil
}

// Subscribe registers the per-stream event sink.
func (e *Engine) Subscribe(id domain.StreamID, sink func(domain.Event)) {
	e.mu.RLock()
	es, exists := e.streams[id]
	e.mu.RUnlock()
	if !exists {
		return
	}

	es.mu.Lock()
	es.sink = sink
	es.mu.Unlock()
}

func (e *Engine) stream(id domain.StreamID) (*engineStream, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	es, exists := e.streams[id]
	if !exists {
		return nil, apperr.NewNotFoundError("engine stream")
	}
	return es, nil
}

func (es *engineStream) emit(event domain.Event) {
	es.mu.Lock()
	sink := es.sink
	es.mu.Unlock()
	if sink == nil {
		return
	}
	event.StreamID = es.id
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	sink(event)
}

func (e *Engine) handleConnectionState(es *engineStream) func(webrtc.PeerConnectionState) {
	return func(state webrtc.PeerConnectionState) {
		e.logger.Infow("peer connection state changed",
			"stream_id", es.id,
			"connection_state", state,
		)

		if state == webrtc.PeerConnectionStateFailed || state == webrtc.PeerConnectionStateDisconnected {
			es.emit(domain.Event{
				Type:   domain.EventTrackEnded,
				Detail: "transport " + state.String(),
			})
		}
	}
}
