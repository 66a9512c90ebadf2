package notify

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"streamkit/internal/core/domain"
	"streamkit/pkg/utils"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WebSocketNotifier fans stream events out to connected WebSocket
// clients. A client may filter on one stream via the stream_id query
// parameter; without it the client receives every event.
type WebSocketNotifier struct {
	connections map[string]*client
	mu          sync.RWMutex

	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration

	logger *zap.SugaredLogger
}

type client struct {
	conn     *websocket.Conn
	streamID domain.StreamID // 0 means no filter
	sendMu   sync.Mutex
}

func NewWebSocketNotifier(logger *zap.Logger) *WebSocketNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketNotifier{
		connections:  make(map[string]*client),
		pingInterval: 30 * time.Second,
		readTimeout:  60 * time.Second,
		writeTimeout: 10 * time.Second,
		logger:       logger.Sugar(),
	}
}

// Publish delivers one event to every matching client. Failed writes
// drop the client; the read loop notices on its next deadline.
func (n *WebSocketNotifier) Publish(event domain.Event) {
	n.mu.RLock()
	clients := make(map[string]*client, len(n.connections))
	for id, c := range n.connections {
		clients[id] = c
	}
	n.mu.RUnlock()

	for id, c := range clients {
		if c.streamID != 0 && c.streamID != event.StreamID {
			continue
		}

		c.sendMu.Lock()
		c.conn.SetWriteDeadline(time.Now().Add(n.writeTimeout))
		err := c.conn.WriteJSON(event)
		c.sendMu.Unlock()

		if err != nil {
			n.logger.Infow("dropping event subscriber", "client_id", id, "error", err)
			n.remove(id)
		}
	}
}

// HandleWebSocket upgrades the request and keeps the connection alive
// until the client goes away.
func (n *WebSocketNotifier) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		n.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var streamID domain.StreamID
	if raw := r.URL.Query().Get("stream_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			n.logger.Warnw("invalid stream_id filter", "stream_id", raw)
			return
		}
		streamID = domain.StreamID(id)
	}

	clientID := utils.GenerateRequestID()
	c := &client{conn: conn, streamID: streamID}

	n.mu.Lock()
	n.connections[clientID] = c
	n.mu.Unlock()

	n.logger.Infow("event subscriber connected", "client_id", clientID, "stream_id", streamID)

	conn.SetReadDeadline(time.Now().Add(n.readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(n.readTimeout))
		return nil
	})

	pingTicker := time.NewTicker(n.pingInterval)
	defer pingTicker.Stop()

	errorChan := make(chan error, 1)

	// The feed is one-directional; the reader only services control
	// frames and surfaces disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				errorChan <- err
				return
			}
			conn.SetReadDeadline(time.Now().Add(n.readTimeout))
		}
	}()

	for {
		select {
		case <-pingTicker.C:
			c.sendMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(n.writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.sendMu.Unlock()
			if err != nil {
				n.logger.Infow("error sending ping", "client_id", clientID, "error", err)
				n.remove(clientID)
				return
			}

		case err := <-errorChan:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				n.logger.Infow("error reading from subscriber", "client_id", clientID, "error", err)
			}
			n.remove(clientID)
			n.logger.Infow("event subscriber disconnected", "client_id", clientID)
			return
		}
	}
}

// SubscriberCount reports the number of connected clients.
func (n *WebSocketNotifier) SubscriberCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.connections)
}

func (n *WebSocketNotifier) remove(clientID string) {
	n.mu.Lock()
	delete(n.connections, clientID)
	n.mu.Unlock()
}
