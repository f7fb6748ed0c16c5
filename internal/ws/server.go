package ws

import (
	"context"
	"net/http"
	"time"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"github.com/sirupsen/logrus"
)

// Events pushed to connected admin clients
const (
	EventConnected      = "connected"
	EventConfigSnapshot = "config:snapshot"
	EventConfigSaved    = "config:saved"

	eventRequestConfig = "request:config"
)

// SnapshotFunc returns the display-safe host configuration
type SnapshotFunc func(ctx context.Context) (interface{}, error)

// Hub owns the Socket.IO server used to push configuration changes
type Hub struct {
	server   *socketio.Server
	snapshot SnapshotFunc
	logger   *logrus.Entry
}

// NewHub creates the Socket.IO server. snapshot answers request:config and may be nil.
func NewHub(snapshot SnapshotFunc, logger *logrus.Entry) *Hub {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	h := &Hub{
		snapshot: snapshot,
		logger:   logger.WithField("component", "websocket"),
	}

	allowAll := func(r *http.Request) bool { return true }
	h.server = socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			&polling.Transport{CheckOrigin: allowAll},
			&websocket.Transport{CheckOrigin: allowAll},
		},
	})

	h.server.OnConnect("/", func(s socketio.Conn) error {
		// Handshake already passed WrapWithAuth
		h.logger.WithField("conn", s.ID()).Info("Client connected")
		s.Emit(EventConnected, map[string]interface{}{"ok": true})
		return nil
	})
	h.server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		h.logger.WithFields(logrus.Fields{"conn": s.ID(), "reason": reason}).Info("Client disconnected")
	})
	h.server.OnError("/", func(s socketio.Conn, e error) {
		entry := h.logger.WithError(e)
		if s != nil {
			entry = entry.WithField("conn", s.ID())
		}
		entry.Warn("Socket error")
	})
	h.server.OnEvent("/", eventRequestConfig, h.handleRequestConfig)

	return h
}

// Start serves the Socket.IO engine in the background
func (h *Hub) Start() {
	go func() {
		if err := h.server.Serve(); err != nil {
			h.logger.WithError(err).Error("Socket.IO server stopped")
		}
	}()
	h.logger.Info("Socket.IO server initialized")
}

// Close stops the Socket.IO server
func (h *Hub) Close() error {
	return h.server.Close()
}

// Handler returns the authenticated HTTP handler for /socket.io/
func (h *Hub) Handler() http.Handler {
	return WrapWithAuth(h.server, h.logger)
}

// NotifyConfigSaved tells every connected client that the host configuration changed
func (h *Hub) NotifyConfigSaved(payload interface{}) {
	h.server.BroadcastToNamespace("/", EventConfigSaved, payload)
	h.logger.Debug("Broadcast config:saved")
}

func (h *Hub) handleRequestConfig(s socketio.Conn) {
	if h.snapshot == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snap, err := h.snapshot(ctx)
	if err != nil {
		h.logger.WithError(err).WithField("conn", s.ID()).Warn("Failed to read config snapshot")
		s.Emit(EventConfigSnapshot, map[string]interface{}{"ok": false})
		return
	}
	s.Emit(EventConfigSnapshot, map[string]interface{}{"ok": true, "data": snap})
}
