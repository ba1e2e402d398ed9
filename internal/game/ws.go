package game

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/codequest-edu/shellquest/internal/analytics"
	"github.com/codequest-edu/shellquest/internal/auth"
	"github.com/codequest-edu/shellquest/pkg/http/ws"
)

// wsUpgrader upgrades live-event connections.
var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// HubStream publishes engine events to the learner's WebSocket, if any.
type HubStream struct {
	hub *ws.Hub
}

var _ EventStream = (*HubStream)(nil)

// NewHubStream bridges the hub into the engine's EventStream port.
func NewHubStream(hub *ws.Hub) *HubStream {
	return &HubStream{hub: hub}
}

// Publish forwards one event; a full queue or absent connection is ignored.
func (s *HubStream) Publish(evt analytics.Event) {
	_ = s.hub.Send(evt.Learner, ws.NewMessage(evt.Type, evt))
}

// WSHandler upgrades /ws/session connections for live gameplay events.
type WSHandler struct {
	hub    *ws.Hub
	tokens *auth.Manager
	logger zerolog.Logger
}

// NewWSHandler constructs the live-event WebSocket handler.
func NewWSHandler(hub *ws.Hub, tokens *auth.Manager, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:    hub,
		tokens: tokens,
		logger: logger.With().Str("component", "game_ws").Logger(),
	}
}

// HandleWebSocket authenticates via the token query parameter (browsers
// cannot set headers on WebSocket dials) and registers the connection.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	claims, err := h.tokens.Validate(r.URL.Query().Get("token"))
	if err != nil || claims.Role != auth.RoleLearner {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	learner := claims.Subject

	sock, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("upgrade failed")
		return
	}

	conn := ws.NewConnection(sock, h.logger)
	h.hub.Register(learner, conn)

	go conn.WritePump()
	go conn.ReadPump(func() {
		h.hub.Unregister(learner)
	})
}
