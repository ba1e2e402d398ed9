// Package ws delivers live gameplay events to connected browsers. The engine
// stays synchronous; the hub is a fan-out with bounded queues that drops
// rather than blocks.
package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Hub tracks one connection per learner.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	logger      zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		logger:      logger.With().Str("component", "ws_hub").Logger(),
	}
}

// Register attaches a connection for a learner, replacing any previous one.
func (h *Hub) Register(learner string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, exists := h.connections[learner]; exists {
		old.Close()
	}
	h.connections[learner] = conn
	h.logger.Info().Str("learner", learner).Msg("connection registered")
}

// Unregister drops the learner's connection.
func (h *Hub) Unregister(learner string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, exists := h.connections[learner]; exists {
		conn.Close()
		delete(h.connections, learner)
	}
}

// Send delivers a message to one learner. A missing connection is not an
// error; the learner simply is not watching live.
func (h *Hub) Send(learner string, msg Message) error {
	h.mu.RLock()
	conn, exists := h.connections[learner]
	h.mu.RUnlock()

	if !exists {
		return nil
	}
	return conn.Send(msg)
}

// Connection wraps a WebSocket with a bounded send queue.
type Connection struct {
	conn   *websocket.Conn
	sendCh chan Message
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewConnection wraps an upgraded WebSocket connection.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	return &Connection{
		conn:   conn,
		sendCh: make(chan Message, 64),
		logger: logger,
	}
}

// Send queues a message, dropping when the queue is full.
func (c *Connection) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.sendCh <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts the connection down.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.sendCh)
	c.conn.Close()
}

// WritePump drains the send queue onto the socket.
func (c *Connection) WritePump() {
	defer c.conn.Close()

	for msg := range c.sendCh {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.logger.Warn().Err(err).Msg("write error")
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ReadPump consumes inbound frames until the peer goes away. The stream is
// one-directional; inbound frames only keep the connection alive.
func (c *Connection) ReadPump(onClose func()) {
	defer func() {
		c.conn.Close()
		if onClose != nil {
			onClose()
		}
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	}
}

var (
	ErrConnectionClosed = &Error{Code: "connection_closed", Message: "Connection is closed"}
	ErrSendQueueFull    = &Error{Code: "send_queue_full", Message: "Send queue is full"}
)

// Error is a ws-level failure with a stable code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
