package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// dialPair upgrades a loopback connection and returns both ends.
func dialPair(t *testing.T) (server, client *websocket.Conn) {
	t.Helper()
	serverCh := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		serverCh <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	server = <-serverCh
	return server, client
}

func TestHubDeliversToRegisteredLearner(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	serverConn, clientConn := dialPair(t)

	conn := NewConnection(serverConn, zerolog.Nop())
	hub.Register("alice", conn)
	go conn.WritePump()

	require.NoError(t, hub.Send("alice", NewMessage("level_started", map[string]int{"level": 1})))

	clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, clientConn.ReadJSON(&msg))
	assert.Equal(t, "level_started", msg.Type)
	assert.False(t, msg.At.IsZero())

	hub.Unregister("alice")
}

func TestHubSendToAbsentLearnerIsNoop(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	assert.NoError(t, hub.Send("nobody", NewMessage("level_started", nil)))
}

func TestConnectionSendAfterClose(t *testing.T) {
	serverConn, _ := dialPair(t)
	conn := NewConnection(serverConn, zerolog.Nop())

	conn.Close()
	assert.ErrorIs(t, conn.Send(NewMessage("x", nil)), ErrConnectionClosed)
	conn.Close() // double close is safe
}

func TestConnectionSendQueueFull(t *testing.T) {
	serverConn, _ := dialPair(t)
	conn := NewConnection(serverConn, zerolog.Nop())
	// No WritePump draining; fill the bounded queue.
	var err error
	for i := 0; i < 65; i++ {
		err = conn.Send(NewMessage("x", nil))
		if err != nil {
			break
		}
	}
	assert.ErrorIs(t, err, ErrSendQueueFull)
}

func TestRegisterReplacesConnection(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	firstServer, _ := dialPair(t)
	secondServer, secondClient := dialPair(t)

	first := NewConnection(firstServer, zerolog.Nop())
	second := NewConnection(secondServer, zerolog.Nop())

	hub.Register("alice", first)
	hub.Register("alice", second)

	assert.ErrorIs(t, first.Send(NewMessage("x", nil)), ErrConnectionClosed, "the replaced connection is closed")

	go second.WritePump()
	require.NoError(t, hub.Send("alice", NewMessage("ping", nil)))

	secondClient.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, secondClient.ReadJSON(&msg))
	assert.Equal(t, "ping", msg.Type)
}
