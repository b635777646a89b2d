package feed

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/herbal-board/pkg/logging"
)

func dialHub(t *testing.T, srv *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	return websocket.DefaultDialer.Dial(url, header)
}

func readMessage(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Clients() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHubBroadcastsEvents(t *testing.T) {
	var observed atomic.Int64
	hub := NewHub(logging.New("error"), nil, func(n int) { observed.Store(int64(n)) })
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn, _, err := dialHub(t, srv, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "hello", readMessage(t, conn).Type)
	waitForClients(t, hub, 1)
	assert.Equal(t, int64(1), observed.Load())

	hub.Broadcast(Event{Type: EventUpdate, PatientID: "p-1", Token: "tok"})
	msg := readMessage(t, conn)
	assert.Equal(t, "event", msg.Type)
	require.NotNil(t, msg.Event)
	assert.Equal(t, "p-1", msg.Event.PatientID)
	assert.Equal(t, "tok", msg.Event.Token)
}

func TestHubAnswersPing(t *testing.T) {
	hub := NewHub(logging.New("error"), []string{"*"}, nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn, _, err := dialHub(t, srv, nil)
	require.NoError(t, err)
	defer conn.Close()
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "ping"}))
	assert.Equal(t, "pong", readMessage(t, conn).Type)
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(logging.New("error"), nil, nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, _, err := dialHub(t, srv, nil)
	require.NoError(t, err)
	readMessage(t, conn)
	waitForClients(t, hub, 1)

	require.NoError(t, conn.Close())
	waitForClients(t, hub, 0)
}

func TestHubRejectsUnknownOrigin(t *testing.T) {
	hub := NewHub(logging.New("error"), []string{"https://board.example.com"}, nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := dialHub(t, srv, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://board.example.com")
	conn, _, err := dialHub(t, srv, header)
	require.NoError(t, err)
	conn.Close()
}

func TestHubCloseRefusesNewClients(t *testing.T) {
	hub := NewHub(logging.New("error"), nil, nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, _, err := dialHub(t, srv, nil)
	require.NoError(t, err)
	defer conn.Close()
	readMessage(t, conn)

	hub.Close()
	assert.Equal(t, 0, hub.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
