package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// newConnPair upgrades one websocket connection against an in-process
// server and returns both ends.
func newConnPair(t *testing.T) (server, client *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	serverConns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	server = <-serverConns
	t.Cleanup(func() { server.Close() })
	return server, client
}

// nextFrame pops the next queued outbound frame of a session without
// running its write pump.
func nextFrame(t *testing.T, s *Session) OutboundFrame {
	t.Helper()
	select {
	case frame := <-s.out:
		return frame
	case <-time.After(time.Second):
		t.Fatal("expected a queued frame")
		return OutboundFrame{}
	}
}

// drainFrames discards whatever is currently queued, typically the
// presence broadcasts emitted while wiring the test fixture.
func drainFrames(s *Session) {
	for {
		select {
		case <-s.out:
		default:
			return
		}
	}
}

// noFrame asserts the session's queue stays empty.
func noFrame(t *testing.T, s *Session) {
	t.Helper()
	select {
	case frame := <-s.out:
		t.Fatalf("unexpected frame %q", frame.Event)
	case <-time.After(50 * time.Millisecond):
	}
}
