package transport

import (
	"net/http"

	"github.com/gorilla/websocket"
)

// testRoomServer is a minimal WebSocket server used only by this package's
// tests to stand in for a live-room message server. It accepts exactly one
// connection, upgrades it, and hands the resulting *websocket.Conn to the
// caller so the test can script frames onto the wire.
//
// Adapted from the teacher's transport/websocket.go (which dialed
// gorilla/websocket as a client); gorilla/websocket's Upgrader is reused
// here for the server side instead, since the production dial path moved
// to nhooyr.io/websocket in ws_client.go.
type testRoomServer struct {
	upgrader websocket.Upgrader
	accepted chan *websocket.Conn
}

func newTestRoomServer() *testRoomServer {
	return &testRoomServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		accepted: make(chan *websocket.Conn, 1),
	}
}

func (s *testRoomServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.accepted <- conn
}
