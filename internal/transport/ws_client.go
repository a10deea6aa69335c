package transport

import (
	"context"
	"sync"

	"nhooyr.io/websocket"
)

// WSTransport frames each Send as one WebSocket binary message and, on
// read, accumulates one binary message into an internal buffer from which
// ReceiveExact draws — generalizing the teacher's ws_coder.go/
// ws_packet_conn.go pair (binary-message-only reads, mutex-guarded writes)
// onto nhooyr.io/websocket, the library the teacher actually dials at
// scale (internal/lb.go, internal/outline_dial.go).
type WSTransport struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	readMu  sync.Mutex
	pending []byte // unread tail of the most recent binary message

	closeMu sync.Mutex
	closed  bool
}

// DialWebSocket upgrades an HTTP connection to rawURL and returns a
// Transport that frames each packet as one binary message.
func DialWebSocket(ctx context.Context, rawURL string, _ DialOptions) (*WSTransport, error) {
	conn, _, err := websocket.Dial(ctx, rawURL, nil)
	if err != nil {
		return nil, &IoError{Cause: err}
	}
	conn.SetReadLimit(-1)
	return &WSTransport{conn: conn}, nil
}

// NewWSTransport wraps an already-established *websocket.Conn, letting
// callers (and tests) supply their own dial/upgrade path.
func NewWSTransport(conn *websocket.Conn) *WSTransport {
	conn.SetReadLimit(-1)
	return &WSTransport{conn: conn}
}

func (t *WSTransport) Send(ctx context.Context, buf []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := t.conn.Write(ctx, websocket.MessageBinary, buf); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &IoError{Cause: err}
	}
	return nil
}

func (t *WSTransport) ReceiveExact(ctx context.Context, buf []byte) error {
	t.readMu.Lock()
	defer t.readMu.Unlock()

	need := len(buf)
	filled := 0
	for filled < need {
		if len(t.pending) == 0 {
			msgType, data, err := t.conn.Read(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if websocket.CloseStatus(err) != -1 {
					return ErrTransportClosed
				}
				return &IoError{Cause: err}
			}
			if msgType != websocket.MessageBinary {
				continue // skip non-binary frames, per spec.md §4.2
			}
			t.pending = data
		}

		n := copy(buf[filled:], t.pending)
		t.pending = t.pending[n:]
		filled += n
	}
	return nil
}

func (t *WSTransport) Close() error {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.conn.Close(websocket.StatusNormalClosure, "close")
}
