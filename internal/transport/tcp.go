package transport

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// TCPTransport streams frames directly over a raw TCP connection.
// Generalizes the teacher's transport.TCPDialer/net.Dialer pair into a
// full Send/ReceiveExact adapter.
type TCPTransport struct {
	conn net.Conn

	writeMu sync.Mutex
	closed  bool
	closeMu sync.Mutex
}

// DialTCP opens a TCP connection to addr (host:port).
func DialTCP(ctx context.Context, addr string, _ DialOptions) (*TCPTransport, error) {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &IoError{Cause: err}
	}
	return &TCPTransport{conn: conn}, nil
}

func (t *TCPTransport) Send(ctx context.Context, buf []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if dl, ok := ctx.Deadline(); ok {
		_ = t.conn.SetWriteDeadline(dl)
	} else {
		_ = t.conn.SetWriteDeadline(time.Time{})
	}

	_, err := t.conn.Write(buf)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &IoError{Cause: err}
	}
	return nil
}

func (t *TCPTransport) ReceiveExact(ctx context.Context, buf []byte) error {
	if dl, ok := ctx.Deadline(); ok {
		_ = t.conn.SetReadDeadline(dl)
	} else {
		_ = t.conn.SetReadDeadline(time.Time{})
	}

	_, err := io.ReadFull(t.conn, buf)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrTransportClosed
		}
		return &IoError{Cause: err}
	}
	return nil
}

func (t *TCPTransport) Close() error {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.conn.Close()
}
