// Package transport abstracts the byte-level connection to a live-room
// message server: a plain TCP stream or a WebSocket-binary connection. Both
// variants expose the same all-or-fail Send/ReceiveExact contract the
// connection core relies on.
package transport

import (
	"context"

	"github.com/pkg/errors"
)

// ErrTransportClosed is returned by ReceiveExact when the peer has closed
// the connection (EOF on a TCP stream, a close status on a WebSocket).
// Failures after a local Close are reported as IoError.
var ErrTransportClosed = errors.New("transport: closed")

// Transport is the byte-level seam the connection core drives. Send writes
// buf in full or fails; ReceiveExact fills buf in full or fails. Partial
// I/O is never observable by the caller — each variant retries internally
// until the buffer is satisfied, an error occurs, or ctx is done.
type Transport interface {
	// Send writes buf as a single logical unit (one WS binary message, or
	// the raw bytes on a TCP stream).
	Send(ctx context.Context, buf []byte) error

	// ReceiveExact blocks until len(buf) bytes have been read into buf, or
	// returns an error. A short read is never returned to the caller.
	ReceiveExact(ctx context.Context, buf []byte) error

	// Close releases the underlying connection. Safe to call more than
	// once; only the first call has effect.
	Close() error
}

// IoError wraps an underlying I/O failure so callers can distinguish
// transport-level errors from protocol-level ones.
type IoError struct {
	Cause error
}

func (e *IoError) Error() string { return "transport: io error: " + e.Cause.Error() }
func (e *IoError) Unwrap() error { return e.Cause }

// Kind selects which Transport variant a connection uses.
type Kind string

const (
	KindTCP       Kind = "tcp"
	KindWebSocket Kind = "websocket"
)

// Dial opens a Transport of the given kind to host:port (TCP) or the given
// URL (WebSocket), honoring ctx for cancellation/timeout.
func Dial(ctx context.Context, kind Kind, addr string, opts DialOptions) (Transport, error) {
	switch kind {
	case KindTCP:
		return DialTCP(ctx, addr, opts)
	case KindWebSocket:
		return DialWebSocket(ctx, addr, opts)
	default:
		return nil, errors.Errorf("transport: unknown kind %q", kind)
	}
}

// DialOptions carries variant-agnostic dial tuning. Zero value is valid and
// uses each variant's own defaults.
type DialOptions struct {
	// Path names the HTTP path of a WebSocket upgrade. Neither variant reads
	// it: DialWebSocket dials the full URL passed as addr, path included.
	Path string
}
