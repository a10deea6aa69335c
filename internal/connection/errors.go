package connection

import "github.com/pkg/errors"

// Error kinds from spec.md §7. Each is a sentinel so callers can compare
// with errors.Is even after this package wraps it with context.
var (
	ErrInvalidState          = errors.New("connection: invalid state for this operation")
	ErrDisposed              = errors.New("connection: disposed")
	ErrCredentialUnavailable = errors.New("connection: credentials unavailable")
	ErrFrameTooLarge         = errors.New("connection: frame body exceeds maximum size")
	ErrHeartbeatOverrun      = errors.New("connection: heartbeat send exceeded the interval")
	ErrCancelled             = errors.New("connection: cancelled")
	ErrHandshakeTimeout      = errors.New("connection: connect-ack not received before handshake deadline")
)
