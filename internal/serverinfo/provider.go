// Package serverinfo resolves the endpoint and authentication token the
// connection core needs to join a room. The connection core treats this as
// opaque; only the Resolve call matters.
package serverinfo

import (
	"context"

	"github.com/pkg/errors"
)

// ErrCredentialUnavailable is returned when a provider cannot produce
// credentials for a room (network failure, bad response, auth rejection).
var ErrCredentialUnavailable = errors.New("serverinfo: credentials unavailable")

// Credentials is the {host, port, token} tuple the connection core needs to
// dial a transport and send the join frame.
type Credentials struct {
	Host  string
	Port  int
	Token string
	UID   int64
}

// Provider produces Credentials for a room. Implementations may hit a
// network endpoint, a local cache, or a fixed value (see StaticProvider).
type Provider interface {
	Resolve(ctx context.Context, roomID int64) (Credentials, error)
}

// StaticProvider always returns the same Credentials, regardless of
// roomID. Useful for tests and for callers who already hold a token.
type StaticProvider struct {
	Credentials Credentials
}

func (p StaticProvider) Resolve(context.Context, int64) (Credentials, error) {
	return p.Credentials, nil
}
