// Package danmaku provides a small public surface for reusing this
// repository as a library. The implementation lives in internal/ and may
// change without notice.
package danmaku

import (
	"context"

	"github.com/bililive/danmaku-client/internal/config"
	"github.com/bililive/danmaku-client/internal/connection"
	"github.com/bililive/danmaku-client/internal/dispatch"
	"github.com/bililive/danmaku-client/internal/serverinfo"
)

// --- Config ---

type ClientOptions = config.ClientOptions

// LoadConfig loads a YAML configuration file into a ClientOptions.
func LoadConfig(path string) (*ClientOptions, error) { return config.LoadConfig(path) }

// --- Server-info resolution ---

type Credentials = serverinfo.Credentials

type Provider = serverinfo.Provider

type StaticProvider = serverinfo.StaticProvider

type HTTPProvider = serverinfo.HTTPProvider

// NewHTTPProvider builds a Provider that resolves credentials from an HTTP
// endpoint, sprintf'd with the room id.
func NewHTTPProvider(urlTemplate string) *HTTPProvider { return serverinfo.NewHTTPProvider(urlTemplate) }

// --- Events ---

type Event = dispatch.Event
type Connected = dispatch.Connected
type Disconnected = dispatch.Disconnected
type Popularity = dispatch.Popularity
type RawData = dispatch.RawData

// --- Dispatch fabric ---

type Fabric = dispatch.Fabric

// NewFabric constructs an empty dispatch fabric ready for Subscribe calls.
func NewFabric() *Fabric { return dispatch.NewFabric() }

// Subscribe registers h for events whose concrete type is exactly T.
func Subscribe[T Event](f *Fabric, h func(T)) { dispatch.Subscribe(f, h) }

// SubscribeAny registers h for every event regardless of concrete type.
func SubscribeAny(f *Fabric, h func(Event)) { f.SubscribeAny(h) }

// --- Connection core ---

type State = connection.State

const (
	StateIdle         = connection.StateIdle
	StateConnecting   = connection.StateConnecting
	StateRunning      = connection.StateRunning
	StateShuttingDown = connection.StateShuttingDown
	StateDisposed     = connection.StateDisposed
)

// Client is one room's live-chat connection: connect, observe events
// through its Fabric, and Dispose when done.
type Client struct {
	conn   *connection.Connection
	Fabric *Fabric
}

// NewClient constructs a Client for roomID. Subscribe against Fabric before
// calling Connect so no early event is missed.
func NewClient(roomID int64, opts ClientOptions, provider Provider) *Client {
	fabric := dispatch.NewFabric()
	return &Client{
		conn:   connection.New(roomID, opts, provider, fabric),
		Fabric: fabric,
	}
}

// Connect resolves credentials, dials the transport, joins the room, and
// waits for the connect-ack before returning.
func (c *Client) Connect(ctx context.Context) error { return c.conn.Connect(ctx) }

// Disconnect tears down the current session, if any. Idempotent.
func (c *Client) Disconnect() { c.conn.Disconnect() }

// Dispose permanently retires the client. Idempotent.
func (c *Client) Dispose() { c.conn.Dispose() }

// State reports the client's current lifecycle state.
func (c *Client) State() State { return c.conn.State() }

// Connected reports whether the connect-ack has landed and the session has
// not yet started shutting down.
func (c *Client) Connected() bool { return c.conn.Connected() }
