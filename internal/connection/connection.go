// Package connection implements the lifecycle state machine that owns a
// single room's transport, drives the receive and heartbeat loops, and
// hands decoded events to the dispatch fabric (spec.md §4.4, C4). It is
// modeled on momentics-hioload-ws's protocol.Connection (atomic close flag
// guarding a single teardown) and SagerNet-smux's Session (CAS-guarded
// keepalive loop racing the session's own shutdown).
package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/bililive/danmaku-client/internal/classify"
	"github.com/bililive/danmaku-client/internal/config"
	"github.com/bililive/danmaku-client/internal/dispatch"
	"github.com/bililive/danmaku-client/internal/protocol"
	"github.com/bililive/danmaku-client/internal/serverinfo"
	"github.com/bililive/danmaku-client/internal/transport"
)

// DialFunc opens a Transport. Production code uses transport.Dial; tests
// substitute an in-memory fake.
type DialFunc func(ctx context.Context, kind transport.Kind, addr string, opts transport.DialOptions) (transport.Transport, error)

// cancelSlot is the CAS payload installed while a connect/run cycle owns
// the worker goroutines. Swapping it out (via atomic.Pointer.Swap) is the
// single idempotent "only the first caller tears down" gate disconnect and
// dispose share.
type cancelSlot struct {
	cancel context.CancelFunc
}

// Connection is one room's client-side session. The zero value is not
// usable; construct with New.
type Connection struct {
	roomID   int64
	opts     config.ClientOptions
	provider serverinfo.Provider
	fabric   *dispatch.Fabric
	dial     DialFunc

	state     atomic.Int32
	connected atomic.Bool
	disposed  atomic.Bool

	worker    atomic.Pointer[cancelSlot]
	transport atomic.Pointer[transportHolder]

	lifetimeCtx       context.Context
	lifetimeCancel    context.CancelFunc
	lifetimeCancelled atomic.Bool
}

type transportHolder struct {
	t transport.Transport
}

// New constructs a Connection for roomID using the given options, a
// credential provider, and the fabric the caller will Subscribe against
// before calling Connect.
func New(roomID int64, opts config.ClientOptions, provider serverinfo.Provider, fabric *dispatch.Fabric) *Connection {
	return newConnection(roomID, opts, provider, fabric, transport.Dial)
}

func newConnection(roomID int64, opts config.ClientOptions, provider serverinfo.Provider, fabric *dispatch.Fabric, dial DialFunc) *Connection {
	c := &Connection{
		roomID:   roomID,
		opts:     opts,
		provider: provider,
		fabric:   fabric,
		dial:     dial,
	}
	c.state.Store(int32(StateIdle))
	c.lifetimeCtx, c.lifetimeCancel = context.WithCancel(context.Background())
	return c
}

// State reports the connection's current lifecycle state.
func (c *Connection) State() State { return State(c.state.Load()) }

// Connected reports whether the connect-ack has landed and the connection
// has not yet started shutting down.
func (c *Connection) Connected() bool { return c.connected.Load() }

// RoomID returns the room this connection was constructed for.
func (c *Connection) RoomID() int64 { return c.roomID }

// Connect resolves credentials, dials a transport, sends the join frame,
// and waits for the connect-ack (bounded by HandshakeDeadline, when
// non-zero) before starting the heartbeat loop. It fails with ErrDisposed
// once Dispose has run, and with ErrInvalidState if a connect/run cycle is
// already in progress.
func (c *Connection) Connect(ctx context.Context) error {
	if c.disposed.Load() {
		return ErrDisposed
	}
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateConnecting)) {
		return ErrInvalidState
	}

	workerCtx, workerCancel := context.WithCancel(ctx)
	slot := &cancelSlot{cancel: workerCancel}
	if !c.worker.CompareAndSwap(nil, slot) {
		workerCancel()
		c.state.Store(int32(StateIdle))
		return ErrInvalidState
	}
	// Bridge the connection's lifetime cancellation into this cycle's
	// worker token, giving the two-level token tree spec.md §4.2 describes:
	// dispose() must be able to tear down a cycle it did not start.
	go func() {
		select {
		case <-c.lifetimeCtx.Done():
			workerCancel()
		case <-workerCtx.Done():
		}
	}()

	tr, deadline, err := c.handshake(workerCtx)
	if err != nil {
		c.worker.Store(nil)
		workerCancel()
		c.state.Store(int32(StateIdle))
		return err
	}
	c.transport.Store(&transportHolder{t: tr})

	ackCh := make(chan error, 1)
	go c.receiveLoop(workerCtx, tr, ackCh)

	if deadline != nil {
		select {
		case err := <-ackCh:
			deadline.Stop()
			if err != nil {
				c.disconnect(err)
				return err
			}
		case <-deadline.C:
			c.disconnect(ErrHandshakeTimeout)
			return ErrHandshakeTimeout
		case <-ctx.Done():
			deadline.Stop()
			c.disconnect(nil)
			return ErrCancelled
		}
	} else {
		select {
		case err := <-ackCh:
			if err != nil {
				c.disconnect(err)
				return err
			}
		case <-ctx.Done():
			c.disconnect(nil)
			return ErrCancelled
		}
	}

	c.connected.Store(true)
	c.state.Store(int32(StateRunning))
	go c.heartbeatLoop(workerCtx, tr)
	return nil
}

// handshake resolves credentials, dials the transport, and sends the join
// frame. It returns an optional handshake-deadline timer the caller must
// race against the connect-ack.
func (c *Connection) handshake(ctx context.Context) (transport.Transport, *time.Timer, error) {
	creds, err := c.provider.Resolve(ctx, c.roomID)
	if err != nil {
		return nil, nil, errors.Wrap(ErrCredentialUnavailable, err.Error())
	}

	kind := transport.KindWebSocket
	addr := fmt.Sprintf("ws://%s:%d/sub", creds.Host, creds.Port)
	if c.opts.Transport == "tcp" {
		kind = transport.KindTCP
		addr = fmt.Sprintf("%s:%d", creds.Host, creds.Port)
	}

	dialCtx := ctx
	var cancel context.CancelFunc
	if c.opts.DialTimeout > 0 {
		dialCtx, cancel = context.WithTimeout(ctx, c.opts.DialTimeout)
		defer cancel()
	}

	tr, err := c.dial(dialCtx, kind, addr, transport.DialOptions{Path: "/sub"})
	if err != nil {
		return nil, nil, err
	}

	join := protocol.NewJoinRoom(creds.UID, c.roomID, int(c.opts.ProtocolVersion), creds.Token)
	body, err := json.Marshal(join)
	if err != nil {
		_ = tr.Close()
		return nil, nil, errors.Wrap(err, "connection: marshal join frame")
	}
	frame := protocol.EncodeWithBody(protocol.ActionJoinRoom, c.opts.ProtocolVersion, body)
	if err := tr.Send(ctx, frame); err != nil {
		_ = tr.Close()
		return nil, nil, err
	}

	var deadline *time.Timer
	if c.opts.HandshakeDeadline > 0 {
		deadline = time.NewTimer(c.opts.HandshakeDeadline)
	}
	return tr, deadline, nil
}

// Disconnect tears down the current connect/run cycle, if one is active,
// and emits a Disconnected event. It is idempotent: a second call (or a
// call on an already-idle connection) is a no-op.
func (c *Connection) Disconnect() {
	c.disconnect(nil)
}

func (c *Connection) disconnect(triggerErr error) {
	slot := c.worker.Swap(nil)
	if slot == nil {
		return
	}
	c.state.Store(int32(StateShuttingDown))
	slot.cancel()

	if th := c.transport.Swap(nil); th != nil {
		_ = th.t.Close()
	}
	c.connected.Store(false)

	if !c.disposed.Load() {
		c.state.Store(int32(StateIdle))
	}
	c.fabric.Dispatch(dispatch.Disconnected{Err: triggerErr, At: time.Now()})
}

// Dispose permanently retires the connection: it disconnects if running
// and cancels the connection's own lifetime token, after which Connect
// always fails with ErrDisposed. Safe to call more than once.
func (c *Connection) Dispose() {
	c.disposed.Store(true)
	c.disconnect(nil)
	if c.lifetimeCancelled.CompareAndSwap(false, true) {
		c.lifetimeCancel()
	}
	c.state.Store(int32(StateDisposed))
}

// receiveLoop owns the header/body read cycle: it reuses its buffers
// across frames, intercepts the connect-ack before anything reaches the
// classifier, enforces the frame-too-large ceiling (via protocol.DecodeHeader),
// and classifies+dispatches every other frame.
func (c *Connection) receiveLoop(ctx context.Context, tr transport.Transport, ackCh chan<- error) {
	var headerBuf [protocol.HeaderSize]byte
	bodyBuf := make([]byte, 4096)
	ackSent := false

	completeAck := func(err error) {
		if ackSent {
			return
		}
		ackSent = true
		if err != nil && ctx.Err() != nil {
			err = ErrCancelled
		}
		ackCh <- err
	}

	for {
		if ctx.Err() != nil {
			c.disconnect(nil)
			completeAck(ErrCancelled)
			return
		}

		if err := tr.ReceiveExact(ctx, headerBuf[:]); err != nil {
			c.disconnect(classifyLoopErr(ctx, err))
			completeAck(err)
			return
		}

		hdr, err := protocol.DecodeHeader(headerBuf)
		if err != nil {
			if errors.Is(err, protocol.ErrFrameTooLarge) {
				err = ErrFrameTooLarge
			}
			completeAck(err)
			c.disconnect(err)
			return
		}

		bodyLen := hdr.BodyLength()
		if bodyLen < 0 {
			completeAck(protocol.ErrHeaderLength)
			c.disconnect(protocol.ErrHeaderLength)
			return
		}
		if cap(bodyBuf) < bodyLen {
			bodyBuf = make([]byte, bodyLen)
		}
		body := bodyBuf[:bodyLen]
		if bodyLen > 0 {
			if err := tr.ReceiveExact(ctx, body); err != nil {
				c.disconnect(classifyLoopErr(ctx, err))
				completeAck(err)
				return
			}
		}

		if hdr.Action == protocol.ActionConnectAck {
			if !ackSent {
				c.fabric.Dispatch(dispatch.Connected{At: time.Now()})
				completeAck(nil)
			}
			continue
		}

		vals, err := classify.Classify(hdr, body)
		if err != nil {
			// One malformed frame never ends the session (spec.md §7).
			continue
		}
		for _, v := range vals {
			switch x := v.(type) {
			case classify.Popularity:
				c.fabric.Dispatch(dispatch.Popularity{Value: x.Value, At: time.Now()})
			case classify.RawMessage:
				payload := append([]byte(nil), x.JSON...)
				c.fabric.Dispatch(dispatch.RawData{JSON: payload})
			}
		}
	}
}

// heartbeatLoop sends the fixed heartbeat frame and sleeps the remaining
// portion of the interval after accounting for send latency, per spec.md
// §4.4.4. A send that itself consumes the whole interval is reported as
// ErrHeartbeatOverrun and ends the cycle rather than spinning on Send.
func (c *Connection) heartbeatLoop(ctx context.Context, tr transport.Transport) {
	for {
		start := time.Now()
		if err := tr.Send(ctx, protocol.HeartbeatFrame); err != nil {
			c.disconnect(classifyLoopErr(ctx, err))
			return
		}

		remaining := c.opts.HeartbeatInterval - time.Since(start)
		if remaining <= 0 {
			c.disconnect(ErrHeartbeatOverrun)
			return
		}

		timer := time.NewTimer(remaining)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// classifyLoopErr turns a context cancellation into a nil (clean shutdown)
// trigger, per spec.md §7: "Cancelled is a clean shutdown and does not
// populate Disconnected.Err."
func classifyLoopErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}
