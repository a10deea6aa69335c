// Package dispatch implements the type-indexed subscription registry
// (spec.md §4.6): an ordered handler list per message type, delivered
// sequentially in wire order. Raw JSON payloads reach subscribers only as
// RawData events through the same registry; there is no separate queue.
package dispatch

import (
	"reflect"
	"sync"
)

// Fabric is the invoker: it owns one ordered handler list per concrete
// event type (invariant reception) plus one ordered list of handlers that
// want every event regardless of concrete type (contravariant reception,
// resolved against the Event interface).
type Fabric struct {
	mu      sync.RWMutex
	typed   map[reflect.Type][]func(Event)
	anyKind []func(Event)
}

// NewFabric constructs an empty dispatch fabric.
func NewFabric() *Fabric {
	return &Fabric{typed: make(map[reflect.Type][]func(Event))}
}

// Subscribe registers h to receive only events whose dynamic type is
// exactly T (invariant reception). Returned handlers fire in registration
// order, per spec.md §5.
func Subscribe[T Event](f *Fabric, h func(T)) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	wrapped := func(ev Event) { h(ev.(T)) }

	f.mu.Lock()
	defer f.mu.Unlock()
	f.typed[t] = append(f.typed[t], wrapped)
}

// SubscribeAny registers h to receive every event regardless of its
// concrete type (contravariant reception against the Event interface).
func (f *Fabric) SubscribeAny(h func(Event)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.anyKind = append(f.anyKind, h)
}

// Dispatch delivers ev to every subscribed handler, invariant handlers
// first (in registration order) then contravariant ("any") handlers (also
// in registration order), awaiting each sequentially as spec.md §4.6/§5
// require. A panicking handler is recovered and does not prevent the rest
// of the chain from running, nor does it reach the loop that called
// Dispatch — a faulty handler must not kill the connection (spec.md §7).
func (f *Fabric) Dispatch(ev Event) {
	f.mu.RLock()
	typed := append([]func(Event){}, f.typed[reflect.TypeOf(ev)]...)
	anyKind := append([]func(Event){}, f.anyKind...)
	f.mu.RUnlock()

	for _, h := range typed {
		invokeSafely(h, ev)
	}
	for _, h := range anyKind {
		invokeSafely(h, ev)
	}
}

func invokeSafely(h func(Event), ev Event) {
	defer func() { _ = recover() }()
	h(ev)
}
