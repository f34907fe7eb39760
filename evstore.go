// Package evstore is a small reactive state container.
//
// State lives in a store and is only read through a read-only Snapshot.
// It is changed by handlers bound to events with On: each handler receives a Draft,
// the writes it queues are applied once it returns, and watchers are notified once per update.
package evstore

import "github.com/AnatoleLucet/evstore/internal"

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}

	return v.(T)
}

// Draft is the writable view of a store, only usable from within an On handler.
type Draft = internal.Draft

// Snapshot is the read-only view of a store. It always reflects the current state.
type Snapshot = internal.Snapshot

// Phase is the step of the update cycle a store is in.
type Phase = internal.Phase

const (
	PhaseIdle     = internal.PhaseIdle
	PhaseHandling = internal.PhaseHandling
	PhaseFlushing = internal.PhaseFlushing
)

// Runtime owns the event bus and the scheduler shared by events and stores.
// Events and stores created without WithRuntime use the Default runtime.
type Runtime struct {
	runtime *internal.Runtime
}

// NewRuntime creates an isolated runtime.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	var cfg internal.Config
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Runtime{internal.NewRuntime(cfg)}
}

// Default returns the process wide runtime.
func Default() *Runtime {
	return &Runtime{internal.GetRuntime()}
}

// Close tears the runtime down: every subscription, binding and pending job is dropped,
// and its events and stores fail with ErrRuntimeClosed from then on.
func (r *Runtime) Close() { r.runtime.Close() }

// Event is a typed emitter. Emitting it runs every handler bound to it with On.
type Event[P any] struct {
	emitter *internal.Emitter
	runtime *internal.Runtime
}

// EventInfo is what a handler receives along with the draft.
type EventInfo[P any] struct {
	Payload P
}

// NewEvent creates an event carrying payloads of type P.
// Events of a closed runtime fail to emit with ErrRuntimeClosed.
func NewEvent[P any](opts ...Option) *Event[P] {
	o := newOptions(opts)

	return &Event[P]{
		emitter: o.runtime.NewEmitter(),
		runtime: o.runtime,
	}
}

// Emit runs every handler bound to the event, in registration order, before returning.
// The first handler error stops the remaining handlers and is returned.
func (e *Event[P]) Emit(payload P) error {
	if e == nil || e.emitter == nil {
		return ErrUnboundEmitter
	}

	return e.emitter.Emit(payload)
}

// Fire emits the zero payload, for events that carry none.
func (e *Event[P]) Fire() error {
	var zero P
	return e.Emit(zero)
}

// Dispose unbinds the event: its handlers are dropped and it can no longer be passed to On.
func (e *Event[P]) Dispose() {
	if e == nil || e.emitter == nil {
		return
	}

	e.runtime.DisposeEmitter(e.emitter)
}

// Store holds a state of shape S.
type Store[S any] struct {
	store *internal.Store
}

// NewStore creates a store from initial, which must encode to a JSON object or array.
// A nil map or pointer gives an empty object.
func NewStore[S any](initial S, opts ...Option) (*Store[S], error) {
	o := newOptions(opts)

	s, err := o.runtime.NewStore(initial)
	if err != nil {
		return nil, err
	}

	return &Store[S]{s}, nil
}

// Get returns the read-only view of the store.
func (s *Store[S]) Get() Snapshot {
	return s.store.Get()
}

// Value decodes the current state into S.
func (s *Store[S]) Value() (S, error) {
	var v S
	err := s.store.Get().Decode(&v)

	return v, err
}

// Watch runs handler with the store's snapshot after every update that changed the state.
func (s *Store[S]) Watch(handler func(snap Snapshot) error) error {
	return s.store.Watch(handler)
}

// Phase reports where the store is in its update cycle.
func (s *Store[S]) Phase() Phase {
	return s.store.Phase()
}

// Dispose unbinds every handler and watcher of the store. Get keeps working.
func (s *Store[S]) Dispose() {
	s.store.Dispose()
}

// On binds handler to e on the store.
// Each time e is emitted the handler runs with the store's draft,
// then the writes it queued are applied and watchers are notified.
func On[S, P any](s *Store[S], e *Event[P], handler func(d *Draft, ev EventInfo[P]) error) error {
	if handler == nil {
		return ErrNilHandler
	}

	var emitter *internal.Emitter
	if e != nil {
		emitter = e.emitter
	}

	return s.store.On(emitter, func(d *internal.Draft, payload any) error {
		return handler(d, EventInfo[P]{Payload: as[P](payload)})
	})
}
