package internal

import "errors"

var (
	// ErrUnboundEmitter is returned when subscribing with an emitter that has no signal name,
	// either because it was not created by NewEmitter, belongs to another runtime, or was disposed.
	ErrUnboundEmitter = errors.New("evstore: emitter is not bound to a signal")

	// ErrUnregisteredTarget is returned when posting or executing jobs for a target
	// that was never passed to InitTarget (or was dropped since).
	ErrUnregisteredTarget = errors.New("evstore: target is not registered with the scheduler")

	// ErrTargetRegistered is returned when InitTarget is called twice for the same target.
	ErrTargetRegistered = errors.New("evstore: target is already registered")

	// ErrReentrantDispatch is returned when a store is dispatched into again
	// from the goroutine that is already handling or flushing it.
	ErrReentrantDispatch = errors.New("evstore: re-entrant dispatch")

	// ErrOutsideHandler is returned when writing through a draft outside of its store's handler.
	ErrOutsideHandler = errors.New("evstore: draft written outside of a handler")

	// ErrStoreDisposed is returned when subscribing on a disposed store.
	ErrStoreDisposed = errors.New("evstore: store is disposed")

	ErrInvalidRoot   = errors.New("evstore: state root must be a JSON object or array")
	ErrInvalidPath   = errors.New("evstore: invalid path")
	ErrInvalidSignal = errors.New("evstore: invalid signal name")
	ErrNilHandler    = errors.New("evstore: nil handler")
	ErrRuntimeClosed = errors.New("evstore: runtime is closed")
)
