package evstore

import "github.com/AnatoleLucet/evstore/internal"

var (
	ErrUnboundEmitter     = internal.ErrUnboundEmitter
	ErrUnregisteredTarget = internal.ErrUnregisteredTarget
	ErrTargetRegistered   = internal.ErrTargetRegistered
	ErrReentrantDispatch  = internal.ErrReentrantDispatch
	ErrOutsideHandler     = internal.ErrOutsideHandler
	ErrStoreDisposed      = internal.ErrStoreDisposed
	ErrInvalidRoot        = internal.ErrInvalidRoot
	ErrInvalidPath        = internal.ErrInvalidPath
	ErrInvalidSignal      = internal.ErrInvalidSignal
	ErrNilHandler         = internal.ErrNilHandler
	ErrRuntimeClosed      = internal.ErrRuntimeClosed
)
