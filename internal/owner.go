package internal

import "sync"

// Owner collects the cleanup functions of everything a store registered on the runtime.
type Owner struct {
	mu sync.Mutex

	cleanups []func()
	disposed bool
}

func NewOwner() *Owner {
	return &Owner{
		cleanups: make([]func(), 0),
	}
}

// OnCleanup registers fn to run on Dispose.
// It reports false, without registering, when the owner is already disposed.
func (o *Owner) OnCleanup(fn func()) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.disposed {
		return false
	}

	o.cleanups = append(o.cleanups, fn)
	return true
}

// Dispose runs the cleanups in reverse registration order, only the first call has an effect.
func (o *Owner) Dispose() {
	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		return
	}
	o.disposed = true
	cleanups := o.cleanups
	o.cleanups = nil
	o.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

func (o *Owner) Disposed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.disposed
}
