package internal

import (
	"runtime"
	"sync"
	"weak"
)

// Emitter publishes its signal on the bus each time it is emitted.
type Emitter struct {
	publish func(payload any) error
}

func (e *Emitter) Emit(payload any) error {
	return e.publish(payload)
}

// EmitterRegistry binds emitters to their signal names.
// Entries are keyed by weak pointers and removed once the emitter is garbage collected,
// so the registry never keeps an emitter alive.
type EmitterRegistry struct {
	mu sync.RWMutex

	names map[weak.Pointer[Emitter]]string

	// called with the name of every collected emitter
	release func(name string)
}

type binding struct {
	key  weak.Pointer[Emitter]
	name string
}

// NewEmitterRegistry creates a registry that calls release, when not nil,
// with the signal name of each emitter that gets garbage collected.
func NewEmitterRegistry(release func(name string)) *EmitterRegistry {
	return &EmitterRegistry{
		names:   make(map[weak.Pointer[Emitter]]string),
		release: release,
	}
}

func (r *EmitterRegistry) Bind(e *Emitter, name string) {
	key := weak.Make(e)

	r.mu.Lock()
	r.names[key] = name
	r.mu.Unlock()

	runtime.AddCleanup(e, r.collect, binding{key: key, name: name})
}

func (r *EmitterRegistry) Lookup(e *Emitter) (string, bool) {
	if e == nil {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.names[weak.Make(e)]
	return name, ok
}

func (r *EmitterRegistry) Unbind(e *Emitter) {
	if e == nil {
		return
	}

	r.forget(weak.Make(e))
}

// Len returns the number of bound emitters.
func (r *EmitterRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.names)
}

func (r *EmitterRegistry) Close() {
	r.mu.Lock()
	clear(r.names)
	r.mu.Unlock()
}

func (r *EmitterRegistry) collect(b binding) {
	r.forget(b.key)

	if r.release != nil {
		r.release(b.name)
	}
}

func (r *EmitterRegistry) forget(key weak.Pointer[Emitter]) {
	r.mu.Lock()
	delete(r.names, key)
	r.mu.Unlock()
}
