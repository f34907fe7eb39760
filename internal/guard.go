package internal

import (
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// Phase is the step of the update cycle a store is in.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseHandling
	PhaseFlushing
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseHandling:
		return "handling"
	case PhaseFlushing:
		return "flushing"
	default:
		return "unknown"
	}
}

// guard serializes the update cycles of one store across goroutines
// and rejects a nested cycle started from the goroutine that already runs one.
type guard struct {
	mu sync.Mutex

	// goroutine id running the current cycle, 0 when idle
	holder atomic.Int64
	phase  atomic.Int32
}

func (g *guard) enter() error {
	gid := goid.Get()
	if g.holder.Load() == gid {
		return ErrReentrantDispatch
	}

	g.mu.Lock()
	g.holder.Store(gid)
	g.phase.Store(int32(PhaseHandling))

	return nil
}

func (g *guard) exit() {
	g.phase.Store(int32(PhaseIdle))
	g.holder.Store(0)
	g.mu.Unlock()
}

func (g *guard) setPhase(p Phase) {
	g.phase.Store(int32(p))
}

func (g *guard) Phase() Phase {
	return Phase(g.phase.Load())
}

// handling reports whether the calling goroutine is running a handler under this guard.
func (g *guard) handling() bool {
	return g.holder.Load() == goid.Get() && g.Phase() == PhaseHandling
}
