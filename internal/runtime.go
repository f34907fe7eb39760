package internal

import (
	"log/slog"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Runtime ties together the bus, the emitter registry and the scheduler shared by a set of events and stores.
// Events and stores only interact when they belong to the same runtime.
type Runtime struct {
	bus       *Bus
	emitters  *EmitterRegistry
	scheduler *Scheduler

	ids     IDGenerator
	logger  *slog.Logger
	metrics *metrics

	closed atomic.Bool
}

type Config struct {
	Logger     *slog.Logger
	IDs        IDGenerator
	Registerer prometheus.Registerer
	Namespace  string
}

func NewRuntime(cfg Config) *Runtime {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.IDs == nil {
		cfg.IDs = UUIDv7Generator{}
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "evstore"
	}

	m := newMetrics(cfg.Registerer, cfg.Namespace)

	bus := NewBus()
	bus.metrics = m

	scheduler := NewScheduler(bus)
	scheduler.metrics = m

	return &Runtime{
		bus:       bus,
		emitters:  NewEmitterRegistry(bus.Clear),
		scheduler: scheduler,

		ids:     cfg.IDs,
		logger:  cfg.Logger,
		metrics: m,
	}
}

// NewEmitter creates an emitter bound to a fresh signal name.
// Emitting fails with ErrRuntimeClosed once the runtime is closed.
// An emitter created after Close is left unbound, so stores refuse it like any foreign emitter.
func (r *Runtime) NewEmitter() *Emitter {
	closed := &r.closed
	if closed.Load() {
		return &Emitter{publish: func(any) error { return ErrRuntimeClosed }}
	}

	name := r.ids.Generate()
	bus := r.bus

	e := &Emitter{
		publish: func(payload any) error {
			if closed.Load() {
				return ErrRuntimeClosed
			}
			return bus.Publish(name, payload)
		},
	}
	r.emitters.Bind(e, name)

	r.logger.Debug("emitter created", "signal", name)

	return e
}

// DisposeEmitter unbinds e and drops every handler of its signal.
func (r *Runtime) DisposeEmitter(e *Emitter) {
	name, ok := r.emitters.Lookup(e)
	if !ok {
		return
	}

	r.emitters.Unbind(e)
	r.bus.Clear(name)

	r.logger.Debug("emitter disposed", "signal", name)
}

func (r *Runtime) Bus() *Bus                  { return r.bus }
func (r *Runtime) Emitters() *EmitterRegistry { return r.emitters }
func (r *Runtime) Scheduler() *Scheduler      { return r.scheduler }
func (r *Runtime) Logger() *slog.Logger       { return r.logger }
func (r *Runtime) Closed() bool               { return r.closed.Load() }

// Close drops every subscription, binding and queue of the runtime and unregisters its metrics.
// Stores of a closed runtime stop reacting. Emitting and creating stores fail with ErrRuntimeClosed.
func (r *Runtime) Close() {
	if r.closed.Swap(true) {
		return
	}

	r.bus.Close()
	r.emitters.Close()
	r.scheduler.Close()
	r.metrics.unregister()

	r.logger.Debug("runtime closed")
}
