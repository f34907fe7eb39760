package internal

import "fmt"

// Store owns one target and exposes it through a Draft to event handlers and a Snapshot to everyone else.
type Store struct {
	rt *Runtime

	// signal published after each flush that applied at least one job
	changed string

	target   *Target
	draft    *Draft
	snapshot Snapshot

	guard guard
	owner *Owner
}

func (r *Runtime) NewStore(initial any) (*Store, error) {
	if r.Closed() {
		return nil, ErrRuntimeClosed
	}

	changed := r.ids.Generate()

	target, err := Materialize(initial)
	if err != nil {
		return nil, err
	}

	if err := r.scheduler.InitTarget(target, changed); err != nil {
		return nil, err
	}

	s := &Store{
		rt:       r,
		changed:  changed,
		target:   target,
		snapshot: NewSnapshot(target),
		owner:    NewOwner(),
	}
	s.draft = newDraft(s)

	r.metrics.storeAdded()
	s.owner.OnCleanup(func() {
		r.scheduler.DropTarget(target)
		r.metrics.storeRemoved()
		r.logger.Debug("store disposed", "store", changed)
	})

	r.logger.Debug("store created", "store", changed)

	return s, nil
}

// Get returns the read-only view of the store. It is the same live view on every call.
func (s *Store) Get() Snapshot {
	return s.snapshot
}

// Changed returns the name of the signal published after each flush.
func (s *Store) Changed() string {
	return s.changed
}

func (s *Store) Phase() Phase {
	return s.guard.Phase()
}

// On runs handler with the store's draft each time e is emitted, then flushes the jobs it queued.
// Several handlers may be bound to the same emitter, they run in registration order.
func (s *Store) On(e *Emitter, handler func(d *Draft, payload any) error) error {
	if handler == nil {
		return ErrNilHandler
	}

	name, ok := s.rt.emitters.Lookup(e)
	if !ok {
		return ErrUnboundEmitter
	}

	if err := s.usable(); err != nil {
		return err
	}

	cancel, err := s.rt.bus.Subscribe(name, func(payload any) error {
		return s.dispatch(name, handler, payload)
	})
	if err != nil {
		return err
	}
	if !s.owner.OnCleanup(cancel) {
		cancel()
		return ErrStoreDisposed
	}

	s.rt.logger.Debug("handler bound", "store", s.changed, "signal", name)

	return nil
}

// Watch runs handler with the store's snapshot after each flush that applied at least one job.
func (s *Store) Watch(handler func(snap Snapshot) error) error {
	if handler == nil {
		return ErrNilHandler
	}

	if err := s.usable(); err != nil {
		return err
	}

	cancel, err := s.rt.bus.Subscribe(s.changed, func(any) error {
		return handler(s.snapshot)
	})
	if err != nil {
		return err
	}
	if !s.owner.OnCleanup(cancel) {
		cancel()
		return ErrStoreDisposed
	}

	return nil
}

// Dispose unsubscribes every handler and watcher of the store and drops its scheduler queue.
// The snapshot stays readable.
func (s *Store) Dispose() {
	s.owner.Dispose()
}

func (s *Store) Disposed() bool {
	return s.owner.Disposed()
}

func (s *Store) usable() error {
	if s.rt.Closed() {
		return ErrRuntimeClosed
	}
	if s.owner.Disposed() {
		return ErrStoreDisposed
	}

	return nil
}

// dispatch runs one update cycle: handler, then flush.
// A handler that fails or panics skips the flush and its queued jobs are dropped.
func (s *Store) dispatch(signal string, handler func(*Draft, any) error, payload any) error {
	if err := s.guard.enter(); err != nil {
		return fmt.Errorf("%w: store %s is %s", err, s.changed, s.guard.Phase())
	}
	defer s.guard.exit()

	flushing := false
	defer func() {
		if flushing {
			return
		}
		if n := s.rt.scheduler.Discard(s.target); n > 0 {
			s.rt.logger.Debug("jobs discarded", "store", s.changed, "signal", signal, "jobs", n)
		}
	}()

	s.rt.logger.Debug("dispatch", "store", s.changed, "signal", signal)

	if err := handler(s.draft, payload); err != nil {
		return err
	}

	flushing = true
	s.guard.setPhase(PhaseFlushing)

	return s.rt.scheduler.ExecuteJobs(s.target)
}

func (s *Store) post(job Job) error {
	if !s.guard.handling() {
		return ErrOutsideHandler
	}

	return s.rt.scheduler.PostJob(s.target, job)
}
