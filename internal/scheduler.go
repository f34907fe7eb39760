package internal

import (
	"sync"

	"go.uber.org/multierr"
)

// Scheduler holds the pending jobs of every registered target and flushes them on demand.
// Queues are keyed by target identity.
type Scheduler struct {
	mu sync.Mutex

	queues map[*Target]*JobQueue

	bus     *Bus
	metrics *metrics
}

func NewScheduler(bus *Bus) *Scheduler {
	return &Scheduler{
		queues: make(map[*Target]*JobQueue),
		bus:    bus,
	}
}

// InitTarget registers an empty queue for target, bound to the signal published after each flush.
func (s *Scheduler) InitTarget(target *Target, changed string) error {
	if changed == "" {
		return ErrInvalidSignal
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.queues[target]; ok {
		return ErrTargetRegistered
	}

	s.queues[target] = NewJobQueue(changed)
	return nil
}

func (s *Scheduler) PostJob(target *Target, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.queues[target]
	if !ok {
		return ErrUnregisteredTarget
	}

	q.Enqueue(job)
	return nil
}

// Pending returns how many jobs are queued for target.
func (s *Scheduler) Pending(target *Target) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q, ok := s.queues[target]; ok {
		return q.Len()
	}
	return 0
}

// ExecuteJobs applies every queued job of target in FIFO order and then publishes
// the target's changed signal once. It does nothing when the queue is empty.
// Readers see either the state before the flush or after it, never a partial one.
// A failing job does not stop the following ones, all errors are returned together.
func (s *Scheduler) ExecuteJobs(target *Target) error {
	s.mu.Lock()
	q, ok := s.queues[target]
	if !ok {
		s.mu.Unlock()
		return ErrUnregisteredTarget
	}
	jobs := q.Drain()
	changed := q.Changed()
	s.mu.Unlock()

	if len(jobs) == 0 {
		return nil
	}

	var err error
	failed := 0
	target.begin()
	for _, job := range jobs {
		if jobErr := job(); jobErr != nil {
			failed++
			err = multierr.Append(err, jobErr)
		}
	}
	target.commit()
	s.metrics.flushed(len(jobs), failed)

	return multierr.Append(err, s.bus.Publish(changed, nil))
}

// Discard drops the queued jobs of target without applying them and returns how many were dropped.
func (s *Scheduler) Discard(target *Target) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.queues[target]
	if !ok {
		return 0
	}

	n := len(q.Drain())
	s.metrics.discarded(n)

	return n
}

// DropTarget forgets target and its pending jobs.
func (s *Scheduler) DropTarget(target *Target) {
	s.mu.Lock()
	delete(s.queues, target)
	s.mu.Unlock()
}

func (s *Scheduler) Close() {
	s.mu.Lock()
	clear(s.queues)
	s.mu.Unlock()
}
