package internal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func newTestTarget(t *testing.T) *Target {
	t.Helper()

	target, err := Materialize(nil)
	require.NoError(t, err)

	return target
}

func TestScheduler(t *testing.T) {
	t.Run("runs jobs in FIFO order then publishes once", func(t *testing.T) {
		log := []string{}
		bus := NewBus()
		s := NewScheduler(bus)
		target := newTestTarget(t)

		require.NoError(t, s.InitTarget(target, "changed"))
		bus.Subscribe("changed", func(any) error {
			log = append(log, "changed")
			return nil
		})

		for _, name := range []string{"one", "two", "three"} {
			require.NoError(t, s.PostJob(target, func() error {
				log = append(log, name)
				return nil
			}))
		}
		assert.Equal(t, 3, s.Pending(target))
		assert.Empty(t, log)

		require.NoError(t, s.ExecuteJobs(target))

		assert.Equal(t, []string{"one", "two", "three", "changed"}, log)
		assert.Equal(t, 0, s.Pending(target))
	})

	t.Run("does not publish when the queue is empty", func(t *testing.T) {
		calls := 0
		bus := NewBus()
		s := NewScheduler(bus)
		target := newTestTarget(t)

		require.NoError(t, s.InitTarget(target, "changed"))
		bus.Subscribe("changed", func(any) error { calls++; return nil })

		require.NoError(t, s.ExecuteJobs(target))
		assert.Equal(t, 0, calls)
	})

	t.Run("consumes the queue on flush", func(t *testing.T) {
		runs, calls := 0, 0
		bus := NewBus()
		s := NewScheduler(bus)
		target := newTestTarget(t)

		require.NoError(t, s.InitTarget(target, "changed"))
		bus.Subscribe("changed", func(any) error { calls++; return nil })

		require.NoError(t, s.PostJob(target, func() error { runs++; return nil }))
		require.NoError(t, s.ExecuteJobs(target))
		require.NoError(t, s.ExecuteJobs(target))

		assert.Equal(t, 1, runs)
		assert.Equal(t, 1, calls)
	})

	t.Run("rejects unregistered targets", func(t *testing.T) {
		s := NewScheduler(NewBus())
		target := newTestTarget(t)

		assert.ErrorIs(t, s.PostJob(target, func() error { return nil }), ErrUnregisteredTarget)
		assert.ErrorIs(t, s.ExecuteJobs(target), ErrUnregisteredTarget)
		assert.Equal(t, 0, s.Discard(target))
	})

	t.Run("rejects a second registration of the same target", func(t *testing.T) {
		s := NewScheduler(NewBus())
		target := newTestTarget(t)

		require.NoError(t, s.InitTarget(target, "changed"))
		assert.ErrorIs(t, s.InitTarget(target, "other"), ErrTargetRegistered)
		assert.ErrorIs(t, s.InitTarget(newTestTarget(t), ""), ErrInvalidSignal)
	})

	t.Run("keys queues by target identity", func(t *testing.T) {
		log := []string{}
		bus := NewBus()
		s := NewScheduler(bus)
		a, b := newTestTarget(t), newTestTarget(t)

		require.NoError(t, s.InitTarget(a, "a changed"))
		require.NoError(t, s.InitTarget(b, "b changed"))
		bus.Subscribe("a changed", func(any) error { log = append(log, "a changed"); return nil })
		bus.Subscribe("b changed", func(any) error { log = append(log, "b changed"); return nil })

		s.PostJob(a, func() error { log = append(log, "a job"); return nil })
		s.PostJob(b, func() error { log = append(log, "b job"); return nil })

		require.NoError(t, s.ExecuteJobs(a))

		assert.Equal(t, []string{"a job", "a changed"}, log)
		assert.Equal(t, 1, s.Pending(b))
	})

	t.Run("runs every job and returns their errors together", func(t *testing.T) {
		log := []string{}
		first, second := errors.New("first"), errors.New("second")
		bus := NewBus()
		s := NewScheduler(bus)
		target := newTestTarget(t)

		require.NoError(t, s.InitTarget(target, "changed"))
		bus.Subscribe("changed", func(any) error { log = append(log, "changed"); return nil })

		s.PostJob(target, func() error { log = append(log, "one"); return first })
		s.PostJob(target, func() error { log = append(log, "two"); return nil })
		s.PostJob(target, func() error { log = append(log, "three"); return second })

		err := s.ExecuteJobs(target)

		assert.ErrorIs(t, err, first)
		assert.ErrorIs(t, err, second)
		assert.Len(t, multierr.Errors(err), 2)
		assert.Equal(t, []string{"one", "two", "three", "changed"}, log)
	})

	t.Run("returns watcher errors", func(t *testing.T) {
		boom := errors.New("boom")
		bus := NewBus()
		s := NewScheduler(bus)
		target := newTestTarget(t)

		require.NoError(t, s.InitTarget(target, "changed"))
		bus.Subscribe("changed", func(any) error { return boom })

		s.PostJob(target, func() error { return nil })

		assert.ErrorIs(t, s.ExecuteJobs(target), boom)
	})

	t.Run("discard drops jobs without running them", func(t *testing.T) {
		runs := 0
		s := NewScheduler(NewBus())
		target := newTestTarget(t)

		require.NoError(t, s.InitTarget(target, "changed"))
		s.PostJob(target, func() error { runs++; return nil })
		s.PostJob(target, func() error { runs++; return nil })

		assert.Equal(t, 2, s.Discard(target))
		require.NoError(t, s.ExecuteJobs(target))
		assert.Equal(t, 0, runs)
	})

	t.Run("drop target forgets the queue", func(t *testing.T) {
		s := NewScheduler(NewBus())
		target := newTestTarget(t)

		require.NoError(t, s.InitTarget(target, "changed"))
		s.DropTarget(target)

		assert.ErrorIs(t, s.PostJob(target, func() error { return nil }), ErrUnregisteredTarget)
		require.NoError(t, s.InitTarget(target, "changed"))
	})

	t.Run("applies jobs without blocking readers", func(t *testing.T) {
		s := NewScheduler(NewBus())
		target := newTestTarget(t)

		require.NoError(t, s.InitTarget(target, "changed"))
		s.PostJob(target, func() error {
			return target.setRaw("n", []byte("1"))
		})
		s.PostJob(target, func() error {
			// later jobs see earlier writes, readers only the committed state
			assert.Equal(t, int64(1), target.get("n").Int())
			assert.False(t, target.read("n").Exists())
			return target.setRaw("m", []byte("2"))
		})

		require.NoError(t, s.ExecuteJobs(target))
		assert.JSONEq(t, `{"n":1,"m":2}`, string(target.bytes()))
	})
}
