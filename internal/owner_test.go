package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOwner(t *testing.T) {
	t.Run("runs cleanups in reverse order", func(t *testing.T) {
		log := []string{}
		o := NewOwner()

		o.OnCleanup(func() { log = append(log, "first") })
		o.OnCleanup(func() { log = append(log, "second") })
		o.Dispose()

		assert.Equal(t, []string{"second", "first"}, log)
	})

	t.Run("disposes once", func(t *testing.T) {
		calls := 0
		o := NewOwner()

		o.OnCleanup(func() { calls++ })
		o.Dispose()
		o.Dispose()

		assert.Equal(t, 1, calls)
		assert.True(t, o.Disposed())
	})

	t.Run("refuses cleanups once disposed", func(t *testing.T) {
		calls := 0
		o := NewOwner()
		o.Dispose()

		assert.False(t, o.OnCleanup(func() { calls++ }))
		o.Dispose()

		assert.Equal(t, 0, calls)
	})
}

func TestJobQueue(t *testing.T) {
	log := []int{}
	q := NewJobQueue("changed")

	for i := range 3 {
		q.Enqueue(func() error { log = append(log, i); return nil })
	}
	assert.Equal(t, 3, q.Len())

	for _, job := range q.Drain() {
		job()
	}

	assert.Equal(t, []int{0, 1, 2}, log)
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, "changed", q.Changed())
}

func TestGuard(t *testing.T) {
	t.Run("tracks the phase", func(t *testing.T) {
		var g guard
		assert.Equal(t, PhaseIdle, g.Phase())
		assert.False(t, g.handling())

		assert.NoError(t, g.enter())
		assert.Equal(t, PhaseHandling, g.Phase())
		assert.True(t, g.handling())

		g.setPhase(PhaseFlushing)
		assert.False(t, g.handling())

		g.exit()
		assert.Equal(t, PhaseIdle, g.Phase())
		assert.Equal(t, "idle", g.Phase().String())
	})

	t.Run("rejects re-entry from the same goroutine", func(t *testing.T) {
		var g guard

		assert.NoError(t, g.enter())
		assert.ErrorIs(t, g.enter(), ErrReentrantDispatch)
		g.exit()

		assert.NoError(t, g.enter())
		g.exit()
	})

	t.Run("blocks other goroutines until exit", func(t *testing.T) {
		var g guard
		entered := make(chan struct{})

		assert.NoError(t, g.enter())
		go func() {
			g.enter()
			close(entered)
			g.exit()
		}()

		select {
		case <-entered:
			t.Fatal("entered while held")
		default:
		}

		g.exit()
		<-entered
	})
}
