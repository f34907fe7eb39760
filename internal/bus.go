package internal

import (
	"slices"
	"sync"
)

// Handler receives the payload of a published signal.
type Handler func(payload any) error

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a synchronous publish/subscribe hub keyed by signal name.
type Bus struct {
	mu sync.RWMutex

	topics map[string][]subscription
	nextID uint64

	metrics *metrics
}

func NewBus() *Bus {
	return &Bus{
		topics: make(map[string][]subscription),
	}
}

// Subscribe registers handler for future publishes of name.
// The returned func removes the subscription, it is safe to call more than once.
func (b *Bus) Subscribe(name string, handler Handler) (func(), error) {
	if name == "" {
		return nil, ErrInvalidSignal
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.topics[name] = append(b.topics[name], subscription{id, handler})
	b.mu.Unlock()

	return func() { b.remove(name, id) }, nil
}

// Publish runs every handler subscribed to name, in registration order, on the calling goroutine.
// The first handler error stops the fan-out and is returned as is.
func (b *Bus) Publish(name string, payload any) error {
	b.mu.RLock()
	// handlers subscribed while publishing only see the next publish
	subs := slices.Clone(b.topics[name])
	b.mu.RUnlock()

	b.metrics.published()

	for _, sub := range subs {
		b.metrics.delivered()

		if err := sub.handler(payload); err != nil {
			return err
		}
	}

	return nil
}

// Subscribers returns how many handlers are subscribed to name.
func (b *Bus) Subscribers(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.topics[name])
}

// Clear removes every handler subscribed to name.
func (b *Bus) Clear(name string) {
	b.mu.Lock()
	delete(b.topics, name)
	b.mu.Unlock()
}

func (b *Bus) Close() {
	b.mu.Lock()
	clear(b.topics)
	b.mu.Unlock()
}

func (b *Bus) remove(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.topics[name]
	i := slices.IndexFunc(subs, func(s subscription) bool { return s.id == id })
	if i < 0 {
		return
	}

	subs = slices.Delete(subs, i, i+1)
	if len(subs) == 0 {
		delete(b.topics, name)
		return
	}
	b.topics[name] = subs
}
