package events

import (
	"context"
	"sync"
)

// Handler consumes a single event. Handlers run synchronously on the
// publisher's goroutine so the cascade stays visible and testable; a
// handler that needs async delivery owns its own queueing.
type Handler func(ctx context.Context, e Event)

// Dispatcher is a minimal in-process event bus. Subscriptions are expected
// to happen during wiring, before traffic; Publish is safe for concurrent
// use afterwards.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string][]Handler)}
}

// Subscribe registers h for every event with the given name.
// Handlers fire in registration order.
func (d *Dispatcher) Subscribe(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], h)
}

// Publish delivers e to all subscribers of e.Name().
func (d *Dispatcher) Publish(ctx context.Context, e Event) {
	d.mu.RLock()
	hs := d.handlers[e.Name()]
	d.mu.RUnlock()

	for _, h := range hs {
		h(ctx, e)
	}
}
