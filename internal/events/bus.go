package events

import (
	"sort"
	"sync"

	"docbridge/pkg/logging"
)

// Event names published by the lifecycle manager and bootstrap orchestrator.
const (
	// EventClientStateChanged fires on every client state transition.
	EventClientStateChanged = "client.stateChanged"

	// EventBuildStart fires when the backend reports a build has begun.
	EventBuildStart = "build.start"

	// EventBuildComplete fires when the backend reports a finished build,
	// carrying the error flag and warning count.
	EventBuildComplete = "build.complete"

	// EventBootstrapOutcome fires once per bootstrap run with its terminal
	// outcome.
	EventBootstrapOutcome = "bootstrap.outcome"

	// EventSettingsChanged fires after a settings reload.
	EventSettingsChanged = "settings.changed"
)

// Handler receives the payload published for an event.
type Handler func(payload interface{})

// Bus is an observer registry mapping event names to ordered handler lists.
// Handlers run in registration order; a panicking handler is recovered and
// logged without aborting the dispatch loop.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[string][]subscription
}

type subscription struct {
	id      int
	handler Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]subscription)}
}

// Subscribe registers a handler for the named event and returns a function
// that removes the registration. Multiple handlers per event are permitted.
func (b *Bus) Subscribe(event string, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[event] = append(b.handlers[event], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[event]
		idx := sort.Search(len(subs), func(i int) bool { return subs[i].id >= id })
		if idx < len(subs) && subs[idx].id == id {
			b.handlers[event] = append(subs[:idx], subs[idx+1:]...)
		}
	}
}

// Publish invokes every handler registered for the event, in registration
// order, on the calling goroutine.
func (b *Bus) Publish(event string, payload interface{}) {
	b.mu.RLock()
	subs := make([]subscription, len(b.handlers[event]))
	copy(subs, b.handlers[event])
	b.mu.RUnlock()

	for _, sub := range subs {
		b.dispatch(event, sub.handler, payload)
	}
}

func (b *Bus) dispatch(event string, handler Handler, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("EventBus", nil, "Handler for %s panicked: %v", event, r)
		}
	}()
	handler(payload)
}
