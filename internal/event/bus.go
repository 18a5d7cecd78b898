package event

import (
	"log"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/gobwas/glob"
)

// Handler is a function that handles an event.
type Handler func(Event)

// subscription represents a registered event handler. pattern is non-nil
// for glob subscriptions.
type subscription struct {
	id      string
	pattern glob.Glob
	handler Handler
}

// Bus is a simple synchronous pub-sub event bus.
// It allows components to communicate without direct dependencies.
type Bus struct {
	mu            sync.RWMutex
	subscriptions map[string][]subscription // exact eventType -> subscriptions
	patterns      []subscription            // glob subscriptions, in order
	nextID        atomic.Uint64
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		subscriptions: make(map[string][]subscription),
	}
}

// Subscribe registers a handler for a specific event type.
// Returns a subscription ID that can be used to unsubscribe.
func (b *Bus) Subscribe(eventType string, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.generateID()
	b.subscriptions[eventType] = append(b.subscriptions[eventType], subscription{
		id:      id,
		handler: handler,
	})
	return id
}

// SubscribePattern registers a handler for every event type matching the
// glob pattern, e.g. "task.*" or "*.state_changed". Returns a subscription
// ID, or an error when the pattern does not compile.
func (b *Bus) SubscribePattern(pattern string, handler Handler) (string, error) {
	g, err := glob.Compile(pattern, '.')
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.generateID()
	b.patterns = append(b.patterns, subscription{
		id:      id,
		pattern: g,
		handler: handler,
	})
	return id, nil
}

// SubscribeAll registers a handler for all event types.
// Returns a subscription ID that can be used to unsubscribe.
func (b *Bus) SubscribeAll(handler Handler) string {
	id, _ := b.SubscribePattern("**", handler)
	return id
}

// Unsubscribe removes a subscription by ID.
// Returns true if the subscription was found and removed.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, subs := range b.subscriptions {
		for i, sub := range subs {
			if sub.id == id {
				b.subscriptions[eventType] = append(subs[:i], subs[i+1:]...)
				return true
			}
		}
	}
	for i, sub := range b.patterns {
		if sub.id == id {
			b.patterns = append(b.patterns[:i], b.patterns[i+1:]...)
			return true
		}
	}
	return false
}

// Publish dispatches an event to all registered handlers. Handlers
// subscribed to the exact event type are called first, then pattern
// handlers whose glob matches, each group in registration order.
// If a handler panics, the panic is logged, recovered, and publishing
// continues to remaining handlers.
func (b *Bus) Publish(event Event) {
	eventType := event.EventType()

	b.mu.RLock()
	exact := make([]subscription, len(b.subscriptions[eventType]))
	copy(exact, b.subscriptions[eventType])

	var matched []subscription
	for _, sub := range b.patterns {
		if sub.pattern.Match(eventType) {
			matched = append(matched, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range exact {
		b.safeCall(sub.handler, event)
	}
	for _, sub := range matched {
		b.safeCall(sub.handler, event)
	}
}

// safeCall invokes a handler and recovers from any panics.
// Panics are logged with stack traces so one misbehaving handler cannot
// block event delivery to other handlers.
func (b *Bus) safeCall(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: event handler panicked for event %s: %v\n%s",
				event.EventType(), r, debug.Stack())
		}
	}()
	handler(event)
}

// generateID creates a unique subscription ID.
func (b *Bus) generateID() string {
	id := b.nextID.Add(1)
	return string(rune('a'+id%26)) + string(rune('0'+id/26%10)) + string(rune('a'+id/260%26))
}

// Clear removes all subscriptions.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions = make(map[string][]subscription)
	b.patterns = nil
}

// SubscriptionCount returns the total number of active subscriptions.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := len(b.patterns)
	for _, subs := range b.subscriptions {
		count += len(subs)
	}
	return count
}
