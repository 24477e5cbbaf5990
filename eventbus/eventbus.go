// Package eventbus provides the process-wide publish/subscribe primitive
// that decouples producers and consumers of domain events. A shared default
// instance exists for convenience, but collaborators should receive their
// bus explicitly so tests can run against isolated instances.
package eventbus

import (
	"context"
	"sync"

	"typing-battle/client/logging"
	"typing-battle/client/logging/lifecycle"
)

// Handler receives the arguments passed to Publish.
type Handler func(args ...any)

// maxHandlersPerTopic is a soft cap: exceeding it logs a warning to catch
// subscription leaks, it never refuses the subscription.
const maxHandlersPerTopic = 50

type subscription struct {
	id      uint64
	handler Handler
}

// Bus delivers published events to subscribers of the same topic in
// subscription order. Dispatch operates on a snapshot of the handler list,
// so handlers added or removed during a publish do not affect that pass.
type Bus struct {
	mu     sync.Mutex
	topics map[string][]subscription
	nextID uint64
	pub    logging.Publisher
}

// New creates an empty bus reporting handler failures to pub.
func New(pub logging.Publisher) *Bus {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Bus{
		topics: make(map[string][]subscription),
		pub:    pub,
	}
}

var (
	defaultBus  *Bus
	defaultOnce sync.Once
)

// Default returns the process-wide shared bus. Collaborators that accept
// an explicit bus should be handed one; this exists for wiring code that
// has nothing better.
func Default() *Bus {
	defaultOnce.Do(func() {
		defaultBus = New(nil)
	})
	return defaultBus
}

// Subscribe registers handler for topic and returns its unsubscribe
// function. Calling the returned function more than once is harmless.
func (b *Bus) Subscribe(topic string, handler Handler) func() {
	if b == nil || handler == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	subs := append(b.topics[topic], subscription{id: id, handler: handler})
	b.topics[topic] = subs
	overCap := len(subs) > maxHandlersPerTopic
	b.mu.Unlock()

	if overCap {
		b.pub.Publish(context.Background(), logging.Event{
			Type:     "eventbus.handler_cap",
			Actor:    logging.EntityRef{ID: topic, Kind: logging.EntityKindSystem},
			Severity: logging.SeverityWarn,
			Category: logging.CategorySystem,
			Payload:  map[string]int{"handlers": len(subs), "cap": maxHandlersPerTopic},
		})
	}

	return func() { b.remove(topic, id) }
}

// SubscribeOnce registers a handler that removes itself before its first
// invocation.
func (b *Bus) SubscribeOnce(topic string, handler Handler) func() {
	if b == nil || handler == nil {
		return func() {}
	}
	var once sync.Once
	var unsubscribe func()
	unsubscribe = b.Subscribe(topic, func(args ...any) {
		once.Do(func() {
			unsubscribe()
			handler(args...)
		})
	})
	return unsubscribe
}

// Publish invokes every current handler for topic synchronously, in
// subscription order. Each handler is guarded individually: a panic is
// recovered and reported, and the remaining handlers still run.
func (b *Bus) Publish(topic string, args ...any) {
	if b == nil {
		return
	}

	b.mu.Lock()
	subs := b.topics[topic]
	snapshot := make([]subscription, len(subs))
	copy(snapshot, subs)
	b.mu.Unlock()

	for _, sub := range snapshot {
		b.invoke(topic, sub.handler, args)
	}
}

func (b *Bus) invoke(topic string, handler Handler, args []any) {
	defer func() {
		if recovered := recover(); recovered != nil {
			lifecycle.HandlerPanic(context.Background(), b.pub, topic, recovered)
		}
	}()
	handler(args...)
}

// UnsubscribeAll clears every handler for the given topics, or every topic
// when none are named.
func (b *Bus) UnsubscribeAll(topics ...string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(topics) == 0 {
		b.topics = make(map[string][]subscription)
		return
	}
	for _, topic := range topics {
		delete(b.topics, topic)
	}
}

// ListenerCount reports how many handlers are registered for topic.
func (b *Bus) ListenerCount(topic string) int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[topic])
}

func (b *Bus) remove(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.topics[topic]
	for i, sub := range subs {
		if sub.id == id {
			b.topics[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.topics[topic]) == 0 {
		delete(b.topics, topic)
	}
}
