package eventbus

import "sync"

// hooks are observers of bus activity. They live outside bus.go, which is
// generated.
type hooks struct {
	mu          sync.RWMutex
	onPublish   []func(Event, any)
	onDrop      []func(Event, any)
	onSubscribe []func(Event)
	onPanic     []func(Event, any, any)
}

func addHook[F any](bus *EventBus, list *[]F, fn F) {
	bus.hooks.mu.Lock()
	defer bus.hooks.mu.Unlock()
	*list = append(*list, fn)
}

// snapshot copies a hook list so hooks run without holding the lock.
func snapshot[F any](bus *EventBus, list *[]F) []F {
	bus.hooks.mu.RLock()
	defer bus.hooks.mu.RUnlock()
	out := make([]F, len(*list))
	copy(out, *list)
	return out
}

// OnPublish runs fn after an event is queued.
func (bus *EventBus) OnPublish(fn func(Event, any)) { addHook(bus, &bus.hooks.onPublish, fn) }

// OnDrop runs fn when an event is discarded because the queue is full.
func (bus *EventBus) OnDrop(fn func(Event, any)) { addHook(bus, &bus.hooks.onDrop, fn) }

// OnSubscribe runs fn after a subscriber is added.
func (bus *EventBus) OnSubscribe(fn func(Event)) { addHook(bus, &bus.hooks.onSubscribe, fn) }

// OnPanic runs fn with the recovered value when a subscriber panics. Panics
// inside fn are swallowed.
func (bus *EventBus) OnPanic(fn func(Event, any, any)) { addHook(bus, &bus.hooks.onPanic, fn) }

// send queues an event without blocking the publisher.
func (bus *EventBus) send(event Event, payload any) {
	select {
	case bus.ch <- envelope{event: event, payload: payload}:
		bus.runOnPublish(event, payload)
	default:
		bus.runOnDrop(event, payload)
	}
}

func (bus *EventBus) runOnPublish(event Event, payload any) {
	for _, fn := range snapshot(bus, &bus.hooks.onPublish) {
		fn(event, payload)
	}
}

func (bus *EventBus) runOnSubscribe(event Event) {
	for _, fn := range snapshot(bus, &bus.hooks.onSubscribe) {
		fn(event)
	}
}

func (bus *EventBus) runOnDrop(event Event, payload any) {
	for _, fn := range snapshot(bus, &bus.hooks.onDrop) {
		fn(event, payload)
	}
}

func (bus *EventBus) runOnPanic(event Event, payload any, recovered any) {
	for _, fn := range snapshot(bus, &bus.hooks.onPanic) {
		func() {
			defer func() { _ = recover() }()
			fn(event, payload, recovered)
		}()
	}
}
