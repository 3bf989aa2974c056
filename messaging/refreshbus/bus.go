package refreshbus

import (
	"fmt"
	"time"

	"github.com/sasha-s/go-deadlock"

	"orgmachine/orgmachine"
)

// Payload is what a handler receives on every delivery.
type Payload struct {
	Event       Event
	Data        map[string]interface{}
	TimestampMs int64
}

type Handler func(Payload)

type subscription struct {
	event   Event
	handler Handler
	removed bool
}

// Bus delivers emissions synchronously, in subscription order, to every
// handler for the event and every wildcard handler. A handler registered
// during an emission is not invoked in that same pass.
type Bus struct {
	mutex *deadlock.Mutex
	subs  []*subscription
}

func New() *Bus {
	return &Bus{mutex: &deadlock.Mutex{}}
}

// Subscribe registers handler for event and returns an unsubscribe func.
// Unsubscribing twice is harmless.
func (b *Bus) Subscribe(event Event, handler Handler) func() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	sub := &subscription{event: event, handler: handler}
	b.subs = append(b.subs, sub)
	return func() {
		b.mutex.Lock()
		defer b.mutex.Unlock()
		sub.removed = true
		// compact so scopes that close and reopen all session don't grow the
		// slice forever; in-flight emission batches hold their own pointers
		live := b.subs[:0]
		for _, s := range b.subs {
			if !s.removed {
				live = append(live, s)
			}
		}
		b.subs = live
	}
}

// SubscriberCount reports live subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.subs)
}

// Emit invokes every live handler registered for event, then every wildcard
// handler, each in insertion order. A panicking handler is logged and must
// not prevent the others from running.
func (b *Bus) Emit(event Event, data map[string]interface{}) {
	payload := Payload{
		Event:       event,
		Data:        data,
		TimestampMs: time.Now().UnixMilli(),
	}
	// snapshot under lock so handlers added during this emission wait for
	// the next one
	b.mutex.Lock()
	var batch []*subscription
	for _, sub := range b.subs {
		if sub.removed {
			continue
		}
		if sub.event == event || sub.event == Wildcard {
			batch = append(batch, sub)
		}
	}
	b.mutex.Unlock()

	for _, sub := range batch {
		deliver(sub, payload)
	}
}

// EmitMultiple is shorthand for emitting the same data under several tags.
func (b *Bus) EmitMultiple(events []Event, data map[string]interface{}) {
	for _, event := range events {
		b.Emit(event, data)
	}
}

func deliver(sub *subscription, payload Payload) {
	defer func() {
		if r := recover(); r != nil {
			orgmachine.LogCLI(fmt.Sprintf("refresh handler for %s panicked: %v", payload.Event, r), 1)
		}
	}()
	sub.handler(payload)
}
