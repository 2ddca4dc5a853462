package event

import "reflect"

// Bus is a double-buffered event bus: events emitted during tick N are
// delivered at the start of tick N+1. Emit, Subscribe, and Dispatch are all
// game-loop-only; asynchronous producers hand results to the loop through
// channels and a loop-side system emits on their behalf.
type Bus struct {
	front    map[reflect.Type][]any
	back     map[reflect.Type][]any
	handlers map[reflect.Type][]func(any)
}

func NewBus() *Bus {
	return &Bus{
		front:    make(map[reflect.Type][]any),
		back:     make(map[reflect.Type][]any),
		handlers: make(map[reflect.Type][]func(any)),
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Emit queues an event for delivery next tick.
func Emit[T any](b *Bus, ev T) {
	t := typeOf[T]()
	b.back[t] = append(b.back[t], ev)
}

// Subscribe registers a handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	t := typeOf[T]()
	b.handlers[t] = append(b.handlers[t], func(ev any) {
		fn(ev.(T))
	})
}

// Dispatch rotates the buffers and delivers everything emitted last tick.
// Called once per tick at PreUpdate.
func (b *Bus) Dispatch() {
	b.front, b.back = b.back, b.front
	for k := range b.back {
		b.back[k] = b.back[k][:0]
	}
	for t, events := range b.front {
		handlers := b.handlers[t]
		for _, ev := range events {
			for _, h := range handlers {
				h(ev)
			}
		}
	}
}
