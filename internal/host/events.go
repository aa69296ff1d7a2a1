package host

import (
	"sync"
)

// EventRef is the handle returned by a subscription.
type EventRef interface {
	// Unsubscribe removes the handler. Calling it more than once is a no-op.
	Unsubscribe()
}

// EventRefFunc adapts a function to EventRef.
type EventRefFunc func()

// Unsubscribe calls f.
func (f EventRefFunc) Unsubscribe() { f() }

// UnsubscribeAll releases every ref in refs.
func UnsubscribeAll(refs []EventRef) {
	for _, ref := range refs {
		if ref != nil {
			ref.Unsubscribe()
		}
	}
}

// Emitter is a typed publish/subscribe channel. The zero value is ready to
// use. Handlers run synchronously on the emitting goroutine in subscription
// order.
type Emitter[T any] struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[uint64]func(T)
	order    []uint64
}

// On registers fn and returns a handle that removes it.
func (e *Emitter[T]) On(fn func(T)) EventRef {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.handlers == nil {
		e.handlers = make(map[uint64]func(T))
	}

	e.nextID++
	id := e.nextID
	e.handlers[id] = fn
	e.order = append(e.order, id)

	var once sync.Once

	return EventRefFunc(func() {
		once.Do(func() { e.remove(id) })
	})
}

// Emit delivers v to every registered handler.
func (e *Emitter[T]) Emit(v T) {
	e.mu.RLock()
	fns := make([]func(T), 0, len(e.order))

	for _, id := range e.order {
		fns = append(fns, e.handlers[id])
	}
	e.mu.RUnlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the number of registered handlers.
func (e *Emitter[T]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.order)
}

func (e *Emitter[T]) remove(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.handlers, id)

	for i, v := range e.order {
		if v == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}
