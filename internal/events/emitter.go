// Package events provides a synchronous publish/subscribe emitter for change
// notifications.
package events

import "sync"

// Disposable releases a subscription or other registration.
type Disposable interface {
	Dispose()
}

// Nop is a Disposable that does nothing.
type Nop struct{}

func (Nop) Dispose() {}

type listener[T any] struct {
	id uint64
	fn func(T)
}

// Emitter delivers each fired value to every current subscriber, in
// subscription order, on the firing goroutine. Past values are not kept.
type Emitter[T any] struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners []listener[T]
}

// NewEmitter creates an emitter with no subscribers.
func NewEmitter[T any]() *Emitter[T] {
	return &Emitter[T]{}
}

// Subscribe registers fn for all future values until the returned
// subscription is disposed.
func (e *Emitter[T]) Subscribe(fn func(T)) Disposable {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.listeners = append(e.listeners, listener[T]{id: id, fn: fn})
	return &subscription[T]{emitter: e, id: id}
}

// Fire delivers v to the subscribers registered at the time of the call.
func (e *Emitter[T]) Fire(v T) {
	e.mu.RLock()
	snapshot := make([]listener[T], len(e.listeners))
	copy(snapshot, e.listeners)
	e.mu.RUnlock()

	for _, l := range snapshot {
		l.fn(v)
	}
}

// Count returns the current number of subscribers.
func (e *Emitter[T]) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners)
}

func (e *Emitter[T]) remove(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, l := range e.listeners {
		if l.id == id {
			e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
			return
		}
	}
}

type subscription[T any] struct {
	emitter *Emitter[T]
	id      uint64
	once    sync.Once
}

func (s *subscription[T]) Dispose() {
	s.once.Do(func() { s.emitter.remove(s.id) })
}
