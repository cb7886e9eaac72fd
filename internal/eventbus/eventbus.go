// Package eventbus provides an in-process, type-safe publish/subscribe bus.
package eventbus

import "sync"

// DefaultBuffer is the subscriber channel capacity used when none is given.
const DefaultBuffer = 8

// Bus fans events of type T out to its subscribers. Publish never blocks: a
// subscriber whose buffer is full misses the event rather than stalling the
// publisher.
type Bus[T any] struct {
	buffer int

	mu     sync.RWMutex
	subs   []chan T
	closed bool
}

// New creates a Bus whose subscriber channels hold up to buffer events.
// A non-positive buffer falls back to DefaultBuffer.
func New[T any](buffer int) *Bus[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus[T]{buffer: buffer}
}

// Publish sends the event to all subscribers, dropping it for any whose
// buffer is full.
func (b *Bus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a subscriber and returns its channel. Subscribing to a
// closed bus yields an already-closed channel.
func (b *Bus[T]) Subscribe() <-chan T {
	ch := make(chan T, b.buffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close closes the bus and every subscriber channel.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
