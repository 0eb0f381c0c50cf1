// Package broadcast provides a small generic fan-out publisher used by the
// drive coordinator and its collaborators to implement the ready/content/
// update/append/error event signals.
package broadcast

import "sync"

// Publisher delivers every published value of type T to every currently
// registered subscriber. A slow subscriber drops events rather than stalling
// the publisher.
type Publisher[T any] struct {
	mu   sync.Mutex
	subs map[int]chan T
	next int
}

func New[T any]() *Publisher[T] {
	return &Publisher[T]{subs: make(map[int]chan T)}
}

// Subscribe registers a new listener. Call the returned func to unsubscribe
// and close the channel.
func (p *Publisher[T]) Subscribe() (<-chan T, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.next
	p.next++
	ch := make(chan T, 32)
	p.subs[id] = ch
	return ch, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if ch, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(ch)
		}
	}
}

func (p *Publisher[T]) Publish(v T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subs {
		select {
		case ch <- v:
		default:
		}
	}
}
