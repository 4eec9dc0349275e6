package notify

import (
	"context"
	"sync"
)

// Broadcaster publishes toasts to per-event SSE subscribers.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[string]map[chan Toast]struct{}
	closed bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[string]map[chan Toast]struct{}),
	}
}

// Subscribe registers a subscriber for one event. The returned cancel func
// removes it and closes the channel; it is safe to call more than once.
func (b *Broadcaster) Subscribe(eventID string) (<-chan Toast, func()) {
	ch := make(chan Toast, 10)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if b.subs[eventID] == nil {
		b.subs[eventID] = make(map[chan Toast]struct{})
	}
	b.subs[eventID][ch] = struct{}{}
	b.mu.Unlock()

	return ch, func() { b.unsubscribe(eventID, ch) }
}

func (b *Broadcaster) unsubscribe(eventID string, ch chan Toast) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[eventID]
	if _, ok := subs[ch]; !ok {
		return
	}
	delete(subs, ch)
	close(ch)
	if len(subs) == 0 {
		delete(b.subs, eventID)
	}
}

// Send delivers a toast to the event's subscribers.
func (b *Broadcaster) Send(_ context.Context, toast Toast) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[toast.EventID] {
		select {
		case ch <- toast:
		default:
			// Drop if the subscriber is lagging.
		}
	}
	return nil
}

func (b *Broadcaster) Subscribers(eventID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[eventID])
}

// Close disconnects every subscriber.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for eventID, subs := range b.subs {
		for ch := range subs {
			close(ch)
		}
		delete(b.subs, eventID)
	}
}
