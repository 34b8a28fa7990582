package notifier

import (
	"context"
	"sync"

	"room-service/internal/models"
)

// MemoryNotifier is an in-process Notifier used when Redis is not configured
// and in tests. Delivery is best-effort: a subscriber with a full buffer
// drops the event rather than blocking the publisher.
type MemoryNotifier struct {
	mu     sync.Mutex
	subs   map[int]chan models.ChangeEvent
	nextID int
	closed bool
}

// NewMemoryNotifier creates an empty in-process notifier.
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{subs: make(map[int]chan models.ChangeEvent)}
}

// Publish delivers the event to every live subscriber.
func (n *MemoryNotifier) Publish(ctx context.Context, event models.ChangeEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, sub := range n.subs {
		select {
		case sub <- event:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber and returns its channel with a disposer.
func (n *MemoryNotifier) Subscribe(ctx context.Context) (<-chan models.ChangeEvent, func(), error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	events := make(chan models.ChangeEvent, 64)
	n.subs[id] = events

	dispose := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if sub, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(sub)
		}
	}
	return events, dispose, nil
}

// Close drops all subscribers.
func (n *MemoryNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil
	}
	n.closed = true
	for id, sub := range n.subs {
		delete(n.subs, id)
		close(sub)
	}
	return nil
}
