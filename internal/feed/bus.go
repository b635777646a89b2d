package feed

import (
	"context"
	"sync"
	"sync/atomic"
)

// Bus carries events between writers and subscribers.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe returns a channel of events that is closed when ctx ends.
	Subscribe(ctx context.Context) (<-chan Event, error)
}

const subscriberBuffer = 256

// MemoryBus delivers events to subscribers in the same process.
type MemoryBus struct {
	mu      sync.RWMutex
	subs    map[chan Event]struct{}
	dropped atomic.Int64
}

// NewMemoryBus creates an empty bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[chan Event]struct{})}
}

// Publish hands ev to every subscriber. A subscriber whose buffer is full
// misses the event; Dropped counts those.
func (b *MemoryBus) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
	return nil
}

// Subscribe implements Bus.
func (b *MemoryBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

// Dropped reports how many deliveries were skipped for slow subscribers.
func (b *MemoryBus) Dropped() int64 {
	return b.dropped.Load()
}
