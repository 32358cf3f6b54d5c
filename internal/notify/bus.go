// Package notify broadcasts completion changes to every open view, so a
// toggle made in one surface shows up in the others without a reload.
package notify

import (
	"sync"
	"time"
)

// CompletionEvent is the cross-view payload for one item's completion change.
type CompletionEvent struct {
	ItemID      string
	IsCompleted bool
	CompletedAt *time.Time
	// Origin names the surface that performed the toggle, so a view can skip
	// its own echo.
	Origin string
}

// Bus fans completion events out to subscribers. The zero value is ready to
// use.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan CompletionEvent
	next int
}

// Subscribe registers a listener and returns its channel plus a cancel
// function. The channel is buffered; a subscriber that falls behind drops
// events rather than blocking the publisher.
func (b *Bus) Subscribe() (<-chan CompletionEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[int]chan CompletionEvent)
	}
	id := b.next
	b.next++
	ch := make(chan CompletionEvent, 64)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every current subscriber. Never blocks.
func (b *Bus) Publish(ev CompletionEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
