// Package events provides the state-update broadcaster consumed by the
// presentation layer.
package events

import (
	"sync"
	"time"

	"github.com/Ning0612/Cloudbrowse/internal/metrics"
)

// Type identifies what changed
type Type string

const (
	// EntriesReset is published after the entry list was replaced
	EntriesReset Type = "entries_reset"
	// GroupsChanged is published after groups were rebuilt
	GroupsChanged Type = "groups_changed"
	// ThumbnailUpdated is published after a thumbnail was assigned
	ThumbnailUpdated Type = "thumbnail_updated"
	// PathChanged is published after the path stack changed
	PathChanged Type = "path_changed"
	// SelectionModeChanged is published after the derived selection mode changed
	SelectionModeChanged Type = "selection_mode_changed"
	// ListingStarted and ListingFinished bracket a listing
	ListingStarted  Type = "listing_started"
	ListingFinished Type = "listing_finished"
)

// Event is a state change notification. Consumers re-read the state they
// need from the session; the event only carries a summary.
type Event struct {
	Type      Type
	Path      string
	Count     int
	Detail    string
	Timestamp int64
}

// Broadcaster manages subscribers and publishes events.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[<-chan Event]chan Event
	closed      bool
}

// NewBroadcaster creates a new event broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[<-chan Event]chan Event),
	}
}

// Subscribe adds a new subscriber and returns its event channel.
// The caller must call Unsubscribe when done. Only the broadcaster sends
// on or closes the channel.
func (b *Broadcaster) Subscribe() <-chan Event {
	ch := make(chan Event, 64)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subscribers[ch] = ch
	}
	b.mu.Unlock()
	metrics.SetSubscribersActive(int64(b.Count()))
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	if send, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(send)
	}
	b.mu.Unlock()
	metrics.SetSubscribersActive(int64(b.Count()))
}

// Publish sends an event to all subscribers. Non-blocking: drops events
// for slow consumers.
func (b *Broadcaster) Publish(event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixNano()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Drop event for slow consumer
		}
	}
	metrics.RecordEvent(string(event.Type))
}

// Count returns the current number of subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes every subscriber channel; later subscriptions receive a
// closed channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for key, ch := range b.subscribers {
		delete(b.subscribers, key)
		close(ch)
	}
}
