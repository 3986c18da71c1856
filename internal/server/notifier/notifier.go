// Package notifier fans store changes out to live event subscribers.
package notifier

import "sync"

// Kind names what changed.
type Kind string

// Event kinds.
const (
	CanvasSaved    Kind = "canvas_saved"
	CanvasImported Kind = "canvas_imported"
	PlanRecorded   Kind = "plan_recorded"
)

// Event describes one change. Canvas is the canvas name when known.
type Event struct {
	Kind   Kind   `json:"kind"`
	Canvas string `json:"canvas,omitempty"`
}

// Notifier delivers events to every subscriber. Slow subscribers only keep
// the most recent pending event; they re-read the store on wake-up anyway.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan Event]struct{}
}

// New creates a Notifier.
func New() *Notifier {
	return &Notifier{listeners: make(map[chan Event]struct{})}
}

// Subscribe registers a listener. The returned cancel func must be called
// to release it.
func (n *Notifier) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, ch)
			n.mu.Unlock()
			close(ch)
		})
	}
}

// Publish sends ev to all listeners without blocking.
func (n *Notifier) Publish(ev Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- ev:
		default:
			// Replace the stale pending event.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// Len returns the number of active subscribers.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
