// Package notify delivers playback notifications to registered observers.
// Observers are purely observational: delivery is asynchronous and an
// observer can neither block nor alter engine behavior.
package notify

import (
	"log/slog"
	"sync"
)

// Event is a notification emitted by the engine.
type Event interface {
	event()
}

// SoundEffectEvent reports a sound effect starting playback.
type SoundEffectEvent struct {
	Name   string
	Pan    float64
	Volume float64
	Loop   bool
}

func (SoundEffectEvent) event() {}

// SpeakEvent reports a phrase being spoken.
type SpeakEvent struct {
	Text string
}

func (SpeakEvent) event() {}

// Notifier fans events out to subscribed observers.
// The zero value is not usable; use New.
type Notifier struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(Event)
}

// New creates an empty Notifier.
func New() *Notifier {
	return &Notifier{
		subs: make(map[int]func(Event)),
	}
}

// Subscribe registers an observer and returns a function that removes it.
func (n *Notifier) Subscribe(fn func(Event)) (unsubscribe func()) {
	n.mu.Lock()
	id := n.next
	n.next++
	n.subs[id] = fn
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

// Publish delivers ev to every observer. Each observer runs on its own
// goroutine so a slow observer cannot stall the caller.
func (n *Notifier) Publish(ev Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, fn := range n.subs {
		go fn(ev)
	}
}

// LogObserver returns an observer that writes events to the given logger.
// It stands in for the on-screen log of a hosting page.
func LogObserver(l *slog.Logger) func(Event) {
	return func(ev Event) {
		switch e := ev.(type) {
		case SoundEffectEvent:
			l.Info("sound effect",
				slog.String("name", e.Name),
				slog.Float64("pan", e.Pan),
				slog.Float64("volume", e.Volume),
				slog.Bool("loop", e.Loop))
		case SpeakEvent:
			l.Info("speak", slog.String("text", e.Text))
		}
	}
}
