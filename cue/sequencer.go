package cue

import (
	"log/slog"
	"sync"
	"time"

	"earshot/logger"
)

// SoundPlayer dispatches a sound cue. onComplete must fire once after the
// sound finishes naturally.
type SoundPlayer interface {
	Play(name string, onComplete func()) error
}

// SpeechPlayer dispatches a spoken phrase. onComplete must fire once
// after audible output ends.
type SpeechPlayer interface {
	Speak(text string, onComplete func()) error
}

// DefaultSpacing is the gap between consecutive cue items. It keeps
// speech and sound onsets from colliding and lets the listener perceive
// cue boundaries.
const DefaultSpacing = 100 * time.Millisecond

// Sequencer drives parsed narration through the sound and speech ports,
// one item at a time, with inter-item spacing and cancellation. It
// enforces at most one active queue: new narration preempts old
// narration rather than queuing behind it.
type Sequencer struct {
	sound   SoundPlayer
	speech  SpeechPlayer
	spacing time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	current *Queue
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithSpacing overrides the inter-item gap.
func WithSpacing(d time.Duration) Option {
	return func(s *Sequencer) { s.spacing = d }
}

// New creates a sequencer dispatching to the given ports.
func New(sound SoundPlayer, speech SpeechPlayer, opts ...Option) *Sequencer {
	s := &Sequencer{
		sound:   sound,
		speech:  speech,
		spacing: DefaultSpacing,
		logger:  logger.WithComponent("sequencer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enqueue parses text, cancels any currently-active queue, and starts
// dispatching the new one asynchronously. A *ParseError aborts before any
// playback and leaves the previous queue untouched.
func (s *Sequencer) Enqueue(text string) (*Queue, error) {
	items, err := Parse(text)
	if err != nil {
		return nil, err
	}

	q := newQueue(items, s.spacing)

	s.mu.Lock()
	prev := s.current
	s.current = q
	s.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}

	s.logger.Debug("narration enqueued",
		slog.String("queue", q.ID),
		slog.Int("items", len(items)))

	go s.run(q)
	return q, nil
}

// Cancel cancels the currently-active queue, if any.
func (s *Sequencer) Cancel() {
	s.mu.Lock()
	q := s.current
	s.mu.Unlock()
	if q != nil {
		q.Cancel()
	}
}

// Current returns the queue most recently started by Enqueue.
func (s *Sequencer) Current() *Queue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// run is the dispatch loop for one queue. Items play strictly in source
// order, each starting only after the previous item's completion signal
// and the spacing gap. Cancellation is immediate for future items and
// lazy for the in-flight item.
func (s *Sequencer) run(q *Queue) {
	for {
		item, ok := q.pop()
		if !ok {
			return
		}

		done := make(chan struct{}, 1)
		complete := func() {
			select {
			case done <- struct{}{}:
			default:
			}
		}

		var err error
		switch item.Kind {
		case KindText:
			err = s.speech.Speak(item.Content, complete)
		case KindSound:
			err = s.sound.Play(item.Content, complete)
		}
		if err != nil {
			// A failed cue is a caller bug; abort the narration rather
			// than skip it and desynchronize the sequence.
			s.logger.Error("cue dispatch failed",
				slog.String("queue", q.ID),
				slog.String("content", item.Content),
				slog.Any("error", err))
			q.Cancel()
			return
		}

		select {
		case <-done:
		case <-q.Done():
			return
		}

		if !q.Active() {
			return
		}
		if q.Remaining() == 0 {
			q.setState(StateDrained)
			return
		}

		q.setState(StateSpacing)
		select {
		case <-time.After(q.spacing):
		case <-q.Done():
			return
		}
	}
}
