package cue

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// dispatched records one port invocation with its dispatch time.
type dispatched struct {
	kind    Kind
	content string
	at      time.Time
}

// recorder collects dispatches across both fake ports.
type recorder struct {
	mu     sync.Mutex
	events []dispatched
}

func (r *recorder) add(kind Kind, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, dispatched{kind: kind, content: content, at: time.Now()})
}

func (r *recorder) snapshot() []dispatched {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]dispatched, len(r.events))
	copy(out, r.events)
	return out
}

// fakePorts implements SoundPlayer and SpeechPlayer, completing each item
// after a fixed delay. Items named failOn return an error instead.
type fakePorts struct {
	rec    *recorder
	delay  time.Duration
	failOn string
}

func (f *fakePorts) Play(name string, onComplete func()) error {
	if name == f.failOn {
		return errors.New("dispatch failure")
	}
	f.rec.add(KindSound, name)
	go func() {
		time.Sleep(f.delay)
		onComplete()
	}()
	return nil
}

func (f *fakePorts) Speak(text string, onComplete func()) error {
	if text == f.failOn {
		return errors.New("dispatch failure")
	}
	f.rec.add(KindText, text)
	go func() {
		time.Sleep(f.delay)
		onComplete()
	}()
	return nil
}

func newTestSequencer(t *testing.T, delay, spacing time.Duration) (*Sequencer, *recorder, *fakePorts) {
	t.Helper()
	rec := &recorder{}
	ports := &fakePorts{rec: rec, delay: delay}
	return New(ports, ports, WithSpacing(spacing)), rec, ports
}

func waitForState(t *testing.T, q *Queue, want State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return q.State() == want
	}, 3*time.Second, 5*time.Millisecond, "queue never reached state %s", want)
}

func TestSequencerDispatchOrderAndSpacing(t *testing.T) {
	const (
		delay   = 10 * time.Millisecond
		spacing = 30 * time.Millisecond
	)
	seq, rec, _ := newTestSequencer(t, delay, spacing)

	q, err := seq.Enqueue("You win {{win}} great job")
	require.NoError(t, err)

	waitForState(t, q, StateDrained)
	require.False(t, q.Active())
	require.Zero(t, q.Remaining())

	events := rec.snapshot()
	require.Len(t, events, 3)
	require.Equal(t, dispatched{KindText, "You win", events[0].at}, events[0])
	require.Equal(t, dispatched{KindSound, "win", events[1].at}, events[1])
	require.Equal(t, dispatched{KindText, "great job", events[2].at}, events[2])

	// Each item starts only after the previous item completed plus the
	// spacing floor.
	for i := 1; i < len(events); i++ {
		gap := events[i].at.Sub(events[i-1].at)
		require.GreaterOrEqual(t, gap, delay+spacing,
			"item %d dispatched %s after item %d, want at least %s", i, gap, i-1, delay+spacing)
	}
}

func TestSequencerEmptyNarrationDrainsImmediately(t *testing.T) {
	seq, rec, _ := newTestSequencer(t, time.Millisecond, time.Millisecond)

	q, err := seq.Enqueue("   ")
	require.NoError(t, err)

	waitForState(t, q, StateDrained)
	require.Empty(t, rec.snapshot())
}

func TestSequencerParseErrorBeforePlayback(t *testing.T) {
	seq, rec, _ := newTestSequencer(t, time.Millisecond, time.Millisecond)

	q, err := seq.Enqueue("broken {{marker")
	require.Nil(t, q)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Empty(t, rec.snapshot(), "no playback may start on a malformed string")
	require.Nil(t, seq.Current())
}

func TestSequencerParseErrorLeavesActiveQueueAlone(t *testing.T) {
	seq, _, _ := newTestSequencer(t, 50*time.Millisecond, 10*time.Millisecond)

	q1, err := seq.Enqueue("one two {{a}} three four {{b}} five")
	require.NoError(t, err)

	_, err = seq.Enqueue("bad }}token")
	require.Error(t, err)

	require.True(t, q1.Active())
	require.Same(t, q1, seq.Current())
	q1.Cancel()
}

func TestSequencerNewNarrationPreemptsOld(t *testing.T) {
	seq, rec, _ := newTestSequencer(t, 100*time.Millisecond, 10*time.Millisecond)

	q1, err := seq.Enqueue("first {{a}} second {{b}} third")
	require.NoError(t, err)

	// Let the first item go out, then preempt.
	require.Eventually(t, func() bool {
		return len(rec.snapshot()) >= 1
	}, time.Second, time.Millisecond)

	q2, err := seq.Enqueue("replacement narration")
	require.NoError(t, err)

	require.Equal(t, StateCanceled, q1.State())
	require.Zero(t, q1.Remaining())

	waitForState(t, q2, StateDrained)

	// Nothing from the old queue was dispatched after the new call.
	for _, ev := range rec.snapshot()[1:] {
		require.Equal(t, "replacement narration", ev.content,
			"old queue dispatched %q after being replaced", ev.content)
	}
}

func TestSequencerCancelStopsFutureItems(t *testing.T) {
	seq, rec, _ := newTestSequencer(t, 30*time.Millisecond, 10*time.Millisecond)

	q, err := seq.Enqueue("alpha {{a}} beta {{b}} gamma")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) >= 1
	}, time.Second, time.Millisecond)

	seq.Cancel()
	require.Equal(t, StateCanceled, q.State())
	require.False(t, q.Active())

	// The in-flight item finishes naturally; nothing further is dispatched.
	seen := len(rec.snapshot())
	time.Sleep(100 * time.Millisecond)
	require.Len(t, rec.snapshot(), seen)
}

func TestSequencerCancelIsIdempotent(t *testing.T) {
	seq, _, _ := newTestSequencer(t, time.Millisecond, time.Millisecond)

	q, err := seq.Enqueue("hello {{a}}")
	require.NoError(t, err)

	q.Cancel()
	q.Cancel()
	seq.Cancel()
	require.Equal(t, StateCanceled, q.State())
}

func TestSequencerDispatchErrorAbortsNarration(t *testing.T) {
	seq, rec, ports := newTestSequencer(t, time.Millisecond, time.Millisecond)
	ports.failOn = "missing"

	q, err := seq.Enqueue("before {{missing}} after")
	require.NoError(t, err)

	waitForState(t, q, StateCanceled)

	// Only the leading phrase was dispatched; the failed cue aborted the
	// rest instead of skipping it.
	events := rec.snapshot()
	require.Len(t, events, 1)
	require.Equal(t, "before", events[0].content)
}
