// Package engine turns named assets into audible output with
// deterministic timing semantics and owns the authoritative clock.
package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"earshot/library"
	"earshot/logger"
	"earshot/notify"

	"github.com/google/uuid"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/generators"
)

// Handle represents one in-flight sound instance. One-shot handles are
// fire-and-forget; looping handles stay in the active-loop registry
// until stopped by name.
type Handle struct {
	ID     string
	Name   string
	Loop   bool
	Volume float64
	Pan    float64

	// StartedAt is the engine-clock time the play call was issued,
	// before any start offset.
	StartedAt float64

	ctrl *beep.Ctrl
	live bool
}

// PlayOptions configures one play call.
type PlayOptions struct {
	Volume      float64
	Pan         float64
	Loop        bool
	StartOffset time.Duration
	OnComplete  func()
}

// PlayOption mutates PlayOptions.
type PlayOption func(*PlayOptions)

// WithVolume sets the per-voice volume in (0, 1]. Default 1.
func WithVolume(v float64) PlayOption {
	return func(o *PlayOptions) { o.Volume = v }
}

// WithPan sets stereo position in [-1, 1], 0 being center. Default 0.
func WithPan(p float64) PlayOption {
	return func(o *PlayOptions) { o.Pan = p }
}

// WithLoop makes the sound loop until StopLoop is called with its name.
func WithLoop() PlayOption {
	return func(o *PlayOptions) { o.Loop = true }
}

// WithStartOffset delays the onset relative to Now.
func WithStartOffset(d time.Duration) PlayOption {
	return func(o *PlayOptions) { o.StartOffset = d }
}

// WithOnComplete registers a completion callback. It fires once after the
// sound finishes naturally; it never fires for a looping sound.
func WithOnComplete(fn func()) PlayOption {
	return func(o *PlayOptions) { o.OnComplete = fn }
}

// Engine is the playback engine.
type Engine struct {
	lib      *library.Library
	notifier *notify.Notifier
	out      Output

	sampleRate beep.SampleRate
	started    time.Time
	logger     *slog.Logger

	mu     sync.Mutex
	loops  []*Handle
	closed bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithOutput overrides the speaker device, mainly for tests.
func WithOutput(out Output) Option {
	return func(e *Engine) { e.out = out }
}

// WithSampleRate overrides the output sample rate.
func WithSampleRate(sr int) Option {
	return func(e *Engine) { e.sampleRate = beep.SampleRate(sr) }
}

// New creates an engine playing assets from lib and reporting observable
// side effects to notifier. The engine clock starts at zero here.
func New(lib *library.Library, notifier *notify.Notifier, buffer time.Duration, opts ...Option) (*Engine, error) {
	e := &Engine{
		lib:        lib,
		notifier:   notifier,
		out:        SpeakerOutput{},
		sampleRate: beep.SampleRate(44100),
		logger:     logger.WithComponent("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}

	if buffer <= 0 {
		buffer = 100 * time.Millisecond
	}
	if err := e.out.Init(e.sampleRate, e.sampleRate.N(buffer)); err != nil {
		return nil, fmt.Errorf("failed to open audio output: %w", err)
	}
	e.started = time.Now()

	return e, nil
}

// Now returns monotonically non-decreasing seconds since engine creation.
// This is the timebase for all scheduling against playback.
func (e *Engine) Now() float64 {
	return time.Since(e.started).Seconds()
}

// SampleRate returns the output sample rate.
func (e *Engine) SampleRate() beep.SampleRate {
	return e.sampleRate
}

// Play looks up the asset and starts it with the given options. Fails
// with *NotFoundError if the name is unregistered; in that case no audio
// graph is built and no notification is emitted.
func (e *Engine) Play(name string, opts ...PlayOption) (*Handle, error) {
	o := PlayOptions{Volume: 1}
	for _, opt := range opts {
		opt(&o)
	}

	asset, ok := e.lib.Get(name)
	if !ok {
		return nil, &NotFoundError{Name: name}
	}

	handle := &Handle{
		ID:        uuid.NewString(),
		Name:      name,
		Loop:      o.Loop,
		Volume:    o.Volume,
		Pan:       o.Pan,
		StartedAt: e.Now(),
		live:      o.Loop,
	}

	var streamer beep.Streamer = asset.Streamer()
	if o.Loop {
		streamer = beep.Loop(-1, asset.Streamer())
	}
	if asset.Format.SampleRate != e.sampleRate {
		streamer = beep.Resample(4, asset.Format.SampleRate, e.sampleRate, streamer)
	}
	streamer = e.buildGraph(streamer, o)

	handle.ctrl = &beep.Ctrl{Streamer: streamer}

	if o.Loop {
		e.mu.Lock()
		e.loops = append(e.loops, handle)
		e.mu.Unlock()
	}

	e.out.Play(handle.ctrl)

	e.logger.Debug("play",
		slog.String("name", name),
		slog.Bool("loop", o.Loop),
		slog.Float64("volume", o.Volume),
		slog.Float64("pan", o.Pan))
	e.notifier.Publish(notify.SoundEffectEvent{
		Name:   name,
		Pan:    o.Pan,
		Volume: o.Volume,
		Loop:   o.Loop,
	})

	return handle, nil
}

// buildGraph assembles source -> [volume] -> [pan] -> output, inserting
// stages only when they differ from the identity. A completion callback
// is appended after the source for one-shot plays; it is re-dispatched on
// a fresh goroutine because the device fires it under its own lock.
func (e *Engine) buildGraph(streamer beep.Streamer, o PlayOptions) beep.Streamer {
	if o.Volume != 1 {
		streamer = &effects.Volume{
			Streamer: streamer,
			Base:     2,
			Volume:   math.Log2(o.Volume),
			Silent:   o.Volume <= 0,
		}
	}
	if o.Pan != 0 {
		streamer = &effects.Pan{Streamer: streamer, Pan: o.Pan}
	}
	if !o.Loop && o.OnComplete != nil {
		done := o.OnComplete
		streamer = beep.Seq(streamer, beep.Callback(func() {
			go done()
		}))
	}
	if o.StartOffset > 0 {
		streamer = beep.Seq(beep.Silence(e.sampleRate.N(o.StartOffset)), streamer)
	}
	return streamer
}

// StopLoop stops every live loop registered under name, then compacts the
// registry. Stopping a name with no live loop is a no-op, and two loops
// started under one name are both stopped by a single call.
func (e *Engine) StopLoop(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	stopped := 0
	kept := e.loops[:0]
	for _, h := range e.loops {
		if h.live && h.Name == name {
			e.out.Lock()
			h.ctrl.Streamer = nil
			e.out.Unlock()
			h.live = false
			stopped++
			continue
		}
		if h.live {
			kept = append(kept, h)
		}
	}
	e.loops = kept

	if stopped > 0 {
		e.logger.Debug("stopped loop", slog.String("name", name), slog.Int("instances", stopped))
	}
}

// PlayTone emits a brief synthesized sine tone, bypassing the library,
// the loop registry, and the notifier. Games use it once after first
// input to satisfy platform autoplay-unlock rules.
func (e *Engine) PlayTone(freq float64, duration time.Duration) {
	tone, err := generators.SineTone(e.sampleRate, freq)
	if err != nil {
		e.logger.Warn("failed to generate tone", slog.Float64("freq", freq), slog.Any("error", err))
		return
	}
	e.out.Play(beep.Take(e.sampleRate.N(duration), tone))
}

// Stream plays an already-decoded streamer through the engine output,
// resampling if needed, and fires onComplete once after it drains. The
// speech synthesizer feeds its utterances through here.
func (e *Engine) Stream(s beep.Streamer, format beep.Format, onComplete func()) {
	if format.SampleRate != 0 && format.SampleRate != e.sampleRate {
		s = beep.Resample(4, format.SampleRate, e.sampleRate, s)
	}
	if onComplete != nil {
		done := onComplete
		s = beep.Seq(s, beep.Callback(func() {
			go done()
		}))
	}
	e.out.Play(s)
}

// Close stops all playback and releases the output device.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.loops = nil

	return e.out.Close()
}
