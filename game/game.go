// Package game exposes the single facade object audio games interact
// with: sound loading, discrete and looping playback, narration with
// embedded sound cues, and the engine clock. There is no shared global
// engine; each Game is an explicit object injected into game logic.
package game

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"earshot/config"
	"earshot/cue"
	"earshot/engine"
	"earshot/library"
	"earshot/logger"
	"earshot/notify"
	"earshot/search"
	"earshot/speech"
)

// Game composes the sound library, playback engine, speech port, and cue
// sequencer.
type Game struct {
	cfg      *config.Config
	lib      *library.Library
	engine   *engine.Engine
	speaker  speech.Speaker
	seq      *cue.Sequencer
	notifier *notify.Notifier
	logger   *slog.Logger

	mu      sync.Mutex
	current *cue.Queue
}

type settings struct {
	engineOpts []engine.Option
	speaker    speech.Speaker
	searcher   *search.Client
}

// Option configures a Game.
type Option func(*settings)

// WithEngineOptions forwards options to the playback engine, mainly to
// swap the output device in tests.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *settings) { s.engineOpts = append(s.engineOpts, opts...) }
}

// WithSpeaker overrides the speech synthesizer.
func WithSpeaker(sp speech.Speaker) Option {
	return func(s *settings) { s.speaker = sp }
}

// WithSearchClient overrides the content-search provider.
func WithSearchClient(c *search.Client) Option {
	return func(s *settings) { s.searcher = c }
}

// New builds a Game from configuration.
func New(cfg *config.Config, opts ...Option) (*Game, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	notifier := notify.New()

	searcher := s.searcher
	if searcher == nil && cfg.Search.APIKey != "" {
		searcher = search.NewClient(cfg.Search.APIKey,
			search.WithBaseURL(cfg.Search.BaseURL),
			search.WithMaxDuration(cfg.Search.MaxDuration))
	}

	var libOpts []library.Option
	if searcher != nil {
		libOpts = append(libOpts, library.WithSearch(searcher))
	}
	lib := library.New(libOpts...)

	engineOpts := append([]engine.Option{engine.WithSampleRate(cfg.Audio.SampleRate)}, s.engineOpts...)
	eng, err := engine.New(lib, notifier, cfg.Audio.Buffer, engineOpts...)
	if err != nil {
		return nil, err
	}

	speaker := s.speaker
	if speaker == nil {
		speaker, err = speech.NewGoogleSynth(eng, cfg.Speech.CacheDir,
			speech.WithDefaultVoice(cfg.Speech.Voice),
			speech.WithNotifier(notifier))
		if err != nil {
			eng.Close()
			return nil, err
		}
	}

	g := &Game{
		cfg:      cfg,
		lib:      lib,
		engine:   eng,
		speaker:  speaker,
		notifier: notifier,
		logger:   logger.WithComponent("game"),
	}
	g.seq = cue.New(
		soundPort{eng},
		speakerPort{speaker, cfg.Speech.Voice},
		cue.WithSpacing(cfg.Sequencer.Spacing),
	)

	return g, nil
}

// AddSound loads a sound from a URL or local path and registers it under
// name.
func (g *Game) AddSound(ctx context.Context, name, source string) (*library.Asset, error) {
	return g.lib.Load(ctx, name, source)
}

// AddSoundFromSearch resolves query through the content-search provider
// and registers the best match under name.
func (g *Game) AddSoundFromSearch(ctx context.Context, name, query string) (*library.Asset, error) {
	return g.lib.LoadSearch(ctx, name, query)
}

// Play starts a loaded sound.
func (g *Game) Play(name string, opts ...engine.PlayOption) (*engine.Handle, error) {
	return g.engine.Play(name, opts...)
}

// StopLoop stops every active loop registered under name.
func (g *Game) StopLoop(name string) {
	g.engine.StopLoop(name)
}

// Speak speaks a single utterance with the configured voice. No queue is
// involved; concurrent narration is the caller's problem here.
func (g *Game) Speak(text string) error {
	return g.speaker.Speak(text, speech.Options{Voice: g.cfg.Speech.Voice})
}

// SpeakWithSoundEffects parses text for {{name}} cue markers and plays
// the resulting sequence, canceling any narration still in flight.
func (g *Game) SpeakWithSoundEffects(text string) (*cue.Queue, error) {
	q, err := g.seq.Enqueue(text)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.current = q
	g.mu.Unlock()
	return q, nil
}

// CancelNarration cancels the narration started by the most recent
// SpeakWithSoundEffects call.
func (g *Game) CancelNarration() {
	g.seq.Cancel()
}

// Narration returns the most recently started narration queue, or nil.
func (g *Game) Narration() *cue.Queue {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Now returns monotonic seconds on the engine clock. Games must schedule
// against this, not wall-clock time.
func (g *Game) Now() float64 {
	return g.engine.Now()
}

// Unlock plays a brief tone to satisfy platform autoplay-unlock rules.
// Call it once after the first user input.
func (g *Game) Unlock() {
	g.engine.PlayTone(440, 150*time.Millisecond)
}

// Subscribe registers a notification observer and returns its remover.
func (g *Game) Subscribe(fn func(notify.Event)) (unsubscribe func()) {
	return g.notifier.Subscribe(fn)
}

// Close cancels narration and releases the audio device.
func (g *Game) Close() error {
	g.seq.Cancel()
	return g.engine.Close()
}

// soundPort adapts the engine to the sequencer's sound dispatch port.
type soundPort struct {
	engine *engine.Engine
}

func (p soundPort) Play(name string, onComplete func()) error {
	_, err := p.engine.Play(name, engine.WithOnComplete(onComplete))
	return err
}

// speakerPort adapts the speech port to the sequencer, pinning the
// configured voice for every phrase in a queue.
type speakerPort struct {
	speaker speech.Speaker
	voice   string
}

func (p speakerPort) Speak(text string, onComplete func()) error {
	return p.speaker.Speak(text, speech.Options{Voice: p.voice, OnComplete: onComplete})
}
