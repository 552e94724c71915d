package speech

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"earshot/logger"
	"earshot/notify"

	"github.com/Duckduckgot/gtts"
	"github.com/Duckduckgot/gtts/voices"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
)

// Player plays a decoded stream through the engine output and reports
// completion. *engine.Engine satisfies this.
type Player interface {
	Stream(s beep.Streamer, format beep.Format, onComplete func())
}

// knownVoices maps best-effort voice names to synthesizer language codes.
var knownVoices = map[string]string{
	"english":    voices.English,
	"french":     voices.French,
	"german":     voices.German,
	"spanish":    voices.Spanish,
	"italian":    voices.Italian,
	"portuguese": voices.Portuguese,
	"dutch":      voices.Dutch,
	"russian":    voices.Russian,
	"japanese":   voices.Japanese,
}

// GoogleSynth synthesizes narration with Google TTS, caching generated
// mp3 files by normalized phrase so repeated narration costs one network
// round trip per phrase.
type GoogleSynth struct {
	player       Player
	notifier     *notify.Notifier
	cacheDir     string
	defaultVoice string
	logger       *slog.Logger
}

// GoogleOption configures a GoogleSynth.
type GoogleOption func(*GoogleSynth)

// WithDefaultVoice sets the voice used when an utterance names none.
func WithDefaultVoice(name string) GoogleOption {
	return func(g *GoogleSynth) { g.defaultVoice = name }
}

// WithNotifier attaches a notifier that receives a SpeakEvent per
// utterance.
func WithNotifier(n *notify.Notifier) GoogleOption {
	return func(g *GoogleSynth) { g.notifier = n }
}

// NewGoogleSynth creates a synthesizer that plays through player and
// caches files under cacheDir.
func NewGoogleSynth(player Player, cacheDir string, opts ...GoogleOption) (*GoogleSynth, error) {
	g := &GoogleSynth{
		player:       player,
		cacheDir:     cacheDir,
		defaultVoice: "english",
		logger:       logger.WithComponent("speech"),
	}
	for _, opt := range opts {
		opt(g)
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create speech cache dir: %w", err)
	}

	return g, nil
}

// Speak synthesizes text (or reuses the cached file) and starts playback.
// Options.OnComplete fires once after audible output ends.
func (g *GoogleSynth) Speak(text string, opts Options) error {
	if opts.Rate != 0 && opts.Rate != 1 {
		g.logger.Debug("speaking rate not supported by synthesizer", slog.Float64("rate", opts.Rate))
	}

	code := g.resolveVoice(opts.Voice)

	filename, err := CacheKey(code, text)
	if err != nil {
		return fmt.Errorf("failed to derive speech cache key: %w", err)
	}

	synth := gtts.Speech{Folder: g.cacheDir, Language: code}
	path, err := synth.CreateSpeechFile(text, filename)
	if err != nil {
		return fmt.Errorf("failed to synthesize speech: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open synthesized speech: %w", err)
	}
	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to decode synthesized speech: %w", err)
	}

	if g.notifier != nil {
		g.notifier.Publish(notify.SpeakEvent{Text: text})
	}
	g.logger.Debug("speak", slog.String("text", text), slog.String("voice", code))

	done := opts.OnComplete
	g.player.Stream(streamer, format, func() {
		streamer.Close()
		if done != nil {
			done()
		}
	})

	return nil
}

// resolveVoice maps a requested voice name to a language code, falling
// back to the default voice silently when the name is unknown.
func (g *GoogleSynth) resolveVoice(name string) string {
	if name == "" {
		name = g.defaultVoice
	}
	if code, ok := knownVoices[strings.ToLower(name)]; ok {
		return code
	}
	if code, ok := knownVoices[strings.ToLower(g.defaultVoice)]; ok {
		return code
	}
	return voices.English
}
