// Package speech is the narration port: a Speaker turns text into audible
// speech and reports completion exactly once per utterance.
package speech

// Options controls one utterance.
type Options struct {
	// Voice is a best-effort voice name. Unknown names fall back to the
	// synthesizer's default voice silently.
	Voice string

	// Rate is the speaking rate multiplier, 1 being normal. Synthesizers
	// that cannot vary rate ignore it.
	Rate float64

	// OnComplete fires exactly once after audible output ends, or never
	// if the utterance is interrupted.
	OnComplete func()
}

// Speaker synthesizes and plays one utterance. Speak returns once
// playback has been handed to the audio device; completion is reported
// through Options.OnComplete.
type Speaker interface {
	Speak(text string, opts Options) error
}
