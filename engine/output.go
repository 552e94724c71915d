package engine

import (
	"fmt"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Output is the speaker device behind the engine. The engine talks to the
// platform only through this port so it can run against a fake in tests.
type Output interface {
	// Init opens the device at the given sample rate and buffer size.
	Init(sampleRate beep.SampleRate, bufferSize int) error

	// Play adds streamers to the device mixer.
	Play(s ...beep.Streamer)

	// Lock and Unlock guard mutation of streamers the device is reading.
	Lock()
	Unlock()

	// Close releases the device.
	Close() error
}

// SpeakerOutput drives the real speaker device.
type SpeakerOutput struct{}

func (SpeakerOutput) Init(sampleRate beep.SampleRate, bufferSize int) error {
	if err := speaker.Init(sampleRate, bufferSize); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}
	return nil
}

func (SpeakerOutput) Play(s ...beep.Streamer) { speaker.Play(s...) }

func (SpeakerOutput) Lock() { speaker.Lock() }

func (SpeakerOutput) Unlock() { speaker.Unlock() }

func (SpeakerOutput) Close() error {
	speaker.Close()
	return nil
}
