package main

import (
	"fmt"

	"earshot/speech"

	"github.com/Duckduckgot/gtts"
	"github.com/Duckduckgot/gtts/voices"
)

// Pre-synthesizes the stock narration phrases into the speech cache so a
// game can run its first round without waiting on the synthesizer.

var synth = gtts.Speech{Folder: "speech-cache", Language: voices.English}

func main() {
	Audio("Welcome to earshot")
	Audio("You win")
	Audio("You lose")
	Audio("Try again")
	Audio("Great job")

	for i := 0; i < 10; i++ {
		Audio(fmt.Sprintf("%d", i))
	}
}

func Audio(text string) {
	filename, err := speech.CacheKey(voices.English, text)
	handleError(err)
	_, err = synth.CreateSpeechFile(text, filename)
	handleError(err)
}

func handleError(err error) {
	if err != nil {
		panic(fmt.Sprintf("Error generating audio: %s", err.Error()))
	}
}
