package speech

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CacheKey returns the cache filename for an utterance in a given voice,
// so pre-generation tooling can target the same files Speak will look for.
func CacheKey(voiceCode, text string) (string, error) {
	return normalizeFilename(voiceCode + " " + text)
}

// normalizeFilename turns an utterance into a stable ASCII cache key so
// repeated phrases reuse the synthesized file.
func normalizeFilename(text string) (string, error) {
	// Decompose and strip diacritics
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
	)
	normalized, _, err := transform.String(t, text)
	if err != nil {
		return "", err
	}

	filtered := strings.Map(func(r rune) rune {
		if r > 127 {
			return -1
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, normalized)

	filtered = strings.TrimSpace(strings.ToLower(filtered))
	filtered = strings.ReplaceAll(filtered, " ", "_")

	if filtered == "" {
		return "", fmt.Errorf("utterance normalizes to an empty filename")
	}

	return filtered, nil
}
