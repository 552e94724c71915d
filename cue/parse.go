// Package cue converts narration strings with embedded {{name}} sound
// markers into ordered, cancelable playback sequences.
package cue

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind discriminates the two cue item kinds.
type Kind int

const (
	// KindText is a spoken phrase.
	KindText Kind = iota
	// KindSound references a loaded asset by name.
	KindSound
)

// Item is one segment of a narration request. Immutable once parsed.
type Item struct {
	Kind    Kind
	Content string
}

// ParseError reports malformed cue-marker syntax. It surfaces before any
// playback starts, so partial narration never begins on a bad string.
type ParseError struct {
	Token    string
	Position int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed cue marker %q at token %d", e.Token, e.Position)
}

// markerPattern is the compatibility surface for cue markers: a whole
// whitespace-delimited token of the form {{identifier}}.
var markerPattern = regexp.MustCompile(`^\{\{([A-Za-z0-9_-]+)\}\}$`)

// Parse splits text on whitespace and emits items in source order: runs
// of plain tokens accumulate into one phrase, flushed before each sound
// marker and again at end of string. Zero-length phrases are omitted. A
// token that contains marker braces without being a well-formed marker
// is a *ParseError.
func Parse(text string) ([]Item, error) {
	var (
		items  []Item
		phrase []string
	)

	flush := func() {
		if len(phrase) > 0 {
			items = append(items, Item{Kind: KindText, Content: strings.Join(phrase, " ")})
			phrase = phrase[:0]
		}
	}

	for i, token := range strings.Fields(text) {
		if m := markerPattern.FindStringSubmatch(token); m != nil {
			flush()
			items = append(items, Item{Kind: KindSound, Content: m[1]})
			continue
		}
		if strings.Contains(token, "{{") || strings.Contains(token, "}}") {
			return nil, &ParseError{Token: token, Position: i}
		}
		phrase = append(phrase, token)
	}
	flush()

	return items, nil
}
