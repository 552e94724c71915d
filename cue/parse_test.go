package cue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Item
	}{
		{
			name:  "text only",
			input: "you found the key",
			want:  []Item{{KindText, "you found the key"}},
		},
		{
			name:  "single marker between phrases",
			input: "You win {{win}} great job",
			want: []Item{
				{KindText, "You win"},
				{KindSound, "win"},
				{KindText, "great job"},
			},
		},
		{
			name:  "leading marker",
			input: "{{ding}} round two",
			want: []Item{
				{KindSound, "ding"},
				{KindText, "round two"},
			},
		},
		{
			name:  "trailing marker",
			input: "game over {{gong}}",
			want: []Item{
				{KindText, "game over"},
				{KindSound, "gong"},
			},
		},
		{
			name:  "consecutive markers produce no empty phrase",
			input: "{{a}} {{b}}",
			want: []Item{
				{KindSound, "a"},
				{KindSound, "b"},
			},
		},
		{
			name:  "markers only",
			input: "{{tick}} {{tock}} {{tick}}",
			want: []Item{
				{KindSound, "tick"},
				{KindSound, "tock"},
				{KindSound, "tick"},
			},
		},
		{
			name:  "whitespace runs collapse inside a phrase",
			input: "  move   left   {{swish}}  ",
			want: []Item{
				{KindText, "move left"},
				{KindSound, "swish"},
			},
		},
		{
			name:  "identifier with underscore and dash",
			input: "{{coin_up-2}}",
			want:  []Item{{KindSound, "coin_up-2"}},
		},
		{
			name:  "empty string",
			input: "",
			want:  nil,
		},
		{
			name:  "whitespace only",
			input: "   \t ",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseMalformedMarkers(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unterminated marker", "play {{win now"},
		{"unopened marker", "play win}} now"},
		{"marker embedded in a larger token", "say{{win}}fast"},
		{"marker with inner space splits into bad tokens", "play {{my sound}} now"},
		{"empty identifier", "play {{}} now"},
		{"invalid identifier characters", "play {{a.b}} now"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := Parse(tt.input)
			require.Nil(t, items)

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestParseMarkerCountMatchesSource(t *testing.T) {
	items, err := Parse("a {{x}} b {{y}} c {{z}} d")
	require.NoError(t, err)

	sounds := 0
	texts := 0
	for _, item := range items {
		switch item.Kind {
		case KindSound:
			sounds++
		case KindText:
			texts++
		}
	}
	require.Equal(t, 3, sounds)
	require.LessOrEqual(t, texts, sounds+1)
}
