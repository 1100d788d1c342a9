package moderation

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// The dictionary uses specific words to avoid partial collisions
// (e.g., "he" inside "The").
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	dictionary := []string{"badger", "snake", "mushroom"}
	mod, err := NewModerator(dictionary, replacementChar, slog.Default())
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
		words    []string
	}{
		{
			name:     "Simple word and space preservation",
			input:    "The badger is here",
			expected: "The ****** is here",
			words:    []string{"badger"},
		},
		{
			name:     "Multiple occurrences and preserved spacing",
			input:    "badger badger badger",
			expected: "****** ****** ******",
			words:    []string{"badger", "badger", "badger"},
		},
		{
			name:     "Leet speak",
			input:    "watch out for the 5nak3",
			expected: "watch out for the *****",
			words:    []string{"snake"},
		},
		{
			name:     "No match leaves text untouched",
			input:    "a perfectly clean sentence",
			expected: "a perfectly clean sentence",
			words:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			censored, found := mod.Censor(tt.input)
			req.Equal(tt.expected, censored)
			req.Equal(tt.words, found)
		})
	}
}

func TestModerator_Censor_Empty_Input(t *testing.T) {
	req := require.New(t)
	mod, err := NewModerator([]string{"badger"}, replacementChar, slog.Default())
	req.NoError(err)

	censored, found := mod.Censor("")
	req.Empty(censored)
	req.Empty(found)
}

func TestLanguage_Detection(t *testing.T) {
	req := require.New(t)
	req.Equal("en", Language("the quick brown fox jumps over the lazy dog"))
}
