package linear

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizer_Tokenize(t *testing.T) {
	tests := []struct {
		name      string
		lowercase bool
		text      string
		want      []string
	}{
		{"empty", true, "", []string{}},
		{"whitespace", true, "  \t ", []string{}},
		{"lowercases", true, "WIN a FREE Prize", []string{"win", "free", "prize"}},
		{"keeps case", false, "WIN Prize", []string{"WIN", "Prize"}},
		{"splits on punctuation", true, "call 08712460324 now!!!", []string{"call", "08712460324", "now"}},
		{"drops single runes", true, "don't u see", []string{"don", "see"}},
		{"underscore is a word rune", true, "snake_case", []string{"snake_case"}},
		{"unicode letters", true, "Ñandú café", []string{"ñandú", "café"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewTokenizer(tt.lowercase).Tokenize(tt.text)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
