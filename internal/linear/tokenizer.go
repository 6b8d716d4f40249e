package linear

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// minTokenRunes matches the default scikit-learn token pattern, which only
// keeps word runs of two or more characters
const minTokenRunes = 2

// Tokenizer splits text into vocabulary candidate tokens
type Tokenizer struct {
	lowercase bool
	caser     cases.Caser
}

// NewTokenizer creates a tokenizer, optionally lower-casing input first
func NewTokenizer(lowercase bool) *Tokenizer {
	return &Tokenizer{
		lowercase: lowercase,
		caser:     cases.Lower(language.Und),
	}
}

// Tokenize returns the word tokens of text in order of appearance
func (t *Tokenizer) Tokenize(text string) []string {
	if t.lowercase {
		text = t.caser.String(text)
	}

	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !isWordRune(r)
	})

	out := tokens[:0]
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) >= minTokenRunes {
			out = append(out, tok)
		}
	}
	return out
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
