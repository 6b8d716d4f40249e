package explain

import (
	"strings"
)

// Punctuation lists the characters stripped from both ends of a token before matching
const Punctuation = ".,!?;:()[]\"'"

// Marker wraps a highlighted token
type Marker struct {
	Open  string
	Close string
}

// DefaultMarker is an HTML mark element
var DefaultMarker = Marker{Open: "<mark>", Close: "</mark>"}

// Canonical lower-cases a surface token and strips surrounding punctuation.
// It is used for matching only, never for display.
func Canonical(token string) string {
	return strings.Trim(strings.ToLower(token), Punctuation)
}

// Highlight marks the tokens of text whose canonical form is one of the ranked words
func Highlight(text string, ranked []Contribution) string {
	return HighlightWith(text, ranked, DefaultMarker)
}

// HighlightWith is Highlight with a caller-supplied marker.
//
// Text is split on whitespace and re-joined with single spaces, so runs of
// whitespace collapse and leading or trailing whitespace is dropped.
func HighlightWith(text string, ranked []Contribution, marker Marker) string {
	tokens := strings.Fields(text)

	words := make(map[string]struct{}, len(ranked))
	for _, c := range ranked {
		words[strings.ToLower(c.Word)] = struct{}{}
	}

	out := make([]string, len(tokens))
	for i, token := range tokens {
		if _, ok := words[Canonical(token)]; ok {
			out[i] = marker.Open + token + marker.Close
			continue
		}
		out[i] = token
	}

	return strings.Join(out, " ")
}
