package explain

import (
	"sort"
)

// DefaultTopK is the number of contributions returned when the caller does not ask for a specific count
const DefaultTopK = 10

// Contribution is one vocabulary word's share of a text's spam decision score
type Contribution struct {
	Word  string  `json:"word"`
	Score float64 `json:"score"`
}

// Engine ranks the words of a text by their contribution to the spam score
type Engine struct {
	adapter *Adapter
}

// NewEngine creates an attribution engine for a linear classifier
func NewEngine(clf Classifier) (*Engine, error) {
	adapter, err := NewAdapter(clf)
	if err != nil {
		return nil, err
	}
	return &Engine{adapter: adapter}, nil
}

// NewEngineFromAdapter creates an attribution engine around an existing adapter
func NewEngineFromAdapter(adapter *Adapter) *Engine {
	return &Engine{adapter: adapter}
}

// Adapter returns the underlying classifier adapter
func (e *Engine) Adapter() *Adapter {
	return e.adapter
}

// Contributions returns every present vocabulary feature of text ranked by
// contribution, most spam-supporting first. Ties keep vectorization order.
func (e *Engine) Contributions(text string) ([]Contribution, error) {
	vec, err := e.adapter.Inspect(text)
	if err != nil {
		return nil, err
	}

	contributions := make([]Contribution, 0, len(vec.Features))
	for _, f := range vec.Features {
		word, ok := vec.Words[f.Index]
		if !ok {
			continue
		}
		contributions = append(contributions, Contribution{
			Word:  word,
			Score: f.Value * vec.Weights[f.Index],
		})
	}

	sort.SliceStable(contributions, func(i, j int) bool {
		return contributions[i].Score > contributions[j].Score
	})

	return contributions, nil
}

// Attribute returns the topK highest contributions for text. A topK of zero
// or less selects DefaultTopK. An empty result means no vocabulary overlap.
func (e *Engine) Attribute(text string, topK int) ([]Contribution, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	contributions, err := e.Contributions(text)
	if err != nil {
		return nil, err
	}

	if len(contributions) > topK {
		contributions = contributions[:topK]
	}
	return contributions, nil
}

// Total sums the contribution scores
func Total(contributions []Contribution) float64 {
	total := 0.0
	for _, c := range contributions {
		total += c.Score
	}
	return total
}

// Words returns the words of the contributions in rank order
func Words(contributions []Contribution) []string {
	words := make([]string, len(contributions))
	for i, c := range contributions {
		words[i] = c.Word
	}
	return words
}
