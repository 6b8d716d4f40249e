package linear

import (
	"fmt"
	"math"
	"sort"

	"github.com/mikey/sms-spam-explainer/internal/explain"
	"gonum.org/v1/gonum/floats"
)

// Model is a TF-IDF vectorizer followed by a binary logistic regression.
// It is immutable once built and safe for concurrent use.
type Model struct {
	id          string
	version     string
	vocabulary  map[string]int
	idf         []float64
	coef        []float64
	intercept   float64
	sublinearTF bool
	normalize   bool
	threshold   float64
	tokenizer   *Tokenizer
}

// NewModel validates an artifact and builds a model from it
func NewModel(a Artifact) (*Model, error) {
	if err := validateArtifact(a); err != nil {
		return nil, err
	}

	for word, idx := range a.Vocabulary {
		if idx < 0 || idx >= len(a.Coef) {
			return nil, fmt.Errorf("%w: vocabulary entry %q has index %d outside [0, %d)",
				explain.ErrIntegration, word, idx, len(a.Coef))
		}
	}

	lowercase := true
	if a.Lowercase != nil {
		lowercase = *a.Lowercase
	}

	threshold := a.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	return &Model{
		id:          a.ModelID,
		version:     a.Version,
		vocabulary:  a.Vocabulary,
		idf:         a.IDF,
		coef:        a.Coef,
		intercept:   a.Intercept,
		sublinearTF: a.SublinearTF,
		normalize:   a.Norm != NormNone,
		threshold:   threshold,
		tokenizer:   NewTokenizer(lowercase),
	}, nil
}

// Transform returns the TF-IDF features of text ordered by feature index
func (m *Model) Transform(text string) []explain.Feature {
	counts := make(map[int]float64)
	for _, tok := range m.tokenizer.Tokenize(text) {
		if idx, ok := m.vocabulary[tok]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	indices := make([]int, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	for i, idx := range indices {
		tf := counts[idx]
		if m.sublinearTF {
			tf = 1 + math.Log(tf)
		}
		values[i] = tf * m.idf[idx]
	}

	if m.normalize {
		if norm := floats.Norm(values, 2); norm > 0 {
			floats.Scale(1/norm, values)
		}
	}

	features := make([]explain.Feature, 0, len(indices))
	for i, idx := range indices {
		if values[i] == 0 {
			continue
		}
		features = append(features, explain.Feature{Index: idx, Value: values[i]})
	}
	return features
}

// Coefficients returns the positive-class weights
func (m *Model) Coefficients() []float64 {
	return m.coef
}

// Vocabulary returns the word to feature index mapping
func (m *Model) Vocabulary() map[string]int {
	return m.vocabulary
}

// Intercept returns the bias term of the decision function
func (m *Model) Intercept() float64 {
	return m.intercept
}

// DecisionFunction returns the raw linear score (log-odds of spam) for text
func (m *Model) DecisionFunction(text string) float64 {
	features := m.Transform(text)
	values := make([]float64, len(features))
	weights := make([]float64, len(features))
	for i, f := range features {
		values[i] = f.Value
		weights[i] = m.coef[f.Index]
	}
	return floats.Dot(values, weights) + m.intercept
}

// PredictProba returns the probability that text is spam
func (m *Model) PredictProba(text string) float64 {
	return sigmoid(m.DecisionFunction(text))
}

// ModelID returns the artifact identifier, including its version when present
func (m *Model) ModelID() string {
	if m.version == "" {
		return m.id
	}
	return m.id + "@" + m.version
}

// Threshold returns the decision threshold carried by the artifact
func (m *Model) Threshold() float64 {
	return m.threshold
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		z := math.Exp(-x)
		return 1 / (1 + z)
	}
	z := math.Exp(x)
	return z / (1 + z)
}
