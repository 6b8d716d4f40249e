package explain

import (
	"fmt"
)

// Feature is a single non-zero entry of a text's sparse vectorization
type Feature struct {
	Index int
	Value float64
}

// Classifier is the contract a trained linear text classifier must satisfy
// to be explained
type Classifier interface {
	// Transform returns the non-zero features of text under the fixed vectorization scheme
	Transform(text string) []Feature

	// Coefficients returns the positive-class linear weights, one per vocabulary slot
	Coefficients() []float64

	// Vocabulary returns the forward word to feature index mapping
	Vocabulary() map[string]int
}

// Vectorization is what the adapter exposes for one text
type Vectorization struct {
	Features []Feature
	Weights  []float64
	Words    map[int]string
}

// Adapter wraps a classifier and holds the reverse vocabulary derived from it.
// It is immutable after construction and safe for concurrent use.
type Adapter struct {
	classifier Classifier
	weights    []float64
	words      map[int]string
}

// NewAdapter validates the classifier structure and builds the reverse vocabulary once
func NewAdapter(clf Classifier) (*Adapter, error) {
	if clf == nil {
		return nil, fmt.Errorf("%w: classifier is nil", ErrIntegration)
	}

	weights := clf.Coefficients()
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: classifier exposes no coefficients", ErrIntegration)
	}

	vocab := clf.Vocabulary()
	if len(vocab) == 0 {
		return nil, fmt.Errorf("%w: classifier exposes no vocabulary", ErrIntegration)
	}

	words := make(map[int]string, len(vocab))
	for word, idx := range vocab {
		if idx < 0 || idx >= len(weights) {
			return nil, fmt.Errorf("%w: vocabulary entry %q has index %d outside [0, %d)",
				ErrIntegration, word, idx, len(weights))
		}
		if other, dup := words[idx]; dup {
			return nil, fmt.Errorf("%w: words %q and %q share index %d",
				ErrIntegration, other, word, idx)
		}
		words[idx] = word
	}

	return &Adapter{
		classifier: clf,
		weights:    weights,
		words:      words,
	}, nil
}

// Inspect vectorizes text and returns its features alongside the weights and reverse vocabulary
func (a *Adapter) Inspect(text string) (*Vectorization, error) {
	features := a.classifier.Transform(text)
	for _, f := range features {
		if f.Index < 0 || f.Index >= len(a.weights) {
			return nil, fmt.Errorf("%w: feature index %d outside weight vector of length %d",
				ErrIntegration, f.Index, len(a.weights))
		}
	}

	return &Vectorization{
		Features: features,
		Weights:  a.weights,
		Words:    a.words,
	}, nil
}

// Word returns the vocabulary word for a feature index
func (a *Adapter) Word(index int) (string, bool) {
	word, ok := a.words[index]
	return word, ok
}

// Size returns the vocabulary size V
func (a *Adapter) Size() int {
	return len(a.weights)
}
