package core

import (
	"context"
	"errors"

	"github.com/mikey/sms-spam-explainer/internal/explain"
)

// ErrCacheMiss is returned by cache repositories when no live entry exists for a key
var ErrCacheMiss = errors.New("cache entry not found")

// SpamModel is a trained linear spam classifier
type SpamModel interface {
	explain.Classifier

	// PredictProba returns the probability that text is spam
	PredictProba(text string) float64

	// DecisionFunction returns the raw linear score for text
	DecisionFunction(text string) float64

	// ModelID identifies the loaded model
	ModelID() string
}

// CacheRepository defines the interface for caching explanation results
type CacheRepository interface {
	// Get retrieves a cached entry by key
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, key string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}

// Narrator turns a ranked explanation into a short plain-language summary
type Narrator interface {
	Narrate(ctx context.Context, req *NarrationRequest) (string, error)
}
