package core

import (
	"time"

	"github.com/mikey/sms-spam-explainer/internal/explain"
)

// Message represents a short text message to classify
type Message struct {
	Sender string
	Text   string
}

// Prediction is the classifier's own verdict on a message
type Prediction struct {
	IsSpam        bool    `json:"is_spam"`
	Probability   float64 `json:"probability"`
	DecisionScore float64 `json:"decision_score"`
}

// Label returns the human readable label of the prediction
func (p Prediction) Label() string {
	if p.IsSpam {
		return "Spam"
	}
	return "Not spam"
}

// ExplanationResult represents the classification and explanation of one message
type ExplanationResult struct {
	Text          string                 `json:"text"`
	Prediction    Prediction             `json:"prediction"`
	Contributions []explain.Contribution `json:"contributions"`
	Highlighted   string                 `json:"highlighted"`
	NoSignal      bool                   `json:"no_signal"`
	Summary       string                 `json:"summary,omitempty"`
	Trusted       bool                   `json:"trusted"`
	Cached        bool                   `json:"cached"`
	ModelUsed     string                 `json:"model_used"`
	AnalyzedAt    time.Time              `json:"analyzed_at"`
	ProcessingID  string                 `json:"processing_id"`
}

// EditComparison contrasts the explanation of a message with an edited version of it
type EditComparison struct {
	Original         *ExplanationResult `json:"original"`
	Edited           *ExplanationResult `json:"edited"`
	Evaded           bool               `json:"evaded"`
	ProbabilityDelta float64            `json:"probability_delta"`
	RemovedWords     []string           `json:"removed_words"`
	AddedWords       []string           `json:"added_words"`
}

// CacheEntry is a stored explanation keyed by message content
type CacheEntry struct {
	Key       string
	Result    *ExplanationResult
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NarrationRequest carries what a narrator needs to describe an explanation
type NarrationRequest struct {
	Text          string
	Prediction    Prediction
	Contributions []explain.Contribution
}
