package ports

import (
	"context"

	"github.com/mikey/sms-spam-explainer/internal/core"
)

// MessageFilter defines the interface for the surfaces that classify and
// explain incoming messages
type MessageFilter interface {
	// ProcessMessage classifies a message and returns its explanation
	ProcessMessage(ctx context.Context, msg *core.Message) (*core.ExplanationResult, error)

	// Start starts the filter service
	Start() error

	// Stop stops the filter service
	Stop() error
}
