package factory

import (
	"fmt"

	"github.com/mikey/sms-spam-explainer/internal/adapters/bedrock"
	"github.com/mikey/sms-spam-explainer/internal/adapters/gemini"
	"github.com/mikey/sms-spam-explainer/internal/adapters/openai"
	"github.com/mikey/sms-spam-explainer/internal/config"
	"github.com/mikey/sms-spam-explainer/internal/core"
	"github.com/mikey/sms-spam-explainer/internal/utils"
	"go.uber.org/zap"
)

// NarratorFactory creates the optional LLM narrator
type NarratorFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewNarratorFactory creates a new narrator factory
func NewNarratorFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *NarratorFactory {
	return &NarratorFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateNarrator creates a narrator based on the configuration. It returns
// nil when narration is disabled.
func (f *NarratorFactory) CreateNarrator() (core.Narrator, error) {
	provider := f.cfg.GetNarrator().Provider

	var (
		narrator core.Narrator
		err      error
	)
	switch provider {
	case "", "none":
		return nil, nil
	case "bedrock":
		narrator, err = bedrock.NewFactory(f.cfg, f.logger, f.textProcessor).CreateNarrator()
	case "gemini":
		narrator, err = gemini.NewFactory(f.cfg, f.logger, f.textProcessor).CreateNarrator()
	case "openai":
		narrator, err = openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateNarrator()
	default:
		return nil, fmt.Errorf("unsupported narrator provider: %s", provider)
	}
	if err != nil {
		return nil, err
	}

	f.logger.Info("Narration enabled", zap.String("provider", provider))
	return narrator, nil
}
