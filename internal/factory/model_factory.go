package factory

import (
	"fmt"

	"github.com/mikey/sms-spam-explainer/internal/config"
	"github.com/mikey/sms-spam-explainer/internal/explain"
	"github.com/mikey/sms-spam-explainer/internal/linear"
	"go.uber.org/zap"
)

// ModelFactory loads the trained classifier and its attribution engine
type ModelFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewModelFactory creates a new model factory
func NewModelFactory(cfg *config.Config, logger *zap.Logger) *ModelFactory {
	return &ModelFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateModel loads the model artifact named in the configuration
func (f *ModelFactory) CreateModel() (*linear.Model, error) {
	modelCfg := f.cfg.GetModel()
	if modelCfg.Path == "" {
		return nil, fmt.Errorf("model.path is required")
	}

	model, err := linear.LoadFile(modelCfg.Path, modelCfg.Checksum)
	if err != nil {
		return nil, err
	}

	f.logger.Info("Loaded spam model",
		zap.String("path", modelCfg.Path),
		zap.String("model", model.ModelID()),
		zap.Int("vocabulary_size", len(model.Vocabulary())),
		zap.Float64("threshold", model.Threshold()))

	return model, nil
}

// CreateEngine builds the attribution engine for a loaded model
func (f *ModelFactory) CreateEngine(model *linear.Model) (*explain.Engine, error) {
	return explain.NewEngine(model)
}
