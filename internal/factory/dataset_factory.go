package factory

import (
	"github.com/mikey/sms-spam-explainer/internal/config"
	"github.com/mikey/sms-spam-explainer/internal/dataset"
	"go.uber.org/zap"
)

// LoadDataset loads the message collection named by dataset.path. It
// returns nil when no path is configured.
func LoadDataset(cfg *config.Config, logger *zap.Logger) (*dataset.Dataset, error) {
	path := cfg.GetDataset().Path
	if path == "" {
		return nil, nil
	}

	ds, err := dataset.LoadFile(path)
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded message dataset",
		zap.String("path", path),
		zap.Int("ham", ds.Count(dataset.LabelHam)),
		zap.Int("spam", ds.Count(dataset.LabelSpam)))

	return ds, nil
}
