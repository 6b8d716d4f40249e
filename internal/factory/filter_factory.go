package factory

import (
	"fmt"
	"os"

	"github.com/mikey/sms-spam-explainer/internal/adapters/filter"
	"github.com/mikey/sms-spam-explainer/internal/config"
	"github.com/mikey/sms-spam-explainer/internal/core"
	"github.com/mikey/sms-spam-explainer/internal/dataset"
	"github.com/mikey/sms-spam-explainer/internal/ports"
	"go.uber.org/zap"
)

// FilterFactory creates message filters based on configuration
type FilterFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.ExplainerService
	dataset *dataset.Dataset
}

// NewFilterFactory creates a new filter factory. The dataset may be nil.
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, service *core.ExplainerService, ds *dataset.Dataset) *FilterFactory {
	return &FilterFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
		dataset: ds,
	}
}

// CreateMessageFilter creates a message filter based on the configuration
func (f *FilterFactory) CreateMessageFilter() (ports.MessageFilter, error) {
	serverCfg, err := f.cfg.GetServer()
	if err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	switch serverCfg.FilterType {
	case "http":
		return filter.NewHTTPFilter(
			f.service,
			f.logger,
			f.dataset,
			serverCfg.ListenAddress,
			serverCfg.ReadTimeout,
			serverCfg.WriteTimeout,
		), nil
	case "smtp":
		return filter.NewSMTPFilter(
			f.service,
			f.logger,
			serverCfg.ListenAddress,
			serverCfg.BlockSpam,
			filter.HeaderNames{
				Spam:  serverCfg.SpamHeader,
				Score: serverCfg.ScoreHeader,
				Words: serverCfg.WordsHeader,
			},
			serverCfg.RelayAddress,
			serverCfg.RelayEnabled,
			serverCfg.ReadTimeout,
			serverCfg.WriteTimeout,
			serverCfg.MaxMessageBytes,
		), nil
	case "cli":
		return f.CreateCliFilter()
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", serverCfg.FilterType)
	}
}

// CreateCliFilter creates the command-line filter writing to stdout
func (f *FilterFactory) CreateCliFilter() (*filter.CliFilter, error) {
	return filter.NewCliFilter(
		f.service,
		f.logger,
		os.Stdout,
		f.cfg.GetExplain().TopK,
		f.cfg.GetBool("cli.verbose"),
		f.cfg.GetBool("cli.json"),
	)
}
