package di

import (
	"go.uber.org/dig"

	"github.com/mikey/sms-spam-explainer/internal/core"
	"github.com/mikey/sms-spam-explainer/internal/explain"
	"github.com/mikey/sms-spam-explainer/internal/factory"
	"github.com/mikey/sms-spam-explainer/internal/linear"
	"github.com/mikey/sms-spam-explainer/internal/ports"
	"github.com/mikey/sms-spam-explainer/internal/utils"
)

// provideCore registers everything downstream of *config.Config and
// *zap.Logger, which the caller must provide
func provideCore(container *dig.Container) error {
	providers := []interface{}{
		// Factories
		factory.NewModelFactory,
		factory.NewCacheFactory,
		factory.NewNarratorFactory,
		factory.NewFilterFactory,
		factory.NewTextProcessorFactory,

		// Text processor
		func(f *factory.TextProcessorFactory) *utils.TextProcessor {
			return f.CreateTextProcessor()
		},

		// Model and attribution engine
		func(f *factory.ModelFactory) (*linear.Model, error) {
			return f.CreateModel()
		},
		func(m *linear.Model) core.SpamModel {
			return m
		},
		func(f *factory.ModelFactory, m *linear.Model) (*explain.Engine, error) {
			return f.CreateEngine(m)
		},

		// Optional collaborators, nil when disabled
		func(f *factory.CacheFactory) (core.CacheRepository, error) {
			return f.CreateCacheRepository()
		},
		func(f *factory.NarratorFactory) (core.Narrator, error) {
			return f.CreateNarrator()
		},
		factory.LoadDataset,

		// Explainer service
		factory.NewTrustedSenders,
		factory.NewServiceConfig,
		core.NewExplainerService,

		// Message filter
		func(f *factory.FilterFactory) (ports.MessageFilter, error) {
			return f.CreateMessageFilter()
		},
	}

	for _, p := range providers {
		if err := container.Provide(p); err != nil {
			return err
		}
	}
	return nil
}
