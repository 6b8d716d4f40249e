package factory

import (
	"github.com/mikey/sms-spam-explainer/internal/config"
	"github.com/mikey/sms-spam-explainer/internal/core"
	"github.com/mikey/sms-spam-explainer/internal/explain"
	"github.com/mikey/sms-spam-explainer/internal/linear"
	"github.com/mikey/sms-spam-explainer/internal/whitelist"
	"go.uber.org/zap"
)

// NewServiceConfig assembles the explainer settings. A zero spam.threshold
// falls back to the threshold stored with the model.
func NewServiceConfig(cfg *config.Config, model *linear.Model) (core.ServiceConfig, error) {
	explainCfg := cfg.GetExplain()
	cacheCfg, err := cfg.GetCache()
	if err != nil {
		return core.ServiceConfig{}, err
	}

	threshold := cfg.GetSpam().Threshold
	if threshold <= 0 {
		threshold = model.Threshold()
	}

	return core.ServiceConfig{
		TopK:         explainCfg.TopK,
		Threshold:    threshold,
		MaxTextSize:  explainCfg.MaxTextSize,
		CacheEnabled: cacheCfg.Enabled,
		CacheTTL:     cacheCfg.TTL,
		Marker: explain.Marker{
			Open:  explainCfg.MarkOpen,
			Close: explainCfg.MarkClose,
		},
	}, nil
}

// NewTrustedSenders builds the trusted sender checker from spam.trusted_senders
func NewTrustedSenders(cfg *config.Config, logger *zap.Logger) *whitelist.Checker {
	senders := cfg.GetSpam().TrustedSenders
	if len(senders) > 0 {
		logger.Info("Loaded trusted senders", zap.Strings("senders", senders))
	}
	return whitelist.NewChecker(senders, logger)
}
