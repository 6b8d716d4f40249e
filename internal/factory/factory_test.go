package factory

import (
	"path/filepath"
	"testing"

	"github.com/mikey/sms-spam-explainer/internal/adapters/cache"
	"github.com/mikey/sms-spam-explainer/internal/adapters/filter"
	"github.com/mikey/sms-spam-explainer/internal/config"
	"github.com/mikey/sms-spam-explainer/internal/core"
	"github.com/mikey/sms-spam-explainer/internal/explain"
	"github.com/mikey/sms-spam-explainer/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testModelPath = "../linear/testdata/model.json"

func newTestConfig() *config.Config {
	cfg := config.NewFromViper(config.NewEmptyViper())
	cfg.Set("model.path", testModelPath)
	return cfg
}

func TestModelFactory(t *testing.T) {
	f := NewModelFactory(newTestConfig(), zap.NewNop())

	model, err := f.CreateModel()
	require.NoError(t, err)
	assert.Equal(t, "sms-spam-tfidf-logreg@test", model.ModelID())

	engine, err := f.CreateEngine(model)
	require.NoError(t, err)
	assert.Equal(t, 12, engine.Adapter().Size())
}

func TestModelFactory_Errors(t *testing.T) {
	cfg := newTestConfig()
	cfg.Set("model.path", "")
	_, err := NewModelFactory(cfg, zap.NewNop()).CreateModel()
	assert.Error(t, err)

	cfg.Set("model.path", testModelPath)
	cfg.Set("model.checksum", "deadbeef")
	_, err = NewModelFactory(cfg, zap.NewNop()).CreateModel()
	assert.ErrorIs(t, err, explain.ErrIntegration)
}

func TestCacheFactory(t *testing.T) {
	cfg := newTestConfig()
	f := NewCacheFactory(cfg, zap.NewNop())

	repo, err := f.CreateCacheRepository()
	require.NoError(t, err)
	mem, ok := repo.(*cache.MemoryCache)
	require.True(t, ok)
	mem.Stop()

	cfg.Set("cache.type", "sqlite")
	cfg.Set("cache.sqlite_path", filepath.Join(t.TempDir(), "nested", "cache.db"))
	repo, err = f.CreateCacheRepository()
	require.NoError(t, err)
	sqlite, ok := repo.(*cache.SQLiteCache)
	require.True(t, ok)
	sqlite.Stop()

	cfg.Set("cache.type", "redis")
	_, err = f.CreateCacheRepository()
	assert.Error(t, err)

	cfg.Set("cache.enabled", false)
	repo, err = f.CreateCacheRepository()
	require.NoError(t, err)
	assert.Nil(t, repo)
}

func TestNarratorFactory(t *testing.T) {
	cfg := newTestConfig()
	logger := zap.NewNop()
	f := NewNarratorFactory(cfg, logger, utils.NewTextProcessor(logger))

	n, err := f.CreateNarrator()
	require.NoError(t, err)
	assert.Nil(t, n)

	cfg.Set("narrator.provider", "openai")
	_, err = f.CreateNarrator()
	assert.Error(t, err, "openai narrator requires an API key")

	cfg.Set("openai.api_key", "sk-test")
	n, err = f.CreateNarrator()
	require.NoError(t, err)
	assert.NotNil(t, n)

	cfg.Set("narrator.provider", "crystal-ball")
	_, err = f.CreateNarrator()
	assert.Error(t, err)
}

func TestNewServiceConfig(t *testing.T) {
	cfg := newTestConfig()
	model, err := NewModelFactory(cfg, zap.NewNop()).CreateModel()
	require.NoError(t, err)

	svcCfg, err := NewServiceConfig(cfg, model)
	require.NoError(t, err)
	assert.Equal(t, 10, svcCfg.TopK)
	assert.Equal(t, 0.5, svcCfg.Threshold)
	assert.Equal(t, explain.DefaultMarker, svcCfg.Marker)
	assert.True(t, svcCfg.CacheEnabled)

	cfg.Set("spam.threshold", 0.8)
	cfg.Set("explain.mark_open", "[")
	cfg.Set("explain.mark_close", "]")
	svcCfg, err = NewServiceConfig(cfg, model)
	require.NoError(t, err)
	assert.Equal(t, 0.8, svcCfg.Threshold)
	assert.Equal(t, explain.Marker{Open: "[", Close: "]"}, svcCfg.Marker)
}

func TestNewTrustedSenders(t *testing.T) {
	cfg := newTestConfig()
	cfg.Set("spam.trusted_senders", []string{"@example.com"})

	checker := NewTrustedSenders(cfg, zap.NewNop())
	assert.True(t, checker.IsWhitelisted("alice@example.com"))
	assert.False(t, checker.IsWhitelisted("alice@example.org"))
}

func TestLoadDataset_Unconfigured(t *testing.T) {
	ds, err := LoadDataset(newTestConfig(), zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, ds)
}

func TestFilterFactory(t *testing.T) {
	cfg := newTestConfig()
	logger := zap.NewNop()
	model, err := NewModelFactory(cfg, logger).CreateModel()
	require.NoError(t, err)
	engine, err := explain.NewEngine(model)
	require.NoError(t, err)
	service := core.NewExplainerService(model, engine, nil, nil, nil, utils.NewTextProcessor(logger), logger, core.ServiceConfig{})

	f := NewFilterFactory(cfg, logger, service, nil)

	tests := []struct {
		filterType string
		check      func(t *testing.T, v interface{})
	}{
		{"http", func(t *testing.T, v interface{}) { assert.IsType(t, &filter.HTTPFilter{}, v) }},
		{"smtp", func(t *testing.T, v interface{}) { assert.IsType(t, &filter.SMTPFilter{}, v) }},
		{"cli", func(t *testing.T, v interface{}) { assert.IsType(t, &filter.CliFilter{}, v) }},
	}
	for _, tt := range tests {
		t.Run(tt.filterType, func(t *testing.T) {
			cfg.Set("server.filter_type", tt.filterType)
			mf, err := f.CreateMessageFilter()
			require.NoError(t, err)
			tt.check(t, mf)
		})
	}

	cfg.Set("server.filter_type", "milter")
	_, err = f.CreateMessageFilter()
	assert.Error(t, err)
}
