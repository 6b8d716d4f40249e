package config

import (
	"fmt"
	"time"
)

// ModelConfig locates the trained model artifact
type ModelConfig struct {
	Path     string
	Checksum string
}

// ExplainConfig represents the explanation settings
type ExplainConfig struct {
	TopK        int
	MarkOpen    string
	MarkClose   string
	MaxTextSize int
}

// SpamConfig represents the verdict settings
type SpamConfig struct {
	Threshold      float64
	TrustedSenders []string
}

// CacheConfig represents the explanation cache settings
type CacheConfig struct {
	Type             string
	Enabled          bool
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
	PostgresDSN      string
}

// NarratorConfig selects the optional summary provider
type NarratorConfig struct {
	Provider string
}

// ServerConfig represents the settings of the long running filters
type ServerConfig struct {
	FilterType      string
	ListenAddress   string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxMessageBytes int64
	BlockSpam       bool
	SpamHeader      string
	ScoreHeader     string
	WordsHeader     string
	RelayEnabled    bool
	RelayAddress    string
}

// DatasetConfig locates the labelled message collection
type DatasetConfig struct {
	Path string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxTextSize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxTextSize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxTextSize int
}

// GetModel returns the model configuration
func (c *Config) GetModel() ModelConfig {
	return ModelConfig{
		Path:     c.GetString("model.path"),
		Checksum: c.GetString("model.checksum"),
	}
}

// GetExplain returns the explanation configuration
func (c *Config) GetExplain() ExplainConfig {
	return ExplainConfig{
		TopK:        c.GetInt("explain.top_k"),
		MarkOpen:    c.GetString("explain.mark_open"),
		MarkClose:   c.GetString("explain.mark_close"),
		MaxTextSize: c.GetInt("explain.max_text_size"),
	}
}

// GetSpam returns the verdict configuration
func (c *Config) GetSpam() SpamConfig {
	return SpamConfig{
		Threshold:      c.GetFloat64("spam.threshold"),
		TrustedSenders: c.GetStringSlice("spam.trusted_senders"),
	}
}

// GetCache returns the cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, err
	}
	cleanup, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, err
	}

	return CacheConfig{
		Type:             c.GetString("cache.type"),
		Enabled:          c.GetBool("cache.enabled"),
		TTL:              ttl,
		CleanupFrequency: cleanup,
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
		PostgresDSN:      c.GetString("cache.postgres_dsn"),
	}, nil
}

// GetNarrator returns the narrator configuration
func (c *Config) GetNarrator() NarratorConfig {
	return NarratorConfig{
		Provider: c.GetString("narrator.provider"),
	}
}

// GetServer returns the server configuration
func (c *Config) GetServer() (ServerConfig, error) {
	readTimeout, err := c.GetDuration("server.read_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	writeTimeout, err := c.GetDuration("server.write_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	maxBytes := c.v.GetInt64("server.max_message_bytes")
	if maxBytes <= 0 {
		return ServerConfig{}, fmt.Errorf("server.max_message_bytes must be positive, got %d", maxBytes)
	}

	return ServerConfig{
		FilterType:      c.GetString("server.filter_type"),
		ListenAddress:   c.GetString("server.listen_address"),
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		MaxMessageBytes: maxBytes,
		BlockSpam:       c.GetBool("server.block_spam"),
		SpamHeader:      c.GetString("server.headers.spam"),
		ScoreHeader:     c.GetString("server.headers.score"),
		WordsHeader:     c.GetString("server.headers.words"),
		RelayEnabled:    c.GetBool("server.relay.enabled"),
		RelayAddress:    c.GetString("server.relay.address"),
	}, nil
}

// GetDataset returns the dataset configuration
func (c *Config) GetDataset() DatasetConfig {
	return DatasetConfig{
		Path: c.GetString("dataset.path"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxTextSize: c.GetInt("bedrock.max_text_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxTextSize: c.GetInt("gemini.max_text_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxTextSize: c.GetInt("openai.max_text_size"),
	}
}
