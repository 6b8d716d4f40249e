package di

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/sms-spam-explainer/internal/adapters/filter"
	"github.com/mikey/sms-spam-explainer/internal/config"
	"github.com/mikey/sms-spam-explainer/internal/factory"
	"github.com/mikey/sms-spam-explainer/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Model flags
	ModelPath     string
	ModelChecksum string
	TopK          int
	Threshold     float64

	// Input flags
	Text        string
	InputFile   string
	CompareFile string
	Sender      string
	Sample      bool
	SampleLabel string
	DatasetPath string

	// Narrator flags
	Provider        string
	BedrockRegion   string
	BedrockModelID  string
	GeminiAPIKey    string
	GeminiModelName string
	OpenAIAPIKey    string
	OpenAIModelName string

	// Output flags
	JSONOutput bool
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses the process command line and exits on invalid usage
func ParseFlags() *CLIFlags {
	flags, err := ParseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}
	return flags
}

// ParseArgs parses command line arguments into a CLIFlags struct
func ParseArgs(args []string, output io.Writer) (*CLIFlags, error) {
	flags := &CLIFlags{}
	fs := flag.NewFlagSet("spam-detector", flag.ContinueOnError)
	fs.SetOutput(output)

	// Model flags
	fs.StringVar(&flags.ModelPath, "model", "./models/spam_model.json", "Path to the trained model artifact")
	fs.StringVar(&flags.ModelChecksum, "model-checksum", "", "Expected sha256 of the model artifact")
	fs.IntVar(&flags.TopK, "top-k", 10, "Number of influential words to report")
	fs.Float64Var(&flags.Threshold, "threshold", 0, "Spam probability threshold (0 uses the model's own)")

	// Input flags
	fs.StringVar(&flags.Text, "text", "", "Message text to explain")
	fs.StringVar(&flags.InputFile, "file", "", "File holding the message (stdin if neither -text nor -file is given)")
	fs.StringVar(&flags.CompareFile, "compare", "", "File holding an edited version of the message to compare against")
	fs.StringVar(&flags.Sender, "sender", "", "Sender of the message, checked against trusted senders")
	fs.BoolVar(&flags.Sample, "sample", false, "Explain a random message from the dataset")
	fs.StringVar(&flags.SampleLabel, "label", "", "Restrict -sample to ham or spam")
	fs.StringVar(&flags.DatasetPath, "dataset", "", "Path to the labelled CSV collection used by -sample")

	// Narrator flags
	fs.StringVar(&flags.Provider, "narrator", "none", "Narration provider (none, bedrock, gemini, openai)")
	fs.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	fs.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-v2", "Bedrock model ID")
	fs.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	fs.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-pro", "Gemini model name")
	fs.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	fs.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4o-mini", "OpenAI model name")

	// Output flags
	fs.BoolVar(&flags.JSONOutput, "json", false, "Print the explanation as JSON")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose output and debug logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if flags.SampleLabel != "" && !flags.Sample {
		return nil, fmt.Errorf("-label requires -sample")
	}
	if flags.Sample && (flags.Text != "" || flags.InputFile != "") {
		return nil, fmt.Errorf("-sample cannot be combined with -text or -file")
	}
	if flags.Text != "" && flags.InputFile != "" {
		return nil, fmt.Errorf("-text and -file are mutually exclusive")
	}

	return flags, nil
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewFromFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			applyCLIOverrides(cfg, flags)
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	if err := provideCore(container); err != nil {
		return nil, err
	}

	// Register the CLI filter itself so callers can compare edits
	if err := container.Provide(func(f *factory.FilterFactory) (*filter.CliFilter, error) {
		return f.CreateCliFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// applyCLIOverrides sets what only makes sense for a one-shot run
func applyCLIOverrides(cfg *config.Config, flags *CLIFlags) {
	cfg.Set("server.filter_type", "cli")
	cfg.Set("cli.verbose", flags.Verbose)
	cfg.Set("cli.json", flags.JSONOutput)
	// No cache for CLI
	cfg.Set("cache.enabled", false)
	if flags.DatasetPath != "" {
		cfg.Set("dataset.path", flags.DatasetPath)
	}
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	cfg := config.NewFromViper(config.NewEmptyViper())
	applyCLIOverrides(cfg, flags)

	cfg.Set("model.path", flags.ModelPath)
	cfg.Set("model.checksum", flags.ModelChecksum)
	cfg.Set("explain.top_k", flags.TopK)
	cfg.Set("spam.threshold", flags.Threshold)

	cfg.Set("narrator.provider", flags.Provider)
	switch flags.Provider {
	case "bedrock":
		cfg.Set("bedrock.region", flags.BedrockRegion)
		cfg.Set("bedrock.model_id", flags.BedrockModelID)
	case "gemini":
		cfg.Set("gemini.api_key", flags.GeminiAPIKey)
		cfg.Set("gemini.model_name", flags.GeminiModelName)
	case "openai":
		cfg.Set("openai.api_key", flags.OpenAIAPIKey)
		cfg.Set("openai.model_name", flags.OpenAIModelName)
	}

	return cfg
}
