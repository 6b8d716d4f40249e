package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/mikey/sms-spam-explainer/internal/adapters/filter"
	"github.com/mikey/sms-spam-explainer/internal/core"
	"github.com/mikey/sms-spam-explainer/internal/dataset"
	"github.com/mikey/sms-spam-explainer/internal/di"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(func(logger *zap.Logger, cli *filter.CliFilter, ds *dataset.Dataset, narrator core.Narrator) error {
		defer logger.Sync()
		if closer, ok := narrator.(interface{ Close() error }); ok {
			defer closer.Close()
		}
		return run(flags, logger, cli, ds)
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(flags *di.CLIFlags, logger *zap.Logger, cli *filter.CliFilter, ds *dataset.Dataset) error {
	ctx := context.Background()

	if flags.Sample {
		if ds == nil {
			return errors.New("-sample needs a dataset, set -dataset or dataset.path")
		}
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		sample, err := ds.Random(rng, flags.SampleLabel)
		if err != nil {
			return err
		}
		_, err = cli.ProcessSample(ctx, sample, flags.Sender)
		return err
	}

	text, err := readInput(flags, logger)
	if err != nil {
		return err
	}
	original := &core.Message{Sender: flags.Sender, Text: text}

	if flags.CompareFile != "" {
		edited, err := os.ReadFile(flags.CompareFile)
		if err != nil {
			return fmt.Errorf("failed to read edited message: %w", err)
		}
		_, err = cli.ProcessEdit(ctx, original, &core.Message{Sender: flags.Sender, Text: string(edited)})
		return err
	}

	_, err = cli.ProcessMessage(ctx, original)
	return err
}

// readInput returns the message from -text, -file or stdin, in that order
func readInput(flags *di.CLIFlags, logger *zap.Logger) (string, error) {
	if flags.Text != "" {
		return flags.Text, nil
	}

	var r io.Reader = os.Stdin
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return "", fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		r = file
		logger.Debug("Reading message from file", zap.String("file", flags.InputFile))
	} else {
		logger.Debug("Reading message from stdin")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read message: %w", err)
	}
	return string(data), nil
}
