package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mikey/sms-spam-explainer/internal/core"
	"github.com/mikey/sms-spam-explainer/internal/dataset"
	"github.com/mikey/sms-spam-explainer/internal/explain"
	"go.uber.org/zap"
)

// CliFilter implements a command-line interface for spam explanation
type CliFilter struct {
	service    *core.ExplainerService
	logger     *zap.Logger
	out        io.Writer
	topK       int
	verbose    bool
	jsonOutput bool
}

// NewCliFilter creates a new CLI filter writing its report to out
func NewCliFilter(service *core.ExplainerService, logger *zap.Logger, out io.Writer, topK int, verbose, jsonOutput bool) (*CliFilter, error) {
	return &CliFilter{
		service:    service,
		logger:     logger,
		out:        out,
		topK:       topK,
		verbose:    verbose,
		jsonOutput: jsonOutput,
	}, nil
}

// ProcessMessage explains a message and displays the results
func (f *CliFilter) ProcessMessage(ctx context.Context, msg *core.Message) (*core.ExplanationResult, error) {
	f.logger.Debug("Processing message", zap.String("sender", msg.Sender), zap.Int("length", len(msg.Text)))

	startTime := time.Now()
	result, err := f.service.Explain(ctx, msg, f.topK)
	if err != nil {
		f.logger.Error("Failed to explain message", zap.Error(err))
		return nil, err
	}
	duration := time.Since(startTime)

	if f.jsonOutput {
		return result, f.writeJSON(result)
	}

	f.printMessage(msg)
	f.printResult(result)
	if f.verbose {
		fmt.Fprintf(f.out, "Processing time: %v\n", duration)
	}

	return result, nil
}

// ProcessSample explains a dataset message and reveals its true label. JSON
// output uses the same shape as the HTTP sample endpoint.
func (f *CliFilter) ProcessSample(ctx context.Context, sample dataset.Sample, sender string) (*SampleResponse, error) {
	msg := &core.Message{Sender: sender, Text: sample.Text}
	result, err := f.service.Explain(ctx, msg, f.topK)
	if err != nil {
		f.logger.Error("Failed to explain sample", zap.Error(err))
		return nil, err
	}

	resp := &SampleResponse{Sample: sample, Explanation: result}
	if f.jsonOutput {
		return resp, f.writeJSON(resp)
	}

	fmt.Fprintf(f.out, "Dataset label: %s\n", sample.Label)
	f.printMessage(msg)
	f.printResult(result)
	return resp, nil
}

// ProcessEdit explains a message and an edited version of it side by side
func (f *CliFilter) ProcessEdit(ctx context.Context, original, edited *core.Message) (*core.EditComparison, error) {
	cmp, err := f.service.CompareEdit(ctx, original, edited, f.topK)
	if err != nil {
		f.logger.Error("Failed to compare messages", zap.Error(err))
		return nil, err
	}

	if f.jsonOutput {
		return cmp, f.writeJSON(cmp)
	}

	fmt.Fprintf(f.out, "\n##### Original #####\n")
	f.printResult(cmp.Original)
	fmt.Fprintf(f.out, "\n##### Edited #####\n")
	f.printResult(cmp.Edited)

	fmt.Fprintf(f.out, "\n=== Comparison ===\n")
	fmt.Fprintf(f.out, "Probability change: %+.4f\n", cmp.ProbabilityDelta)
	fmt.Fprintf(f.out, "Words no longer ranked: %s\n", joinOrNone(cmp.RemovedWords))
	fmt.Fprintf(f.out, "Words newly ranked: %s\n", joinOrNone(cmp.AddedWords))
	switch {
	case cmp.Evaded:
		fmt.Fprintf(f.out, "Result: the edit evaded the classifier\n")
	case cmp.Original.Prediction.IsSpam:
		fmt.Fprintf(f.out, "Result: the edited message is still spam\n")
	default:
		fmt.Fprintf(f.out, "Result: the original message was not spam\n")
	}

	return cmp, nil
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}

func (f *CliFilter) writeJSON(v interface{}) error {
	enc := json.NewEncoder(f.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

func (f *CliFilter) printMessage(msg *core.Message) {
	fmt.Fprintf(f.out, "\n=== Message ===\n")
	if msg.Sender != "" {
		fmt.Fprintf(f.out, "From: %s\n", msg.Sender)
	}
	fmt.Fprintf(f.out, "Length: %d bytes\n", len(msg.Text))
	if f.verbose {
		fmt.Fprintf(f.out, "\n%s\n", msg.Text)
	}
}

func (f *CliFilter) printResult(result *core.ExplanationResult) {
	fmt.Fprintf(f.out, "\n=== Prediction ===\n")
	fmt.Fprintf(f.out, "Label: %s\n", result.Prediction.Label())
	fmt.Fprintf(f.out, "Spam probability: %.4f\n", result.Prediction.Probability)
	fmt.Fprintf(f.out, "Decision score: %.4f\n", result.Prediction.DecisionScore)
	fmt.Fprintf(f.out, "Model used: %s\n", result.ModelUsed)
	if result.Trusted {
		fmt.Fprintf(f.out, "Trusted sender: verdict overridden\n")
	}

	fmt.Fprintf(f.out, "\n=== Top words ===\n")
	if result.NoSignal {
		fmt.Fprintf(f.out, "No known words found, the score rests on the model intercept.\n")
	} else {
		f.printContributions(result.Contributions)
	}

	fmt.Fprintf(f.out, "\n=== Highlighted ===\n%s\n", result.Highlighted)

	if result.Summary != "" {
		fmt.Fprintf(f.out, "\n=== Summary ===\n%s\n", result.Summary)
	}
}

func (f *CliFilter) printContributions(contributions []explain.Contribution) {
	width := 0
	for _, c := range contributions {
		if len(c.Word) > width {
			width = len(c.Word)
		}
	}
	for i, c := range contributions {
		fmt.Fprintf(f.out, "%2d. %-*s %+.4f\n", i+1, width, c.Word, c.Score)
	}
}

func joinOrNone(words []string) string {
	if len(words) == 0 {
		return "(none)"
	}
	return strings.Join(words, ", ")
}
