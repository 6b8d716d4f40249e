// Package narration holds the prompt and response handling shared by the
// LLM-backed narrators.
package narration

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mikey/sms-spam-explainer/internal/core"
	"github.com/mikey/sms-spam-explainer/internal/utils"
)

// SystemPrompt is sent as the system role where the provider supports one
const SystemPrompt = "You explain the decisions of an SMS spam classifier. Respond only with JSON."

const promptFormat = `A linear SMS spam classifier labelled the message below as %s (spam probability %.2f).
The words that pushed the score towards spam the most were:
%s
Write one or two plain sentences telling the reader why the message got this label.
Respond with a JSON object containing:
- summary: string (the explanation)

Message:
%s

Respond only with the JSON object and nothing else.`

// Response is the structured reply expected from the LLM
type Response struct {
	Summary string `json:"summary"`
}

// ErrEmptySummary is returned when a reply parses but carries no summary
var ErrEmptySummary = errors.New("narrator returned an empty summary")

// BuildPrompt renders the narration prompt, truncating the message text to maxTextSize
func BuildPrompt(tp *utils.TextProcessor, req *core.NarrationRequest, maxTextSize int) string {
	var words strings.Builder
	if len(req.Contributions) == 0 {
		words.WriteString("(none, no vocabulary word was found)\n")
	}
	for _, c := range req.Contributions {
		fmt.Fprintf(&words, "- %s (%+.4f)\n", c.Word, c.Score)
	}

	text := tp.ProcessText(req.Text, maxTextSize)
	return fmt.Sprintf(promptFormat, req.Prediction.Label(), req.Prediction.Probability,
		strings.TrimRight(words.String(), "\n"), text)
}

// ParseSummary extracts the summary from an LLM reply. Replies that wrap the
// JSON object in prose are accepted.
func ParseSummary(responseText string) (string, error) {
	var resp Response
	if err := json.Unmarshal([]byte(responseText), &resp); err != nil {
		start := strings.IndexByte(responseText, '{')
		end := strings.LastIndexByte(responseText, '}')
		if start < 0 || end <= start {
			return "", fmt.Errorf("failed to extract JSON from LLM response: %w", err)
		}
		if err := json.Unmarshal([]byte(responseText[start:end+1]), &resp); err != nil {
			return "", fmt.Errorf("failed to parse LLM response as JSON: %w", err)
		}
	}

	summary := strings.TrimSpace(resp.Summary)
	if summary == "" {
		return "", ErrEmptySummary
	}
	return summary, nil
}
