package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/sms-spam-explainer/internal/adapters/narration"
	"github.com/mikey/sms-spam-explainer/internal/core"
	"github.com/mikey/sms-spam-explainer/internal/utils"
	"go.uber.org/zap"
)

// ModelInvoker is the part of the Bedrock runtime client used by the narrator
type ModelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Narrator is an implementation of the core.Narrator interface using Amazon Bedrock
type Narrator struct {
	client        ModelInvoker
	modelID       string
	maxTokens     int
	temperature   float32
	topP          float32
	maxTextSize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewNarrator creates a new Bedrock narrator
func NewNarrator(
	client ModelInvoker,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxTextSize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Narrator {
	return &Narrator{
		client:        client,
		modelID:       modelID,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxTextSize:   maxTextSize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Narrate asks the model for a short summary of an explanation
func (n *Narrator) Narrate(ctx context.Context, req *core.NarrationRequest) (string, error) {
	prompt := narration.BuildPrompt(n.textProcessor, req, n.maxTextSize)

	payload, err := n.buildPayload(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := n.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(n.modelID),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	responseText, err := n.parseResponse(resp.Body)
	if err != nil {
		return "", err
	}

	n.logger.Debug("Narration received", zap.String("model", n.modelID))
	return narration.ParseSummary(responseText)
}

// buildPayload encodes the prompt in the request format of the model family
func (n *Narrator) buildPayload(prompt string) ([]byte, error) {
	switch {
	case n.isAnthropicModel():
		return json.Marshal(map[string]interface{}{
			"prompt":               "\n\nHuman: " + narration.SystemPrompt + "\n" + prompt + "\n\nAssistant:",
			"max_tokens_to_sample": n.maxTokens,
			"temperature":          n.temperature,
			"top_p":                n.topP,
		})
	case n.isAmazonTitanModel():
		return json.Marshal(map[string]interface{}{
			"inputText": narration.SystemPrompt + "\n" + prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": n.maxTokens,
				"temperature":   n.temperature,
				"topP":          n.topP,
			},
		})
	default:
		return json.Marshal(map[string]interface{}{
			"prompt":      narration.SystemPrompt + "\n" + prompt,
			"max_tokens":  n.maxTokens,
			"temperature": n.temperature,
			"top_p":       n.topP,
		})
	}
}

// parseResponse extracts the generated text from the model family's response body
func (n *Narrator) parseResponse(body []byte) (string, error) {
	switch {
	case n.isAnthropicModel():
		var claudeResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		return claudeResp.Completion, nil
	case n.isAmazonTitanModel():
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) == 0 {
			return "", errors.New("empty response from Titan model")
		}
		return titanResp.Results[0].OutputText, nil
	default:
		var genericResp struct {
			Output   string `json:"output"`
			Text     string `json:"text"`
			Response string `json:"response"`
		}
		if err := json.Unmarshal(body, &genericResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal generic response: %w", err)
		}
		for _, candidate := range []string{genericResp.Output, genericResp.Text, genericResp.Response} {
			if candidate != "" {
				return candidate, nil
			}
		}
		return string(body), nil
	}
}

// isAnthropicModel checks if the model is an Anthropic Claude model
func (n *Narrator) isAnthropicModel() bool {
	return strings.HasPrefix(n.modelID, "anthropic.claude")
}

// isAmazonTitanModel checks if the model is an Amazon Titan model
func (n *Narrator) isAmazonTitanModel() bool {
	return strings.HasPrefix(n.modelID, "amazon.titan")
}
