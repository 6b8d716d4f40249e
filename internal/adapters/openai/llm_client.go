package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/mikey/sms-spam-explainer/internal/adapters/narration"
	"github.com/mikey/sms-spam-explainer/internal/core"
	"github.com/mikey/sms-spam-explainer/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Narrator is an implementation of the core.Narrator interface using OpenAI
type Narrator struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxTextSize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewNarrator creates a new OpenAI narrator
func NewNarrator(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxTextSize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Narrator {
	return &Narrator{
		client:        client,
		modelName:     modelName,
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

	chatReq := openai.ChatCompletionRequest{
		Model: n.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: narration.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   n.maxTokens,
		Temperature: n.temperature,
		TopP:        n.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := n.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from OpenAI")
	}

	summary, err := narration.ParseSummary(resp.Choices[0].Message.Content)
	if err != nil {
		return "", err
	}

	n.logger.Debug("Narration received",
		zap.String("model", n.modelName),
		zap.String("response_id", resp.ID),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return summary, nil
}
