package cache

import (
	"encoding/json"
	"fmt"

	"github.com/mikey/sms-spam-explainer/internal/core"
)

func encodeResult(result *core.ExplanationResult) (string, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode cache payload: %w", err)
	}
	return string(payload), nil
}

func decodeResult(payload string) (*core.ExplanationResult, error) {
	var result core.ExplanationResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to decode cache payload: %w", err)
	}
	return &result, nil
}
