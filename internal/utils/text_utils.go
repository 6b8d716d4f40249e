package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
)

// TruncationNotice is appended to text cut down by TruncateText
const TruncationNotice = "\n[... Content truncated due to size limits ...]"

// TextProcessor provides utilities for processing text
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// cut truncates text to at most maxSize bytes on a UTF-8 boundary
func cut(text string, maxSize int) string {
	truncated := text[:maxSize]
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated
}

// TruncateText safely truncates text to the specified maximum size, ensures
// the result is valid UTF-8 and appends a notice that content was dropped
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	truncated := cut(text, maxSize)

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_size", maxSize))

	return truncated + TruncationNotice
}

// SanitizeUTF8 ensures the string contains only valid UTF-8 characters
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	sanitized := strings.ToValidUTF8(text, "")

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(sanitized)))

	return sanitized
}

// ProcessText truncates and sanitizes text in one operation
func (tp *TextProcessor) ProcessText(text string, maxSize int) string {
	return tp.SanitizeUTF8(tp.TruncateText(text, maxSize))
}

// Clip sanitizes text and cuts it to at most maxSize bytes without adding a
// notice, so the result holds only words of the original message. A word
// straddling the limit is dropped whole; text without any whitespace before
// the limit is cut at the last full rune.
func (tp *TextProcessor) Clip(text string, maxSize int) string {
	text = tp.SanitizeUTF8(text)
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	clipped := cut(text, maxSize)
	if next, _ := utf8.DecodeRuneInString(text[len(clipped):]); !unicode.IsSpace(next) {
		if idx := strings.LastIndexFunc(clipped, unicode.IsSpace); idx >= 0 {
			clipped = strings.TrimRightFunc(clipped[:idx], unicode.IsSpace)
		}
	}
	tp.logger.Debug("Text clipped",
		zap.Int("original_size", len(text)),
		zap.Int("clipped_size", len(clipped)))
	return clipped
}
