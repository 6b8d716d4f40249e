package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/sms-spam-explainer/internal/explain"
	"github.com/mikey/sms-spam-explainer/internal/utils"
	"github.com/mikey/sms-spam-explainer/internal/whitelist"
	"go.uber.org/zap"
)

// ServiceConfig holds the tunables of the explainer service
type ServiceConfig struct {
	TopK         int
	Threshold    float64
	MaxTextSize  int
	CacheEnabled bool
	CacheTTL     time.Duration
	Marker       explain.Marker
}

// ExplainerService is the core service for spam classification with explanations
type ExplainerService struct {
	model         SpamModel
	engine        *explain.Engine
	cache         CacheRepository
	narrator      Narrator
	trusted       *whitelist.Checker
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
	cfg           ServiceConfig
}

// NewExplainerService creates a new explainer service. The cache, narrator
// and trusted sender checker are optional.
func NewExplainerService(
	model SpamModel,
	engine *explain.Engine,
	cache CacheRepository,
	narrator Narrator,
	trusted *whitelist.Checker,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
	cfg ServiceConfig,
) *ExplainerService {
	if cfg.TopK <= 0 {
		cfg.TopK = explain.DefaultTopK
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.5
	}
	if cfg.Marker == (explain.Marker{}) {
		cfg.Marker = explain.DefaultMarker
	}

	return &ExplainerService{
		model:         model,
		engine:        engine,
		cache:         cache,
		narrator:      narrator,
		trusted:       trusted,
		textProcessor: textProcessor,
		logger:        logger,
		cfg:           cfg,
	}
}

// Threshold returns the spam probability threshold in use
func (s *ExplainerService) Threshold() float64 {
	return s.cfg.Threshold
}

// IsSpam determines if a probability is spam based on the threshold
func (s *ExplainerService) IsSpam(probability float64) bool {
	return probability >= s.cfg.Threshold
}

// Explain classifies a message and explains the decision. A topK of zero or
// less uses the configured default.
func (s *ExplainerService) Explain(ctx context.Context, msg *Message, topK int) (*ExplanationResult, error) {
	if topK <= 0 {
		topK = s.cfg.TopK
	}

	text := s.textProcessor.Clip(msg.Text, s.cfg.MaxTextSize)
	key := s.cacheKey(text, topK)

	var result *ExplanationResult
	if s.cfg.CacheEnabled && s.cache != nil {
		entry, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			s.logger.Debug("Cache hit for message", zap.String("key", key))
			cached := *entry.Result
			cached.Cached = true
			result = &cached
		case !errors.Is(err, ErrCacheMiss):
			s.logger.Warn("Failed to read cache", zap.Error(err))
		}
	}

	if result == nil {
		var err error
		result, err = s.analyze(ctx, text, topK)
		if err != nil {
			return nil, err
		}

		if s.cfg.CacheEnabled && s.cache != nil {
			now := time.Now()
			entry := &CacheEntry{
				Key:       key,
				Result:    result,
				CreatedAt: now,
				ExpiresAt: now.Add(s.cfg.CacheTTL),
			}
			if err := s.cache.Set(ctx, entry); err != nil {
				s.logger.Error("Failed to update cache", zap.Error(err))
			}
		}
	}

	if s.trusted != nil && s.trusted.IsWhitelisted(msg.Sender) {
		s.logger.Info("Trusted sender, overriding spam verdict",
			zap.String("sender", msg.Sender),
			zap.String("action", "whitelist_bypass"))
		trusted := *result
		trusted.Trusted = true
		trusted.Prediction.IsSpam = false
		result = &trusted
	}

	return result, nil
}

func (s *ExplainerService) analyze(ctx context.Context, text string, topK int) (*ExplanationResult, error) {
	contributions, err := s.engine.Attribute(text, topK)
	if err != nil {
		return nil, err
	}

	probability := s.model.PredictProba(text)
	result := &ExplanationResult{
		Text: text,
		Prediction: Prediction{
			IsSpam:        s.IsSpam(probability),
			Probability:   probability,
			DecisionScore: s.model.DecisionFunction(text),
		},
		Contributions: contributions,
		Highlighted:   explain.HighlightWith(text, contributions, s.cfg.Marker),
		NoSignal:      len(contributions) == 0,
		ModelUsed:     s.model.ModelID(),
		AnalyzedAt:    time.Now(),
		ProcessingID:  uuid.NewString(),
	}

	if s.narrator != nil && !result.NoSignal {
		summary, err := s.narrator.Narrate(ctx, &NarrationRequest{
			Text:          text,
			Prediction:    result.Prediction,
			Contributions: contributions,
		})
		if err != nil {
			s.logger.Warn("Failed to narrate explanation", zap.Error(err))
		} else {
			result.Summary = summary
		}
	}

	s.logger.Debug("Explained message",
		zap.String("processing_id", result.ProcessingID),
		zap.Bool("is_spam", result.Prediction.IsSpam),
		zap.Float64("probability", probability),
		zap.Strings("top_words", explain.Words(contributions)))

	return result, nil
}

// CompareEdit explains an original message and an edited version of it and
// reports whether the edit moved the message out of the spam class
func (s *ExplainerService) CompareEdit(ctx context.Context, original, edited *Message, topK int) (*EditComparison, error) {
	orig, err := s.Explain(ctx, original, topK)
	if err != nil {
		return nil, err
	}
	edit, err := s.Explain(ctx, edited, topK)
	if err != nil {
		return nil, err
	}

	return &EditComparison{
		Original:         orig,
		Edited:           edit,
		Evaded:           orig.Prediction.IsSpam && !edit.Prediction.IsSpam,
		ProbabilityDelta: edit.Prediction.Probability - orig.Prediction.Probability,
		RemovedWords:     wordsMissing(orig.Contributions, edit.Contributions),
		AddedWords:       wordsMissing(edit.Contributions, orig.Contributions),
	}, nil
}

func (s *ExplainerService) cacheKey(text string, topK int) string {
	h := sha256.New()
	h.Write([]byte(s.model.ModelID()))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(topK)))
	h.Write([]byte{0})
	// The verdict and any summary built from it depend on the threshold
	h.Write([]byte(strconv.FormatFloat(s.cfg.Threshold, 'g', -1, 64)))
	h.Write([]byte{0})
	h.Write([]byte(s.cfg.Marker.Open + s.cfg.Marker.Close))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// wordsMissing returns the words of a that are not in b, in a's order
func wordsMissing(a, b []explain.Contribution) []string {
	present := make(map[string]struct{}, len(b))
	for _, c := range b {
		present[strings.ToLower(c.Word)] = struct{}{}
	}

	missing := []string{}
	for _, c := range a {
		if _, ok := present[strings.ToLower(c.Word)]; !ok {
			missing = append(missing, c.Word)
		}
	}
	return missing
}
