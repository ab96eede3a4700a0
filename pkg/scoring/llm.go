package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/internmatch/internmatch-engine/pkg/apperrors"
	"github.com/internmatch/internmatch-engine/pkg/jsonutil"
	"github.com/internmatch/internmatch-engine/pkg/logging"
	"github.com/internmatch/internmatch-engine/pkg/models"
	"github.com/internmatch/internmatch-engine/pkg/retry"
)

const scoringSystemMessage = `You rate how well a student's skills match a research internship listing. ` +
	`Respond with a single JSON object: {"score": <float 0..1>, "reason": "<one-sentence rationale>"}.`

// LLMConfig holds configuration for creating an LLM scorer.
type LLMConfig struct {
	Endpoint string        // Base URL, e.g. "https://api.openai.com/v1"
	Model    string        // Model name, e.g. "gpt-4o-mini"
	APIKey   string        // Optional for local endpoints
	Timeout  time.Duration // Per-request timeout; zero means caller-controlled
}

// LLMScorer scores matches with an OpenAI-compatible chat completion
// endpoint. Any transport, model or parse failure is reported as
// ErrScoringUnavailable so the aggregator can drop the item.
type LLMScorer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewLLMScorer creates a new LLM-backed scorer.
func NewLLMScorer(cfg *LLMConfig, logger *zap.Logger) (*LLMScorer, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")

	return &LLMScorer{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger.Named("llm-scorer"),
	}, nil
}

// Score implements Scorer.
func (s *LLMScorer) Score(ctx context.Context, skills []string, opp *models.Opportunity) (Result, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	prompt := buildScoringPrompt(skills, opp)
	start := time.Now()

	// Transient backend failures (rate limits, resets) get a short
	// retry budget before the item is given up on.
	resp, err := retry.DoWithResult(ctx, retry.ScoringConfig(), func() (openai.ChatCompletionResponse, error) {
		return s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: scoringSystemMessage},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0,
		})
	})
	if err != nil {
		s.logger.Warn("scoring request failed",
			zap.Int64("opportunity_id", opp.ID),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("error", logging.SanitizeError(err)))
		return Result{}, fmt.Errorf("%w: %s", apperrors.ErrScoringUnavailable, logging.SanitizeError(err))
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("%w: empty completion", apperrors.ErrScoringUnavailable)
	}

	result, err := parseScoringResponse(resp.Choices[0].Message.Content)
	if err != nil {
		s.logger.Warn("unparseable scoring response",
			zap.Int64("opportunity_id", opp.ID),
			zap.Error(err))
		return Result{}, fmt.Errorf("%w: %v", apperrors.ErrScoringUnavailable, err)
	}

	s.logger.Debug("scored opportunity",
		zap.Int64("opportunity_id", opp.ID),
		zap.Float64("score", result.Score),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

func buildScoringPrompt(skills []string, opp *models.Opportunity) string {
	return fmt.Sprintf("Student skills: %s\nListing title: %s\nDescription: %s\nRequirements: %s",
		strings.Join(skills, ", "), opp.Title, opp.Description, strings.Join(opp.Requirements, ", "))
}

// parseScoringResponse extracts the {score, reason} object from a model
// response that may be wrapped in markdown fences or prose.
func parseScoringResponse(content string) (Result, error) {
	raw, err := extractJSONObject(content)
	if err != nil {
		return Result{}, err
	}

	// Models drift on field types: score comes back as a number one
	// call and "0.8" or "80%" the next.
	var parsed struct {
		Score  json.RawMessage `json:"score"`
		Reason json.RawMessage `json:"reason"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Result{}, fmt.Errorf("invalid scoring JSON: %w", err)
	}

	score, err := jsonutil.FlexibleFloatValue(parsed.Score)
	if err != nil {
		return Result{}, fmt.Errorf("invalid score field: %w", err)
	}

	return Result{Score: clamp(score), Reason: jsonutil.FlexibleStringValue(parsed.Reason)}, nil
}

// extractJSONObject finds the first balanced JSON object in s, tolerating
// surrounding prose and code fences.
func extractJSONObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", fmt.Errorf("no JSON object in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					candidate := s[start : i+1]
					if json.Valid([]byte(candidate)) {
						return candidate, nil
					}
					return "", fmt.Errorf("malformed JSON object in response")
				}
			}
		}
	}

	return "", fmt.Errorf("unbalanced JSON object in response")
}

var _ Scorer = (*LLMScorer)(nil)
