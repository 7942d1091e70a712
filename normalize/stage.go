// Package normalize maps free text or a bare dish name into the strict
// recipe schema through a language model call. It is the only component
// allowed to call an external model; everything upstream is deterministic.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aurachef/ladle/llm"
	"github.com/aurachef/ladle/recipe"
)

// ErrNoRecipeContent is returned in extraction mode when the model reports
// the source content contains no recipe. Callers show different guidance
// for this than for a malformed model output.
var ErrNoRecipeContent = errors.New("source content contains no recipe")

// ValidationError is returned when the model produced output that failed
// schema validation, after the permitted retry.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "model output failed validation: " + e.Reason
}

// Input selects the normalization mode. RawContent present means extraction
// mode; absent means knowledge mode, where RecipeName drives generation.
type Input struct {
	RawContent string
	RecipeName string
	SourceURL  string
}

// Stage is the validation and formatting stage.
type Stage struct {
	client  llm.Client
	model   string
	timeout time.Duration
	log     *zap.Logger
}

// StageOption configures a Stage.
type StageOption func(*Stage)

// WithTimeout bounds each model call. The default is 90 seconds.
func WithTimeout(d time.Duration) StageOption {
	return func(s *Stage) { s.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) StageOption {
	return func(s *Stage) { s.log = log }
}

// NewStage creates a normalization stage using the given model client.
func NewStage(client llm.Client, model string, opts ...StageOption) *Stage {
	s := &Stage{
		client:  client,
		model:   model,
		timeout: 90 * time.Second,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Normalize produces a validated recipe from the input, retrying the
// formatting prompt at most once when the model's output fails schema
// validation.
func (s *Stage) Normalize(ctx context.Context, in Input) (*recipe.Recipe, error) {
	extractionMode := in.RawContent != ""

	var prompt string
	if extractionMode {
		prompt = extractionPrompt(in.RawContent, in.SourceURL)
	} else {
		if in.RecipeName == "" {
			return nil, &ValidationError{Reason: "no content and no recipe name provided"}
		}
		prompt = knowledgePrompt(in.RecipeName)
	}

	const maxAttempts = 2
	var lastReason string
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		resp, err := s.client.Complete(callCtx, llm.Request{
			Model:        s.model,
			Messages:     []llm.Message{llm.SystemMessage(prompt)},
			JSONResponse: true,
		})
		cancel()
		if err != nil {
			return nil, fmt.Errorf("model call: %w", err)
		}

		out, err := parseModelOutput(resp.Text)
		if err != nil {
			lastReason = err.Error()
			s.log.Warn("unparseable model output",
				zap.Int("attempt", attempt), zap.Error(err))
			prompt = appendFormatCorrection(prompt, lastReason)
			continue
		}

		if extractionMode && !out.IsValidRecipe {
			// The content genuinely holds no recipe; retrying the prompt
			// cannot change that.
			if out.Reason != "" {
				return nil, fmt.Errorf("%w: %s", ErrNoRecipeContent, out.Reason)
			}
			return nil, ErrNoRecipeContent
		}

		r := out.toRecipe()
		if err := r.Validate(); err != nil {
			lastReason = err.Error()
			s.log.Warn("model output failed schema validation",
				zap.Int("attempt", attempt), zap.Error(err))
			prompt = appendFormatCorrection(prompt, lastReason)
			continue
		}

		r.Finalize(in.SourceURL)
		return r, nil
	}

	return nil, &ValidationError{Reason: lastReason}
}
