package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/phrazzld/lessonhub-api/internal/config"
	"github.com/phrazzld/lessonhub-api/internal/generation"
	"github.com/phrazzld/lessonhub-api/internal/platform/logger"
	"google.golang.org/genai"
)

const (
	defaultBaseDelay = time.Second
	jsonMIMEType     = "application/json"
)

// contentModel is the part of genai.Models the generator calls.
type contentModel interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Generator implements generation.Generator against the Gemini API.
type Generator struct {
	models     contentModel
	model      string
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

var _ generation.Generator = (*Generator)(nil)

// NewGenerator creates a Gemini client from cfg.
func NewGenerator(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (*Generator, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return newGenerator(client.Models, cfg.ModelName, cfg.MaxRetries, logger), nil
}

func newGenerator(models contentModel, model string, maxRetries int, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		models:     models,
		model:      model,
		maxRetries: max(maxRetries, 0),
		baseDelay:  defaultBaseDelay,
		logger:     logger.With(slog.String("component", "gemini_generator")),
	}
}

// GenerateLessonContent implements generation.Generator.
func (g *Generator) GenerateLessonContent(
	ctx context.Context,
	req generation.LessonRequest,
) (*generation.LessonContent, error) {
	if strings.TrimSpace(req.LessonName) == "" {
		return nil, fmt.Errorf("%w: lesson name cannot be empty", generation.ErrGenerationFailed)
	}
	prompt, err := renderPrompt(lessonTemplate, req)
	if err != nil {
		return nil, err
	}

	var out generation.LessonContent
	if err := g.callWithRetry(ctx, prompt, &out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// GeneratePresentation implements generation.Generator.
func (g *Generator) GeneratePresentation(
	ctx context.Context,
	req generation.PresentationRequest,
) (*generation.Presentation, error) {
	if strings.TrimSpace(req.CourseName) == "" {
		return nil, fmt.Errorf("%w: course name cannot be empty", generation.ErrGenerationFailed)
	}
	prompt, err := renderPrompt(presentationTemplate, req)
	if err != nil {
		return nil, err
	}

	var out generation.Presentation
	if err := g.callWithRetry(ctx, prompt, &out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// callWithRetry sends prompt and decodes the JSON answer into out. Up to
// maxRetries extra attempts are made for transient failures, waiting
// baseDelay * 2^attempt scaled by a jitter factor in [0.5, 1).
func (g *Generator) callWithRetry(ctx context.Context, prompt string, out any) error {
	log := logger.FromContextOrDefault(ctx, g.logger)

	for attempt := 0; ; attempt++ {
		err := g.call(ctx, prompt, out)
		if err == nil {
			if attempt > 0 {
				log.Info("gemini call succeeded after retry", slog.Int("attempt", attempt+1))
			}
			return nil
		}

		if !errors.Is(err, generation.ErrTransientFailure) {
			log.Warn("gemini call failed permanently", slog.String("error", err.Error()))
			return err
		}
		if attempt >= g.maxRetries {
			log.Warn("gemini retries exhausted",
				slog.Int("attempts", attempt+1),
				slog.String("error", err.Error()))
			return err
		}

		delay := time.Duration(float64(g.baseDelay) * math.Pow(2, float64(attempt)) * (0.5 + rand.Float64()*0.5))
		log.Info("retrying gemini call",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}
}

func (g *Generator) call(ctx context.Context, prompt string, out any) error {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: jsonMIMEType,
	})
	if err != nil {
		return classifyError(err)
	}

	text, err := responseText(resp)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("%w: failed to parse JSON response: %v", generation.ErrInvalidResponse, err)
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}
	return sb.String(), nil
}

// classifyError treats client errors other than 429 as permanent and
// everything else as transient.
func classifyError(err error) error {
	var (
		apiErr    genai.APIError
		apiErrPtr *genai.APIError
		code      int
	)
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}

	if code >= http.StatusBadRequest && code < http.StatusInternalServerError && code != http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}
	return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
}
