package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/ainterviewer/internal/utils"
)

const (
	defaultModel = "gemini-2.5-flash"

	baseRetryDelay = 2 * time.Second
	maxRetryDelay  = 20 * time.Second
)

var (
	sleep = utils.WaitFor

	retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in) ([0-9]+(?:\.[0-9]+)?) ?s`)
)

// modelsClient is the subset of genai.Models used by the Generator.
type modelsClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeneratorConfig describes how the Generator talks to the Gemini API.
type GeneratorConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	// MaxRetries is the number of extra attempts on transient API errors. Zero means a single attempt.
	MaxRetries int
}

// Generator wraps the Google GenAI client to provide simple prompt-based interactions.
type Generator struct {
	models      modelsClient
	model       string
	temperature *float32
	maxRetries  int
	logger      *zap.Logger
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, cfg GeneratorConfig, logger *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, cfg, logger), nil
}

func newGenerator(models modelsClient, cfg GeneratorConfig, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	g := &Generator{
		models:     models,
		model:      model,
		maxRetries: max(cfg.MaxRetries, 0),
		logger:     logger,
	}

	if cfg.Temperature > 0 {
		temperature := float32(cfg.Temperature)
		g.temperature = &temperature
	}

	return g
}

// GenerateContent sends message with the system instruction and returns the textual response.
func (g *Generator) GenerateContent(ctx context.Context, system, message string) (string, error) {
	return g.generate(ctx, system, message, nil)
}

// GenerateStructured asks the model for a JSON document matching schema.
func (g *Generator) GenerateStructured(ctx context.Context, system, message string, schema *genai.Schema) (string, error) {
	return g.generate(ctx, system, message, schema)
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func (g *Generator) generate(ctx context.Context, system, message string, schema *genai.Schema) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("prompt must not be empty")
	}

	config := &genai.GenerateContentConfig{Temperature: g.temperature}
	if system = strings.TrimSpace(system); system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = schema
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: message}},
	}}

	attempts := g.maxRetries + 1
	for attempt := 1; ; attempt++ {
		resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
		if err == nil {
			return responseText(resp)
		}

		delay, retryable := retryDelay(err, attempt)
		if !retryable || attempt >= attempts {
			return "", fmt.Errorf("generate content: %w", err)
		}

		g.logger.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := sleep(ctx, delay); err != nil {
			return "", fmt.Errorf("waiting for retry: %w", err)
		}
	}
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("gemini api returned no response")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

// retryDelay reports whether err is transient and how long to wait before the next attempt.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	apiErr, ok := asAPIError(err)
	if !ok {
		return 0, false
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		delay := baseRetryDelay * time.Duration(attempt)
		if match := retryAfterPattern.FindStringSubmatch(apiErr.Message); match != nil {
			seconds, parseErr := strconv.ParseFloat(match[1], 64)
			if parseErr == nil {
				delay = time.Duration(seconds * float64(time.Second))
			}
		}
		if delay > maxRetryDelay {
			return 0, false
		}
		return delay, true
	case apiErr.Code >= http.StatusInternalServerError:
		return baseRetryDelay * time.Duration(attempt), true
	default:
		return 0, false
	}
}

func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}

	return genai.APIError{}, false
}
