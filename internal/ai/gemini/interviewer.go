package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/ainterviewer/internal/ai"
	"github.com/spigell/ainterviewer/internal/prompt"
	"github.com/spigell/ainterviewer/internal/utils"
)

const (
	defaultMaxLogLength = 200

	systemInstruction = "Respond with a single JSON object that matches the response schema. Do not add any other text."
)

var (
	questionSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"question": {Type: genai.TypeString, Description: "The generated interview question."},
		},
		Required: []string{"question"},
	}

	feedbackSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"feedback": {Type: genai.TypeString, Description: "The feedback on the interview performance."},
		},
		Required: []string{"feedback"},
	}
)

type contentGenerator interface {
	GenerateStructured(ctx context.Context, system, message string, schema *genai.Schema) (string, error)
}

// Interviewer implements ai.Gateway on top of a Gemini generator.
type Interviewer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Gateway = (*Interviewer)(nil)

func NewInterviewer(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Interviewer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Interviewer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// GenerateQuestion asks the model for the next interview question.
func (i *Interviewer) GenerateQuestion(ctx context.Context, req *ai.QuestionRequest) (*ai.QuestionResponse, error) {
	if req == nil {
		return nil, ai.Fail(ai.ErrQuestionFailed, fmt.Errorf("question request is required"))
	}

	p := prompt.Question(req.Resume, req.JobDescription, req.PreviousAnswers)

	var out ai.QuestionResponse
	if err := i.call(ctx, "generate_question", p, questionSchema, &out); err != nil {
		i.logger.Error("generating interview question", zap.Error(err))
		return nil, ai.Fail(ai.ErrQuestionFailed, err)
	}

	out.Question = strings.TrimSpace(out.Question)
	if out.Question == "" {
		i.logger.Error("generating interview question", zap.String("reason", "empty question"))
		return nil, ai.Fail(ai.ErrQuestionFailed, fmt.Errorf("model returned an empty question"))
	}

	return &out, nil
}

// AnalyzeResponses asks the model for feedback on the whole transcript.
func (i *Interviewer) AnalyzeResponses(ctx context.Context, req *ai.AnalysisRequest) (*ai.AnalysisResponse, error) {
	if req == nil {
		return nil, ai.Fail(ai.ErrAnalysisFailed, fmt.Errorf("analysis request is required"))
	}

	p := prompt.Analysis(req.Resume, req.JobDescription, req.InterviewTranscript)

	var out ai.AnalysisResponse
	if err := i.call(ctx, "analyze_responses", p, feedbackSchema, &out); err != nil {
		i.logger.Error("analyzing interview responses", zap.Error(err))
		return nil, ai.Fail(ai.ErrAnalysisFailed, err)
	}

	out.Feedback = strings.TrimSpace(out.Feedback)
	if out.Feedback == "" {
		i.logger.Error("analyzing interview responses", zap.String("reason", "empty feedback"))
		return nil, ai.Fail(ai.ErrAnalysisFailed, fmt.Errorf("model returned empty feedback"))
	}

	return &out, nil
}

func (i *Interviewer) call(ctx context.Context, op, p string, schema *genai.Schema, out any) error {
	i.logger.Debug("gemini generate content request",
		zap.String("operation", op),
		zap.Int("prompt_length", utf8.RuneCountInString(p)),
		zap.String("prompt_preview", utils.TruncateForLog(p, i.maxLogLen)),
	)

	raw, err := i.generator.GenerateStructured(ctx, systemInstruction, p, schema)
	if err != nil {
		return err
	}

	i.logger.Debug("gemini generate content response",
		zap.String("operation", op),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, i.maxLogLen)),
	)

	return decodeResponse(raw, out)
}

// decodeResponse decodes the model's JSON object into out, tolerating markdown code fences.
func decodeResponse(raw string, out any) error {
	var data map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return fmt.Errorf("parse gemini response: %w", err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("create response decoder: %w", err)
	}

	if err := decoder.Decode(data); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}

	return nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
