package ai

import (
	"context"
	"errors"
)

var (
	// ErrQuestionFailed is the user-facing error for any failed next-question request.
	ErrQuestionFailed = errors.New("failed to generate interview question. Please try again")
	// ErrAnalysisFailed is the user-facing error for any failed transcript analysis.
	ErrAnalysisFailed = errors.New("failed to analyze responses. Please try again")
)

// QuestionRequest is the input of the next-question operation.
// An empty PreviousAnswers asks for the opening question.
type QuestionRequest struct {
	Resume          string `json:"resume"`
	JobDescription  string `json:"jobDescription"`
	PreviousAnswers string `json:"previousAnswers,omitempty"`
}

type QuestionResponse struct {
	Question string `json:"question" mapstructure:"question"`
}

type AnalysisRequest struct {
	Resume              string `json:"resume"`
	JobDescription      string `json:"jobDescription"`
	InterviewTranscript string `json:"interviewTranscript"`
}

type AnalysisResponse struct {
	Feedback string `json:"feedback" mapstructure:"feedback"`
}

// Gateway is the language-model boundary used by the interview driver.
type Gateway interface {
	GenerateQuestion(ctx context.Context, req *QuestionRequest) (*QuestionResponse, error)
	AnalyzeResponses(ctx context.Context, req *AnalysisRequest) (*AnalysisResponse, error)
}

// GatewayError carries the generic user-facing error together with the cause.
// errors.Is matches both of them.
type GatewayError struct {
	Public error
	Cause  error
}

// Fail wraps cause into a GatewayError reported as public.
func Fail(public, cause error) error {
	return &GatewayError{Public: public, Cause: cause}
}

func (e *GatewayError) Error() string {
	return e.Public.Error()
}

func (e *GatewayError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Public}
	}
	return []error{e.Public, e.Cause}
}
