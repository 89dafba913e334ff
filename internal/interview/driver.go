// Package interview holds the conversation state machine of a mock interview.
package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/ainterviewer/internal/ai"
	"github.com/spigell/ainterviewer/internal/logger"
)

var (
	ErrMissingDocuments = errors.New("resume and job description are required")
	ErrEmptyAnswer      = errors.New("answer must not be empty")
	ErrQuestionPending  = errors.New("waiting for the next question")
	ErrAnswerPending    = errors.New("the current question has not been answered yet")
	ErrWrongState       = errors.New("operation is not allowed in the current state")
	ErrBusy             = errors.New("another request is in progress")
)

// Session is the in-memory record of one interview attempt.
type Session struct {
	Resume         string
	JobDescription string
	Transcript     Transcript
	Feedback       string
}

// Snapshot is a point-in-time copy of a Driver.
type Snapshot struct {
	State          State  `json:"state"`
	Resume         string `json:"resume"`
	JobDescription string `json:"job_description"`
	Turns          []Turn `json:"turns"`
	Feedback       string `json:"feedback,omitempty"`
	Busy           bool   `json:"busy"`
}

// Driver runs one Session through the conversation states.
// At most one gateway call is outstanding at a time; concurrent callers get ErrBusy.
type Driver struct {
	gateway ai.Gateway
	logger  *zap.Logger

	mu      sync.Mutex
	busy    bool
	machine Machine
	session Session
}

func NewDriver(gateway ai.Gateway, log *zap.Logger) *Driver {
	return &Driver{
		gateway: gateway,
		logger:  logger.WithFields(log),
	}
}

// State returns the current conversation state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.machine.CurrentState()
}

func (d *Driver) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	return Snapshot{
		State:          d.machine.CurrentState(),
		Resume:         d.session.Resume,
		JobDescription: d.session.JobDescription,
		Turns:          d.session.Transcript.Turns(),
		Feedback:       d.session.Feedback,
		Busy:           d.busy,
	}
}

// Start stores the documents, enters INTERVIEWING and asks the opening question.
// If the question request fails the interview stays in INTERVIEWING and AskNext retries it.
func (d *Driver) Start(ctx context.Context, resume, jobDescription string) (string, error) {
	d.mu.Lock()
	if d.busy {
		d.mu.Unlock()
		return "", ErrBusy
	}

	if strings.TrimSpace(resume) == "" || strings.TrimSpace(jobDescription) == "" {
		d.mu.Unlock()
		return "", ErrMissingDocuments
	}

	if _, err := d.machine.Transition(EventDocumentsSubmitted); err != nil {
		d.mu.Unlock()
		return "", err
	}

	d.session = Session{Resume: resume, JobDescription: jobDescription}
	d.logger.Info("interview started", zap.String(logger.FieldState, string(StateInterviewing)))

	return d.requestQuestion(ctx)
}

// Answer records the candidate's answer and asks the next question.
// When the question request fails the answer is kept and AskNext retries the request.
func (d *Driver) Answer(ctx context.Context, answer string) (string, error) {
	d.mu.Lock()
	if err := d.checkInterviewing(); err != nil {
		d.mu.Unlock()
		return "", err
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		d.mu.Unlock()
		return "", ErrEmptyAnswer
	}

	if d.session.Transcript.AwaitingQuestion() {
		d.mu.Unlock()
		return "", ErrQuestionPending
	}

	if err := d.session.Transcript.Append(Turn{Speaker: SpeakerCandidate, Text: answer}); err != nil {
		d.mu.Unlock()
		return "", err
	}

	return d.requestQuestion(ctx)
}

// AskNext requests a question when the interviewer owes one, i.e. after a failed request.
func (d *Driver) AskNext(ctx context.Context) (string, error) {
	d.mu.Lock()
	if err := d.checkInterviewing(); err != nil {
		d.mu.Unlock()
		return "", err
	}

	if !d.session.Transcript.AwaitingQuestion() {
		d.mu.Unlock()
		return "", ErrAnswerPending
	}

	return d.requestQuestion(ctx)
}

// End freezes the transcript and asks for feedback. On failure the interview returns to
// INTERVIEWING with the transcript untouched so the user can end it again.
func (d *Driver) End(ctx context.Context) (string, error) {
	d.mu.Lock()
	if d.busy {
		d.mu.Unlock()
		return "", ErrBusy
	}

	if _, err := d.machine.Transition(EventEndRequested); err != nil {
		d.mu.Unlock()
		return "", err
	}

	req := &ai.AnalysisRequest{
		Resume:              d.session.Resume,
		JobDescription:      d.session.JobDescription,
		InterviewTranscript: d.session.Transcript.Format(),
	}
	turns := d.session.Transcript.Len()
	d.busy = true
	d.mu.Unlock()

	d.logger.Info("analyzing interview", zap.Int("turns", turns))

	resp, err := d.gateway.AnalyzeResponses(ctx, req)
	if err == nil && (resp == nil || strings.TrimSpace(resp.Feedback) == "") {
		err = ai.Fail(ai.ErrAnalysisFailed, errors.New("empty feedback"))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.busy = false

	if err != nil {
		if _, tErr := d.machine.Transition(EventAnalysisFailed); tErr != nil {
			return "", errors.Join(err, tErr)
		}
		d.logger.Warn("analysis failed", zap.String(logger.FieldState, string(StateInterviewing)), zap.Error(err))
		return "", err
	}

	if _, err := d.machine.Transition(EventAnalysisSucceeded); err != nil {
		return "", err
	}

	d.session.Feedback = resp.Feedback
	d.logger.Info("feedback ready", zap.String(logger.FieldState, string(StateFeedbackReady)))

	return resp.Feedback, nil
}

// Restart clears the session and returns to INITIAL. Only allowed once feedback is ready.
func (d *Driver) Restart() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.busy {
		return ErrBusy
	}

	if _, err := d.machine.Transition(EventRestart); err != nil {
		return err
	}

	d.session = Session{}
	d.logger.Info("interview restarted", zap.String(logger.FieldState, string(StateInitial)))

	return nil
}

// checkInterviewing must be called with mu held.
func (d *Driver) checkInterviewing() error {
	if d.busy {
		return ErrBusy
	}
	if state := d.machine.CurrentState(); state != StateInterviewing {
		return fmt.Errorf("%w: %s", ErrWrongState, state)
	}
	return nil
}

// requestQuestion must be called with mu held; it releases the lock for the gateway call.
func (d *Driver) requestQuestion(ctx context.Context) (string, error) {
	req := &ai.QuestionRequest{
		Resume:          d.session.Resume,
		JobDescription:  d.session.JobDescription,
		PreviousAnswers: d.session.Transcript.PreviousAnswers(),
	}
	d.busy = true
	d.mu.Unlock()

	resp, err := d.gateway.GenerateQuestion(ctx, req)
	if err == nil && (resp == nil || strings.TrimSpace(resp.Question) == "") {
		err = ai.Fail(ai.ErrQuestionFailed, errors.New("empty question"))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.busy = false

	if err != nil {
		d.logger.Warn("question request failed", zap.Int("turns", d.session.Transcript.Len()), zap.Error(err))
		return "", err
	}

	question := strings.TrimSpace(resp.Question)
	if err := d.session.Transcript.Append(Turn{Speaker: SpeakerInterviewer, Text: question}); err != nil {
		return "", err
	}

	d.logger.Debug("question asked", zap.Int("turns", d.session.Transcript.Len()))

	return question, nil
}
