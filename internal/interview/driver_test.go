package interview

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/ainterviewer/internal/ai"
	"github.com/spigell/ainterviewer/internal/ai/aitest"
)

func startedDriver(t *testing.T, gw *aitest.Gateway) *Driver {
	t.Helper()

	d := NewDriver(gw, zap.NewNop())
	if _, err := d.Start(context.Background(), "X", "Y"); err != nil {
		t.Fatalf("start: %v", err)
	}
	return d
}

func TestDriverStartAsksOpeningQuestion(t *testing.T) {
	gw := (&aitest.Gateway{}).QueueQuestion("Q1", nil)
	d := NewDriver(gw, zap.NewNop())

	question, err := d.Start(context.Background(), "X", "Y")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if question != "Q1" {
		t.Fatalf("unexpected question: %q", question)
	}

	if d.State() != StateInterviewing {
		t.Fatalf("expected %s, got %s", StateInterviewing, d.State())
	}

	if len(gw.QuestionRequests) != 1 {
		t.Fatalf("expected exactly one question request, got %d", len(gw.QuestionRequests))
	}

	req := gw.QuestionRequests[0]
	if req.Resume != "X" || req.JobDescription != "Y" || req.PreviousAnswers != "" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestDriverStartRequiresDocuments(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name, resume, jd string
	}{
		{"empty resume", "", "Y"},
		{"blank job description", "X", " \n\t"},
		{"both empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			gw := &aitest.Gateway{}
			d := NewDriver(gw, zap.NewNop())

			if _, err := d.Start(context.Background(), tc.resume, tc.jd); !errors.Is(err, ErrMissingDocuments) {
				t.Fatalf("expected ErrMissingDocuments, got %v", err)
			}
			if d.State() != StateInitial {
				t.Fatalf("expected %s, got %s", StateInitial, d.State())
			}
			if gw.QuestionCalls() != 0 {
				t.Fatalf("no gateway call expected, got %d", gw.QuestionCalls())
			}
		})
	}
}

func TestDriverAnswerSendsHistory(t *testing.T) {
	gw := (&aitest.Gateway{}).QueueQuestion("Q1", nil).QueueQuestion("Q2", nil)
	d := startedDriver(t, gw)

	question, err := d.Answer(context.Background(), "  A1 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if question != "Q2" {
		t.Fatalf("unexpected question: %q", question)
	}

	if len(gw.QuestionRequests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(gw.QuestionRequests))
	}
	if got := gw.QuestionRequests[1].PreviousAnswers; got != "Question: Q1\nAnswer: A1" {
		t.Fatalf("unexpected previous answers: %q", got)
	}

	snap := d.Snapshot()
	want := []Turn{
		{Speaker: SpeakerInterviewer, Text: "Q1"},
		{Speaker: SpeakerCandidate, Text: "A1"},
		{Speaker: SpeakerInterviewer, Text: "Q2"},
	}
	if len(snap.Turns) != len(want) {
		t.Fatalf("expected %d turns, got %d", len(want), len(snap.Turns))
	}
	for i := range want {
		if snap.Turns[i] != want[i] {
			t.Fatalf("turn %d: expected %+v, got %+v", i, want[i], snap.Turns[i])
		}
	}
}

func TestDriverAnswerValidation(t *testing.T) {
	gw := (&aitest.Gateway{}).QueueQuestion("Q1", nil)
	d := startedDriver(t, gw)

	if _, err := d.Answer(context.Background(), "   "); !errors.Is(err, ErrEmptyAnswer) {
		t.Fatalf("expected ErrEmptyAnswer, got %v", err)
	}

	if gw.QuestionCalls() != 1 {
		t.Fatalf("blank answers must not reach the gateway")
	}

	idle := NewDriver(gw, zap.NewNop())
	if _, err := idle.Answer(context.Background(), "A1"); !errors.Is(err, ErrWrongState) {
		t.Fatalf("expected ErrWrongState before start, got %v", err)
	}
}

func TestDriverQuestionFailureIsRecoverable(t *testing.T) {
	gw := (&aitest.Gateway{}).
		QueueQuestion("Q1", nil).
		QueueQuestion("", errors.New("upstream 503")).
		QueueQuestion("Q2", nil)
	d := startedDriver(t, gw)

	_, err := d.Answer(context.Background(), "A1")
	if !errors.Is(err, ai.ErrQuestionFailed) {
		t.Fatalf("expected ErrQuestionFailed, got %v", err)
	}

	if d.State() != StateInterviewing {
		t.Fatalf("expected to stay in %s, got %s", StateInterviewing, d.State())
	}

	if _, err := d.Answer(context.Background(), "A1 again"); !errors.Is(err, ErrQuestionPending) {
		t.Fatalf("expected ErrQuestionPending, got %v", err)
	}

	question, err := d.AskNext(context.Background())
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if question != "Q2" {
		t.Fatalf("unexpected question: %q", question)
	}

	if got := gw.QuestionRequests[2].PreviousAnswers; got != "Question: Q1\nAnswer: A1" {
		t.Fatalf("retry must resend the same history, got %q", got)
	}

	if _, err := d.AskNext(context.Background()); !errors.Is(err, ErrAnswerPending) {
		t.Fatalf("expected ErrAnswerPending, got %v", err)
	}
}

func TestDriverOpeningQuestionFailure(t *testing.T) {
	gw := (&aitest.Gateway{}).QueueQuestion("", errors.New("timeout")).QueueQuestion("Q1", nil)
	d := NewDriver(gw, zap.NewNop())

	if _, err := d.Start(context.Background(), "X", "Y"); !errors.Is(err, ai.ErrQuestionFailed) {
		t.Fatalf("expected ErrQuestionFailed, got %v", err)
	}
	if d.State() != StateInterviewing {
		t.Fatalf("expected %s, got %s", StateInterviewing, d.State())
	}

	question, err := d.AskNext(context.Background())
	if err != nil || question != "Q1" {
		t.Fatalf("expected Q1, got %q (%v)", question, err)
	}
	if gw.QuestionRequests[1].PreviousAnswers != "" {
		t.Fatalf("retry of the opening question must send no history")
	}
}

func TestDriverEndProducesFeedback(t *testing.T) {
	gw := (&aitest.Gateway{}).
		QueueQuestion("Q1", nil).
		QueueQuestion("Q2", nil).
		QueueFeedback("Strengths: focus", nil)
	d := startedDriver(t, gw)

	if _, err := d.Answer(context.Background(), "A1"); err != nil {
		t.Fatalf("answer: %v", err)
	}

	feedback, err := d.End(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if feedback != "Strengths: focus" {
		t.Fatalf("unexpected feedback: %q", feedback)
	}

	if d.State() != StateFeedbackReady {
		t.Fatalf("expected %s, got %s", StateFeedbackReady, d.State())
	}

	if len(gw.AnalysisRequests) != 1 {
		t.Fatalf("expected 1 analysis request, got %d", len(gw.AnalysisRequests))
	}
	req := gw.AnalysisRequests[0]
	if req.InterviewTranscript != "AI: Q1\n\nCandidate: A1\n\nAI: Q2" {
		t.Fatalf("unexpected transcript: %q", req.InterviewTranscript)
	}
	if req.Resume != "X" || req.JobDescription != "Y" {
		t.Fatalf("unexpected documents: %+v", req)
	}

	if _, err := d.Answer(context.Background(), "late"); !errors.Is(err, ErrWrongState) {
		t.Fatalf("expected ErrWrongState after feedback, got %v", err)
	}
}

func TestDriverAnalysisFailureReturnsToInterviewing(t *testing.T) {
	gw := (&aitest.Gateway{}).
		QueueQuestion("Q1", nil).
		QueueFeedback("", errors.New("model overloaded")).
		QueueFeedback("Good job", nil)
	d := startedDriver(t, gw)

	before := d.Snapshot().Turns

	_, err := d.End(context.Background())
	if !errors.Is(err, ai.ErrAnalysisFailed) {
		t.Fatalf("expected ErrAnalysisFailed, got %v", err)
	}

	if d.State() != StateInterviewing {
		t.Fatalf("expected %s, got %s", StateInterviewing, d.State())
	}

	after := d.Snapshot()
	if len(after.Turns) != len(before) || after.Turns[0] != before[0] {
		t.Fatalf("transcript must be untouched: before %+v, after %+v", before, after.Turns)
	}
	if after.Feedback != "" {
		t.Fatalf("feedback must stay empty, got %q", after.Feedback)
	}

	feedback, err := d.End(context.Background())
	if err != nil || feedback != "Good job" {
		t.Fatalf("retry expected to succeed, got %q (%v)", feedback, err)
	}
	if gw.AnalysisRequests[0].InterviewTranscript != gw.AnalysisRequests[1].InterviewTranscript {
		t.Fatalf("retry must submit the same transcript")
	}
}

func TestDriverRestartClearsSession(t *testing.T) {
	gw := (&aitest.Gateway{}).QueueQuestion("Q1", nil).QueueFeedback("Nice", nil)
	d := startedDriver(t, gw)

	if err := d.Restart(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("restart is only allowed from %s, got %v", StateFeedbackReady, err)
	}

	if _, err := d.End(context.Background()); err != nil {
		t.Fatalf("end: %v", err)
	}

	if err := d.Restart(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := d.Snapshot()
	if snap.State != StateInitial {
		t.Fatalf("expected %s, got %s", StateInitial, snap.State)
	}
	if snap.Resume != "" || snap.JobDescription != "" || snap.Feedback != "" || len(snap.Turns) != 0 {
		t.Fatalf("expected cleared session, got %+v", snap)
	}
}

func TestDriverRejectsConcurrentRequests(t *testing.T) {
	gw := (&aitest.Gateway{}).QueueQuestion("Q1", nil).QueueQuestion("Q2", nil)
	d := startedDriver(t, gw)

	block := make(chan struct{})
	gw.Block = block

	done := make(chan error, 1)
	go func() {
		_, err := d.Answer(context.Background(), "A1")
		done <- err
	}()

	deadline := time.After(2 * time.Second)
	for !d.Snapshot().Busy {
		select {
		case <-deadline:
			t.Fatal("driver never became busy")
		case <-time.After(time.Millisecond):
		}
	}

	if _, err := d.AskNext(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if _, err := d.End(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	close(block)

	if err := <-done; err != nil {
		t.Fatalf("answer: %v", err)
	}
	if d.Snapshot().Busy {
		t.Fatal("driver must be idle after the call completes")
	}
}

func TestDriverHonoursContextCancellation(t *testing.T) {
	gw := (&aitest.Gateway{}).QueueQuestion("Q1", nil).QueueQuestion("Q2", nil)
	d := startedDriver(t, gw)
	gw.Block = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Answer(ctx, "A1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if d.Snapshot().Busy {
		t.Fatal("driver must be idle after cancellation")
	}
}
