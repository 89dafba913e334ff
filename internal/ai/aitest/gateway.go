// Package aitest provides a scripted ai.Gateway for tests.
package aitest

import (
	"context"
	"sync"

	"github.com/spigell/ainterviewer/internal/ai"
)

// Reply is one scripted gateway result.
type Reply struct {
	Text string
	Err  error
}

// Gateway replays queued replies and records every request it receives.
// When a queue is empty the call fails with the matching public error.
type Gateway struct {
	mu sync.Mutex

	questions []Reply
	analyses  []Reply

	QuestionRequests []ai.QuestionRequest
	AnalysisRequests []ai.AnalysisRequest

	// Block, when set, is waited on before every reply.
	Block chan struct{}
}

var _ ai.Gateway = (*Gateway)(nil)

func (g *Gateway) QueueQuestion(text string, err error) *Gateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.questions = append(g.questions, Reply{Text: text, Err: err})
	return g
}

func (g *Gateway) QueueFeedback(text string, err error) *Gateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.analyses = append(g.analyses, Reply{Text: text, Err: err})
	return g
}

func (g *Gateway) GenerateQuestion(ctx context.Context, req *ai.QuestionRequest) (*ai.QuestionResponse, error) {
	g.mu.Lock()
	g.QuestionRequests = append(g.QuestionRequests, *req)
	reply, ok := pop(&g.questions)
	block := g.Block
	g.mu.Unlock()

	if err := wait(ctx, block); err != nil {
		return nil, ai.Fail(ai.ErrQuestionFailed, err)
	}

	if !ok {
		return nil, ai.Fail(ai.ErrQuestionFailed, nil)
	}
	if reply.Err != nil {
		return nil, ai.Fail(ai.ErrQuestionFailed, reply.Err)
	}
	return &ai.QuestionResponse{Question: reply.Text}, nil
}

func (g *Gateway) AnalyzeResponses(ctx context.Context, req *ai.AnalysisRequest) (*ai.AnalysisResponse, error) {
	g.mu.Lock()
	g.AnalysisRequests = append(g.AnalysisRequests, *req)
	reply, ok := pop(&g.analyses)
	block := g.Block
	g.mu.Unlock()

	if err := wait(ctx, block); err != nil {
		return nil, ai.Fail(ai.ErrAnalysisFailed, err)
	}

	if !ok {
		return nil, ai.Fail(ai.ErrAnalysisFailed, nil)
	}
	if reply.Err != nil {
		return nil, ai.Fail(ai.ErrAnalysisFailed, reply.Err)
	}
	return &ai.AnalysisResponse{Feedback: reply.Text}, nil
}

// QuestionCalls returns the number of next-question requests received so far.
func (g *Gateway) QuestionCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.QuestionRequests)
}

// AnalysisCalls returns the number of analysis requests received so far.
func (g *Gateway) AnalysisCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.AnalysisRequests)
}

func pop(queue *[]Reply) (Reply, bool) {
	if len(*queue) == 0 {
		return Reply{}, false
	}
	reply := (*queue)[0]
	*queue = (*queue)[1:]
	return reply, true
}

func wait(ctx context.Context, block chan struct{}) error {
	if block == nil {
		return nil
	}
	select {
	case <-block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
