// Package metrics keeps in-process counters for interview activity.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/spigell/ainterviewer/internal/ai"
)

type Metrics struct {
	mu sync.RWMutex

	sessionsStarted   int64
	sessionsActive    int64
	questionsAsked    int64
	feedbackGenerated int64
	gatewayCalls      int64
	gatewayFailures   int64
	lastUpdate        time.Time

	now func() time.Time
}

// Snapshot is a copy of the counters at one point in time.
type Snapshot struct {
	SessionsStarted   int64     `json:"sessions_started"`
	SessionsActive    int64     `json:"sessions_active"`
	QuestionsAsked    int64     `json:"questions_asked"`
	FeedbackGenerated int64     `json:"feedback_generated"`
	GatewayCalls      int64     `json:"gateway_calls"`
	GatewayFailures   int64     `json:"gateway_failures"`
	LastUpdate        time.Time `json:"last_update"`
}

func New() *Metrics {
	return &Metrics{now: time.Now, lastUpdate: time.Now()}
}

func (m *Metrics) SessionStarted() {
	m.update(func() {
		m.sessionsStarted++
		m.sessionsActive++
	})
}

func (m *Metrics) SessionClosed() {
	m.update(func() {
		if m.sessionsActive > 0 {
			m.sessionsActive--
		}
	})
}

func (m *Metrics) QuestionAsked() {
	m.update(func() { m.questionsAsked++ })
}

func (m *Metrics) FeedbackGenerated() {
	m.update(func() { m.feedbackGenerated++ })
}

// GatewayCall records one model round trip.
func (m *Metrics) GatewayCall(success bool) {
	m.update(func() {
		m.gatewayCalls++
		if !success {
			m.gatewayFailures++
		}
	})
}

func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Snapshot{
		SessionsStarted:   m.sessionsStarted,
		SessionsActive:    m.sessionsActive,
		QuestionsAsked:    m.questionsAsked,
		FeedbackGenerated: m.feedbackGenerated,
		GatewayCalls:      m.gatewayCalls,
		GatewayFailures:   m.gatewayFailures,
		LastUpdate:        m.lastUpdate,
	}
}

func (m *Metrics) update(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
	m.lastUpdate = m.now()
}

// Instrument wraps gateway so every call is counted in m.
func Instrument(gateway ai.Gateway, m *Metrics) ai.Gateway {
	return &instrumented{next: gateway, metrics: m}
}

type instrumented struct {
	next    ai.Gateway
	metrics *Metrics
}

func (g *instrumented) GenerateQuestion(ctx context.Context, req *ai.QuestionRequest) (*ai.QuestionResponse, error) {
	resp, err := g.next.GenerateQuestion(ctx, req)
	g.metrics.GatewayCall(err == nil)
	if err == nil {
		g.metrics.QuestionAsked()
	}
	return resp, err
}

func (g *instrumented) AnalyzeResponses(ctx context.Context, req *ai.AnalysisRequest) (*ai.AnalysisResponse, error) {
	resp, err := g.next.AnalyzeResponses(ctx, req)
	g.metrics.GatewayCall(err == nil)
	if err == nil {
		g.metrics.FeedbackGenerated()
	}
	return resp, err
}
