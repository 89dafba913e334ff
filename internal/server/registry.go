package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/ainterviewer/internal/ai"
	"github.com/spigell/ainterviewer/internal/interview"
	"github.com/spigell/ainterviewer/internal/logger"
	"github.com/spigell/ainterviewer/internal/metrics"
	"github.com/spigell/ainterviewer/internal/utils"
)

var errSessionNotFound = errors.New("session not found")

type entry struct {
	driver       *interview.Driver
	lastActivity time.Time
}

// Registry holds one interview Driver per browser session id.
type Registry struct {
	gateway ai.Gateway
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

func NewRegistry(gateway ai.Gateway, m *metrics.Metrics, log *zap.Logger) *Registry {
	return &Registry{
		gateway:  gateway,
		metrics:  m,
		logger:   logger.WithFields(log),
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Create registers a fresh session and returns its id.
func (r *Registry) Create() (string, *interview.Driver) {
	id := uuid.NewString()
	driver := interview.NewDriver(r.gateway, logger.WithSession(r.logger, id))

	r.mu.Lock()
	r.sessions[id] = &entry{driver: driver, lastActivity: r.now()}
	r.mu.Unlock()

	r.metrics.SessionStarted()
	r.logger.Debug("session created", zap.String(logger.FieldSession, id))

	return id, driver
}

// Get returns the driver for id and marks the session as active.
func (r *Registry) Get(id string) (*interview.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, errSessionNotFound
	}
	e.lastActivity = r.now()

	return e.driver, nil
}

func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return errSessionNotFound
	}

	r.metrics.SessionClosed()
	r.logger.Debug("session deleted", zap.String(logger.FieldSession, id))

	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Cleanup evicts sessions idle for longer than ttl. Sessions with a model call
// in flight are kept.
func (r *Registry) Cleanup(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)

	r.mu.Lock()
	var evicted []string
	for id, e := range r.sessions {
		if e.lastActivity.After(cutoff) || e.driver.Snapshot().Busy {
			continue
		}
		delete(r.sessions, id)
		evicted = append(evicted, id)
	}
	r.mu.Unlock()

	for _, id := range evicted {
		r.metrics.SessionClosed()
		r.logger.Info("session expired", zap.String(logger.FieldSession, id))
	}

	return len(evicted)
}

// Janitor runs Cleanup every interval until ctx is done.
func (r *Registry) Janitor(ctx context.Context, interval, ttl time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}

	for {
		if err := utils.WaitFor(ctx, interval); err != nil {
			return nil
		}

		if n := r.Cleanup(ttl); n > 0 {
			r.logger.Info("expired idle sessions", zap.Int("count", n), zap.Int("remaining", r.Len()))
		}
	}
}
