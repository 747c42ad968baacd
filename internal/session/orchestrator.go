// Package session sequences endpoint tests into resumable test sessions.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/apiprobe/apiprobe/internal/catalog"
	"github.com/apiprobe/apiprobe/internal/httpexec"
	"github.com/apiprobe/apiprobe/internal/loadtest"
	"github.com/apiprobe/apiprobe/internal/models"
	"github.com/apiprobe/apiprobe/internal/resume"
	"github.com/apiprobe/apiprobe/internal/scorer"
)

// ErrNoCheckpoint is returned when a resume is requested but no usable
// checkpoint exists.
var ErrNoCheckpoint = errors.New("no resumable checkpoint found")

// EventType represents the type of session event
type EventType int

const (
	// EventStarting indicates a test is about to start
	EventStarting EventType = iota
	// EventCompleted indicates a test has completed
	EventCompleted
)

// Event represents an event during session execution
type Event struct {
	Type     EventType
	Endpoint catalog.Endpoint
	Result   *models.TestResult // nil for Starting events
	Index    int                // current test index (0-based)
	Total    int                // total number of tests
}

// OnEvent is a callback function for session events
type OnEvent func(event Event)

// Orchestrator executes endpoint selections sequentially, scoring
// responses and checkpointing progress after each completed test.
//
// State machine: running -> {paused, completed, failed}, and
// paused -> running on resume. Pausing stops issuing new requests; a
// request already in flight is left to settle and its result discarded.
type Orchestrator struct {
	cfg     models.TestConfig
	client  httpexec.Client
	builder *httpexec.RequestBuilder
	store   *resume.Store
	log     logrus.FieldLogger

	mu     sync.Mutex
	paused bool
}

// New creates an orchestrator. The store may be nil when persistence is
// disabled entirely.
func New(cfg models.TestConfig, client httpexec.Client, store *resume.Store, log logrus.FieldLogger) *Orchestrator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Orchestrator{
		cfg:     cfg,
		client:  client,
		builder: httpexec.NewRequestBuilder(),
		store:   store,
		log:     log,
	}
}

// Pause stops the orchestrator from issuing new requests. The session
// transitions to paused before the next test would start.
func (o *Orchestrator) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paused = true
}

func (o *Orchestrator) isPaused() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.paused
}

// Run starts a new session over the endpoint selection and executes it
// to completion, pause, or failure.
func (o *Orchestrator) Run(ctx context.Context, name string, endpoints []catalog.Endpoint, onEvent OnEvent) (*models.TestSession, error) {
	o.mu.Lock()
	o.paused = false
	o.mu.Unlock()

	session := &models.TestSession{
		ID:         uuid.NewString(),
		Name:       name,
		StartedAt:  time.Now(),
		Status:     models.SessionRunning,
		TotalTests: len(endpoints),
		Results:    make([]models.TestResult, 0, len(endpoints)),
		Config:     o.cfg,
	}

	o.log.WithFields(logrus.Fields{
		"session":   session.ID,
		"endpoints": len(endpoints),
	}).Info("starting test session")

	return o.run(ctx, session, endpoints, 0, onEvent)
}

// Resume continues a previously checkpointed session. An empty sessionID
// resumes the most recent one. Session counts are recomputed from the
// partial results rather than trusted from any cached totals.
func (o *Orchestrator) Resume(ctx context.Context, sessionID string, endpoints []catalog.Endpoint, onEvent OnEvent) (*models.TestSession, error) {
	if o.store == nil {
		return nil, ErrNoCheckpoint
	}
	data := o.store.Load(sessionID)
	if data == nil {
		return nil, ErrNoCheckpoint
	}
	if data.LastCompletedIndex > len(endpoints) {
		return nil, fmt.Errorf("checkpoint covers %d tests but selection has only %d endpoints", data.LastCompletedIndex, len(endpoints))
	}

	o.mu.Lock()
	o.paused = false
	o.mu.Unlock()

	session := &models.TestSession{
		ID:         data.SessionID,
		Name:       data.SessionID,
		StartedAt:  time.Now(),
		Status:     models.SessionRunning,
		TotalTests: len(endpoints),
		Results:    append([]models.TestResult(nil), data.PartialResults[:data.LastCompletedIndex]...),
		Config:     data.Config,
	}
	session.RecountFromResults()

	o.log.WithFields(logrus.Fields{
		"session":   session.ID,
		"completed": data.LastCompletedIndex,
		"total":     len(endpoints),
	}).Info("resuming test session")

	return o.run(ctx, session, endpoints, data.LastCompletedIndex, onEvent)
}

func (o *Orchestrator) run(ctx context.Context, session *models.TestSession, endpoints []catalog.Endpoint, startIndex int, onEvent OnEvent) (*models.TestSession, error) {
	total := len(endpoints)

	for i := startIndex; i < total; i++ {
		if o.isPaused() {
			o.pauseSession(session)
			return session, nil
		}
		if err := ctx.Err(); err != nil {
			// Orchestration-level interruption, not a per-endpoint failure
			session.Status = models.SessionFailed
			o.endSession(session)
			return session, err
		}

		ep := endpoints[i]
		if onEvent != nil {
			onEvent(Event{Type: EventStarting, Endpoint: ep, Index: i, Total: total})
		}

		result := o.execute(ctx, session.Config, ep)

		// A pause may have arrived while the request was in flight; the
		// settled result is discarded in that case.
		if o.isPaused() {
			o.pauseSession(session)
			return session, nil
		}

		session.AddResult(result)

		if o.store != nil && session.Config.Persistence {
			o.store.Save(session.ID, i+1, session.Config, session.Results)
		}

		if onEvent != nil {
			onEvent(Event{Type: EventCompleted, Endpoint: ep, Result: &result, Index: i, Total: total})
		}
	}

	session.Status = models.SessionCompleted
	o.endSession(session)

	if o.store != nil && session.Config.Persistence {
		o.store.Clear(session.ID)
	}

	o.log.WithFields(logrus.Fields{
		"session":    session.ID,
		"successful": session.SuccessfulTests,
		"failed":     session.FailedTests,
	}).Info("test session completed")

	return session, nil
}

func (o *Orchestrator) pauseSession(session *models.TestSession) {
	session.Status = models.SessionPaused
	o.log.WithFields(logrus.Fields{
		"session":   session.ID,
		"completed": session.CompletedTests,
	}).Info("test session paused")
}

func (o *Orchestrator) endSession(session *models.TestSession) {
	now := time.Now()
	session.EndedAt = &now
}

// execute runs a single endpoint test. Per-endpoint failures of any
// class (transport, HTTP-level, timeout) are recorded as failed results
// and never abort the session.
func (o *Orchestrator) execute(ctx context.Context, cfg models.TestConfig, ep catalog.Endpoint) models.TestResult {
	req := o.builder.Build(cfg, ep)

	result := models.TestResult{
		EndpointName: ep.Name,
		Method:       ep.Method,
		Path:         ep.Path,
		Category:     ep.Category,
		RequestStart: time.Now(),
		Status:       models.StatusPending,
	}

	resp, err := o.client.Do(ctx, req)
	result.ResponseEnd = time.Now()
	result.TotalTimeMs = result.ResponseEnd.Sub(result.RequestStart).Milliseconds()

	if err != nil {
		result.Error = err.Error()
		result.Status = models.StatusError
		if httpexec.IsTimeout(err) {
			result.Status = models.StatusTimeout
		}
		var reqErr *httpexec.RequestError
		if errors.As(err, &reqErr) {
			result.StatusCode = reqErr.StatusCode
		}
		return result
	}

	result.StatusCode = resp.StatusCode
	result.RawResponse = resp.Body
	result.RequestSize = resp.RequestSize
	result.ResponseSize = resp.ResponseSize
	result.RequestTimeMs = resp.RequestTime.Milliseconds()
	result.ResponseTimeMs = resp.ResponseTime.Milliseconds()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		result.Status = models.StatusSuccess
	} else {
		result.Status = models.StatusError
		result.Error = fmt.Sprintf("unexpected status code %d", resp.StatusCode)
	}

	if ep.Expected != nil && cfg.ValidateResponses {
		result.ExpectedResponse = ep.Expected
		result.AccuracyPercentage = scoreResponse(ep.Expected, resp.Body)
	}

	return result
}

// scoreResponse decodes the raw body and scores it against the expected
// shape. An unparseable body scores 0.
func scoreResponse(expected any, rawBody string) float64 {
	var actual any
	if err := json.Unmarshal([]byte(rawBody), &actual); err != nil {
		return 0
	}
	return scorer.Score(expected, actual)
}

// LoadOperation adapts one endpoint into a load-test invocation, so
// concurrent bursts reuse the same request building and execution path
// as sequential testing.
func (o *Orchestrator) LoadOperation(ep catalog.Endpoint) loadtest.Operation {
	return func(ctx context.Context) (time.Duration, error) {
		req := o.builder.Build(o.cfg, ep)
		resp, err := o.client.Do(ctx, req)
		if err != nil {
			return 0, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return resp.TotalTime, &httpexec.RequestError{
				Kind:       httpexec.KindHTTP,
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("unexpected status code %d", resp.StatusCode),
			}
		}
		return resp.TotalTime, nil
	}
}
