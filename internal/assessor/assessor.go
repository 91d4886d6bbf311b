// Package assessor runs the judge, the scorers and persistence for fit scoring
// and adoption audits. Both the HTTP API and the event bus drive it.
package assessor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/FitScore/internal/hermes"
	"github.com/MikeSquared-Agency/FitScore/internal/judge"
	"github.com/MikeSquared-Agency/FitScore/internal/scoring"
	"github.com/MikeSquared-Agency/FitScore/internal/store"
)

var (
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrVerificationFailed wraps every judge failure; the judge sentinel stays reachable via errors.Is.
	ErrVerificationFailed = errors.New("verification failed")
)

// ValidationError marks caller input the service refuses to score.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(msg string) error { return &ValidationError{Msg: msg} }

type Assessor struct {
	store    store.Store
	hermes   hermes.Client
	judge    judge.Judge
	narrator *judge.Narrator
	scorer   *scoring.FitScorer
	logger   *slog.Logger
	now      func() time.Time

	// sem bounds concurrent judge calls across HTTP and event-driven scorings.
	sem chan struct{}

	// mu orders wg.Add in scoreAsync against Stop.
	mu      sync.Mutex
	stopped bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func New(s store.Store, h hermes.Client, j judge.Judge, n *judge.Narrator, maxConcurrent int, logger *slog.Logger) *Assessor {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Assessor{
		store:    s,
		hermes:   h,
		judge:    j,
		narrator: n,
		scorer:   scoring.NewFitScorer(scoring.DefaultThresholds()),
		logger:   logger,
		now:      time.Now,
		sem:      make(chan struct{}, maxConcurrent),
		stopCh:   make(chan struct{}),
	}
}

// Stop cancels in-flight event-driven scorings and waits for them to return.
func (a *Assessor) Stop() {
	a.mu.Lock()
	if !a.stopped {
		a.stopped = true
		close(a.stopCh)
	}
	a.mu.Unlock()
	a.wg.Wait()
}

func (a *Assessor) acquire(ctx context.Context) error {
	select {
	case a.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Assessor) release() { <-a.sem }

func (a *Assessor) publish(subject string, data interface{}) {
	if a.hermes == nil {
		return
	}
	if err := a.hermes.Publish(subject, data); err != nil {
		a.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

// SetupSubscriptions scores submissions when asked to over the bus, either by an
// explicit score request or when a new submission is announced.
func (a *Assessor) SetupSubscriptions() {
	if a.hermes == nil {
		return
	}

	_ = a.hermes.Subscribe(hermes.SubjectScoreRequest, func(_ string, data []byte) {
		var evt hermes.ScoreRequestEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			a.logger.Error("failed to unmarshal score request", "error", err)
			return
		}
		a.scoreAsync(evt.SubmissionID)
	})

	_ = a.hermes.Subscribe(hermes.SubjectSubmissionCreated, func(subject string, _ []byte) {
		parts := strings.Split(subject, ".")
		if len(parts) < 4 {
			return
		}
		a.scoreAsync(parts[2])
	})
}

func (a *Assessor) scoreAsync(rawID string) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		a.logger.Warn("ignoring score request with invalid submission id", "submission_id", rawID)
		return
	}

	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		a.logger.Warn("assessor stopping, dropping score request", "submission_id", id)
		return
	}
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			select {
			case <-a.stopCh:
				cancel()
			case <-ctx.Done():
			}
		}()
		if _, err := a.ScoreSubmission(ctx, id); err != nil {
			a.logger.Warn("event-driven scoring failed", "submission_id", id, "error", err)
		}
	}()
}
