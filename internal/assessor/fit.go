package assessor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/FitScore/internal/hermes"
	"github.com/MikeSquared-Agency/FitScore/internal/judge"
	"github.com/MikeSquared-Agency/FitScore/internal/scoring"
	"github.com/MikeSquared-Agency/FitScore/internal/store"
)

// FitOutcome is the result of scoring one submission.
type FitOutcome struct {
	SubmissionID      uuid.UUID
	Result            scoring.FitScoreResult
	OverallAssessment string
	Model             string
	NoRequirements    bool
	// Persisted is false when the score was computed but the write-back failed.
	Persisted bool
}

// ScoreSubmission judges a submission against its RFP's requirements, scores it
// and writes the score back. A judge failure is returned wrapping both
// ErrVerificationFailed and the judge's own error, and nothing is written.
func (a *Assessor) ScoreSubmission(ctx context.Context, id uuid.UUID) (*FitOutcome, error) {
	sub, err := a.store.GetSubmission(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	if sub == nil {
		return nil, ErrSubmissionNotFound
	}

	rows, err := a.store.ListRequirements(ctx, sub.RFPID)
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	reqs := make([]scoring.Requirement, 0, len(rows))
	for _, r := range rows {
		reqs = append(reqs, r.Scoring())
	}

	log := a.logger.With("submission_id", id, "rfp_id", sub.RFPID, "requirements", len(reqs))
	out := &FitOutcome{SubmissionID: id}

	if len(reqs) == 0 {
		out.NoRequirements = true
		out.Result = a.scorer.Score(nil, nil)
	} else {
		eval, err := a.evaluate(ctx, sub, reqs)
		if err != nil {
			kind := judge.Kind(err)
			judgeFailuresTotal.WithLabelValues(kind).Inc()
			log.Warn("verification failed", "kind", kind, "error", err)
			a.publish(hermes.SubjectVerificationFailed(id.String()), hermes.VerificationFailedEvent{
				SubmissionID: id.String(),
				AttemptID:    uuid.NewString(),
				Kind:         kind,
				Error:        err.Error(),
				Retryable:    true,
				FailedAt:     a.now().UTC(),
			})
			return nil, fmt.Errorf("%w: %w", ErrVerificationFailed, err)
		}
		out.Result = a.scorer.Score(reqs, eval.Judgments)
		out.OverallAssessment = eval.OverallAssessment
		out.Model = eval.Model
	}

	err = a.store.SaveSubmissionScore(ctx, id, &store.SubmissionScore{
		FitScore:         out.Result.FitScore,
		DealBreakerFlags: out.Result.DealBreakerFlags,
		WeightedScores:   out.Result.WeightedScores,
		ResponseStatus:   string(out.Result.ResponseStatus),
	})
	if err != nil {
		persistFailuresTotal.WithLabelValues("submission_score").Inc()
		log.Error("failed to persist fit score", "error", err, "fit_score", out.Result.FitScore)
	} else {
		out.Persisted = true
	}

	scoringsTotal.WithLabelValues(string(out.Result.ResponseStatus)).Inc()
	log.Info("submission scored",
		"fit_score", out.Result.FitScore,
		"status", out.Result.ResponseStatus,
		"deal_breakers", len(out.Result.DealBreakerFlags),
	)

	a.publish(hermes.SubjectSubmissionScored(id.String()), hermes.SubmissionScoredEvent{
		SubmissionID:     id.String(),
		FitScore:         out.Result.FitScore,
		ResponseStatus:   string(out.Result.ResponseStatus),
		DealBreakerFlags: out.Result.DealBreakerFlags,
		Model:            out.Model,
		Persisted:        out.Persisted,
		ScoredAt:         a.now().UTC(),
	})
	return out, nil
}

func (a *Assessor) evaluate(ctx context.Context, sub *store.Submission, reqs []scoring.Requirement) (*judge.Evaluation, error) {
	if err := a.acquire(ctx); err != nil {
		return nil, err
	}
	defer a.release()

	req := judge.Request{
		SubmissionID: sub.ID.String(),
		Proposal:     sub.PitchText,
		Requirements: reqs,
	}
	if sub.RFP != nil {
		req.RFPTitle = sub.RFP.Title
		req.RFPDescription = sub.RFP.Description
	}

	start := time.Now()
	eval, err := a.judge.Evaluate(ctx, req)
	judgeDuration.Observe(time.Since(start).Seconds())
	return eval, err
}
