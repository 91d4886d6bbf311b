// Package judge asks an LLM to score a vendor proposal against RFP requirements
// and turns its reply into per-requirement judgments for the scorer.
package judge

import (
	"context"
	"errors"

	"github.com/MikeSquared-Agency/FitScore/internal/scoring"
)

var (
	ErrRateLimited    = errors.New("judge rate limited")
	ErrQuotaExhausted = errors.New("judge quota exhausted")
	ErrNoContent      = errors.New("judge returned no content")
	ErrMalformed      = errors.New("judge returned malformed output")
)

// Completer sends one system+user prompt pair to a model and returns its text reply.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Model() string
}

// Request is everything the judge needs to evaluate one submission.
// Requirements must be in the order the scorer will receive them.
type Request struct {
	SubmissionID   string
	RFPTitle       string
	RFPDescription string
	Proposal       string
	Requirements   []scoring.Requirement
}

// Evaluation is the judge's parsed verdict.
type Evaluation struct {
	Judgments         []scoring.Judgment `json:"judgments"`
	OverallAssessment string             `json:"overall_assessment"`
	Dropped           int                `json:"dropped"`
	Model             string             `json:"model"`
	Raw               string             `json:"-"`
}

// Judge evaluates a proposal. Any error means no score may be computed.
type Judge interface {
	Evaluate(ctx context.Context, req Request) (*Evaluation, error)
}

// Kind names the failure class of a judge error for metrics and API responses.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrQuotaExhausted):
		return "quota_exhausted"
	case errors.Is(err, ErrNoContent):
		return "no_content"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "upstream"
	}
}
