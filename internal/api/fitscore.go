package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/FitScore/internal/assessor"
	"github.com/MikeSquared-Agency/FitScore/internal/judge"
	"github.com/MikeSquared-Agency/FitScore/internal/scoring"
	"github.com/MikeSquared-Agency/FitScore/internal/store"
)

type FitScoreHandler struct {
	assessor *assessor.Assessor
	store    store.Store
	logger   *slog.Logger
}

func NewFitScoreHandler(a *assessor.Assessor, s store.Store, logger *slog.Logger) *FitScoreHandler {
	return &FitScoreHandler{assessor: a, store: s, logger: logger}
}

type FitScoreRequest struct {
	SubmissionID string `json:"submission_id"`
}

type FitScoreResponse struct {
	Success           bool                   `json:"success"`
	FitScore          int                    `json:"fit_score"`
	DealBreakerFlags  []string               `json:"deal_breaker_flags"`
	WeightedScores    map[string]float64     `json:"weighted_scores"`
	OverallAssessment string                 `json:"overall_assessment"`
	HasDealBreakers   bool                   `json:"has_deal_breakers"`
	ResponseStatus    scoring.ResponseStatus `json:"response_status"`
	Message           string                 `json:"message,omitempty"`
}

func (h *FitScoreHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req FitScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	id, err := uuid.Parse(req.SubmissionID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid submission_id format"})
		return
	}

	out, err := h.assessor.ScoreSubmission(r.Context(), id)
	if err != nil {
		h.writeScoringError(w, id, err)
		return
	}

	resp := FitScoreResponse{
		Success:           true,
		FitScore:          out.Result.FitScore,
		DealBreakerFlags:  out.Result.DealBreakerFlags,
		WeightedScores:    out.Result.WeightedScores,
		OverallAssessment: out.OverallAssessment,
		HasDealBreakers:   out.Result.HasDealBreakers(),
		ResponseStatus:    out.Result.ResponseStatus,
	}
	if out.NoRequirements {
		resp.Message = "No requirements defined for this RFP"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *FitScoreHandler) writeScoringError(w http.ResponseWriter, id uuid.UUID, err error) {
	if errors.Is(err, assessor.ErrSubmissionNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "submission not found"})
		return
	}

	if !errors.Is(err, assessor.ErrVerificationFailed) {
		h.logger.Error("fit scoring failed", "submission_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	status := http.StatusInternalServerError
	detail := "the judge could not evaluate this submission"
	switch {
	case errors.Is(err, judge.ErrRateLimited):
		status = http.StatusTooManyRequests
		detail = "rate limit exceeded, please try again later"
	case errors.Is(err, judge.ErrQuotaExhausted):
		status = http.StatusPaymentRequired
		detail = "judge credits exhausted"
	}
	h.logger.Warn("fit scoring rejected by judge", "submission_id", id, "error", err)
	writeJSON(w, status, map[string]interface{}{
		"error":     "verification failed",
		"detail":    detail,
		"kind":      judge.Kind(err),
		"retryable": true,
	})
}

type StoredScoreResponse struct {
	SubmissionID     uuid.UUID          `json:"submission_id"`
	Scored           bool               `json:"scored"`
	FitScore         *int               `json:"fit_score"`
	DealBreakerFlags []string           `json:"deal_breaker_flags"`
	WeightedScores   map[string]float64 `json:"weighted_scores"`
	ResponseStatus   string             `json:"response_status,omitempty"`
}

func (h *FitScoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid submission id"})
		return
	}
	sub, err := h.store.GetSubmission(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load submission", "submission_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	// Scores are visible to the submitting vendor and the RFP's airline only.
	user := UserFromContext(r.Context())
	if sub == nil || user == nil || !sub.VisibleTo(user.ID) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "submission not found"})
		return
	}

	resp := StoredScoreResponse{
		SubmissionID:     sub.ID,
		Scored:           sub.FitScore != nil,
		FitScore:         sub.FitScore,
		DealBreakerFlags: sub.DealBreakerFlags,
		WeightedScores:   sub.WeightedScores,
		ResponseStatus:   sub.ResponseStatus,
	}
	if resp.DealBreakerFlags == nil {
		resp.DealBreakerFlags = []string{}
	}
	if resp.WeightedScores == nil {
		resp.WeightedScores = map[string]float64{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
