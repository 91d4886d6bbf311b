package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/FitScore/internal/assessor"
	"github.com/MikeSquared-Agency/FitScore/internal/judge"
	"github.com/MikeSquared-Agency/FitScore/internal/scoring"
	"github.com/MikeSquared-Agency/FitScore/internal/store"
)

type AdoptionHandler struct {
	assessor *assessor.Assessor
	store    store.Store
	logger   *slog.Logger
}

func NewAdoptionHandler(a *assessor.Assessor, s store.Store, logger *slog.Logger) *AdoptionHandler {
	return &AdoptionHandler{assessor: a, store: s, logger: logger}
}

type EvaluateRequest struct {
	AirlineID   string                 `json:"airline_id,omitempty"`
	AirlineName string                 `json:"airline_name,omitempty"`
	Items       []scoring.AdoptionItem `json:"items"`
}

type AuditResponse struct {
	AuditID         uuid.UUID              `json:"audit_id"`
	OverallScore    int                    `json:"overall_score"`
	Band            scoring.Band           `json:"band"`
	Summary         string                 `json:"summary"`
	Recommendations []judge.Recommendation `json:"recommendations"`
}

func (h *AdoptionHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if (req.AirlineID == "" && strings.TrimSpace(req.AirlineName) == "") || len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "airline_id or airline_name and items are required"})
		return
	}

	user := UserFromContext(r.Context())
	airlineID, ok := h.airlineID(w, req.AirlineID, user.ID)
	if !ok {
		return
	}

	out, err := h.assessor.EvaluateAdoption(r.Context(), assessor.AuditInput{
		AirlineID:    airlineID,
		ConsultantID: user.ID,
		Items:        req.Items,
	})
	if err != nil {
		h.writeAdoptionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, auditResponse(out))
}

// airlineID parses the requested airline, falling back to the caller's own id
// when only an airline name was given.
func (h *AdoptionHandler) airlineID(w http.ResponseWriter, raw string, fallback uuid.UUID) (uuid.UUID, bool) {
	if raw == "" {
		return fallback, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid airline_id format"})
		return uuid.Nil, false
	}
	return id, true
}

type UploadRequest struct {
	CSVData     []scoring.UsageRow `json:"csv_data"`
	AirlineName string             `json:"airline_name"`
	AirlineID   string             `json:"airline_id,omitempty"`
	FileName    string             `json:"file_name,omitempty"`
}

type UploadResponse struct {
	Success bool `json:"success"`
	AuditResponse
	ProcessedData ProcessedData `json:"processed_data"`
}

type ProcessedData struct {
	ToolsAnalyzed    int                 `json:"tools_analyzed"`
	RecordsProcessed int                 `json:"records_processed"`
	Tools            []scoring.ToolUsage `json:"tools"`
}

func (h *AdoptionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var req UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.CSVData == nil || strings.TrimSpace(req.AirlineName) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing csv_data or airline_name"})
		return
	}

	user := UserFromContext(r.Context())
	airlineID, ok := h.airlineID(w, req.AirlineID, user.ID)
	if !ok {
		return
	}

	out, err := h.assessor.ProcessUpload(r.Context(), assessor.UploadInput{
		AirlineID:    airlineID,
		ConsultantID: user.ID,
		FileName:     req.FileName,
		Rows:         req.CSVData,
	})
	if err != nil {
		h.writeAdoptionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Success:       true,
		AuditResponse: auditResponse(out.AuditOutcome),
		ProcessedData: ProcessedData{
			ToolsAnalyzed:    len(out.Tools),
			RecordsProcessed: out.RecordsProcessed,
			Tools:            out.Tools,
		},
	})
}

type AuditDetailResponse struct {
	*store.AdoptionAudit
	Band  scoring.Band       `json:"band"`
	Items []*store.AuditItem `json:"items"`
}

func (h *AdoptionHandler) GetAudit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid audit id"})
		return
	}
	audit, items, err := h.store.GetAudit(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	// Audits belong to the consultant who ran them.
	if audit == nil || audit.ConsultantID != UserFromContext(r.Context()).ID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "audit not found"})
		return
	}
	if items == nil {
		items = []*store.AuditItem{}
	}
	writeJSON(w, http.StatusOK, AuditDetailResponse{
		AdoptionAudit: audit,
		Band:          scoring.BandFor(audit.OverallScore),
		Items:         items,
	})
}

func (h *AdoptionHandler) writeAdoptionError(w http.ResponseWriter, err error) {
	var verr *assessor.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Msg})
		return
	}
	h.logger.Error("adoption audit failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create audit"})
}

func auditResponse(out *assessor.AuditOutcome) AuditResponse {
	return AuditResponse{
		AuditID:         out.Audit.ID,
		OverallScore:    out.Result.OverallScore,
		Band:            out.Result.Band,
		Summary:         out.Narration.Summary,
		Recommendations: out.Narration.Recommendations,
	}
}
