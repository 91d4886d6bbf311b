package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/FitScore/internal/assessor"
	"github.com/MikeSquared-Agency/FitScore/internal/identity"
	"github.com/MikeSquared-Agency/FitScore/internal/judge"
	"github.com/MikeSquared-Agency/FitScore/internal/scoring"
	"github.com/MikeSquared-Agency/FitScore/internal/store"
	"github.com/MikeSquared-Agency/FitScore/internal/store/storetest"
)

type stubJudge struct {
	eval *judge.Evaluation
	err  error
}

func (s *stubJudge) Evaluate(context.Context, judge.Request) (*judge.Evaluation, error) {
	return s.eval, s.err
}

type testEnv struct {
	store      *storetest.MockStore
	judge      *stubJudge
	router     http.Handler
	consultant *identity.User
	vendor     *identity.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		store:      new(storetest.MockStore),
		judge:      &stubJudge{},
		consultant: &identity.User{ID: uuid.New(), Email: "c@example.com"},
		vendor:     &identity.User{ID: uuid.New(), Email: "v@example.com"},
	}
	ids := &stubIdentity{users: map[string]*identity.User{
		"consultant-token": env.consultant,
		"vendor-token":     env.vendor,
	}}
	env.store.On("HasRole", mock.Anything, env.consultant.ID, store.RoleConsultant).Return(true, nil).Maybe()
	env.store.On("HasRole", mock.Anything, env.vendor.ID, store.RoleConsultant).Return(false, nil).Maybe()

	a := assessor.New(env.store, nil, env.judge, judge.NewNarrator(nil, logger), 2, logger)
	t.Cleanup(a.Stop)
	env.router = NewRouter(a, env.store, ids, 1000, logger)
	return env
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func weight(f float64) *float64 { return &f }

func (e *testEnv) seedSubmission() (*store.Submission, []*store.RFPRequirement) {
	rfpID := uuid.New()
	sub := &store.Submission{ID: uuid.New(), RFPID: rfpID, PitchText: "We do everything.", RFP: &store.RFP{ID: rfpID, Title: "MRO suite"}}
	reqs := []*store.RFPRequirement{
		{ID: uuid.New(), RFPID: rfpID, RequirementText: "SOC 2 report", Weight: weight(5), IsMandatory: true},
		{ID: uuid.New(), RFPID: rfpID, RequirementText: "Mobile app", Weight: weight(1)},
	}
	e.store.On("GetSubmission", mock.Anything, sub.ID).Return(sub, nil)
	e.store.On("ListRequirements", mock.Anything, rfpID).Return(reqs, nil)
	return sub, reqs
}

func TestFitScoreRequiresBearer(t *testing.T) {
	env := newTestEnv(t)
	w := env.do("POST", "/api/v1/fit-score", "", map[string]string{"submission_id": uuid.NewString()})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do("POST", "/api/v1/fit-score", "stolen", map[string]string{"submission_id": uuid.NewString()})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFitScoreBadID(t *testing.T) {
	env := newTestEnv(t)
	w := env.do("POST", "/api/v1/fit-score", "vendor-token", map[string]string{"submission_id": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFitScoreNotFound(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New()
	env.store.On("GetSubmission", mock.Anything, id).Return(nil, nil)

	w := env.do("POST", "/api/v1/fit-score", "vendor-token", map[string]string{"submission_id": id.String()})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFitScoreSuccess(t *testing.T) {
	env := newTestEnv(t)
	sub, reqs := env.seedSubmission()
	env.judge.eval = &judge.Evaluation{
		Judgments: []scoring.Judgment{
			{RequirementID: reqs[0].ID.String(), Score: 90},
			{RequirementID: reqs[1].ID.String(), Score: 60},
		},
		OverallAssessment: "Strong fit.",
	}
	env.store.On("SaveSubmissionScore", mock.Anything, sub.ID, mock.Anything).Return(nil)

	w := env.do("POST", "/api/v1/fit-score", "vendor-token", map[string]string{"submission_id": sub.ID.String()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	// (90*5 + 60*1) / 6 = 85
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(85), body["fit_score"])
	assert.Equal(t, false, body["has_deal_breakers"])
	assert.Equal(t, "pass", body["response_status"])
	assert.Equal(t, "Strong fit.", body["overall_assessment"])
	assert.Empty(t, body["deal_breaker_flags"])
	assert.Len(t, body["weighted_scores"], 2)
}

func TestFitScoreNoRequirements(t *testing.T) {
	env := newTestEnv(t)
	rfpID := uuid.New()
	sub := &store.Submission{ID: uuid.New(), RFPID: rfpID}
	env.store.On("GetSubmission", mock.Anything, sub.ID).Return(sub, nil)
	env.store.On("ListRequirements", mock.Anything, rfpID).Return(nil, nil)
	env.store.On("SaveSubmissionScore", mock.Anything, sub.ID, mock.Anything).Return(nil)

	w := env.do("POST", "/api/v1/fit-score", "vendor-token", map[string]string{"submission_id": sub.ID.String()})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(100), body["fit_score"])
	assert.Equal(t, "No requirements defined for this RFP", body["message"])
}

func TestFitScoreJudgeErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
		kind string
	}{
		{fmt.Errorf("openai: %w", judge.ErrRateLimited), http.StatusTooManyRequests, "rate_limited"},
		{fmt.Errorf("openai: %w", judge.ErrQuotaExhausted), http.StatusPaymentRequired, "quota_exhausted"},
		{judge.ErrMalformed, http.StatusInternalServerError, "malformed"},
		{context.DeadlineExceeded, http.StatusInternalServerError, "timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			env := newTestEnv(t)
			sub, _ := env.seedSubmission()
			env.judge.err = tt.err

			w := env.do("POST", "/api/v1/fit-score", "vendor-token", map[string]string{"submission_id": sub.ID.String()})
			assert.Equal(t, tt.want, w.Code)
			body := decode(t, w)
			assert.Equal(t, "verification failed", body["error"])
			assert.Equal(t, tt.kind, body["kind"])
			assert.Equal(t, true, body["retryable"])
			env.store.AssertNotCalled(t, "SaveSubmissionScore", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestStoredScore(t *testing.T) {
	env := newTestEnv(t)
	score := 59
	sub := &store.Submission{
		ID:               uuid.New(),
		VendorID:         env.vendor.ID,
		RFP:              &store.RFP{ID: uuid.New(), AirlineID: uuid.New()},
		FitScore:         &score,
		DealBreakerFlags: []string{"SOC 2 report"},
		ResponseStatus:   "fail",
	}
	env.store.On("GetSubmission", mock.Anything, sub.ID).Return(sub, nil)

	w := env.do("GET", "/api/v1/submissions/"+sub.ID.String()+"/score", "vendor-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["scored"])
	assert.Equal(t, float64(59), body["fit_score"])
	assert.Equal(t, "fail", body["response_status"])
	assert.NotNil(t, body["weighted_scores"])
}

func TestStoredScoreHiddenFromOtherUsers(t *testing.T) {
	env := newTestEnv(t)
	score := 91
	sub := &store.Submission{
		ID:               uuid.New(),
		VendorID:         uuid.New(),
		RFP:              &store.RFP{ID: uuid.New(), AirlineID: env.consultant.ID},
		FitScore:         &score,
		DealBreakerFlags: []string{"FAA Part 121 approval"},
		ResponseStatus:   "pass",
	}
	env.store.On("GetSubmission", mock.Anything, sub.ID).Return(sub, nil)

	// A competing vendor sees the same answer as for a missing submission.
	w := env.do("GET", "/api/v1/submissions/"+sub.ID.String()+"/score", "vendor-token", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "FAA Part 121")

	// The airline that owns the RFP can read it.
	w = env.do("GET", "/api/v1/submissions/"+sub.ID.String()+"/score", "consultant-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(91), decode(t, w)["fit_score"])
}

func TestAdoptionEvaluateRequiresConsultant(t *testing.T) {
	env := newTestEnv(t)
	w := env.do("POST", "/api/v1/adoption/evaluate", "vendor-token", EvaluateRequest{
		AirlineName: "Skyways",
		Items:       []scoring.AdoptionItem{{ToolName: "Slack", Utilization: 10, Sentiment: 1}},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdoptionEvaluate(t *testing.T) {
	env := newTestEnv(t)
	env.store.On("CreateAudit", mock.Anything, mock.MatchedBy(func(a *store.AdoptionAudit) bool {
		return a.AirlineID == env.consultant.ID && a.ConsultantID == env.consultant.ID
	}), mock.Anything).Return(nil)

	w := env.do("POST", "/api/v1/adoption/evaluate", "consultant-token", EvaluateRequest{
		AirlineName: "Skyways",
		Items: []scoring.AdoptionItem{
			{ToolName: "Crew Portal", Utilization: 90, Sentiment: 9},
			{ToolName: "Rostering", Utilization: 20, Sentiment: 3},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp AuditResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// 90 and 24, mean 57
	assert.Equal(t, 57, resp.OverallScore)
	assert.Equal(t, scoring.BandModerate, resp.Band)
	assert.NotEqual(t, uuid.Nil, resp.AuditID)
	require.Len(t, resp.Recommendations, 2)
	assert.Equal(t, "Crew Portal", resp.Recommendations[0].ToolName)
	assert.Equal(t, 90, resp.Recommendations[0].Score)
	assert.NotEmpty(t, resp.Summary)
}

func TestAdoptionEvaluateValidation(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name string
		body EvaluateRequest
	}{
		{"no airline", EvaluateRequest{Items: []scoring.AdoptionItem{{ToolName: "x", Utilization: 1, Sentiment: 1}}}},
		{"no items", EvaluateRequest{AirlineName: "Skyways"}},
		{"bad airline id", EvaluateRequest{AirlineID: "nope", Items: []scoring.AdoptionItem{{ToolName: "x"}}}},
		{"sentiment out of range", EvaluateRequest{AirlineName: "Skyways", Items: []scoring.AdoptionItem{{ToolName: "x", Utilization: 1, Sentiment: 11}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do("POST", "/api/v1/adoption/evaluate", "consultant-token", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	env.store.AssertNotCalled(t, "CreateAudit", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdoptionUpload(t *testing.T) {
	env := newTestEnv(t)
	env.store.On("CreateAudit", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	env.store.On("CreateUpload", mock.Anything, mock.Anything).Return(nil)

	logins, minutes := 10.0, 30.0
	w := env.do("POST", "/api/v1/adoption/upload", "consultant-token", UploadRequest{
		AirlineName: "Skyways",
		FileName:    "march.csv",
		CSVData: []scoring.UsageRow{
			{ToolName: "Crew Portal", UserID: "u1", LoginCount: &logins, SessionDurationMinutes: &minutes},
			{ToolName: "Crew Portal", UserID: "u2", LoginCount: &logins, SessionDurationMinutes: &minutes},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.ProcessedData.RecordsProcessed)
	assert.Equal(t, 1, resp.ProcessedData.ToolsAnalyzed)
	// utilization 50, sentiment defaults to 5: 30 + 20 = 50
	assert.Equal(t, 50, resp.OverallScore)
}

func TestAdoptionUploadMissingFields(t *testing.T) {
	env := newTestEnv(t)
	w := env.do("POST", "/api/v1/adoption/upload", "consultant-token", map[string]interface{}{"airline_name": "Skyways"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("POST", "/api/v1/adoption/upload", "consultant-token", map[string]interface{}{"airline_name": "Skyways", "csv_data": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAudit(t *testing.T) {
	env := newTestEnv(t)
	mine := &store.AdoptionAudit{ID: uuid.New(), ConsultantID: env.consultant.ID, OverallScore: 82}
	theirs := &store.AdoptionAudit{ID: uuid.New(), ConsultantID: uuid.New(), OverallScore: 40}
	env.store.On("GetAudit", mock.Anything, mine.ID).Return(mine, []*store.AuditItem{{ToolName: "Slack", CalculatedScore: 82}}, nil)
	env.store.On("GetAudit", mock.Anything, theirs.ID).Return(theirs, nil, nil)

	w := env.do("GET", "/api/v1/adoption/audits/"+mine.ID.String(), "consultant-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "excellent", body["band"])
	assert.Len(t, body["items"], 1)

	w = env.do("GET", "/api/v1/adoption/audits/"+theirs.ID.String(), "consultant-token", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsRouter(t *testing.T) {
	r := NewMetricsRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
