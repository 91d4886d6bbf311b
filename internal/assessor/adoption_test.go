package assessor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/FitScore/internal/hermes"
	"github.com/MikeSquared-Agency/FitScore/internal/scoring"
	"github.com/MikeSquared-Agency/FitScore/internal/store"
	"github.com/MikeSquared-Agency/FitScore/internal/store/storetest"
)

func TestValidateItems(t *testing.T) {
	tests := []struct {
		name  string
		items []scoring.AdoptionItem
		want  string
	}{
		{"empty", nil, "at least one item"},
		{"too many", make([]scoring.AdoptionItem, scoring.MaxAuditItems+1), "at most 50"},
		{"blank name", []scoring.AdoptionItem{{ToolName: "  \t", Utilization: 10, Sentiment: 1}}, "tool_name is required"},
		{"long name", []scoring.AdoptionItem{{ToolName: strings.Repeat("x", 101), Utilization: 10, Sentiment: 1}}, "at most 100 characters"},
		{"utilization high", []scoring.AdoptionItem{{ToolName: "Slack", Utilization: 100.5, Sentiment: 1}}, "utilization"},
		{"utilization NaN", []scoring.AdoptionItem{{ToolName: "Slack", Utilization: math.NaN(), Sentiment: 1}}, "utilization"},
		{"sentiment negative", []scoring.AdoptionItem{{ToolName: "Slack", Utilization: 1, Sentiment: -1}}, "sentiment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItems(tt.items)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Msg, tt.want)
		})
	}

	items := []scoring.AdoptionItem{{ToolName: "  Crew\nPortal  ", Utilization: 100, Sentiment: 0}}
	require.NoError(t, ValidateItems(items))
	assert.Equal(t, "Crew Portal", items[0].ToolName)
}

func TestEvaluateAdoption(t *testing.T) {
	ms := new(storetest.MockStore)
	h := newRecordingHermes()
	airline, consultant := uuid.New(), uuid.New()

	var saved []*store.AuditItem
	ms.On("CreateAudit", mock.Anything, mock.MatchedBy(func(a *store.AdoptionAudit) bool {
		return a.AirlineID == airline && a.ConsultantID == consultant &&
			a.OverallScore == 64 && a.AuditDate.Equal(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	}), mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(2).([]*store.AuditItem)
	}).Return(nil)

	out, err := newTestAssessor(ms, h, nil).EvaluateAdoption(context.Background(), AuditInput{
		AirlineID:    airline,
		ConsultantID: consultant,
		Items: []scoring.AdoptionItem{
			{ToolName: "Crew Portal", Utilization: 85, Sentiment: 7},
			{ToolName: "Legacy Roster", Utilization: 40, Sentiment: 6},
		},
	})
	require.NoError(t, err)

	// 85*0.6 + 70*0.4 = 79; 40*0.6 + 60*0.4 = 48; mean 63.5 -> 64.
	assert.Equal(t, 79, out.Result.Items[0].CalculatedScore)
	assert.Equal(t, 48, out.Result.Items[1].CalculatedScore)
	assert.Equal(t, 64, out.Result.OverallScore)
	assert.False(t, out.Narration.Generated)
	require.Len(t, saved, 2)
	assert.Equal(t, "Crew Portal", saved[0].ToolName)
	assert.NotEmpty(t, saved[0].Recommendation)
	assert.Equal(t, out.Audit.ID, saved[1].AuditID)

	_, ok := h.get(hermes.SubjectAuditCompleted(out.Audit.ID.String()))
	assert.True(t, ok)
}

func TestEvaluateAdoptionStoreFailure(t *testing.T) {
	ms := new(storetest.MockStore)
	h := newRecordingHermes()
	ms.On("CreateAudit", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("tx aborted"))

	_, err := newTestAssessor(ms, h, nil).EvaluateAdoption(context.Background(), AuditInput{
		Items: []scoring.AdoptionItem{{ToolName: "Slack", Utilization: 50, Sentiment: 5}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save audit")
	assert.Empty(t, h.published)
}

func ptr(f float64) *float64 { return &f }

func TestProcessUpload(t *testing.T) {
	ms := new(storetest.MockStore)
	h := newRecordingHermes()
	consultant := uuid.New()

	ms.On("CreateAudit", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ms.On("CreateUpload", mock.Anything, mock.MatchedBy(func(u *store.AdoptionUpload) bool {
		return u.FileName == "uploaded_data.csv" && u.RecordsProcessed == 3 &&
			u.UploadStatus == store.UploadStatusCompleted && u.AuditID != nil
	})).Return(nil)

	out, err := newTestAssessor(ms, h, nil).ProcessUpload(context.Background(), UploadInput{
		AirlineID:    uuid.New(),
		ConsultantID: consultant,
		Rows: []scoring.UsageRow{
			{ToolName: "Crew Portal", UserID: "u1", LoginCount: ptr(20), SessionDurationMinutes: ptr(60), SentimentRating: ptr(8)},
			{ToolName: "Crew Portal", UserID: "u2", LoginCount: ptr(20), SessionDurationMinutes: ptr(60), SentimentRating: ptr(8)},
			{ToolName: "Rostering", UserID: "u1", LoginCount: ptr(0)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, out.RecordsProcessed)
	require.Len(t, out.Tools, 2)
	assert.Equal(t, "Crew Portal", out.Tools[0].ToolName)
	assert.Len(t, out.Result.Items, 2)
	assert.Equal(t, out.Audit.ID, *out.Upload.AuditID)

	_, ok := h.get(hermes.SubjectUploadProcessed(out.Upload.ID.String()))
	assert.True(t, ok)
	ms.AssertExpectations(t)
}

func TestProcessUploadToleratesUploadRecordFailure(t *testing.T) {
	ms := new(storetest.MockStore)
	ms.On("CreateAudit", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ms.On("CreateUpload", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	out, err := newTestAssessor(ms, nil, nil).ProcessUpload(context.Background(), UploadInput{
		FileName: "march.csv",
		Rows:     []scoring.UsageRow{{ToolName: "Slack", LoginCount: ptr(10)}},
	})
	require.NoError(t, err)
	assert.NotNil(t, out.Audit)
	assert.Equal(t, "march.csv", out.Upload.FileName)
}

func TestProcessUploadRejectsEmptyAndOversized(t *testing.T) {
	a := newTestAssessor(new(storetest.MockStore), nil, nil)

	_, err := a.ProcessUpload(context.Background(), UploadInput{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = a.ProcessUpload(context.Background(), UploadInput{Rows: make([]scoring.UsageRow, MaxUploadRows+1)})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Msg, "10000")
}

func TestProcessUploadClampsOutOfRangeSentiment(t *testing.T) {
	ms := new(storetest.MockStore)
	var saved []*store.AuditItem
	ms.On("CreateAudit", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(2).([]*store.AuditItem)
	}).Return(nil)
	ms.On("CreateUpload", mock.Anything, mock.Anything).Return(nil)

	out, err := newTestAssessor(ms, nil, nil).ProcessUpload(context.Background(), UploadInput{
		Rows: []scoring.UsageRow{
			{ToolName: "Crew Portal", LoginCount: ptr(20), SessionDurationMinutes: ptr(60), SentimentRating: ptr(11)},
			{ToolName: "Rostering", LoginCount: ptr(20), SessionDurationMinutes: ptr(60), SentimentRating: ptr(-4)},
		},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, 10.0, saved[0].SentimentScore)
	assert.Equal(t, 100, saved[0].CalculatedScore)
	assert.Equal(t, 0.0, saved[1].SentimentScore)
	assert.Equal(t, 60, saved[1].CalculatedScore)
	assert.Equal(t, 80, out.Result.OverallScore)
}

func TestProcessUploadScoresEveryTool(t *testing.T) {
	ms := new(storetest.MockStore)
	var saved []*store.AuditItem
	ms.On("CreateAudit", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(2).([]*store.AuditItem)
	}).Return(nil)
	ms.On("CreateUpload", mock.Anything, mock.Anything).Return(nil)

	tools := scoring.MaxAuditItems + 1
	rows := make([]scoring.UsageRow, 0, tools)
	for i := 0; i < tools; i++ {
		rows = append(rows, scoring.UsageRow{ToolName: fmt.Sprintf("Tool %02d", i), LoginCount: ptr(10), SentimentRating: ptr(5)})
	}

	out, err := newTestAssessor(ms, nil, nil).ProcessUpload(context.Background(), UploadInput{Rows: rows})
	require.NoError(t, err)
	assert.Len(t, out.Tools, tools)
	assert.Len(t, out.Result.Items, tools)
	assert.Len(t, saved, tools)
}

func TestEvaluateAdoptionStillCapsItems(t *testing.T) {
	items := make([]scoring.AdoptionItem, scoring.MaxAuditItems+1)
	for i := range items {
		items[i] = scoring.AdoptionItem{ToolName: fmt.Sprintf("Tool %d", i), Utilization: 50, Sentiment: 5}
	}
	_, err := newTestAssessor(new(storetest.MockStore), nil, nil).EvaluateAdoption(context.Background(), AuditInput{Items: items})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Msg, "at most 50")
}
