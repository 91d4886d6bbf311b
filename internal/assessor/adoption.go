package assessor

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/FitScore/internal/hermes"
	"github.com/MikeSquared-Agency/FitScore/internal/judge"
	"github.com/MikeSquared-Agency/FitScore/internal/scoring"
	"github.com/MikeSquared-Agency/FitScore/internal/store"
)

const (
	MaxUploadRows   = 10000
	defaultFileName = "uploaded_data.csv"
)

type AuditInput struct {
	AirlineID    uuid.UUID
	ConsultantID uuid.UUID
	Items        []scoring.AdoptionItem
}

type AuditOutcome struct {
	Audit     *store.AdoptionAudit
	Result    scoring.AdoptionResult
	Narration judge.Narration
}

type UploadInput struct {
	AirlineID    uuid.UUID
	ConsultantID uuid.UUID
	FileName     string
	Rows         []scoring.UsageRow
}

type UploadOutcome struct {
	*AuditOutcome
	Tools            []scoring.ToolUsage
	Upload           *store.AdoptionUpload
	RecordsProcessed int
}

// ValidateItems sanitises tool names in place and rejects out-of-range inputs.
func ValidateItems(items []scoring.AdoptionItem) error {
	if len(items) == 0 {
		return invalid("at least one item is required")
	}
	if len(items) > scoring.MaxAuditItems {
		return invalid(fmt.Sprintf("at most %d items are allowed", scoring.MaxAuditItems))
	}
	for i := range items {
		if utf8.RuneCountInString(strings.TrimSpace(items[i].ToolName)) > scoring.MaxToolName {
			return invalid(fmt.Sprintf("items[%d].tool_name must be at most %d characters", i, scoring.MaxToolName))
		}
		items[i].ToolName = scoring.SanitizeToolName(items[i].ToolName)
		if items[i].ToolName == "" {
			return invalid(fmt.Sprintf("items[%d].tool_name is required", i))
		}
		u, s := items[i].Utilization, items[i].Sentiment
		if math.IsNaN(u) || u < 0 || u > scoring.MaxScore {
			return invalid(fmt.Sprintf("items[%d].utilization must be between 0 and 100", i))
		}
		if math.IsNaN(s) || s < 0 || s > scoring.MaxSentiment {
			return invalid(fmt.Sprintf("items[%d].sentiment must be between 0 and 10", i))
		}
	}
	return nil
}

// EvaluateAdoption validates caller-supplied items, then scores the audit,
// narrates it and stores the header with all of its items.
func (a *Assessor) EvaluateAdoption(ctx context.Context, in AuditInput) (*AuditOutcome, error) {
	if err := ValidateItems(in.Items); err != nil {
		return nil, err
	}
	return a.recordAudit(ctx, in)
}

// recordAudit expects in.Items to be sanitised and in range already.
func (a *Assessor) recordAudit(ctx context.Context, in AuditInput) (*AuditOutcome, error) {
	result := a.scorer.ScoreAdoption(in.Items)
	narration := a.narrator.Narrate(ctx, result)

	now := a.now().UTC()
	audit := &store.AdoptionAudit{
		AirlineID:    in.AirlineID,
		ConsultantID: in.ConsultantID,
		OverallScore: result.OverallScore,
		AuditDate:    time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
	}
	items := make([]*store.AuditItem, 0, len(result.Items))
	for i, it := range result.Items {
		rec := ""
		if i < len(narration.Recommendations) {
			rec = narration.Recommendations[i].Recommendation
		}
		items = append(items, &store.AuditItem{
			ToolName:          it.ToolName,
			UtilizationMetric: it.Utilization,
			SentimentScore:    it.Sentiment,
			CalculatedScore:   it.CalculatedScore,
			Recommendation:    rec,
		})
	}

	if err := a.store.CreateAudit(ctx, audit, items); err != nil {
		persistFailuresTotal.WithLabelValues("adoption_audit").Inc()
		return nil, fmt.Errorf("save audit: %w", err)
	}

	auditsTotal.WithLabelValues(string(result.Band)).Inc()
	a.logger.Info("adoption audit recorded",
		"audit_id", audit.ID,
		"airline_id", audit.AirlineID,
		"overall_score", result.OverallScore,
		"items", len(items),
		"narrated", narration.Generated,
	)
	a.publish(hermes.SubjectAuditCompleted(audit.ID.String()), hermes.AuditCompletedEvent{
		AuditID:      audit.ID.String(),
		AirlineID:    audit.AirlineID.String(),
		ConsultantID: audit.ConsultantID.String(),
		OverallScore: result.OverallScore,
		Band:         string(result.Band),
		Items:        len(items),
	})

	return &AuditOutcome{Audit: audit, Result: result, Narration: narration}, nil
}

// ProcessUpload aggregates raw per-user usage rows into one item per tool, runs
// the audit and records the upload. Derived items are clamped instead of
// validated, and every tool in the export is scored: the item cap applies to
// hand-entered audits only, and MaxUploadRows bounds the tool count here.
func (a *Assessor) ProcessUpload(ctx context.Context, in UploadInput) (*UploadOutcome, error) {
	if len(in.Rows) == 0 {
		return nil, invalid("no data rows found")
	}
	if len(in.Rows) > MaxUploadRows {
		return nil, invalid(fmt.Sprintf("at most %d rows are allowed", MaxUploadRows))
	}

	tools := scoring.AggregateUsage(in.Rows)
	items := make([]scoring.AdoptionItem, 0, len(tools))
	for _, t := range tools {
		items = append(items, t.AdoptionItem())
	}

	audit, err := a.recordAudit(ctx, AuditInput{
		AirlineID:    in.AirlineID,
		ConsultantID: in.ConsultantID,
		Items:        items,
	})
	if err != nil {
		return nil, err
	}

	fileName := in.FileName
	if fileName == "" {
		fileName = defaultFileName
	}
	processedAt := a.now().UTC()
	upload := &store.AdoptionUpload{
		AuditID:          &audit.Audit.ID,
		ConsultantID:     in.ConsultantID,
		FileName:         fileName,
		RecordsProcessed: len(in.Rows),
		UploadStatus:     store.UploadStatusCompleted,
		ProcessedAt:      &processedAt,
		RawData: map[string]interface{}{
			"tools_processed": len(tools),
			"total_records":   len(in.Rows),
		},
	}
	if err := a.store.CreateUpload(ctx, upload); err != nil {
		persistFailuresTotal.WithLabelValues("adoption_upload").Inc()
		a.logger.Error("failed to record upload", "audit_id", audit.Audit.ID, "error", err)
	} else {
		a.publish(hermes.SubjectUploadProcessed(upload.ID.String()), hermes.UploadProcessedEvent{
			UploadID:         upload.ID.String(),
			AuditID:          audit.Audit.ID.String(),
			RecordsProcessed: len(in.Rows),
			ToolsProcessed:   len(tools),
		})
	}

	return &UploadOutcome{
		AuditOutcome:     audit,
		Tools:            tools,
		Upload:           upload,
		RecordsProcessed: len(in.Rows),
	}, nil
}
