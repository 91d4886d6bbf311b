package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/FitScore/internal/scoring"
)

const (
	RoleConsultant = "consultant"
	RoleVendor     = "vendor"
	RoleAirline    = "airline"
)

const (
	UploadStatusCompleted = "completed"
	UploadStatusFailed    = "failed"
)

type RFP struct {
	ID          uuid.UUID `json:"id"`
	AirlineID   uuid.UUID `json:"airline_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
}

type Submission struct {
	ID        uuid.UUID `json:"id"`
	RFPID     uuid.UUID `json:"rfp_id"`
	VendorID  uuid.UUID `json:"vendor_id"`
	PitchText string    `json:"pitch_text"`
	RFP       *RFP      `json:"rfp,omitempty"`

	// Score write-back
	FitScore         *int               `json:"fit_score,omitempty"`
	DealBreakerFlags []string           `json:"deal_breaker_flags"`
	WeightedScores   map[string]float64 `json:"weighted_scores"`
	ResponseStatus   string             `json:"response_status,omitempty"`
	AIScore          *int               `json:"ai_score,omitempty"`
}

type RFPRequirement struct {
	ID              uuid.UUID `json:"id"`
	RFPID           uuid.UUID `json:"rfp_id"`
	RequirementText string    `json:"requirement_text"`
	Weight          *float64  `json:"weight,omitempty"`
	IsMandatory     bool      `json:"is_mandatory"`
}

// Scoring converts the row into the scorer's input.
func (r *RFPRequirement) Scoring() scoring.Requirement {
	return scoring.Requirement{
		ID:          r.ID.String(),
		Text:        r.RequirementText,
		Weight:      r.Weight,
		IsMandatory: r.IsMandatory,
	}
}

// VisibleTo reports whether userID may read the submission's score: the vendor
// that submitted it or the airline that owns the RFP.
func (s *Submission) VisibleTo(userID uuid.UUID) bool {
	if userID == uuid.Nil {
		return false
	}
	if s.VendorID == userID {
		return true
	}
	return s.RFP != nil && s.RFP.AirlineID == userID
}

// SubmissionScore is what gets written back onto a submission after scoring.
type SubmissionScore struct {
	FitScore         int
	DealBreakerFlags []string
	WeightedScores   map[string]float64
	ResponseStatus   string
}

type AdoptionAudit struct {
	ID           uuid.UUID `json:"id"`
	AirlineID    uuid.UUID `json:"airline_id"`
	ConsultantID uuid.UUID `json:"consultant_id"`
	OverallScore int       `json:"overall_score"`
	AuditDate    time.Time `json:"audit_date"`
	CreatedAt    time.Time `json:"created_at"`
}

type AuditItem struct {
	ID                uuid.UUID `json:"id"`
	AuditID           uuid.UUID `json:"audit_id"`
	ToolName          string    `json:"tool_name"`
	UtilizationMetric float64   `json:"utilization_metric"`
	SentimentScore    float64   `json:"sentiment_score"`
	CalculatedScore   int       `json:"calculated_score"`
	Recommendation    string    `json:"recommendation"`
}

type AdoptionUpload struct {
	ID               uuid.UUID              `json:"id"`
	AuditID          *uuid.UUID             `json:"audit_id,omitempty"`
	ConsultantID     uuid.UUID              `json:"consultant_id"`
	FileName         string                 `json:"file_name"`
	RecordsProcessed int                    `json:"records_processed"`
	UploadStatus     string                 `json:"upload_status"`
	ProcessedAt      *time.Time             `json:"processed_at,omitempty"`
	RawData          map[string]interface{} `json:"raw_data,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

type Store interface {
	// Submissions. GetSubmission returns nil, nil when the row does not exist.
	GetSubmission(ctx context.Context, id uuid.UUID) (*Submission, error)
	ListRequirements(ctx context.Context, rfpID uuid.UUID) ([]*RFPRequirement, error)
	SaveSubmissionScore(ctx context.Context, id uuid.UUID, score *SubmissionScore) error

	// Roles
	HasRole(ctx context.Context, userID uuid.UUID, role string) (bool, error)

	// Adoption. CreateAudit writes the header and all items atomically.
	CreateAudit(ctx context.Context, audit *AdoptionAudit, items []*AuditItem) error
	GetAudit(ctx context.Context, id uuid.UUID) (*AdoptionAudit, []*AuditItem, error)
	CreateUpload(ctx context.Context, u *AdoptionUpload) error

	Close() error
}
