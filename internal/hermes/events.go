package hermes

import "time"

// ScoreRequestEvent asks the service to (re)score a submission asynchronously.
type ScoreRequestEvent struct {
	SubmissionID string `json:"submission_id"`
	RequestedBy  string `json:"requested_by,omitempty"`
}

type SubmissionScoredEvent struct {
	SubmissionID     string    `json:"submission_id"`
	FitScore         int       `json:"fit_score"`
	ResponseStatus   string    `json:"response_status"`
	DealBreakerFlags []string  `json:"deal_breaker_flags"`
	Model            string    `json:"model,omitempty"`
	Persisted        bool      `json:"persisted"`
	ScoredAt         time.Time `json:"scored_at"`
}

// VerificationFailedEvent is published once per failed attempt. AttemptID keeps
// identical retries from being collapsed by the stream's duplicate window.
type VerificationFailedEvent struct {
	SubmissionID string    `json:"submission_id"`
	AttemptID    string    `json:"attempt_id"`
	Kind         string    `json:"kind"`
	Error        string    `json:"error"`
	Retryable    bool      `json:"retryable"`
	FailedAt     time.Time `json:"failed_at"`
}

type AuditCompletedEvent struct {
	AuditID      string `json:"audit_id"`
	AirlineID    string `json:"airline_id"`
	ConsultantID string `json:"consultant_id"`
	OverallScore int    `json:"overall_score"`
	Band         string `json:"band"`
	Items        int    `json:"items"`
}

type UploadProcessedEvent struct {
	UploadID         string `json:"upload_id"`
	AuditID          string `json:"audit_id,omitempty"`
	RecordsProcessed int    `json:"records_processed"`
	ToolsProcessed   int    `json:"tools_processed"`
}
