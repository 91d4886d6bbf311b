package hermes

const (
	SubjectScoreRequest      = "rfp.submission.score.request"
	SubjectSubmissionCreated = "rfp.submission.*.created"

	StreamName   = "FITSCORE_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

var StreamSubjects = []string{"rfp.submission.>", "rfp.adoption.>"}

// Submission scoring subjects
func SubjectSubmissionScored(submissionID string) string {
	return "rfp.submission." + submissionID + ".scored"
}
func SubjectVerificationFailed(submissionID string) string {
	return "rfp.submission." + submissionID + ".verification_failed"
}

// Adoption subjects
func SubjectAuditCompleted(auditID string) string  { return "rfp.adoption." + auditID + ".audited" }
func SubjectUploadProcessed(uploadID string) string { return "rfp.adoption." + uploadID + ".uploaded" }
