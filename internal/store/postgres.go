package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetSubmission(ctx context.Context, id uuid.UUID) (*Submission, error) {
	sub := &Submission{RFP: &RFP{}}
	var pitch, rfpDesc, status sql.NullString
	var vendorID, airlineID *uuid.UUID
	var weightedJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT s.id, s.rfp_id, s.vendor_id, s.pitch_text,
			s.fit_score, s.deal_breaker_flags, s.weighted_scores, s.response_status, s.ai_score,
			r.id, r.airline_id, r.title, r.description
		FROM submissions s
		JOIN rfps r ON r.id = s.rfp_id
		WHERE s.id = $1`, id,
	).Scan(
		&sub.ID, &sub.RFPID, &vendorID, &pitch,
		&sub.FitScore, &sub.DealBreakerFlags, &weightedJSON, &status, &sub.AIScore,
		&sub.RFP.ID, &airlineID, &sub.RFP.Title, &rfpDesc,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if vendorID != nil {
		sub.VendorID = *vendorID
	}
	if airlineID != nil {
		sub.RFP.AirlineID = *airlineID
	}
	sub.PitchText = pitch.String
	sub.RFP.Description = rfpDesc.String
	sub.ResponseStatus = status.String
	if sub.DealBreakerFlags == nil {
		sub.DealBreakerFlags = []string{}
	}
	sub.WeightedScores = map[string]float64{}
	if weightedJSON != nil {
		_ = json.Unmarshal(weightedJSON, &sub.WeightedScores)
	}
	return sub, nil
}

// ListRequirements returns the RFP's requirements, heaviest first. The order is
// the order the judge sees them in, so it must be stable.
func (s *PostgresStore) ListRequirements(ctx context.Context, rfpID uuid.UUID) ([]*RFPRequirement, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, rfp_id, requirement_text, weight, COALESCE(is_mandatory, false)
		FROM rfp_requirements WHERE rfp_id = $1
		ORDER BY weight DESC NULLS LAST, id ASC`, rfpID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []*RFPRequirement
	for rows.Next() {
		r := &RFPRequirement{}
		if err := rows.Scan(&r.ID, &r.RFPID, &r.RequirementText, &r.Weight, &r.IsMandatory); err != nil {
			return nil, err
		}
		reqs = append(reqs, r)
	}
	return reqs, rows.Err()
}

// SaveSubmissionScore also mirrors the fit score into the legacy ai_score column.
func (s *PostgresStore) SaveSubmissionScore(ctx context.Context, id uuid.UUID, score *SubmissionScore) error {
	flags := score.DealBreakerFlags
	if flags == nil {
		flags = []string{}
	}
	weighted := score.WeightedScores
	if weighted == nil {
		weighted = map[string]float64{}
	}
	weightedJSON, err := json.Marshal(weighted)
	if err != nil {
		return fmt.Errorf("marshal weighted scores: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE submissions SET
			fit_score = $2, deal_breaker_flags = $3, weighted_scores = $4,
			ai_score = $2, response_status = $5
		WHERE id = $1`,
		id, score.FitScore, flags, weightedJSON, score.ResponseStatus,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("submission %s not found", id)
	}
	return nil
}

func (s *PostgresStore) HasRole(ctx context.Context, userID uuid.UUID, role string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`,
		userID, role,
	).Scan(&ok)
	return ok, err
}

func (s *PostgresStore) CreateAudit(ctx context.Context, audit *AdoptionAudit, items []*AuditItem) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO adoption_audits (airline_id, consultant_id, overall_score, audit_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		audit.AirlineID, audit.ConsultantID, audit.OverallScore, audit.AuditDate,
	).Scan(&audit.ID, &audit.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}

	batch := &pgx.Batch{}
	for _, item := range items {
		item.AuditID = audit.ID
		batch.Queue(`
			INSERT INTO audit_items (audit_id, tool_name, utilization_metric, sentiment_score, calculated_score, recommendation)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			item.AuditID, item.ToolName, item.UtilizationMetric, item.SentimentScore, item.CalculatedScore, item.Recommendation,
		)
	}
	br := tx.SendBatch(ctx, batch)
	for _, item := range items {
		if err := br.QueryRow().Scan(&item.ID); err != nil {
			_ = br.Close()
			return fmt.Errorf("insert audit item %q: %w", item.ToolName, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAudit(ctx context.Context, id uuid.UUID) (*AdoptionAudit, []*AuditItem, error) {
	a := &AdoptionAudit{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, airline_id, consultant_id, overall_score, audit_date, created_at
		FROM adoption_audits WHERE id = $1`, id,
	).Scan(&a.ID, &a.AirlineID, &a.ConsultantID, &a.OverallScore, &a.AuditDate, &a.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, audit_id, tool_name, utilization_metric, sentiment_score, calculated_score, COALESCE(recommendation, '')
		FROM audit_items WHERE audit_id = $1
		ORDER BY calculated_score DESC, tool_name ASC`, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var items []*AuditItem
	for rows.Next() {
		it := &AuditItem{}
		if err := rows.Scan(&it.ID, &it.AuditID, &it.ToolName, &it.UtilizationMetric, &it.SentimentScore, &it.CalculatedScore, &it.Recommendation); err != nil {
			return nil, nil, err
		}
		items = append(items, it)
	}
	return a, items, rows.Err()
}

func (s *PostgresStore) CreateUpload(ctx context.Context, u *AdoptionUpload) error {
	rawJSON, _ := json.Marshal(u.RawData)
	return s.pool.QueryRow(ctx, `
		INSERT INTO adoption_data_uploads (audit_id, consultant_id, file_name, records_processed, upload_status, processed_at, raw_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		u.AuditID, u.ConsultantID, u.FileName, u.RecordsProcessed, u.UploadStatus, u.ProcessedAt, rawJSON,
	).Scan(&u.ID, &u.CreatedAt)
}
