// Package storetest provides a testify mock of store.Store.
package storetest

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/MikeSquared-Agency/FitScore/internal/store"
)

// MockStore implements store.Store interface for testing
type MockStore struct {
	mock.Mock
}

var _ store.Store = (*MockStore)(nil)

func (m *MockStore) GetSubmission(ctx context.Context, id uuid.UUID) (*store.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Submission), args.Error(1)
}

func (m *MockStore) ListRequirements(ctx context.Context, rfpID uuid.UUID) ([]*store.RFPRequirement, error) {
	args := m.Called(ctx, rfpID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.RFPRequirement), args.Error(1)
}

func (m *MockStore) SaveSubmissionScore(ctx context.Context, id uuid.UUID, score *store.SubmissionScore) error {
	args := m.Called(ctx, id, score)
	return args.Error(0)
}

func (m *MockStore) HasRole(ctx context.Context, userID uuid.UUID, role string) (bool, error) {
	args := m.Called(ctx, userID, role)
	return args.Bool(0), args.Error(1)
}

// CreateAudit assigns ids the way the database would when the mocked error is nil.
func (m *MockStore) CreateAudit(ctx context.Context, audit *store.AdoptionAudit, items []*store.AuditItem) error {
	args := m.Called(ctx, audit, items)
	if args.Error(0) == nil {
		audit.ID = uuid.New()
		for _, it := range items {
			it.ID = uuid.New()
			it.AuditID = audit.ID
		}
	}
	return args.Error(0)
}

func (m *MockStore) GetAudit(ctx context.Context, id uuid.UUID) (*store.AdoptionAudit, []*store.AuditItem, error) {
	args := m.Called(ctx, id)
	var audit *store.AdoptionAudit
	if a := args.Get(0); a != nil {
		audit = a.(*store.AdoptionAudit)
	}
	var items []*store.AuditItem
	if it := args.Get(1); it != nil {
		items = it.([]*store.AuditItem)
	}
	return audit, items, args.Error(2)
}

func (m *MockStore) CreateUpload(ctx context.Context, u *store.AdoptionUpload) error {
	args := m.Called(ctx, u)
	if args.Error(0) == nil {
		u.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockStore) Close() error { return nil }
