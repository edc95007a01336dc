package repaymentmock

import (
	"context"

	domain "loanflow/internal/domain/repayment"
)

// Repo is a function-backed mock satisfying repayment.Repository.
type Repo struct {
	CreateFn                      func(ctx context.Context, r *domain.Repayment) error
	CreateBatchFn                 func(ctx context.Context, rs []*domain.Repayment) error
	SaveFn                        func(ctx context.Context, r *domain.Repayment) error
	SaveAllFn                     func(ctx context.Context, rs []*domain.Repayment) error
	GetByRepaymentIDFn            func(ctx context.Context, repaymentID string) (*domain.Repayment, error)
	GetByRepaymentIDForUpdateFn   func(ctx context.Context, repaymentID string) (*domain.Repayment, error)
	GetByCorrelationIDForUpdateFn func(ctx context.Context, correlationID string) (*domain.Repayment, error)
	ListByLoanIDFn                func(ctx context.Context, loanID uint64) ([]domain.Repayment, error)
}

var _ domain.Repository = (*Repo)(nil)

func (m *Repo) Create(ctx context.Context, r *domain.Repayment) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

func (m *Repo) CreateBatch(ctx context.Context, rs []*domain.Repayment) error {
	if m.CreateBatchFn != nil {
		return m.CreateBatchFn(ctx, rs)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, r *domain.Repayment) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, r)
	}
	return nil
}

func (m *Repo) SaveAll(ctx context.Context, rs []*domain.Repayment) error {
	if m.SaveAllFn != nil {
		return m.SaveAllFn(ctx, rs)
	}
	return nil
}

func (m *Repo) GetByRepaymentID(ctx context.Context, repaymentID string) (*domain.Repayment, error) {
	if m.GetByRepaymentIDFn != nil {
		return m.GetByRepaymentIDFn(ctx, repaymentID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByRepaymentIDForUpdate(ctx context.Context, repaymentID string) (*domain.Repayment, error) {
	if m.GetByRepaymentIDForUpdateFn != nil {
		return m.GetByRepaymentIDForUpdateFn(ctx, repaymentID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByCorrelationIDForUpdate(ctx context.Context, correlationID string) (*domain.Repayment, error) {
	if m.GetByCorrelationIDForUpdateFn != nil {
		return m.GetByCorrelationIDForUpdateFn(ctx, correlationID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByLoanID(ctx context.Context, loanID uint64) ([]domain.Repayment, error) {
	if m.ListByLoanIDFn != nil {
		return m.ListByLoanIDFn(ctx, loanID)
	}
	return nil, nil
}
