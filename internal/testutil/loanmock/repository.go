package loanmock

import (
	"context"

	domain "loanflow/internal/domain/loan"
)

// Repo is a function-backed mock satisfying loan.Repository. Fill in the
// function fields a test needs; unfilled lookups report context.Canceled so a
// forgotten stub fails loudly.
type Repo struct {
	CreateFn                  func(ctx context.Context, l *domain.Loan) error
	SaveFn                    func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn             func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByIDFn                 func(ctx context.Context, id uint64) (*domain.Loan, error)
	GetByLoanIDForUpdateFn    func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByIDForUpdateFn        func(ctx context.Context, id uint64) (*domain.Loan, error)
	CountActiveByBorrowerIDFn func(ctx context.Context, borrowerID string) (int64, error)
	ListByBorrowerIDFn        func(ctx context.Context, borrowerID string, limit, offset int) ([]domain.Loan, error)
	ListFn                    func(ctx context.Context, limit, offset int) ([]domain.Loan, error)
}

var _ domain.Repository = (*Repo)(nil)

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Loan, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDForUpdateFn != nil {
		return m.GetByLoanIDForUpdateFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, id uint64) (*domain.Loan, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) CountActiveByBorrowerID(ctx context.Context, borrowerID string) (int64, error) {
	if m.CountActiveByBorrowerIDFn != nil {
		return m.CountActiveByBorrowerIDFn(ctx, borrowerID)
	}
	return 0, nil
}

func (m *Repo) ListByBorrowerID(ctx context.Context, borrowerID string, limit, offset int) ([]domain.Loan, error) {
	if m.ListByBorrowerIDFn != nil {
		return m.ListByBorrowerIDFn(ctx, borrowerID, limit, offset)
	}
	return nil, nil
}

func (m *Repo) List(ctx context.Context, limit, offset int) ([]domain.Loan, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, limit, offset)
	}
	return nil, nil
}
