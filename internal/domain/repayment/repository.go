package repayment

import "context"

type Repository interface {
	Create(ctx context.Context, r *Repayment) error
	CreateBatch(ctx context.Context, rs []*Repayment) error
	Save(ctx context.Context, r *Repayment) error
	SaveAll(ctx context.Context, rs []*Repayment) error

	GetByRepaymentID(ctx context.Context, repaymentID string) (*Repayment, error)
	GetByRepaymentIDForUpdate(ctx context.Context, repaymentID string) (*Repayment, error)
	GetByCorrelationIDForUpdate(ctx context.Context, correlationID string) (*Repayment, error)

	// ListByLoanID returns the loan's schedule ordered by due date, then sequence.
	ListByLoanID(ctx context.Context, loanID uint64) ([]Repayment, error)
}
