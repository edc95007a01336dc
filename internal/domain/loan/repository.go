package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	Save(ctx context.Context, l *Loan) error

	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	GetByID(ctx context.Context, id uint64) (*Loan, error)
	// Locks the row (SELECT ... FOR UPDATE) for use inside a transaction.
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	// Same, keyed by the numeric PK installments carry as their FK.
	GetByIDForUpdate(ctx context.Context, id uint64) (*Loan, error)

	CountActiveByBorrowerID(ctx context.Context, borrowerID string) (int64, error)
	ListByBorrowerID(ctx context.Context, borrowerID string, limit, offset int) ([]Loan, error)
	List(ctx context.Context, limit, offset int) ([]Loan, error)
}
