package uow

import (
	"context"

	"loanflow/internal/domain/loan"
	"loanflow/internal/domain/repayment"
)

type Repos struct {
	Loans      loan.Repository
	Repayments repayment.Repository
}

// UnitOfWork binds both repositories to one transaction. Lock order inside a
// tx is always repayment row first, then its loan row.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// WithinLoanTx locks the loan row up-front and hands it to fn.
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
