package uowmock

import (
	"context"
	"errors"

	"loanflow/internal/domain/loan"
	"loanflow/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork. Fill in the
// function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn     func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinLoanTxFn func(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error
}

func New() *UoW { return &UoW{} }

// Passthrough returns a UoW that simply runs the callback against the given
// repos — the common case for usecase tests that don't exercise locking.
func Passthrough(r uow.Repos, getLoan func(ctx context.Context, loanID string) (*loan.Loan, error)) *UoW {
	return &UoW{
		WithinTxFn: func(ctx context.Context, fn func(r uow.Repos) error) error {
			return fn(r)
		},
		WithinLoanTxFn: func(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
			l, err := getLoan(ctx, loanID)
			if err != nil {
				return err
			}
			return fn(r, l)
		},
	}
}

func (m *UoW) Reset() { *m = UoW{} }

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}

func (m *UoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	if m.WithinLoanTxFn != nil {
		return m.WithinLoanTxFn(ctx, loanID, fn)
	}
	return errUnimplemented
}
