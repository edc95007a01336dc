package borrowermock

import (
	"context"

	domain "loanflow/internal/domain/borrower"
)

type Provider struct {
	GetByBorrowerIDFn func(ctx context.Context, borrowerID string) (*domain.Borrower, error)
}

var _ domain.Provider = (*Provider)(nil)

func (m *Provider) GetByBorrowerID(ctx context.Context, borrowerID string) (*domain.Borrower, error) {
	if m.GetByBorrowerIDFn != nil {
		return m.GetByBorrowerIDFn(ctx, borrowerID)
	}
	return nil, context.Canceled
}
