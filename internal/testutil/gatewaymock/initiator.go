package gatewaymock

import (
	"context"

	"github.com/shopspring/decimal"

	"loanflow/internal/domain/gateway"
)

type Initiator struct {
	InitiateFn func(ctx context.Context, phone string, amount decimal.Decimal, merchantRef string) (string, error)
}

var _ gateway.Initiator = (*Initiator)(nil)

func (m *Initiator) Initiate(ctx context.Context, phone string, amount decimal.Decimal, merchantRef string) (string, error) {
	if m.InitiateFn != nil {
		return m.InitiateFn(ctx, phone, amount, merchantRef)
	}
	return "", gateway.ErrGateway
}
