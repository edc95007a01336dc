// Package gateway is the boundary to the mobile-money provider. OAuth and
// transport are the adapter's business; the engine only sees "initiate a push,
// get back a correlation id".
package gateway

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrGateway covers provider rejections, malformed responses and timeouts.
// The engine never retries; that is the caller's call.
var ErrGateway = errors.New("payment gateway error")

type Initiator interface {
	// Initiate pushes a payment prompt to the phone and returns the provider
	// correlation id used to match the asynchronous confirmation.
	Initiate(ctx context.Context, phone string, amount decimal.Decimal, merchantRef string) (string, error)
}
