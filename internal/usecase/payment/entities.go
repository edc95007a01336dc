package payment

import (
	"time"

	"github.com/shopspring/decimal"

	"loanflow/internal/domain/repayment"
)

// Outcome tags the synchronous-vs-asynchronous fork in Pay: wallet payments
// finalize immediately, mobile-money payments come back later through the
// provider callback. Callers must branch on it.
type Outcome string

const (
	OutcomeFinalized            Outcome = "FINALIZED"
	OutcomeAwaitingConfirmation Outcome = "AWAITING_CONFIRMATION"
)

type PayResult struct {
	Outcome       Outcome        `json:"outcome"`
	Repayment     *InstallmentDTO `json:"repayment"`
	CorrelationID string         `json:"correlation_id,omitempty"`
}

type InstallmentDTO struct {
	RepaymentID   string          `json:"repayment_id"`
	Sequence      int             `json:"sequence"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       time.Time       `json:"due_date"`
	Status        string          `json:"status"`
	PaidDate      *time.Time      `json:"paid_date,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
}

func toInstallmentDTO(r *repayment.Repayment) *InstallmentDTO {
	return &InstallmentDTO{
		RepaymentID:   r.RepaymentID,
		Sequence:      r.Sequence,
		Amount:        r.Amount,
		DueDate:       r.DueDate,
		Status:        string(r.Status),
		PaidDate:      r.PaidDate,
		PaymentMethod: string(r.PaymentMethod),
		CorrelationID: r.CorrelationID,
	}
}
