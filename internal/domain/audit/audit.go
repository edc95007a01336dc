// Package audit is the fire-and-forget notification/audit boundary. Sinks run
// after a transition commits and their failures never roll anything back.
package audit

import "context"

const (
	EventLoanApplied      = "LOAN_APPLIED"
	EventLoanApproved     = "LOAN_APPROVED"
	EventLoanRejected     = "LOAN_REJECTED"
	EventLoanDisbursed    = "LOAN_DISBURSED"
	EventPaymentFinalized = "PAYMENT_FINALIZED"
	EventPaymentInitiated = "PAYMENT_INITIATED"
	EventLoanCompleted    = "LOAN_COMPLETED"
)

type Sink interface {
	// Record is best-effort: implementations log failures and return nothing.
	Record(ctx context.Context, eventType, subjectID, details string)
}
