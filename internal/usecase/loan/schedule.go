package loan

import (
	"time"

	"github.com/shopspring/decimal"

	domain "loanflow/internal/domain/loan"
	"loanflow/internal/domain/repayment"
	"loanflow/pkg/id"
)

// generateSchedule builds the full installment batch for an approved loan:
// exactly TermMonths rows, sequence 1..N, each due one month after the last.
//
// Callers guarantee at-most-once invocation — the PENDING→APPROVED guard is
// what prevents a second schedule; this function does not deduplicate.
func generateSchedule(l *domain.Loan, start time.Time) []*repayment.Repayment {
	rows := make([]*repayment.Repayment, 0, l.TermMonths)
	for i := 1; i <= l.TermMonths; i++ {
		rows = append(rows, &repayment.Repayment{
			RepaymentID: id.NewID32(),
			LoanID:      l.ID,
			Sequence:    i,
			Amount:      l.MonthlyPayment,
			DueDate:     start.AddDate(0, i, 0),
			Status:      repayment.StatusPending,
			LateFee:     decimal.Zero,
		})
	}
	return rows
}

// shiftSchedule recomputes due dates relative to the actual disbursement date.
// Capital is not advanced until disbursement, so the clock restarts there.
// This is a date shift on the existing rows, never a regeneration.
func shiftSchedule(rows []repayment.Repayment, disbursed time.Time) []*repayment.Repayment {
	shifted := make([]*repayment.Repayment, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		if r.Sequence < 1 {
			continue
		}
		r.DueDate = disbursed.AddDate(0, r.Sequence, 0)
		shifted = append(shifted, r)
	}
	return shifted
}
