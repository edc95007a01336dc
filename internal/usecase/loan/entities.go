package loan

import (
	"time"

	"github.com/shopspring/decimal"

	domain "loanflow/internal/domain/loan"
	"loanflow/internal/domain/repayment"
)

type ApplyInput struct {
	BorrowerID string          `json:"borrower_id"`
	Amount     decimal.Decimal `json:"amount"`
	TermMonths int             `json:"term_months"`
	Purpose    domain.Purpose  `json:"purpose"`
}

type ApproveInput struct {
	LoanID     string `json:"loan_id"`
	ReviewerID string `json:"reviewer_id"`
	Notes      string `json:"notes"`
}

type RejectInput struct {
	LoanID     string `json:"loan_id"`
	ReviewerID string `json:"reviewer_id"`
	Reason     string `json:"reason"`
}

type LoanDTO struct {
	LoanID         string          `json:"loan_id"`
	BorrowerID     string          `json:"borrower_id"`
	Principal      decimal.Decimal `json:"principal"`
	TermMonths     int             `json:"term_months"`
	Purpose        string          `json:"purpose"`
	Status         string          `json:"status"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	TotalRepaid    decimal.Decimal `json:"total_repaid"`
	CreditScore    int             `json:"credit_score"`

	AppliedDate   time.Time  `json:"applied_date"`
	ReviewedDate  *time.Time `json:"reviewed_date,omitempty"`
	DisbursedDate *time.Time `json:"disbursed_date,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`

	ReviewedBy      string `json:"reviewed_by,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`

	Repayments []RepaymentDTO `json:"repayments,omitempty"`
}

type RepaymentDTO struct {
	RepaymentID   string          `json:"repayment_id"`
	LoanID        string          `json:"loan_id"`
	Sequence      int             `json:"sequence"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       time.Time       `json:"due_date"`
	Status        string          `json:"status"`
	PaidDate      *time.Time      `json:"paid_date,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	LateFee       decimal.Decimal `json:"late_fee"`
}

type SummaryDTO struct {
	TotalBorrowed   decimal.Decimal `json:"total_borrowed"`
	TotalRepaid     decimal.Decimal `json:"total_repaid"`
	MonthlyPayment  decimal.Decimal `json:"monthly_payment"`
	ActiveLoans     int             `json:"active_loans"`
	AvailableCredit decimal.Decimal `json:"available_credit"`
}

func toLoanDTO(l *domain.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:          l.LoanID,
		BorrowerID:      l.BorrowerID,
		Principal:       l.Principal,
		TermMonths:      l.TermMonths,
		Purpose:         string(l.Purpose),
		Status:          string(l.Status),
		InterestRate:    l.InterestRate,
		MonthlyPayment:  l.MonthlyPayment,
		TotalRepaid:     l.TotalRepaid,
		CreditScore:     l.CreditScore,
		AppliedDate:     l.AppliedDate,
		ReviewedDate:    l.ReviewedDate,
		DisbursedDate:   l.DisbursedDate,
		DueDate:         l.DueDate,
		CompletedDate:   l.CompletedDate,
		ReviewedBy:      l.ReviewedBy,
		RejectionReason: l.RejectionReason,
	}
}

func toRepaymentDTO(r *repayment.Repayment, loanPublicID string) RepaymentDTO {
	return RepaymentDTO{
		RepaymentID:   r.RepaymentID,
		LoanID:        loanPublicID,
		Sequence:      r.Sequence,
		Amount:        r.Amount,
		DueDate:       r.DueDate,
		Status:        string(r.Status),
		PaidDate:      r.PaidDate,
		PaymentMethod: string(r.PaymentMethod),
		LateFee:       r.LateFee,
	}
}
