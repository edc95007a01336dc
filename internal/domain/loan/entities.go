package loan

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("loan not found")
	ErrInvalidTransition  = errors.New("invalid loan status transition")
	ErrTooManyActiveLoans = errors.New("maximum number of active loans reached")
)

type Status string

const (
	StatusPending     Status = "PENDING"
	StatusUnderReview Status = "UNDER_REVIEW" // policy alias of PENDING
	StatusApproved    Status = "APPROVED"
	StatusRejected    Status = "REJECTED"
	StatusDisbursed   Status = "DISBURSED"
	StatusRepaying    Status = "REPAYING"
	StatusCompleted   Status = "COMPLETED"
	StatusDefaulted   Status = "DEFAULTED"
)

// Reviewable reports whether an admin may still approve or reject the loan.
// UNDER_REVIEW is an alias of PENDING for transition purposes.
func (s Status) Reviewable() bool {
	return s == StatusPending || s == StatusUnderReview
}

// Active statuses count toward the borrower's loan cap and the summary view.
func (s Status) Active() bool {
	return s == StatusApproved || s == StatusDisbursed || s == StatusRepaying
}

// Payable statuses can accept repayments.
func (s Status) Payable() bool {
	return s == StatusDisbursed || s == StatusRepaying
}

type Purpose string

const (
	PurposeHomeRenovation    Purpose = "HOME_RENOVATION"
	PurposeDebtConsolidation Purpose = "DEBT_CONSOLIDATION"
	PurposeBusinessExpansion Purpose = "BUSINESS_EXPANSION"
	PurposeMedicalExpenses   Purpose = "MEDICAL_EXPENSES"
	PurposeEducation         Purpose = "EDUCATION"
	PurposeVehiclePurchase   Purpose = "VEHICLE_PURCHASE"
	PurposeWedding           Purpose = "WEDDING"
	PurposeTravel            Purpose = "TRAVEL"
	PurposePersonal          Purpose = "PERSONAL"
	PurposeOther             Purpose = "OTHER"
)

func ValidPurpose(p Purpose) bool {
	switch p {
	case PurposeHomeRenovation, PurposeDebtConsolidation, PurposeBusinessExpansion,
		PurposeMedicalExpenses, PurposeEducation, PurposeVehiclePurchase,
		PurposeWedding, PurposeTravel, PurposePersonal, PurposeOther:
		return true
	}
	return false
}

// Loan is the aggregate root. Rate and monthly payment are set once at
// creation and never change; total_repaid only grows, and only inside the
// same transaction that marks a repayment PAID.
type Loan struct {
	ID         uint64 `gorm:"primaryKey;column:id"`
	LoanID     string `gorm:"column:loan_id;type:char(32);not null;uniqueIndex:ux_loans_loan_id_active"`
	BorrowerID string `gorm:"column:borrower_id;type:char(32);not null;index:idx_loans_borrower"`

	Principal      decimal.Decimal `gorm:"column:principal;type:decimal(12,2);not null"`
	TermMonths     int             `gorm:"column:term_months;not null"`
	Purpose        Purpose         `gorm:"column:purpose;type:varchar(32);not null"`
	Status         Status          `gorm:"column:status;type:varchar(16);not null;default:'PENDING';index:idx_loans_borrower"`
	InterestRate   decimal.Decimal `gorm:"column:interest_rate;type:decimal(5,2);not null"`
	MonthlyPayment decimal.Decimal `gorm:"column:monthly_payment;type:decimal(12,2);not null"`
	TotalRepaid    decimal.Decimal `gorm:"column:total_repaid;type:decimal(12,2);not null"`

	// Snapshot of the external score at application time; immutable.
	CreditScore int `gorm:"column:credit_score;not null"`

	AppliedDate   time.Time  `gorm:"column:applied_date;not null"`
	ReviewedDate  *time.Time `gorm:"column:reviewed_date"`
	DisbursedDate *time.Time `gorm:"column:disbursed_date"`
	DueDate       *time.Time `gorm:"column:due_date"`
	CompletedDate *time.Time `gorm:"column:completed_date"`

	ReviewedBy      string `gorm:"column:reviewed_by;type:char(32)"`
	ReviewNotes     string `gorm:"column:review_notes;type:text"`
	RejectionReason string `gorm:"column:rejection_reason;type:text"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Loan) TableName() string { return "loans" }
