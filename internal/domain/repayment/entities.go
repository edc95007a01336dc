package repayment

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("repayment installment not found")
	ErrAlreadyPaid        = errors.New("installment already paid")
	ErrInvalidAmount      = errors.New("amount must be positive and within the remaining balance")
	ErrUnknownCorrelation = errors.New("no installment matches the correlation id")
)

type Status string

const (
	StatusPending       Status = "PENDING"
	StatusPaid          Status = "PAID"
	StatusOverdue       Status = "OVERDUE"
	StatusPartiallyPaid Status = "PARTIALLY_PAID"
	StatusCancelled     Status = "CANCELLED"
)

type Method string

const (
	MethodWallet Method = "WALLET"
	MethodMpesa  Method = "MPESA"
)

// Synchronous reports whether the method settles immediately; everything but
// the mobile-money round trip does.
func (m Method) Synchronous() bool { return m != MethodMpesa }

// FlexibleSequence marks ad-hoc payments against the loan balance; scheduled
// installments are numbered 1..N.
const FlexibleSequence = 0

// Repayment is one installment row. The loan's schedule aggregate owns these
// rows; LoanID is a back-reference (numeric FK), never a loaded object graph.
type Repayment struct {
	ID          uint64 `gorm:"primaryKey;column:id"`
	RepaymentID string `gorm:"column:repayment_id;type:char(32);not null;uniqueIndex:ux_repayments_repayment_id"`
	LoanID      uint64 `gorm:"column:loan_id;not null;index:idx_repayments_loan"`

	Sequence int             `gorm:"column:sequence;not null"`
	Amount   decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null"`
	DueDate  time.Time       `gorm:"column:due_date;not null"`
	Status   Status          `gorm:"column:status;type:varchar(16);not null;default:'PENDING'"`
	PaidDate *time.Time      `gorm:"column:paid_date"`

	PaymentMethod Method          `gorm:"column:payment_method;type:varchar(16)"`
	TransactionID string          `gorm:"column:transaction_id;type:varchar(64)"`
	LateFee       decimal.Decimal `gorm:"column:late_fee;type:decimal(12,2);not null"`

	// CorrelationID matches an asynchronous provider confirmation back to
	// this row. At most one is in flight while the row is PENDING.
	CorrelationID string `gorm:"column:correlation_id;type:varchar(64);index:idx_repayments_correlation"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Repayment) TableName() string { return "repayments" }
