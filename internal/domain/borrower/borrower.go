// Package borrower is the boundary to the external identity / credit-score
// provider. Registration and score computation live outside this engine; we
// only read what the scoring service has already written.
package borrower

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("borrower not found")
	ErrMissingCreditScore = errors.New("borrower has no credit score on record")
	ErrMissingPhone       = errors.New("borrower has no phone number on record")
)

type Borrower struct {
	ID         uint64 `gorm:"primaryKey;column:id"`
	BorrowerID string `gorm:"column:borrower_id;type:char(32);not null;uniqueIndex:ux_borrowers_borrower_id"`
	Name       string `gorm:"column:name;type:varchar(128);not null"`
	Phone      string `gorm:"column:phone;type:varchar(32);not null"`

	// Nil until the external scoring service has supplied one.
	CreditScore *int `gorm:"column:credit_score"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Borrower) TableName() string { return "borrowers" }

type Provider interface {
	GetByBorrowerID(ctx context.Context, borrowerID string) (*Borrower, error)
}
