package mysql

import (
	"context"

	"gorm.io/gorm"

	borrowerDomain "loanflow/internal/domain/borrower"
)

// BorrowerRepository reads the borrower records the identity service owns.
// This engine never writes them.
type BorrowerRepository struct{ db *gorm.DB }

func NewBorrowerRepository(db *gorm.DB) *BorrowerRepository { return &BorrowerRepository{db: db} }

func (r *BorrowerRepository) GetByBorrowerID(ctx context.Context, borrowerID string) (*borrowerDomain.Borrower, error) {
	var out borrowerDomain.Borrower
	res := r.db.WithContext(ctx).Where("borrower_id = ?", borrowerID).First(&out)
	return &out, res.Error
}
