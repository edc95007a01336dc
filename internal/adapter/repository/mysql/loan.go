package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	loanDomain "loanflow/internal/domain/loan"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	return &out, res.Error
}

func (r *LoanRepository) GetByID(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

// GetByLoanIDForUpdate locks the row; only meaningful inside a transaction.
func (r *LoanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("loan_id = ?", loanID).
		First(&out)
	return &out, res.Error
}

func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&out)
	return &out, res.Error
}

func (r *LoanRepository) CountActiveByBorrowerID(ctx context.Context, borrowerID string) (int64, error) {
	var n int64
	res := r.db.WithContext(ctx).Model(&loanDomain.Loan{}).
		Where("borrower_id = ? AND status IN ?", borrowerID, []loanDomain.Status{
			loanDomain.StatusApproved, loanDomain.StatusDisbursed, loanDomain.StatusRepaying,
		}).
		Count(&n)
	return n, res.Error
}

// ListByBorrowerID pages a borrower's loans, newest first. limit <= 0 means
// no paging (the summary view needs the full set).
func (r *LoanRepository) ListByBorrowerID(ctx context.Context, borrowerID string, limit, offset int) ([]loanDomain.Loan, error) {
	q := r.db.WithContext(ctx).
		Where("borrower_id = ?", borrowerID).
		Order("applied_date DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	var out []loanDomain.Loan
	res := q.Find(&out)
	return out, res.Error
}

func (r *LoanRepository) List(ctx context.Context, limit, offset int) ([]loanDomain.Loan, error) {
	q := r.db.WithContext(ctx).Order("applied_date DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	var out []loanDomain.Loan
	res := q.Find(&out)
	return out, res.Error
}
