package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	repaymentDomain "loanflow/internal/domain/repayment"
)

type RepaymentRepository struct{ db *gorm.DB }

func NewRepaymentRepository(db *gorm.DB) *RepaymentRepository { return &RepaymentRepository{db: db} }

func (r *RepaymentRepository) Create(ctx context.Context, rp *repaymentDomain.Repayment) error {
	return r.db.WithContext(ctx).Create(rp).Error
}

func (r *RepaymentRepository) CreateBatch(ctx context.Context, rps []*repaymentDomain.Repayment) error {
	if len(rps) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(rps).Error
}

func (r *RepaymentRepository) Save(ctx context.Context, rp *repaymentDomain.Repayment) error {
	return r.db.WithContext(ctx).Save(rp).Error
}

func (r *RepaymentRepository) SaveAll(ctx context.Context, rps []*repaymentDomain.Repayment) error {
	for _, rp := range rps {
		if err := r.db.WithContext(ctx).Save(rp).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *RepaymentRepository) GetByRepaymentID(ctx context.Context, repaymentID string) (*repaymentDomain.Repayment, error) {
	var out repaymentDomain.Repayment
	res := r.db.WithContext(ctx).Where("repayment_id = ?", repaymentID).First(&out)
	return &out, res.Error
}

func (r *RepaymentRepository) GetByRepaymentIDForUpdate(ctx context.Context, repaymentID string) (*repaymentDomain.Repayment, error) {
	var out repaymentDomain.Repayment
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("repayment_id = ?", repaymentID).
		First(&out)
	return &out, res.Error
}

func (r *RepaymentRepository) GetByCorrelationIDForUpdate(ctx context.Context, correlationID string) (*repaymentDomain.Repayment, error) {
	var out repaymentDomain.Repayment
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("correlation_id = ?", correlationID).
		First(&out)
	return &out, res.Error
}

func (r *RepaymentRepository) ListByLoanID(ctx context.Context, loanID uint64) ([]repaymentDomain.Repayment, error) {
	var out []repaymentDomain.Repayment
	res := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("due_date ASC, sequence ASC").
		Find(&out)
	return out, res.Error
}
