package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"loanflow/internal/amortize"
	"loanflow/internal/config"
	"loanflow/internal/domain/audit"
	"loanflow/internal/domain/borrower"
	domain "loanflow/internal/domain/loan"
	"loanflow/internal/domain/repayment"
	"loanflow/internal/domain/uow"
	"loanflow/pkg/id"
)

// ErrValidation flags bad input shape/range (non-positive amount, term out of
// the policy window, unknown purpose).
var ErrValidation = errors.New("invalid loan application")

type Usecase struct {
	loans      domain.Repository
	repayments repayment.Repository
	borrowers  borrower.Provider
	uow        uow.UnitOfWork
	calc       *amortize.Calculator
	policy     config.Policy
	sink       audit.Sink
}

func NewUsecase(loans domain.Repository, repayments repayment.Repository,
	borrowers borrower.Provider, tx uow.UnitOfWork,
	calc *amortize.Calculator, policy config.Policy, sink audit.Sink) *Usecase {
	return &Usecase{
		loans: loans, repayments: repayments, borrowers: borrowers,
		uow: tx, calc: calc, policy: policy, sink: sink,
	}
}

// Apply creates a PENDING loan with rate and payment fixed at creation.
func (u *Usecase) Apply(ctx context.Context, in ApplyInput) (*LoanDTO, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if in.TermMonths < u.policy.MinTermMonths || in.TermMonths > u.policy.MaxTermMonths {
		return nil, fmt.Errorf("%w: term_months must be between %d and %d",
			ErrValidation, u.policy.MinTermMonths, u.policy.MaxTermMonths)
	}
	if !domain.ValidPurpose(in.Purpose) {
		return nil, fmt.Errorf("%w: unknown purpose %q", ErrValidation, in.Purpose)
	}

	b, err := u.borrowers.GetByBorrowerID(ctx, in.BorrowerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, borrower.ErrNotFound
		}
		return nil, err
	}
	// Score computation is the scoring service's job; without a score we stop.
	if b.CreditScore == nil {
		return nil, borrower.ErrMissingCreditScore
	}

	active, err := u.loans.CountActiveByBorrowerID(ctx, in.BorrowerID)
	if err != nil {
		return nil, err
	}
	if active >= int64(u.policy.ActiveLoanCap) {
		return nil, domain.ErrTooManyActiveLoans
	}

	rate := u.calc.InterestRate(*b.CreditScore, in.TermMonths)
	payment, err := amortize.MonthlyPayment(in.Amount, rate, in.TermMonths)
	if err != nil {
		return nil, err
	}

	l := &domain.Loan{
		LoanID:         id.NewID32(),
		BorrowerID:     in.BorrowerID,
		Principal:      in.Amount,
		TermMonths:     in.TermMonths,
		Purpose:        in.Purpose,
		Status:         domain.StatusPending,
		InterestRate:   rate,
		MonthlyPayment: payment,
		TotalRepaid:    decimal.Zero,
		CreditScore:    *b.CreditScore,
		AppliedDate:    time.Now().UTC(),
	}
	if err := u.loans.Create(ctx, l); err != nil {
		return nil, err
	}

	u.record(ctx, audit.EventLoanApplied, l.LoanID,
		fmt.Sprintf("borrower=%s amount=%s term=%d rate=%s", l.BorrowerID, l.Principal, l.TermMonths, l.InterestRate))
	return toLoanDTO(l), nil
}

// Approve moves PENDING → APPROVED and creates the repayment schedule in the
// same transaction. Any other starting status fails loudly.
func (u *Usecase) Approve(ctx context.Context, in ApproveInput) (*LoanDTO, error) {
	var dto *LoanDTO
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domain.Loan) error {
		if !l.Status.Reviewable() {
			return domain.ErrInvalidTransition
		}

		now := time.Now().UTC()
		due := now.AddDate(0, l.TermMonths, 0)
		l.Status = domain.StatusApproved
		l.ReviewedDate = &now
		l.ReviewedBy = in.ReviewerID
		l.ReviewNotes = in.Notes
		l.DueDate = &due

		// The PENDING guard above makes this at-most-once.
		if err := r.Repayments.CreateBatch(ctx, generateSchedule(l, now)); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		dto = toLoanDTO(l)
		return nil
	})
	if err != nil {
		return nil, mapLoanErr(err)
	}

	u.record(ctx, audit.EventLoanApproved, in.LoanID, fmt.Sprintf("reviewer=%s", in.ReviewerID))
	return dto, nil
}

// Reject moves PENDING → REJECTED, keeping the reviewer trail.
func (u *Usecase) Reject(ctx context.Context, in RejectInput) (*LoanDTO, error) {
	var dto *LoanDTO
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domain.Loan) error {
		if !l.Status.Reviewable() {
			return domain.ErrInvalidTransition
		}

		now := time.Now().UTC()
		l.Status = domain.StatusRejected
		l.RejectionReason = in.Reason
		l.ReviewedBy = in.ReviewerID
		l.ReviewedDate = &now

		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		dto = toLoanDTO(l)
		return nil
	})
	if err != nil {
		return nil, mapLoanErr(err)
	}

	u.record(ctx, audit.EventLoanRejected, in.LoanID, fmt.Sprintf("reviewer=%s reason=%s", in.ReviewerID, in.Reason))
	return dto, nil
}

// Disburse moves APPROVED → DISBURSED and shifts the schedule so installments
// run from the actual disbursement date. Repayment activity, not disbursement,
// is what later moves the loan into REPAYING.
func (u *Usecase) Disburse(ctx context.Context, loanID string) (*LoanDTO, error) {
	var dto *LoanDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if l.Status != domain.StatusApproved {
			return domain.ErrInvalidTransition
		}

		now := time.Now().UTC()
		l.Status = domain.StatusDisbursed
		l.DisbursedDate = &now

		rows, err := r.Repayments.ListByLoanID(ctx, l.ID)
		if err != nil {
			return err
		}
		if err := r.Repayments.SaveAll(ctx, shiftSchedule(rows, now)); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		dto = toLoanDTO(l)
		return nil
	})
	if err != nil {
		return nil, mapLoanErr(err)
	}

	u.record(ctx, audit.EventLoanDisbursed, loanID, "")
	return dto, nil
}

// Get returns the loan with its schedule ordered by due date.
func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, mapLoanErr(err)
	}
	dto := toLoanDTO(l)

	rows, err := u.repayments.ListByLoanID(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	dto.Repayments = make([]RepaymentDTO, 0, len(rows))
	for i := range rows {
		dto.Repayments = append(dto.Repayments, toRepaymentDTO(&rows[i], l.LoanID))
	}
	return dto, nil
}

// List returns a page of all loans (admin view).
func (u *Usecase) List(ctx context.Context, limit, offset int) ([]LoanDTO, error) {
	rows, err := u.loans.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]LoanDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toLoanDTO(&rows[i]))
	}
	return out, nil
}

// ListByBorrower returns a page of one borrower's loans.
func (u *Usecase) ListByBorrower(ctx context.Context, borrowerID string, limit, offset int) ([]LoanDTO, error) {
	rows, err := u.loans.ListByBorrowerID(ctx, borrowerID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]LoanDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toLoanDTO(&rows[i]))
	}
	return out, nil
}

// Summary aggregates the borrower's active loans for the dashboard.
func (u *Usecase) Summary(ctx context.Context, borrowerID string) (*SummaryDTO, error) {
	if _, err := u.borrowers.GetByBorrowerID(ctx, borrowerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, borrower.ErrNotFound
		}
		return nil, err
	}

	rows, err := u.loans.ListByBorrowerID(ctx, borrowerID, 0, 0)
	if err != nil {
		return nil, err
	}

	s := &SummaryDTO{
		TotalBorrowed:  decimal.Zero,
		TotalRepaid:    decimal.Zero,
		MonthlyPayment: decimal.Zero,
	}
	for i := range rows {
		l := &rows[i]
		if !l.Status.Active() {
			continue
		}
		s.TotalBorrowed = s.TotalBorrowed.Add(l.Principal)
		s.TotalRepaid = s.TotalRepaid.Add(l.TotalRepaid)
		s.MonthlyPayment = s.MonthlyPayment.Add(l.MonthlyPayment)
		s.ActiveLoans++
	}

	s.AvailableCredit = u.policy.CreditLine.Sub(s.TotalBorrowed)
	if s.AvailableCredit.IsNegative() {
		s.AvailableCredit = decimal.Zero
	}
	return s, nil
}

func (u *Usecase) record(ctx context.Context, event, subject, details string) {
	if u.sink != nil {
		u.sink.Record(ctx, event, subject, details)
	}
}

func mapLoanErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
