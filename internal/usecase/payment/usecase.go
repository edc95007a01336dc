package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"loanflow/internal/amortize"
	"loanflow/internal/domain/audit"
	"loanflow/internal/domain/borrower"
	"loanflow/internal/domain/gateway"
	loanDomain "loanflow/internal/domain/loan"
	"loanflow/internal/domain/repayment"
	"loanflow/internal/domain/uow"
	"loanflow/pkg/id"
)

type Usecase struct {
	loans      loanDomain.Repository
	repayments repayment.Repository
	borrowers  borrower.Provider
	uow        uow.UnitOfWork
	gateway    gateway.Initiator
	sink       audit.Sink
}

func NewUsecase(loans loanDomain.Repository, repayments repayment.Repository,
	borrowers borrower.Provider, tx uow.UnitOfWork, gw gateway.Initiator, sink audit.Sink) *Usecase {
	return &Usecase{loans: loans, repayments: repayments, borrowers: borrowers, uow: tx, gateway: gw, sink: sink}
}

// Pay drives an installment toward PAID. Synchronous methods (wallet) finalize
// inside one transaction; MPESA initiates a provider push and leaves the row
// PENDING with a correlation id until the confirmation callback lands.
func (u *Usecase) Pay(ctx context.Context, repaymentID string, method repayment.Method) (*PayResult, error) {
	if method.Synchronous() {
		return u.paySync(ctx, repaymentID, method)
	}
	return u.payMobileMoney(ctx, repaymentID)
}

func (u *Usecase) paySync(ctx context.Context, repaymentID string, method repayment.Method) (*PayResult, error) {
	var (
		dto  *InstallmentDTO
		loan *loanDomain.Loan
	)
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		rp, err := r.Repayments.GetByRepaymentIDForUpdate(ctx, repaymentID)
		if err != nil {
			return mapRepaymentErr(err)
		}
		if rp.Status == repayment.StatusPaid {
			return repayment.ErrAlreadyPaid
		}

		loan, err = u.finalize(ctx, r, rp, method)
		if err != nil {
			return err
		}
		dto = toInstallmentDTO(rp)
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.recordFinalized(ctx, loan, dto)
	return &PayResult{Outcome: OutcomeFinalized, Repayment: dto}, nil
}

func (u *Usecase) payMobileMoney(ctx context.Context, repaymentID string) (*PayResult, error) {
	// Read phase runs lock-free: the provider round trip must never hold a
	// row lock (§ concurrency model).
	rp, err := u.repayments.GetByRepaymentID(ctx, repaymentID)
	if err != nil {
		return nil, mapRepaymentErr(err)
	}
	if rp.Status == repayment.StatusPaid {
		return nil, repayment.ErrAlreadyPaid
	}
	// One non-terminal correlation id in flight per installment: a repeat
	// request re-surfaces the pending push instead of double-charging.
	if rp.CorrelationID != "" {
		return &PayResult{
			Outcome:       OutcomeAwaitingConfirmation,
			Repayment:     toInstallmentDTO(rp),
			CorrelationID: rp.CorrelationID,
		}, nil
	}

	l, err := u.loans.GetByID(ctx, rp.LoanID)
	if err != nil {
		return nil, mapLoanErr(err)
	}
	if !l.Status.Payable() {
		return nil, loanDomain.ErrInvalidTransition
	}
	b, err := u.borrowers.GetByBorrowerID(ctx, l.BorrowerID)
	if err != nil {
		return nil, mapBorrowerErr(err)
	}
	if b.Phone == "" {
		return nil, borrower.ErrMissingPhone
	}

	corr, err := u.gateway.Initiate(ctx, b.Phone, rp.Amount, rp.RepaymentID)
	if err != nil {
		return nil, err
	}
	if corr == "" {
		return nil, fmt.Errorf("%w: provider returned no correlation id", gateway.ErrGateway)
	}

	// Store the correlation id under lock, re-checking status: a racing
	// wallet payment or stale confirmation may have finalized the row while
	// the push was in flight.
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		locked, err := r.Repayments.GetByRepaymentIDForUpdate(ctx, repaymentID)
		if err != nil {
			return mapRepaymentErr(err)
		}
		if locked.Status == repayment.StatusPaid {
			return repayment.ErrAlreadyPaid
		}
		locked.CorrelationID = corr
		if err := r.Repayments.Save(ctx, locked); err != nil {
			return err
		}
		rp = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.record(ctx, audit.EventPaymentInitiated, rp.RepaymentID,
		fmt.Sprintf("correlation=%s amount=%s", corr, rp.Amount))
	return &PayResult{
		Outcome:       OutcomeAwaitingConfirmation,
		Repayment:     toInstallmentDTO(rp),
		CorrelationID: corr,
	}, nil
}

// PayFlexible accepts an ad-hoc amount against the loan balance. It creates a
// sequence-0 installment due today, then proceeds exactly as Pay.
func (u *Usecase) PayFlexible(ctx context.Context, loanID string, amount decimal.Decimal, method repayment.Method) (*PayResult, error) {
	if !amount.IsPositive() {
		return nil, repayment.ErrInvalidAmount
	}

	var repaymentID string
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loanDomain.Loan) error {
		if !l.Status.Payable() {
			return loanDomain.ErrInvalidTransition
		}
		remaining := amortize.TotalPayable(l.Principal, l.InterestRate).Sub(l.TotalRepaid)
		if amount.GreaterThan(remaining) {
			return fmt.Errorf("%w: %s exceeds remaining balance %s", repayment.ErrInvalidAmount, amount, remaining)
		}

		rp := &repayment.Repayment{
			RepaymentID: id.NewID32(),
			LoanID:      l.ID,
			Sequence:    repayment.FlexibleSequence,
			Amount:      amount,
			DueDate:     time.Now().UTC(),
			Status:      repayment.StatusPending,
			LateFee:     decimal.Zero,
		}
		if err := r.Repayments.Create(ctx, rp); err != nil {
			return err
		}
		repaymentID = rp.RepaymentID
		return nil
	})
	if err != nil {
		return nil, mapLoanErr(err)
	}

	return u.Pay(ctx, repaymentID, method)
}

// Confirm matches an asynchronous provider confirmation back to its
// installment. Replayed confirmations are a no-op; the provider may deliver
// the same callback more than once.
func (u *Usecase) Confirm(ctx context.Context, correlationID string) error {
	var (
		dto  *InstallmentDTO
		loan *loanDomain.Loan
	)
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		rp, err := r.Repayments.GetByCorrelationIDForUpdate(ctx, correlationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repayment.ErrUnknownCorrelation
			}
			return err
		}
		if rp.Status == repayment.StatusPaid {
			// Duplicate delivery: funds were already applied.
			return nil
		}

		loan, err = u.finalize(ctx, r, rp, repayment.MethodMpesa)
		if err != nil {
			return err
		}
		dto = toInstallmentDTO(rp)
		return nil
	})
	if err != nil {
		return err
	}

	if dto != nil {
		u.recordFinalized(ctx, loan, dto)
	}
	return nil
}

// finalize is the ledger update (§4.5): mark the installment PAID and fold its
// amount into the owning loan's running total, deriving the loan status. Both
// rows are written inside the caller's transaction — all or nothing. Callers
// hold the repayment row lock; the loan row is locked here (always in that
// order, so concurrent finalizes cannot deadlock).
func (u *Usecase) finalize(ctx context.Context, r uow.Repos, rp *repayment.Repayment, method repayment.Method) (*loanDomain.Loan, error) {
	l, err := r.Loans.GetByIDForUpdate(ctx, rp.LoanID)
	if err != nil {
		return nil, mapLoanErr(err)
	}
	// An undisbursed loan has no advanced capital to repay: refuse to move
	// it past DISBURSED through the ledger.
	if !l.Status.Payable() {
		return nil, loanDomain.ErrInvalidTransition
	}

	now := time.Now().UTC()
	rp.Status = repayment.StatusPaid
	rp.PaidDate = &now
	rp.PaymentMethod = method
	if err := r.Repayments.Save(ctx, rp); err != nil {
		return nil, err
	}

	l.TotalRepaid = l.TotalRepaid.Add(rp.Amount)
	if l.TotalRepaid.GreaterThanOrEqual(amortize.TotalPayable(l.Principal, l.InterestRate)) {
		l.Status = loanDomain.StatusCompleted
		l.CompletedDate = &now
	} else {
		// The only path by which DISBURSED advances to REPAYING.
		l.Status = loanDomain.StatusRepaying
	}
	if err := r.Loans.Save(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (u *Usecase) recordFinalized(ctx context.Context, l *loanDomain.Loan, dto *InstallmentDTO) {
	u.record(ctx, audit.EventPaymentFinalized, dto.RepaymentID,
		fmt.Sprintf("method=%s amount=%s", dto.PaymentMethod, dto.Amount))
	if l != nil && l.Status == loanDomain.StatusCompleted {
		u.record(ctx, audit.EventLoanCompleted, l.LoanID, fmt.Sprintf("total_repaid=%s", l.TotalRepaid))
	}
}

func (u *Usecase) record(ctx context.Context, event, subject, details string) {
	if u.sink == nil {
		return
	}
	u.sink.Record(ctx, event, subject, details)
}

// GetInstallment is the read accessor the controller layer uses for polling
// an awaiting-confirmation installment.
func (u *Usecase) GetInstallment(ctx context.Context, repaymentID string) (*InstallmentDTO, error) {
	rp, err := u.repayments.GetByRepaymentID(ctx, repaymentID)
	if err != nil {
		return nil, mapRepaymentErr(err)
	}
	return toInstallmentDTO(rp), nil
}

func mapRepaymentErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repayment.ErrNotFound
	}
	return err
}

func mapLoanErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return loanDomain.ErrNotFound
	}
	return err
}

func mapBorrowerErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return borrower.ErrNotFound
	}
	return err
}
