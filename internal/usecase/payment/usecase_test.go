package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"loanflow/internal/domain/audit"
	"loanflow/internal/domain/borrower"
	"loanflow/internal/domain/gateway"
	loanDomain "loanflow/internal/domain/loan"
	"loanflow/internal/domain/repayment"
	"loanflow/internal/domain/uow"
	"loanflow/internal/testutil/borrowermock"
	"loanflow/internal/testutil/gatewaymock"
	"loanflow/internal/testutil/loanmock"
	"loanflow/internal/testutil/repaymentmock"
	"loanflow/internal/testutil/sinkmock"
	"loanflow/internal/testutil/uowmock"
)

// store is an in-memory ledger backing the mocks. txMu serializes "transactions"
// the way the database would; dmu guards the maps for lock-free reads.
type store struct {
	txMu sync.Mutex
	dmu  sync.Mutex
	loan *loanDomain.Loan
	rows map[string]*repayment.Repayment // keyed by repayment_id
}

// newStore seeds one DISBURSED loan (10000 at 6% flat => total payable 10600)
// and one pending scheduled installment of 534.56.
func newStore() (*store, *repayment.Repayment) {
	rp := &repayment.Repayment{
		ID:          1,
		RepaymentID: "11111111111111111111111111111111",
		LoanID:      42,
		Sequence:    1,
		Amount:      decimal.RequireFromString("534.56"),
		DueDate:     time.Now().UTC().AddDate(0, 1, 0),
		Status:      repayment.StatusPending,
		LateFee:     decimal.Zero,
	}
	s := &store{
		loan: &loanDomain.Loan{
			ID:           42,
			LoanID:       "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			BorrowerID:   "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
			Principal:    decimal.NewFromInt(10000),
			TermMonths:   20,
			Status:       loanDomain.StatusDisbursed,
			InterestRate: decimal.NewFromInt(6),
			TotalRepaid:  decimal.Zero,
		},
		rows: map[string]*repayment.Repayment{rp.RepaymentID: rp},
	}
	return s, rp
}

func (s *store) loanRepo() *loanmock.Repo {
	get := func(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
		s.dmu.Lock()
		defer s.dmu.Unlock()
		if s.loan == nil || s.loan.ID != id {
			return nil, gorm.ErrRecordNotFound
		}
		return s.loan, nil
	}
	return &loanmock.Repo{
		GetByIDFn:          get,
		GetByIDForUpdateFn: get,
		GetByLoanIDForUpdateFn: func(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
			s.dmu.Lock()
			defer s.dmu.Unlock()
			if s.loan == nil || s.loan.LoanID != loanID {
				return nil, gorm.ErrRecordNotFound
			}
			return s.loan, nil
		},
		SaveFn: func(ctx context.Context, l *loanDomain.Loan) error {
			s.dmu.Lock()
			defer s.dmu.Unlock()
			s.loan = l
			return nil
		},
	}
}

func (s *store) repaymentRepo() *repaymentmock.Repo {
	get := func(ctx context.Context, repaymentID string) (*repayment.Repayment, error) {
		s.dmu.Lock()
		defer s.dmu.Unlock()
		rp, ok := s.rows[repaymentID]
		if !ok {
			return nil, gorm.ErrRecordNotFound
		}
		cp := *rp
		return &cp, nil
	}
	return &repaymentmock.Repo{
		GetByRepaymentIDFn:          get,
		GetByRepaymentIDForUpdateFn: get,
		GetByCorrelationIDForUpdateFn: func(ctx context.Context, correlationID string) (*repayment.Repayment, error) {
			s.dmu.Lock()
			defer s.dmu.Unlock()
			for _, rp := range s.rows {
				if rp.CorrelationID == correlationID {
					cp := *rp
					return &cp, nil
				}
			}
			return nil, gorm.ErrRecordNotFound
		},
		CreateFn: func(ctx context.Context, rp *repayment.Repayment) error {
			s.dmu.Lock()
			defer s.dmu.Unlock()
			cp := *rp
			s.rows[rp.RepaymentID] = &cp
			return nil
		},
		SaveFn: func(ctx context.Context, rp *repayment.Repayment) error {
			s.dmu.Lock()
			defer s.dmu.Unlock()
			cp := *rp
			s.rows[rp.RepaymentID] = &cp
			return nil
		},
	}
}

// uow serializes each transaction on txMu, standing in for row locks.
func (s *store) unitOfWork(loans *loanmock.Repo, rps *repaymentmock.Repo) *uowmock.UoW {
	repos := uow.Repos{Loans: loans, Repayments: rps}
	return &uowmock.UoW{
		WithinTxFn: func(ctx context.Context, fn func(r uow.Repos) error) error {
			s.txMu.Lock()
			defer s.txMu.Unlock()
			return fn(repos)
		},
		WithinLoanTxFn: func(ctx context.Context, loanID string, fn func(r uow.Repos, l *loanDomain.Loan) error) error {
			s.txMu.Lock()
			defer s.txMu.Unlock()
			l, err := repos.Loans.GetByLoanIDForUpdate(ctx, loanID)
			if err != nil {
				return err
			}
			return fn(repos, l)
		},
	}
}

func (s *store) row(t *testing.T, repaymentID string) *repayment.Repayment {
	t.Helper()
	s.dmu.Lock()
	defer s.dmu.Unlock()
	rp, ok := s.rows[repaymentID]
	if !ok {
		t.Fatalf("row %s missing", repaymentID)
	}
	cp := *rp
	return &cp
}

func (s *store) currentLoan() *loanDomain.Loan {
	s.dmu.Lock()
	defer s.dmu.Unlock()
	cp := *s.loan
	return &cp
}

func phonedBorrower(phone string) *borrowermock.Provider {
	return &borrowermock.Provider{
		GetByBorrowerIDFn: func(ctx context.Context, id string) (*borrower.Borrower, error) {
			return &borrower.Borrower{BorrowerID: id, Name: "Jane", Phone: phone}, nil
		},
	}
}

func newFixture(t *testing.T, gw gateway.Initiator) (*store, *repayment.Repayment, *Usecase, *sinkmock.Sink) {
	t.Helper()
	s, rp := newStore()
	loans := s.loanRepo()
	rps := s.repaymentRepo()
	sink := &sinkmock.Sink{}
	uc := NewUsecase(loans, rps, phonedBorrower("0712345678"), s.unitOfWork(loans, rps), gw, sink)
	return s, rp, uc, sink
}

// ----- Pay: wallet -----

func TestPay_WalletFinalizes(t *testing.T) {
	s, rp, uc, sink := newFixture(t, &gatewaymock.Initiator{})

	res, err := uc.Pay(context.Background(), rp.RepaymentID, repayment.MethodWallet)
	if err != nil {
		t.Fatalf("Pay err: %v", err)
	}
	if res.Outcome != OutcomeFinalized {
		t.Fatalf("outcome=%s", res.Outcome)
	}
	if res.Repayment.Status != string(repayment.StatusPaid) || res.Repayment.PaidDate == nil {
		t.Fatalf("installment not finalized: %+v", res.Repayment)
	}

	got := s.row(t, rp.RepaymentID)
	if got.Status != repayment.StatusPaid || got.PaymentMethod != repayment.MethodWallet {
		t.Fatalf("stored row: %+v", got)
	}

	l := s.currentLoan()
	if !l.TotalRepaid.Equal(rp.Amount) {
		t.Fatalf("total repaid=%s want %s", l.TotalRepaid, rp.Amount)
	}
	if l.Status != loanDomain.StatusRepaying {
		t.Fatalf("loan status=%s want REPAYING", l.Status)
	}
	if got := sink.Types(); len(got) != 1 || got[0] != audit.EventPaymentFinalized {
		t.Fatalf("audit events: %v", got)
	}
}

func TestPay_WalletAlreadyPaid(t *testing.T) {
	s, rp, uc, _ := newFixture(t, &gatewaymock.Initiator{})

	if _, err := uc.Pay(context.Background(), rp.RepaymentID, repayment.MethodWallet); err != nil {
		t.Fatalf("first Pay err: %v", err)
	}
	_, err := uc.Pay(context.Background(), rp.RepaymentID, repayment.MethodWallet)
	if !errors.Is(err, repayment.ErrAlreadyPaid) {
		t.Fatalf("want ErrAlreadyPaid, got %v", err)
	}
	// double pay must not double count
	if l := s.currentLoan(); !l.TotalRepaid.Equal(rp.Amount) {
		t.Fatalf("total repaid=%s want %s", l.TotalRepaid, rp.Amount)
	}
}

// A scheduled installment of a loan that was never disbursed must not reach
// the ledger: the loan would skip straight past DISBURSED, possibly all the
// way to COMPLETED.
func TestPay_WalletRequiresDisbursedLoan(t *testing.T) {
	s, rp, uc, sink := newFixture(t, &gatewaymock.Initiator{})

	// one installment away from the completion threshold (10600)
	s.dmu.Lock()
	s.loan.Status = loanDomain.StatusApproved
	s.loan.TotalRepaid = decimal.NewFromInt(10600).Sub(rp.Amount)
	s.dmu.Unlock()

	_, err := uc.Pay(context.Background(), rp.RepaymentID, repayment.MethodWallet)
	if !errors.Is(err, loanDomain.ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}

	if got := s.row(t, rp.RepaymentID); got.Status != repayment.StatusPending {
		t.Fatalf("row mutated: %+v", got)
	}
	l := s.currentLoan()
	if l.Status != loanDomain.StatusApproved || l.CompletedDate != nil {
		t.Fatalf("loan advanced without disbursement: %+v", l)
	}
	if !l.TotalRepaid.Equal(decimal.NewFromInt(10600).Sub(rp.Amount)) {
		t.Fatalf("ledger mutated: total repaid=%s", l.TotalRepaid)
	}
	if got := sink.Types(); len(got) != 0 {
		t.Fatalf("audit events: %v", got)
	}
}

func TestPay_MpesaRequiresDisbursedLoan(t *testing.T) {
	gw := &gatewaymock.Initiator{
		InitiateFn: func(ctx context.Context, phone string, amount decimal.Decimal, merchantRef string) (string, error) {
			t.Fatalf("push must not be sent for an undisbursed loan")
			return "", nil
		},
	}
	s, rp, uc, _ := newFixture(t, gw)

	s.dmu.Lock()
	s.loan.Status = loanDomain.StatusApproved
	s.dmu.Unlock()

	_, err := uc.Pay(context.Background(), rp.RepaymentID, repayment.MethodMpesa)
	if !errors.Is(err, loanDomain.ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}
	if got := s.row(t, rp.RepaymentID); got.CorrelationID != "" {
		t.Fatalf("correlation stored: %+v", got)
	}
}

func TestPay_UnknownInstallment(t *testing.T) {
	_, _, uc, _ := newFixture(t, &gatewaymock.Initiator{})

	_, err := uc.Pay(context.Background(), "ffffffffffffffffffffffffffffffff", repayment.MethodWallet)
	if !errors.Is(err, repayment.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

// ----- Pay: mobile money -----

func TestPay_MpesaInitiates(t *testing.T) {
	const corr = "ws_CO_270820261032451234567890"
	var pushedPhone string
	gw := &gatewaymock.Initiator{
		InitiateFn: func(ctx context.Context, phone string, amount decimal.Decimal, merchantRef string) (string, error) {
			pushedPhone = phone
			return corr, nil
		},
	}
	s, rp, uc, sink := newFixture(t, gw)

	res, err := uc.Pay(context.Background(), rp.RepaymentID, repayment.MethodMpesa)
	if err != nil {
		t.Fatalf("Pay err: %v", err)
	}
	if res.Outcome != OutcomeAwaitingConfirmation || res.CorrelationID != corr {
		t.Fatalf("result: %+v", res)
	}
	if pushedPhone != "0712345678" {
		t.Fatalf("pushed phone=%s", pushedPhone)
	}

	got := s.row(t, rp.RepaymentID)
	if got.Status != repayment.StatusPending || got.CorrelationID != corr {
		t.Fatalf("stored row: %+v", got)
	}
	// ledger untouched until the confirmation lands
	if l := s.currentLoan(); !l.TotalRepaid.IsZero() || l.Status != loanDomain.StatusDisbursed {
		t.Fatalf("loan mutated before confirmation: %+v", l)
	}
	if got := sink.Types(); len(got) != 1 || got[0] != audit.EventPaymentInitiated {
		t.Fatalf("audit events: %v", got)
	}
}

func TestPay_MpesaReusesInFlightCorrelation(t *testing.T) {
	const corr = "ws_CO_existing"
	gw := &gatewaymock.Initiator{
		InitiateFn: func(ctx context.Context, phone string, amount decimal.Decimal, merchantRef string) (string, error) {
			t.Fatalf("a second push must not be sent while one is in flight")
			return "", nil
		},
	}
	s, rp, uc, _ := newFixture(t, gw)

	s.dmu.Lock()
	s.rows[rp.RepaymentID].CorrelationID = corr
	s.dmu.Unlock()

	res, err := uc.Pay(context.Background(), rp.RepaymentID, repayment.MethodMpesa)
	if err != nil {
		t.Fatalf("Pay err: %v", err)
	}
	if res.Outcome != OutcomeAwaitingConfirmation || res.CorrelationID != corr {
		t.Fatalf("result: %+v", res)
	}
}

func TestPay_MpesaGatewayFailure(t *testing.T) {
	gw := &gatewaymock.Initiator{
		InitiateFn: func(ctx context.Context, phone string, amount decimal.Decimal, merchantRef string) (string, error) {
			return "", gateway.ErrGateway
		},
	}
	s, rp, uc, _ := newFixture(t, gw)

	_, err := uc.Pay(context.Background(), rp.RepaymentID, repayment.MethodMpesa)
	if !errors.Is(err, gateway.ErrGateway) {
		t.Fatalf("want ErrGateway, got %v", err)
	}
	// nothing must stick on failure
	if got := s.row(t, rp.RepaymentID); got.CorrelationID != "" {
		t.Fatalf("correlation stored after failed push: %+v", got)
	}
}

func TestPay_MpesaEmptyCorrelation(t *testing.T) {
	gw := &gatewaymock.Initiator{
		InitiateFn: func(ctx context.Context, phone string, amount decimal.Decimal, merchantRef string) (string, error) {
			return "", nil
		},
	}
	_, rp, uc, _ := newFixture(t, gw)

	_, err := uc.Pay(context.Background(), rp.RepaymentID, repayment.MethodMpesa)
	if !errors.Is(err, gateway.ErrGateway) {
		t.Fatalf("want ErrGateway for empty correlation, got %v", err)
	}
}

func TestPay_MpesaMissingPhone(t *testing.T) {
	s, rp := newStore()
	loans := s.loanRepo()
	rps := s.repaymentRepo()
	uc := NewUsecase(loans, rps, phonedBorrower(""), s.unitOfWork(loans, rps), &gatewaymock.Initiator{}, nil)

	_, err := uc.Pay(context.Background(), rp.RepaymentID, repayment.MethodMpesa)
	if !errors.Is(err, borrower.ErrMissingPhone) {
		t.Fatalf("want ErrMissingPhone, got %v", err)
	}
}

// ----- Confirm -----

func TestConfirm_FinalizesOnceThenNoOps(t *testing.T) {
	const corr = "ws_CO_270820261032451234567890"
	gw := &gatewaymock.Initiator{
		InitiateFn: func(ctx context.Context, phone string, amount decimal.Decimal, merchantRef string) (string, error) {
			return corr, nil
		},
	}
	s, rp, uc, sink := newFixture(t, gw)

	if _, err := uc.Pay(context.Background(), rp.RepaymentID, repayment.MethodMpesa); err != nil {
		t.Fatalf("Pay err: %v", err)
	}

	if err := uc.Confirm(context.Background(), corr); err != nil {
		t.Fatalf("Confirm err: %v", err)
	}
	got := s.row(t, rp.RepaymentID)
	if got.Status != repayment.StatusPaid || got.PaymentMethod != repayment.MethodMpesa {
		t.Fatalf("row after confirm: %+v", got)
	}
	l := s.currentLoan()
	if !l.TotalRepaid.Equal(rp.Amount) || l.Status != loanDomain.StatusRepaying {
		t.Fatalf("loan after confirm: %+v", l)
	}

	// provider redelivers the callback
	if err := uc.Confirm(context.Background(), corr); err != nil {
		t.Fatalf("replayed Confirm err: %v", err)
	}
	if l := s.currentLoan(); !l.TotalRepaid.Equal(rp.Amount) {
		t.Fatalf("replay double-counted: total repaid=%s", l.TotalRepaid)
	}

	types := sink.Types()
	finalized := 0
	for _, ty := range types {
		if ty == audit.EventPaymentFinalized {
			finalized++
		}
	}
	if finalized != 1 {
		t.Fatalf("finalized events=%d, all: %v", finalized, types)
	}
}

func TestConfirm_UnknownCorrelation(t *testing.T) {
	_, _, uc, _ := newFixture(t, &gatewaymock.Initiator{})

	err := uc.Confirm(context.Background(), "ws_CO_nobody")
	if !errors.Is(err, repayment.ErrUnknownCorrelation) {
		t.Fatalf("want ErrUnknownCorrelation, got %v", err)
	}
}

// ----- PayFlexible -----

func TestPayFlexible_RejectsNonPositiveAmount(t *testing.T) {
	s, _, uc, _ := newFixture(t, &gatewaymock.Initiator{})

	for _, amt := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-10)} {
		_, err := uc.PayFlexible(context.Background(), s.currentLoan().LoanID, amt, repayment.MethodWallet)
		if !errors.Is(err, repayment.ErrInvalidAmount) {
			t.Fatalf("amount %s: want ErrInvalidAmount, got %v", amt, err)
		}
	}
}

func TestPayFlexible_RejectsOverpayment(t *testing.T) {
	s, _, uc, _ := newFixture(t, &gatewaymock.Initiator{})

	// total payable 10600, already repaid 10000 => remaining 600
	s.dmu.Lock()
	s.loan.TotalRepaid = decimal.NewFromInt(10000)
	s.loan.Status = loanDomain.StatusRepaying
	s.dmu.Unlock()

	_, err := uc.PayFlexible(context.Background(), s.currentLoan().LoanID, decimal.NewFromInt(700), repayment.MethodWallet)
	if !errors.Is(err, repayment.ErrInvalidAmount) {
		t.Fatalf("want ErrInvalidAmount, got %v", err)
	}
}

func TestPayFlexible_ExactRemainingCompletesLoan(t *testing.T) {
	s, _, uc, sink := newFixture(t, &gatewaymock.Initiator{})

	s.dmu.Lock()
	s.loan.TotalRepaid = decimal.NewFromInt(10000)
	s.loan.Status = loanDomain.StatusRepaying
	s.dmu.Unlock()

	res, err := uc.PayFlexible(context.Background(), s.currentLoan().LoanID, decimal.NewFromInt(600), repayment.MethodWallet)
	if err != nil {
		t.Fatalf("PayFlexible err: %v", err)
	}
	if res.Outcome != OutcomeFinalized {
		t.Fatalf("outcome=%s", res.Outcome)
	}
	if res.Repayment.Sequence != repayment.FlexibleSequence {
		t.Fatalf("sequence=%d want %d", res.Repayment.Sequence, repayment.FlexibleSequence)
	}

	l := s.currentLoan()
	if l.Status != loanDomain.StatusCompleted || l.CompletedDate == nil {
		t.Fatalf("loan not completed: %+v", l)
	}
	if !l.TotalRepaid.Equal(decimal.NewFromInt(10600)) {
		t.Fatalf("total repaid=%s", l.TotalRepaid)
	}

	types := sink.Types()
	if len(types) != 2 || types[1] != audit.EventLoanCompleted {
		t.Fatalf("audit events: %v", types)
	}
}

func TestPayFlexible_RequiresDisbursedLoan(t *testing.T) {
	s, _, uc, _ := newFixture(t, &gatewaymock.Initiator{})

	s.dmu.Lock()
	s.loan.Status = loanDomain.StatusPending
	s.dmu.Unlock()

	_, err := uc.PayFlexible(context.Background(), s.currentLoan().LoanID, decimal.NewFromInt(100), repayment.MethodWallet)
	if !errors.Is(err, loanDomain.ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}
}

func TestPayFlexible_UnknownLoan(t *testing.T) {
	_, _, uc, _ := newFixture(t, &gatewaymock.Initiator{})

	_, err := uc.PayFlexible(context.Background(), "ffffffffffffffffffffffffffffffff", decimal.NewFromInt(100), repayment.MethodWallet)
	if !errors.Is(err, loanDomain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

// ----- concurrency -----

// A burst of wallet retries racing the provider confirmation for the same
// installment must apply the amount to the ledger exactly once.
func TestPay_ConcurrentRetriesApplyOnce(t *testing.T) {
	const corr = "ws_CO_race"
	s, rp, uc, _ := newFixture(t, &gatewaymock.Initiator{})

	s.dmu.Lock()
	s.rows[rp.RepaymentID].CorrelationID = corr
	s.dmu.Unlock()

	const n = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	walletWins := 0

	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := uc.Pay(context.Background(), rp.RepaymentID, repayment.MethodWallet); err == nil {
				mu.Lock()
				walletWins++
				mu.Unlock()
			} else if !errors.Is(err, repayment.ErrAlreadyPaid) {
				t.Errorf("unexpected Pay error: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if err := uc.Confirm(context.Background(), corr); err != nil {
				t.Errorf("Confirm error: %v", err)
			}
		}()
	}
	wg.Wait()

	if walletWins > 1 {
		t.Fatalf("wallet payment finalized %d times", walletWins)
	}
	got := s.row(t, rp.RepaymentID)
	if got.Status != repayment.StatusPaid {
		t.Fatalf("row not PAID after race: %+v", got)
	}
	if l := s.currentLoan(); !l.TotalRepaid.Equal(rp.Amount) {
		t.Fatalf("ledger applied %s, want exactly %s", l.TotalRepaid, rp.Amount)
	}
}
