// Package amortize holds the pure loan math: interest-rate selection from the
// policy table, the standard amortization payment formula, and the flat-rate
// total-payable figure used as the completion threshold.
package amortize

import (
	"errors"

	"github.com/shopspring/decimal"

	"loanflow/internal/config"
)

var ErrInvalidTerm = errors.New("term months must be positive")

var (
	one         = decimal.NewFromInt(1)
	hundred     = decimal.NewFromInt(100)
	twelveHundr = decimal.NewFromInt(1200)
)

// Calculator evaluates the policy rate table. It performs no I/O.
type Calculator struct {
	policy config.Policy
}

func NewCalculator(p config.Policy) *Calculator { return &Calculator{policy: p} }

// InterestRate returns the annual rate (percent) for a credit-score bracket
// and term length. Higher scores and shorter terms get cheaper money.
func (c *Calculator) InterestRate(creditScore, termMonths int) decimal.Decimal {
	rate := c.policy.BaseRate
	switch {
	case creditScore >= c.policy.HighScoreCutoff:
		rate = rate.Sub(c.policy.HighScoreDiscount)
	case creditScore >= c.policy.MidScoreCutoff:
		rate = rate.Sub(c.policy.MidScoreDiscount)
	}
	if termMonths > c.policy.LongTermMonths {
		rate = rate.Add(c.policy.LongTermSurcharge)
	}
	return rate
}

// MonthlyPayment computes the fixed amortization payment:
//
//	monthlyRate = annualRatePercent / 1200   (10 dp, half-up)
//	payment     = P * r * (1+r)^n / ((1+r)^n - 1)   (2 dp, half-up)
//
// A zero rate degrades to an even split.
func MonthlyPayment(principal, annualRatePercent decimal.Decimal, termMonths int) (decimal.Decimal, error) {
	if termMonths <= 0 {
		return decimal.Zero, ErrInvalidTerm
	}
	if annualRatePercent.IsZero() {
		return principal.DivRound(decimal.NewFromInt(int64(termMonths)), 2), nil
	}

	monthlyRate := annualRatePercent.DivRound(twelveHundr, 10)
	factor := one.Add(monthlyRate).Pow(decimal.NewFromInt(int64(termMonths)))

	numerator := principal.Mul(monthlyRate).Mul(factor)
	return numerator.DivRound(factor.Sub(one), 2), nil
}

// TotalPayable is the flat (non-compounding) completion threshold:
// principal + principal * rate/100.
func TotalPayable(principal, annualRatePercent decimal.Decimal) decimal.Decimal {
	return principal.Add(principal.Mul(annualRatePercent).Div(hundred)).Round(2)
}
