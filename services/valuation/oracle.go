package valuation

import (
	"Moneta/models/game"
	"math"
)

// NetworthTolerancePercent is the maximum relative deviation between a
// client-reported net worth and the server's own figure before the claim is
// flagged.
const NetworthTolerancePercent = 0.5

// ValidationResult is the outcome of checking a client net-worth claim.
type ValidationResult struct {
	Valid     bool    `json:"valid"`
	Deviation float64 `json:"deviation"` // percent
}

// FixedDepositValue values one term deposit at the given simulated date.
// Matured deposits pay principal plus the full simple interest; unmatured
// deposits accrue interest proportionally to elapsed whole months.
func FixedDepositValue(fd game.FixedDeposit, year, month int) float64 {
	if fd.DurationMonths <= 0 {
		return fd.Amount
	}

	elapsed := (year-fd.StartYear)*12 + (month - fd.StartMonth)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > fd.DurationMonths {
		elapsed = fd.DurationMonths
	}

	durationYears := float64(fd.DurationMonths) / 12.0
	fullInterest := fd.Amount * (fd.AnnualRate / 100.0) * durationYears

	if elapsed == fd.DurationMonths {
		return fd.Amount + fullInterest
	}
	return fd.Amount + fullInterest*(float64(elapsed)/float64(fd.DurationMonths))
}

// CalculateServerNetworth computes the authoritative net worth and
// per-category breakdown for one player from their raw positions and the
// server's own prices. It is deterministic and side-effect free so callers
// can diff a client's claimed breakdown category by category, not just the
// total. An absent price counts as zero, never as "skip".
func CalculateServerNetworth(cash, savingsBalance float64, fixedDeposits []game.FixedDeposit,
	holdings game.Holdings, prices game.PriceSnapshot, year, month int) (float64, game.PortfolioBreakdown) {

	breakdown := game.PortfolioBreakdown{
		Cash:    cash,
		Savings: savingsBalance,
	}

	for _, fd := range fixedDeposits {
		breakdown.Savings += FixedDepositValue(fd, year, month)
	}

	categoryValue := func(category string) float64 {
		total := 0.0
		for symbol, quantity := range holdings[category] {
			total += quantity * prices[symbol]
		}
		return total
	}

	breakdown.Gold = categoryValue("gold")
	breakdown.Funds = categoryValue("funds")
	breakdown.Stocks = categoryValue("stocks")
	breakdown.Crypto = categoryValue("crypto")
	breakdown.Commodities = categoryValue("commodities")
	breakdown.REITs = categoryValue("reits")

	total := breakdown.Cash + breakdown.Savings + breakdown.Gold + breakdown.Funds +
		breakdown.Stocks + breakdown.Crypto + breakdown.Commodities + breakdown.REITs
	return total, breakdown
}

// ValidateNetworth compares a client-reported net worth against the server's
// figure. A zero server value against a nonzero client value is a 100%
// deviation; two zeros are trivially valid.
func ValidateNetworth(clientValue, serverValue float64) ValidationResult {
	if serverValue == 0 {
		if clientValue == 0 {
			return ValidationResult{Valid: true, Deviation: 0}
		}
		return ValidationResult{Valid: false, Deviation: 100}
	}

	deviation := math.Abs(clientValue-serverValue) / math.Abs(serverValue) * 100
	return ValidationResult{
		Valid:     deviation <= NetworthTolerancePercent,
		Deviation: deviation,
	}
}
