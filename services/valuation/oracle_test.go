package valuation

import (
	"Moneta/models/game"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedDepositValue(t *testing.T) {
	fd := game.FixedDeposit{
		Amount:         100000,
		AnnualRate:     7.0,
		DurationMonths: 12,
		StartYear:      1,
		StartMonth:     1,
	}

	t.Run("matured pays full simple interest", func(t *testing.T) {
		assert.InDelta(t, 107000, FixedDepositValue(fd, 2, 1), 0.01)
	})

	t.Run("past maturity stays at the matured value", func(t *testing.T) {
		assert.InDelta(t, 107000, FixedDepositValue(fd, 5, 6), 0.01)
	})

	t.Run("halfway accrues half the interest", func(t *testing.T) {
		assert.InDelta(t, 103500, FixedDepositValue(fd, 1, 7), 0.01)
	})

	t.Run("just opened is worth the principal", func(t *testing.T) {
		assert.InDelta(t, 100000, FixedDepositValue(fd, 1, 1), 0.01)
	})

	t.Run("start date in the future clamps to zero accrual", func(t *testing.T) {
		future := fd
		future.StartYear = 3
		assert.InDelta(t, 100000, FixedDepositValue(future, 1, 1), 0.01)
	})

	t.Run("multi-year term scales duration", func(t *testing.T) {
		long := game.FixedDeposit{
			Amount:         50000,
			AnnualRate:     6.0,
			DurationMonths: 24,
			StartYear:      1,
			StartMonth:     1,
		}
		// 50000 * 6% * 2 years = 6000 at maturity.
		assert.InDelta(t, 56000, FixedDepositValue(long, 3, 1), 0.01)
	})

	t.Run("zero duration returns principal", func(t *testing.T) {
		degenerate := game.FixedDeposit{Amount: 1000}
		assert.Equal(t, 1000.0, FixedDepositValue(degenerate, 1, 1))
	})
}

func TestCalculateServerNetworth(t *testing.T) {
	prices := game.PriceSnapshot{
		"GOLD": 2000,
		"TSLA": 250,
		"BTC":  40000,
	}
	holdings := game.Holdings{
		"gold":   {"GOLD": 2},
		"stocks": {"TSLA": 10},
		"crypto": {"BTC": 0.5},
	}
	deposits := []game.FixedDeposit{
		{Amount: 10000, AnnualRate: 5, DurationMonths: 12, StartYear: 1, StartMonth: 1},
	}

	total, breakdown := CalculateServerNetworth(5000, 3000, deposits, holdings, prices, 2, 1)

	assert.InDelta(t, 5000, breakdown.Cash, 0.01)
	assert.InDelta(t, 3000+10500, breakdown.Savings, 0.01)
	assert.InDelta(t, 4000, breakdown.Gold, 0.01)
	assert.InDelta(t, 2500, breakdown.Stocks, 0.01)
	assert.InDelta(t, 20000, breakdown.Crypto, 0.01)
	assert.Zero(t, breakdown.Funds)
	assert.InDelta(t, 5000+13500+4000+2500+20000, total, 0.01)
}

func TestCalculateServerNetworthMissingPrice(t *testing.T) {
	// A held symbol with no authoritative price values at zero, never skips.
	holdings := game.Holdings{"stocks": {"DELISTED": 100}}

	total, breakdown := CalculateServerNetworth(1000, 0, nil, holdings, game.PriceSnapshot{}, 1, 1)
	assert.Equal(t, 1000.0, total)
	assert.Zero(t, breakdown.Stocks)
}

func TestValidateNetworth(t *testing.T) {
	t.Run("exact match", func(t *testing.T) {
		result := ValidateNetworth(100000, 100000)
		assert.True(t, result.Valid)
		assert.Zero(t, result.Deviation)
	})

	t.Run("inside tolerance", func(t *testing.T) {
		result := ValidateNetworth(100400, 100000)
		assert.True(t, result.Valid)
		assert.InDelta(t, 0.4, result.Deviation, 0.001)
	})

	t.Run("outside tolerance", func(t *testing.T) {
		result := ValidateNetworth(101000, 100000)
		assert.False(t, result.Valid)
		assert.InDelta(t, 1.0, result.Deviation, 0.001)
	})

	t.Run("both zero", func(t *testing.T) {
		result := ValidateNetworth(0, 0)
		assert.True(t, result.Valid)
		assert.Zero(t, result.Deviation)
	})

	t.Run("server zero, client nonzero", func(t *testing.T) {
		result := ValidateNetworth(100, 0)
		assert.False(t, result.Valid)
		assert.Equal(t, 100.0, result.Deviation)
	})

	t.Run("negative worth compared by magnitude", func(t *testing.T) {
		result := ValidateNetworth(-100000, -100000)
		assert.True(t, result.Valid)
	})
}
