// Package fixed converts between human-scale decimal amounts and the
// fixed-point integer representation the on-chain program expects.
// All conversions round half-up; values are never silently truncated.
package fixed

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Protocol-wide precision exponents. Spot markets carry their own
// decimals (see domain.Market.Precision); these cover everything else.
const (
	// QuoteExp scales USD/quote amounts (USDC has 6 decimals).
	QuoteExp int32 = 6
	// BaseExp scales perp base-asset amounts.
	BaseExp int32 = 9
	// PriceExp scales oracle and limit prices.
	PriceExp int32 = 6
)

// PercentagePrecision is the common denominator for all percentage
// fields (fees, profit share, hurdle rate). 100% == 1_000_000.
const PercentagePrecision int64 = 1_000_000

var hundred = decimal.NewFromInt(100)

// ToFixed converts a positive human amount to fixed-point at 10^exp.
// Amounts are magnitudes; direction travels separately as a side field,
// so zero and negative inputs are rejected.
func ToFixed(amount decimal.Decimal, exp int32) (uint64, error) {
	if !amount.IsPositive() {
		return 0, fmt.Errorf("amount must be positive, got %s", amount)
	}
	scaled := amount.Shift(exp).Round(0)
	raw := scaled.BigInt()
	if !raw.IsUint64() {
		return 0, fmt.Errorf("amount %s overflows fixed-point at precision %d", amount, exp)
	}
	return raw.Uint64(), nil
}

// ToHuman converts a fixed-point amount at 10^exp back to a decimal.
func ToHuman(raw uint64, exp int32) decimal.Decimal {
	return decimal.NewFromUint64(raw).Shift(-exp)
}

// SignedToHuman converts a signed fixed-point field (base amounts,
// settled PnL) back to a decimal.
func SignedToHuman(raw int64, exp int32) decimal.Decimal {
	return decimal.NewFromInt(raw).Shift(-exp)
}

// PercentToFixed converts a human percentage ("5" meaning 5%) to the
// protocol percentage base: round(pct * PercentagePrecision / 100).
// Zero is a valid percentage (e.g. hurdle rate unset).
func PercentToFixed(pct decimal.Decimal) (uint64, error) {
	if pct.IsNegative() {
		return 0, fmt.Errorf("percentage must not be negative, got %s", pct)
	}
	scaled := pct.Mul(decimal.NewFromInt(PercentagePrecision)).Div(hundred).Round(0)
	raw := scaled.BigInt()
	if !raw.IsUint64() {
		return 0, fmt.Errorf("percentage %s overflows fixed-point", pct)
	}
	return raw.Uint64(), nil
}

// FixedToPercent is the inverse of PercentToFixed.
func FixedToPercent(raw uint64) decimal.Decimal {
	return decimal.NewFromUint64(raw).Mul(hundred).Div(decimal.NewFromInt(PercentagePrecision))
}
