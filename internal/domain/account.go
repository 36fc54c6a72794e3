package domain

import "github.com/shopspring/decimal"

// PerpPosition is one open perpetual position, converted to human scale.
type PerpPosition struct {
	MarketIndex uint16          `json:"market_index"`
	Symbol      string          `json:"symbol"`
	BaseAmount  decimal.Decimal `json:"base_amount"` // signed; negative = short
	SettledPnL  decimal.Decimal `json:"settled_pnl"` // USD
}

// SpotPosition is one spot balance entry, converted to human scale.
type SpotPosition struct {
	MarketIndex        uint16          `json:"market_index"`
	Symbol             string          `json:"symbol"`
	Balance            decimal.Decimal `json:"balance"`
	CumulativeDeposits decimal.Decimal `json:"cumulative_deposits"`
}

// AccountSnapshot is a fresh read of a trading account. This layer never
// caches it; every query re-fetches from the ledger.
type AccountSnapshot struct {
	Owner            string          `json:"owner"`
	Address          string          `json:"address"`
	PerpPositions    []PerpPosition  `json:"perp_positions"`
	SpotPositions    []SpotPosition  `json:"spot_positions"`
	TotalDeposits    decimal.Decimal `json:"total_deposits"`    // USD, signed
	TotalWithdrawals decimal.Decimal `json:"total_withdrawals"` // USD, signed
	SettledPnL       decimal.Decimal `json:"settled_pnl"`       // USD, signed
}
