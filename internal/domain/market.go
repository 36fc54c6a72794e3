package domain

// MarketKind distinguishes spot from perpetual markets.
type MarketKind string

const (
	MarketSpot MarketKind = "SPOT"
	MarketPerp MarketKind = "PERP"
)

// Market is one row of the protocol-published market table.
// The table is loaded once at startup and never refreshed mid-session;
// adding a market on the venue requires a process restart.
type Market struct {
	Symbol    string     `json:"symbol"`    // base asset, e.g. "SOL"
	Kind      MarketKind `json:"kind"`      // SPOT or PERP
	Index     uint16     `json:"index"`     // protocol market index
	Precision int32      `json:"precision"` // token decimals (spot) or base precision (perp)
}

// Name returns the canonical "<SYMBOL>-<KIND>" form.
func (m Market) Name() string {
	return m.Symbol + "-" + string(m.Kind)
}
