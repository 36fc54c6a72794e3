package domain

import "github.com/shopspring/decimal"

// Side is the trade direction. Amounts are always positive magnitudes;
// direction is carried here, never as a sign on the amount.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// OrderKind selects the order type.
type OrderKind string

const (
	OrderMarket OrderKind = "market"
	OrderLimit  OrderKind = "limit"
)

// Order is the ephemeral value object handed to the protocol client.
// It is constructed per call and never persisted.
type Order struct {
	MarketIndex uint16
	Side        Side
	BaseAmount  uint64 // base-asset quantity, fixed-point
	Kind        OrderKind
	LimitPrice  uint64 // price fixed-point; 0 for market orders
	ReduceOnly  bool
	// PostOnlySlide applies only to limit orders: the order price slides
	// to the best non-crossing level instead of being rejected when it
	// would immediately cross the book.
	PostOnlySlide bool
}

// TradeRequest is the human-scale input to the order builder.
type TradeRequest struct {
	MarketSymbol string          // "<SYMBOL>-PERP"
	Side         Side            // long or short
	NotionalUSD  decimal.Decimal // quote notional to size from the oracle price
	Kind         OrderKind
	LimitPrice   *decimal.Decimal // required for limit orders, ignored for market
	ReduceOnly   bool
	VaultAddress string // non-empty for delegated vault trading
}
