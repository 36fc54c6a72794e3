package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"drift_go/internal/chain"
	"drift_go/internal/domain"
	"drift_go/pkg/fixed"
)

// TradeService turns a human trade request ("long 100 USD of SOL at
// market") into a sized, protocol-correct perp order and submits it —
// against the caller's own account, or against a vault's trading
// account when the caller is its delegate.
type TradeService struct {
	factory *Factory
	logger  *slog.Logger
}

// TradeResult is the success payload of PerpTrade.
type TradeResult struct {
	Signature   string          `json:"signature"`
	MarketIndex uint16          `json:"market_index"`
	Side        domain.Side     `json:"side"`
	BaseAmount  decimal.Decimal `json:"base_amount"`
	OraclePrice decimal.Decimal `json:"oracle_price"`
}

// PerpTrade executes the full order flow: resolve, validate, price,
// size, build, authorize, submit. Steps before the oracle call are pure
// and fail fast with typed errors; the submission failure, if any, is
// surfaced once and never retried here.
func (s *TradeService) PerpTrade(ctx context.Context, caller chain.Address, req domain.TradeRequest) (*TradeResult, error) {
	// Resolve. Bare symbols imply the perp market.
	name := req.MarketSymbol
	if !strings.Contains(name, "-") {
		name += "-" + string(domain.MarketPerp)
	}
	market, err := s.factory.Registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	if market.Kind != domain.MarketPerp {
		return nil, domain.NewError(domain.KindMarketNotFound, "%s is not a perp market", name)
	}

	// Local validation, before any network call.
	if !req.NotionalUSD.IsPositive() {
		return nil, domain.NewError(domain.KindValidation, "notional must be positive, got %s", req.NotionalUSD)
	}
	if req.Side != domain.SideLong && req.Side != domain.SideShort {
		return nil, domain.NewError(domain.KindValidation, "side must be long or short, got %q", req.Side)
	}
	var limitPrice uint64
	switch req.Kind {
	case domain.OrderLimit:
		if req.LimitPrice == nil {
			return nil, domain.NewError(domain.KindPriceRequired, "limit orders require a price")
		}
		limitPrice, err = fixed.ToFixed(*req.LimitPrice, fixed.PriceExp)
		if err != nil {
			return nil, domain.NewError(domain.KindValidation, "limit price: %v", err)
		}
	case domain.OrderMarket:
		// A supplied price is ignored for market orders.
	default:
		return nil, domain.NewError(domain.KindValidation, "order kind must be market or limit, got %q", req.Kind)
	}

	// Price and size: quote notional / oracle price = base quantity.
	quote, err := s.factory.Oracle.GetPrice(ctx, market.Index)
	if err != nil {
		return nil, err
	}
	if !quote.Price.IsPositive() {
		return nil, domain.NewError(domain.KindValidation, "oracle price for %s is not positive", name)
	}
	baseHuman := req.NotionalUSD.Div(quote.Price)
	baseRaw, err := fixed.ToFixed(baseHuman, fixed.BaseExp)
	if err != nil {
		return nil, domain.NewError(domain.KindValidation, "order size: %v", err)
	}

	// Authorize and route.
	authority := caller
	userAccount := s.factory.Client.DeriveUserAddress(caller)
	if req.VaultAddress != "" {
		vaultAddr, aerr := chain.AddressFromString(req.VaultAddress)
		if aerr != nil {
			vaultAddr = s.factory.Client.DeriveVaultAddress(req.VaultAddress)
		}
		vault, exists, verr := s.factory.Client.FetchVault(ctx, vaultAddr)
		if verr != nil {
			return nil, verr
		}
		if !exists {
			return nil, domain.NewError(domain.KindAccountNotFound, "no vault at %s", req.VaultAddress)
		}
		if vault.Delegate != caller {
			return nil, domain.NewError(domain.KindNotVaultDelegate,
				"%s is not the delegate of vault %s", caller, vault.NameString())
		}
		userAccount = s.factory.Client.DeriveUserAddress(vaultAddr)
	}

	order := domain.Order{
		MarketIndex:   market.Index,
		Side:          req.Side,
		BaseAmount:    baseRaw,
		Kind:          req.Kind,
		LimitPrice:    limitPrice,
		ReduceOnly:    req.ReduceOnly,
		PostOnlySlide: req.Kind == domain.OrderLimit,
	}

	// Order placement is compute-heavy; prefix a generous unit limit.
	// Both instructions ride one atomic transaction.
	ixs := []chain.Instruction{
		chain.ComputeBudgetInstruction(chain.DefaultOrderComputeUnits),
		s.factory.Client.PlacePerpOrder(authority, userAccount, order),
	}
	sig, err := s.factory.submit(ctx, "perp_trade", market.Name(), baseRaw, ixs, []chain.Address{authority})
	if err != nil {
		return nil, err
	}

	s.logger.Info("perp order placed",
		slog.String("market", market.Name()),
		slog.String("side", string(req.Side)),
		slog.String("base", baseHuman.String()),
		slog.String("signature", string(sig)))

	return &TradeResult{
		Signature:   string(sig),
		MarketIndex: market.Index,
		Side:        req.Side,
		BaseAmount:  fixed.ToHuman(baseRaw, fixed.BaseExp),
		OraclePrice: quote.Price,
	}, nil
}
