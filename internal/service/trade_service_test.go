package service

import (
	"bytes"
	"context"
	"testing"

	"drift_go/internal/chain"
	"drift_go/internal/domain"
	"drift_go/internal/infra/drift"
)

func TestPerpTradeLimitRequiresPrice(t *testing.T) {
	env := newTestEnv()
	_, err := env.factory.Trade().PerpTrade(context.Background(), addr("alice"), domain.TradeRequest{
		MarketSymbol: "SOL",
		Side:         domain.SideLong,
		NotionalUSD:  dec("100"),
		Kind:         domain.OrderLimit,
	})
	if domain.KindOf(err) != domain.KindPriceRequired {
		t.Fatalf("expected PriceRequired, got %v", err)
	}
	if env.oracle.calls != 0 {
		t.Error("a limit order without a price must fail before the oracle is asked")
	}
	if len(env.submitter.submissions) != 0 {
		t.Error("nothing may be submitted")
	}
}

func TestPerpTradeMarketIgnoresSuppliedPrice(t *testing.T) {
	env := newTestEnv()
	env.oracle.prices[0] = dec("20") // SOL-PERP

	stray := dec("999")
	res, err := env.factory.Trade().PerpTrade(context.Background(), addr("alice"), domain.TradeRequest{
		MarketSymbol: "SOL-PERP",
		Side:         domain.SideLong,
		NotionalUSD:  dec("100"),
		Kind:         domain.OrderMarket,
		LimitPrice:   &stray,
	})
	if err != nil {
		t.Fatalf("PerpTrade failed: %v", err)
	}
	if !res.OraclePrice.Equal(dec("20")) {
		t.Errorf("oracle price = %s, want 20", res.OraclePrice)
	}
	// The stray price must not leak into the encoded order: the limit
	// price field (bytes 20..28 of the data) stays zero.
	order := env.submitter.submissions[0].ixs[1]
	if !bytes.Equal(order.Data[20:28], make([]byte, 8)) {
		t.Error("a supplied price must not be encoded into a market order")
	}
}

func TestPerpTradeBareSymbolImpliesPerp(t *testing.T) {
	env := newTestEnv()
	env.oracle.prices[1] = dec("50000") // BTC-PERP

	res, err := env.factory.Trade().PerpTrade(context.Background(), addr("alice"), domain.TradeRequest{
		MarketSymbol: "BTC",
		Side:         domain.SideShort,
		NotionalUSD:  dec("100"),
		Kind:         domain.OrderMarket,
	})
	if err != nil {
		t.Fatalf("PerpTrade failed: %v", err)
	}
	if res.MarketIndex != 1 {
		t.Errorf("market index = %d, want 1 (BTC-PERP)", res.MarketIndex)
	}
}

func TestPerpTradeUnknownMarket(t *testing.T) {
	env := newTestEnv()
	_, err := env.factory.Trade().PerpTrade(context.Background(), addr("alice"), domain.TradeRequest{
		MarketSymbol: "DOGE",
		Side:         domain.SideLong,
		NotionalUSD:  dec("100"),
		Kind:         domain.OrderMarket,
	})
	if domain.KindOf(err) != domain.KindMarketNotFound {
		t.Fatalf("expected MarketNotFound, got %v", err)
	}
}

func TestPerpTradeSpotSymbolRejected(t *testing.T) {
	env := newTestEnv()
	_, err := env.factory.Trade().PerpTrade(context.Background(), addr("alice"), domain.TradeRequest{
		MarketSymbol: "USDC-SPOT",
		Side:         domain.SideLong,
		NotionalUSD:  dec("100"),
		Kind:         domain.OrderMarket,
	})
	if domain.KindOf(err) != domain.KindMarketNotFound {
		t.Fatalf("expected MarketNotFound for a spot symbol, got %v", err)
	}
}

func TestPerpTradeSizing(t *testing.T) {
	env := newTestEnv()
	env.oracle.prices[0] = dec("20") // SOL-PERP

	res, err := env.factory.Trade().PerpTrade(context.Background(), addr("alice"), domain.TradeRequest{
		MarketSymbol: "SOL-PERP",
		Side:         domain.SideLong,
		NotionalUSD:  dec("100"),
		Kind:         domain.OrderMarket,
	})
	if err != nil {
		t.Fatalf("PerpTrade failed: %v", err)
	}
	if !res.BaseAmount.Equal(dec("5")) {
		t.Errorf("base amount = %s, want 5 (100 USD / 20 USD)", res.BaseAmount)
	}
}

func TestPerpTradeComputeBudgetFirst(t *testing.T) {
	env := newTestEnv()
	env.oracle.prices[0] = dec("20")

	_, err := env.factory.Trade().PerpTrade(context.Background(), addr("alice"), domain.TradeRequest{
		MarketSymbol: "SOL-PERP",
		Side:         domain.SideLong,
		NotionalUSD:  dec("100"),
		Kind:         domain.OrderMarket,
	})
	if err != nil {
		t.Fatalf("PerpTrade failed: %v", err)
	}

	sub := env.submitter.submissions[0]
	if len(sub.ixs) != 2 {
		t.Fatalf("expected 2 instructions in one transaction, got %d", len(sub.ixs))
	}
	if sub.ixs[0].ProgramID != chain.ComputeBudgetProgramID {
		t.Error("compute budget must be the first instruction")
	}
	if !bytes.HasPrefix(sub.ixs[1].Data, disc("place_perp_order")) {
		t.Error("second instruction must place the perp order")
	}
}

func TestPerpTradeVaultDelegate(t *testing.T) {
	env := newTestEnv()
	env.oracle.prices[0] = dec("20")
	manager := addr("alice")
	delegate := addr("carol")
	vaultAddr := env.putVault("AliceVault", &drift.VaultAccount{
		Manager:  manager,
		Delegate: delegate,
	})

	// A non-delegate is refused after pricing but before submission.
	_, err := env.factory.Trade().PerpTrade(context.Background(), addr("bob"), domain.TradeRequest{
		MarketSymbol: "SOL-PERP",
		Side:         domain.SideLong,
		NotionalUSD:  dec("100"),
		Kind:         domain.OrderMarket,
		VaultAddress: vaultAddr.String(),
	})
	if domain.KindOf(err) != domain.KindNotVaultDelegate {
		t.Fatalf("expected NotVaultDelegate, got %v", err)
	}
	if len(env.submitter.submissions) != 0 {
		t.Fatal("a refused trade must not be submitted")
	}

	// The delegate trades against the vault's trading account.
	_, err = env.factory.Trade().PerpTrade(context.Background(), delegate, domain.TradeRequest{
		MarketSymbol: "SOL-PERP",
		Side:         domain.SideShort,
		NotionalUSD:  dec("100"),
		Kind:         domain.OrderMarket,
		VaultAddress: vaultAddr.String(),
	})
	if err != nil {
		t.Fatalf("delegate trade failed: %v", err)
	}
	sub := env.submitter.submissions[0]
	if len(sub.signers) != 1 || sub.signers[0] != delegate {
		t.Error("the delegate must be the sole signer")
	}
	vaultUser := env.client.DeriveUserAddress(vaultAddr)
	found := false
	for _, meta := range sub.ixs[1].Accounts {
		if meta.Address == vaultUser {
			found = true
		}
	}
	if !found {
		t.Error("the order must target the vault's trading account")
	}
}

func TestPerpTradeVaultByName(t *testing.T) {
	env := newTestEnv()
	env.oracle.prices[0] = dec("20")
	delegate := addr("carol")
	env.putVault("AliceVault", &drift.VaultAccount{Manager: addr("alice"), Delegate: delegate})

	_, err := env.factory.Trade().PerpTrade(context.Background(), delegate, domain.TradeRequest{
		MarketSymbol: "SOL-PERP",
		Side:         domain.SideLong,
		NotionalUSD:  dec("100"),
		Kind:         domain.OrderMarket,
		VaultAddress: "AliceVault",
	})
	if err != nil {
		t.Fatalf("vault reference by name must resolve: %v", err)
	}
}

func TestPerpTradeMissingVault(t *testing.T) {
	env := newTestEnv()
	env.oracle.prices[0] = dec("20")

	_, err := env.factory.Trade().PerpTrade(context.Background(), addr("alice"), domain.TradeRequest{
		MarketSymbol: "SOL-PERP",
		Side:         domain.SideLong,
		NotionalUSD:  dec("100"),
		Kind:         domain.OrderMarket,
		VaultAddress: "GhostVault",
	})
	if domain.KindOf(err) != domain.KindAccountNotFound {
		t.Fatalf("expected AccountNotFound, got %v", err)
	}
}

func TestPerpTradeOracleErrorPropagates(t *testing.T) {
	env := newTestEnv() // no prices configured

	_, err := env.factory.Trade().PerpTrade(context.Background(), addr("alice"), domain.TradeRequest{
		MarketSymbol: "SOL-PERP",
		Side:         domain.SideLong,
		NotionalUSD:  dec("100"),
		Kind:         domain.OrderMarket,
	})
	if err == nil {
		t.Fatal("expected an error from the oracle")
	}
	if domain.KindOf(err) != "" {
		t.Errorf("an oracle failure is not a typed domain error, got kind %q", domain.KindOf(err))
	}
	if len(env.submitter.submissions) != 0 {
		t.Error("nothing may be submitted on oracle failure")
	}
}

func TestPerpTradeRejectsBadInputs(t *testing.T) {
	env := newTestEnv()
	env.oracle.prices[0] = dec("20")

	cases := []struct {
		name string
		req  domain.TradeRequest
	}{
		{"zero notional", domain.TradeRequest{MarketSymbol: "SOL-PERP", Side: domain.SideLong, NotionalUSD: dec("0"), Kind: domain.OrderMarket}},
		{"negative notional", domain.TradeRequest{MarketSymbol: "SOL-PERP", Side: domain.SideLong, NotionalUSD: dec("-5"), Kind: domain.OrderMarket}},
		{"bad side", domain.TradeRequest{MarketSymbol: "SOL-PERP", Side: "sideways", NotionalUSD: dec("100"), Kind: domain.OrderMarket}},
		{"bad kind", domain.TradeRequest{MarketSymbol: "SOL-PERP", Side: domain.SideLong, NotionalUSD: dec("100"), Kind: "stop"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.factory.Trade().PerpTrade(context.Background(), addr("alice"), tc.req)
			if domain.KindOf(err) != domain.KindValidation {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
	if env.oracle.calls != 0 {
		t.Error("invalid requests must fail before the oracle is asked")
	}
	if len(env.submitter.submissions) != 0 {
		t.Error("invalid requests must never be submitted")
	}
}
