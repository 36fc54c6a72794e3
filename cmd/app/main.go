package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"drift_go/internal/app"
	"drift_go/internal/domain"
)

func main() {
	var (
		configPath = flag.String("config", "configs/config.yaml", "path to config file")
		op         = flag.String("op", "", "operation: account-exists | create-account | deposit | withdraw | account-info | create-vault | update-vault | vault-info | vault-deposit | vault-request-withdraw | vault-withdraw | perp-trade")
		market     = flag.String("market", "USDC", "market symbol, e.g. USDC or SOL-PERP")
		amountStr  = flag.String("amount", "0", "human amount (tokens, USD notional, or shares depending on op)")
		vaultName  = flag.String("vault", "", "vault name or address")
		side       = flag.String("side", "long", "trade side: long | short")
		kind       = flag.String("kind", "market", "order kind: market | limit")
		priceStr   = flag.String("price", "", "limit price (required for limit orders)")
		redeemDays = flag.Int64("redeem-days", 1, "vault redeem period in days")
		maxTokens  = flag.String("max-tokens", "100", "vault capacity ceiling")
		minDeposit = flag.String("min-deposit", "0", "vault minimum deposit")
		mgmtFee    = flag.String("mgmt-fee", "0", "vault management fee percent")
		isRepay    = flag.Bool("repay", false, "deposit repays a borrow")
		isBorrow   = flag.Bool("borrow", false, "withdraw borrows against collateral")
		reduceOnly = flag.Bool("reduce-only", false, "order only reduces an existing position")
	)
	flag.Parse()

	if *op == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(ctx, *configPath); err != nil {
		slog.Error("bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Shutdown()

	api := app.NewAPI(bootstrap.Factory, bootstrap.Wallet)

	amount, err := decimal.NewFromString(*amountStr)
	if err != nil {
		slog.Error("invalid amount", slog.String("amount", *amountStr))
		os.Exit(2)
	}

	var env app.Envelope
	switch *op {
	case "account-exists":
		env = api.AccountExists(ctx)
	case "create-account":
		env = api.CreateAccount(ctx, amount, *market)
	case "deposit":
		env = api.Deposit(ctx, amount, *market, *isRepay)
	case "withdraw":
		env = api.Withdraw(ctx, amount, *market, *isBorrow)
	case "account-info":
		env = api.AccountInfo(ctx)
	case "create-vault":
		params := domain.VaultParams{
			Name:             *vaultName,
			MarketSymbol:     *market,
			RedeemPeriodDays: *redeemDays,
		}
		params.MaxTokens, _ = decimal.NewFromString(*maxTokens)
		params.MinDepositAmount, _ = decimal.NewFromString(*minDeposit)
		params.ManagementFeePct, _ = decimal.NewFromString(*mgmtFee)
		env = api.CreateVault(ctx, params)
	case "update-vault":
		// Only flags the caller actually passed become part of the
		// update; everything else stays unchanged on chain.
		var update domain.VaultUpdate
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "redeem-days":
				update.RedeemPeriodDays = redeemDays
			case "max-tokens":
				if v, verr := decimal.NewFromString(*maxTokens); verr == nil {
					update.MaxTokens = &v
				}
			case "min-deposit":
				if v, verr := decimal.NewFromString(*minDeposit); verr == nil {
					update.MinDepositAmount = &v
				}
			case "mgmt-fee":
				if v, verr := decimal.NewFromString(*mgmtFee); verr == nil {
					update.ManagementFeePct = &v
				}
			}
		})
		env = api.UpdateVault(ctx, *vaultName, update)
	case "vault-info":
		env = api.VaultInfo(ctx, *vaultName)
	case "vault-deposit":
		env = api.DepositIntoVault(ctx, *vaultName, amount)
	case "vault-request-withdraw":
		env = api.RequestVaultWithdrawal(ctx, *vaultName, amount)
	case "vault-withdraw":
		env = api.WithdrawFromVault(ctx, *vaultName)
	case "perp-trade":
		req := domain.TradeRequest{
			MarketSymbol: *market,
			Side:         domain.Side(*side),
			NotionalUSD:  amount,
			Kind:         domain.OrderKind(*kind),
			ReduceOnly:   *reduceOnly,
			VaultAddress: *vaultName,
		}
		if *priceStr != "" {
			if p, perr := decimal.NewFromString(*priceStr); perr == nil {
				req.LimitPrice = &p
			}
		}
		env = api.PerpTrade(ctx, req)
	default:
		slog.Error("unknown operation", slog.String("op", *op))
		os.Exit(2)
	}

	out, _ := json.MarshalIndent(env, "", "  ")
	fmt.Println(string(out))
	if !env.OK {
		os.Exit(1)
	}
}
