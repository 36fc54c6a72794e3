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

// AccountService manages one-per-wallet trading accounts. Every read is
// a fresh ledger fetch; no account state is cached across calls.
type AccountService struct {
	factory *Factory
	logger  *slog.Logger
}

// CreateAccountResult is the success payload of CreateWithDeposit.
type CreateAccountResult struct {
	Address   string          `json:"address"`
	Signature string          `json:"signature"`
	Deposited decimal.Decimal `json:"deposited"`
}

// Exists reports whether the owner's trading account is present. A
// missing account is an expected state, not an error; only transport
// failures surface here.
func (s *AccountService) Exists(ctx context.Context, owner chain.Address) (bool, error) {
	_, exists, err := s.factory.Client.FetchUser(ctx, owner)
	return exists, err
}

// CreateWithDeposit initializes the trading account and funds it in one
// transaction. The existence pre-check is best effort, not a race-free
// guarantee; a concurrent creator surfaces as a ledger rejection.
func (s *AccountService) CreateWithDeposit(ctx context.Context, owner chain.Address, amount decimal.Decimal, marketSymbol string) (*CreateAccountResult, error) {
	exists, err := s.Exists(ctx, owner)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.NewError(domain.KindAccountAlreadyExists, "trading account for %s already exists", owner)
	}

	market, raw, err := s.convertSpotAmount(marketSymbol, amount)
	if err != nil {
		return nil, err
	}

	ix := s.factory.Client.InitializeUserWithDeposit(owner, market.Index, raw)
	sig, err := s.factory.submit(ctx, "create_account", market.Name(), raw, []chain.Instruction{ix}, []chain.Address{owner})
	if err != nil {
		return nil, err
	}

	addr := s.factory.Client.DeriveUserAddress(owner)
	s.logger.Info("trading account created",
		slog.String("owner", owner.String()),
		slog.String("address", addr.String()),
		slog.String("signature", string(sig)))

	return &CreateAccountResult{
		Address:   addr.String(),
		Signature: string(sig),
		Deposited: fixed.ToHuman(raw, market.Precision),
	}, nil
}

// Deposit adds funds to an existing account. isRepay reduces a borrow
// on-chain rather than increasing a balance; the client-side conversion
// is identical. Fails before submission when the account is missing.
func (s *AccountService) Deposit(ctx context.Context, owner chain.Address, amount decimal.Decimal, marketSymbol string, isRepay bool) (chain.Signature, error) {
	market, raw, err := s.convertSpotAmount(marketSymbol, amount)
	if err != nil {
		return "", err
	}
	if err := s.requireAccount(ctx, owner); err != nil {
		return "", err
	}

	ix := s.factory.Client.Deposit(owner, market.Index, raw, isRepay)
	return s.factory.submit(ctx, "deposit", market.Name(), raw, []chain.Instruction{ix}, []chain.Address{owner})
}

// Withdraw removes funds from an existing account. isBorrow borrows
// against collateral instead of withdrawing owned balance. Insufficient
// balance is a ledger-level rejection, surfaced as SubmissionFailed.
func (s *AccountService) Withdraw(ctx context.Context, owner chain.Address, amount decimal.Decimal, marketSymbol string, isBorrow bool) (chain.Signature, error) {
	market, raw, err := s.convertSpotAmount(marketSymbol, amount)
	if err != nil {
		return "", err
	}
	if err := s.requireAccount(ctx, owner); err != nil {
		return "", err
	}

	ix := s.factory.Client.Withdraw(owner, market.Index, raw, isBorrow)
	return s.factory.submit(ctx, "withdraw", market.Name(), raw, []chain.Instruction{ix}, []chain.Address{owner})
}

// Info fetches a fresh snapshot with positions and aggregates converted
// back to human scale.
func (s *AccountService) Info(ctx context.Context, owner chain.Address) (*domain.AccountSnapshot, error) {
	user, exists, err := s.factory.Client.FetchUser(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.NewError(domain.KindAccountNotFound, "no trading account for %s", owner)
	}

	snap := &domain.AccountSnapshot{
		Owner:            owner.String(),
		Address:          s.factory.Client.DeriveUserAddress(owner).String(),
		TotalDeposits:    fixed.ToHuman(user.TotalDeposits, fixed.QuoteExp),
		TotalWithdrawals: fixed.ToHuman(user.TotalWithdraws, fixed.QuoteExp),
		SettledPnL:       fixed.SignedToHuman(user.SettledPnL, fixed.QuoteExp),
	}
	for _, p := range user.PerpPositions {
		symbol := ""
		if m, err := s.factory.Registry.ResolveIndex(p.MarketIndex, domain.MarketPerp); err == nil {
			symbol = m.Name()
		}
		snap.PerpPositions = append(snap.PerpPositions, domain.PerpPosition{
			MarketIndex: p.MarketIndex,
			Symbol:      symbol,
			BaseAmount:  fixed.SignedToHuman(p.BaseAssetAmount, fixed.BaseExp),
			SettledPnL:  fixed.SignedToHuman(p.SettledPnL, fixed.QuoteExp),
		})
	}
	for _, p := range user.SpotPositions {
		precision := fixed.QuoteExp
		symbol := ""
		if m, err := s.factory.Registry.ResolveIndex(p.MarketIndex, domain.MarketSpot); err == nil {
			symbol = m.Name()
			precision = m.Precision
		}
		snap.SpotPositions = append(snap.SpotPositions, domain.SpotPosition{
			MarketIndex:        p.MarketIndex,
			Symbol:             symbol,
			Balance:            fixed.ToHuman(p.ScaledBalance, precision),
			CumulativeDeposits: fixed.ToHuman(p.CumulativeDeposits, precision),
		})
	}
	return snap, nil
}

// requireAccount gates deposit/withdraw on account existence so a
// missing account never reaches submission.
func (s *AccountService) requireAccount(ctx context.Context, owner chain.Address) error {
	exists, err := s.Exists(ctx, owner)
	if err != nil {
		return err
	}
	if !exists {
		return domain.NewError(domain.KindAccountNotFound, "no trading account for %s", owner)
	}
	return nil
}

// convertSpotAmount resolves a spot market (a bare symbol like "USDC"
// implies "-SPOT") and converts the amount at its precision.
func (s *AccountService) convertSpotAmount(symbol string, amount decimal.Decimal) (domain.Market, uint64, error) {
	name := symbol
	if !strings.Contains(name, "-") {
		name += "-" + string(domain.MarketSpot)
	}
	market, err := s.factory.Registry.Resolve(name)
	if err != nil {
		return domain.Market{}, 0, err
	}
	if market.Kind != domain.MarketSpot {
		return domain.Market{}, 0, domain.NewError(domain.KindMarketNotFound, "%s is not a spot market", name)
	}
	raw, err := fixed.ToFixed(amount, market.Precision)
	if err != nil {
		return domain.Market{}, 0, domain.NewError(domain.KindValidation, "%v", err)
	}
	return market, raw, nil
}
