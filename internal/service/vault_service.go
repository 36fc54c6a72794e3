package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"drift_go/internal/chain"
	"drift_go/internal/domain"
	"drift_go/internal/infra/drift"
	"drift_go/pkg/fixed"
)

const secondsPerDay = 86_400

// VaultService manages pooled vaults: creation and updates by the
// manager, participation records for depositors, and the two-phase
// withdrawal flow for both.
type VaultService struct {
	factory *Factory
	logger  *slog.Logger
}

// Create validates the parameters locally, converts every amount and
// percentage to fixed point, and submits the vault creation. A PERP
// underlying market is rejected before anything is built.
func (s *VaultService) Create(ctx context.Context, manager chain.Address, params domain.VaultParams) (chain.Signature, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	market, err := s.factory.Registry.Resolve(params.MarketSymbol)
	if err != nil {
		return "", err
	}
	if market.Kind != domain.MarketSpot {
		return "", domain.NewError(domain.KindInvalidVaultMarket,
			"vault underlying must be a SPOT market, %s is %s", params.MarketSymbol, market.Kind)
	}

	maxTokens, err := fixed.ToFixed(params.MaxTokens, market.Precision)
	if err != nil {
		return "", domain.NewError(domain.KindValidation, "max tokens: %v", err)
	}
	var minDeposit uint64
	if params.MinDepositAmount.IsPositive() {
		minDeposit, err = fixed.ToFixed(params.MinDepositAmount, market.Precision)
		if err != nil {
			return "", domain.NewError(domain.KindValidation, "min deposit: %v", err)
		}
	}
	mgmtFee, err := fixed.PercentToFixed(params.ManagementFeePct)
	if err != nil {
		return "", domain.NewError(domain.KindValidation, "management fee: %v", err)
	}
	profitShare, err := fixed.PercentToFixed(params.ProfitShareOrDefault())
	if err != nil {
		return "", domain.NewError(domain.KindValidation, "profit share: %v", err)
	}
	hurdle, err := fixed.PercentToFixed(params.HurdleRateOrDefault())
	if err != nil {
		return "", domain.NewError(domain.KindValidation, "hurdle rate: %v", err)
	}

	ix := s.factory.Client.InitializeVault(manager, drift.VaultInit{
		Name:            params.Name,
		SpotMarketIndex: market.Index,
		RedeemPeriodSec: params.RedeemPeriodDays * secondsPerDay,
		MaxTokens:       maxTokens,
		MinDeposit:      minDeposit,
		ManagementFee:   mgmtFee,
		ProfitShare:     profitShare,
		HurdleRate:      hurdle,
		Permissioned:    params.Permissioned,
	})

	sig, err := s.factory.submit(ctx, "create_vault", market.Name(), maxTokens, []chain.Instruction{ix}, []chain.Address{manager})
	if err != nil {
		return "", err
	}
	s.logger.Info("vault created",
		slog.String("name", params.Name),
		slog.String("address", s.DeriveAddress(params.Name).String()),
		slog.String("signature", string(sig)))
	return sig, nil
}

// Update submits a partial vault update. Unset fields stay unchanged on
// chain; the program rejects non-manager callers on its own, so no
// authority pre-check happens here.
func (s *VaultService) Update(ctx context.Context, manager, vault chain.Address, update domain.VaultUpdate) (chain.Signature, error) {
	if err := update.Validate(); err != nil {
		return "", err
	}

	acct, exists, err := s.factory.Client.FetchVault(ctx, vault)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", domain.NewError(domain.KindAccountNotFound, "no vault at %s", vault)
	}
	market, err := s.factory.Registry.ResolveIndex(acct.SpotMarketIndex, domain.MarketSpot)
	if err != nil {
		return "", err
	}

	var fields drift.VaultUpdateFields
	if update.RedeemPeriodDays != nil {
		sec := *update.RedeemPeriodDays * secondsPerDay
		fields.RedeemPeriodSec = &sec
	}
	if update.MaxTokens != nil {
		raw, cerr := fixed.ToFixed(*update.MaxTokens, market.Precision)
		if cerr != nil {
			return "", domain.NewError(domain.KindValidation, "max tokens: %v", cerr)
		}
		fields.MaxTokens = &raw
	}
	if update.MinDepositAmount != nil {
		raw, cerr := fixed.ToFixed(*update.MinDepositAmount, market.Precision)
		if cerr != nil {
			return "", domain.NewError(domain.KindValidation, "min deposit: %v", cerr)
		}
		fields.MinDeposit = &raw
	}
	if update.ManagementFeePct != nil {
		raw, cerr := fixed.PercentToFixed(*update.ManagementFeePct)
		if cerr != nil {
			return "", domain.NewError(domain.KindValidation, "management fee: %v", cerr)
		}
		fields.ManagementFee = &raw
	}
	if update.ProfitSharePct != nil {
		raw, cerr := fixed.PercentToFixed(*update.ProfitSharePct)
		if cerr != nil {
			return "", domain.NewError(domain.KindValidation, "profit share: %v", cerr)
		}
		fields.ProfitShare = &raw
	}
	if update.HurdleRatePct != nil {
		raw, cerr := fixed.PercentToFixed(*update.HurdleRatePct)
		if cerr != nil {
			return "", domain.NewError(domain.KindValidation, "hurdle rate: %v", cerr)
		}
		fields.HurdleRate = &raw
	}
	fields.Permissioned = update.Permissioned

	ix := s.factory.Client.UpdateVault(manager, vault, fields)
	return s.factory.submit(ctx, "update_vault", market.Name(), 0, []chain.Instruction{ix}, []chain.Address{manager})
}

// DeriveAddress computes the deterministic vault address for a name.
func (s *VaultService) DeriveAddress(name string) chain.Address {
	return s.factory.Client.DeriveVaultAddress(name)
}

// Info resolves a vault by name or address and returns a human-scale
// snapshot. availableBalance = netDeposits - totalWithdrawRequested.
func (s *VaultService) Info(ctx context.Context, nameOrAddress string) (*domain.VaultSnapshot, error) {
	addr, err := chain.AddressFromString(nameOrAddress)
	if err != nil {
		addr = s.DeriveAddress(nameOrAddress)
	}

	acct, exists, err := s.factory.Client.FetchVault(ctx, addr)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.NewError(domain.KindAccountNotFound, "no vault %q", nameOrAddress)
	}

	precision := fixed.QuoteExp
	symbol := ""
	if m, rerr := s.factory.Registry.ResolveIndex(acct.SpotMarketIndex, domain.MarketSpot); rerr == nil {
		precision = m.Precision
		symbol = m.Name()
	}

	netDeposits := fixed.SignedToHuman(acct.NetDeposits, precision)
	requested := fixed.ToHuman(acct.TotalWithdrawRequested, precision)
	return &domain.VaultSnapshot{
		Name:                   acct.NameString(),
		Address:                addr.String(),
		Manager:                acct.Manager.String(),
		Delegate:               acct.Delegate.String(),
		MarketIndex:            acct.SpotMarketIndex,
		MarketSymbol:           symbol,
		RedeemPeriodSec:        acct.RedeemPeriodSec,
		MaxTokens:              fixed.ToHuman(acct.MaxTokens, precision),
		MinDepositAmount:       fixed.ToHuman(acct.MinDepositAmount, precision),
		ManagementFeePct:       fixed.FixedToPercent(acct.ManagementFee),
		ProfitSharePct:         fixed.FixedToPercent(acct.ProfitShare),
		HurdleRatePct:          fixed.FixedToPercent(acct.HurdleRate),
		Permissioned:           acct.Permissioned,
		NetDeposits:            netDeposits,
		TotalWithdrawRequested: requested,
		AvailableBalance:       netDeposits.Sub(requested),
	}, nil
}

// IsOwnedBy reports whether the caller is the vault's manager.
func (s *VaultService) IsOwnedBy(ctx context.Context, vault, caller chain.Address) (bool, error) {
	acct, exists, err := s.factory.Client.FetchVault(ctx, vault)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, domain.NewError(domain.KindAccountNotFound, "no vault at %s", vault)
	}
	return acct.Manager == caller, nil
}

// GetOrCreateDepositor fetches the caller's participation record,
// initializing it on a not-found. Idempotent under retry: a second call
// after a successful create returns the existing record. Any failure
// other than not-found propagates untouched.
func (s *VaultService) GetOrCreateDepositor(ctx context.Context, vault, owner chain.Address) (chain.Address, error) {
	addr := s.factory.Client.DeriveDepositorAddress(vault, owner)
	_, exists, err := s.factory.Client.FetchDepositor(ctx, addr)
	if err != nil {
		return chain.Address{}, err
	}
	if exists {
		return addr, nil
	}

	ix := s.factory.Client.InitializeVaultDepositor(owner, vault)
	if _, err := s.factory.submit(ctx, "init_vault_depositor", "", 0, []chain.Instruction{ix}, []chain.Address{owner}); err != nil {
		return chain.Address{}, err
	}
	s.logger.Info("vault depositor initialized",
		slog.String("vault", vault.String()),
		slog.String("depositor", addr.String()))
	return addr, nil
}

// authorityRole is the per-call resolution of how the caller relates to
// a vault: its manager, or a depositor with a participation record. The
// two roles use different instruction variants for the same logical
// operation, so the branch is resolved once here instead of at every
// call site.
type authorityRole struct {
	manager   bool
	depositor chain.Address // set for the depositor role
}

// resolveRole fetches the vault and classifies the caller, creating the
// depositor record lazily for non-managers.
func (s *VaultService) resolveRole(ctx context.Context, vault, caller chain.Address) (*drift.VaultAccount, authorityRole, error) {
	acct, exists, err := s.factory.Client.FetchVault(ctx, vault)
	if err != nil {
		return nil, authorityRole{}, err
	}
	if !exists {
		return nil, authorityRole{}, domain.NewError(domain.KindAccountNotFound, "no vault at %s", vault)
	}
	if acct.Manager == caller {
		return acct, authorityRole{manager: true}, nil
	}
	dep, err := s.GetOrCreateDepositor(ctx, vault, caller)
	if err != nil {
		return nil, authorityRole{}, err
	}
	return acct, authorityRole{depositor: dep}, nil
}

// vaultPrecision resolves the precision of the vault's underlying
// market from its stored index; the symbol is never re-resolved.
func (s *VaultService) vaultPrecision(acct *drift.VaultAccount) (domain.Market, error) {
	return s.factory.Registry.ResolveIndex(acct.SpotMarketIndex, domain.MarketSpot)
}

// DepositIntoVault moves funds into a vault. Managers use the direct
// manager instruction; depositors go through their participation record.
func (s *VaultService) DepositIntoVault(ctx context.Context, caller, vault chain.Address, amount decimal.Decimal) (chain.Signature, error) {
	acct, role, err := s.resolveRole(ctx, vault, caller)
	if err != nil {
		return "", err
	}
	market, err := s.vaultPrecision(acct)
	if err != nil {
		return "", err
	}
	raw, err := fixed.ToFixed(amount, market.Precision)
	if err != nil {
		return "", domain.NewError(domain.KindValidation, "%v", err)
	}

	var ix chain.Instruction
	if role.manager {
		ix = s.factory.Client.ManagerDeposit(caller, vault, raw)
	} else {
		ix = s.factory.Client.DepositorDeposit(caller, vault, role.depositor, raw)
	}
	return s.factory.submit(ctx, "vault_deposit", market.Name(), raw, []chain.Instruction{ix}, []chain.Address{caller})
}

// RequestWithdrawal starts the two-phase withdrawal. The numeric amount
// is denominated in underlying tokens on the manager path and in shares
// on the depositor path; both are converted at the vault market's
// precision. The asymmetry is protocol-defined and preserved as-is —
// crossing the two unit semantics changes the withdrawal size silently,
// so callers must know which side of the branch they are on.
func (s *VaultService) RequestWithdrawal(ctx context.Context, caller, vault chain.Address, amount decimal.Decimal) (chain.Signature, error) {
	acct, role, err := s.resolveRole(ctx, vault, caller)
	if err != nil {
		return "", err
	}
	market, err := s.vaultPrecision(acct)
	if err != nil {
		return "", err
	}
	raw, err := fixed.ToFixed(amount, market.Precision)
	if err != nil {
		return "", domain.NewError(domain.KindValidation, "%v", err)
	}

	var ix chain.Instruction
	if role.manager {
		ix = s.factory.Client.ManagerRequestWithdraw(caller, vault, raw)
	} else {
		ix = s.factory.Client.DepositorRequestWithdraw(caller, vault, role.depositor, raw)
	}
	return s.factory.submit(ctx, "vault_request_withdraw", market.Name(), raw, []chain.Instruction{ix}, []chain.Address{caller})
}

// Withdraw redeems whatever was previously requested. Redemption-period
// timing is enforced by the program: submitting too early fails as
// SubmissionFailed, never as a local error, and no timestamp is tracked
// here.
func (s *VaultService) Withdraw(ctx context.Context, caller, vault chain.Address) (chain.Signature, error) {
	acct, role, err := s.resolveRole(ctx, vault, caller)
	if err != nil {
		return "", err
	}
	market, err := s.vaultPrecision(acct)
	if err != nil {
		return "", err
	}

	var ix chain.Instruction
	if role.manager {
		ix = s.factory.Client.ManagerWithdraw(caller, vault)
	} else {
		ix = s.factory.Client.DepositorWithdraw(caller, vault, role.depositor)
	}
	return s.factory.submit(ctx, "vault_withdraw", market.Name(), 0, []chain.Instruction{ix}, []chain.Address{caller})
}
