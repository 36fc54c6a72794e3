package app

import (
	"context"

	"github.com/shopspring/decimal"

	"drift_go/internal/chain"
	"drift_go/internal/domain"
	"drift_go/internal/service"
)

// Envelope is the uniform result every public operation returns to the
// calling agent/tool layer. Failures carry a machine-readable kind so
// callers can branch without string matching; the wrapped ledger text
// inside a SubmissionFailed is the only free-form part.
type Envelope struct {
	OK      bool        `json:"ok"`
	Kind    domain.Kind `json:"kind,omitempty"` // set on failure
	Message string      `json:"message"`
	Data    any         `json:"data,omitempty"`
}

func ok(message string, data any) Envelope {
	return Envelope{OK: true, Message: message, Data: data}
}

func fail(err error) Envelope {
	kind := domain.KindOf(err)
	if kind == "" {
		kind = domain.KindSubmissionFailed
	}
	return Envelope{OK: false, Kind: kind, Message: err.Error()}
}

// API is the tool-facing surface. Every method resolves a fresh service
// handle from the factory, performs one operation, and returns an
// envelope; nothing throws past this boundary.
type API struct {
	factory *service.Factory
	wallet  chain.Address
}

// NewAPI binds the surface to a factory and the caller's wallet.
func NewAPI(factory *service.Factory, wallet chain.Address) *API {
	return &API{factory: factory, wallet: wallet}
}

// AccountExists reports trading-account existence for the wallet.
func (a *API) AccountExists(ctx context.Context) Envelope {
	exists, err := a.factory.Account().Exists(ctx, a.wallet)
	if err != nil {
		return fail(err)
	}
	return ok("account existence checked", map[string]bool{"exists": exists})
}

// CreateAccount initializes and funds the wallet's trading account.
func (a *API) CreateAccount(ctx context.Context, amount decimal.Decimal, marketSymbol string) Envelope {
	res, err := a.factory.Account().CreateWithDeposit(ctx, a.wallet, amount, marketSymbol)
	if err != nil {
		return fail(err)
	}
	return ok("trading account created", res)
}

// Deposit adds funds to the wallet's trading account.
func (a *API) Deposit(ctx context.Context, amount decimal.Decimal, marketSymbol string, isRepay bool) Envelope {
	sig, err := a.factory.Account().Deposit(ctx, a.wallet, amount, marketSymbol, isRepay)
	if err != nil {
		return fail(err)
	}
	return ok("deposit submitted", map[string]string{"signature": string(sig)})
}

// Withdraw removes funds from the wallet's trading account.
func (a *API) Withdraw(ctx context.Context, amount decimal.Decimal, marketSymbol string, isBorrow bool) Envelope {
	sig, err := a.factory.Account().Withdraw(ctx, a.wallet, amount, marketSymbol, isBorrow)
	if err != nil {
		return fail(err)
	}
	return ok("withdrawal submitted", map[string]string{"signature": string(sig)})
}

// AccountInfo returns a fresh human-scale account snapshot.
func (a *API) AccountInfo(ctx context.Context) Envelope {
	snap, err := a.factory.Account().Info(ctx, a.wallet)
	if err != nil {
		return fail(err)
	}
	return ok("account info", snap)
}

// CreateVault creates a pooled vault managed by the wallet.
func (a *API) CreateVault(ctx context.Context, params domain.VaultParams) Envelope {
	vault := a.factory.Vault()
	sig, err := vault.Create(ctx, a.wallet, params)
	if err != nil {
		return fail(err)
	}
	return ok("vault created", map[string]string{
		"signature": string(sig),
		"address":   vault.DeriveAddress(params.Name).String(),
	})
}

// UpdateVault applies a partial update to a vault the wallet manages.
func (a *API) UpdateVault(ctx context.Context, nameOrAddress string, update domain.VaultUpdate) Envelope {
	vault := a.factory.Vault()
	addr, err := a.resolveVault(nameOrAddress)
	if err != nil {
		return fail(err)
	}
	sig, err := vault.Update(ctx, a.wallet, addr, update)
	if err != nil {
		return fail(err)
	}
	return ok("vault updated", map[string]string{"signature": string(sig)})
}

// VaultInfo returns a fresh human-scale vault snapshot.
func (a *API) VaultInfo(ctx context.Context, nameOrAddress string) Envelope {
	snap, err := a.factory.Vault().Info(ctx, nameOrAddress)
	if err != nil {
		return fail(err)
	}
	return ok("vault info", snap)
}

// DepositIntoVault moves funds into a vault, as manager or depositor.
func (a *API) DepositIntoVault(ctx context.Context, nameOrAddress string, amount decimal.Decimal) Envelope {
	addr, err := a.resolveVault(nameOrAddress)
	if err != nil {
		return fail(err)
	}
	sig, err := a.factory.Vault().DepositIntoVault(ctx, a.wallet, addr, amount)
	if err != nil {
		return fail(err)
	}
	return ok("vault deposit submitted", map[string]string{"signature": string(sig)})
}

// RequestVaultWithdrawal starts the two-phase withdrawal. The amount is
// tokens for managers and shares for depositors.
func (a *API) RequestVaultWithdrawal(ctx context.Context, nameOrAddress string, amount decimal.Decimal) Envelope {
	addr, err := a.resolveVault(nameOrAddress)
	if err != nil {
		return fail(err)
	}
	sig, err := a.factory.Vault().RequestWithdrawal(ctx, a.wallet, addr, amount)
	if err != nil {
		return fail(err)
	}
	return ok("withdrawal requested", map[string]string{"signature": string(sig)})
}

// WithdrawFromVault redeems a previously requested withdrawal once the
// redemption period has elapsed (enforced on-chain).
func (a *API) WithdrawFromVault(ctx context.Context, nameOrAddress string) Envelope {
	addr, err := a.resolveVault(nameOrAddress)
	if err != nil {
		return fail(err)
	}
	sig, err := a.factory.Vault().Withdraw(ctx, a.wallet, addr)
	if err != nil {
		return fail(err)
	}
	return ok("withdrawal redeemed", map[string]string{"signature": string(sig)})
}

// PerpTrade sizes and submits a perp order for the wallet, or for a
// vault the wallet is delegate of.
func (a *API) PerpTrade(ctx context.Context, req domain.TradeRequest) Envelope {
	res, err := a.factory.Trade().PerpTrade(ctx, a.wallet, req)
	if err != nil {
		return fail(err)
	}
	return ok("perp order placed", res)
}

// resolveVault accepts either an address string or a vault name.
func (a *API) resolveVault(nameOrAddress string) (chain.Address, error) {
	if addr, err := chain.AddressFromString(nameOrAddress); err == nil {
		return addr, nil
	}
	return a.factory.Vault().DeriveAddress(nameOrAddress), nil
}
