// Package drift is the boundary layer to the perpetuals program and its
// vault program: deterministic address derivation, fresh account reads,
// and instruction construction. It holds no mutable state; every read
// goes back to the ledger.
package drift

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"

	"drift_go/internal/chain"
	"drift_go/internal/domain"
)

// Seeds used for program-derived addresses.
var (
	userSeed      = []byte("user")
	vaultSeed     = []byte("vault")
	depositorSeed = []byte("vault_depositor")
)

// Client builds instructions for and reads accounts of the trading
// program and the vault program.
type Client struct {
	programID      chain.Address
	vaultProgramID chain.Address
	reader         chain.AccountReader
	logger         *slog.Logger
}

// NewClient creates a program client bound to an account reader.
func NewClient(programID, vaultProgramID chain.Address, reader chain.AccountReader) *Client {
	return &Client{
		programID:      programID,
		vaultProgramID: vaultProgramID,
		reader:         reader,
		logger:         slog.Default().With("module", "drift_client"),
	}
}

// ProgramID returns the trading program identifier.
func (c *Client) ProgramID() chain.Address {
	return c.programID
}

// DeriveUserAddress derives the trading account address for an owner.
func (c *Client) DeriveUserAddress(owner chain.Address) chain.Address {
	return chain.Derive(c.programID, userSeed, owner[:])
}

// DeriveVaultAddress derives a vault address from its unique name.
func (c *Client) DeriveVaultAddress(name string) chain.Address {
	return chain.Derive(c.vaultProgramID, vaultSeed, []byte(name))
}

// DeriveDepositorAddress derives the per-(vault, depositor) record address.
func (c *Client) DeriveDepositorAddress(vault, owner chain.Address) chain.Address {
	return chain.Derive(c.vaultProgramID, depositorSeed, vault[:], owner[:])
}

// FetchUser reads and decodes the trading account of an owner. A missing
// account is reported via exists=false.
func (c *Client) FetchUser(ctx context.Context, owner chain.Address) (*UserAccount, bool, error) {
	data, exists, err := c.reader.Fetch(ctx, c.DeriveUserAddress(owner))
	if err != nil {
		return nil, false, fmt.Errorf("fetch user account: %w", err)
	}
	if !exists {
		return nil, false, nil
	}
	u, err := DecodeUserAccount(data)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

// FetchVault reads and decodes a vault account by address.
func (c *Client) FetchVault(ctx context.Context, addr chain.Address) (*VaultAccount, bool, error) {
	data, exists, err := c.reader.Fetch(ctx, addr)
	if err != nil {
		return nil, false, fmt.Errorf("fetch vault account: %w", err)
	}
	if !exists {
		return nil, false, nil
	}
	v, err := DecodeVaultAccount(data)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// FetchDepositor reads and decodes a depositor record by address.
func (c *Client) FetchDepositor(ctx context.Context, addr chain.Address) (*VaultDepositorAccount, bool, error) {
	data, exists, err := c.reader.Fetch(ctx, addr)
	if err != nil {
		return nil, false, fmt.Errorf("fetch vault depositor: %w", err)
	}
	if !exists {
		return nil, false, nil
	}
	d, err := DecodeVaultDepositor(data)
	if err != nil {
		return nil, false, err
	}
	return d, true, nil
}

// discriminator computes the 8-byte method tag the program dispatches on.
func discriminator(method string) []byte {
	sum := sha256.Sum256([]byte("global:" + method))
	return sum[:8]
}

func (c *Client) instruction(program chain.Address, method string, args func(*writer), accounts ...chain.AccountMeta) chain.Instruction {
	w := newWriter()
	w.raw(discriminator(method))
	if args != nil {
		args(w)
	}
	return chain.Instruction{ProgramID: program, Accounts: accounts, Data: w.bytes()}
}

func signer(addr chain.Address) chain.AccountMeta {
	return chain.AccountMeta{Address: addr, Signer: true, Writable: true}
}

func writable(addr chain.Address) chain.AccountMeta {
	return chain.AccountMeta{Address: addr, Writable: true}
}

// InitializeUserWithDeposit builds the create-and-fund instruction for a
// new trading account.
func (c *Client) InitializeUserWithDeposit(owner chain.Address, marketIndex uint16, amount uint64) chain.Instruction {
	return c.instruction(c.programID, "initialize_user_with_deposit", func(w *writer) {
		w.u16(marketIndex)
		w.u64(amount)
	}, signer(owner), writable(c.DeriveUserAddress(owner)))
}

// Deposit builds a deposit into an existing trading account. isRepay
// reduces a borrow instead of increasing the balance; the amount
// encoding is identical either way.
func (c *Client) Deposit(owner chain.Address, marketIndex uint16, amount uint64, isRepay bool) chain.Instruction {
	return c.instruction(c.programID, "deposit", func(w *writer) {
		w.u16(marketIndex)
		w.u64(amount)
		w.bool(isRepay)
	}, signer(owner), writable(c.DeriveUserAddress(owner)))
}

// Withdraw builds a withdrawal from a trading account. isBorrow borrows
// against collateral instead of withdrawing owned balance.
func (c *Client) Withdraw(owner chain.Address, marketIndex uint16, amount uint64, isBorrow bool) chain.Instruction {
	return c.instruction(c.programID, "withdraw", func(w *writer) {
		w.u16(marketIndex)
		w.u64(amount)
		w.bool(isBorrow)
	}, signer(owner), writable(c.DeriveUserAddress(owner)))
}

// VaultInit carries the converted, fixed-point vault creation fields.
type VaultInit struct {
	Name            string
	SpotMarketIndex uint16
	RedeemPeriodSec int64
	MaxTokens       uint64
	MinDeposit      uint64
	ManagementFee   uint64
	ProfitShare     uint64
	HurdleRate      uint64
	Permissioned    bool
}

// InitializeVault builds the vault creation instruction. The caller
// becomes the vault manager.
func (c *Client) InitializeVault(manager chain.Address, init VaultInit) chain.Instruction {
	var name [32]byte
	copy(name[:], init.Name)
	return c.instruction(c.vaultProgramID, "initialize_vault", func(w *writer) {
		w.raw(name[:])
		w.u16(init.SpotMarketIndex)
		w.i64(init.RedeemPeriodSec)
		w.u64(init.MaxTokens)
		w.u64(init.MinDeposit)
		w.u64(init.ManagementFee)
		w.u64(init.ProfitShare)
		w.u64(init.HurdleRate)
		w.bool(init.Permissioned)
	}, signer(manager), writable(c.DeriveVaultAddress(init.Name)))
}

// VaultUpdateFields carries the optional fixed-point update fields. A
// nil field is encoded as absent so the program leaves the stored value
// unchanged; zero is only ever sent when explicitly set.
type VaultUpdateFields struct {
	RedeemPeriodSec *int64
	MaxTokens       *uint64
	MinDeposit      *uint64
	ManagementFee   *uint64
	ProfitShare     *uint64
	HurdleRate      *uint64
	Permissioned    *bool
}

func optU64(w *writer, v *uint64) {
	if v == nil {
		w.bool(false)
		return
	}
	w.bool(true)
	w.u64(*v)
}

// UpdateVault builds the manager-only vault update instruction. The
// program itself rejects non-managers; no extra pre-check happens here.
func (c *Client) UpdateVault(manager, vault chain.Address, fields VaultUpdateFields) chain.Instruction {
	return c.instruction(c.vaultProgramID, "update_vault", func(w *writer) {
		if fields.RedeemPeriodSec == nil {
			w.bool(false)
		} else {
			w.bool(true)
			w.i64(*fields.RedeemPeriodSec)
		}
		optU64(w, fields.MaxTokens)
		optU64(w, fields.MinDeposit)
		optU64(w, fields.ManagementFee)
		optU64(w, fields.ProfitShare)
		optU64(w, fields.HurdleRate)
		if fields.Permissioned == nil {
			w.bool(false)
		} else {
			w.bool(true)
			w.bool(*fields.Permissioned)
		}
	}, signer(manager), writable(vault))
}

// InitializeVaultDepositor builds the lazy depositor-record creation
// instruction used by the get-or-create flow.
func (c *Client) InitializeVaultDepositor(owner, vault chain.Address) chain.Instruction {
	return c.instruction(c.vaultProgramID, "initialize_vault_depositor", nil,
		signer(owner), writable(vault), writable(c.DeriveDepositorAddress(vault, owner)))
}

// ManagerDeposit builds the manager-path vault deposit. Amount is in
// underlying tokens at the vault market's precision.
func (c *Client) ManagerDeposit(manager, vault chain.Address, amount uint64) chain.Instruction {
	return c.instruction(c.vaultProgramID, "manager_deposit", func(w *writer) {
		w.u64(amount)
	}, signer(manager), writable(vault))
}

// DepositorDeposit builds the depositor-path vault deposit. Amount is in
// underlying tokens at the vault market's precision.
func (c *Client) DepositorDeposit(owner, vault, depositor chain.Address, amount uint64) chain.Instruction {
	return c.instruction(c.vaultProgramID, "deposit", func(w *writer) {
		w.u64(amount)
	}, signer(owner), writable(vault), writable(depositor))
}

// ManagerRequestWithdraw builds the manager-path withdrawal request.
// The amount is denominated in underlying TOKENS on this path.
func (c *Client) ManagerRequestWithdraw(manager, vault chain.Address, amount uint64) chain.Instruction {
	return c.instruction(c.vaultProgramID, "manager_request_withdraw", func(w *writer) {
		w.u64(amount)
	}, signer(manager), writable(vault))
}

// DepositorRequestWithdraw builds the depositor-path withdrawal request.
// The amount is denominated in SHARES on this path; the token/share
// asymmetry between the two paths is protocol-defined and preserved
// exactly as the program expects it.
func (c *Client) DepositorRequestWithdraw(owner, vault, depositor chain.Address, shares uint64) chain.Instruction {
	return c.instruction(c.vaultProgramID, "request_withdraw", func(w *writer) {
		w.u64(shares)
	}, signer(owner), writable(vault), writable(depositor))
}

// ManagerWithdraw redeems whatever the manager previously requested.
// Redemption timing is enforced by the program, never pre-checked here.
func (c *Client) ManagerWithdraw(manager, vault chain.Address) chain.Instruction {
	return c.instruction(c.vaultProgramID, "manager_withdraw", nil,
		signer(manager), writable(vault))
}

// DepositorWithdraw redeems whatever the depositor previously requested.
func (c *Client) DepositorWithdraw(owner, vault, depositor chain.Address) chain.Instruction {
	return c.instruction(c.vaultProgramID, "withdraw", nil,
		signer(owner), writable(vault), writable(depositor))
}

// Order parameter encoding.
const (
	directionLong  uint8 = 0
	directionShort uint8 = 1

	orderTypeMarket uint8 = 0
	orderTypeLimit  uint8 = 1

	// postOnlySlide makes a crossing limit order slide to the best
	// non-crossing price instead of being rejected.
	postOnlyNone  uint8 = 0
	postOnlySlide uint8 = 2
)

// PlacePerpOrder builds a perp order placement for the given authority.
// For vault-delegated trading the authority is the vault's delegate and
// the user account is the vault's.
func (c *Client) PlacePerpOrder(authority, userAccount chain.Address, order domain.Order) chain.Instruction {
	dir := directionLong
	if order.Side == domain.SideShort {
		dir = directionShort
	}
	typ := orderTypeMarket
	post := postOnlyNone
	if order.Kind == domain.OrderLimit {
		typ = orderTypeLimit
		if order.PostOnlySlide {
			post = postOnlySlide
		}
	}
	return c.instruction(c.programID, "place_perp_order", func(w *writer) {
		w.raw([]byte{typ, dir})
		w.u16(order.MarketIndex)
		w.u64(order.BaseAmount)
		w.u64(order.LimitPrice)
		w.bool(order.ReduceOnly)
		w.raw([]byte{post})
	}, signer(authority), writable(userAccount))
}
