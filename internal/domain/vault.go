package domain

import "github.com/shopspring/decimal"

// Vault creation limits enforced locally before any instruction is built.
const (
	MinVaultNameLen    = 5
	MinRedeemDays      = 1
	MinMaxTokens       = 100
	MaxManagementFee   = 20 // percent
	MaxProfitShare     = 90 // percent
	DefaultProfitShare = 5  // percent, applied when omitted
)

// VaultParams describes a vault to create. Percentages are human-scale
// ("2" means 2%); amounts are human token units of the underlying market.
type VaultParams struct {
	Name             string
	MarketSymbol     string // must resolve to a SPOT market
	RedeemPeriodDays int64
	MaxTokens        decimal.Decimal
	MinDepositAmount decimal.Decimal
	ManagementFeePct decimal.Decimal
	ProfitSharePct   *decimal.Decimal // nil = DefaultProfitShare
	HurdleRatePct    *decimal.Decimal // nil = 0
	Permissioned     bool             // whitelist-only deposits
}

// Validate applies the local schema checks. Market-kind validation needs
// the registry and happens in the vault service.
func (p *VaultParams) Validate() error {
	if len(p.Name) < MinVaultNameLen {
		return NewError(KindValidation, "vault name %q must be at least %d characters", p.Name, MinVaultNameLen)
	}
	if p.RedeemPeriodDays < MinRedeemDays {
		return NewError(KindValidation, "redeem period must be at least %d day(s), got %d", MinRedeemDays, p.RedeemPeriodDays)
	}
	if p.MaxTokens.LessThan(decimal.NewFromInt(MinMaxTokens)) {
		return NewError(KindValidation, "max tokens must be at least %d, got %s", MinMaxTokens, p.MaxTokens)
	}
	if p.ManagementFeePct.GreaterThan(decimal.NewFromInt(MaxManagementFee)) {
		return NewError(KindValidation, "management fee must not exceed %d%%, got %s", MaxManagementFee, p.ManagementFeePct)
	}
	if p.ManagementFeePct.IsNegative() {
		return NewError(KindValidation, "management fee must not be negative, got %s", p.ManagementFeePct)
	}
	if p.ProfitSharePct != nil {
		if p.ProfitSharePct.GreaterThan(decimal.NewFromInt(MaxProfitShare)) {
			return NewError(KindValidation, "profit share must not exceed %d%%, got %s", MaxProfitShare, p.ProfitSharePct)
		}
		if p.ProfitSharePct.IsNegative() {
			return NewError(KindValidation, "profit share must not be negative, got %s", p.ProfitSharePct)
		}
	}
	if p.HurdleRatePct != nil && p.HurdleRatePct.IsNegative() {
		return NewError(KindValidation, "hurdle rate must not be negative, got %s", p.HurdleRatePct)
	}
	if p.MinDepositAmount.IsNegative() {
		return NewError(KindValidation, "min deposit must not be negative, got %s", p.MinDepositAmount)
	}
	return nil
}

// ProfitShareOrDefault resolves the optional profit share.
func (p *VaultParams) ProfitShareOrDefault() decimal.Decimal {
	if p.ProfitSharePct != nil {
		return *p.ProfitSharePct
	}
	return decimal.NewFromInt(DefaultProfitShare)
}

// HurdleRateOrDefault resolves the optional hurdle rate.
func (p *VaultParams) HurdleRateOrDefault() decimal.Decimal {
	if p.HurdleRatePct != nil {
		return *p.HurdleRatePct
	}
	return decimal.Zero
}

// VaultUpdate carries a partial update. A nil field is passed through as
// unset so the on-chain value stays unchanged; zero values are only sent
// when a caller explicitly sets them.
type VaultUpdate struct {
	RedeemPeriodDays *int64
	MaxTokens        *decimal.Decimal
	MinDepositAmount *decimal.Decimal
	ManagementFeePct *decimal.Decimal
	ProfitSharePct   *decimal.Decimal
	HurdleRatePct    *decimal.Decimal
	Permissioned     *bool
}

// Validate bounds-checks only the fields that are set.
func (u *VaultUpdate) Validate() error {
	if u.RedeemPeriodDays != nil && *u.RedeemPeriodDays < MinRedeemDays {
		return NewError(KindValidation, "redeem period must be at least %d day(s), got %d", MinRedeemDays, *u.RedeemPeriodDays)
	}
	if u.ManagementFeePct != nil && u.ManagementFeePct.GreaterThan(decimal.NewFromInt(MaxManagementFee)) {
		return NewError(KindValidation, "management fee must not exceed %d%%, got %s", MaxManagementFee, u.ManagementFeePct)
	}
	if u.ProfitSharePct != nil && u.ProfitSharePct.GreaterThan(decimal.NewFromInt(MaxProfitShare)) {
		return NewError(KindValidation, "profit share must not exceed %d%%, got %s", MaxProfitShare, u.ProfitSharePct)
	}
	return nil
}

// VaultSnapshot is a fresh read of a vault account with fee and amount
// fields converted back to human scale.
type VaultSnapshot struct {
	Name                   string          `json:"name"`
	Address                string          `json:"address"`
	Manager                string          `json:"manager"`
	Delegate               string          `json:"delegate"`
	MarketIndex            uint16          `json:"market_index"`
	MarketSymbol           string          `json:"market_symbol"`
	RedeemPeriodSec        int64           `json:"redeem_period_sec"`
	MaxTokens              decimal.Decimal `json:"max_tokens"`
	MinDepositAmount       decimal.Decimal `json:"min_deposit_amount"`
	ManagementFeePct       decimal.Decimal `json:"management_fee_pct"`
	ProfitSharePct         decimal.Decimal `json:"profit_share_pct"`
	HurdleRatePct          decimal.Decimal `json:"hurdle_rate_pct"`
	Permissioned           bool            `json:"permissioned"`
	NetDeposits            decimal.Decimal `json:"net_deposits"`
	TotalWithdrawRequested decimal.Decimal `json:"total_withdraw_requested"`
	// AvailableBalance = NetDeposits - TotalWithdrawRequested, in the
	// underlying asset's human units.
	AvailableBalance decimal.Decimal `json:"available_balance"`
}
