package drift

import (
	"testing"

	"drift_go/internal/chain"
)

func addr(s string) chain.Address {
	var a chain.Address
	copy(a[:], s)
	return a
}

func TestUserAccountCodec(t *testing.T) {
	u := &UserAccount{
		Authority:      addr("owner"),
		TotalDeposits:  5_000_000,
		TotalWithdraws: 1_000_000,
		SettledPnL:     -250_000,
		PerpPositions: []PerpPosition{
			{MarketIndex: 0, BaseAssetAmount: -1_500_000_000, QuoteEntry: 30_000_000, SettledPnL: -10_000},
		},
		SpotPositions: []SpotPosition{
			{MarketIndex: 0, ScaledBalance: 4_000_000, CumulativeDeposits: 5_000_000},
		},
	}

	got, err := DecodeUserAccount(u.Encode())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Authority != u.Authority {
		t.Error("authority mismatch")
	}
	if got.SettledPnL != -250_000 {
		t.Errorf("settled pnl = %d, want -250000", got.SettledPnL)
	}
	if len(got.PerpPositions) != 1 || got.PerpPositions[0].BaseAssetAmount != -1_500_000_000 {
		t.Errorf("perp position not preserved: %+v", got.PerpPositions)
	}
	if len(got.SpotPositions) != 1 || got.SpotPositions[0].ScaledBalance != 4_000_000 {
		t.Errorf("spot position not preserved: %+v", got.SpotPositions)
	}
}

func TestVaultAccountCodec(t *testing.T) {
	v := &VaultAccount{
		Manager:                addr("manager"),
		Delegate:               addr("delegate"),
		SpotMarketIndex:        0,
		RedeemPeriodSec:        86_400,
		MaxTokens:              1_000_000_000,
		MinDepositAmount:       10_000_000,
		ManagementFee:          20_000,
		ProfitShare:            50_000,
		Permissioned:           true,
		NetDeposits:            500_000_000,
		TotalWithdrawRequested: 50_000_000,
		SharesSupply:           450_000_000,
	}
	copy(v.Name[:], "AliceVault")

	got, err := DecodeVaultAccount(v.Encode())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.NameString() != "AliceVault" {
		t.Errorf("name = %q, want AliceVault", got.NameString())
	}
	if got.RedeemPeriodSec != 86_400 {
		t.Errorf("redeem period = %d, want 86400", got.RedeemPeriodSec)
	}
	if !got.Permissioned {
		t.Error("permissioned flag lost")
	}
	if got.ManagementFee != 20_000 || got.ProfitShare != 50_000 {
		t.Errorf("fees not preserved: %d / %d", got.ManagementFee, got.ProfitShare)
	}
}

func TestVaultDepositorCodec(t *testing.T) {
	d := &VaultDepositorAccount{
		Vault:                  addr("vault"),
		Authority:              addr("depositor"),
		Shares:                 12_345,
		LastWithdrawRequestVal: 100,
		LastWithdrawRequestTs:  1_700_000_000,
	}

	got, err := DecodeVaultDepositor(d.Encode())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Shares != 12_345 || got.LastWithdrawRequestTs != 1_700_000_000 {
		t.Errorf("depositor fields not preserved: %+v", got)
	}
}

func TestDecodeTruncated(t *testing.T) {
	full := (&VaultAccount{}).Encode()
	if _, err := DecodeVaultAccount(full[:10]); err == nil {
		t.Error("truncated data must fail to decode")
	}
	if _, err := DecodeUserAccount(nil); err == nil {
		t.Error("empty data must fail to decode")
	}
}

func TestDecodeToleratesTrailingPadding(t *testing.T) {
	v := &VaultAccount{RedeemPeriodSec: 3600}
	padded := append(v.Encode(), make([]byte, 64)...)
	got, err := DecodeVaultAccount(padded)
	if err != nil {
		t.Fatalf("padded account must decode: %v", err)
	}
	if got.RedeemPeriodSec != 3600 {
		t.Errorf("redeem period = %d, want 3600", got.RedeemPeriodSec)
	}
}
