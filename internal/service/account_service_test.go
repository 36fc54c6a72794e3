package service

import (
	"context"
	"testing"

	"drift_go/internal/domain"
	"drift_go/internal/infra/drift"
)

func TestAccountExists(t *testing.T) {
	env := newTestEnv()
	owner := addr("alice")
	svc := env.factory.Account()

	exists, err := svc.Exists(context.Background(), owner)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("account should not exist yet")
	}

	env.putUser(owner, &drift.UserAccount{Authority: owner})
	exists, err = svc.Exists(context.Background(), owner)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("account should exist after funding")
	}
}

func TestDepositGatedOnExistence(t *testing.T) {
	env := newTestEnv()
	owner := addr("alice")

	_, err := env.factory.Account().Deposit(context.Background(), owner, dec("10"), "USDC", false)
	if domain.KindOf(err) != domain.KindAccountNotFound {
		t.Fatalf("expected AccountNotFound, got %v", err)
	}
	if len(env.submitter.submissions) != 0 {
		t.Error("no submission may happen for a missing account")
	}
}

func TestWithdrawGatedOnExistence(t *testing.T) {
	env := newTestEnv()

	_, err := env.factory.Account().Withdraw(context.Background(), addr("alice"), dec("10"), "USDC", false)
	if domain.KindOf(err) != domain.KindAccountNotFound {
		t.Fatalf("expected AccountNotFound, got %v", err)
	}
	if len(env.submitter.submissions) != 0 {
		t.Error("no submission may happen for a missing account")
	}
}

func TestCreateWithDeposit(t *testing.T) {
	env := newTestEnv()
	owner := addr("alice")

	res, err := env.factory.Account().CreateWithDeposit(context.Background(), owner, dec("100"), "USDC")
	if err != nil {
		t.Fatalf("CreateWithDeposit failed: %v", err)
	}
	if res.Signature == "" {
		t.Error("expected a signature")
	}
	if res.Address != env.client.DeriveUserAddress(owner).String() {
		t.Error("returned address must be the derived account address")
	}
	if !res.Deposited.Equal(dec("100")) {
		t.Errorf("deposited = %s, want 100", res.Deposited)
	}
	if len(env.submitter.submissions) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(env.submitter.submissions))
	}
}

func TestCreateWithDepositAlreadyExists(t *testing.T) {
	env := newTestEnv()
	owner := addr("alice")
	env.putUser(owner, &drift.UserAccount{Authority: owner})

	_, err := env.factory.Account().CreateWithDeposit(context.Background(), owner, dec("100"), "USDC")
	if domain.KindOf(err) != domain.KindAccountAlreadyExists {
		t.Fatalf("expected AccountAlreadyExists, got %v", err)
	}
	if len(env.submitter.submissions) != 0 {
		t.Error("no submission may happen when the account already exists")
	}
}

func TestDepositConvertsAtMarketPrecision(t *testing.T) {
	env := newTestEnv()
	owner := addr("alice")
	env.putUser(owner, &drift.UserAccount{Authority: owner})

	// SOL spot has 9 decimals; bare "SOL" implies the spot market.
	_, err := env.factory.Account().Deposit(context.Background(), owner, dec("1.5"), "SOL", false)
	if err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if len(env.submitter.submissions) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(env.submitter.submissions))
	}
}

func TestDepositRejectsUnknownMarket(t *testing.T) {
	env := newTestEnv()

	_, err := env.factory.Account().Deposit(context.Background(), addr("alice"), dec("10"), "ZZZ", false)
	if domain.KindOf(err) != domain.KindMarketNotFound {
		t.Fatalf("expected MarketNotFound, got %v", err)
	}
}

func TestDepositRejectsPerpMarket(t *testing.T) {
	env := newTestEnv()
	owner := addr("alice")
	env.putUser(owner, &drift.UserAccount{Authority: owner})

	_, err := env.factory.Account().Deposit(context.Background(), owner, dec("10"), "SOL-PERP", false)
	if domain.KindOf(err) != domain.KindMarketNotFound {
		t.Fatalf("expected MarketNotFound for a perp symbol, got %v", err)
	}
	if len(env.submitter.submissions) != 0 {
		t.Error("nothing may be submitted")
	}
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	env := newTestEnv()
	owner := addr("alice")
	env.putUser(owner, &drift.UserAccount{Authority: owner})

	_, err := env.factory.Account().Deposit(context.Background(), owner, dec("0"), "USDC", false)
	if domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestAccountInfo(t *testing.T) {
	env := newTestEnv()
	owner := addr("alice")

	t.Run("missing account", func(t *testing.T) {
		_, err := env.factory.Account().Info(context.Background(), owner)
		if domain.KindOf(err) != domain.KindAccountNotFound {
			t.Fatalf("expected AccountNotFound, got %v", err)
		}
	})

	t.Run("converts positions to human scale", func(t *testing.T) {
		env.putUser(owner, &drift.UserAccount{
			Authority:      owner,
			TotalDeposits:  5_000_000, // 5 USD at quote precision
			TotalWithdraws: 1_000_000,
			SettledPnL:     -250_000,
			PerpPositions: []drift.PerpPosition{
				// short 1.5 SOL
				{MarketIndex: 0, BaseAssetAmount: -1_500_000_000, SettledPnL: 10_000},
			},
			SpotPositions: []drift.SpotPosition{
				{MarketIndex: 0, ScaledBalance: 4_000_000, CumulativeDeposits: 5_000_000},
			},
		})

		snap, err := env.factory.Account().Info(context.Background(), owner)
		if err != nil {
			t.Fatalf("Info failed: %v", err)
		}
		if !snap.TotalDeposits.Equal(dec("5")) {
			t.Errorf("total deposits = %s, want 5", snap.TotalDeposits)
		}
		if !snap.SettledPnL.Equal(dec("-0.25")) {
			t.Errorf("settled pnl = %s, want -0.25", snap.SettledPnL)
		}
		if len(snap.PerpPositions) != 1 {
			t.Fatalf("expected 1 perp position, got %d", len(snap.PerpPositions))
		}
		if !snap.PerpPositions[0].BaseAmount.Equal(dec("-1.5")) {
			t.Errorf("base amount = %s, want -1.5", snap.PerpPositions[0].BaseAmount)
		}
		if snap.PerpPositions[0].Symbol != "SOL-PERP" {
			t.Errorf("symbol = %s, want SOL-PERP", snap.PerpPositions[0].Symbol)
		}
		if len(snap.SpotPositions) != 1 || !snap.SpotPositions[0].Balance.Equal(dec("4")) {
			t.Errorf("spot balance not converted: %+v", snap.SpotPositions)
		}
	})
}
