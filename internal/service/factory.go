// Package service implements the execution layer's public operations:
// trading-account lifecycle, vault lifecycle, deposit/withdraw
// orchestration, and order building. Services are short-lived handles
// obtained from a Factory per operation; they hold no state beyond
// their collaborators, so teardown is implicit.
package service

import (
	"context"
	"log/slog"
	"time"

	"drift_go/internal/chain"
	"drift_go/internal/domain"
	"drift_go/internal/infra"
	"drift_go/internal/infra/drift"
	"drift_go/internal/infra/storage"
	"drift_go/internal/registry"
)

// Factory wires collaborators once and hands out per-operation service
// handles. It is safe for concurrent use; the handles it produces are
// meant for a single call sequence and then discarded.
type Factory struct {
	Registry  *registry.Registry
	Client    *drift.Client
	Submitter chain.Submitter
	Oracle    chain.PriceOracle
	Journal   *storage.Storage // optional local operation journal
	Metrics   *infra.Metrics
}

// Account returns a fresh account lifecycle handle.
func (f *Factory) Account() *AccountService {
	return &AccountService{
		factory: f,
		logger:  slog.Default().With("module", "account_service"),
	}
}

// Vault returns a fresh vault lifecycle / orchestration handle.
func (f *Factory) Vault() *VaultService {
	return &VaultService{
		factory: f,
		logger:  slog.Default().With("module", "vault_service"),
	}
}

// Trade returns a fresh order builder handle.
func (f *Factory) Trade() *TradeService {
	return &TradeService{
		factory: f,
		logger:  slog.Default().With("module", "trade_service"),
	}
}

// submit hands one atomic transaction to the ledger collaborator, wraps
// any failure as SubmissionFailed, and journals the confirmed signature.
// No retry happens here: a failed submission is reported upward once.
func (f *Factory) submit(ctx context.Context, op, market string, rawAmount uint64, ixs []chain.Instruction, signers []chain.Address) (chain.Signature, error) {
	start := time.Now()
	sig, err := f.Submitter.Submit(ctx, ixs, signers)
	if err != nil {
		if f.Metrics != nil {
			f.Metrics.RecordSubmissionError()
		}
		return "", domain.WrapSubmission(op, err)
	}
	if f.Metrics != nil {
		f.Metrics.RecordSubmission(time.Since(start).Nanoseconds())
	}
	if f.Journal != nil {
		if jerr := f.Journal.RecordTx(&storage.TxRecord{
			Signature: string(sig),
			Op:        op,
			Market:    market,
			RawAmount: rawAmount,
			CreatedAt: time.Now(),
		}); jerr != nil {
			slog.Warn("journal write failed", slog.String("op", op), slog.Any("error", jerr))
		}
	}
	return sig, nil
}
