package app

import (
	"context"
	"fmt"
	"log/slog"

	"drift_go/internal/chain"
	"drift_go/internal/domain"
	"drift_go/internal/infra"
	"drift_go/internal/infra/drift"
	"drift_go/internal/infra/oracle"
	"drift_go/internal/infra/storage"
	"drift_go/internal/registry"
	"drift_go/internal/service"
)

// Bootstrap orchestrates the startup sequence: config, logger, storage,
// market registry, collaborators, and the service factory.
type Bootstrap struct {
	Config   *infra.Config
	Storage  *storage.Storage
	Registry *registry.Registry
	Factory  *service.Factory
	Wallet   chain.Address

	oracleWorker *oracle.Worker
}

// NewBootstrap creates a new Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization.
func (b *Bootstrap) Initialize(ctx context.Context, configPath string) error {
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	b.Config = cfg

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	store, err := storage.NewStorage()
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("database initialized")

	markets := b.loadMarkets(ctx)
	b.Registry = registry.New(markets)
	slog.Info("market registry loaded", slog.Int("markets", len(markets)))

	programID, err := chain.AddressFromString(cfg.Chain.ProgramID)
	if err != nil {
		return fmt.Errorf("invalid program id: %w", err)
	}
	vaultProgramID, err := chain.AddressFromString(cfg.Chain.VaultProgramID)
	if err != nil {
		return fmt.Errorf("invalid vault program id: %w", err)
	}
	if cfg.Chain.WalletAddress != "" {
		b.Wallet, err = chain.AddressFromString(cfg.Chain.WalletAddress)
		if err != nil {
			return fmt.Errorf("invalid wallet address: %w", err)
		}
	}

	rpc := infra.NewRPCClient(cfg)
	client := drift.NewClient(programID, vaultProgramID, rpc)

	var priceOracle chain.PriceOracle
	if cfg.Oracle.WSURL != "" {
		perpIndices := make([]uint16, 0)
		for _, m := range markets {
			if m.Kind == domain.MarketPerp {
				perpIndices = append(perpIndices, m.Index)
			}
		}
		worker := oracle.NewWorker(cfg.Oracle.WSURL, perpIndices, cfg.Oracle.StaleAfterSec, infra.GlobalMetrics)
		if err := worker.Connect(ctx); err != nil {
			return err
		}
		b.oracleWorker = worker
		priceOracle = worker
		slog.Info("oracle worker started", slog.Int("markets", len(perpIndices)))
	}

	b.Factory = &service.Factory{
		Registry:  b.Registry,
		Client:    client,
		Submitter: rpc,
		Oracle:    priceOracle,
		Journal:   store,
		Metrics:   infra.GlobalMetrics,
	}
	return nil
}

// loadMarkets fetches the protocol-published market table, falling back
// to the cached snapshot and finally to the embedded defaults. The
// table is never refreshed mid-session.
func (b *Bootstrap) loadMarkets(ctx context.Context) []domain.Market {
	if b.Config.Markets.MetadataURL != "" {
		meta := infra.NewMetadataClient(b.Config.Markets.MetadataURL)
		markets, err := meta.FetchMarkets(ctx)
		if err == nil {
			if serr := b.Storage.SaveMarkets(markets); serr != nil {
				slog.Warn("failed to cache market table", slog.Any("error", serr))
			}
			return markets
		}
		slog.Warn("market metadata fetch failed, trying cache", slog.Any("error", err))
	}

	cached, err := b.Storage.LoadMarkets()
	if err == nil && len(cached) > 0 {
		return cached
	}
	return registry.Defaults()
}

// Shutdown stops background components.
func (b *Bootstrap) Shutdown() {
	if b.oracleWorker != nil {
		b.oracleWorker.Disconnect()
	}
}
