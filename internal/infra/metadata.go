package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"drift_go/internal/domain"
)

// marketRow mirrors the protocol-published market table entry.
type marketRow struct {
	Symbol    string `json:"symbol"`
	Kind      string `json:"kind"` // "SPOT" | "PERP"
	Index     uint16 `json:"index"`
	Precision int32  `json:"precision"`
}

// MetadataClient fetches the static market table at startup. The table
// is a snapshot; it is never refreshed mid-session.
type MetadataClient struct {
	http   *resty.Client
	url    string
	logger *slog.Logger
}

// NewMetadataClient creates a metadata client for the given URL.
func NewMetadataClient(url string) *MetadataClient {
	return &MetadataClient{
		http: resty.New().
			SetTimeout(10 * time.Second).
			SetRetryCount(3).
			SetRetryWaitTime(1 * time.Second),
		url:    url,
		logger: slog.Default().With("module", "metadata"),
	}
}

// FetchMarkets downloads and parses the market table.
func (c *MetadataClient) FetchMarkets(ctx context.Context) ([]domain.Market, error) {
	resp, err := c.http.R().SetContext(ctx).Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("fetch market metadata: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch market metadata: status %d", resp.StatusCode())
	}

	var rows []marketRow
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, fmt.Errorf("parse market metadata: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("market metadata is empty")
	}

	markets := make([]domain.Market, 0, len(rows))
	for _, r := range rows {
		kind := domain.MarketKind(r.Kind)
		if kind != domain.MarketSpot && kind != domain.MarketPerp {
			c.logger.Warn("skipping market with unknown kind",
				slog.String("symbol", r.Symbol), slog.String("kind", r.Kind))
			continue
		}
		markets = append(markets, domain.Market{
			Symbol:    r.Symbol,
			Kind:      kind,
			Index:     r.Index,
			Precision: r.Precision,
		})
	}
	c.logger.Info("market metadata loaded", slog.Int("markets", len(markets)))
	return markets, nil
}
