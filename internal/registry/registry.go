// Package registry resolves symbolic market names ("SOL-PERP",
// "USDC-SPOT") to protocol market entries. The table is a read-only
// snapshot loaded once at startup from protocol-published metadata; it
// is not refreshed mid-session, so newly listed markets require a
// process restart.
package registry

import (
	"strings"

	"drift_go/internal/domain"
)

// Registry is the static market lookup table.
type Registry struct {
	byName  map[string]domain.Market
	byIndex map[key]domain.Market
}

type key struct {
	index uint16
	kind  domain.MarketKind
}

// New builds a registry from a metadata snapshot. Later duplicates of
// the same name win, matching the order the venue publishes.
func New(markets []domain.Market) *Registry {
	r := &Registry{
		byName:  make(map[string]domain.Market, len(markets)),
		byIndex: make(map[key]domain.Market, len(markets)),
	}
	for _, m := range markets {
		r.byName[strings.ToUpper(m.Name())] = m
		r.byIndex[key{m.Index, m.Kind}] = m
	}
	return r
}

// Resolve looks up "<SYMBOL>-<KIND>". Matching is case-insensitive on
// the whole input; the symbol portion is otherwise exact.
func (r *Registry) Resolve(name string) (domain.Market, error) {
	m, ok := r.byName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return domain.Market{}, domain.NewError(domain.KindMarketNotFound, "market %q is not listed", name)
	}
	return m, nil
}

// ResolveIndex looks up a market by index and kind. Used to convert a
// vault's stored underlying market index back to a symbol and precision.
func (r *Registry) ResolveIndex(index uint16, kind domain.MarketKind) (domain.Market, error) {
	m, ok := r.byIndex[key{index, kind}]
	if !ok {
		return domain.Market{}, domain.NewError(domain.KindMarketNotFound, "no %s market at index %d", kind, index)
	}
	return m, nil
}

// Markets returns a copy of the snapshot, for diagnostics.
func (r *Registry) Markets() []domain.Market {
	out := make([]domain.Market, 0, len(r.byName))
	for _, m := range r.byName {
		out = append(out, m)
	}
	return out
}

// Defaults is the embedded market table used when the metadata source is
// unreachable and no cached snapshot exists.
func Defaults() []domain.Market {
	return []domain.Market{
		{Symbol: "USDC", Kind: domain.MarketSpot, Index: 0, Precision: 6},
		{Symbol: "SOL", Kind: domain.MarketSpot, Index: 1, Precision: 9},
		{Symbol: "BTC", Kind: domain.MarketSpot, Index: 3, Precision: 8},
		{Symbol: "ETH", Kind: domain.MarketSpot, Index: 4, Precision: 9},
		{Symbol: "SOL", Kind: domain.MarketPerp, Index: 0, Precision: 9},
		{Symbol: "BTC", Kind: domain.MarketPerp, Index: 1, Precision: 9},
		{Symbol: "ETH", Kind: domain.MarketPerp, Index: 2, Precision: 9},
	}
}
