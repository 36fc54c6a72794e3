// Package oracle maintains a websocket subscription to the oracle price
// feed and serves the latest observation per market. It is the only
// background component in the process; every trading operation reads
// the cache synchronously.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"drift_go/internal/chain"
	"drift_go/internal/domain"
	"drift_go/internal/infra"
)

const (
	maxRetries   = 10
	readTimeout  = 60 * time.Second
	defaultStale = 30 * time.Second
)

// priceMessage is one feed update.
type priceMessage struct {
	MarketIndex uint16  `json:"market_index"`
	Price       string  `json:"price"`
	Confidence  string  `json:"confidence"`
	TimestampMS int64   `json:"ts"`
}

// Worker holds the feed connection and the latest price per market.
type Worker struct {
	wsURL      string
	indices    []uint16
	staleAfter time.Duration
	metrics    *infra.Metrics

	mu      sync.RWMutex
	latest  map[uint16]chain.OraclePrice
	conn    *websocket.Conn
	writeMu sync.Mutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewWorker creates a feed worker for the given market indices.
func NewWorker(wsURL string, indices []uint16, staleAfterSec int, metrics *infra.Metrics) *Worker {
	stale := defaultStale
	if staleAfterSec > 0 {
		stale = time.Duration(staleAfterSec) * time.Second
	}
	return &Worker{
		wsURL:      wsURL,
		indices:    indices,
		staleAfter: stale,
		metrics:    metrics,
		latest:     make(map[uint16]chain.OraclePrice),
		logger:     slog.Default().With("module", "oracle"),
	}
}

// Connect starts the connection loop in the background.
func (w *Worker) Connect(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.connectionLoop(ctx)
	return nil
}

func (w *Worker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.connect(ctx); err != nil {
			w.logger.Warn("oracle connection failed", slog.Any("error", err), slog.Int("retry", retryCount))
			delay := infra.CalculateBackoff(retryCount)
			retryCount++
			if retryCount > maxRetries {
				retryCount = 0
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		} else {
			retryCount = 0
			w.readLoop(ctx)
		}
	}
}

func (w *Worker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()

	if err := w.subscribe(); err != nil {
		w.closeConnection()
		return err
	}
	if w.metrics != nil {
		w.metrics.SetOracleConnected(true)
	}
	w.logger.Info("oracle connected", slog.Int("markets", len(w.indices)))
	return nil
}

func (w *Worker) subscribe() error {
	msg := map[string]any{
		"op":             "subscribe",
		"channel":        "oracle",
		"market_indices": w.indices,
	}
	b, _ := json.Marshal(msg)
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.conn == nil {
		return fmt.Errorf("no conn")
	}
	return w.conn.WriteMessage(websocket.TextMessage, b)
}

func (w *Worker) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()
		if conn == nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		_, msg, err := conn.ReadMessage()
		if err != nil {
			w.closeConnection()
			return
		}
		w.handleMessage(msg)
	}
}

func (w *Worker) handleMessage(msg []byte) {
	var m priceMessage
	if json.Unmarshal(msg, &m) != nil || m.Price == "" {
		return
	}
	price, err := decimal.NewFromString(m.Price)
	if err != nil || !price.IsPositive() {
		return
	}
	conf, _ := decimal.NewFromString(m.Confidence)

	w.mu.Lock()
	w.latest[m.MarketIndex] = chain.OraclePrice{
		Price:      price,
		Confidence: conf,
		UpdatedAt:  time.UnixMilli(m.TimestampMS),
	}
	w.mu.Unlock()
	if w.metrics != nil {
		w.metrics.RecordOracleUpdate()
	}
}

// GetPrice returns the latest observation for a market. A missing or
// stale entry is an error; the order builder must not size against a
// dead feed.
func (w *Worker) GetPrice(ctx context.Context, marketIndex uint16) (chain.OraclePrice, error) {
	w.mu.RLock()
	p, ok := w.latest[marketIndex]
	w.mu.RUnlock()
	if !ok {
		return chain.OraclePrice{}, domain.NewError(domain.KindValidation, "no oracle price for market index %d", marketIndex)
	}
	if time.Since(p.UpdatedAt) > w.staleAfter {
		return chain.OraclePrice{}, domain.NewError(domain.KindValidation,
			"oracle price for market index %d is stale (age %s)", marketIndex, time.Since(p.UpdatedAt).Truncate(time.Second))
	}
	return p, nil
}

func (w *Worker) closeConnection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	if w.metrics != nil {
		w.metrics.SetOracleConnected(false)
	}
}

// Disconnect stops the worker and closes the connection.
func (w *Worker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
}
