package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/evdnx/upbot/exchange"
	"github.com/evdnx/upbot/types"
)

// MockExchange implements exchange.Exchange in-memory: candle series and
// ask prices are scripted per ticker, orders are recorded for assertions,
// and any call can be forced to fail.
type MockExchange struct {
	mu       sync.RWMutex
	candles  map[string][]types.Candle
	asks     map[string]float64
	snapshot map[string]types.Position
	orders   []types.Order

	CandleErr   error
	AskErr      error
	SnapshotErr error
	OrderErr    error
}

func NewMockExchange() *MockExchange {
	return &MockExchange{
		candles:  make(map[string][]types.Candle),
		asks:     make(map[string]float64),
		snapshot: make(map[string]types.Position),
	}
}

func seriesKey(ticker string, interval types.Interval) string {
	return fmt.Sprintf("%s@%d", ticker, interval)
}

// SetCandles scripts the series returned for ticker at interval,
// most-recent-last.
func (m *MockExchange) SetCandles(ticker string, interval types.Interval, candles []types.Candle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candles[seriesKey(ticker, interval)] = candles
}

func (m *MockExchange) SetAsk(ticker string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.asks[ticker] = price
}

func (m *MockExchange) SetPosition(currency string, balance, avgPrice float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot[currency] = types.Position{Balance: balance, AvgBuyPrice: avgPrice}
}

func (m *MockExchange) Candles(_ context.Context, ticker string, interval types.Interval, count int) ([]types.Candle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.CandleErr != nil {
		return nil, m.CandleErr
	}
	series, ok := m.candles[seriesKey(ticker, interval)]
	if !ok {
		return nil, fmt.Errorf("%w: no series for %s", exchange.ErrDataUnavailable, ticker)
	}
	if count < len(series) {
		series = series[len(series)-count:]
	}
	out := make([]types.Candle, len(series))
	copy(out, series)
	return out, nil
}

func (m *MockExchange) BestAsk(_ context.Context, ticker string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.AskErr != nil {
		return 0, m.AskErr
	}
	ask, ok := m.asks[ticker]
	if !ok {
		return 0, fmt.Errorf("%w: no ask for %s", exchange.ErrDataUnavailable, ticker)
	}
	return ask, nil
}

func (m *MockExchange) Snapshot(_ context.Context) (map[string]types.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.SnapshotErr != nil {
		return nil, m.SnapshotErr
	}
	snap := make(map[string]types.Position, len(m.snapshot))
	for cur, pos := range m.snapshot {
		snap[cur] = pos
	}
	return snap, nil
}

func (m *MockExchange) MarketBuy(_ context.Context, ticker string, notional float64) (types.OrderReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.OrderErr != nil {
		return types.OrderReceipt{}, m.OrderErr
	}
	m.orders = append(m.orders, types.Order{Ticker: ticker, Side: types.Buy, Notional: notional})
	return types.OrderReceipt{UUID: fmt.Sprintf("mock-%d", len(m.orders)), Ticker: ticker, Side: types.Buy}, nil
}

func (m *MockExchange) MarketSell(_ context.Context, ticker string, qty float64) (types.OrderReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.OrderErr != nil {
		return types.OrderReceipt{}, m.OrderErr
	}
	m.orders = append(m.orders, types.Order{Ticker: ticker, Side: types.Sell, Qty: qty})
	return types.OrderReceipt{UUID: fmt.Sprintf("mock-%d", len(m.orders)), Ticker: ticker, Side: types.Sell}, nil
}

// Orders returns a copy of every submitted order.
func (m *MockExchange) Orders() []types.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Order, len(m.orders))
	copy(out, m.orders)
	return out
}
