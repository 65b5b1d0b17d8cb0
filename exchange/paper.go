package exchange

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evdnx/upbot/types"
)

// Paper simulates the account side of the exchange with perfect fills and
// no slippage, while delegating market data to a real (or scripted) feed.
// Used for dry runs and tests.
type Paper struct {
	MarketData

	mu        sync.RWMutex
	cash      float64
	positions map[string]types.Position
	orders    []types.Order
}

func NewPaper(data MarketData, startCash float64) *Paper {
	return &Paper{
		MarketData: data,
		cash:       startCash,
		positions:  make(map[string]types.Position),
	}
}

func (p *Paper) Snapshot(_ context.Context) (map[string]types.Position, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	snap := make(map[string]types.Position, len(p.positions)+1)
	snap["KRW"] = types.Position{Balance: p.cash}
	for cur, pos := range p.positions {
		snap[cur] = pos
	}
	return snap, nil
}

func (p *Paper) MarketBuy(ctx context.Context, ticker string, notional float64) (types.OrderReceipt, error) {
	ask, err := p.BestAsk(ctx, ticker)
	if err != nil {
		return types.OrderReceipt{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if notional <= 0 || ask <= 0 {
		return types.OrderReceipt{}, fmt.Errorf("%w: bad notional or price", ErrOrderRejected)
	}
	if notional > p.cash {
		return types.OrderReceipt{}, fmt.Errorf("%w: insufficient cash", ErrOrderRejected)
	}
	qty := notional / ask
	cur := currencyOf(ticker)
	pos := p.positions[cur]
	// Volume-weighted cost basis across fills.
	total := pos.Balance + qty
	pos.AvgBuyPrice = (pos.AvgBuyPrice*pos.Balance + notional) / total
	pos.Balance = total
	p.positions[cur] = pos
	p.cash -= notional
	p.orders = append(p.orders, types.Order{Ticker: ticker, Side: types.Buy, Notional: notional})
	return p.receipt(ticker, types.Buy), nil
}

func (p *Paper) MarketSell(ctx context.Context, ticker string, qty float64) (types.OrderReceipt, error) {
	ask, err := p.BestAsk(ctx, ticker)
	if err != nil {
		return types.OrderReceipt{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	cur := currencyOf(ticker)
	pos := p.positions[cur]
	if qty <= 0 || qty > pos.Balance {
		return types.OrderReceipt{}, fmt.Errorf("%w: bad qty %f (held %f)", ErrOrderRejected, qty, pos.Balance)
	}
	pos.Balance -= qty
	if pos.Balance == 0 {
		delete(p.positions, cur)
	} else {
		p.positions[cur] = pos
	}
	p.cash += qty * ask
	p.orders = append(p.orders, types.Order{Ticker: ticker, Side: types.Sell, Qty: qty})
	return p.receipt(ticker, types.Sell), nil
}

// Orders returns a copy of every fill, for assertions.
func (p *Paper) Orders() []types.Order {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]types.Order, len(p.orders))
	copy(out, p.orders)
	return out
}

func (p *Paper) receipt(ticker string, side types.Side) types.OrderReceipt {
	return types.OrderReceipt{
		UUID:      uuid.NewString(),
		Ticker:    ticker,
		Side:      side,
		CreatedAt: time.Now(),
	}
}

// currencyOf maps "KRW-BTC" to "BTC".
func currencyOf(ticker string) string {
	if i := strings.IndexByte(ticker, '-'); i >= 0 {
		return ticker[i+1:]
	}
	return ticker
}
