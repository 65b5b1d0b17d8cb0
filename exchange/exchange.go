// Package exchange is the boundary to the trading venue: market data in,
// orders out. The engine only ever talks to the interfaces defined here.
package exchange

import (
	"context"
	"errors"

	"github.com/evdnx/upbot/types"
)

// Error taxonomy the core reacts to. Everything recoverable degrades to
// "no action for this asset this tick"; only ErrAuth is fatal.
var (
	// ErrDataUnavailable covers network, rate-limit and parse failures on
	// market-data or balance reads.
	ErrDataUnavailable = errors.New("exchange: data unavailable")

	// ErrAuth means the credentials were rejected; the loop must stop.
	ErrAuth = errors.New("exchange: authentication failed")

	// ErrOrderRejected means the venue declined the order.
	ErrOrderRejected = errors.New("exchange: order rejected")
)

// MarketData is the read-only slice of the exchange that strategies need.
type MarketData interface {
	// Candles returns up to count OHLCV bars for ticker at the given
	// resolution, ordered most-recent-last. The last bar may still be
	// forming.
	Candles(ctx context.Context, ticker string, interval types.Interval, count int) ([]types.Candle, error)

	// BestAsk returns the lowest ask currently on the book.
	BestAsk(ctx context.Context, ticker string) (float64, error)
}

// Exchange adds account state and order submission on top of MarketData.
// Market orders cannot be withdrawn once submitted.
type Exchange interface {
	MarketData

	// Snapshot returns every non-zero position keyed by currency code
	// ("KRW", "BTC", ...).
	Snapshot(ctx context.Context) (map[string]types.Position, error)

	// MarketBuy spends notional units of cash on ticker at market.
	MarketBuy(ctx context.Context, ticker string, notional float64) (types.OrderReceipt, error)

	// MarketSell sells qty units of the asset at market.
	MarketSell(ctx context.Context, ticker string, qty float64) (types.OrderReceipt, error)
}
