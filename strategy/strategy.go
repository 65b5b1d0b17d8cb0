// Package strategy holds the buy-signal generators. Each strategy is
// stateless per call: it pulls fresh market data, decides, and returns.
// Data errors never escape a strategy; they are logged and read as "no buy".
package strategy

import (
	"context"
	"fmt"

	"github.com/evdnx/upbot/config"
	"github.com/evdnx/upbot/exchange"
	"github.com/evdnx/upbot/logger"
)

// Strategy decides whether to enter a position right now.
type Strategy interface {
	Name() string
	ShouldBuy(ctx context.Context, ticker string, currentPrice float64) bool
}

// New builds the strategy selected by the config.
func New(cfg *config.Config, data exchange.MarketData, log logger.Logger) (Strategy, error) {
	switch cfg.Strategy {
	case config.StrategyVolatility:
		return NewVolatility(cfg.Volatility, data, log), nil
	case config.StrategyTrendReversal:
		return NewTrendReversal(cfg.Trend, data, log), nil
	case config.StrategyCombined:
		return NewCombined(cfg.CombineMode,
			NewVolatility(cfg.Volatility, data, log),
			NewTrendReversal(cfg.Trend, data, log)), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", cfg.Strategy)
	}
}
