package strategy

import (
	"context"

	"github.com/evdnx/upbot/config"
)

// Combined merges the breakout and reversal signals with a fixed boolean
// combinator chosen at deployment time.
type Combined struct {
	mode config.CombineMode
	a, b Strategy
}

func NewCombined(mode config.CombineMode, a, b Strategy) *Combined {
	return &Combined{mode: mode, a: a, b: b}
}

func (c *Combined) Name() string { return "combined_" + string(c.mode) }

func (c *Combined) ShouldBuy(ctx context.Context, ticker string, currentPrice float64) bool {
	if c.mode == config.CombineAnd {
		return c.a.ShouldBuy(ctx, ticker, currentPrice) && c.b.ShouldBuy(ctx, ticker, currentPrice)
	}
	return c.a.ShouldBuy(ctx, ticker, currentPrice) || c.b.ShouldBuy(ctx, ticker, currentPrice)
}
