// Package bot drives the outer poll loop: one sequential pass over the
// configured assets per trading window, gated by a daily trade cap.
// Everything recoverable degrades to "skip this asset this tick"; only an
// authentication failure stops the loop.
package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/evdnx/upbot/account"
	"github.com/evdnx/upbot/config"
	"github.com/evdnx/upbot/exchange"
	"github.com/evdnx/upbot/logger"
	"github.com/evdnx/upbot/metrics"
	"github.com/evdnx/upbot/risk"
	"github.com/evdnx/upbot/strategy"
)

type Bot struct {
	cfg    *config.Config
	ex     exchange.Exchange
	engine *risk.Engine
	strat  strategy.Strategy
	log    logger.Logger

	window   WindowFunc
	counters DailyCounters
	now      func() time.Time
	pace     time.Duration // delay between asset evaluations
}

func New(cfg *config.Config, ex exchange.Exchange, engine *risk.Engine,
	strat strategy.Strategy, log logger.Logger) *Bot {

	return &Bot{
		cfg:    cfg,
		ex:     ex,
		engine: engine,
		strat:  strat,
		log:    log,
		window: WindowFromConfig(cfg.Window),
		now:    time.Now,
		pace:   time.Second,
	}
}

// Run blocks until ctx is cancelled or the exchange rejects our
// credentials. One full asset pass completes before each sleep.
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info("bot_started", logger.String("strategy", b.strat.Name()))
	if err := b.HealthCheck(ctx); err != nil {
		return err
	}

	interval := time.Duration(b.cfg.Trade.TradeIntervalSeconds) * time.Second
	for {
		if err := b.iterate(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			b.log.Info("bot_stopped")
			return nil
		case <-time.After(interval):
		}
	}
}

// HealthCheck verifies credentials, exchange reachability and a workable
// cash balance before the first tick.
func (b *Bot) HealthCheck(ctx context.Context) error {
	snap, err := b.ex.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("startup snapshot: %w", err)
	}
	cash := account.Snapshot(snap).Cash()
	if cash < b.cfg.Trade.MinCashBalance {
		b.log.Warn("low_cash_balance", logger.Float64("cash", cash))
	}
	if _, err := b.ex.BestAsk(ctx, "KRW-BTC"); err != nil {
		return fmt.Errorf("startup price check: %w", err)
	}
	return nil
}

// iterate is one wake-up of the loop. A panic anywhere inside is logged
// and swallowed so the process keeps running; only ErrAuth propagates.
func (b *Bot) iterate(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("tick_panic", logger.String("panic", fmt.Sprint(r)))
			err = nil
		}
	}()

	now := b.now()
	b.counters.Roll(now)
	metrics.DailyTrades.Set(float64(b.counters.Count))

	if b.counters.Reached(b.cfg.Trade.MaxDailyTrades) {
		b.log.Info("daily_trade_limit_reached", logger.Int("count", b.counters.Count))
		return nil
	}
	if !b.window(now) {
		return nil
	}

	if err := b.runPass(ctx); err != nil {
		return err
	}
	// One increment per completed asset pass, not per order.
	b.counters.Count++
	metrics.DailyTrades.Set(float64(b.counters.Count))
	b.logPortfolio(ctx)
	return nil
}

// runPass evaluates every configured asset once, buy then sell, in a
// stable deterministic order with a short delay between assets to respect
// exchange rate limits.
func (b *Bot) runPass(ctx context.Context) error {
	for _, code := range b.cfg.AssetCodes() {
		asset := b.cfg.Assets[code]

		price, err := b.ex.BestAsk(ctx, asset.Ticker)
		if err != nil {
			b.log.Error("price_unavailable",
				logger.String("ticker", asset.Ticker),
				logger.Err(err),
			)
			continue
		}
		raw, err := b.ex.Snapshot(ctx)
		if err != nil {
			if errors.Is(err, exchange.ErrAuth) {
				return fmt.Errorf("account snapshot: %w", err)
			}
			b.log.Error("snapshot_unavailable",
				logger.String("ticker", asset.Ticker),
				logger.Err(err),
			)
			continue
		}
		snap := account.Snapshot(raw)
		metrics.CashBalance.Set(snap.Cash())

		b.engine.ExecuteBuy(ctx, asset.Ticker, price, snap, b.strat)
		b.engine.ExecuteSell(ctx, code, asset, snap, price)

		if b.pace > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(b.pace):
			}
		}
	}
	return nil
}

// logPortfolio writes one status line per held asset plus a total, so the
// structured log doubles as the only reporting surface.
func (b *Bot) logPortfolio(ctx context.Context) {
	raw, err := b.ex.Snapshot(ctx)
	if err != nil {
		b.log.Error("portfolio_snapshot_failed", logger.Err(err))
		return
	}
	snap := account.Snapshot(raw)

	total := snap.Cash()
	for _, code := range b.cfg.AssetCodes() {
		asset := b.cfg.Assets[code]
		balance := snap.Balance(code)
		if balance <= 0 {
			continue
		}
		price, err := b.ex.BestAsk(ctx, asset.Ticker)
		if err != nil {
			continue
		}
		value := balance * price
		total += value

		fields := []logger.Field{
			logger.String("asset", code),
			logger.Float64("balance", balance),
			logger.Float64("price", price),
			logger.Float64("value", value),
		}
		if avg := snap.AvgBuyPrice(code); avg > 0 {
			fields = append(fields, logger.Float64("avg_buy_price", avg),
				logger.Float64("profit_pct", (price-avg)/avg*100))
		}
		b.log.Info("holding", fields...)
	}
	b.log.Info("portfolio_total",
		logger.Float64("total_value", total),
		logger.Float64("cash", snap.Cash()),
	)
}
