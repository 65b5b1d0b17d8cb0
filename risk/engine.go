// Package risk turns a signal plus account state into sized orders,
// guarded by a re-buy cooldown and tiered profit/loss exits. It owns the
// only mutable trading state in the process: the per-ticker cooldown map.
package risk

import (
	"context"
	"time"

	"github.com/evdnx/upbot/account"
	"github.com/evdnx/upbot/config"
	"github.com/evdnx/upbot/exchange"
	"github.com/evdnx/upbot/logger"
	"github.com/evdnx/upbot/metrics"
	"github.com/evdnx/upbot/strategy"
)

// BuyOutcome reports how a buy evaluation ended.
type BuyOutcome string

const (
	BuySkipped           BuyOutcome = "skipped"
	BuyCooldownBlocked   BuyOutcome = "cooldown_blocked"
	BuyInsufficientFunds BuyOutcome = "insufficient_funds"
	BuySubmitted         BuyOutcome = "submitted"
	BuyRejected          BuyOutcome = "rejected"
)

// SellOutcome reports which exit tier, if any, fired.
type SellOutcome string

const (
	SellExcluded    SellOutcome = "excluded"
	SellNoCostBasis SellOutcome = "no_cost_basis"
	SellProfitTaken SellOutcome = "profit_taken"
	SellStoppedOut  SellOutcome = "stopped_out"
	SellPartialStop SellOutcome = "partial_stop"
	SellHeld        SellOutcome = "held"
)

// CooldownWindow is the minimum gap between buys of the same ticker.
const CooldownWindow = time.Hour

// Engine evaluates one asset at a time; it is not safe for concurrent use.
// The loop is strictly sequential, so the cooldown map needs no lock.
type Engine struct {
	ex       exchange.Exchange
	log      logger.Logger
	settings config.TradeSettings
	policy   config.InvestmentPolicy

	lastBuy map[string]time.Time
	now     func() time.Time
}

func NewEngine(ex exchange.Exchange, settings config.TradeSettings,
	policy config.InvestmentPolicy, log logger.Logger) *Engine {

	return &Engine{
		ex:       ex,
		log:      log,
		settings: settings,
		policy:   policy,
		lastBuy:  make(map[string]time.Time),
		now:      time.Now,
	}
}

// ExecuteBuy runs the buy path for one ticker: cooldown gate, signal gate,
// sizing, funds check, fee haircut, submission. A failed submission is
// logged and left for the next tick; no retry, and no cooldown recorded.
func (e *Engine) ExecuteBuy(ctx context.Context, ticker string, currentPrice float64,
	snap account.Snapshot, strat strategy.Strategy) BuyOutcome {

	now := e.now()
	if last, ok := e.lastBuy[ticker]; ok && now.Sub(last) < CooldownWindow {
		e.log.Info("buy_cooldown_blocked",
			logger.String("ticker", ticker),
			logger.Duration("since_last", now.Sub(last)),
		)
		metrics.CooldownBlocks.Inc()
		return BuyCooldownBlocked
	}

	if !strat.ShouldBuy(ctx, ticker, currentPrice) {
		return BuySkipped
	}
	metrics.BuySignals.WithLabelValues(strat.Name()).Inc()

	cash := snap.Cash()
	amount := account.InvestAmount(cash, e.policy)
	if cash <= amount || cash < e.settings.MinCashBalance {
		e.log.Info("buy_insufficient_funds",
			logger.String("ticker", ticker),
			logger.Float64("cash", cash),
			logger.Float64("amount", amount),
		)
		return BuyInsufficientFunds
	}

	// Haircut so taker fees cannot push the order past the balance.
	amount *= 1 - e.policy.FeeHaircut

	receipt, err := e.ex.MarketBuy(ctx, ticker, amount)
	if err != nil {
		e.log.Error("buy_failed",
			logger.String("ticker", ticker),
			logger.Float64("amount", amount),
			logger.Err(err),
		)
		metrics.OrdersRejected.WithLabelValues("BUY").Inc()
		return BuyRejected
	}
	e.lastBuy[ticker] = now

	e.log.Info("buy_submitted",
		logger.String("ticker", ticker),
		logger.String("order", receipt.UUID),
		logger.Float64("price", currentPrice),
		logger.Float64("amount", amount),
		logger.Float64("asset_share", amount/e.policy.TotalAssets*100),
		logger.String("strategy", strat.Name()),
	)
	metrics.OrdersSubmitted.WithLabelValues("BUY", "entry").Inc()
	return BuySubmitted
}

// ExecuteSell walks the exit ladder for one asset. Tiers are evaluated in
// priority order and the first match wins: take-profit, full stop-loss,
// partial stop-loss, otherwise hold. Each tier requires both the
// percentage move and an absolute cash impact worth acting on.
func (e *Engine) ExecuteSell(ctx context.Context, asset string, cfg config.AssetConfig,
	snap account.Snapshot, currentPrice float64) SellOutcome {

	balance := snap.Balance(asset)
	if balance <= cfg.MinUnit {
		return SellExcluded
	}
	avgPrice := snap.AvgBuyPrice(asset)
	if avgPrice == 0 {
		e.log.Info("sell_no_cost_basis", logger.String("ticker", cfg.Ticker))
		return SellNoCostBasis
	}

	profitPct := (currentPrice - avgPrice) / avgPrice * 100
	profitAbs := (currentPrice - avgPrice) * balance

	switch {
	case profitPct >= cfg.TakeProfitPct:
		if profitAbs < e.settings.MinProfitAbsolute {
			e.log.Info("take_profit_below_min_absolute",
				logger.String("ticker", cfg.Ticker),
				logger.Float64("profit_abs", profitAbs),
			)
			return SellHeld
		}
		qty := balance * cfg.ProfitSellFraction
		if qty < cfg.MinUnit {
			e.log.Info("take_profit_qty_too_small",
				logger.String("ticker", cfg.Ticker),
				logger.Float64("qty", qty),
			)
			return SellHeld
		}
		if !e.sell(ctx, cfg.Ticker, qty, "take_profit", profitPct, profitAbs) {
			return SellHeld
		}
		return SellProfitTaken

	case profitPct <= cfg.StopLossPct && -profitAbs >= e.settings.MinLossAbsolute:
		if !e.sell(ctx, cfg.Ticker, balance, "stop_loss", profitPct, profitAbs) {
			return SellHeld
		}
		return SellStoppedOut

	case profitPct <= cfg.PartialStopPct && -profitAbs >= e.settings.MinLossAbsolute:
		qty := balance * cfg.PartialSellFrac
		if qty < cfg.MinUnit {
			e.log.Info("partial_stop_qty_too_small",
				logger.String("ticker", cfg.Ticker),
				logger.Float64("qty", qty),
			)
			return SellHeld
		}
		if !e.sell(ctx, cfg.Ticker, qty, "partial_stop", profitPct, profitAbs) {
			return SellHeld
		}
		return SellPartialStop
	}
	return SellHeld
}

func (e *Engine) sell(ctx context.Context, ticker string, qty float64,
	reason string, profitPct, profitAbs float64) bool {

	receipt, err := e.ex.MarketSell(ctx, ticker, qty)
	if err != nil {
		e.log.Error("sell_failed",
			logger.String("ticker", ticker),
			logger.String("reason", reason),
			logger.Float64("qty", qty),
			logger.Err(err),
		)
		metrics.OrdersRejected.WithLabelValues("SELL").Inc()
		return false
	}
	e.log.Info("sell_submitted",
		logger.String("ticker", ticker),
		logger.String("order", receipt.UUID),
		logger.String("reason", reason),
		logger.Float64("qty", qty),
		logger.Float64("profit_pct", profitPct),
		logger.Float64("profit_abs", profitAbs),
	)
	metrics.OrdersSubmitted.WithLabelValues("SELL", reason).Inc()
	return true
}

// LastBuy exposes the cooldown entry for a ticker, mainly for the status
// report and tests.
func (e *Engine) LastBuy(ticker string) (time.Time, bool) {
	t, ok := e.lastBuy[ticker]
	return t, ok
}
