package strategy

import (
	"context"
	"math"

	"github.com/evdnx/upbot/config"
	"github.com/evdnx/upbot/exchange"
	"github.com/evdnx/upbot/logger"
	"github.com/evdnx/upbot/types"
)

// strongTrendBars is the window of synthetic bars that must agree for the
// trend to count as strong.
const strongTrendBars = 3

// HeikinAshiPoint is one synthetic smoothed bar, computed fresh per call
// and never cached across ticks.
type HeikinAshiPoint struct {
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Up       bool
	BodySize float64
}

// HeikinAshi transforms raw candles into the smoothed series:
//
//	haClose[i] = (o+h+l+c)/4
//	haOpen[i]  = (haOpen[i-1] + haClose[i-1]) / 2, seeded from bar 0
//	haHigh[i]  = max(high, haOpen, haClose)
//	haLow[i]   = min(low, haOpen, haClose)
func HeikinAshi(candles []types.Candle) []HeikinAshiPoint {
	out := make([]HeikinAshiPoint, len(candles))
	for i, c := range candles {
		haClose := (c.Open + c.High + c.Low + c.Close) / 4
		var haOpen float64
		if i == 0 {
			haOpen = (c.Open + c.Close) / 2
		} else {
			haOpen = (out[i-1].Open + out[i-1].Close) / 2
		}
		out[i] = HeikinAshiPoint{
			Open:     haOpen,
			High:     math.Max(c.High, math.Max(haOpen, haClose)),
			Low:      math.Min(c.Low, math.Min(haOpen, haClose)),
			Close:    haClose,
			Up:       haClose > haOpen,
			BodySize: math.Abs(haClose - haOpen),
		}
	}
	return out
}

// TrendReversal fires on the start of an upward move: the last
// strongTrendBars synthetic bars are all bullish and the bar just before
// that run was bearish. A continuation without the preceding down bar
// does not signal.
type TrendReversal struct {
	data     exchange.MarketData
	log      logger.Logger
	interval types.Interval
	lookback int
}

func NewTrendReversal(cfg config.TrendSettings, data exchange.MarketData, log logger.Logger) *TrendReversal {
	return &TrendReversal{
		data:     data,
		log:      log,
		interval: types.Interval(cfg.IntervalMinutes),
		lookback: cfg.Lookback,
	}
}

func (t *TrendReversal) Name() string { return "trend_reversal" }

func (t *TrendReversal) ShouldBuy(ctx context.Context, ticker string, _ float64) bool {
	candles, err := t.data.Candles(ctx, ticker, t.interval, t.lookback)
	if err != nil {
		t.log.Error("heikin_ashi_data_failed",
			logger.String("ticker", ticker),
			logger.Err(err),
		)
		return false
	}
	if len(candles) < strongTrendBars+1 {
		return false
	}
	ha := HeikinAshi(candles)
	n := len(ha)

	run := ha[n-strongTrendBars:]
	allUp := true
	for _, p := range run {
		allUp = allUp && p.Up
	}
	before := ha[n-strongTrendBars-1]

	buy := allUp && !before.Up
	if buy {
		t.log.Info("trend_reversal_signal",
			logger.String("ticker", ticker),
			logger.Float64("ha_close", ha[n-1].Close),
			logger.Float64("body_size", ha[n-1].BodySize),
		)
	}
	return buy
}
