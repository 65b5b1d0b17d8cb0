package strategy

import (
	"context"
	"fmt"
	"math"

	"github.com/evdnx/goti"

	"github.com/evdnx/upbot/config"
	"github.com/evdnx/upbot/exchange"
	"github.com/evdnx/upbot/logger"
	"github.com/evdnx/upbot/types"
)

// Dynamic-k bounds: high realized volatility pushes the breakout
// threshold toward the conservative end of the range.
const (
	kFloor = 0.3
	kCeil  = 0.7
)

// Volatility implements the breakout entry: the signal fires when the
// current price clears the previous closed bar's close plus k times its
// range. Only a strict break counts.
type Volatility struct {
	data     exchange.MarketData
	log      logger.Logger
	interval types.Interval
	k        float64
	dynamic  bool
	lookback int
}

func NewVolatility(cfg config.VolatilitySettings, data exchange.MarketData, log logger.Logger) *Volatility {
	return &Volatility{
		data:     data,
		log:      log,
		interval: types.Interval(cfg.IntervalMinutes),
		k:        cfg.K,
		dynamic:  cfg.DynamicK,
		lookback: cfg.DynamicLookback,
	}
}

func (v *Volatility) Name() string { return "volatility" }

func (v *Volatility) ShouldBuy(ctx context.Context, ticker string, currentPrice float64) bool {
	target, err := v.TargetPrice(ctx, ticker)
	if err != nil {
		v.log.Error("target_price_failed",
			logger.String("ticker", ticker),
			logger.Err(err),
		)
		return false
	}
	if currentPrice > target {
		v.log.Info("breakout_signal",
			logger.String("ticker", ticker),
			logger.Float64("price", currentPrice),
			logger.Float64("target", target),
		)
		return true
	}
	return false
}

// TargetPrice computes the breakout threshold from the most recently
// closed bar at the coarse interval. The still-forming bar is never used.
func (v *Volatility) TargetPrice(ctx context.Context, ticker string) (float64, error) {
	count := 2
	if v.dynamic {
		count = v.lookback
	}
	candles, err := v.data.Candles(ctx, ticker, v.interval, count)
	if err != nil {
		return 0, err
	}
	if len(candles) < 2 {
		return 0, fmt.Errorf("need 2 candles, got %d", len(candles))
	}
	closed := candles[:len(candles)-1]
	prev := closed[len(closed)-1]

	k := v.k
	if v.dynamic {
		k = v.dynamicK(closed)
	}
	return prev.Close + prev.Range()*k, nil
}

// dynamicK scales the breakout fraction by an ATR-like volatility measure
// from the indicator suite, volume-weighted by the last closed bar, and
// clamps it into [kFloor, kCeil].
func (v *Volatility) dynamicK(closed []types.Candle) float64 {
	last := closed[len(closed)-1]

	vol := v.suiteVolatility(closed)
	if vol <= 0 {
		vol = trueRangeAvg(closed)
	}
	ratio := 0.0
	if last.Close > 0 {
		ratio = vol / last.Close
	}

	avgVol := 0.0
	for _, c := range closed {
		avgVol += c.Volume
	}
	avgVol /= float64(len(closed))
	weight := 1.0
	if avgVol > 0 {
		weight = clamp(last.Volume/avgVol, 0.5, 1.5)
	}

	return clamp(v.k*weight*(1-ratio*10), kFloor, kCeil)
}

// suiteVolatility feeds the closed bars into a fresh goti suite and reads
// the latest ATSO value. Returns 0 when the suite cannot produce one.
func (v *Volatility) suiteVolatility(closed []types.Candle) float64 {
	suite, err := goti.NewIndicatorSuiteWithConfig(goti.DefaultConfig())
	if err != nil {
		return 0
	}
	for _, c := range closed {
		if err := suite.Add(c.High, c.Low, c.Close, c.Volume); err != nil {
			return 0
		}
	}
	vals := suite.GetATSO().GetATSOValues()
	if len(vals) == 0 {
		return 0
	}
	raw := math.Abs(vals[len(vals)-1])
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0
	}
	return raw
}

func trueRangeAvg(candles []types.Candle) float64 {
	if len(candles) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range candles {
		sum += c.Range()
	}
	return sum / float64(len(candles))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
