package strategy

import (
	"context"
	"testing"

	"github.com/evdnx/upbot/config"
	"github.com/evdnx/upbot/exchange"
	"github.com/evdnx/upbot/testutils"
	"github.com/evdnx/upbot/types"
)

func volCfg() config.VolatilitySettings {
	return config.VolatilitySettings{IntervalMinutes: 240, K: 0.5, DynamicLookback: 20}
}

func buildVolatility(t *testing.T, cfg config.VolatilitySettings) (*Volatility, *testutils.MockExchange, *testutils.MockLogger) {
	t.Helper()
	ex := testutils.NewMockExchange()
	log := testutils.NewMockLogger()
	return NewVolatility(cfg, ex, log), ex, log
}

/*
-----------------------------------------------------------------------
Fixed k: target = prevClosed.Close + (high-low)*k. The still-forming
last bar must not contribute, and only a strict break of the target
fires the signal.
-----------------------------------------------------------------------
*/
func TestVolatility_TargetFromClosedCandle(t *testing.T) {
	v, ex, _ := buildVolatility(t, volCfg())
	ex.SetCandles("KRW-BTC", types.Interval4h, []types.Candle{
		bar(95, 110, 90, 100),     // closed: target = 100 + 20*0.5 = 110
		bar(100, 500, 100, 500),   // forming bar, must be ignored
	})

	target, err := v.TargetPrice(context.Background(), "KRW-BTC")
	if err != nil {
		t.Fatalf("target failed: %v", err)
	}
	if target != 110 {
		t.Fatalf("target = %v, want 110", target)
	}
}

func TestVolatility_StrictBreakOnly(t *testing.T) {
	v, ex, _ := buildVolatility(t, volCfg())
	ex.SetCandles("KRW-BTC", types.Interval4h, []types.Candle{
		bar(95, 110, 90, 100),
		bar(100, 105, 100, 105),
	})

	if v.ShouldBuy(context.Background(), "KRW-BTC", 110) {
		t.Fatal("price equal to target must not buy")
	}
	if !v.ShouldBuy(context.Background(), "KRW-BTC", 110.01) {
		t.Fatal("price above target must buy")
	}
}

func TestVolatility_FailsClosedOnDataError(t *testing.T) {
	v, ex, log := buildVolatility(t, volCfg())
	ex.CandleErr = exchange.ErrDataUnavailable
	if v.ShouldBuy(context.Background(), "KRW-BTC", 1_000_000) {
		t.Fatal("expected no buy on data error")
	}
	if log.LastMessage() != "target_price_failed" {
		t.Fatalf("expected error log, got %q", log.LastMessage())
	}
}

/*
-----------------------------------------------------------------------
Dynamic k: whatever the volatility measure produces, the implied k must
stay inside [0.3, 0.7].
-----------------------------------------------------------------------
*/
func TestVolatility_DynamicKStaysBounded(t *testing.T) {
	cfg := volCfg()
	cfg.DynamicK = true
	v, ex, _ := buildVolatility(t, cfg)

	series := make([]types.Candle, 21)
	for i := range series {
		base := 100 + float64(i)*3
		series[i] = types.Candle{
			Open: base, High: base + 5, Low: base - 5, Close: base + 2,
			Volume: 1000 + float64(i%5)*400,
		}
	}
	ex.SetCandles("KRW-BTC", types.Interval4h, series)

	target, err := v.TargetPrice(context.Background(), "KRW-BTC")
	if err != nil {
		t.Fatalf("target failed: %v", err)
	}
	prev := series[len(series)-2]
	k := (target - prev.Close) / prev.Range()
	if k < kFloor || k > kCeil {
		t.Fatalf("implied k=%v outside [%v,%v]", k, kFloor, kCeil)
	}
}

func TestVolatility_NeedsTwoCandles(t *testing.T) {
	v, ex, _ := buildVolatility(t, volCfg())
	ex.SetCandles("KRW-BTC", types.Interval4h, []types.Candle{bar(95, 110, 90, 100)})
	if _, err := v.TargetPrice(context.Background(), "KRW-BTC"); err == nil {
		t.Fatal("expected error with a single candle")
	}
}
