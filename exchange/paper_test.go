package exchange

import (
	"context"
	"errors"
	"testing"

	"github.com/evdnx/upbot/types"
)

// fixedFeed serves one ask price for every ticker.
type fixedFeed struct{ ask float64 }

func (f *fixedFeed) Candles(context.Context, string, types.Interval, int) ([]types.Candle, error) {
	return nil, ErrDataUnavailable
}

func (f *fixedFeed) BestAsk(context.Context, string) (float64, error) {
	return f.ask, nil
}

func TestPaper_BuySellRoundTrip(t *testing.T) {
	p := NewPaper(&fixedFeed{ask: 20_000}, 100_000)
	ctx := context.Background()

	if _, err := p.MarketBuy(ctx, "KRW-BTC", 40_000); err != nil {
		t.Fatalf("buy failed: %v", err)
	}
	snap, _ := p.Snapshot(ctx)
	if snap["KRW"].Balance != 60_000 {
		t.Fatalf("cash = %v, want 60000", snap["KRW"].Balance)
	}
	if snap["BTC"].Balance != 2 {
		t.Fatalf("position = %v, want 2", snap["BTC"].Balance)
	}
	if snap["BTC"].AvgBuyPrice != 20_000 {
		t.Fatalf("avg price = %v, want 20000", snap["BTC"].AvgBuyPrice)
	}

	if _, err := p.MarketSell(ctx, "KRW-BTC", 2); err != nil {
		t.Fatalf("sell failed: %v", err)
	}
	snap, _ = p.Snapshot(ctx)
	if snap["KRW"].Balance != 100_000 {
		t.Fatalf("cash after round trip = %v, want 100000", snap["KRW"].Balance)
	}
	if _, held := snap["BTC"]; held {
		t.Fatal("flat position should disappear from the snapshot")
	}
}

// Buying twice at different prices keeps a volume-weighted cost basis.
func TestPaper_AveragesCostBasis(t *testing.T) {
	feed := &fixedFeed{ask: 100}
	p := NewPaper(feed, 100_000)
	ctx := context.Background()

	if _, err := p.MarketBuy(ctx, "KRW-TST", 1_000); err != nil { // 10 units @100
		t.Fatal(err)
	}
	feed.ask = 200
	if _, err := p.MarketBuy(ctx, "KRW-TST", 2_000); err != nil { // 10 units @200
		t.Fatal(err)
	}
	snap, _ := p.Snapshot(ctx)
	if snap["TST"].Balance != 20 {
		t.Fatalf("balance = %v, want 20", snap["TST"].Balance)
	}
	if snap["TST"].AvgBuyPrice != 150 {
		t.Fatalf("avg price = %v, want 150", snap["TST"].AvgBuyPrice)
	}
}

func TestPaper_RejectsOverdraft(t *testing.T) {
	p := NewPaper(&fixedFeed{ask: 100}, 1_000)
	if _, err := p.MarketBuy(context.Background(), "KRW-TST", 2_000); !errors.Is(err, ErrOrderRejected) {
		t.Fatalf("expected ErrOrderRejected, got %v", err)
	}
}

func TestPaper_RejectsOverSell(t *testing.T) {
	p := NewPaper(&fixedFeed{ask: 100}, 10_000)
	if _, err := p.MarketBuy(context.Background(), "KRW-TST", 1_000); err != nil {
		t.Fatal(err)
	}
	if _, err := p.MarketSell(context.Background(), "KRW-TST", 11); !errors.Is(err, ErrOrderRejected) {
		t.Fatalf("expected ErrOrderRejected, got %v", err)
	}
}
