package exchange

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evdnx/upbot/types"
)

func testClient(handler http.Handler) (*Upbit, *httptest.Server) {
	srv := httptest.NewServer(handler)
	u := NewUpbit("ak", "sk")
	u.baseURL = srv.URL
	return u, srv
}

// Upbit serves candles newest-first; the client must hand them to the
// engine most-recent-last.
func TestUpbitCandlesReversed(t *testing.T) {
	u, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v1/candles/minutes/240") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`[
			{"opening_price":110,"high_price":120,"low_price":100,"trade_price":115,"candle_acc_trade_volume":5,"timestamp":2000},
			{"opening_price":100,"high_price":110,"low_price":90,"trade_price":105,"candle_acc_trade_volume":4,"timestamp":1000}
		]`))
	}))
	defer srv.Close()

	candles, err := u.Candles(context.Background(), "KRW-BTC", types.Interval4h, 2)
	if err != nil {
		t.Fatalf("candles failed: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	if candles[0].Close != 105 || candles[1].Close != 115 {
		t.Fatalf("series not reordered most-recent-last: %+v", candles)
	}
}

func TestUpbitBestAsk(t *testing.T) {
	u, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"orderbook_units":[{"ask_price":51000000},{"ask_price":51100000}]}]`))
	}))
	defer srv.Close()

	ask, err := u.BestAsk(context.Background(), "KRW-BTC")
	if err != nil {
		t.Fatalf("best ask failed: %v", err)
	}
	if ask != 51_000_000 {
		t.Fatalf("ask = %v, want 51000000", ask)
	}
}

func TestUpbitSnapshotParsesBalances(t *testing.T) {
	var auth string
	u, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`[
			{"currency":"KRW","balance":"1500000","avg_buy_price":"0"},
			{"currency":"BTC","balance":"0.5","avg_buy_price":"50000000"}
		]`))
	}))
	defer srv.Close()

	snap, err := u.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if snap["KRW"].Balance != 1_500_000 {
		t.Fatalf("cash = %v", snap["KRW"].Balance)
	}
	if snap["BTC"].AvgBuyPrice != 50_000_000 {
		t.Fatalf("avg = %v", snap["BTC"].AvgBuyPrice)
	}
	if !strings.HasPrefix(auth, "Bearer ") || strings.Count(auth, ".") != 2 {
		t.Fatalf("expected a JWT bearer token, got %q", auth)
	}
}

func TestUpbitErrorMapping(t *testing.T) {
	u, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/accounts":
			w.WriteHeader(http.StatusUnauthorized)
		case r.URL.Path == "/v1/orders":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"name":"insufficient_funds_bid"}}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()
	ctx := context.Background()

	if _, err := u.Snapshot(ctx); !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if _, err := u.MarketBuy(ctx, "KRW-BTC", 10_000); !errors.Is(err, ErrOrderRejected) {
		t.Fatalf("expected ErrOrderRejected, got %v", err)
	}
	if _, err := u.BestAsk(ctx, "KRW-BTC"); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}
