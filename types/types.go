package types

import "time"

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Interval is a candle resolution in minutes.
type Interval int

const (
	Interval1m  Interval = 1
	Interval15m Interval = 15
	Interval1h  Interval = 60
	Interval4h  Interval = 240
)

// Candle is a single OHLCV bar. Series are ordered most-recent-last;
// the final bar of a series may still be forming.
type Candle struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// Range returns the high-low spread of the bar.
func (c Candle) Range() float64 { return c.High - c.Low }

type Order struct {
	Ticker string
	Side   Side
	// Qty is the asset quantity for sells; Notional is the cash amount
	// for market buys. Exactly one of the two is set.
	Qty      float64
	Notional float64
	Comment  string
}

// OrderReceipt is the exchange acknowledgement of a submitted order.
type OrderReceipt struct {
	UUID      string
	Ticker    string
	Side      Side
	CreatedAt time.Time
}

// Position is one currency's slice of the account snapshot.
// AvgBuyPrice == 0 means the exchange has no cost basis recorded.
type Position struct {
	Balance     float64
	AvgBuyPrice float64
}
