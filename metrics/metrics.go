package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	OrdersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upbot_orders_submitted_total",
			Help: "Total number of orders submitted (by side and reason).",
		},
		[]string{"side", "reason"},
	)

	OrdersRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upbot_orders_rejected_total",
			Help: "Total number of orders the exchange declined.",
		},
		[]string{"side"},
	)

	BuySignals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upbot_buy_signals_total",
			Help: "Buy signals fired per strategy.",
		},
		[]string{"strategy"},
	)

	CooldownBlocks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "upbot_cooldown_blocks_total",
			Help: "Buy attempts short-circuited by the re-buy cooldown.",
		},
	)

	DailyTrades = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "upbot_daily_trades",
			Help: "Completed trade iterations on the current date.",
		},
	)

	CashBalance = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "upbot_cash_balance",
			Help: "Cash (KRW) balance at the last snapshot.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		OrdersSubmitted, OrdersRejected, BuySignals, CooldownBlocks,
		DailyTrades, CashBalance,
	)
}
