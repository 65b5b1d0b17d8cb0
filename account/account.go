// Package account derives a read-only view of holdings from an exchange
// snapshot. The engine never mutates balances locally; orders change them
// asynchronously and the next tick re-reads truth.
package account

import (
	"github.com/evdnx/upbot/config"
	"github.com/evdnx/upbot/types"
)

// Snapshot is one tick's worth of account state keyed by currency code.
type Snapshot map[string]types.Position

// CashCurrency is the quote currency everything is priced in.
const CashCurrency = "KRW"

// Balance returns the held quantity of a currency, zero when absent.
func (s Snapshot) Balance(currency string) float64 {
	return s[currency].Balance
}

// Cash returns the spendable quote-currency balance.
func (s Snapshot) Cash() float64 {
	return s.Balance(CashCurrency)
}

// AvgBuyPrice returns the volume-weighted acquisition price of a currency.
// Zero means the exchange has no cost basis recorded.
func (s Snapshot) AvgBuyPrice(currency string) float64 {
	return s[currency].AvgBuyPrice
}

// InvestAmount sizes a buy: a fixed fraction of free cash, clamped to a
// floor and ceiling expressed as fractions of the total-asset reference.
// The floor keeps orders above exchange minimums, the ceiling bounds
// concentration in a single entry.
func InvestAmount(cash float64, pol config.InvestmentPolicy) float64 {
	amount := cash * pol.PerTradeFraction
	floor := pol.TotalAssets * pol.MinInvestRatio
	ceiling := pol.TotalAssets * pol.MaxInvestRatio
	if amount < floor {
		amount = floor
	}
	if amount > ceiling {
		amount = ceiling
	}
	return amount
}
