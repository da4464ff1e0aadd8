package quotesheet

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// MarketData is a market data provider.
//
//go:generate mockgen -package=quotesheet -destination=mock_market_test.go -source=market.go MarketData
type MarketData interface {
	// Latest returns the latest known quote of a symbol, without requesting
	// a time series.
	Latest(ctx context.Context, symbol string) (Quote, error)
	// History returns the bars of a symbol for a ladder step, oldest first.
	History(ctx context.Context, symbol string, step Step) ([]Bar, error)
}

// Quote is the latest known price of a symbol.
type Quote struct {
	Price       decimal.Decimal
	Time        time.Time // zero if the provider does not report it
	MarketState string    // e.g. REGULAR, PRE, POST, CLOSED; empty if unknown
	Currency    string
}

// Bar is a single bar of a time series. Close is null for bars without trades.
// Time is expressed in the exchange's location.
type Bar struct {
	Time  time.Time
	Close decimal.NullDecimal
}

// LastClose returns the most recent bar with a valid positive close.
func LastClose(bars []Bar) (Bar, bool) {
	for i := len(bars) - 1; i >= 0; i-- {
		if b := bars[i]; b.Close.Valid && b.Close.Decimal.IsPositive() {
			return b, true
		}
	}
	return Bar{}, false
}
