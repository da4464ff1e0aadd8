package quotesheet

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SourceFast is the source reported for prices obtained by the cheap latest
// quote lookup, as opposed to a bar interval.
const SourceFast = "fast"

// Status is the outcome of fetching a single item.
type Status int

const (
	// Priced means a value was found.
	Priced Status = iota
	// Missing means the provider answered, but never with a usable value.
	Missing
	// Failed means every request for that item failed.
	Failed
)

func (s Status) String() string {
	switch s {
	case Priced:
		return "priced"
	case Missing:
		return "missing"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// PriceRecord is the latest price of a symbol.
type PriceRecord struct {
	Symbol string
	Price  decimal.NullDecimal
	Local  null.Time // timestamp in the exchange's location
	UTC    null.Time
	Source string // the bar interval that produced the price, SourceFast, or ""
	Status Status
	// Currency is the quote currency reported by the latest quote lookup,
	// as the provider spells it ("USD", "GBp"). Empty if unknown.
	Currency string
}

func (r *PriceRecord) set(price decimal.Decimal, at time.Time, source string) {
	r.Price = decimal.NewNullDecimal(price)
	r.Local = null.TimeFrom(at)
	r.UTC = null.TimeFrom(at.UTC())
	r.Source = source
	r.Status = Priced
}

// Fetcher fetches the latest price of symbols, escalating through a ladder of
// bar intervals.
type Fetcher struct {
	Market MarketData
	Logger *zap.Logger
	// Now is used to timestamp fast quotes when the provider omits the time.
	Now func() time.Time
}

// NewFetcher returns a Fetcher on top of a market data provider.
func NewFetcher(market MarketData, logger *zap.Logger) *Fetcher {
	return &Fetcher{Market: market, Logger: logger}
}

func (f *Fetcher) logger() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}

func (f *Fetcher) now() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}

// Symbols normalizes a list of symbols: trimmed, blanks removed, deduplicated
// and sorted.
func Symbols(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Fetch returns the latest price of every distinct symbol.
//
// Each symbol is fetched once, whatever the number of times it appears in
// symbols. A symbol that cannot be priced is still present in the result,
// with a null price.
func (f *Fetcher) Fetch(ctx context.Context, symbols []string, profile Profile) map[string]PriceRecord {
	out := make(map[string]PriceRecord)
	for _, s := range Symbols(symbols) {
		out[s] = f.fetch(ctx, s, profile)
	}
	return out
}

// fetch runs the cheap lookup and the escalation ladder for a single symbol.
func (f *Fetcher) fetch(ctx context.Context, symbol string, profile Profile) PriceRecord {
	log := f.logger().With(zap.String("symbol", symbol))
	rec := PriceRecord{Symbol: symbol, Status: Missing}
	calls, failures := 0, 0

	var state string
	calls++
	q, err := f.Market.Latest(ctx, symbol)
	if err != nil {
		failures++
		log.Debug("latest quote unavailable", zap.Error(err))
	} else {
		state = q.MarketState
		rec.Currency = q.Currency
		if q.Price.IsPositive() {
			at := q.Time
			if at.IsZero() {
				at = f.now()
			}
			rec.set(q.Price, at, SourceFast)
		}
	}

	if rec.Status == Priced && profile == Off {
		return rec
	}

	open := profile != Off && MarketMayBeOpen(state)
	for _, step := range profile.Ladder() {
		// Once the fast quote gave a price, intraday bars of a closed market
		// cannot do better than the daily close.
		if rec.Status == Priced && !step.IsDaily() && profile == Normal && !open {
			continue
		}
		calls++
		bars, err := f.Market.History(ctx, symbol, step)
		if err != nil {
			failures++
			log.Debug("history unavailable", zap.Stringer("step", step), zap.Error(err))
			continue
		}
		bar, ok := LastClose(bars)
		if !ok {
			log.Debug("no close in history", zap.Stringer("step", step), zap.Int("bars", len(bars)))
			continue
		}
		rec.set(bar.Close.Decimal, bar.Time, step.Interval)
		return rec
	}

	if rec.Status != Priced && failures == calls {
		rec.Status = Failed
	}
	if rec.Status != Priced {
		log.Info("no price found", zap.Stringer("profile", profile), zap.Stringer("status", rec.Status))
	}
	return rec
}
