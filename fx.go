package quotesheet

import (
	"context"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var one = decimal.NewFromInt(1)

// FXTable maps a currency code to the factor converting an amount in that
// currency to EUR. A null factor means the rate could not be determined.
type FXTable map[string]decimal.NullDecimal

// Factor returns the factor to convert amounts in ccy to EUR.
// EUR is always 1; unknown currencies are null.
func (t FXTable) Factor(ccy string) decimal.NullDecimal {
	ccy = strings.ToUpper(strings.TrimSpace(ccy))
	if ccy == BaseCurrency {
		return decimal.NewNullDecimal(one)
	}
	f, ok := t[ccy]
	if !ok || !f.Valid || !f.Decimal.IsPositive() {
		return decimal.NullDecimal{}
	}
	return f
}

// PairSymbol returns the quote symbol of the EUR-quoted cross rate of ccy,
// i.e. the price of one EUR in ccy.
func PairSymbol(ccy string) string { return BaseCurrency + ccy + "=X" }

// Normalizer computes FX factors to EUR.
type Normalizer struct {
	Market MarketData
	Logger *zap.Logger
}

// NewNormalizer returns a Normalizer on top of a market data provider.
func NewNormalizer(market MarketData, logger *zap.Logger) *Normalizer {
	return &Normalizer{Market: market, Logger: logger}
}

func (n *Normalizer) logger() *zap.Logger {
	if n.Logger == nil {
		return zap.NewNop()
	}
	return n.Logger
}

// Normalize returns the factor to EUR of every distinct currency.
//
// EUR is 1 without any request. For other currencies, the EUR-quoted pair is
// fetched walking the profile's ladder, and the factor is the reciprocal of
// the first close found. Currencies without a rate are present with a null
// factor.
func (n *Normalizer) Normalize(ctx context.Context, currencies []string, profile Profile) FXTable {
	out := FXTable{BaseCurrency: decimal.NewNullDecimal(one)}
	need := make([]string, 0, len(currencies))
	for _, c := range currencies {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" || c == BaseCurrency {
			continue
		}
		need = append(need, c)
	}
	slices.Sort(need)
	for _, c := range slices.Compact(need) {
		out[c] = n.rate(ctx, c, profile)
	}
	return out
}

func (n *Normalizer) rate(ctx context.Context, ccy string, profile Profile) decimal.NullDecimal {
	pair := PairSymbol(ccy)
	log := n.logger().With(zap.String("currency", ccy), zap.String("pair", pair))
	if !KnownCurrency(ccy) {
		log.Warn("not an ISO 4217 currency code")
	}
	for _, step := range profile.Ladder() {
		bars, err := n.Market.History(ctx, pair, step)
		if err != nil {
			log.Debug("history unavailable", zap.Stringer("step", step), zap.Error(err))
			continue
		}
		bar, ok := LastClose(bars)
		if !ok {
			continue
		}
		log.Debug("rate found", zap.Stringer("step", step), zap.Stringer("close", bar.Close.Decimal))
		return decimal.NewNullDecimal(one.Div(bar.Close.Decimal))
	}
	log.Warn("no FX rate found")
	return decimal.NullDecimal{}
}
