package quotesheet

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Options controls an update.
type Options struct {
	// EUROnly treats every instrument as EUR denominated: no FX conversion
	// is attempted and unknown exchanges default to Xetra listings.
	EUROnly bool
	// Profile is the escalation profile for prices and FX rates.
	Profile Profile
}

// Report is the outcome of an update.
type Report struct {
	Instruments []Instrument
	Prices      []PriceRow
	Options     Options
	At          time.Time // completion time

	Duplicates []string // ISINs listed on several rows, priced once
	Malformed  []string // ISINs failing validation, kept as is
	Unresolved []string // ISINs without a ticker
	Unpriced   []string // ISINs with a ticker but no price
	NoFX       []string // currencies without an FX rate
}

// Engine composes the resolver, the price fetcher and the FX normalizer.
type Engine struct {
	Resolver   *Resolver
	Fetcher    *Fetcher
	Normalizer *Normalizer
	Logger     *zap.Logger
}

// NewEngine returns an Engine for a mapping service and a market data
// provider. mapper can be nil.
func NewEngine(mapper Mapper, market MarketData, logger *zap.Logger) *Engine {
	return &Engine{
		Resolver:   NewResolver(mapper, logger),
		Fetcher:    NewFetcher(market, logger),
		Normalizer: NewNormalizer(market, logger),
		Logger:     logger,
	}
}

func (e *Engine) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// load reads the instrument table. Rows are returned as stored, including
// rows repeating an ISIN, since the table is written back. The returned ISINs
// are the distinct ones that fail validation.
func (e *Engine) load(store Store) ([]Instrument, []string, error) {
	rows, err := store.Load()
	if err != nil {
		return nil, nil, err
	}
	var malformed []string
	unique, dups := DedupeISIN(rows)
	for _, isin := range dups {
		e.logger().Warn("duplicate ISIN, priced once", zap.String("isin", isin))
	}
	for _, r := range unique {
		if err := ValidateISIN(r.ISIN); err != nil {
			e.logger().Warn("malformed ISIN kept as is", zap.String("isin", r.ISIN), zap.Error(err))
			malformed = append(malformed, r.ISIN)
		}
	}
	return rows, malformed, nil
}

// Resolve resolves the instrument table and rewrites it, leaving the price
// table untouched.
func (e *Engine) Resolve(ctx context.Context, store Store, eurOnly bool) ([]Instrument, error) {
	rows, _, err := e.load(store)
	if err != nil {
		return nil, err
	}
	rows = e.Resolver.Resolve(ctx, rows, eurOnly)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolution interrupted: %w", err)
	}
	if err := store.Save(rows, nil); err != nil {
		return nil, fmt.Errorf("cannot save instruments: %w", err)
	}
	return rows, nil
}

// Update runs a full update: it resolves instruments, fetches their prices,
// converts them to EUR, and saves both tables.
//
// Every instrument row is written back; the price table has one row per
// distinct ISIN, priced from its first row. Only configuration and storage
// errors are returned; data gaps show up as null fields in the price table.
func (e *Engine) Update(ctx context.Context, store Store, opts Options) (*Report, error) {
	rows, malformed, err := e.load(store)
	if err != nil {
		return nil, err
	}

	rows, defaulted := e.Resolver.resolve(ctx, rows, opts.EUROnly)
	unique, _ := DedupeISIN(rows)

	tickers := make([]string, 0, len(unique))
	for _, r := range unique {
		if r.HasTicker() {
			tickers = append(tickers, r.Ticker.String)
		}
	}
	prices := e.Fetcher.Fetch(ctx, tickers, opts.Profile)

	if !opts.EUROnly {
		e.adoptQuoteCurrencies(rows, defaulted, prices)
	}
	unique, dups := DedupeISIN(rows)

	fx := FXTable{BaseCurrency: decimal.NewNullDecimal(one)}
	if !opts.EUROnly {
		currencies := make([]string, 0, len(unique))
		for _, r := range unique {
			currencies = append(currencies, r.Currency.String)
		}
		fx = e.Normalizer.Normalize(ctx, currencies, opts.Profile)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("update interrupted: %w", err)
	}

	report := &Report{Instruments: rows, Options: opts, Duplicates: dups, Malformed: malformed}
	report.Prices = make([]PriceRow, 0, len(unique))
	for _, r := range unique {
		row := priceRow(r, prices, fx, opts.EUROnly)
		switch {
		case !r.HasTicker():
			report.Unresolved = append(report.Unresolved, r.ISIN)
		case !row.Local.Valid:
			report.Unpriced = append(report.Unpriced, r.ISIN)
		}
		report.Prices = append(report.Prices, row)
	}
	for ccy, f := range fx {
		if !f.Valid {
			report.NoFX = append(report.NoFX, ccy)
		}
	}
	slices.Sort(report.NoFX)

	if err := store.Save(rows, report.Prices); err != nil {
		return nil, fmt.Errorf("cannot save results: %w", err)
	}
	report.At = time.Now().UTC()
	return report, nil
}

// adoptQuoteCurrencies replaces the EUR default of rows that had no currency
// by the currency their quote is denominated in. Minor units such as "GBp"
// are not ISO codes and leave the default in place.
func (e *Engine) adoptQuoteCurrencies(rows []Instrument, defaulted []bool, prices map[string]PriceRecord) {
	for i := range rows {
		if !defaulted[i] || !rows[i].HasTicker() {
			continue
		}
		ccy := prices[rows[i].Ticker.String].Currency
		if ccy == "" || ccy == BaseCurrency {
			continue
		}
		if ccy != strings.ToUpper(ccy) || !KnownCurrency(ccy) {
			e.logger().Debug("quote currency ignored", zap.String("isin", rows[i].ISIN), zap.String("currency", ccy))
			continue
		}
		rows[i].Currency = str(ccy)
	}
}

// priceRow computes the price table row of an instrument.
func priceRow(r Instrument, prices map[string]PriceRecord, fx FXTable, eurOnly bool) PriceRow {
	ccy := r.Currency.String
	if eurOnly || ccy == "" {
		ccy = BaseCurrency
	}
	row := PriceRow{
		ISIN:     r.ISIN,
		Ticker:   r.Ticker,
		Currency: ccy,
		FX:       fx.Factor(ccy),
	}
	if r.HasTicker() {
		if p, ok := prices[r.Ticker.String]; ok {
			row.Local = p.Price
			row.LocalTime = p.Local
			row.UTCTime = p.UTC
			row.Source = p.Source
		}
	}
	if row.Local.Valid && row.FX.Valid {
		row.EUR = decimal.NewNullDecimal(row.Local.Decimal.Mul(row.FX.Decimal))
	}
	return row
}

// Errors returns the data gaps of the report as a joined error, or nil if
// every instrument was priced in EUR.
func (r *Report) Errors() error {
	var errs error
	for _, isin := range r.Malformed {
		errs = errors.Join(errs, ValidateISIN(isin))
	}
	for _, isin := range r.Unresolved {
		errs = errors.Join(errs, fmt.Errorf("%s: no ticker", isin))
	}
	for _, isin := range r.Unpriced {
		errs = errors.Join(errs, fmt.Errorf("%s: no price", isin))
	}
	for _, ccy := range r.NoFX {
		errs = errors.Join(errs, fmt.Errorf("%s: no FX rate to %s", ccy, BaseCurrency))
	}
	return errs
}

// Priced returns the number of rows with a EUR price.
func (r *Report) Priced() int {
	n := 0
	for _, p := range r.Prices {
		if p.EUR.Valid {
			n++
		}
	}
	return n
}
