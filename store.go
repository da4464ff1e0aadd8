package quotesheet

import (
	"errors"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// Configuration errors reported by stores. They are fatal: nothing is
// written when they occur.
var (
	ErrNoMapSheet   = errors.New("instrument table not found")
	ErrNoISINColumn = errors.New("instrument table must contain an ISIN column")
)

// Store persists the instrument table and the price table.
type Store interface {
	// Load returns the rows of the instrument table in table order.
	Load() ([]Instrument, error)
	// Save rewrites the instrument table, and replaces the price table unless
	// prices is nil.
	Save(instruments []Instrument, prices []PriceRow) error
}

// PriceRow is a row of the price table.
type PriceRow struct {
	ISIN      string
	Ticker    null.String
	Currency  string
	LocalTime null.Time // Last Timestamp (Local)
	UTCTime   null.Time // Last Timestamp (UTC)
	Local     decimal.NullDecimal // Last Close (Local)
	FX        decimal.NullDecimal // FX to EUR
	EUR       decimal.NullDecimal // Last Close (EUR)
	Source    string
}

// PriceColumns are the headers of the price table.
var PriceColumns = []string{
	"ISIN",
	"Ticker",
	"Currency",
	"Last Timestamp (Local)",
	"Last Timestamp (UTC)",
	"Last Close (Local)",
	"FX to EUR",
	"Last Close (EUR)",
	"Source",
}

// InstrumentColumns are the headers of the instrument table.
var InstrumentColumns = []string{"ISIN", "Ticker", "Exchange", "Currency", "Name"}
