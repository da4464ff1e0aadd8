package quotesheet

import (
	"strings"

	"github.com/guregu/null/v6"
)

// BaseCurrency is the reporting currency every price is converted to.
const BaseCurrency = "EUR"

// Instrument is a row of the instrument table.
//
// ISIN is the only mandatory field. The other fields are either provided by
// the user, or filled in by the Resolver.
type Instrument struct {
	ISIN     string
	Ticker   null.String // canonical quote symbol
	Exchange null.String // exchange code, as reported by the mapping service
	Currency null.String // ISO 4217 code
	Name     null.String
}

// NewInstrument returns an instrument with every optional field set from
// strings, blank strings being null.
func NewInstrument(isin, ticker, exchange, currency, name string) Instrument {
	return Instrument{
		ISIN:     strings.TrimSpace(isin),
		Ticker:   str(ticker),
		Exchange: str(exchange),
		Currency: str(strings.ToUpper(currency)),
		Name:     str(name),
	}
}

// HasTicker reports whether the instrument has a non blank ticker.
func (i Instrument) HasTicker() bool { return i.Ticker.Valid && strings.TrimSpace(i.Ticker.String) != "" }

// str returns a trimmed null.String, null if blank.
func str(s string) null.String {
	s = strings.TrimSpace(s)
	return null.NewString(s, s != "")
}

// fill returns v if it is set, and x otherwise.
func fill(v, x null.String) null.String {
	if v.Valid && v.String != "" {
		return v
	}
	return x
}

// DedupeISIN returns the instruments with blank ISINs removed and only the
// first occurrence of each ISIN kept. It also returns the ISINs that were
// dropped as duplicates, in input order.
func DedupeISIN(rows []Instrument) (unique []Instrument, duplicates []string) {
	seen := make(map[string]struct{}, len(rows))
	unique = make([]Instrument, 0, len(rows))
	for _, r := range rows {
		r.ISIN = strings.TrimSpace(r.ISIN)
		if r.ISIN == "" {
			continue
		}
		if _, ok := seen[r.ISIN]; ok {
			duplicates = append(duplicates, r.ISIN)
			continue
		}
		seen[r.ISIN] = struct{}{}
		unique = append(unique, r)
	}
	return unique, duplicates
}
