// Package renderer renders quotesheet results as markdown.
package renderer

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/etnz/quotesheet"
	"github.com/guregu/null/v6"
	md "github.com/nao1215/markdown"
	"github.com/shopspring/decimal"
)

// Summary renders the outcome of an update.
func Summary(r *quotesheet.Report) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Prices on %s", r.At.Format(time.RFC3339)))
	doc.PlainText(fmt.Sprintf("Profile %s, eur-only %t.", r.Options.Profile, r.Options.EUROnly))

	total := decimal.Zero
	for _, p := range r.Prices {
		if p.EUR.Valid {
			total = total.Add(p.EUR.Decimal)
		}
	}

	doc.H2("Overview")
	doc.Table(md.TableSet{
		Header: []string{"Instruments", "Priced in EUR", "Unresolved", "Unpriced", "Sum of last closes"},
		Rows: [][]string{{
			fmt.Sprint(len(r.Prices)),
			fmt.Sprint(r.Priced()),
			fmt.Sprint(len(r.Unresolved)),
			fmt.Sprint(len(r.Unpriced)),
			Money(total, quotesheet.BaseCurrency),
		}},
	})

	doc.H2("Prices")
	rows := make([][]string, 0, len(r.Prices))
	for _, p := range r.Prices {
		rows = append(rows, []string{
			p.ISIN,
			orDash(p.Ticker),
			Amount(p.Local, p.Currency),
			Amount(p.EUR, quotesheet.BaseCurrency),
			Timestamp(p.UTCTime),
			dash(p.Source),
		})
	}
	doc.Table(md.TableSet{
		Header: []string{"ISIN", "Ticker", "Last Close", "Last Close (EUR)", "UTC", "Source"},
		Rows:   rows,
	})

	if gaps := gapList(r); len(gaps) > 0 {
		doc.H2("Gaps")
		doc.BulletList(gaps...)
	}
	return doc.String()
}

func gapList(r *quotesheet.Report) []string {
	var gaps []string
	for _, isin := range r.Duplicates {
		gaps = append(gaps, fmt.Sprintf("%s listed more than once, priced from its first row", isin))
	}
	for _, isin := range r.Malformed {
		gaps = append(gaps, fmt.Sprintf("%s is not a valid ISIN", isin))
	}
	for _, isin := range r.Unresolved {
		gaps = append(gaps, fmt.Sprintf("%s has no ticker", isin))
	}
	for _, isin := range r.Unpriced {
		gaps = append(gaps, fmt.Sprintf("%s has no price", isin))
	}
	if len(r.NoFX) > 0 {
		gaps = append(gaps, fmt.Sprintf("no FX rate for %s", strings.Join(r.NoFX, ", ")))
	}
	return gaps
}

// Money formats an amount with its currency's symbol and fraction digits.
// Amounts in unknown currencies are printed with their code.
func Money(d decimal.Decimal, currency string) string {
	if money.GetCurrency(currency) == nil {
		return d.StringFixed(2) + " " + currency
	}
	return money.NewFromFloat(d.InexactFloat64(), currency).Display()
}

// Amount is like Money but prints a dash for null amounts.
func Amount(d decimal.NullDecimal, currency string) string {
	if !d.Valid {
		return "-"
	}
	return Money(d.Decimal, currency)
}

// Timestamp formats a nullable time in RFC 3339.
func Timestamp(t null.Time) string {
	if !t.Valid {
		return "-"
	}
	return t.Time.Format(time.RFC3339)
}

func orDash(s null.String) string { return dash(s.String) }

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
