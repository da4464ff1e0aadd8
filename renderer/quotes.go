package renderer

import (
	"bytes"
	"slices"

	"github.com/etnz/quotesheet"
	md "github.com/nao1215/markdown"
)

// Quotes renders price records, sorted by symbol.
func Quotes(records map[string]quotesheet.PriceRecord) string {
	symbols := make([]string, 0, len(records))
	for s := range records {
		symbols = append(symbols, s)
	}
	slices.Sort(symbols)

	rows := make([][]string, 0, len(symbols))
	for _, s := range symbols {
		r := records[s]
		price := "-"
		if r.Price.Valid {
			price = r.Price.Decimal.String()
		}
		rows = append(rows, []string{s, price, Timestamp(r.Local), Timestamp(r.UTC), dash(r.Source), r.Status.String()})
	}

	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.Table(md.TableSet{
		Header: []string{"Symbol", "Price", "Local", "UTC", "Source", "Status"},
		Rows:   rows,
	})
	return doc.String()
}

// FX renders an FX table, sorted by currency.
func FX(table quotesheet.FXTable) string {
	currencies := make([]string, 0, len(table))
	for c := range table {
		currencies = append(currencies, c)
	}
	slices.Sort(currencies)

	rows := make([][]string, 0, len(currencies))
	for _, c := range currencies {
		f := table.Factor(c)
		factor := "-"
		if f.Valid {
			factor = f.Decimal.StringFixed(6)
		}
		pair := "-"
		if c != quotesheet.BaseCurrency {
			pair = quotesheet.PairSymbol(c)
		}
		rows = append(rows, []string{c, pair, factor})
	}

	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.Table(md.TableSet{
		Header: []string{"Currency", "Pair", "To " + quotesheet.BaseCurrency},
		Rows:   rows,
	})
	return doc.String()
}
