// Package workbook stores the instrument and price tables in an xlsx
// workbook.
//
// The instrument table is the "Map" sheet; it must have at least an ISIN
// column. The price table is the "Prices" sheet; it is replaced on every
// save.
package workbook

import (
	"fmt"
	"strings"
	"time"

	"github.com/etnz/quotesheet"
	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Sheet names.
const (
	MapSheet    = "Map"
	PricesSheet = "Prices"
)

// Workbook is an xlsx file used as a quotesheet.Store.
type Workbook struct {
	path string
}

var _ quotesheet.Store = (*Workbook)(nil)

// New returns the store for the xlsx file at path. The file is not read until
// Load.
func New(path string) *Workbook { return &Workbook{path: path} }

// Load reads the instrument table.
//
// Headers are matched case-insensitively; only ISIN is mandatory. Rows with a
// blank ISIN are skipped.
func (w *Workbook) Load() ([]quotesheet.Instrument, error) {
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("cannot open workbook %q: %w", w.path, err)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(MapSheet); idx < 0 {
		return nil, fmt.Errorf("%w: %q sheet not found in %q, it must at least have an ISIN column", quotesheet.ErrNoMapSheet, MapSheet, w.path)
	}
	rows, err := f.GetRows(MapSheet)
	if err != nil {
		return nil, fmt.Errorf("cannot read %q sheet: %w", MapSheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q sheet is empty", quotesheet.ErrNoISINColumn, MapSheet)
	}

	cols := columns(rows[0])
	isinCol, ok := cols["isin"]
	if !ok {
		return nil, fmt.Errorf("%w: %q sheet header is %q", quotesheet.ErrNoISINColumn, MapSheet, rows[0])
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var out []quotesheet.Instrument
	for _, row := range rows[1:] {
		if isinCol >= len(row) || strings.TrimSpace(row[isinCol]) == "" {
			continue
		}
		out = append(out, quotesheet.NewInstrument(
			row[isinCol],
			cell(row, "ticker"),
			cell(row, "exchange"),
			cell(row, "currency"),
			cell(row, "name"),
		))
	}
	return out, nil
}

// columns indexes a header row by lower-cased, trimmed name. The first
// occurrence of a name wins.
func columns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		if _, ok := cols[h]; !ok && h != "" {
			cols[h] = i
		}
	}
	return cols
}

// Save rewrites the instrument table, and replaces the price table unless
// prices is nil. Other sheets are left untouched.
func (w *Workbook) Save(instruments []quotesheet.Instrument, prices []quotesheet.PriceRow) error {
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return fmt.Errorf("cannot open workbook %q: %w", w.path, err)
	}
	defer f.Close()

	rows := make([][]any, 0, len(instruments)+1)
	rows = append(rows, header(quotesheet.InstrumentColumns))
	for _, i := range instruments {
		rows = append(rows, []any{i.ISIN, cellString(i.Ticker), cellString(i.Exchange), cellString(i.Currency), cellString(i.Name)})
	}
	if err := replaceSheet(f, MapSheet, rows); err != nil {
		return err
	}

	if prices != nil {
		rows := make([][]any, 0, len(prices)+1)
		rows = append(rows, header(quotesheet.PriceColumns))
		for _, p := range prices {
			rows = append(rows, []any{
				p.ISIN,
				cellString(p.Ticker),
				p.Currency,
				cellTime(p.LocalTime),
				cellTime(p.UTCTime),
				cellDecimal(p.Local),
				cellDecimal(p.FX),
				cellDecimal(p.EUR),
				p.Source,
			})
		}
		if err := replaceSheet(f, PricesSheet, rows); err != nil {
			return err
		}
	}

	if err := f.Save(); err != nil {
		return fmt.Errorf("cannot write workbook %q: %w", w.path, err)
	}
	return nil
}

// replaceSheet replaces the content of a sheet, creating it if needed.
// An existing sheet is swapped for a fresh one so that no stale cell
// survives.
func replaceSheet(f *excelize.File, name string, rows [][]any) error {
	target := name
	exists := false
	if idx, _ := f.GetSheetIndex(name); idx >= 0 {
		exists = true
		target = name + ".new"
	}
	idx, err := f.NewSheet(target)
	if err != nil {
		return fmt.Errorf("cannot create %q sheet: %w", name, err)
	}
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(target, cell, &row); err != nil {
			return fmt.Errorf("cannot write %q sheet: %w", name, err)
		}
	}
	if exists {
		if err := f.DeleteSheet(name); err != nil {
			return fmt.Errorf("cannot replace %q sheet: %w", name, err)
		}
		if err := f.SetSheetName(target, name); err != nil {
			return fmt.Errorf("cannot replace %q sheet: %w", name, err)
		}
		idx, _ = f.GetSheetIndex(name)
	}
	if name == MapSheet {
		f.SetActiveSheet(idx)
	}
	return nil
}

func header(names []string) []any {
	h := make([]any, len(names))
	for i, n := range names {
		h[i] = n
	}
	return h
}

func cellString(s null.String) any {
	if !s.Valid {
		return nil
	}
	return s.String
}

func cellTime(t null.Time) any {
	if !t.Valid {
		return nil
	}
	return t.Time.Format(time.RFC3339)
}

func cellDecimal(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.InexactFloat64()
}
