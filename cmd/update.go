package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/quotesheet"
	"github.com/etnz/quotesheet/renderer"
	"github.com/etnz/quotesheet/workbook"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

type updateCmd struct {
	eurOnly bool
	profile quotesheet.Profile
	summary bool
}

func (*updateCmd) Name() string     { return "update" }
func (*updateCmd) Synopsis() string { return "resolve tickers and refresh the prices of a workbook" }
func (*updateCmd) Usage() string {
	return `qs update [-eur-only] [-intraday off|normal|aggressive] [-summary] <file.xlsx>

Reads the ISINs of the 'Map' sheet, resolves missing tickers with OpenFIGI,
fetches the latest prices and FX rates from Yahoo Finance, and writes the
'Prices' sheet with the last close in local currency and in EUR.
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.eurOnly, "eur-only", false, "Treat every instrument as EUR denominated and skip FX conversion")
	f.Var(&c.profile, "intraday", "Intraday escalation profile: off, normal or aggressive")
	f.BoolVar(&c.summary, "summary", false, "Print a summary of the update")
}

func (c *updateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: update requires exactly one workbook file")
		return subcommands.ExitUsageError
	}
	logger := newLogger()
	defer logger.Sync()

	wb := workbook.New(f.Arg(0))
	engine := newEngine(logger)
	report, err := engine.Update(ctx, wb, quotesheet.Options{EUROnly: c.eurOnly, Profile: c.profile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if gaps := report.Errors(); gaps != nil {
		logger.Warn("incomplete update",
			zap.Int("unresolved", len(report.Unresolved)),
			zap.Int("unpriced", len(report.Unpriced)),
			zap.Strings("no_fx", report.NoFX))
		logger.Debug("gaps", zap.Error(gaps))
	}

	if c.summary {
		printMarkdown(renderer.Summary(report))
	}
	fmt.Printf("OK: Updated %s(%d) and %s(%d) at %s. eur_only=%t\n",
		workbook.MapSheet, len(report.Instruments),
		workbook.PricesSheet, len(report.Prices),
		report.At.Format(time.RFC3339), c.eurOnly)
	return subcommands.ExitSuccess
}
