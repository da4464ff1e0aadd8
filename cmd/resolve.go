package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/quotesheet/workbook"
	"github.com/google/subcommands"
)

type resolveCmd struct {
	eurOnly bool
}

func (*resolveCmd) Name() string     { return "resolve" }
func (*resolveCmd) Synopsis() string { return "resolve the tickers of a workbook without fetching prices" }
func (*resolveCmd) Usage() string {
	return `qs resolve [-eur-only] <file.xlsx>

Fills in the Ticker, Exchange, Currency and Name of the 'Map' sheet using
OpenFIGI. Tickers already present are left untouched. The 'Prices' sheet is
not modified.
`
}

func (c *resolveCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.eurOnly, "eur-only", false, "Treat every instrument as EUR denominated, preferring Xetra listings")
}

func (c *resolveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: resolve requires exactly one workbook file")
		return subcommands.ExitUsageError
	}
	logger := newLogger()
	defer logger.Sync()

	instruments, err := newEngine(logger).Resolve(ctx, workbook.New(f.Arg(0)), c.eurOnly)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	resolved := 0
	for _, i := range instruments {
		if i.HasTicker() {
			resolved++
		}
	}
	fmt.Printf("OK: Updated %s(%d), %d with a ticker\n", workbook.MapSheet, len(instruments), resolved)
	return subcommands.ExitSuccess
}
