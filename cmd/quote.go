package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/quotesheet"
	"github.com/etnz/quotesheet/renderer"
	"github.com/etnz/quotesheet/yahoo"
	"github.com/google/subcommands"
)

type quoteCmd struct {
	profile quotesheet.Profile
}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "print the latest price of symbols" }
func (*quoteCmd) Usage() string {
	return `qs quote [-intraday off|normal|aggressive] <symbol>...

Fetches the latest price of each Yahoo Finance symbol (e.g. SAP.DE, AAPL)
and prints where it came from.
`
}

func (c *quoteCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.profile, "intraday", "Intraday escalation profile: off, normal or aggressive")
}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	symbols := quotesheet.Symbols(f.Args())
	if len(symbols) == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one symbol is required")
		return subcommands.ExitUsageError
	}
	logger := newLogger()
	defer logger.Sync()

	records := quotesheet.NewFetcher(yahoo.New(), logger).Fetch(ctx, symbols, c.profile)
	if err := ctx.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.Quotes(records))
	return subcommands.ExitSuccess
}
