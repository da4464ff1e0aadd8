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

type fxCmd struct {
	profile quotesheet.Profile
}

func (*fxCmd) Name() string     { return "fx" }
func (*fxCmd) Synopsis() string { return "print the factors converting currencies to EUR" }
func (*fxCmd) Usage() string {
	return `qs fx [-intraday off|normal|aggressive] <currency>...

Prints the factor converting an amount in each currency (e.g. USD, GBP) to EUR.
`
}

func (c *fxCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.profile, "intraday", "Intraday escalation profile: off, normal or aggressive")
}

func (c *fxCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one currency is required")
		return subcommands.ExitUsageError
	}
	logger := newLogger()
	defer logger.Sync()

	table := quotesheet.NewNormalizer(yahoo.New(), logger).Normalize(ctx, f.Args(), c.profile)
	if err := ctx.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.FX(table))
	return subcommands.ExitSuccess
}
