// Package cmd implements the qs subcommands.
package cmd

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/quotesheet"
	"github.com/etnz/quotesheet/openfigi"
	"github.com/etnz/quotesheet/yahoo"
	"github.com/google/subcommands"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Register the subcommands.
func Register(c *subcommands.Commander) {
	c.Register(&updateCmd{}, "workbook")
	c.Register(&resolveCmd{}, "workbook")

	c.Register(&quoteCmd{}, "market")
	c.Register(&fxCmd{}, "market")

	c.Register(&topicCmd{}, "help")
}

const openfigiAPIKeyEnv = "OPENFIGI_API_KEY"

var (
	verbose        = flag.Bool("v", false, "Log debug messages")
	openfigiAPIKey = flag.String("openfigi-api-key", "", "OpenFIGI API key. Defaults to the "+openfigiAPIKeyEnv+" environment variable")
	cacheDir       = flag.String("cache-dir", "", "Directory to cache OpenFIGI responses for the day. Empty disables the cache")
)

// apiKey returns the OpenFIGI API key from the flag, or the environment.
func apiKey() string {
	if *openfigiAPIKey == "" {
		*openfigiAPIKey = os.Getenv(openfigiAPIKeyEnv)
	}
	return *openfigiAPIKey
}

// newLogger returns the console logger on stderr.
func newLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if *verbose {
		cfg.Level.SetLevel(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot build logger: %v\n", err)
		return zap.NewNop()
	}
	return logger
}

// newMapper returns the OpenFIGI client, with the disk cache when enabled.
func newMapper(logger *zap.Logger) *openfigi.Client {
	var opts []openfigi.Option
	if *cacheDir != "" {
		opts = append(opts, openfigi.WithTransport(quotesheet.NewDailyCache(*cacheDir, http.DefaultTransport, logger)))
	}
	return openfigi.New(apiKey(), opts...)
}

// newEngine returns an engine wired to OpenFIGI and Yahoo Finance.
func newEngine(logger *zap.Logger) *quotesheet.Engine {
	return quotesheet.NewEngine(newMapper(logger), yahoo.New(), logger)
}

// printMarkdown renders markdown for the terminal, or prints it raw if that
// fails.
func printMarkdown(s string) {
	out, err := glamour.Render(s, "auto")
	if err != nil {
		fmt.Print(s)
		return
	}
	fmt.Print(out)
}
