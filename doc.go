// Package quotesheet keeps a spreadsheet of securities priced. It is
// designed to run unattended against a workbook the user maintains by hand:
// the user lists ISINs (and optionally tickers, exchanges and currencies), and
// quotesheet fills in everything else.
//
// The core functionalities include:
//   - Symbol Resolution: turning an ISIN and optional user hints into the
//     canonical quote symbol a market data provider understands, through an
//     identifier-mapping service (see package openfigi).
//   - Price Fetching: retrieving the latest trade price of every symbol,
//     degrading through an escalation ladder of coarser and coarser bar
//     intervals until one yields a close (see package yahoo).
//   - FX Normalization: converting every price to EUR through EUR-quoted
//     cross rates.
//   - Persistence: rewriting the instrument table and emitting a flat price
//     table (see package workbook).
//
// Every stage tolerates partial failure: a security that cannot be resolved,
// priced or converted shows up with empty fields in the output, it is never
// dropped.
//
// This package serves as the foundational logic for the `qs` command-line
// tool.
package quotesheet
