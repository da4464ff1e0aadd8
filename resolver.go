package quotesheet

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultBatchSize is the number of ISINs sent per mapping request.
	DefaultBatchSize = 50
	// DefaultBatchDelay is the delay enforced between two mapping requests.
	DefaultBatchDelay = 300 * time.Millisecond
)

// Candidate is a listing of a security, as returned by the identifier mapping
// service.
type Candidate struct {
	ExchCode      string
	Ticker        string // raw, local ticker
	Name          string
	SecurityType2 string
	MarketSector  string
	Currency      string
}

// Mapper maps ISINs to listing candidates.
type Mapper interface {
	// Enabled reports whether the mapper is configured. A disabled mapper is
	// never called.
	Enabled() bool
	// Map returns the candidates of each ISIN, aligned with isins. Candidates
	// are in the service's order.
	Map(ctx context.Context, isins []string) ([][]Candidate, error)
}

// SelectCandidate returns the candidate listed on the preferred exchange of
// the suffix table, the first one in service order on ties. If no candidate
// is listed on a known exchange, it returns the first candidate. It returns
// false if there are no candidates.
func SelectCandidate(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	best, bestRank := -1, 0
	for i, c := range candidates {
		if r, ok := rank(c.ExchCode); ok && (best < 0 || r < bestRank) {
			best, bestRank = i, r
		}
	}
	if best < 0 {
		return candidates[0], true
	}
	return candidates[best], true
}

// Resolver fills in the quote symbol, exchange, currency and name of
// instruments.
type Resolver struct {
	Mapper    Mapper
	BatchSize int           // DefaultBatchSize if zero
	Delay     time.Duration // minimum delay between two batches
	Logger    *zap.Logger
}

// NewResolver returns a Resolver with default batching.
// The mapper can be nil, in which case only user provided tickers are used.
func NewResolver(mapper Mapper, logger *zap.Logger) *Resolver {
	return &Resolver{Mapper: mapper, BatchSize: DefaultBatchSize, Delay: DefaultBatchDelay, Logger: logger}
}

func (r *Resolver) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r *Resolver) batchSize() int {
	if r.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return r.BatchSize
}

// Resolve returns a copy of rows with Ticker, Exchange, Currency and Name
// populated wherever possible.
//
// A user provided ticker is never replaced. Rows without a ticker are mapped
// in batches; a failed batch leaves its rows unresolved without affecting the
// others. If eurOnly is set, every currency is forced to EUR and unknown
// exchanges default to Xetra listings.
func (r *Resolver) Resolve(ctx context.Context, rows []Instrument, eurOnly bool) []Instrument {
	out, _ := r.resolve(ctx, rows, eurOnly)
	return out
}

// resolve implements Resolve. It also reports, for each row, whether its
// currency is the EUR default rather than one known from the row or its
// listing.
func (r *Resolver) resolve(ctx context.Context, rows []Instrument, eurOnly bool) ([]Instrument, []bool) {
	out := append([]Instrument(nil), rows...)
	defaulted := make([]bool, len(out))

	// An ISIN listed on several rows is mapped once.
	var need []string
	seen := make(map[string]bool)
	for _, row := range out {
		if !row.HasTicker() && !seen[row.ISIN] {
			seen[row.ISIN] = true
			need = append(need, row.ISIN)
		}
	}

	var found map[string]Candidate
	if len(need) > 0 {
		found = r.lookup(ctx, need)
	}

	fallback := ""
	if eurOnly {
		fallback = XetraSuffix
	}

	for i := range out {
		row := &out[i]
		if row.HasTicker() {
			row.Ticker = str(row.Ticker.String)
		} else if c, ok := found[row.ISIN]; ok {
			row.Ticker = str(BuildSymbol(c.Ticker, c.ExchCode, fallback))
			row.Exchange = fill(row.Exchange, str(c.ExchCode))
			row.Name = fill(row.Name, str(c.Name))
			row.Currency = fill(row.Currency, str(c.Currency))
		}

		switch {
		case eurOnly:
			row.Currency = str(BaseCurrency)
		case row.Currency.Valid && strings.TrimSpace(row.Currency.String) != "":
			row.Currency = str(strings.ToUpper(row.Currency.String))
		default:
			row.Currency = str(BaseCurrency)
			defaulted[i] = true
		}
	}
	return out, defaulted
}

// lookup maps isins in batches and returns the selected candidate of each
// ISIN that has one.
func (r *Resolver) lookup(ctx context.Context, isins []string) map[string]Candidate {
	log := r.logger()
	found := make(map[string]Candidate)
	if r.Mapper == nil || !r.Mapper.Enabled() {
		log.Info("identifier mapping is not configured, relying on provided tickers only", zap.Int("unresolved", len(isins)))
		return found
	}

	limit := rate.Inf
	if r.Delay > 0 {
		limit = rate.Every(r.Delay)
	}
	limiter := rate.NewLimiter(limit, 1)

	size := r.batchSize()
	for start := 0; start < len(isins); start += size {
		batch := isins[start:min(start+size, len(isins))]
		if err := limiter.Wait(ctx); err != nil {
			log.Warn("identifier mapping interrupted", zap.Int("unresolved", len(isins)-start), zap.Error(err))
			break
		}
		results, err := r.Mapper.Map(ctx, batch)
		if err != nil {
			log.Warn("identifier mapping batch failed", zap.Int("batch", start/size), zap.Int("size", len(batch)), zap.Error(err))
			continue
		}
		if len(results) != len(batch) {
			log.Warn("identifier mapping batch misaligned", zap.Int("batch", start/size), zap.Int("sent", len(batch)), zap.Int("received", len(results)))
			continue
		}
		for i, isin := range batch {
			c, ok := SelectCandidate(results[i])
			if !ok {
				log.Debug("no listing found", zap.String("isin", isin))
				continue
			}
			if !KnownExchange(c.ExchCode) {
				log.Debug("listing on an exchange without a known suffix",
					zap.String("isin", isin), zap.String("exchange", c.ExchCode), zap.String("ticker", c.Ticker))
			}
			found[isin] = c
		}
	}
	return found
}
