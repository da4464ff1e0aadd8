package quotesheet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"
)

var errUnavailable = errors.New("unavailable")

func bar(at time.Time, close string) Bar {
	if close == "" {
		return Bar{Time: at}
	}
	return Bar{Time: at, Close: decimal.NewNullDecimal(decimal.RequireFromString(close))}
}

func step(interval, rng string) Step { return Step{Interval: interval, Range: rng} }

func TestLastClose(t *testing.T) {
	t0 := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	bars := []Bar{
		bar(t0, "10"),
		bar(t0.Add(time.Minute), "11"),
		bar(t0.Add(2*time.Minute), ""),
		bar(t0.Add(3*time.Minute), "0"),
	}
	b, ok := LastClose(bars)
	require.True(t, ok)
	assert.Equal(t, "11", b.Close.Decimal.String())
	assert.Equal(t, t0.Add(time.Minute), b.Time)

	_, ok = LastClose([]Bar{bar(t0, "")})
	assert.False(t, ok)
	_, ok = LastClose(nil)
	assert.False(t, ok)
}

func TestFetchEscalates(t *testing.T) {
	ctrl := gomock.NewController(t)
	market := NewMockMarketData(ctrl)
	ctx := context.Background()
	at := time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

	gomock.InOrder(
		market.EXPECT().Latest(ctx, "SAP.DE").Return(Quote{}, errUnavailable),
		market.EXPECT().History(ctx, "SAP.DE", step("1m", "5d")).Return(nil, nil),
		market.EXPECT().History(ctx, "SAP.DE", step("5m", "10d")).Return([]Bar{bar(at, "")}, nil),
		market.EXPECT().History(ctx, "SAP.DE", step("60m", "60d")).Return([]Bar{bar(at.Add(-time.Hour), "120.10"), bar(at, "120.50")}, nil),
	)

	got := NewFetcher(market, zaptest.NewLogger(t)).Fetch(ctx, []string{"SAP.DE"}, Normal)

	rec := got["SAP.DE"]
	assert.Equal(t, Priced, rec.Status)
	assert.Equal(t, "60m", rec.Source)
	assert.Equal(t, "120.5", rec.Price.Decimal.String())
	assert.Equal(t, at, rec.UTC.Time)
}

func TestFetchDeduplicates(t *testing.T) {
	ctrl := gomock.NewController(t)
	market := NewMockMarketData(ctrl)
	ctx := context.Background()
	at := time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

	market.EXPECT().Latest(ctx, "AAPL").Return(Quote{Price: decimal.RequireFromString("200"), Time: at, MarketState: "CLOSED"}, nil).Times(1)
	market.EXPECT().History(ctx, "AAPL", step("1d", "10d")).Return([]Bar{bar(at, "199")}, nil).Times(1)

	got := NewFetcher(market, zaptest.NewLogger(t)).Fetch(ctx, []string{"AAPL", " AAPL", "", "AAPL"}, Normal)

	require.Len(t, got, 1)
	assert.Equal(t, "1d", got["AAPL"].Source)
}

func TestFetchOffKeepsFastQuote(t *testing.T) {
	ctrl := gomock.NewController(t)
	market := NewMockMarketData(ctrl)
	ctx := context.Background()
	at := time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

	market.EXPECT().Latest(ctx, "AAPL").Return(Quote{Price: decimal.RequireFromString("201.25"), Time: at, MarketState: "REGULAR"}, nil)

	got := NewFetcher(market, zaptest.NewLogger(t)).Fetch(ctx, []string{"AAPL"}, Off)

	rec := got["AAPL"]
	assert.Equal(t, SourceFast, rec.Source)
	assert.Equal(t, "201.25", rec.Price.Decimal.String())
	assert.Equal(t, at, rec.Local.Time)
}

func TestFetchFastQuoteWithoutTime(t *testing.T) {
	ctrl := gomock.NewController(t)
	market := NewMockMarketData(ctrl)
	ctx := context.Background()
	now := time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)

	market.EXPECT().Latest(ctx, "AAPL").Return(Quote{Price: decimal.RequireFromString("1")}, nil)

	f := NewFetcher(market, zaptest.NewLogger(t))
	f.Now = func() time.Time { return now }
	rec := f.Fetch(ctx, []string{"AAPL"}, Off)["AAPL"]

	assert.Equal(t, now, rec.UTC.Time)
}

func TestFetchClosedMarketSkipsIntraday(t *testing.T) {
	ctrl := gomock.NewController(t)
	market := NewMockMarketData(ctrl)
	ctx := context.Background()
	at := time.Date(2025, 3, 14, 17, 30, 0, 0, time.UTC)

	gomock.InOrder(
		market.EXPECT().Latest(ctx, "SAP.DE").Return(Quote{Price: decimal.RequireFromString("120"), Time: at, MarketState: "CLOSED"}, nil),
		market.EXPECT().History(ctx, "SAP.DE", step("1d", "10d")).Return(nil, errUnavailable),
	)

	rec := NewFetcher(market, zaptest.NewLogger(t)).Fetch(ctx, []string{"SAP.DE"}, Normal)["SAP.DE"]

	assert.Equal(t, Priced, rec.Status)
	assert.Equal(t, SourceFast, rec.Source, "the fast quote is kept when the ladder finds nothing")
}

func TestFetchOpenMarketEscalates(t *testing.T) {
	ctrl := gomock.NewController(t)
	market := NewMockMarketData(ctrl)
	ctx := context.Background()
	at := time.Date(2025, 3, 14, 10, 15, 0, 0, time.UTC)

	gomock.InOrder(
		market.EXPECT().Latest(ctx, "SAP.DE").Return(Quote{Price: decimal.RequireFromString("120"), Time: at.Add(-15 * time.Minute), MarketState: "REGULAR", Currency: "EUR"}, nil),
		market.EXPECT().History(ctx, "SAP.DE", step("1m", "5d")).Return([]Bar{bar(at.Add(-time.Minute), "121.25"), bar(at, "121.5")}, nil),
	)

	rec := NewFetcher(market, zaptest.NewLogger(t)).Fetch(ctx, []string{"SAP.DE"}, Normal)["SAP.DE"]

	assert.Equal(t, Priced, rec.Status)
	assert.Equal(t, "1m", rec.Source, "an open market is refined with intraday bars")
	assert.Equal(t, "121.5", rec.Price.Decimal.String())
	assert.Equal(t, at, rec.UTC.Time)
	assert.Equal(t, "EUR", rec.Currency)
}

func TestFetchAggressiveOnClosedMarket(t *testing.T) {
	ctrl := gomock.NewController(t)
	market := NewMockMarketData(ctrl)
	ctx := context.Background()
	at := time.Date(2025, 3, 14, 17, 30, 0, 0, time.UTC)

	gomock.InOrder(
		market.EXPECT().Latest(ctx, "SAP.DE").Return(Quote{Price: decimal.RequireFromString("120"), Time: at, MarketState: "CLOSED"}, nil),
		market.EXPECT().History(ctx, "SAP.DE", step("1m", "5d")).Return([]Bar{bar(at, "119.5")}, nil),
	)

	rec := NewFetcher(market, zaptest.NewLogger(t)).Fetch(ctx, []string{"SAP.DE"}, Aggressive)["SAP.DE"]

	assert.Equal(t, "1m", rec.Source)
	assert.Equal(t, "119.5", rec.Price.Decimal.String())
}

func TestFetchFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	market := NewMockMarketData(ctrl)
	ctx := context.Background()

	market.EXPECT().Latest(ctx, "BAD").Return(Quote{}, errUnavailable)
	market.EXPECT().History(ctx, "BAD", gomock.Any()).Return(nil, errUnavailable).Times(2)
	market.EXPECT().Latest(ctx, "EMPTY").Return(Quote{MarketState: "CLOSED"}, nil)
	market.EXPECT().History(ctx, "EMPTY", gomock.Any()).Return(nil, nil).Times(2)

	got := NewFetcher(market, zaptest.NewLogger(t)).Fetch(ctx, []string{"BAD", "EMPTY"}, Off)

	require.Len(t, got, 2)
	assert.Equal(t, Failed, got["BAD"].Status)
	assert.False(t, got["BAD"].Price.Valid)
	assert.False(t, got["BAD"].UTC.Valid)
	assert.Equal(t, "", got["BAD"].Source)
	assert.Equal(t, Missing, got["EMPTY"].Status)
	assert.False(t, got["EMPTY"].Price.Valid)
}
