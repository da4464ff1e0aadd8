package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/quotesheet"
	"github.com/shopspring/decimal"
)

/*
	{
	  "chart": {
	    "result": [
	      {
	        "meta": {
	          "currency": "EUR",
	          "symbol": "SAP.DE",
	          "regularMarketPrice": 231.45,
	          "regularMarketTime": 1760706000,
	          "gmtoffset": 7200,
	          "exchangeTimezoneName": "Europe/Berlin",
	          "currentTradingPeriod": {
	            "pre": {"start": 1760680800, "end": 1760684400},
	            "regular": {"start": 1760684400, "end": 1760715000},
	            "post": {"start": 1760715000, "end": 1760720400}
	          }
	        }
	      }
	    ],
	    "error": null
	  }
	}
*/

// Latest returns the latest quote of a symbol, read from the metadata of its
// daily chart. The market state is derived from the current trading periods.
func (c *Client) Latest(ctx context.Context, symbol string) (quotesheet.Quote, error) {
	var jobj any
	query := url.Values{"range": {"1d"}, "interval": {"1d"}}
	if err := c.jwget(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), query, &jobj); err != nil {
		return quotesheet.Quote{}, fmt.Errorf("cannot get quote of %q: %w", symbol, err)
	}
	if msg := text(jobj, "$.chart.error.description"); msg != "" {
		return quotesheet.Quote{}, fmt.Errorf("cannot get quote of %q: %s", symbol, msg)
	}

	const meta = "$.chart.result[0].meta"
	price, ok := number(jobj, meta+".regularMarketPrice")
	if !ok {
		return quotesheet.Quote{}, fmt.Errorf("no regularMarketPrice in quote of %q", symbol)
	}

	q := quotesheet.Quote{
		Price:       decimal.NewFromFloat(price),
		MarketState: marketState(jobj, meta+".currentTradingPeriod", c.now()),
		Currency:    text(jobj, meta+".currency"),
	}
	if sec, ok := number(jobj, meta+".regularMarketTime"); ok && sec > 0 {
		offset, _ := number(jobj, meta+".gmtoffset")
		loc := location(text(jobj, meta+".exchangeTimezoneName"), int(offset))
		q.Time = time.Unix(int64(sec), 0).In(loc)
	}
	return q, nil
}

// tradingPeriods maps the trading periods of the chart metadata to market
// states.
var tradingPeriods = []struct{ key, state string }{
	{"regular", "REGULAR"},
	{"pre", "PRE"},
	{"post", "POST"},
}

// marketState returns the state of the trading period containing now, CLOSED
// if none does, or "" if the periods are unknown.
func marketState(jobj any, periods string, now time.Time) string {
	known := false
	t := float64(now.Unix())
	for _, p := range tradingPeriods {
		start, ok := number(jobj, periods+"."+p.key+".start")
		if !ok {
			continue
		}
		end, ok := number(jobj, periods+"."+p.key+".end")
		if !ok {
			continue
		}
		known = true
		if start <= t && t < end {
			return p.state
		}
	}
	if known {
		return "CLOSED"
	}
	return ""
}

// get reads path in jobj. Because jsonpath is never clear about whether it
// returns a list of 1 answer or a single answer, it keeps the first one if
// any.
func get(jobj any, path string) (any, bool) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, false
	}
	if jlist, ok := jval.([]any); ok {
		if len(jlist) == 0 {
			return nil, false
		}
		jval = jlist[0]
	}
	return jval, jval != nil
}

func number(jobj any, path string) (float64, bool) {
	jval, ok := get(jobj, path)
	if !ok {
		return 0, false
	}
	f, ok := jval.(float64)
	return f, ok
}

func text(jobj any, path string) string {
	jval, _ := get(jobj, path)
	s, _ := jval.(string)
	return s
}
