package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/etnz/quotesheet"
	"github.com/shopspring/decimal"
)

// chartResponse is the payload of the v8 chart endpoint, limited to what is
// needed to find the last close.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				Currency             string `json:"currency"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
				GMTOffset            int    `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History returns the bars of symbol for the step's interval and range.
// Bars without a close are kept, with a null close.
func (c *Client) History(ctx context.Context, symbol string, step quotesheet.Step) ([]quotesheet.Bar, error) {
	query := url.Values{
		"interval":       {step.Interval},
		"range":          {step.Range},
		"includePrePost": {"false"},
	}
	var content chartResponse
	if err := c.jwget(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), query, &content); err != nil {
		return nil, fmt.Errorf("cannot get %s bars of %q: %w", step, symbol, err)
	}
	if e := content.Chart.Error; e != nil {
		return nil, fmt.Errorf("cannot get %s bars of %q: %s: %s", step, symbol, e.Code, e.Description)
	}
	if len(content.Chart.Result) == 0 {
		return nil, nil
	}

	res := content.Chart.Result[0]
	loc := location(res.Meta.ExchangeTimezoneName, res.Meta.GMTOffset)
	var closes []*float64
	if len(res.Indicators.Quote) > 0 {
		closes = res.Indicators.Quote[0].Close
	}

	bars := make([]quotesheet.Bar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		bar := quotesheet.Bar{Time: time.Unix(ts, 0).In(loc)}
		if i < len(closes) && closes[i] != nil {
			bar.Close = decimal.NewNullDecimal(decimal.NewFromFloat(*closes[i]))
		}
		bars = append(bars, bar)
	}
	return bars, nil
}
