package yahoo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/edgewatch/eventstudy/internal/contracts"
)

// chartResponse mirrors the v8 chart API payload, limited to the fields we
// consume.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
			Events struct {
				Splits map[string]struct {
					Date        int64   `json:"date"`
					Numerator   float64 `json:"numerator"`
					Denominator float64 `json:"denominator"`
				} `json:"splits"`
			} `json:"events"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDailyPrices fetches adjusted daily closes for a symbol.
// ⭐ SSOT: the Yahoo chart API is called from this file only.
func (c *Client) FetchDailyPrices(ctx context.Context, symbol string, from, to time.Time) (contracts.PriceSeries, error) {
	raw, err := c.fetchChart(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}

	series, _, err := parseChart(raw)
	if err != nil {
		return nil, fmt.Errorf("parse chart for %s: %w", symbol, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(series),
	}).Debug("Fetched daily prices")
	return series, nil
}

// FetchSplits fetches forward-split events for a symbol.
func (c *Client) FetchSplits(ctx context.Context, symbol string, from, to time.Time) ([]contracts.SplitEvent, error) {
	raw, err := c.fetchChart(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}

	_, splits, err := parseChart(raw)
	if err != nil {
		return nil, fmt.Errorf("parse splits for %s: %w", symbol, err)
	}
	return splits, nil
}

func (c *Client) fetchChart(ctx context.Context, symbol string, from, to time.Time) (*chartResponse, error) {
	fullURL := fmt.Sprintf(
		"%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=split",
		c.baseURL, symbol, from.Unix(), to.Unix(),
	)

	var raw chartResponse
	if err := c.fetchJSON(ctx, fullURL, &raw); err != nil {
		return nil, err
	}
	if raw.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error: %s - %s", raw.Chart.Error.Code, raw.Chart.Error.Description)
	}
	if len(raw.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart API returned no result for %s", symbol)
	}
	return &raw, nil
}

// parseChart converts the chart payload into a PriceSeries and split events.
// Sessions with a null adjusted close (halts, partial data) are dropped.
func parseChart(raw *chartResponse) (contracts.PriceSeries, []contracts.SplitEvent, error) {
	result := raw.Chart.Result[0]
	if len(result.Indicators.AdjClose) == 0 {
		return nil, nil, fmt.Errorf("missing adjclose block")
	}
	closes := result.Indicators.AdjClose[0].AdjClose
	if len(closes) != len(result.Timestamp) {
		return nil, nil, fmt.Errorf("timestamp/adjclose length mismatch: %d vs %d",
			len(result.Timestamp), len(closes))
	}

	var series contracts.PriceSeries
	for i, ts := range result.Timestamp {
		if closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		series = append(series, contracts.PricePoint{
			Date:     dayOf(ts),
			AdjClose: *closes[i],
		})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })

	var splits []contracts.SplitEvent
	for _, s := range result.Events.Splits {
		if s.Numerator <= 0 || s.Denominator <= 0 {
			continue
		}
		splits = append(splits, contracts.SplitEvent{
			Date:  dayOf(s.Date),
			Ratio: s.Numerator / s.Denominator,
		})
	}
	sort.Slice(splits, func(i, j int) bool { return splits[i].Date.Before(splits[j].Date) })

	return series, splits, nil
}

// dayOf reduces an exchange timestamp to its UTC calendar date.
func dayOf(unix int64) time.Time {
	y, m, d := time.Unix(unix, 0).UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
