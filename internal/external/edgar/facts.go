package edgar

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/edgewatch/eventstudy/internal/contracts"
)

// conceptResponse mirrors the companyconcept XBRL payload for one tag.
type conceptResponse struct {
	Units map[string][]conceptFact `json:"units"`
}

type conceptFact struct {
	End   string   `json:"end"`   // period end date
	Val   *float64 `json:"val"`
	Form  string   `json:"form"`  // 10-Q, 10-K, 8-K, ...
	Frame string   `json:"frame"` // set only on deduplicated quarterly frames
}

// FetchEPSFacts fetches GAAP-diluted EPS facts from quarterly and annual
// filings. These are the audited, structured values the normalizer prefers
// over any vendor figure.
// ⭐ SSOT: companyconcept calls happen in this file only.
func (c *Client) FetchEPSFacts(ctx context.Context, symbol string, from, to time.Time) ([]contracts.FactPoint, error) {
	cik, err := c.LookupCIK(ctx, symbol)
	if err != nil {
		return nil, err
	}

	raw, err := c.fetchConcept(ctx, cik, "EarningsPerShareDiluted")
	if err != nil {
		return nil, err
	}

	facts := collectFacts(raw, "USD/shares", from, to)

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(facts),
	}).Debug("Fetched structured EPS facts")
	return facts, nil
}

// FetchRatioEPSFacts derives an EPS series as net income over diluted share
// count. It is the fallback when the issuer did not tag EarningsPerShareDiluted
// directly (common in older filings).
func (c *Client) FetchRatioEPSFacts(ctx context.Context, symbol string, from, to time.Time) ([]contracts.FactPoint, error) {
	cik, err := c.LookupCIK(ctx, symbol)
	if err != nil {
		return nil, err
	}

	income, err := c.fetchConcept(ctx, cik, "NetIncomeLoss")
	if err != nil {
		return nil, err
	}
	shares, err := c.fetchConcept(ctx, cik, "WeightedAverageNumberOfDilutedSharesOutstanding")
	if err != nil {
		return nil, err
	}

	facts := deriveRatioFacts(
		collectFacts(income, "USD", from, to),
		collectFacts(shares, "shares", from, to),
	)

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(facts),
	}).Debug("Derived ratio EPS facts")
	return facts, nil
}

func (c *Client) fetchConcept(ctx context.Context, cik, tag string) (*conceptResponse, error) {
	fullURL := fmt.Sprintf("%s/api/xbrl/companyconcept/CIK%s/us-gaap/%s.json", c.baseURL, cik, tag)

	var raw conceptResponse
	if err := c.fetchJSON(ctx, fullURL, &raw); err != nil {
		return nil, fmt.Errorf("fetch concept %s: %w", tag, err)
	}
	return &raw, nil
}

// collectFacts extracts dated points from one unit series, restricted to
// quarterly/annual report forms and the requested range. Amended filings
// repeat periods; the last value per period end wins (amendments are filed
// later in the payload).
func collectFacts(raw *conceptResponse, unit string, from, to time.Time) []contracts.FactPoint {
	byEnd := make(map[time.Time]float64)
	for _, f := range raw.Units[unit] {
		if f.Val == nil || !reportForm(f.Form) {
			continue
		}
		end, err := time.Parse("2006-01-02", f.End)
		if err != nil {
			continue
		}
		if end.Before(from) || end.After(to) {
			continue
		}
		byEnd[end] = *f.Val
	}

	facts := make([]contracts.FactPoint, 0, len(byEnd))
	for end, val := range byEnd {
		facts = append(facts, contracts.FactPoint{Date: end, EPS: val})
	}
	sort.Slice(facts, func(i, j int) bool { return facts[i].Date.Before(facts[j].Date) })
	return facts
}

// deriveRatioFacts joins income and share-count points on period end.
func deriveRatioFacts(income, shares []contracts.FactPoint) []contracts.FactPoint {
	sharesByDate := make(map[time.Time]float64, len(shares))
	for _, s := range shares {
		sharesByDate[s.Date] = s.EPS // FactPoint carries the raw value here
	}

	var facts []contracts.FactPoint
	for _, in := range income {
		count, ok := sharesByDate[in.Date]
		if !ok || count <= 0 {
			continue
		}
		facts = append(facts, contracts.FactPoint{Date: in.Date, EPS: in.EPS / count})
	}
	sort.Slice(facts, func(i, j int) bool { return facts[i].Date.Before(facts[j].Date) })
	return facts
}

func reportForm(form string) bool {
	switch form {
	case "10-Q", "10-K", "10-Q/A", "10-K/A":
		return true
	default:
		return false
	}
}
