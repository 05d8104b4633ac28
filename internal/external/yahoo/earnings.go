package yahoo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/edgewatch/eventstudy/internal/contracts"
)

// calendarResponse mirrors the earnings-calendar payload.
type calendarResponse struct {
	Finance struct {
		Result []struct {
			Earnings []struct {
				StartDateTime     string   `json:"startdatetime"`
				StartDateTimeType string   `json:"startdatetimetype"`
				EPSActual         *float64 `json:"epsactual"`
				RevenueActual     *float64 `json:"revenueactual"`
			} `json:"earnings"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"finance"`
}

// Name returns the provenance tag for this provider.
func (c *Client) Name() contracts.Provenance {
	return contracts.ProvenanceVendor
}

// FetchEarnings fetches the vendor earnings calendar for a symbol.
// ⭐ SSOT: the Yahoo earnings calendar is called from this file only.
func (c *Client) FetchEarnings(ctx context.Context, symbol string, from, to time.Time) ([]contracts.EarningsRecord, error) {
	fullURL := fmt.Sprintf(
		"%s/v1/finance/visualization/earnings?symbol=%s&from=%s&to=%s",
		c.baseURL, symbol, from.Format("2006-01-02"), to.Format("2006-01-02"),
	)

	var raw calendarResponse
	if err := c.fetchJSON(ctx, fullURL, &raw); err != nil {
		return nil, err
	}
	if raw.Finance.Error != nil {
		return nil, fmt.Errorf("calendar API error: %s - %s",
			raw.Finance.Error.Code, raw.Finance.Error.Description)
	}

	records := parseCalendar(&raw)

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(records),
	}).Debug("Fetched earnings calendar")
	return records, nil
}

// parseCalendar converts calendar rows into earnings records, mapping the
// vendor's session codes onto timing flags.
func parseCalendar(raw *calendarResponse) []contracts.EarningsRecord {
	var records []contracts.EarningsRecord
	for _, result := range raw.Finance.Result {
		for _, row := range result.Earnings {
			date, err := parseCalendarTime(row.StartDateTime)
			if err != nil {
				continue
			}
			records = append(records, contracts.EarningsRecord{
				Date:       date,
				Timing:     timingFromSessionCode(row.StartDateTimeType),
				EPS:        row.EPSActual,
				Revenue:    row.RevenueActual,
				Provenance: contracts.ProvenanceVendor,
			})
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return records
}

func parseCalendarTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.UTC().Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable calendar time %q", s)
}

// timingFromSessionCode maps the vendor's session codes: BMO (before market
// open), AMC (after market close), TAS (during the session). Everything else
// is unknown.
func timingFromSessionCode(code string) contracts.Timing {
	switch code {
	case "BMO":
		return contracts.TimingBeforeOpen
	case "AMC":
		return contracts.TimingAfterClose
	case "TAS":
		return contracts.TimingDuringHours
	default:
		return contracts.TimingUnknown
	}
}
