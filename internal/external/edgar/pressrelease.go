package edgar

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/edgewatch/eventstudy/internal/contracts"
)

// submissionsResponse mirrors the recent-filings slice of the submissions API.
type submissionsResponse struct {
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			Form            []string `json:"form"`
			Items           []string `json:"items"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

var (
	beforeOpenRe = regexp.MustCompile(`(?i)before\s+(?:the\s+)?market\s+open|before\s+(?:the\s+)?opening\s+of|pre-?market`)
	afterCloseRe = regexp.MustCompile(`(?i)after\s+(?:the\s+)?market\s+close|after\s+(?:the\s+)?close\s+of|after-?hours`)
	dilutedEPSRe = regexp.MustCompile(`(?i)diluted\s+(?:net\s+)?(?:earnings|income|loss)\s+per\s+share[^$%]{0,80}?\$?\(?([0-9]+\.[0-9]{2})\)?`)
)

// Name identifies records parsed here as pre-vetted press-release figures.
func (c *Client) Name() contracts.Provenance {
	return contracts.ProvenancePressRelease
}

// FetchEarnings scans recent 8-K filings for Item 2.02 (results of
// operations) disclosures and parses each press release for announcement
// timing and a diluted EPS figure. The filing date stands in for the
// announcement date; 8-Ks for earnings are filed the same day.
func (c *Client) FetchEarnings(ctx context.Context, symbol string, from, to time.Time) ([]contracts.EarningsRecord, error) {
	cik, err := c.LookupCIK(ctx, symbol)
	if err != nil {
		return nil, err
	}

	fullURL := fmt.Sprintf("%s/submissions/CIK%s.json", c.baseURL, cik)
	var subs submissionsResponse
	if err := c.fetchJSON(ctx, fullURL, &subs); err != nil {
		return nil, fmt.Errorf("fetch submissions: %w", err)
	}

	recent := subs.Filings.Recent
	var records []contracts.EarningsRecord
	for i, form := range recent.Form {
		if form != "8-K" || !strings.Contains(recent.Items[i], "2.02") {
			continue
		}
		filed, err := time.Parse("2006-01-02", recent.FilingDate[i])
		if err != nil {
			continue
		}
		if filed.Before(from) || filed.After(to) {
			continue
		}

		rec := contracts.EarningsRecord{
			Date:       filed,
			Timing:     contracts.TimingUnknown,
			Provenance: contracts.ProvenancePressRelease,
		}

		docURL := c.filingDocURL(cik, recent.AccessionNumber[i], recent.PrimaryDocument[i])
		if timing, eps, err := c.parseFilingDoc(ctx, docURL); err == nil {
			rec.Timing = timing
			rec.EPS = eps
		} else {
			c.logger.WithError(err).WithField("url", docURL).Debug("Press release parse failed, keeping filing date only")
		}
		records = append(records, rec)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(records),
	}).Debug("Fetched press-release earnings records")
	return records, nil
}

// filingDocURL builds the archive URL for a filing's primary document.
// Archives live on www.sec.gov, not the data subdomain.
func (c *Client) filingDocURL(cik, accession, doc string) string {
	host := strings.Replace(c.baseURL, "data.sec.gov", "www.sec.gov", 1)
	acc := strings.ReplaceAll(accession, "-", "")
	cikNum := strings.TrimLeft(cik, "0")
	return fmt.Sprintf("%s/Archives/edgar/data/%s/%s/%s", host, cikNum, acc, doc)
}

// parseFilingDoc fetches one 8-K document and extracts timing language and a
// diluted EPS figure from its text.
func (c *Client) parseFilingDoc(ctx context.Context, fullURL string) (contracts.Timing, *float64, error) {
	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return contracts.TimingUnknown, nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return contracts.TimingUnknown, nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return contracts.TimingUnknown, nil, fmt.Errorf("parse HTML failed: %w", err)
	}
	timing, eps := extractFromText(doc.Text())
	return timing, eps, nil
}

// extractFromText classifies announcement timing and pulls the first diluted
// EPS figure from press-release prose. A figure wrapped in parentheses is a
// loss.
func extractFromText(text string) (contracts.Timing, *float64) {
	timing := contracts.TimingUnknown
	switch {
	case beforeOpenRe.MatchString(text):
		timing = contracts.TimingBeforeOpen
	case afterCloseRe.MatchString(text):
		timing = contracts.TimingAfterClose
	}

	var eps *float64
	if m := dilutedEPSRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			if strings.Contains(m[0], "("+m[1]+")") {
				v = -v
			}
			eps = &v
		}
	}
	return timing, eps
}
