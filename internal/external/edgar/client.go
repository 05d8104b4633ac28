package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/edgewatch/eventstudy/pkg/config"
	"github.com/edgewatch/eventstudy/pkg/httputil"
	"github.com/edgewatch/eventstudy/pkg/logger"
)

// Client handles communication with the SEC EDGAR data APIs.
// ⭐ SSOT: EDGAR calls happen through this client only.
//
// The SEC's fair-access policy requires a descriptive User-Agent and caps
// request rates; the injected httputil.Client carries both.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates an EDGAR client.
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.EDGAR.BaseURL,
	}
}

// tickerEntry is one row of the SEC's ticker-to-CIK mapping file.
type tickerEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
}

// LookupCIK resolves a ticker symbol to a zero-padded 10-digit CIK.
func (c *Client) LookupCIK(ctx context.Context, symbol string) (string, error) {
	fullURL := c.baseURL + "/files/company_tickers.json"

	var mapping map[string]tickerEntry
	if err := c.fetchJSON(ctx, fullURL, &mapping); err != nil {
		return "", fmt.Errorf("fetch ticker mapping: %w", err)
	}

	want := strings.ToUpper(symbol)
	for _, entry := range mapping {
		if strings.ToUpper(entry.Ticker) == want {
			return fmt.Sprintf("%010d", entry.CIK), nil
		}
	}
	return "", fmt.Errorf("no CIK found for symbol %s", symbol)
}

// fetchJSON fetches a URL and decodes the response body into dest.
func (c *Client) fetchJSON(ctx context.Context, fullURL string, dest interface{}) error {
	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body failed: %w", err)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode response failed: %w", err)
	}
	return nil
}
