package edgar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgewatch/eventstudy/internal/contracts"
)

func TestExtractFromText(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantTiming contracts.Timing
		wantEPS    *float64
	}{
		{
			name:       "before open with EPS",
			text:       "The Company announced results before the market open today. Diluted earnings per share were $1.52 for the quarter.",
			wantTiming: contracts.TimingBeforeOpen,
			wantEPS:    fv(1.52),
		},
		{
			name:       "after close",
			text:       "Results were released after the close of trading. Diluted earnings per share of $0.94.",
			wantTiming: contracts.TimingAfterClose,
			wantEPS:    fv(0.94),
		},
		{
			name:       "after hours phrasing",
			text:       "The release was issued after-hours on Thursday.",
			wantTiming: contracts.TimingAfterClose,
			wantEPS:    nil,
		},
		{
			name:       "parenthesized loss",
			text:       "Diluted net loss per share was $(0.37) compared with the prior year.",
			wantTiming: contracts.TimingUnknown,
			wantEPS:    fv(-0.37),
		},
		{
			name:       "no timing language",
			text:       "Quarterly results were announced today.",
			wantTiming: contracts.TimingUnknown,
			wantEPS:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timing, eps := extractFromText(tt.text)
			assert.Equal(t, tt.wantTiming, timing)
			if tt.wantEPS == nil {
				assert.Nil(t, eps)
			} else {
				require.NotNil(t, eps)
				assert.InDelta(t, *tt.wantEPS, *eps, 1e-12)
			}
		})
	}
}

func TestFilingDocURL(t *testing.T) {
	c := &Client{baseURL: "https://data.sec.gov"}
	got := c.filingDocURL("0000320193", "0000320193-23-000064", "aapl-20230504.htm")
	assert.Equal(t, "https://www.sec.gov/Archives/edgar/data/320193/000032019323000064/aapl-20230504.htm", got)
}
