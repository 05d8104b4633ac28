package yahoo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgewatch/eventstudy/internal/contracts"
)

func TestParseChart(t *testing.T) {
	payload := `{
		"chart": {
			"result": [{
				"timestamp": [1683014400, 1683100800, 1683187200],
				"indicators": {
					"adjclose": [{"adjclose": [168.54, null, 165.79]}]
				},
				"events": {
					"splits": {
						"1598832000": {"date": 1598832000, "numerator": 4, "denominator": 1}
					}
				}
			}]
		}
	}`

	var raw chartResponse
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))

	series, splits, err := parseChart(&raw)
	require.NoError(t, err)

	// Null close dropped, remaining sessions ascending.
	require.Len(t, series, 2)
	assert.Equal(t, "2023-05-02", series[0].Date.Format("2006-01-02"))
	assert.Equal(t, 168.54, series[0].AdjClose)
	assert.Equal(t, "2023-05-04", series[1].Date.Format("2006-01-02"))
	require.NoError(t, series.Validate())

	require.Len(t, splits, 1)
	assert.Equal(t, "2020-08-31", splits[0].Date.Format("2006-01-02"))
	assert.Equal(t, 4.0, splits[0].Ratio)
}

func TestParseChart_LengthMismatch(t *testing.T) {
	payload := `{
		"chart": {
			"result": [{
				"timestamp": [1683014400, 1683100800],
				"indicators": {"adjclose": [{"adjclose": [168.54]}]}
			}]
		}
	}`

	var raw chartResponse
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))

	_, _, err := parseChart(&raw)
	assert.Error(t, err)
}

func TestParseCalendar(t *testing.T) {
	payload := `{
		"finance": {
			"result": [{
				"earnings": [
					{"startdatetime": "2023-05-04T20:00:00Z", "startdatetimetype": "AMC", "epsactual": 1.52, "revenueactual": 94836000000},
					{"startdatetime": "2023-02-02", "startdatetimetype": "BMO", "epsactual": 1.88},
					{"startdatetime": "2023-08-03T16:00:00", "startdatetimetype": "TNS"}
				]
			}]
		}
	}`

	var raw calendarResponse
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))

	records := parseCalendar(&raw)
	require.Len(t, records, 3)

	assert.Equal(t, "2023-02-02", records[0].Date.Format("2006-01-02"))
	assert.Equal(t, contracts.TimingBeforeOpen, records[0].Timing)
	require.NotNil(t, records[0].EPS)
	assert.Equal(t, 1.88, *records[0].EPS)
	assert.Nil(t, records[0].Revenue)

	assert.Equal(t, contracts.TimingAfterClose, records[1].Timing)
	require.NotNil(t, records[1].Revenue)

	assert.Equal(t, contracts.TimingUnknown, records[2].Timing)
	assert.Nil(t, records[2].EPS)
	assert.Equal(t, contracts.ProvenanceVendor, records[2].Provenance)
}

func TestTimingFromSessionCode(t *testing.T) {
	tests := []struct {
		code string
		want contracts.Timing
	}{
		{"BMO", contracts.TimingBeforeOpen},
		{"AMC", contracts.TimingAfterClose},
		{"TAS", contracts.TimingDuringHours},
		{"TNS", contracts.TimingUnknown},
		{"", contracts.TimingUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, timingFromSessionCode(tt.code), "code %q", tt.code)
	}
}
