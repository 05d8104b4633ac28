package contracts

import "time"

// Timing indicates when an announcement happened relative to the trading
// session.
type Timing string

const (
	TimingBeforeOpen  Timing = "before-open"
	TimingAfterClose  Timing = "after-close"
	TimingDuringHours Timing = "during-hours"
	TimingUnknown     Timing = "unknown"
)

// Provenance tags which adapter produced a record.
type Provenance string

const (
	// ProvenanceVendor marks records from a commercial earnings calendar.
	ProvenanceVendor Provenance = "vendor"
	// ProvenanceFiling marks records derived from structured regulator filings.
	ProvenanceFiling Provenance = "filing"
	// ProvenancePressRelease marks records extracted from press-release HTML.
	// These carry a pre-vetted EPS figure usable without the vendor opt-in.
	ProvenancePressRelease Provenance = "press-release"
)

// EarningsRecord is one earnings announcement for a ticker. Reconciliation
// guarantees at most one record per announcement date.
type EarningsRecord struct {
	Date       time.Time  `json:"date"`
	Timing     Timing     `json:"timing"`
	EPS        *float64   `json:"eps"`     // as reported, nil if unknown
	Revenue    *float64   `json:"revenue"` // nil if unknown
	Provenance Provenance `json:"provenance"`
}

// SplitEvent is a forward split: share count multiplies by Ratio on Date.
// Per-share figures reported before Date are stated in pre-split terms.
type SplitEvent struct {
	Date  time.Time `json:"date"`
	Ratio float64   `json:"ratio"` // > 0
}

// FactPoint is one date-keyed EPS fact from a structured feed (regulator
// XBRL, ratio-derived, ...).
type FactPoint struct {
	Date time.Time `json:"date"`
	EPS  float64   `json:"eps"`
}

// NormalizedEPS is an earnings record's EPS restated to GAAP-diluted,
// current-share-count terms.
type NormalizedEPS struct {
	Date       time.Time  `json:"date"`
	EPS        float64    `json:"eps"`
	RawEPS     float64    `json:"raw_eps"`
	Multiplier float64    `json:"split_multiplier"` // cumulative ratio of later splits
	Source     FactSource `json:"source"`
}

// FactSource identifies which selection branch supplied a normalized EPS.
type FactSource string

const (
	FactStructured FactSource = "structured"
	FactRatio      FactSource = "ratio"
	FactVendor     FactSource = "vendor"
)
