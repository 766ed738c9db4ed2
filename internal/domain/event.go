package domain

import "time"

// Detection method tags. The set is closed: the metrics engine rejects
// anything else.
const (
	MethodINMET   = "INMET"
	MethodOuzeau  = "Ouzeau"
	MethodWetBulb = "TW_P90"
)

// Severity levels derived from event duration (INMET/WMO convention).
const (
	LevelRed    = "Red"
	LevelOrange = "Orange"
	LevelYellow = "Yellow"
)

// Event is a detected contiguous span of days meeting a method's
// heat-exceedance criterion. Detectors fill start/end/duration/peak plus
// site and method; the standardizer adds schema fields, level, and the
// stable ID; the metrics engine adds intensity and severity.
type Event struct {
	ID            string    `json:"hw_id,omitempty"`
	SiteID        string    `json:"site_id"`
	Method        string    `json:"method"`
	MethodVersion string    `json:"method_version,omitempty"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	DurationDays  int       `json:"duration_d"`
	PeakC         float64   `json:"peak_c"`

	// Standardizer enrichment.
	Level         string             `json:"level,omitempty"`
	BaselineStart *time.Time         `json:"baseline_start,omitempty"`
	BaselineEnd   *time.Time         `json:"baseline_end,omitempty"`
	ThresholdInfo map[string]float64 `json:"threshold_info,omitempty"`

	// Metrics engine enrichment.
	IntensityC   float64 `json:"intensity_c"`
	SeverityCDay float64 `json:"severity_cday"`

	ProcessedAt time.Time `json:"processed_at"`
}

// BaselinePeriod is the inclusive historical date range thresholds were
// computed from.
type BaselinePeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// LevelFromDuration maps event duration to a severity level:
// 5+ days Red, 3-4 days Orange, 2 days Yellow, shorter spans no level.
func LevelFromDuration(durationDays int) string {
	switch {
	case durationDays >= 5:
		return LevelRed
	case durationDays >= 3:
		return LevelOrange
	case durationDays >= 2:
		return LevelYellow
	default:
		return ""
	}
}
