package domain

// AnalysisResult is everything one observation bundle yields: the
// standardized, metric-enriched events of every method, the per-method flag
// series on the daily grid, and the per-method projections onto the bundle's
// native timeline.
type AnalysisResult struct {
	SiteID    string              `json:"site_id"`
	Baseline  BaselinePeriod      `json:"baseline"`
	Events    []Event             `json:"events"`
	Flags     []FlagSeries        `json:"flags"`
	Timelines []ProjectedTimeline `json:"timelines"`
}
