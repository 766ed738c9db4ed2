// Package domain models heatwave events detected from daily temperature
// series.
//
// # Detection Methods
//
// Three independent methods scan a daily series for heat-exceedance spans.
// Each is stateless with respect to the others; only the standardized event
// schema unifies their output.
//
// INMET (fixed offset from normal):
//
//	A day is a hit when the daily maximum reaches the month's climatological
//	normal Tmax plus a fixed offset (5 °C by convention). Two or more
//	consecutive hit days form an event; isolated hit days are dropped. The
//	flag series keeps the raw per-day hit column, so single hot days remain
//	visible even though they never become events.
//
// Ouzeau (percentile hysteresis, after Ouzeau et al. 2016):
//
//	Three percentiles of the baseline daily-mean distribution drive a
//	single forward scan: Sdeb (P97.5) opens an event, Sint (P95) ends one
//	immediately on a sharp drop, and a configurable count of consecutive
//	days back below Sdeb ends one gradually. The event is kept only when
//	its peak reached Spic (P99.5), which filters marginal warm spells
//	without re-scanning their days.
//
// TW_P90 (wet-bulb percentile):
//
//	A day qualifies when the daily wet-bulb statistic reaches the baseline
//	P90; runs of at least three consecutive qualifying days become events.
//	Wet-bulb temperature folds humidity into the heat-stress signal, so
//	this method catches humid events the dry-bulb methods undercount.
//
// # Severity Levels
//
// Duration maps to the INMET/WMO alert scale: 2 days Yellow, 3-4 days
// Orange, 5+ days Red. See [LevelFromDuration].
//
// # Event Metrics
//
//	intensity_c   peak daily-maximum temperature over the event span (°C)
//	duration_d    inclusive calendar days from start to end
//	severity_cday accumulated daily exceedance above the method's
//	              threshold over the span (°C·day)
//
// Days absent from the input series are excluded from the intensity maximum
// and contribute zero severity; a data gap is a documented fallback, never
// an error.
//
// # ID Generation
//
// Standardized events get IDs of the form
// {site}-{method}-{YYYYMMDD}-{seq}, where seq is the 1-based rank among
// events starting in the same year under the deterministic
// (start asc, end asc, peak desc) ordering. Identical input therefore
// always produces identical IDs, which keeps downstream upserts idempotent
// across replays. See [AttachEventID].
package domain
