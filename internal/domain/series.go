package domain

import "time"

// DayValue is one row of a daily series: a calendar day and the value
// aggregated for it (daily max, daily mean, or similar).
type DayValue struct {
	Date  time.Time `json:"timeset"`
	Value float64   `json:"value"`
}

// DailySeries is an ordered sequence of per-day values, ascending by date,
// at most one row per calendar day. Days may be missing; detectors treat a
// gap as "not above threshold" and break any run spanning it.
type DailySeries []DayValue

// Normalize returns a copy of the series with every date truncated to
// midnight UTC. The input is not modified.
func (s DailySeries) Normalize() DailySeries {
	out := make(DailySeries, len(s))
	for i, dv := range s {
		out[i] = DayValue{Date: DateOf(dv.Date), Value: dv.Value}
	}
	return out
}

// ByDate returns a lookup map from normalized date to value.
func (s DailySeries) ByDate() map[time.Time]float64 {
	m := make(map[time.Time]float64, len(s))
	for _, dv := range s {
		m[DateOf(dv.Date)] = dv.Value
	}
	return m
}

// DateOf truncates a timestamp to its calendar day (midnight UTC).
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween counts inclusive calendar days between two date-truncated
// timestamps: daysBetween(d, d) == 1.
func daysBetween(start, end time.Time) int {
	return int(DateOf(end).Sub(DateOf(start))/(24*time.Hour)) + 1
}

// nextDay reports whether b is the calendar day immediately after a.
func nextDay(a, b time.Time) bool {
	return DateOf(a).AddDate(0, 0, 1).Equal(DateOf(b))
}

// eachDay calls fn for every calendar day from start to end inclusive.
func eachDay(start, end time.Time, fn func(day time.Time)) {
	for d := DateOf(start); !d.After(DateOf(end)); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

// FlagPoint marks whether a single timestamp is covered by an event.
type FlagPoint struct {
	Time time.Time `json:"timeset"`
	Flag bool      `json:"flag"`
}

// FlagSeries is a named boolean-per-timestamp indicator of event coverage,
// aligned with the timeline it was derived from.
type FlagSeries struct {
	Name   string      `json:"name"`
	Points []FlagPoint `json:"points"`
}
