package domain

import (
	"math"
	"time"
)

// day builds a date-truncated UTC timestamp.
func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// series builds a DailySeries of consecutive days starting at start. NaN
// values are skipped, leaving a gap in the series.
func series(start time.Time, values ...float64) DailySeries {
	var s DailySeries
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		s = append(s, DayValue{Date: start.AddDate(0, 0, i), Value: v})
	}
	return s
}

// gap is a placeholder for a missing day in series literals.
var gap = math.NaN()
