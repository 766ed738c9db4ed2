package domain

// DetectWetBulbEvents applies a single-threshold rule to a daily wet-bulb
// statistic: a day qualifies when its value >= threshold, and a maximal run
// of consecutive qualifying days becomes an event when it lasts at least
// nConsecutive days. There is no hysteresis; a single day below the
// threshold, or a missing day, breaks the run.
//
// The flag series marks only days inside qualifying runs.
func DetectWetBulbEvents(dailyTw DailySeries, threshold float64, siteID string, nConsecutive int) ([]Event, FlagSeries) {
	daily := dailyTw.Normalize()

	above := make([]bool, len(daily))
	for i, dv := range daily {
		above[i] = dv.Value >= threshold
	}

	var events []Event
	for _, run := range consecutiveRuns(daily, above) {
		if run.length < nConsecutive {
			continue
		}
		events = append(events, Event{
			SiteID:       siteID,
			Method:       MethodWetBulb,
			Start:        daily[run.first].Date,
			End:          daily[run.last].Date,
			DurationDays: run.length,
			PeakC:        run.peak,
		})
	}
	return events, flagDays("HW_TW_bool", daily, events)
}
