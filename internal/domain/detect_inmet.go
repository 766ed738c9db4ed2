package domain

import "time"

// MonthlyNormals maps a calendar month to its climatological normal daily
// maximum temperature. Months absent from the map have no threshold, so no
// day in them can register a hit.
type MonthlyNormals map[time.Month]float64

// DetectINMETEvents applies the INMET fixed-offset rule to a daily maximum
// series: a day is a hit when Tmax >= monthly normal + deltaC, and a run of
// at least two consecutive hit days is a heatwave. Isolated hit days are
// dropped.
//
// The returned flag series carries the raw per-day hit column for every day
// of the input, including days belonging to runs too short to qualify.
func DetectINMETEvents(dailyMax DailySeries, normals MonthlyNormals, siteID string, deltaC float64) ([]Event, FlagSeries) {
	daily := dailyMax.Normalize()

	flags := FlagSeries{Name: "HW_INMET_bool", Points: make([]FlagPoint, len(daily))}
	hits := make([]bool, len(daily))
	for i, dv := range daily {
		normal, ok := normals[dv.Date.Month()]
		hit := ok && dv.Value >= normal+deltaC
		hits[i] = hit
		flags.Points[i] = FlagPoint{Time: dv.Date, Flag: hit}
	}

	var events []Event
	for _, run := range consecutiveRuns(daily, hits) {
		if run.length < 2 {
			continue
		}
		events = append(events, Event{
			SiteID:       siteID,
			Method:       MethodINMET,
			Start:        daily[run.first].Date,
			End:          daily[run.last].Date,
			DurationDays: run.length,
			PeakC:        run.peak,
			Level:        LevelFromDuration(run.length),
		})
	}
	return events, flags
}

// run is a maximal stretch of consecutive qualifying days.
type run struct {
	first, last int
	length      int
	peak        float64
}

// consecutiveRuns partitions the day sequence into maximal runs of
// consecutive true days. A run breaks when the flag turns false or the date
// sequence jumps over a missing day.
func consecutiveRuns(daily DailySeries, above []bool) []run {
	var runs []run
	open := false
	var cur run
	for i, dv := range daily {
		switch {
		case !above[i]:
			if open {
				runs = append(runs, cur)
				open = false
			}
		case open && nextDay(daily[i-1].Date, dv.Date):
			cur.last = i
			cur.length++
			if dv.Value > cur.peak {
				cur.peak = dv.Value
			}
		default:
			if open {
				runs = append(runs, cur)
			}
			cur = run{first: i, last: i, length: 1, peak: dv.Value}
			open = true
		}
	}
	if open {
		runs = append(runs, cur)
	}
	return runs
}
