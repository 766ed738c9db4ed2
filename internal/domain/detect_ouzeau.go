package domain

// OuzeauThresholds are the three percentile thresholds of the reference
// daily-mean distribution used by the Ouzeau et al. hysteresis method:
// Spic qualifies the peak (P99.5), Sdeb opens an event (P97.5), and Sint
// ends one on a sharp drop (P95).
type OuzeauThresholds struct {
	Spic float64 `json:"spic"`
	Sdeb float64 `json:"sdeb"`
	Sint float64 `json:"sint"`
}

// DetectOuzeauEvents scans a daily mean series left to right with explicit
// hysteresis state. A candidate event opens on the first day above Sdeb and
// ends on whichever comes first:
//
//   - a day below Sint (sharp cold-snap stop, that day included),
//   - nConsecutive days in a row below Sdeb (the last of them included),
//   - the end of the series.
//
// Days back at or above Sdeb reset the consecutive-below counter, so a brief
// dip does not end an event. The candidate is kept only if its running peak
// reached Spic; either way the scan resumes after the candidate's end day,
// so no day is scanned twice.
//
// The scan is positional: days missing from the series neither end an event
// nor count toward the consecutive-below requirement, but they still widen
// the date-based duration.
func DetectOuzeauEvents(dailyMean DailySeries, thr OuzeauThresholds, siteID string, nConsecutive int) ([]Event, FlagSeries) {
	d := dailyMean.Normalize()

	var events []Event
	i := 0
	for i < len(d) {
		if d[i].Value <= thr.Sdeb {
			i++
			continue
		}

		start := d[i].Date
		peak := d[i].Value
		j := i
		consecBelowSdeb := 0

		for j+1 < len(d) {
			j++
			if d[j].Value > peak {
				peak = d[j].Value
			}
			if d[j].Value < thr.Sint {
				break
			}
			if d[j].Value < thr.Sdeb {
				consecBelowSdeb++
				if consecBelowSdeb >= nConsecutive {
					break
				}
			} else {
				consecBelowSdeb = 0
			}
		}

		end := d[j].Date
		if peak >= thr.Spic {
			events = append(events, Event{
				SiteID:       siteID,
				Method:       MethodOuzeau,
				Start:        start,
				End:          end,
				DurationDays: daysBetween(start, end),
				PeakC:        peak,
			})
		}
		i = j + 1
	}

	return events, flagDays("HW_OU_bool", d, events)
}

// flagDays marks the days of a daily series covered by at least one event.
func flagDays(name string, daily DailySeries, events []Event) FlagSeries {
	flags := FlagSeries{Name: name, Points: make([]FlagPoint, len(daily))}
	for i, dv := range daily {
		flags.Points[i] = FlagPoint{Time: dv.Date}
		for _, ev := range events {
			if !dv.Date.Before(ev.Start) && !dv.Date.After(ev.End) {
				flags.Points[i].Flag = true
				break
			}
		}
	}
	return flags
}
