package domain

import (
	"fmt"
	"math"
	"sort"
)

// StandardizeOptions carries the optional enrichment applied by
// StandardizeEvents.
type StandardizeOptions struct {
	// Baseline stamps the baseline period bounds on every event.
	Baseline *BaselinePeriod
	// ThresholdInfo is an arbitrary threshold-parameter snapshot kept for
	// provenance.
	ThresholdInfo map[string]float64
	// AddLevelByDuration derives the severity level from duration,
	// overwriting whatever the detector set.
	AddLevelByDuration bool
}

// StandardizeEvents normalizes heterogeneous per-method detector output into
// the common event schema: it validates the required fields, truncates dates
// to calendar days, stamps site/method/version, baseline bounds, and the
// threshold snapshot, optionally derives the level from duration, and sorts
// deterministically by (start asc, end asc, peak desc). The input slice is
// not modified.
//
// The deterministic order matters: AttachEventID assigns sequence numbers
// from it, so identical input always yields identical identifiers.
func StandardizeEvents(events []Event, siteID, method, methodVersion string, opts StandardizeOptions) ([]Event, error) {
	if err := validateEventSchema(events, method); err != nil {
		return nil, err
	}

	out := make([]Event, len(events))
	for i, ev := range events {
		ev.Start = DateOf(ev.Start)
		ev.End = DateOf(ev.End)
		ev.SiteID = siteID
		ev.Method = method
		ev.MethodVersion = methodVersion

		if opts.Baseline != nil {
			start, end := DateOf(opts.Baseline.Start), DateOf(opts.Baseline.End)
			ev.BaselineStart = &start
			ev.BaselineEnd = &end
		}
		if opts.ThresholdInfo != nil {
			info := make(map[string]float64, len(opts.ThresholdInfo))
			for k, v := range opts.ThresholdInfo {
				info[k] = v
			}
			ev.ThresholdInfo = info
		}
		if opts.AddLevelByDuration {
			ev.Level = LevelFromDuration(ev.DurationDays)
		}
		ev.ProcessedAt = clock.Now()
		out[i] = ev
	}

	sortEvents(out)
	return out, nil
}

// AttachEventID assigns stable identifiers of the form
// {site}-{method}-{YYYYMMDD}-{seq}, where seq is the 1-based rank of the
// event among those starting in the same year, in deterministic sort order.
// Returns a new slice; the input is re-sorted defensively in the copy in
// case the caller disturbed the order.
func AttachEventID(events []Event, siteID, method string) []Event {
	out := make([]Event, len(events))
	copy(out, events)
	sortEvents(out)

	seqByYear := make(map[int]int)
	for i, ev := range out {
		year := ev.Start.Year()
		seqByYear[year]++
		out[i].ID = fmt.Sprintf("%s-%s-%s-%03d", siteID, method, ev.Start.Format("20060102"), seqByYear[year])
	}
	return out
}

// sortEvents orders events by (start asc, end asc, peak desc) with a stable
// sort, the ordering required before ID assignment.
func sortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if !a.End.Equal(b.End) {
			return a.End.Before(b.End)
		}
		return a.PeakC > b.PeakC
	})
}

func validateEventSchema(events []Event, method string) error {
	for i, ev := range events {
		var missing []string
		if ev.Start.IsZero() {
			missing = append(missing, "start")
		}
		if ev.End.IsZero() {
			missing = append(missing, "end")
		}
		if ev.DurationDays <= 0 {
			missing = append(missing, "duration_d")
		}
		if math.IsNaN(ev.PeakC) {
			missing = append(missing, "peak_c")
		}
		if len(missing) > 0 {
			return &SchemaError{
				Input:  fmt.Sprintf("%s event %d", method, i),
				Fields: missing,
			}
		}
	}
	return nil
}
