package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// EventMetrics is the per-event record projected onto every timestamp an
// event covers.
type EventMetrics struct {
	EventID      string  `json:"hw_id"`
	DurationDays int     `json:"duration_d"`
	IntensityC   float64 `json:"intensity_c"`
	SeverityCDay float64 `json:"severity_cday"`
	Method       string  `json:"method"`
}

// ProjectedPoint is one timestamp of a projected timeline. Metrics is nil
// for timestamps outside any event: absence, not zero, is what tells "no
// event" apart from "event with zero severity".
type ProjectedPoint struct {
	Time    time.Time
	Metrics *EventMetrics
}

// ProjectedTimeline is the full input timeline with per-event metrics
// attached to every covered timestamp. Label is the upper-cased method
// label that prefixes the attribute keys in the serialized form, e.g.
// INMET_hw_id, OUZ_severity_cday.
type ProjectedTimeline struct {
	Label  string
	Points []ProjectedPoint
}

// ExpandEventMetricsToTimeseries expands each event's scalar metrics onto
// every timestamp of the timeline whose calendar day falls inside the
// event's [start, end] span. Timestamps outside all events get nil metrics.
//
// Detectors emit temporally non-overlapping events per method, so two events
// claiming the same day means the input is corrupt; that returns an
// OverlapError rather than silently picking a winner.
func ExpandEventMetricsToTimeseries(events []Event, timeline []time.Time, methodLabel string) (ProjectedTimeline, error) {
	byDay := make(map[time.Time]*EventMetrics)
	for i := range events {
		ev := events[i]
		metrics := &EventMetrics{
			EventID:      ev.ID,
			DurationDays: ev.DurationDays,
			IntensityC:   ev.IntensityC,
			SeverityCDay: ev.SeverityCDay,
			Method:       ev.Method,
		}
		var overlap *OverlapError
		eachDay(ev.Start, ev.End, func(day time.Time) {
			if prev, ok := byDay[day]; ok && overlap == nil {
				overlap = &OverlapError{Day: day, EventIDs: [2]string{prev.EventID, ev.ID}}
				return
			}
			byDay[day] = metrics
		})
		if overlap != nil {
			return ProjectedTimeline{}, overlap
		}
	}

	out := ProjectedTimeline{
		Label:  strings.ToUpper(methodLabel),
		Points: make([]ProjectedPoint, len(timeline)),
	}
	for i, t := range timeline {
		out.Points[i] = ProjectedPoint{Time: t, Metrics: byDay[DateOf(t)]}
	}
	return out, nil
}

// MarshalJSON serializes the timeline as an array of flat rows with the
// metric keys prefixed by the method label, nulls outside events:
//
//	{"timeset":"...","INMET_hw_id":"...","INMET_duration_d":3,...}
func (tl ProjectedTimeline) MarshalJSON() ([]byte, error) {
	rows := make([]map[string]any, len(tl.Points))
	for i, p := range tl.Points {
		row := map[string]any{"timeset": p.Time}
		for _, key := range []string{"hw_id", "duration_d", "intensity_c", "severity_cday", "method"} {
			row[tl.Label+"_"+key] = nil
		}
		if p.Metrics != nil {
			row[tl.Label+"_hw_id"] = p.Metrics.EventID
			row[tl.Label+"_duration_d"] = p.Metrics.DurationDays
			row[tl.Label+"_intensity_c"] = p.Metrics.IntensityC
			row[tl.Label+"_severity_cday"] = p.Metrics.SeverityCDay
			row[tl.Label+"_method"] = p.Metrics.Method
		}
		rows[i] = row
	}
	return json.Marshal(rows)
}

// FlagsFromEvents derives a boolean flag column over the timeline: a
// timestamp is flagged iff its calendar day lies inside at least one event
// of the given method, comparing date-normalized bounds inclusively.
func FlagsFromEvents(events []Event, timeline []time.Time, method, name string) FlagSeries {
	flags := FlagSeries{Name: name, Points: make([]FlagPoint, len(timeline))}
	for i, t := range timeline {
		day := DateOf(t)
		point := FlagPoint{Time: t}
		for _, ev := range events {
			if ev.Method != method {
				continue
			}
			if !day.Before(DateOf(ev.Start)) && !day.After(DateOf(ev.End)) {
				point.Flag = true
				break
			}
		}
		flags.Points[i] = point
	}
	return flags
}
