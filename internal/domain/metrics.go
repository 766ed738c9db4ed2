package domain

import "time"

// normalColumnCandidates are the column names historical normals exports
// have used for the Tmax climatological normal, tried in order.
var normalColumnCandidates = []string{"tmax_norm", "normal_tmax_c", "tmax_mean", "tmax_clim", "tmax"}

// NormalsTable holds monthly climatological normals keyed by column name.
// Upstream exports have renamed the normal column over the years, so the
// metrics engine resolves it from a candidate list instead of demanding one
// fixed name.
type NormalsTable struct {
	Columns map[string]map[time.Month]float64 `json:"columns"`
}

// NewNormalsTable builds a single-column normals table.
func NewNormalsTable(column string, byMonth MonthlyNormals) *NormalsTable {
	col := make(map[time.Month]float64, len(byMonth))
	for m, v := range byMonth {
		col[m] = v
	}
	return &NormalsTable{Columns: map[string]map[time.Month]float64{column: col}}
}

// Normals resolves the normal column and returns it as MonthlyNormals.
// Returns a schema error when no recognized column is present.
func (t *NormalsTable) Normals() (MonthlyNormals, error) {
	for _, name := range normalColumnCandidates {
		if col, ok := t.Columns[name]; ok {
			out := make(MonthlyNormals, len(col))
			for m, v := range col {
				out[m] = v
			}
			return out, nil
		}
	}
	return nil, &SchemaError{Input: "normals table", Fields: normalColumnCandidates}
}

// Thresholds binds a detection method to the parameters its daily excess is
// computed against: the INMET method needs the monthly normals plus an
// offset, the Ouzeau and wet-bulb methods a single scalar.
type Thresholds struct {
	Method string

	// INMET parameters.
	Normals *NormalsTable
	DeltaC  float64

	// Ouzeau / wet-bulb scalar threshold (Sdeb for Ouzeau, the wet-bulb
	// percentile value for TW_P90).
	ThresholdC *float64
}

// dayExcess is one row of the ephemeral daily excess table: how far the
// observed value sat above the method's threshold that day, clipped at zero.
type dayExcess struct {
	Excess    float64
	Threshold float64
	Value     float64
}

// ComputeEventMetrics enriches standardized events with the per-event
// metrics:
//
//   - duration_d, derived from the date-truncated span when not already set;
//   - intensity_c, the maximum daily-max value over the event span (days
//     without data are excluded; an event entirely outside the data gets 0);
//   - severity_cday, the degree-day accumulation of daily excess above the
//     method's threshold over the span (missing days contribute 0).
//
// The daily excess table is computed once for the whole method, not per
// event. Missing threshold parameters and unknown method tags fail before
// any per-event work. The input slice is not modified.
func ComputeEventMetrics(events []Event, dailyMean, dailyMax DailySeries, thr Thresholds) ([]Event, error) {
	excess, err := dailyExcessTable(dailyMean, dailyMax, thr)
	if err != nil {
		return nil, err
	}
	tmax := dailyMax.ByDate()

	out := make([]Event, len(events))
	for i, ev := range events {
		if ev.DurationDays == 0 {
			ev.DurationDays = daysBetween(ev.Start, ev.End)
		}
		ev.IntensityC = eventIntensity(ev, tmax)
		ev.SeverityCDay = eventSeverity(ev, excess)
		out[i] = ev
	}
	return out, nil
}

// dailyExcessTable builds the per-day excess above the method's threshold.
func dailyExcessTable(dailyMean, dailyMax DailySeries, thr Thresholds) (map[time.Time]dayExcess, error) {
	switch thr.Method {
	case MethodINMET:
		if thr.Normals == nil {
			return nil, &MissingThresholdError{Method: MethodINMET, Param: "normals table"}
		}
		normals, err := thr.Normals.Normals()
		if err != nil {
			return nil, err
		}
		return excessAboveNormals(dailyMax, normals, thr.DeltaC), nil
	case MethodOuzeau:
		if thr.ThresholdC == nil {
			return nil, &MissingThresholdError{Method: MethodOuzeau, Param: "sdeb_c"}
		}
		return excessAboveScalar(dailyMean, *thr.ThresholdC), nil
	case MethodWetBulb:
		if thr.ThresholdC == nil {
			return nil, &MissingThresholdError{Method: MethodWetBulb, Param: "threshold_c"}
		}
		return excessAboveScalar(dailyMean, *thr.ThresholdC), nil
	default:
		return nil, &UnknownMethodError{Method: thr.Method}
	}
}

// excessAboveNormals computes excess = max(value - (normal + delta), 0) per
// day. Days whose month has no normal carry no excess.
func excessAboveNormals(daily DailySeries, normals MonthlyNormals, deltaC float64) map[time.Time]dayExcess {
	table := make(map[time.Time]dayExcess, len(daily))
	for _, dv := range daily {
		day := DateOf(dv.Date)
		normal, ok := normals[day.Month()]
		if !ok {
			continue
		}
		threshold := normal + deltaC
		table[day] = dayExcess{
			Excess:    clipAtZero(dv.Value - threshold),
			Threshold: threshold,
			Value:     dv.Value,
		}
	}
	return table
}

// excessAboveScalar computes excess = max(value - threshold, 0) per day.
func excessAboveScalar(daily DailySeries, threshold float64) map[time.Time]dayExcess {
	table := make(map[time.Time]dayExcess, len(daily))
	for _, dv := range daily {
		table[DateOf(dv.Date)] = dayExcess{
			Excess:    clipAtZero(dv.Value - threshold),
			Threshold: threshold,
			Value:     dv.Value,
		}
	}
	return table
}

// eventIntensity is the maximum daily-max value across the event span, or 0
// when no day in the span has data.
func eventIntensity(ev Event, tmax map[time.Time]float64) float64 {
	intensity := 0.0
	found := false
	eachDay(ev.Start, ev.End, func(day time.Time) {
		v, ok := tmax[day]
		if !ok {
			return
		}
		if !found || v > intensity {
			intensity = v
		}
		found = true
	})
	return intensity
}

// eventSeverity accumulates daily excess across the event span in
// degree-days. Missing days contribute 0.
func eventSeverity(ev Event, excess map[time.Time]dayExcess) float64 {
	severity := 0.0
	eachDay(ev.Start, ev.End, func(day time.Time) {
		severity += excess[day].Excess
	})
	return severity
}

func clipAtZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
