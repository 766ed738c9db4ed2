// Package baseline reduces raw observation series to daily series and
// computes the climatological thresholds each detection method consumes:
// monthly Tmax normals for the INMET method, the Spic/Sdeb/Sint quantile
// triple for the Ouzeau method, and a single wet-bulb quantile for the
// TW_P90 method. Thresholds are computed once per baseline period and stay
// fixed for the whole detection run.
package baseline

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/thermoclima/heatwave-detect/internal/domain"
)

// Sample is one raw observation: a timestamp and a value at the input's
// native (typically hourly) frequency.
type Sample struct {
	Time  time.Time
	Value float64
}

// DailyMax reduces a sub-daily series to one row per calendar day carrying
// the day's maximum. Days without samples are absent from the output.
func DailyMax(samples []Sample) domain.DailySeries {
	return reduceDaily(samples, func(values []float64) float64 {
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return max
	})
}

// DailyMean reduces a sub-daily series to one row per calendar day carrying
// the day's arithmetic mean.
func DailyMean(samples []Sample) domain.DailySeries {
	return reduceDaily(samples, func(values []float64) float64 {
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	})
}

// reduceDaily groups samples by calendar day and applies the reducer,
// returning the daily series in ascending date order.
func reduceDaily(samples []Sample, reduce func([]float64) float64) domain.DailySeries {
	byDay := make(map[time.Time][]float64)
	for _, s := range samples {
		day := domain.DateOf(s.Time)
		byDay[day] = append(byDay[day], s.Value)
	}

	out := make(domain.DailySeries, 0, len(byDay))
	for day, values := range byDay {
		out = append(out, domain.DayValue{Date: day, Value: reduce(values)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// MonthlyNormalsTmax computes the monthly climatological normal as the mean
// of the daily maxima falling inside the baseline period, per calendar
// month. Months with no baseline data are absent from the result.
func MonthlyNormalsTmax(dailyMax domain.DailySeries, period domain.BaselinePeriod) domain.MonthlyNormals {
	sums := make(map[time.Month]float64)
	counts := make(map[time.Month]int)
	for _, dv := range inPeriod(dailyMax, period) {
		m := dv.Date.Month()
		sums[m] += dv.Value
		counts[m]++
	}

	normals := make(domain.MonthlyNormals, len(sums))
	for m, sum := range sums {
		normals[m] = sum / float64(counts[m])
	}
	return normals
}

// OuzeauThresholds computes the Spic/Sdeb/Sint triple as the 0.995, 0.975,
// and 0.95 quantiles of the baseline daily-mean distribution.
func OuzeauThresholds(dailyMean domain.DailySeries, period domain.BaselinePeriod) (domain.OuzeauThresholds, error) {
	ref := values(inPeriod(dailyMean, period))
	if len(ref) == 0 {
		return domain.OuzeauThresholds{}, fmt.Errorf("ouzeau thresholds: no daily means inside baseline %s..%s",
			period.Start.Format("2006-01-02"), period.End.Format("2006-01-02"))
	}
	return domain.OuzeauThresholds{
		Spic: Quantile(ref, 0.995),
		Sdeb: Quantile(ref, 0.975),
		Sint: Quantile(ref, 0.95),
	}, nil
}

// WetBulbThreshold computes the wet-bulb detection threshold as the given
// quantile (conventionally 0.90) of the baseline daily wet-bulb
// distribution.
func WetBulbThreshold(dailyTw domain.DailySeries, period domain.BaselinePeriod, q float64) (float64, error) {
	ref := values(inPeriod(dailyTw, period))
	if len(ref) == 0 {
		return 0, fmt.Errorf("wet-bulb threshold: no daily values inside baseline %s..%s",
			period.Start.Format("2006-01-02"), period.End.Format("2006-01-02"))
	}
	return Quantile(ref, q), nil
}

// Quantile returns the q-th quantile (0 <= q <= 1) of xs using linear
// interpolation between closest ranks. The input is not modified.
// An empty input yields NaN; callers wanting an error should check for
// emptiness themselves.
func Quantile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}

	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}
	h := q * float64(len(sorted)-1)
	lo := int(h)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// inPeriod filters a daily series to the inclusive baseline bounds.
func inPeriod(s domain.DailySeries, period domain.BaselinePeriod) domain.DailySeries {
	start, end := domain.DateOf(period.Start), domain.DateOf(period.End)
	var out domain.DailySeries
	for _, dv := range s {
		day := domain.DateOf(dv.Date)
		if !day.Before(start) && !day.After(end) {
			out = append(out, dv)
		}
	}
	return out
}

func values(s domain.DailySeries) []float64 {
	out := make([]float64, len(s))
	for i, dv := range s {
		out[i] = dv.Value
	}
	return out
}
