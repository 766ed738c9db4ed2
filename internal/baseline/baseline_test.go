package baseline

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thermoclima/heatwave-detect/internal/domain"
)

func ts(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestDailyReducers(t *testing.T) {
	samples := []Sample{
		{Time: ts(2023, time.January, 1, 0), Value: 20},
		{Time: ts(2023, time.January, 1, 12), Value: 30},
		{Time: ts(2023, time.January, 1, 23), Value: 25},
		// Jan 2 missing entirely.
		{Time: ts(2023, time.January, 3, 15), Value: 18},
	}

	t.Run("daily max", func(t *testing.T) {
		daily := DailyMax(samples)

		require.Len(t, daily, 2)
		assert.Equal(t, ts(2023, time.January, 1, 0), daily[0].Date)
		assert.Equal(t, 30.0, daily[0].Value)
		assert.Equal(t, ts(2023, time.January, 3, 0), daily[1].Date)
		assert.Equal(t, 18.0, daily[1].Value)
	})

	t.Run("daily mean", func(t *testing.T) {
		daily := DailyMean(samples)

		require.Len(t, daily, 2)
		assert.InDelta(t, 25.0, daily[0].Value, 1e-9)
		assert.Equal(t, 18.0, daily[1].Value)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, DailyMax(nil))
		assert.Empty(t, DailyMean(nil))
	})
}

func TestMonthlyNormalsTmax(t *testing.T) {
	period := domain.BaselinePeriod{
		Start: ts(2020, time.January, 1, 0),
		End:   ts(2021, time.December, 31, 0),
	}
	daily := domain.DailySeries{
		{Date: ts(2020, time.January, 10, 0), Value: 30},
		{Date: ts(2021, time.January, 10, 0), Value: 34},
		{Date: ts(2020, time.February, 5, 0), Value: 28},
		// Outside the baseline period, must be ignored.
		{Date: ts(2023, time.January, 10, 0), Value: 99},
	}

	normals := MonthlyNormalsTmax(daily, period)

	assert.InDelta(t, 32.0, normals[time.January], 1e-9)
	assert.Equal(t, 28.0, normals[time.February])
	_, ok := normals[time.March]
	assert.False(t, ok, "months without baseline data are absent")
}

func TestQuantile(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		q    float64
		want float64
	}{
		{"median of odd count", []float64{3, 1, 2}, 0.5, 2},
		{"median interpolates", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"minimum", []float64{5, 1, 9}, 0, 1},
		{"maximum", []float64{5, 1, 9}, 1, 9},
		{"single value", []float64{7}, 0.9, 7},
		{"p90 of decade", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Quantile(tt.xs, tt.q), 1e-9)
		})
	}

	t.Run("empty input yields NaN", func(t *testing.T) {
		assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
		assert.True(t, math.IsNaN(Quantile([]float64{}, 0.9)))
	})
}

func TestOuzeauThresholds(t *testing.T) {
	period := domain.BaselinePeriod{
		Start: ts(2020, time.January, 1, 0),
		End:   ts(2020, time.April, 30, 0),
	}

	t.Run("quantile triple is ascending", func(t *testing.T) {
		var daily domain.DailySeries
		for i := 0; i < 100; i++ {
			daily = append(daily, domain.DayValue{
				Date:  ts(2020, time.January, 1, 0).AddDate(0, 0, i),
				Value: float64(i),
			})
		}

		thr, err := OuzeauThresholds(daily, period)
		require.NoError(t, err)

		assert.InDelta(t, 94.05, thr.Sint, 1e-9)
		assert.InDelta(t, 96.525, thr.Sdeb, 1e-9)
		assert.InDelta(t, 98.505, thr.Spic, 1e-9)
		assert.Less(t, thr.Sint, thr.Sdeb)
		assert.Less(t, thr.Sdeb, thr.Spic)
	})

	t.Run("empty baseline window fails", func(t *testing.T) {
		daily := domain.DailySeries{{Date: ts(2023, time.June, 1, 0), Value: 20}}

		_, err := OuzeauThresholds(daily, period)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no daily means inside baseline")
	})
}

func TestWetBulbThreshold(t *testing.T) {
	period := domain.BaselinePeriod{
		Start: ts(2020, time.January, 1, 0),
		End:   ts(2020, time.December, 31, 0),
	}

	t.Run("computes the requested quantile", func(t *testing.T) {
		var daily domain.DailySeries
		for i := 0; i < 11; i++ {
			daily = append(daily, domain.DayValue{
				Date:  ts(2020, time.March, 1, 0).AddDate(0, 0, i),
				Value: float64(10 + i),
			})
		}

		thr, err := WetBulbThreshold(daily, period, 0.90)
		require.NoError(t, err)
		assert.InDelta(t, 19.0, thr, 1e-9)
	})

	t.Run("empty baseline window fails", func(t *testing.T) {
		_, err := WetBulbThreshold(nil, period, 0.90)
		require.Error(t, err)
	})
}
