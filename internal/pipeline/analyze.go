package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/thermoclima/heatwave-detect/internal/baseline"
	"github.com/thermoclima/heatwave-detect/internal/domain"
)

// DetectionSettings are the per-method parameters the analyzer applies to
// every observation bundle.
type DetectionSettings struct {
	MethodVersion      string
	INMETDeltaC        float64
	OuzeauNConsecutive int
	WetBulbMinDays     int
	WetBulbQuantile    float64

	// DefaultBaseline applies when a bundle carries no baseline of its own.
	DefaultBaseline domain.BaselinePeriod
}

// HeatwaveAnalyzer implements Analyzer: it aggregates a bundle's raw series
// into daily series, derives thresholds from the baseline window, runs the
// three detection methods, and standardizes, identifies, measures, and
// projects the resulting events.
type HeatwaveAnalyzer struct {
	settings DetectionSettings
	logger   *slog.Logger
}

// NewAnalyzer creates a HeatwaveAnalyzer.
func NewAnalyzer(settings DetectionSettings, logger *slog.Logger) *HeatwaveAnalyzer {
	return &HeatwaveAnalyzer{settings: settings, logger: logger}
}

func (a *HeatwaveAnalyzer) Analyze(_ context.Context, raw domain.RawEvent) (domain.AnalysisResult, error) {
	set, err := domain.ParseRawObservations(raw)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	period := a.settings.DefaultBaseline
	if set.Baseline != nil {
		period = *set.Baseline
	}

	taSamples := make([]baseline.Sample, len(set.Records))
	var twSamples []baseline.Sample
	for i, r := range set.Records {
		taSamples[i] = baseline.Sample{Time: r.Timeset, Value: r.TaC}
		if r.TwbC != nil {
			twSamples = append(twSamples, baseline.Sample{Time: r.Timeset, Value: *r.TwbC})
		}
	}

	dailyMax := baseline.DailyMax(taSamples)
	dailyMean := baseline.DailyMean(taSamples)
	timeline := set.Timeline()

	result := domain.AnalysisResult{SiteID: set.SiteID, Baseline: period}

	inmet, err := a.analyzeINMET(set.SiteID, dailyMean, dailyMax, period, timeline)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("site %s: INMET: %w", set.SiteID, err)
	}
	mergeResult(&result, inmet)

	ouzeau, err := a.analyzeOuzeau(set.SiteID, dailyMean, dailyMax, period, timeline)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("site %s: Ouzeau: %w", set.SiteID, err)
	}
	mergeResult(&result, ouzeau)

	if len(twSamples) > 0 {
		dailyTw := baseline.DailyMean(twSamples)
		wetbulb, err := a.analyzeWetBulb(set.SiteID, dailyTw, dailyMax, period, timeline)
		if err != nil {
			return domain.AnalysisResult{}, fmt.Errorf("site %s: TW_P90: %w", set.SiteID, err)
		}
		mergeResult(&result, wetbulb)
	} else {
		a.logger.Debug("no wet-bulb observations, skipping TW_P90", "site_id", set.SiteID)
	}

	return result, nil
}

// methodResult carries one method's contribution to the bundle result.
type methodResult struct {
	events   []domain.Event
	flags    domain.FlagSeries
	timeline domain.ProjectedTimeline
}

func mergeResult(r *domain.AnalysisResult, m methodResult) {
	r.Events = append(r.Events, m.events...)
	r.Flags = append(r.Flags, m.flags)
	r.Timelines = append(r.Timelines, m.timeline)
}

func (a *HeatwaveAnalyzer) analyzeINMET(siteID string, dailyMean, dailyMax domain.DailySeries, period domain.BaselinePeriod, timeline []time.Time) (methodResult, error) {
	normals := baseline.MonthlyNormalsTmax(dailyMax, period)

	events, flags := domain.DetectINMETEvents(dailyMax, normals, siteID, a.settings.INMETDeltaC)
	events, err := a.finishMethod(events, siteID, domain.MethodINMET,
		map[string]float64{"delta_c": a.settings.INMETDeltaC}, period,
		dailyMean, dailyMax, domain.Thresholds{
			Method:  domain.MethodINMET,
			Normals: domain.NewNormalsTable("normal_tmax_c", normals),
			DeltaC:  a.settings.INMETDeltaC,
		}, true)
	if err != nil {
		return methodResult{}, err
	}

	projected, err := domain.ExpandEventMetricsToTimeseries(events, timeline, "INMET")
	if err != nil {
		return methodResult{}, err
	}
	return methodResult{events: events, flags: flags, timeline: projected}, nil
}

func (a *HeatwaveAnalyzer) analyzeOuzeau(siteID string, dailyMean, dailyMax domain.DailySeries, period domain.BaselinePeriod, timeline []time.Time) (methodResult, error) {
	thr, err := baseline.OuzeauThresholds(dailyMean, period)
	if err != nil {
		return methodResult{}, err
	}

	events, flags := domain.DetectOuzeauEvents(dailyMean, thr, siteID, a.settings.OuzeauNConsecutive)
	events, err = a.finishMethod(events, siteID, domain.MethodOuzeau,
		map[string]float64{"spic": thr.Spic, "sdeb": thr.Sdeb, "sint": thr.Sint}, period,
		dailyMean, dailyMax, domain.Thresholds{
			Method:     domain.MethodOuzeau,
			ThresholdC: &thr.Sdeb,
		}, false)
	if err != nil {
		return methodResult{}, err
	}

	projected, err := domain.ExpandEventMetricsToTimeseries(events, timeline, "OUZ")
	if err != nil {
		return methodResult{}, err
	}
	return methodResult{events: events, flags: flags, timeline: projected}, nil
}

func (a *HeatwaveAnalyzer) analyzeWetBulb(siteID string, dailyTw, dailyMax domain.DailySeries, period domain.BaselinePeriod, timeline []time.Time) (methodResult, error) {
	threshold, err := baseline.WetBulbThreshold(dailyTw, period, a.settings.WetBulbQuantile)
	if err != nil {
		return methodResult{}, err
	}

	events, flags := domain.DetectWetBulbEvents(dailyTw, threshold, siteID, a.settings.WetBulbMinDays)
	events, err = a.finishMethod(events, siteID, domain.MethodWetBulb,
		map[string]float64{"tw_quantile": a.settings.WetBulbQuantile, "tw_threshold_c": threshold}, period,
		dailyTw, dailyMax, domain.Thresholds{
			Method:     domain.MethodWetBulb,
			ThresholdC: &threshold,
		}, false)
	if err != nil {
		return methodResult{}, err
	}

	projected, err := domain.ExpandEventMetricsToTimeseries(events, timeline, "TW")
	if err != nil {
		return methodResult{}, err
	}
	return methodResult{events: events, flags: flags, timeline: projected}, nil
}

// finishMethod runs the shared standardize -> identify -> measure tail of
// every method.
func (a *HeatwaveAnalyzer) finishMethod(
	events []domain.Event,
	siteID, method string,
	thresholdInfo map[string]float64,
	period domain.BaselinePeriod,
	dailyMean, dailyMax domain.DailySeries,
	thr domain.Thresholds,
	levelByDuration bool,
) ([]domain.Event, error) {
	std, err := domain.StandardizeEvents(events, siteID, method, a.settings.MethodVersion, domain.StandardizeOptions{
		Baseline:           &period,
		ThresholdInfo:      thresholdInfo,
		AddLevelByDuration: levelByDuration,
	})
	if err != nil {
		return nil, err
	}
	std = domain.AttachEventID(std, siteID, method)
	return domain.ComputeEventMetrics(std, dailyMean, dailyMax, thr)
}

