// Command genmock generates a synthetic per-site observation bundle fixture
// with a seasonal temperature cycle and injected hot spells, then runs the
// actual detection pipeline over it so the printed event summary matches
// real analyzer behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -site SBSP \
//	  -out data/mock/sbsp_bundle.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/thermoclima/heatwave-detect/internal/domain"
	"github.com/thermoclima/heatwave-detect/internal/pipeline"
)

// spell is a synthetic heat anomaly injected on top of the seasonal cycle.
type spell struct {
	start time.Time
	days  int
	boost float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	site := flag.String("site", "SBSP", "site identifier for the bundle")
	out := flag.String("out", "", "output path for the bundle JSON fixture")
	seed := flag.Int64("seed", 42, "random seed for reproducible noise")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	// Fix the clock for reproducible ProcessedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.January, 15, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	baseline := domain.BaselinePeriod{
		Start: time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2020, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
	spells := []spell{
		{start: time.Date(2023, time.January, 8, 0, 0, 0, 0, time.UTC), days: 6, boost: 8.0},
		{start: time.Date(2023, time.February, 14, 0, 0, 0, 0, time.UTC), days: 3, boost: 7.0},
		{start: time.Date(2023, time.December, 20, 0, 0, 0, 0, time.UTC), days: 4, boost: 9.0},
	}

	set := generateBundle(*site, baseline, spells, rand.New(rand.NewSource(*seed)))
	log.Printf("%s: %d records, %s..%s", *site, len(set.Records),
		set.Records[0].Timeset.Format("2006-01-02"),
		set.Records[len(set.Records)-1].Timeset.Format("2006-01-02"))

	if err := writeJSON(*out, set); err != nil {
		return fmt.Errorf("writing bundle fixture: %w", err)
	}
	log.Printf("wrote bundle fixture: %s", *out)

	return printDetections(set)
}

// generateBundle builds a three-year baseline plus one analysis year of
// four-per-day observations for a southern-hemisphere site: the seasonal
// cycle peaks in January, so the injected summer spells land on it.
func generateBundle(site string, baseline domain.BaselinePeriod, spells []spell, rng *rand.Rand) domain.ObservationSet {
	set := domain.ObservationSet{SiteID: site, Baseline: &baseline}

	end := time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC)
	for day := baseline.Start; !day.After(end); day = day.AddDate(0, 0, 1) {
		boost := 0.0
		for _, s := range spells {
			if !day.Before(s.start) && day.Before(s.start.AddDate(0, 0, s.days)) {
				boost = s.boost
			}
		}

		// Annual cycle: mean 22°C, amplitude 6°C, peak mid-January.
		doy := float64(day.YearDay())
		seasonal := 22.0 + 6.0*math.Cos(2*math.Pi*(doy-15)/365.25)
		noise := rng.NormFloat64() * 1.5

		for _, h := range []int{0, 6, 12, 18} {
			// Diurnal cycle: coolest at 06:00, warmest at 12:00 local.
			diurnal := map[int]float64{0: -2.0, 6: -4.5, 12: 5.5, 18: 1.0}[h]
			ta := seasonal + diurnal + noise + boost
			tw := ta - 4.0 - rng.Float64()
			set.Records = append(set.Records, domain.ObservationRecord{
				Timeset: day.Add(time.Duration(h) * time.Hour),
				TaC:     ta,
				TwbC:    &tw,
			})
		}
	}
	return set
}

// printDetections runs the analyzer over the generated bundle and prints
// the per-method event list for updating test assertions.
func printDetections(set domain.ObservationSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return err
	}

	analyzer := pipeline.NewAnalyzer(pipeline.DetectionSettings{
		MethodVersion:      "v1",
		INMETDeltaC:        5.0,
		OuzeauNConsecutive: 3,
		WetBulbMinDays:     3,
		WetBulbQuantile:    0.90,
	}, slog.Default())

	result, err := analyzer.Analyze(context.Background(), domain.RawEvent{Value: data})
	if err != nil {
		return fmt.Errorf("analyzing generated bundle: %w", err)
	}

	fmt.Println("\n=== Detected events for updating test assertions ===")
	byMethod := map[string]int{}
	for _, ev := range result.Events {
		byMethod[ev.Method]++
		fmt.Printf("  %-28s %s..%s  %dd  peak=%.1f  intensity=%.1f  severity=%.1f  %s\n",
			ev.ID,
			ev.Start.Format("2006-01-02"), ev.End.Format("2006-01-02"),
			ev.DurationDays, ev.PeakC, ev.IntensityC, ev.SeverityCDay, ev.Level)
	}
	fmt.Printf("Total: %d (INMET=%d, Ouzeau=%d, TW_P90=%d)\n",
		len(result.Events), byMethod[domain.MethodINMET],
		byMethod[domain.MethodOuzeau], byMethod[domain.MethodWetBulb])
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
