// Command validate performs offline integrity checks on an observation
// bundle fixture: it runs the full detection pipeline over the bundle and
// verifies event schema, ID stability, ordering, per-method non-overlap,
// metric sanity, and projection consistency.
//
// Usage:
//
//	go run ./cmd/validate -bundle data/mock/sbsp_bundle.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/thermoclima/heatwave-detect/internal/domain"
	"github.com/thermoclima/heatwave-detect/internal/pipeline"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

var eventIDPattern = regexp.MustCompile(`^.+-(INMET|Ouzeau|TW_P90)-\d{8}-\d{3}$`)

func main() {
	bundlePath := flag.String("bundle", "", "path to observation bundle JSON fixture")
	flag.Parse()

	if *bundlePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*bundlePath); code != 0 {
		os.Exit(code)
	}
}

func run(bundlePath string) int {
	// Fix the clock so repeated runs produce identical ProcessedAt values.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.January, 15, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	data, err := os.ReadFile(bundlePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read bundle: %v\n", err)
		return 1
	}

	phases := []*phase{
		{name: "bundle schema"},
		{name: "event integrity"},
		{name: "projection consistency"},
	}

	set, ok := checkBundle(phases[0], data)
	var result domain.AnalysisResult
	if ok {
		result, ok = analyze(phases[1], data)
	}
	if ok {
		checkEvents(phases[1], result)
		checkProjections(phases[2], set, result)
	}

	failed := 0
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = "FAIL"
			failed++
		}
		fmt.Printf("[%s] %s\n", status, p.name)
		for _, e := range p.errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	if failed > 0 {
		fmt.Printf("\n%d phase(s) failed\n", failed)
		return 1
	}
	fmt.Printf("\nall phases passed: %d events across %d records\n",
		len(result.Events), len(set.Records))
	return 0
}

func checkBundle(p *phase, data []byte) (domain.ObservationSet, bool) {
	set, err := domain.ParseRawObservations(domain.RawEvent{Value: data})
	if err != nil {
		p.errorf("parse: %v", err)
		return domain.ObservationSet{}, false
	}
	for i := 1; i < len(set.Records); i++ {
		if set.Records[i].Timeset.Before(set.Records[i-1].Timeset) {
			p.errorf("records out of order at index %d (%s after %s)",
				i, set.Records[i].Timeset, set.Records[i-1].Timeset)
			break
		}
	}
	if set.Baseline != nil && set.Baseline.End.Before(set.Baseline.Start) {
		p.errorf("baseline end %s precedes start %s", set.Baseline.End, set.Baseline.Start)
	}
	return set, true
}

func analyze(p *phase, data []byte) (domain.AnalysisResult, bool) {
	analyzer := pipeline.NewAnalyzer(pipeline.DetectionSettings{
		MethodVersion:      "v1",
		INMETDeltaC:        5.0,
		OuzeauNConsecutive: 3,
		WetBulbMinDays:     3,
		WetBulbQuantile:    0.90,
	}, slog.Default())

	result, err := analyzer.Analyze(context.Background(), domain.RawEvent{Value: data})
	if err != nil {
		p.errorf("analyze: %v", err)
		return domain.AnalysisResult{}, false
	}
	return result, true
}

func checkEvents(p *phase, result domain.AnalysisResult) {
	seen := map[string]bool{}
	lastEnd := map[string]time.Time{}

	for _, ev := range result.Events {
		if !eventIDPattern.MatchString(ev.ID) {
			p.errorf("event %q: malformed ID", ev.ID)
		}
		if seen[ev.ID] {
			p.errorf("event %q: duplicate ID", ev.ID)
		}
		seen[ev.ID] = true

		if ev.SiteID != result.SiteID {
			p.errorf("event %q: site %q does not match bundle %q", ev.ID, ev.SiteID, result.SiteID)
		}
		if ev.End.Before(ev.Start) {
			p.errorf("event %q: end precedes start", ev.ID)
		}
		if ev.DurationDays < 1 {
			p.errorf("event %q: non-positive duration %d", ev.ID, ev.DurationDays)
		}
		if ev.SeverityCDay < 0 {
			p.errorf("event %q: negative severity %.2f", ev.ID, ev.SeverityCDay)
		}

		// Events of one method must not overlap in time.
		if prev, ok := lastEnd[ev.Method]; ok && !ev.Start.After(prev) {
			p.errorf("event %q: overlaps previous %s event ending %s",
				ev.ID, ev.Method, prev.Format("2006-01-02"))
		}
		if ev.End.After(lastEnd[ev.Method]) {
			lastEnd[ev.Method] = ev.End
		}
	}
}

func checkProjections(p *phase, set domain.ObservationSet, result domain.AnalysisResult) {
	for _, tl := range result.Timelines {
		if len(tl.Points) != len(set.Records) {
			p.errorf("timeline %s: %d points for %d records", tl.Label, len(tl.Points), len(set.Records))
			continue
		}
		covered := 0
		for _, pt := range tl.Points {
			if pt.Metrics != nil {
				covered++
			}
		}
		fmt.Printf("  timeline %s: %d/%d timestamps inside events\n", tl.Label, covered, len(tl.Points))

		// The serialized rows must carry the label-prefixed keys.
		data, err := json.Marshal(tl)
		if err != nil {
			p.errorf("timeline %s: marshal: %v", tl.Label, err)
			continue
		}
		var rows []map[string]any
		if err := json.Unmarshal(data, &rows); err != nil {
			p.errorf("timeline %s: unmarshal rows: %v", tl.Label, err)
			continue
		}
		if len(rows) > 0 {
			if _, ok := rows[0][tl.Label+"_hw_id"]; !ok {
				p.errorf("timeline %s: rows missing %s_hw_id key", tl.Label, tl.Label)
			}
		}
	}
}
