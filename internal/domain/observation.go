package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ObservationRecord is one timestep of a site's temperature series. TaC is
// the dry-bulb air temperature; TwbC, when present, is the wet-bulb
// temperature the TW_P90 method detects on.
type ObservationRecord struct {
	Timeset time.Time `json:"timeset"`
	TaC     float64   `json:"ta_c"`
	TwbC    *float64  `json:"twb_c,omitempty"`
}

// ObservationSet is the per-site observation bundle published by the
// collector: the site's full (typically hourly) temperature timeline, with
// an optional baseline-period override.
type ObservationSet struct {
	SiteID   string              `json:"site_id"`
	Baseline *BaselinePeriod     `json:"baseline,omitempty"`
	Records  []ObservationRecord `json:"records"`
}

// ParseRawObservations deserializes a RawEvent's value into an
// ObservationSet and validates the fields detection cannot run without.
func ParseRawObservations(raw RawEvent) (ObservationSet, error) {
	var set ObservationSet
	if err := json.Unmarshal(raw.Value, &set); err != nil {
		return ObservationSet{}, fmt.Errorf("parse observation set: %w", err)
	}

	var missing []string
	if set.SiteID == "" {
		missing = append(missing, "site_id")
	}
	if len(set.Records) == 0 {
		missing = append(missing, "records")
	}
	if len(missing) > 0 {
		return ObservationSet{}, &SchemaError{Input: "observation set", Fields: missing}
	}
	return set, nil
}

// Timeline returns the set's timestamps in input order.
func (s ObservationSet) Timeline() []time.Time {
	out := make([]time.Time, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.Timeset
	}
	return out
}
