package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/thermoclima/heatwave-detect/internal/config"
	"github.com/thermoclima/heatwave-detect/internal/domain"
)

// Writer publishes analysis results to the sink topics: one message per
// detected event on the events topic, one message per site and method on
// the timeline topic. It implements pipeline.BatchLoader.
type Writer struct {
	events    *kafkago.Writer
	timelines *kafkago.Writer
	logger    *slog.Logger
}

// NewWriter creates Kafka producers for the configured sink topics.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	newTopicWriter := func(topic string) *kafkago.Writer {
		return &kafkago.Writer{
			Addr:         kafkago.TCP(cfg.Kafka.Brokers...),
			Topic:        topic,
			Balancer:     &kafkago.LeastBytes{},
			RequiredAcks: kafkago.RequireAll,
		}
	}
	return &Writer{
		events:    newTopicWriter(cfg.Kafka.EventsTopic),
		timelines: newTopicWriter(cfg.Kafka.TimelineTopic),
		logger:    logger,
	}
}

// LoadBatch serializes and publishes a batch of analysis results, each
// topic written in a single WriteMessages call for efficiency.
func (w *Writer) LoadBatch(ctx context.Context, results []domain.AnalysisResult) error {
	var eventMsgs, timelineMsgs []kafkago.Message

	for _, result := range results {
		for _, ev := range result.Events {
			msg, err := serializeEvent(ev)
			if err != nil {
				return err
			}
			eventMsgs = append(eventMsgs, msg)
		}
		for i, tl := range result.Timelines {
			var flags domain.FlagSeries
			if i < len(result.Flags) {
				flags = result.Flags[i]
			}
			msg, err := serializeTimeline(result, tl, flags)
			if err != nil {
				return err
			}
			timelineMsgs = append(timelineMsgs, msg)
		}
	}

	if len(eventMsgs) > 0 {
		if err := w.events.WriteMessages(ctx, eventMsgs...); err != nil {
			return fmt.Errorf("publish events: %w", err)
		}
	}
	if len(timelineMsgs) > 0 {
		if err := w.timelines.WriteMessages(ctx, timelineMsgs...); err != nil {
			return fmt.Errorf("publish timelines: %w", err)
		}
	}
	return nil
}

func (w *Writer) Close() error {
	return errors.Join(w.events.Close(), w.timelines.Close())
}

// serializeEvent marshals a heatwave event into a Kafka message keyed by
// its stable ID, so replays overwrite rather than duplicate.
func serializeEvent(ev domain.Event) (kafkago.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize event %s: %w", ev.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(ev.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "method", Value: []byte(ev.Method)},
			{Key: "processed_at", Value: []byte(ev.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}

// timelineRecord is the wire form of one method's projection for one site:
// the prefixed per-timestamp rows plus the matching boolean flag column.
type timelineRecord struct {
	SiteID   string                   `json:"site_id"`
	Label    string                   `json:"label"`
	Baseline domain.BaselinePeriod    `json:"baseline"`
	Rows     domain.ProjectedTimeline `json:"rows"`
	Flags    domain.FlagSeries        `json:"flags"`
}

func serializeTimeline(result domain.AnalysisResult, tl domain.ProjectedTimeline, flags domain.FlagSeries) (kafkago.Message, error) {
	record := timelineRecord{
		SiteID:   result.SiteID,
		Label:    tl.Label,
		Baseline: result.Baseline,
		Rows:     tl,
		Flags:    flags,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize timeline %s/%s: %w", result.SiteID, tl.Label, err)
	}
	return kafkago.Message{
		Key:   []byte(result.SiteID + ":" + tl.Label),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "label", Value: []byte(tl.Label)},
		},
	}, nil
}
