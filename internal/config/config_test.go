package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "raw-site-observations", cfg.Kafka.SourceTopic)
	assert.Equal(t, "heatwave-events", cfg.Kafka.EventsTopic)
	assert.Equal(t, "heatwave-timelines", cfg.Kafka.TimelineTopic)
	assert.Equal(t, "heatwave-detect", cfg.Kafka.GroupID)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 10, cfg.Batch.Size)
	assert.Equal(t, 500*time.Millisecond, cfg.Batch.FlushInterval)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Equal(t, "v1", cfg.Detection.MethodVersion)
	assert.Equal(t, 5.0, cfg.Detection.INMETDeltaC)
	assert.Equal(t, 3, cfg.Detection.OuzeauNConsecutive)
	assert.Equal(t, 3, cfg.Detection.WetBulbMinDays)
	assert.Equal(t, 0.90, cfg.Detection.WetBulbQuantile)

	start, end, err := cfg.BaselinePeriod()
	require.NoError(t, err)
	assert.Equal(t, time.Date(1991, time.January, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2020, time.December, 31, 0, 0, 0, 0, time.UTC), end)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HEATWAVE_KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("HEATWAVE_LOGGING_LEVEL", "debug")
	t.Setenv("HEATWAVE_DETECTION_INMET_DELTA_C", "4.5")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "custom-source", cfg.Kafka.SourceTopic)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 4.5, cfg.Detection.INMETDeltaC)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		value string
	}{
		{"bad log level", "HEATWAVE_LOGGING_LEVEL", "verbose"},
		{"bad log format", "HEATWAVE_LOGGING_FORMAT", "xml"},
		{"bad baseline start", "HEATWAVE_BASELINE_START", "not-a-date"},
		{"quantile out of range", "HEATWAVE_DETECTION_WETBULB_QUANTILE", "1.5"},
		{"empty events topic", "HEATWAVE_KAFKA_EVENTS_TOPIC", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			_, err := Load("")
			require.Error(t, err)
		})
	}
}

func TestValidate_BaselineOrder(t *testing.T) {
	t.Setenv("HEATWAVE_BASELINE_START", "2021-01-01")
	t.Setenv("HEATWAVE_BASELINE_END", "1991-12-31")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "precedes")
}
