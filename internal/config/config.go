// Package config loads service settings from defaults, an optional config
// file, and HEATWAVE_*-prefixed environment variables, in increasing order
// of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service settings.
type Config struct {
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Detection DetectionConfig `mapstructure:"detection"`
	Baseline  BaselineConfig  `mapstructure:"baseline"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// KafkaConfig holds broker and topic settings.
type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	SourceTopic   string   `mapstructure:"source_topic"`
	EventsTopic   string   `mapstructure:"events_topic"`
	TimelineTopic string   `mapstructure:"timeline_topic"`
	GroupID       string   `mapstructure:"group_id"`
}

// HTTPConfig holds the health/metrics server settings.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// BatchConfig holds the pipeline batching settings.
type BatchConfig struct {
	Size          int           `mapstructure:"size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// DetectionConfig holds the per-method detection parameters.
type DetectionConfig struct {
	MethodVersion string `mapstructure:"method_version"`

	// INMET fixed offset above the monthly normal, in °C.
	INMETDeltaC float64 `mapstructure:"inmet_delta_c"`
	// Consecutive days below Sdeb required to end an Ouzeau event.
	OuzeauNConsecutive int `mapstructure:"ouzeau_n_consecutive"`
	// Minimum run length for a wet-bulb event, in days.
	WetBulbMinDays int `mapstructure:"wetbulb_min_days"`
	// Quantile of the baseline wet-bulb distribution used as threshold.
	WetBulbQuantile float64 `mapstructure:"wetbulb_quantile"`
}

// BaselineConfig holds the default baseline period, used when an observation
// bundle does not carry its own.
type BaselineConfig struct {
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"`
}

// Load reads configuration from defaults, the optional config file at path,
// and environment variables. Pass an empty path to skip the file.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("HEATWAVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.source_topic", "raw-site-observations")
	v.SetDefault("kafka.events_topic", "heatwave-events")
	v.SetDefault("kafka.timeline_topic", "heatwave-timelines")
	v.SetDefault("kafka.group_id", "heatwave-detect")

	v.SetDefault("http.addr", ":8080")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("batch.size", 10)
	v.SetDefault("batch.flush_interval", "500ms")

	v.SetDefault("detection.method_version", "v1")
	v.SetDefault("detection.inmet_delta_c", 5.0)
	v.SetDefault("detection.ouzeau_n_consecutive", 3)
	v.SetDefault("detection.wetbulb_min_days", 3)
	v.SetDefault("detection.wetbulb_quantile", 0.90)

	v.SetDefault("baseline.start", "1991-01-01")
	v.SetDefault("baseline.end", "2020-12-31")

	v.SetDefault("shutdown_timeout", "10s")
}

// Validate checks that all configuration values are usable.
func (c *Config) Validate() error {
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required")
	}
	if c.Kafka.SourceTopic == "" {
		return fmt.Errorf("kafka.source_topic is required")
	}
	if c.Kafka.EventsTopic == "" {
		return fmt.Errorf("kafka.events_topic is required")
	}
	if c.Kafka.TimelineTopic == "" {
		return fmt.Errorf("kafka.timeline_topic is required")
	}
	if c.Batch.Size < 1 {
		return fmt.Errorf("batch.size must be at least 1")
	}
	if c.Batch.FlushInterval <= 0 {
		return fmt.Errorf("batch.flush_interval must be positive")
	}
	if c.Detection.OuzeauNConsecutive < 1 {
		return fmt.Errorf("detection.ouzeau_n_consecutive must be at least 1")
	}
	if c.Detection.WetBulbMinDays < 1 {
		return fmt.Errorf("detection.wetbulb_min_days must be at least 1")
	}
	if c.Detection.WetBulbQuantile <= 0 || c.Detection.WetBulbQuantile >= 1 {
		return fmt.Errorf("detection.wetbulb_quantile must be inside (0, 1)")
	}
	if _, _, err := c.BaselinePeriod(); err != nil {
		return err
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}
	return nil
}

// BaselinePeriod parses the configured baseline bounds.
func (c *Config) BaselinePeriod() (start, end time.Time, err error) {
	start, err = time.Parse("2006-01-02", c.Baseline.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("baseline.start: %w", err)
	}
	end, err = time.Parse("2006-01-02", c.Baseline.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("baseline.end: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("baseline.end %s precedes baseline.start %s", c.Baseline.End, c.Baseline.Start)
	}
	return start, end, nil
}
