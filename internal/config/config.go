package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix     = "BUNDLE"
	configFileEnv = "BUNDLE_CONFIG_FILE"
)

var defaultExcludedResources = []string{"/favicon.ico", "/pixel.gif", "/pixel%20.gif"}

// Config is read from an optional YAML file, then overridden by BUNDLE_ prefixed environment variables.
type Config struct {
	Log LogConfig `yaml:"log"`

	GRPCAddr  string `yaml:"grpc_addr" envconfig:"GRPC_ADDR"`
	AdminAddr string `yaml:"admin_addr" envconfig:"ADMIN_ADDR"`

	S3PerBucketScopes         bool     `yaml:"s3_per_bucket_scopes" envconfig:"S3_PER_BUCKET_SCOPES"`
	RelayProcessTime          bool     `yaml:"relay_process_time" envconfig:"RELAY_PROCESS_TIME"`
	ResourceExclusionsEnabled *bool    `yaml:"resource_exclusions_enabled" envconfig:"RESOURCE_EXCLUSIONS_ENABLED"`
	ExcludedResources         []string `yaml:"excluded_resources" envconfig:"EXCLUDED_RESOURCES"`
	DefaultDevice             string   `yaml:"default_device" envconfig:"DEFAULT_DEVICE"`

	PendingRequestTTL      time.Duration `yaml:"pending_request_ttl" envconfig:"PENDING_REQUEST_TTL"`
	PendingRequestCapacity int64         `yaml:"pending_request_capacity" envconfig:"PENDING_REQUEST_CAPACITY"`

	MaxDetailLabels   int `yaml:"max_detail_labels" envconfig:"MAX_DETAIL_LABELS"`
	MaxResourceScopes int `yaml:"max_resource_scopes" envconfig:"MAX_RESOURCE_SCOPES"`
	MaxDeviceScopes   int `yaml:"max_device_scopes" envconfig:"MAX_DEVICE_SCOPES"`
	MaxSamples        int `yaml:"max_samples" envconfig:"MAX_SAMPLES"`
	MaxDatasetPoints  int `yaml:"max_dataset_points" envconfig:"MAX_DATASET_POINTS"`

	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Prometheus    PrometheusConfig    `yaml:"prometheus"`
	CloudWatch    CloudWatchConfig    `yaml:"cloudwatch"`
}

type LogConfig struct {
	Level       string `yaml:"level" split_words:"true"`
	Development bool   `yaml:"development" split_words:"true"`
}

type ElasticsearchConfig struct {
	Enabled       bool          `yaml:"enabled" split_words:"true"`
	Addresses     []string      `yaml:"addresses" split_words:"true"`
	Index         string        `yaml:"index" split_words:"true"`
	FlushInterval time.Duration `yaml:"flush_interval" split_words:"true"`
	QueueSize     int           `yaml:"queue_size" split_words:"true"`
	// Refresh is passed to the bulk API: false, true or wait_for.
	Refresh string `yaml:"refresh" split_words:"true"`
}

type PrometheusConfig struct {
	Enabled             bool `yaml:"enabled" split_words:"true"`
	IncludeDetailLabels bool `yaml:"include_detail_labels" split_words:"true"`
}

type CloudWatchConfig struct {
	Namespace     string        `yaml:"namespace" split_words:"true"`
	Region        string        `yaml:"region" split_words:"true"`
	FlushInterval time.Duration `yaml:"flush_interval" split_words:"true"`
	BufferSize    int           `yaml:"buffer_size" split_words:"true"`
}

// Load reads the file named by BUNDLE_CONFIG_FILE, if any, and applies environment overrides.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(configFileEnv))
}

func LoadFile(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
		}
	}
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("error reading environment: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Exclusions returns the resource paths to drop, or nil when exclusions are disabled.
func (c *Config) Exclusions() []string {
	if c.ResourceExclusionsEnabled != nil && !*c.ResourceExclusionsEnabled {
		return nil
	}
	return c.ExcludedResources
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.GRPCAddr == "" {
		c.GRPCAddr = ":4317"
	}
	if c.AdminAddr == "" {
		c.AdminAddr = ":8080"
	}
	if c.ResourceExclusionsEnabled == nil {
		enabled := true
		c.ResourceExclusionsEnabled = &enabled
	}
	if c.ExcludedResources == nil {
		c.ExcludedResources = append([]string(nil), defaultExcludedResources...)
	}
	if c.DefaultDevice == "" {
		c.DefaultDevice = "gateway"
	}
	if c.PendingRequestTTL == 0 {
		c.PendingRequestTTL = 2 * time.Minute
	}
	if c.PendingRequestCapacity == 0 {
		c.PendingRequestCapacity = 100_000
	}
	if c.MaxDetailLabels == 0 {
		c.MaxDetailLabels = 10_000
	}
	if c.MaxResourceScopes == 0 {
		c.MaxResourceScopes = 1_000
	}
	if c.MaxDeviceScopes == 0 {
		c.MaxDeviceScopes = 256
	}
	if c.MaxSamples == 0 {
		c.MaxSamples = 1_024
	}
	if c.MaxDatasetPoints == 0 {
		c.MaxDatasetPoints = 4_096
	}
	if len(c.Elasticsearch.Addresses) == 0 {
		c.Elasticsearch.Addresses = []string{"http://localhost:9200"}
	}
	if c.Elasticsearch.Index == "" {
		c.Elasticsearch.Index = "aws_bundle_metric_records"
	}
	if c.Elasticsearch.FlushInterval == 0 {
		c.Elasticsearch.FlushInterval = 5 * time.Second
	}
	if c.Elasticsearch.QueueSize == 0 {
		c.Elasticsearch.QueueSize = 500
	}
	if c.CloudWatch.Namespace == "" {
		c.CloudWatch.Namespace = "AWS Solution Bundle"
	}
	if c.CloudWatch.FlushInterval == 0 {
		c.CloudWatch.FlushInterval = time.Minute
	}
	if c.CloudWatch.BufferSize == 0 {
		c.CloudWatch.BufferSize = 10_000
	}
}

func (c *Config) validate() error {
	if c.PendingRequestTTL < 0 {
		return fmt.Errorf("pending_request_ttl must be positive, got %s", c.PendingRequestTTL)
	}
	if c.PendingRequestCapacity < 0 {
		return fmt.Errorf("pending_request_capacity must be positive, got %d", c.PendingRequestCapacity)
	}
	for name, limit := range map[string]int{
		"max_detail_labels":   c.MaxDetailLabels,
		"max_resource_scopes": c.MaxResourceScopes,
		"max_device_scopes":   c.MaxDeviceScopes,
		"max_samples":         c.MaxSamples,
		"max_dataset_points":  c.MaxDatasetPoints,
	} {
		if limit < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, limit)
		}
	}
	if c.RelayProcessTime && c.CloudWatch.Region == "" {
		return ErrMissingRegion
	}
	if c.Elasticsearch.Enabled && c.Elasticsearch.FlushInterval < 0 {
		return fmt.Errorf("elasticsearch.flush_interval must be positive, got %s", c.Elasticsearch.FlushInterval)
	}
	return nil
}

var (
	ErrMissingRegion = errors.New("cloudwatch.region is required when relay_process_time is enabled")
)
