// Copyright 2025 Costwatch Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides configuration management for the Costwatch binaries.
//
// The binaries require configuration for:
//   - Where to find budget-sync logs (GCP project, function name, filter)
//   - Which part of the cluster to validate and where to push results
//   - Operational settings (log level, bind addresses, timeouts)
//
// Configuration can be loaded from YAML files or environment variables.
// Uses Viper for robust configuration management with explicit env binding.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Config represents the complete Costwatch configuration.
type Config struct {
	// LogLevel controls the verbosity of logs. An explicit --zap-log-level
	// flag takes precedence.
	// Valid values: debug, info, warn, error
	// Default: info
	LogLevel string `yaml:"logLevel,omitempty"`

	// MetricsBindAddress is the address the exporter serves /metrics on.
	// Default: :9090
	MetricsBindAddress string `yaml:"metricsBindAddress,omitempty"`

	// HealthProbeBindAddress is the address the health probe endpoint binds to.
	// Default: :8081
	HealthProbeBindAddress string `yaml:"healthProbeBindAddress,omitempty"`

	// BudgetSync configures the budget-sync exporter.
	BudgetSync BudgetSyncConfig `yaml:"budgetSync,omitempty"`

	// LabelValidation configures the cost-label validator job.
	LabelValidation LabelValidationConfig `yaml:"labelValidation,omitempty"`
}

// BudgetSyncConfig contains settings for reading budget-sync logs.
type BudgetSyncConfig struct {
	// ProjectID is the GCP project whose Cloud Logging entries are read.
	// Falls back to the GOOGLE_CLOUD_PROJECT environment variable.
	ProjectID string `yaml:"projectId,omitempty"`

	// FunctionName is the Cloud Function that performs the sync.
	// Default: budget-sync
	FunctionName string `yaml:"functionName,omitempty"`

	// Filter overrides the Cloud Logging filter built from FunctionName.
	Filter string `yaml:"filter,omitempty"`

	// MaxResults is the number of recent entries read per collection pass.
	// Default: 10
	MaxResults int `yaml:"maxResults,omitempty"`

	// Interval is how often logs are collected.
	// Format: Go duration string (e.g., "60s", "5m")
	// Default: 60s
	Interval string `yaml:"interval,omitempty"`

	// QueryTimeout bounds a single log query.
	// Default: 30s
	QueryTimeout string `yaml:"queryTimeout,omitempty"`
}

// LabelValidationConfig contains settings for the cost-label validator.
type LabelValidationConfig struct {
	// Namespace restricts validation to one namespace. Empty means all.
	Namespace string `yaml:"namespace,omitempty"`

	// PageSize is the number of objects requested per list call.
	// Default: 500
	PageSize int64 `yaml:"pageSize,omitempty"`

	// PushgatewayURL is where validation results are pushed.
	// Default: http://prometheus-pushgateway:9091
	PushgatewayURL string `yaml:"pushgatewayUrl,omitempty"`

	// JobName is the Pushgateway job the results are grouped under.
	// Default: cost-label-validation
	JobName string `yaml:"jobName,omitempty"`

	// ListTimeout bounds the listing of one resource kind.
	// Default: 2m
	ListTimeout string `yaml:"listTimeout,omitempty"`
}

// Default returns the built-in configuration, without reading any file or
// environment variable.
func Default() *Config {
	return &Config{
		LogLevel:               DefaultLogLevel,
		MetricsBindAddress:     DefaultMetricsBindAddress,
		HealthProbeBindAddress: DefaultHealthProbeBindAddress,
		BudgetSync: BudgetSyncConfig{
			FunctionName: DefaultFunctionName,
			MaxResults:   DefaultMaxResults,
			Interval:     DefaultSyncInterval,
			QueryTimeout: DefaultQueryTimeout,
		},
		LabelValidation: LabelValidationConfig{
			PageSize:       DefaultPageSize,
			PushgatewayURL: DefaultPushgatewayURL,
			JobName:        DefaultJobName,
			ListTimeout:    DefaultListTimeout,
		},
	}
}

// Load loads configuration from a YAML file and validates it.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (COSTWATCH_* prefix)
//  2. Configuration file values
//  3. Default values
//
// Environment variables are bound key by key, converting the key path to
// SCREAMING_SNAKE_CASE with the COSTWATCH_ prefix. For example:
//   - COSTWATCH_LOG_LEVEL overrides logLevel
//   - COSTWATCH_BUDGET_SYNC_PROJECT_ID overrides budgetSync.projectId
//   - COSTWATCH_LABEL_VALIDATION_PUSHGATEWAY_URL overrides labelValidation.pushgatewayUrl
func Load(path string) (*Config, error) {
	return load(path, true)
}

// LoadOrDefault is like Load, but a missing file is not an error: defaults
// and environment overrides are used instead.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return load("", false)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return load("", false)
	}
	return load(path, true)
}

func load(path string, readFile bool) (*Config, error) {
	v := viper.New()

	d := Default()
	v.SetDefault("logLevel", d.LogLevel)
	v.SetDefault("metricsBindAddress", d.MetricsBindAddress)
	v.SetDefault("healthProbeBindAddress", d.HealthProbeBindAddress)
	v.SetDefault("budgetSync.functionName", d.BudgetSync.FunctionName)
	v.SetDefault("budgetSync.maxResults", d.BudgetSync.MaxResults)
	v.SetDefault("budgetSync.interval", d.BudgetSync.Interval)
	v.SetDefault("budgetSync.queryTimeout", d.BudgetSync.QueryTimeout)
	v.SetDefault("labelValidation.pageSize", d.LabelValidation.PageSize)
	v.SetDefault("labelValidation.pushgatewayUrl", d.LabelValidation.PushgatewayURL)
	v.SetDefault("labelValidation.jobName", d.LabelValidation.JobName)
	v.SetDefault("labelValidation.listTimeout", d.LabelValidation.ListTimeout)

	// Viper's automatic mapping doesn't handle camelCase to SCREAMING_SNAKE_CASE,
	// so each key is bound explicitly.
	v.SetEnvPrefix(EnvPrefix)
	_ = v.BindEnv("logLevel", "COSTWATCH_LOG_LEVEL")
	_ = v.BindEnv("metricsBindAddress", "COSTWATCH_METRICS_BIND_ADDRESS")
	_ = v.BindEnv("healthProbeBindAddress", "COSTWATCH_HEALTH_PROBE_BIND_ADDRESS")
	_ = v.BindEnv("budgetSync.projectId", "COSTWATCH_BUDGET_SYNC_PROJECT_ID", "GOOGLE_CLOUD_PROJECT")
	_ = v.BindEnv("budgetSync.functionName", "COSTWATCH_BUDGET_SYNC_FUNCTION_NAME")
	_ = v.BindEnv("budgetSync.filter", "COSTWATCH_BUDGET_SYNC_FILTER")
	_ = v.BindEnv("budgetSync.maxResults", "COSTWATCH_BUDGET_SYNC_MAX_RESULTS")
	_ = v.BindEnv("budgetSync.interval", "COSTWATCH_BUDGET_SYNC_INTERVAL")
	_ = v.BindEnv("budgetSync.queryTimeout", "COSTWATCH_BUDGET_SYNC_QUERY_TIMEOUT")
	_ = v.BindEnv("labelValidation.namespace", "COSTWATCH_LABEL_VALIDATION_NAMESPACE")
	_ = v.BindEnv("labelValidation.pageSize", "COSTWATCH_LABEL_VALIDATION_PAGE_SIZE")
	_ = v.BindEnv("labelValidation.pushgatewayUrl", "COSTWATCH_LABEL_VALIDATION_PUSHGATEWAY_URL")
	_ = v.BindEnv("labelValidation.jobName", "COSTWATCH_LABEL_VALIDATION_JOB_NAME")
	_ = v.BindEnv("labelValidation.listTimeout", "COSTWATCH_LABEL_VALIDATION_LIST_TIMEOUT")

	if readFile {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	// coverage:ignore - Viper unmarshal errors are extremely rare and difficult to trigger
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration is valid and returns an error if not.
// Empty optional fields are accepted; the Get* accessors fill in defaults.
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if c.LogLevel != "" && !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.LogLevel)
	}

	if err := validateDuration("budgetSync.interval", c.BudgetSync.Interval); err != nil {
		return err
	}
	if err := validateDuration("budgetSync.queryTimeout", c.BudgetSync.QueryTimeout); err != nil {
		return err
	}
	if err := validateDuration("labelValidation.listTimeout", c.LabelValidation.ListTimeout); err != nil {
		return err
	}

	if c.BudgetSync.MaxResults < 0 || c.BudgetSync.MaxResults > MaxMaxResults {
		return fmt.Errorf("invalid budgetSync.maxResults %d, must be between 0 (default) and %d",
			c.BudgetSync.MaxResults, MaxMaxResults)
	}
	if c.LabelValidation.PageSize < 0 {
		return fmt.Errorf("invalid labelValidation.pageSize %d, must be positive", c.LabelValidation.PageSize)
	}

	if c.LabelValidation.PushgatewayURL != "" {
		u, err := url.Parse(c.LabelValidation.PushgatewayURL)
		if err != nil {
			return fmt.Errorf("invalid labelValidation.pushgatewayUrl %q: %w", c.LabelValidation.PushgatewayURL, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid labelValidation.pushgatewayUrl %q: must be an http(s) URL with a host",
				c.LabelValidation.PushgatewayURL)
		}
	}

	return nil
}

func validateDuration(key, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if d <= 0 {
		return fmt.Errorf("invalid %s %q: must be positive", key, value)
	}
	return nil
}

// GetSyncInterval returns the parsed budgetSync.interval.
// Returns 60 seconds if not configured (the default value).
func (c *Config) GetSyncInterval() time.Duration {
	return parseDurationOr(c.BudgetSync.Interval, DefaultSyncInterval)
}

// GetQueryTimeout returns the parsed budgetSync.queryTimeout.
func (c *Config) GetQueryTimeout() time.Duration {
	return parseDurationOr(c.BudgetSync.QueryTimeout, DefaultQueryTimeout)
}

// GetListTimeout returns the parsed labelValidation.listTimeout.
func (c *Config) GetListTimeout() time.Duration {
	return parseDurationOr(c.LabelValidation.ListTimeout, DefaultListTimeout)
}

// GetMaxResults returns budgetSync.maxResults, or the default when unset.
func (c *Config) GetMaxResults() int {
	if c.BudgetSync.MaxResults == 0 {
		return DefaultMaxResults
	}
	return c.BudgetSync.MaxResults
}

// GetPageSize returns labelValidation.pageSize, or the default when unset.
func (c *Config) GetPageSize() int64 {
	if c.LabelValidation.PageSize == 0 {
		return DefaultPageSize
	}
	return c.LabelValidation.PageSize
}

// GetLogLevel returns logLevel as a zap level. debug enables the V(1)
// output of every component.
func (c *Config) GetLogLevel() zapcore.Level {
	switch c.LogLevel {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// GetFunctionName returns budgetSync.functionName, or the default when unset.
func (c *Config) GetFunctionName() string {
	if c.BudgetSync.FunctionName == "" {
		return DefaultFunctionName
	}
	return c.BudgetSync.FunctionName
}

func parseDurationOr(value, fallback string) time.Duration {
	if value == "" {
		value = fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		// Should never happen since Validate() checks this
		d, _ = time.ParseDuration(fallback)
	}
	return d
}
