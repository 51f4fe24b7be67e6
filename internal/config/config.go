// Package config defines the dashboard configuration and loads it from YAML
// files and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/iwvelando/forecast-dashboard/internal/gridsearch"
	"github.com/iwvelando/forecast-dashboard/pkg/constants"
	"github.com/iwvelando/forecast-dashboard/pkg/validation"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Configuration holds all configuration for forecast-dashboard.
type Configuration struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging,omitempty"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output,omitempty"`
	Dashboard DashboardConfig `mapstructure:"dashboard" yaml:"dashboard"`
}

// ServerConfig defines runtime parameters for the HTTP server.
type ServerConfig struct {
	Address         string        `mapstructure:"address" yaml:"address"`
	MaxUploadSize   string        `mapstructure:"maxUploadSize" yaml:"maxUploadSize"`
	SessionTTL      time.Duration `mapstructure:"sessionTTL" yaml:"sessionTTL"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout" yaml:"shutdownTimeout"`

	uploadSizeBytes int64
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options for the summarize command
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty"` // pretty, csv
}

// DashboardConfig holds what the web UI offers.
type DashboardConfig struct {
	Title         string   `mapstructure:"title" yaml:"title"`
	DefaultMetric string   `mapstructure:"defaultMetric" yaml:"defaultMetric"`
	Metrics       []string `mapstructure:"metrics" yaml:"metrics"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxUploadSize", fmt.Sprintf("%d", constants.DefaultMaxUploadSizeBytes))
	v.SetDefault("server.sessionTTL", constants.DefaultSessionTTL)
	v.SetDefault("server.shutdownTimeout", constants.DefaultShutdownTimeout)
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("dashboard.title", constants.DefaultTitle)
	v.SetDefault("dashboard.defaultMetric", constants.DefaultMetric)
	v.SetDefault("dashboard.metrics", append([]string(nil), constants.DefaultMetrics...))
	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. A missing file yields the defaults.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file, %w", err)
		}
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r on top of the
// defaults.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	if err := configuration.normalize(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

func (c *Configuration) normalize() error {
	if c.Server.Address == "" {
		c.Server.Address = constants.DefaultServerAddress
	}
	size, err := ParseSize(c.Server.MaxUploadSize)
	if err != nil {
		return err
	}
	if size <= 0 {
		size = constants.DefaultMaxUploadSizeBytes
	}
	c.Server.uploadSizeBytes = size

	for i, m := range c.Dashboard.Metrics {
		c.Dashboard.Metrics[i] = strings.ToUpper(strings.TrimSpace(m))
	}
	c.Dashboard.DefaultMetric = strings.ToUpper(strings.TrimSpace(c.Dashboard.DefaultMetric))
	return nil
}

// UploadSizeBytes returns the configured upload size in bytes.
func (s *ServerConfig) UploadSizeBytes() int64 {
	if s.uploadSizeBytes <= 0 {
		return constants.DefaultMaxUploadSizeBytes
	}
	return s.uploadSizeBytes
}

// SetUploadSizeBytes overrides the configured upload size.
func (s *ServerConfig) SetUploadSizeBytes(size int64) {
	if size > 0 {
		s.uploadSizeBytes = size
		s.MaxUploadSize = fmt.Sprintf("%d", size)
	}
}

// Validate checks the configuration for values the dashboard cannot serve.
func (c *Configuration) Validate() error {
	if len(c.Dashboard.Metrics) == 0 {
		return errors.New("dashboard.metrics must list at least one metric")
	}
	offered := false
	for _, m := range c.Dashboard.Metrics {
		if _, err := gridsearch.ParseMetric(m); err != nil {
			return fmt.Errorf("dashboard.metrics, %w", err)
		}
		if m == c.Dashboard.DefaultMetric {
			offered = true
		}
	}
	if _, err := gridsearch.ParseMetric(c.Dashboard.DefaultMetric); err != nil {
		return fmt.Errorf("dashboard.defaultMetric, %w", err)
	}
	if !offered {
		return fmt.Errorf("dashboard.defaultMetric %s is not listed in dashboard.metrics", c.Dashboard.DefaultMetric)
	}
	if c.Server.SessionTTL <= 0 {
		return fmt.Errorf("server.sessionTTL must be positive, got %s", c.Server.SessionTTL)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdownTimeout must be positive, got %s", c.Server.ShutdownTimeout)
	}
	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			return err
		}
	}
	return nil
}

// YAML renders the effective configuration.
func (c *Configuration) YAML() ([]byte, error) {
	out := *c
	out.Server.MaxUploadSize = fmt.Sprintf("%d", c.Server.UploadSizeBytes())
	return yaml.Marshal(out)
}
