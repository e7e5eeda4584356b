// Package config loads the configuration of the command-line tools.
//
// Values come from three layers, later ones winning: built-in defaults, an
// optional YAML file, and environment variables for secrets and the log
// level.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	EnvUsername      = "TAPO_USERNAME"
	EnvPassword      = "TAPO_PASSWORD"
	EnvLogLevel      = "TAPO_LOG_LEVEL"
	EnvInfluxDBToken = "TAPO_INFLUXDB_TOKEN"
)

// ErrNoCredentials is returned by RequireCredentials.
var ErrNoCredentials = errors.New("credentials.username and credentials.password are required (or set " + EnvUsername + " and " + EnvPassword + ")")

// Config is the full tool configuration.
type Config struct {
	Credentials CredentialsConfig `yaml:"credentials"`
	Client      ClientConfig      `yaml:"client"`
	Discovery   DiscoveryConfig   `yaml:"discovery"`
	Logging     LoggingConfig     `yaml:"logging"`
	InfluxDB    InfluxDBConfig    `yaml:"influxdb"`
}

// CredentialsConfig holds the account used for every device.
type CredentialsConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ClientConfig tunes device connections.
type ClientConfig struct {
	Timeout         time.Duration `yaml:"timeout"`
	ConnectAttempts int           `yaml:"connect_attempts"`
	SessionLifetime time.Duration `yaml:"session_lifetime"`
}

// DiscoveryConfig sets the default scan.
type DiscoveryConfig struct {
	Target  string        `yaml:"target"`
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig selects operational and protocol logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`

	// ProtocolLog is the path of a capture file. Empty disables capture.
	ProtocolLog string `yaml:"protocol_log"`
}

// InfluxDBConfig configures telemetry export.
type InfluxDBConfig struct {
	Enabled       bool          `yaml:"enabled"`
	URL           string        `yaml:"url"`
	Token         string        `yaml:"token"`
	Org           string        `yaml:"org"`
	Bucket        string        `yaml:"bucket"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Client: ClientConfig{
			Timeout:         30 * time.Second,
			ConnectAttempts: 3,
			SessionLifetime: 24 * time.Hour,
		},
		Discovery: DiscoveryConfig{
			Target:  "255.255.255.255",
			Timeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			BatchSize:     100,
			FlushInterval: 10 * time.Second,
		},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvUsername); v != "" {
		cfg.Credentials.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		cfg.Credentials.Password = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvInfluxDBToken); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks ranges and enumerations. Credentials are checked by
// RequireCredentials since some commands need none.
func (c *Config) Validate() error {
	var errs []string

	if c.Client.Timeout <= 0 {
		errs = append(errs, "client.timeout must be positive")
	}
	if c.Client.ConnectAttempts < 1 {
		errs = append(errs, "client.connect_attempts must be at least 1")
	}
	if c.Discovery.Timeout <= 0 {
		errs = append(errs, "discovery.timeout must be positive")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("logging.format %q is not text or json", c.Logging.Format))
	}
	switch strings.ToLower(c.Logging.Output) {
	case "stdout", "stderr":
	default:
		errs = append(errs, fmt.Sprintf("logging.output %q is not stdout or stderr", c.Logging.Output))
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" || c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.url, influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
		if c.InfluxDB.BatchSize < 1 {
			errs = append(errs, "influxdb.batch_size must be at least 1")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// RequireCredentials reports ErrNoCredentials when either credential is
// missing.
func (c *Config) RequireCredentials() error {
	if c.Credentials.Username == "" || c.Credentials.Password == "" {
		return ErrNoCredentials
	}
	return nil
}
