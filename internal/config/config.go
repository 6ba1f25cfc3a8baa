package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Neo             NeoConfig         `yaml:"neo"`
	MQTT            MQTTConfig        `yaml:"mqtt"`
	Bridge          BridgeConfig      `yaml:"bridge"`
	Log             LogConfig         `yaml:"log"`
	Healthcheck     HealthcheckConfig `yaml:"healthcheck"`
	ShutdownTimeout Duration          `yaml:"shutdown_timeout"` // General shutdown timeout for graceful stops
}

// NeoConfig contains blinds cloud account and API settings
type NeoConfig struct {
	Username   string   `yaml:"username"`
	Password   string   `yaml:"password"`
	BaseURL    string   `yaml:"base_url"`    // Override only for testing against a stub
	Timeout    Duration `yaml:"timeout"`     // HTTP timeout for cloud API requests
	PayloadLog string   `yaml:"payload_log"` // none | redacted | full (default: redacted)
}

// MQTTConfig contains broker connection settings
type MQTTConfig struct {
	Broker    string `yaml:"broker"`
	ClientID  string `yaml:"client_id"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	TopicRoot string `yaml:"topic_root"`
}

// BridgeConfig contains host adapter settings
type BridgeConfig struct {
	RefreshInterval Duration `yaml:"refresh_interval"` // Snapshot poll interval (cloud has no push)
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	UseJSON bool   `yaml:"json"`
	Colors  bool   `yaml:"colors"`
}

// HealthcheckConfig contains health/metrics server settings
type HealthcheckConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	if cfg.Neo.Username == "" || cfg.Neo.Password == "" {
		return nil, fmt.Errorf("neo.username and neo.password are required")
	}

	// Set defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Neo.Timeout == 0 {
		cfg.Neo.Timeout = Duration(15 * time.Second)
	}
	if cfg.Neo.PayloadLog == "" {
		cfg.Neo.PayloadLog = "redacted"
	}
	switch cfg.Neo.PayloadLog {
	case "none", "redacted", "full":
	default:
		return nil, fmt.Errorf("neo.payload_log must be one of none, redacted, full")
	}

	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "neobridge"
	}
	if cfg.MQTT.TopicRoot == "" {
		cfg.MQTT.TopicRoot = "neobridge"
	}

	if cfg.Bridge.RefreshInterval == 0 {
		cfg.Bridge.RefreshInterval = Duration(5 * time.Minute)
	}

	if cfg.Healthcheck.Port == 0 {
		cfg.Healthcheck.Port = 9090
	}
	if cfg.Healthcheck.Host == "" {
		cfg.Healthcheck.Host = "0.0.0.0"
	}

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}

	return &cfg, nil
}

// GetShutdownTimeout returns the shutdown timeout as time.Duration
func (c *Config) GetShutdownTimeout() time.Duration {
	return c.ShutdownTimeout.Duration()
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}

// ExpandEnvString expands a single string with environment variables
func ExpandEnvString(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return expandEnvVars(s)
	}
	return s
}
