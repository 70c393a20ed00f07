// Package config holds the go-hooks configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Proxy     ProxyConfig     `yaml:"proxy" mapstructure:"proxy"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Tracing   TracingConfig   `yaml:"tracing" mapstructure:"tracing"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port" mapstructure:"port"`
	Host         string        `yaml:"host" mapstructure:"host"`
	ReadTimeout  time.Duration `yaml:"readTimeout" mapstructure:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout" mapstructure:"writeTimeout"`
}

// ProxyConfig holds the upstream every non-admin request is forwarded to
type ProxyConfig struct {
	Upstream     string        `yaml:"upstream" mapstructure:"upstream"`         // Empty disables proxying
	MaxBodyBytes int64         `yaml:"maxBodyBytes" mapstructure:"maxBodyBytes"` // Bodies are buffered up to this size
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type  string      `yaml:"type" mapstructure:"type"` // "memory", "file" or "redis"
	Path  string      `yaml:"path" mapstructure:"path"` // Path for file storage
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig holds the connection settings of the redis backend
type RedisConfig struct {
	Addr      string `yaml:"addr" mapstructure:"addr"`
	Password  string `yaml:"password" mapstructure:"password"`
	DB        int    `yaml:"db" mapstructure:"db"`
	KeyPrefix string `yaml:"keyPrefix" mapstructure:"keyPrefix"`
}

// TracingConfig holds run trace configuration
type TracingConfig struct {
	MaxTraces     int  `yaml:"maxTraces" mapstructure:"maxTraces"`
	CaptureBodies bool `yaml:"captureBodies" mapstructure:"captureBodies"`
}

// TelemetryConfig controls OpenTelemetry span export
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	ServiceName string `yaml:"serviceName" mapstructure:"serviceName"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Proxy: ProxyConfig{
			MaxBodyBytes: 10 << 20,
			Timeout:      30 * time.Second,
		},
		Storage: StorageConfig{
			Type: StorageMemory,
			Path: "./data",
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "gohooks:",
			},
		},
		Tracing: TracingConfig{
			MaxTraces:     1000,
			CaptureBodies: true,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "go-hooks",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a YAML file on top of the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate reports every invalid setting
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	if c.Proxy.Upstream != "" {
		u, err := url.Parse(c.Proxy.Upstream)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("proxy.upstream %q is not an absolute http(s) URL", c.Proxy.Upstream))
		}
	}
	if c.Proxy.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("proxy.maxBodyBytes must be positive"))
	}

	switch c.Storage.Type {
	case StorageMemory:
	case StorageFile:
		if strings.TrimSpace(c.Storage.Path) == "" {
			errs = append(errs, errors.New("storage.path is required for file storage"))
		}
	case StorageRedis:
		if strings.TrimSpace(c.Storage.Redis.Addr) == "" {
			errs = append(errs, errors.New("storage.redis.addr is required for redis storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type %q must be %q, %q or %q", c.Storage.Type, StorageMemory, StorageFile, StorageRedis))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not supported", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be json or text", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// Addr returns the listen address of the server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
