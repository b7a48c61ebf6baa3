package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "brewsignal/internal/errors"
	"brewsignal/internal/policy"
)

const (
	// EnvPrefix namespaces every environment override
	EnvPrefix = "BREWSIGNAL"
	// EnvConfigFile names the YAML file to load
	EnvConfigFile = "BREWSIGNAL_CONFIG_FILE"
	// DefaultConfigFile is used when present and no file is named
	DefaultConfigFile = "config.yaml"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Service   ServiceConfig   `yaml:"service" envconfig:"SERVICE"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Engine    policy.Policy   `yaml:"engine" envconfig:"ENGINE"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" envconfig:"MAX_BODY_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// WebSocketConfig contains what-if session configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	MaxMessageBytes int64         `yaml:"max_message_bytes" envconfig:"MAX_MESSAGE_BYTES"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
	WriteWait       time.Duration `yaml:"write_wait" envconfig:"WRITE_WAIT"`
}

// TelemetryConfig selects the OpenTelemetry exporters
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// ServiceConfig bounds batch evaluation
type ServiceConfig struct {
	RankConcurrency int `yaml:"rank_concurrency" envconfig:"RANK_CONCURRENCY"`
	MaxRankBundles  int `yaml:"max_rank_bundles" envconfig:"MAX_RANK_BUNDLES"`
}

// ExportConfig controls report output
type ExportConfig struct {
	Dir        string `yaml:"dir" envconfig:"DIR"`
	SheetName  string `yaml:"sheet_name" envconfig:"SHEET_NAME"`
	TimeFormat string `yaml:"time_format" envconfig:"TIME_FORMAT"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			MaxBodyBytes:    4 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  10 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   100,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/brewsignal.log",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			MaxMessageBytes: 1 << 20,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
			WriteWait:       10 * time.Second,
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
		Service: ServiceConfig{
			RankConcurrency: 8,
			MaxRankBundles:  500,
		},
		Export: ExportConfig{
			Dir:        "reports",
			SheetName:  "Ranking",
			TimeFormat: time.DateOnly,
		},
		Engine: policy.Default(),
	}
}

// Load resolves the configuration from defaults, the YAML file and the environment
func Load() (*Config, error) {
	path := os.Getenv(EnvConfigFile)
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit YAML path; an empty path skips the file
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadFile overlays the YAML document onto cfg; absent keys keep their current value
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.NewConfigError("failed to read config file", err).WithContext("path", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return apperrors.NewParsingError("failed to parse config file", err).WithContext("path", path)
	}
	return nil
}

var (
	logLevels   = []string{"debug", "info", "warn", "warning", "error"}
	logOutputs  = []string{"console", "file", "both"}
	traceKinds  = []string{"stdout", "none"}
	metricKinds = []string{"prometheus", "none"}
)

// Validate checks the service settings and the engine policy
func (c *Config) Validate() error {
	var errs apperrors.ValidationErrors

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs.Add("server.port", "must be between 1 and 65535", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		errs.Add("server.read_timeout", "must be positive", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		errs.Add("server.write_timeout", "must be positive", c.Server.WriteTimeout)
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs.Add("server.max_body_bytes", "must be positive", c.Server.MaxBodyBytes)
	}

	if c.Security.RateLimit.Enabled {
		if c.Security.RateLimit.RPS <= 0 {
			errs.Add("security.rate_limit.rps", "must be positive", c.Security.RateLimit.RPS)
		}
		if c.Security.RateLimit.Burst < 1 {
			errs.Add("security.rate_limit.burst", "must be at least 1", c.Security.RateLimit.Burst)
		}
	}

	if c.Logging.Format != "json" {
		errs.Add("logging.format", "only json is supported", c.Logging.Format)
	}
	if !slices.Contains(logLevels, strings.ToLower(c.Logging.Level)) {
		errs.Add("logging.level", "unknown level", c.Logging.Level)
	}
	if !slices.Contains(logOutputs, strings.ToLower(c.Logging.Output)) {
		errs.Add("logging.output", "must be console, file or both", c.Logging.Output)
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		errs.Add("logging.file_path", "is required for file output", c.Logging.FilePath)
	}

	if !slices.Contains(traceKinds, c.Telemetry.TraceExporter) {
		errs.Add("telemetry.trace_exporter", "unsupported exporter", c.Telemetry.TraceExporter)
	}
	if !slices.Contains(metricKinds, c.Telemetry.MetricExporter) {
		errs.Add("telemetry.metric_exporter", "unsupported exporter", c.Telemetry.MetricExporter)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs.Add("telemetry.sample_ratio", "must be within [0, 1]", c.Telemetry.SampleRatio)
	}

	if c.Service.RankConcurrency < 1 {
		errs.Add("service.rank_concurrency", "must be at least 1", c.Service.RankConcurrency)
	}
	if c.Service.MaxRankBundles < 1 {
		errs.Add("service.max_rank_bundles", "must be at least 1", c.Service.MaxRankBundles)
	}

	if err := c.Engine.Validate(); err != nil {
		var policyErrs apperrors.ValidationErrors
		if !errors.As(err, &policyErrs) {
			return fmt.Errorf("validate engine policy: %w", err)
		}
		errs.Merge("engine", policyErrs)
	}

	if errs.HasErrors() {
		return apperrors.NewConfigError("config validation failed", errs).
			WithContext("invalid_fields", errs.Fields())
	}
	return nil
}

// Address returns the listen address for the HTTP server
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
