package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/torosent/regexbench/internal/engine"
)

// Defaults applied before the config file and flags.
const (
	DefaultEngine   = "std"
	DefaultAffinity = "0"
	DefaultOutput   = "output.json"
	DefaultLogLevel = "info"
)

type Config struct {
	RuleFile     string        `mapstructure:"rule_file"`
	PcapFile     string        `mapstructure:"pcap_file"`
	Engine       string        `mapstructure:"engine"`
	Repeat       int           `mapstructure:"repeat"`
	Threads      int           `mapstructure:"threads"`
	Affinity     string        `mapstructure:"affinity"`
	Output       string        `mapstructure:"output"`
	Concat       int           `mapstructure:"concat"`
	MatchTimeout time.Duration `mapstructure:"match_timeout"`
	Interval     time.Duration `mapstructure:"interval"`
	Latency      bool          `mapstructure:"latency"`
	Thresholds   []string      `mapstructure:"thresholds"`
	LogLevel     string        `mapstructure:"log_level"`
	ConfigFile   string        `mapstructure:"-"`
	Tracing      TracingConfig `mapstructure:"tracing"`
}

// TracingConfig configures OTLP span export.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
}

// Enabled reports whether an exporter endpoint is configured, either
// directly or through OTEL_EXPORTER_OTLP_ENDPOINT.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// Normalize clamps recoverable settings and returns a warning for each
// adjustment.
func (c *Config) Normalize() []string {
	var warnings []string
	if c.Threads < 1 {
		warnings = append(warnings, fmt.Sprintf("threads must be at least 1, got %d; using 1", c.Threads))
		c.Threads = 1
	}
	if strings.TrimSpace(c.Output) == "" {
		c.Output = DefaultOutput
	}
	if strings.TrimSpace(c.Affinity) == "" {
		c.Affinity = DefaultAffinity
	}
	c.Engine = strings.ToLower(strings.TrimSpace(c.Engine))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	return warnings
}

func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.RuleFile) == "" {
		issues = append(issues, "rule file is required (use --help for usage information)")
	} else if err := checkReadable(c.RuleFile); err != nil {
		issues = append(issues, fmt.Sprintf("rule file: %v", err))
	}
	if strings.TrimSpace(c.PcapFile) == "" {
		issues = append(issues, "pcap file is required (use --help for usage information)")
	} else if err := checkReadable(c.PcapFile); err != nil {
		issues = append(issues, fmt.Sprintf("pcap file: %v", err))
	}

	if !engine.Known(c.Engine) {
		issues = append(issues, fmt.Sprintf("engine %q is not supported (available: %s)", c.Engine, strings.Join(engine.Tags(), ", ")))
	}
	if c.Repeat <= 0 {
		issues = append(issues, "repeat must be a positive number")
	}
	if c.Concat < 0 {
		issues = append(issues, "concat must be non-negative")
	}
	if c.MatchTimeout < 0 {
		issues = append(issues, "match-timeout must be non-negative")
	}
	if c.Interval < 0 {
		issues = append(issues, "interval must be non-negative")
	}

	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		issues = append(issues, fmt.Sprintf("log-level %q must be one of debug, info, warn, error", c.LogLevel))
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		issues = append(issues, "tracing sample rate must be between 0 and 1")
	}
	switch strings.ToLower(c.Tracing.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing protocol %q must be grpc or http", c.Tracing.Protocol))
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func checkReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
