package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a Config.
// The two positional arguments are the rule file and the pcap file; either may
// instead come from the config file.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	// If no arguments provided and no config file, show help/usage
	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	settings := cfgViper.AllSettings()

	cfg := &Config{
		Engine:     DefaultEngine,
		Repeat:     1,
		Threads:    1,
		Affinity:   DefaultAffinity,
		Output:     DefaultOutput,
		LogLevel:   DefaultLogLevel,
		ConfigFile: configPath,
		Tracing:    TracingConfig{Protocol: "grpc", SampleRate: 1.0},
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	if err := applyPositional(cfg, flagSet.Args()); err != nil {
		return nil, err
	}

	cfg.RuleFile = strings.TrimSpace(cfg.RuleFile)
	cfg.PcapFile = strings.TrimSpace(cfg.PcapFile)

	return cfg, nil
}

func applyPositional(cfg *Config, args []string) error {
	switch len(args) {
	case 0:
	case 1:
		cfg.RuleFile = args[0]
	case 2:
		cfg.RuleFile = args[0]
		cfg.PcapFile = args[1]
	default:
		return fmt.Errorf("unexpected argument %q: expected <rule_file> <pcap_file>", args[2])
	}
	return nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "rulefile", "rule_file", "rule-file", "rules"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("rule_file: %w", err)
		}
		cfg.RuleFile = val
	}

	if raw, ok := lookupSetting(settings, "pcapfile", "pcap_file", "pcap-file", "pcap"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("pcap_file: %w", err)
		}
		cfg.PcapFile = val
	}

	if raw, ok := lookupSetting(settings, "engine"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("engine: %w", err)
		}
		if val != "" {
			cfg.Engine = val
		}
	}

	if raw, ok := lookupSetting(settings, "repeat"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("repeat: %w", err)
		}
		cfg.Repeat = val
	}

	if raw, ok := lookupSetting(settings, "threads"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("threads: %w", err)
		}
		cfg.Threads = val
	}

	if raw, ok := lookupSetting(settings, "affinity"); ok {
		val, err := asAffinity(raw)
		if err != nil {
			return fmt.Errorf("affinity: %w", err)
		}
		cfg.Affinity = val
	}

	if raw, ok := lookupSetting(settings, "output"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("output: %w", err)
		}
		cfg.Output = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "concat"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("concat: %w", err)
		}
		cfg.Concat = val
	}

	if raw, ok := lookupSetting(settings, "matchtimeout", "match_timeout", "match-timeout"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("match_timeout: %w", err)
		}
		cfg.MatchTimeout = dur
	}

	if raw, ok := lookupSetting(settings, "interval"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("interval: %w", err)
		}
		cfg.Interval = dur
	}

	if raw, ok := lookupSetting(settings, "latency"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("latency: %w", err)
		}
		cfg.Latency = val
	}

	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		thresholds, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = thresholds
	}

	if raw, ok := lookupSetting(settings, "loglevel", "log_level", "log-level"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
		cfg.LogLevel = val
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		if err := parseTracing(&cfg.Tracing, raw); err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
	}

	return nil
}

// asAffinity accepts either a core-list string or a list of core numbers.
func asAffinity(value interface{}) (string, error) {
	if items, err := toInterfaceSlice(value); err == nil && items != nil {
		parts := make([]string, 0, len(items))
		for idx, item := range items {
			s, err := asString(item)
			if err != nil {
				return "", fmt.Errorf("index %d: %w", idx, err)
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	}
	return asString(value)
}

func parseTracing(tc *TracingConfig, value interface{}) error {
	settings, err := toStringKeyMap(value)
	if err != nil {
		return err
	}
	if raw, ok := lookupSetting(settings, "endpoint"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("endpoint: %w", err)
		}
		tc.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "protocol"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("protocol: %w", err)
		}
		tc.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if raw, ok := lookupSetting(settings, "servicename", "service_name", "service-name"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("service_name: %w", err)
		}
		tc.ServiceName = val
	}
	if raw, ok := lookupSetting(settings, "samplerate", "sample_rate", "sample-rate"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return fmt.Errorf("sample_rate: %w", err)
		}
		tc.SampleRate = val
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("insecure: %w", err)
		}
		tc.Insecure = val
	}
	return nil
}
