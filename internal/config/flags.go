package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "regexbench [flags] <rule_file> <pcap_file>",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Benchmark flags
	flags.StringP("engine", "e", DefaultEngine, "Matching engine to run")
	flags.IntP("repeat", "r", 1, "Repeat the pcap this many times per thread")
	flags.IntP("threads", "n", 1, "Number of matching threads")
	flags.StringP("affinity", "a", DefaultAffinity, "Core list: controller first, then one per thread (e.g. 0,2,4)")
	flags.IntP("concat", "c", 0, "Concatenate this many rules into one alternation (0 = none)")
	flags.Duration("match-timeout", 0, "Per-packet match timeout for engines that support it (0 = none)")

	// Output flags
	flags.StringP("output", "o", DefaultOutput, "Report file (.json, .yaml or .yml)")
	flags.Duration("interval", 0, "Print windowed statistics at this interval during the run (0 = off)")
	flags.Bool("latency", false, "Record per-packet match latency percentiles")
	flags.StringSlice("threshold", nil, "Report thresholds (repeatable, e.g. 'mbps:min > 100')")
	flags.String("log-level", DefaultLogLevel, "Log level: debug, info, warn or error")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Tracing flags
	flags.String("tracing-endpoint", "", "OTLP collector endpoint (enables tracing)")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.String("tracing-service-name", "", "Service name reported with spans")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of runs to sample (0 to 1)")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("engine") {
		val, err := fs.GetString("engine")
		if err != nil {
			return err
		}
		cfg.Engine = val
	}
	if fs.Changed("repeat") {
		val, err := fs.GetInt("repeat")
		if err != nil {
			return err
		}
		cfg.Repeat = val
	}
	if fs.Changed("threads") {
		val, err := fs.GetInt("threads")
		if err != nil {
			return err
		}
		cfg.Threads = val
	}
	if fs.Changed("affinity") {
		val, err := fs.GetString("affinity")
		if err != nil {
			return err
		}
		cfg.Affinity = val
	}
	if fs.Changed("concat") {
		val, err := fs.GetInt("concat")
		if err != nil {
			return err
		}
		cfg.Concat = val
	}
	if fs.Changed("match-timeout") {
		val, err := fs.GetDuration("match-timeout")
		if err != nil {
			return err
		}
		cfg.MatchTimeout = val
	}
	if fs.Changed("output") {
		val, err := fs.GetString("output")
		if err != nil {
			return err
		}
		cfg.Output = strings.TrimSpace(val)
	}
	if fs.Changed("interval") {
		val, err := fs.GetDuration("interval")
		if err != nil {
			return err
		}
		cfg.Interval = val
	}
	if fs.Changed("latency") {
		val, err := fs.GetBool("latency")
		if err != nil {
			return err
		}
		cfg.Latency = val
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}
	if fs.Changed("log-level") {
		val, err := fs.GetString("log-level")
		if err != nil {
			return err
		}
		cfg.LogLevel = val
	}
	if fs.Changed("tracing-endpoint") {
		val, err := fs.GetString("tracing-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-protocol") {
		val, err := fs.GetString("tracing-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("tracing-service-name") {
		val, err := fs.GetString("tracing-service-name")
		if err != nil {
			return err
		}
		cfg.Tracing.ServiceName = val
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	if fs.Changed("tracing-insecure") {
		val, err := fs.GetBool("tracing-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}
	return nil
}
