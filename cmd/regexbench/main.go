package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/oklog/ulid/v2"

	"github.com/torosent/regexbench/internal/affinity"
	"github.com/torosent/regexbench/internal/config"
	"github.com/torosent/regexbench/internal/corpus"
	"github.com/torosent/regexbench/internal/engine"
	"github.com/torosent/regexbench/internal/logging"
	"github.com/torosent/regexbench/internal/output"
	"github.com/torosent/regexbench/internal/runner"
	"github.com/torosent/regexbench/internal/sysstat"
	"github.com/torosent/regexbench/internal/threshold"
	"github.com/torosent/regexbench/internal/tracing"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	warnings := cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel, stderr)
	for _, w := range warnings {
		log.Warn(w)
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	ctx := context.Background()
	runID := ulid.Make().String()
	tp, err := tracing.Init(ctx, cfg.Tracing, tracing.Run{
		ID:      runID,
		Engine:  cfg.Engine,
		Threads: cfg.Threads,
		Repeat:  cfg.Repeat,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	c, err := corpus.Load(cfg.PcapFile)
	if err != nil {
		return fmt.Errorf("read pcap %s: %w", cfg.PcapFile, err)
	}
	log.Info("corpus loaded",
		"path", cfg.PcapFile,
		"packets", c.NumPackets(),
		"bytes", c.NumBytes(),
		"sessions", c.Sessions(),
	)

	plan, err := affinity.NewPlan(cfg.Threads, cfg.Affinity, sysstat.HardwareCores())
	if err != nil {
		log.Warn("affinity fallback to positional cores", "error", err)
	}
	log.Info("affinity", "plan", plan.String())

	e, err := engine.New(cfg.Engine, engine.Tuning{
		Concat:       cfg.Concat,
		MatchTimeout: cfg.MatchTimeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(e); err != nil {
			log.Warn("engine close failed", "error", err)
		}
	}()

	r := runner.New(runner.Options{
		Engine:        e,
		Setup:         engine.Source{RulePath: cfg.RuleFile},
		Corpus:        c,
		Repeat:        cfg.Repeat,
		Plan:          plan,
		RecordLatency: cfg.Latency,
		Tracer:        tp.Tracer(),
		Logger:        log,
	})

	var progress *output.ProgressReporter
	if cfg.Interval > 0 {
		progress = output.NewProgressReporter(r.Results(), cfg.Interval, stdout)
		progress.Start()
	}
	results, err := r.Run(ctx)
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		return err
	}

	peak, err := sysstat.PeakMemoryKB()
	if err != nil {
		log.Warn("peak memory unavailable", "error", err)
	}

	doc := output.BuildReport(output.ReportInput{
		RunID:         runID,
		Engine:        cfg.Engine,
		Repeat:        cfg.Repeat,
		CorpusBytes:   c.NumBytes(),
		CorpusPackets: c.NumPackets(),
		MaxMemoryKB:   peak,
		Results:       results,
	})
	output.PrintReport(stdout, doc)

	if cfg.Output != "" {
		if err := output.WriteDocument(cfg.Output, doc); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		log.Info("report written", "path", cfg.Output)
	}

	return checkThresholds(stdout, log, thresholds, doc)
}

func checkThresholds(w io.Writer, log *slog.Logger, thresholds []threshold.Threshold, doc *output.Document) error {
	if len(thresholds) == 0 {
		return nil
	}
	results := threshold.NewEvaluator(thresholds).Evaluate(doc)
	fmt.Fprintln(w, "Thresholds:")
	for _, res := range results {
		fmt.Fprintf(w, "  %s\n", res.Message)
	}
	if threshold.AllPassed(results) {
		return nil
	}
	failed := 0
	for _, res := range results {
		if !res.Pass {
			failed++
		}
	}
	log.Debug("thresholds failed", "failed", failed, "total", len(results))
	return fmt.Errorf("%d of %d thresholds failed", failed, len(results))
}
