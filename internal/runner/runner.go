package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/torosent/regexbench/internal/engine"
	"github.com/torosent/regexbench/internal/metrics"
	"github.com/torosent/regexbench/internal/tracing"
)

// Runner replays a corpus through an engine on a fixed set of pinned workers.
type Runner struct {
	opt     Options
	results []*metrics.MatchResult
}

// New creates a runner with one MatchResult per worker of the plan.
func New(opt Options) *Runner {
	opt.normalize()
	workers := opt.Plan.Workers()
	results := make([]*metrics.MatchResult, len(workers))
	for i, core := range workers {
		results[i] = metrics.NewMatchResult(i, core, opt.RecordLatency)
	}
	return &Runner{opt: opt, results: results}
}

// Results returns the per-worker records. Their counters may be read with
// metrics.Statistic while Run is in progress.
func (r *Runner) Results() []*metrics.MatchResult {
	return r.results
}

// Run sets up the engine, replays the corpus on every worker and waits for
// all of them. The first engine error aborts the run and no results are
// returned. ctx carries trace context only; cancelling it does not stop the
// run.
func (r *Runner) Run(ctx context.Context) ([]*metrics.MatchResult, error) {
	if r.opt.Engine == nil {
		return nil, errors.New("runner: engine is required")
	}
	if r.opt.Corpus == nil {
		return nil, errors.New("runner: corpus is required")
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if restore, err := r.opt.SaveAffinity(); err != nil {
		r.opt.Logger.Warn("save controller affinity failed", "error", err)
	} else {
		defer func() {
			if err := restore(); err != nil {
				r.opt.Logger.Warn("restore controller affinity failed", "error", err)
			}
		}()
	}

	controller := r.opt.Plan.Controller()
	if err := r.opt.Pinner(controller); err != nil {
		r.opt.Logger.Warn("pin controller failed", "core", controller, "error", err)
	}

	ctx, span := tracing.StartSpan(ctx, r.opt.Tracer, "regexbench.run",
		attribute.Int("regexbench.workers", len(r.results)),
		attribute.Int("regexbench.repeat", r.opt.Repeat),
		attribute.Int("regexbench.controller_core", controller),
	)
	err := r.run(ctx)
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	return r.results, nil
}

func (r *Runner) run(ctx context.Context) error {
	_, setup := tracing.StartSpan(ctx, r.opt.Tracer, "regexbench.setup")
	err := engine.Prepare(r.opt.Engine, r.opt.Setup)
	tracing.EndSpan(setup, err)
	if err != nil {
		return err
	}
	r.opt.Logger.Debug("engine ready",
		"workers", len(r.results),
		"packets", r.opt.Corpus.NumPackets(),
		"bytes", r.opt.Corpus.NumBytes(),
	)

	// Only a worker failure cancels the group.
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	for _, res := range r.results {
		g.Go(func() error {
			return r.work(gctx, res)
		})
	}
	return g.Wait()
}

func (r *Runner) work(ctx context.Context, res *metrics.MatchResult) (err error) {
	// Never unlocked: the goroutine exits locked and the runtime discards the
	// pinned thread instead of handing it to other goroutines.
	runtime.LockOSThread()

	log := r.opt.Logger.With("worker", res.Worker, "core", res.Core)
	if err := r.opt.Pinner(res.Core); err != nil {
		log.Warn("pin worker failed", "error", err)
	}

	_, span := tracing.StartSpan(ctx, r.opt.Tracer, "regexbench.worker",
		attribute.Int("regexbench.worker", res.Worker),
		attribute.Int("regexbench.core", res.Core),
	)
	defer func() {
		cur := res.Current()
		tracing.EndSpan(span, err,
			attribute.Int64("regexbench.packets", int64(cur.Packets)),
			attribute.Int64("regexbench.matches", int64(cur.Matches)),
		)
	}()

	before, terr := r.opt.ThreadTimes()
	if terr != nil {
		log.Warn("thread cpu time unavailable", "error", terr)
	}
	if err := r.replay(ctx, res); err != nil {
		return fmt.Errorf("worker %d (core %d): %w", res.Worker, res.Core, err)
	}
	after, aerr := r.opt.ThreadTimes()
	if terr == nil && aerr == nil {
		used := after.Sub(before)
		res.UserTime, res.SystemTime = used.User, used.System
	}

	log.Debug("worker finished", "user", res.UserTime, "system", res.SystemTime)
	return nil
}

func (r *Runner) replay(ctx context.Context, res *metrics.MatchResult) error {
	var (
		e       = r.opt.Engine
		packets = r.opt.Corpus.Packets()
		every   = r.opt.PublishEvery
		timed   = res.RecordsLatency()
		local   metrics.ResultInfo
		pending int
	)

	for pass := 0; pass < r.opt.Repeat; pass++ {
		if ctx.Err() != nil {
			// another worker failed; its error is the one reported
			return nil
		}
		for i, p := range packets {
			var start time.Time
			if timed {
				start = time.Now()
			}
			matched, err := e.Match(p)
			if timed {
				res.RecordLatency(time.Since(start))
			}
			if err != nil {
				return fmt.Errorf("match packet %d (pass %d): %w", i, pass+1, err)
			}

			local.Packets++
			local.Bytes += uint64(len(p))
			if matched {
				local.Matches++
				local.MatchedPackets++
			}

			pending++
			if pending == every {
				res.Publish(local)
				pending = 0
			}
		}
		res.Publish(local)
		pending = 0
	}
	return nil
}
