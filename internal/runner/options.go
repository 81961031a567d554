package runner

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/torosent/regexbench/internal/affinity"
	"github.com/torosent/regexbench/internal/corpus"
	"github.com/torosent/regexbench/internal/engine"
	"github.com/torosent/regexbench/internal/sysstat"
)

// DefaultPublishEvery is the number of packets a worker matches between two
// counter publications.
const DefaultPublishEvery = 1024

// Options configure the Runner.
type Options struct {
	Engine        engine.Engine                 // matcher under test (required)
	Setup         engine.Source                 // rules to compile or load before the run
	Corpus        *corpus.Corpus                // packets to replay (required)
	Repeat        int                           // passes over the corpus per worker
	Plan          affinity.Plan                 // controller core followed by one core per worker
	Pinner        func(core int) error          // pins the calling OS thread; defaults to affinity.Pin
	SaveAffinity  func() (func() error, error)  // snapshots the controller's mask; defaults to affinity.Save
	ThreadTimes   func() (sysstat.Times, error) // samples thread CPU time; defaults to sysstat.ThreadTimes
	PublishEvery  int                           // packets between counter publications
	RecordLatency bool                          // keep a per-worker match latency histogram
	Tracer        trace.Tracer                  // optional
	Logger        *slog.Logger                  // optional
}

func (o *Options) normalize() {
	if o.Repeat < 1 {
		o.Repeat = 1
	}
	if len(o.Plan) < 2 {
		controller := 0
		if len(o.Plan) == 1 {
			controller = o.Plan[0]
		}
		o.Plan = affinity.Plan{controller, controller}
	}
	if o.Pinner == nil {
		o.Pinner = affinity.Pin
	}
	if o.SaveAffinity == nil {
		o.SaveAffinity = affinity.Save
	}
	if o.ThreadTimes == nil {
		o.ThreadTimes = sysstat.ThreadTimes
	}
	if o.PublishEvery <= 0 {
		o.PublishEvery = DefaultPublishEvery
	}
	if o.Tracer == nil {
		o.Tracer = noop.NewTracerProvider().Tracer("regexbench")
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Setup.Concurrency <= 0 {
		o.Setup.Concurrency = len(o.Plan) - 1
	}
	if o.Setup.Sessions <= 0 && o.Corpus != nil {
		o.Setup.Sessions = o.Corpus.Sessions()
	}
}
