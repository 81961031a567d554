// Package runner provides the benchmark driver for regexbench.
//
// The runner compiles or loads the rule set once, then starts one goroutine
// per worker. Every worker locks itself to an OS thread, pins that thread to
// the core assigned by its [affinity.Plan] slot and replays the whole corpus
// Repeat times through the shared engine:
//
//	r := runner.New(runner.Options{
//		Engine: eng,
//		Setup:  engine.Source{RulePath: "rules.txt"},
//		Corpus: packets,
//		Repeat: 10,
//		Plan:   plan,
//	})
//	results, err := r.Run(ctx)
//
// # Counters
//
// Workers count into private variables and publish them to their
// [metrics.MatchResult] every PublishEvery packets and at the end of each
// pass. A progress reporter may therefore call [metrics.Statistic] in
// windowed mode on [Runner.Results] while the run is in flight.
//
// # Threads
//
// The controlling goroutine snapshots its CPU mask before pinning and
// restores it when Run returns. Workers never unlock their threads, so the
// runtime retires each pinned thread when its goroutine ends.
//
// # CPU time
//
// Each worker samples its own thread's user and system CPU time before and
// after the replay. The difference is stored on the result.
//
// # Failure
//
// There is no timeout and no retry. The first Match error stops the other
// workers at their next pass boundary and is returned from Run, wrapped with
// the worker index and core.
package runner
