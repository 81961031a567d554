// Package metrics holds the per-worker match counters of a benchmark run and
// reduces them into cumulative or windowed statistics.
//
// # Results
//
// Each worker owns one [MatchResult]. The worker publishes its private
// counters into the result with atomic stores, so readers never block the
// replay loop:
//
//	res := metrics.NewMatchResult(worker, core, false)
//	res.Publish(metrics.ResultInfo{Packets: 10, Bytes: 1000})
//
// # Statistics
//
// [Statistic] reduces a result set in one of two modes selected by sec:
//
//   - sec == 0: cumulative totals since the run started ([Total]).
//   - sec > 0: counts accrued since the previous windowed call ([Realtime]).
//
// The reduction is converted by [MakeStatistic] into a map keyed by Sec,
// Matches, MatchedPackets, Packets and Bytes, and handed to a [Reporter]:
//
//	metrics.Statistic(1, results, func(m map[string]uint64) {
//		log.Printf("%d packets in the last second", m["Packets"])
//	})
//
// # Thread Safety
//
// Publish and Current may run concurrently. Realtime windows are serialized
// internally, so concurrent callers never report the same delta twice.
//
// # Latency
//
// When enabled, a result records per-packet match latency into an
// HdrHistogram owned by its worker; [MatchResult.Latency] summarizes it
// after the worker has finished.
package metrics
