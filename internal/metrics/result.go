package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// ResultInfo is a set of match counters.
type ResultInfo struct {
	Matches        uint64
	MatchedPackets uint64
	Packets        uint64
	Bytes          uint64
}

// Add returns the field-wise sum.
func (r ResultInfo) Add(o ResultInfo) ResultInfo {
	return ResultInfo{
		Matches:        r.Matches + o.Matches,
		MatchedPackets: r.MatchedPackets + o.MatchedPackets,
		Packets:        r.Packets + o.Packets,
		Bytes:          r.Bytes + o.Bytes,
	}
}

// Sub returns the field-wise difference. Counters are monotone, so o must
// be an earlier snapshot of the same source.
func (r ResultInfo) Sub(o ResultInfo) ResultInfo {
	return ResultInfo{
		Matches:        r.Matches - o.Matches,
		MatchedPackets: r.MatchedPackets - o.MatchedPackets,
		Packets:        r.Packets - o.Packets,
		Bytes:          r.Bytes - o.Bytes,
	}
}

// MatchResult is the record of one worker.
type MatchResult struct {
	// Worker is the spawn index, starting at zero.
	Worker int
	// Core is the CPU the worker was pinned to.
	Core int
	// UserTime and SystemTime are the worker thread's CPU time for the run.
	UserTime   time.Duration
	SystemTime time.Duration

	matches        atomic.Uint64
	matchedPackets atomic.Uint64
	packets        atomic.Uint64
	bytes          atomic.Uint64

	mu  sync.Mutex
	old ResultInfo

	hist *hdrhistogram.Histogram
}

// NewMatchResult creates the record for worker pinned to core. When latency
// is true the result keeps a match latency histogram.
func NewMatchResult(worker, core int, latency bool) *MatchResult {
	r := &MatchResult{Worker: worker, Core: core}
	if latency {
		// 1ns to 10s with 3 significant figures.
		r.hist = hdrhistogram.New(1, int64(10*time.Second), 3)
	}
	return r
}

// Publish stores the worker's cumulative counters.
func (r *MatchResult) Publish(info ResultInfo) {
	r.matches.Store(info.Matches)
	r.matchedPackets.Store(info.MatchedPackets)
	r.packets.Store(info.Packets)
	r.bytes.Store(info.Bytes)
}

// Current returns the last published counters.
func (r *MatchResult) Current() ResultInfo {
	return ResultInfo{
		Matches:        r.matches.Load(),
		MatchedPackets: r.matchedPackets.Load(),
		Packets:        r.packets.Load(),
		Bytes:          r.bytes.Load(),
	}
}

// Advance returns the counters accrued since the previous Advance and moves
// the snapshot forward.
func (r *MatchResult) Advance() ResultInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.Current()
	delta := cur.Sub(r.old)
	r.old = cur
	return delta
}

// RecordLatency adds one match duration. Only the owning worker may call it.
func (r *MatchResult) RecordLatency(d time.Duration) {
	if r.hist == nil {
		return
	}
	v := int64(d)
	if v < r.hist.LowestTrackableValue() {
		v = r.hist.LowestTrackableValue()
	}
	if v > r.hist.HighestTrackableValue() {
		v = r.hist.HighestTrackableValue()
	}
	_ = r.hist.RecordValue(v)
}

// RecordsLatency reports whether the result keeps a latency histogram.
func (r *MatchResult) RecordsLatency() bool { return r.hist != nil }

// Latency summarizes match latency. Call it only after the worker finished.
type Latency struct {
	Count int64
	P50   time.Duration
	P90   time.Duration
	P99   time.Duration
	Max   time.Duration
}

// Latency returns the recorded latency percentiles, or a zero value when
// recording is off or nothing was recorded.
func (r *MatchResult) Latency() Latency {
	if r.hist == nil || r.hist.TotalCount() == 0 {
		return Latency{}
	}
	return Latency{
		Count: r.hist.TotalCount(),
		P50:   time.Duration(r.hist.ValueAtQuantile(50)),
		P90:   time.Duration(r.hist.ValueAtQuantile(90)),
		P99:   time.Duration(r.hist.ValueAtQuantile(99)),
		Max:   time.Duration(r.hist.Max()),
	}
}
