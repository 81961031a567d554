package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/regexbench/internal/metrics"
)

// ProgressReporter prints windowed statistics while a run is in flight.
type ProgressReporter struct {
	results  []*metrics.MatchResult
	interval time.Duration
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
	start    time.Time
}

// NewProgressReporter creates a progress reporter that samples results at
// the given interval.
func NewProgressReporter(results []*metrics.MatchResult, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		results:  results,
		interval: interval,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
		start:    time.Now(),
	}
}

// Start begins sampling in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts sampling, waits for the goroutine to exit and prints the final
// window, so the printed windows add up to the run totals.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
		metrics.Statistic(p.second(), p.results, p.report)
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			metrics.Statistic(p.second(), p.results, p.report)
		case <-p.done:
			return
		}
	}
}

// second labels a window with the elapsed whole seconds, never zero since
// zero selects cumulative mode.
func (p *ProgressReporter) second() uint32 {
	sec := uint32(time.Since(p.start) / time.Second)
	if sec == 0 {
		sec = 1
	}
	return sec
}

func (p *ProgressReporter) report(m map[string]uint64) {
	fmt.Fprintln(p.writer, FormatWindow(m, p.interval))
}

// FormatWindow renders one windowed statistics map with its throughput.
func FormatWindow(m map[string]uint64, window time.Duration) string {
	var mbps, mpps float64
	if s := window.Seconds(); s > 0 {
		mbps = float64(m[metrics.KeyBytes]) * 8 / s / 1e6
		mpps = float64(m[metrics.KeyPackets]) / s / 1e6
	}
	return fmt.Sprintf("[%4ds] packets=%d bytes=%d matches=%d matched_packets=%d mbps=%.3f mpps=%.6f",
		m[metrics.KeySec],
		m[metrics.KeyPackets],
		m[metrics.KeyBytes],
		m[metrics.KeyMatches],
		m[metrics.KeyMatchedPackets],
		mbps,
		mpps,
	)
}
