package metrics

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
)

// Statistic map keys.
const (
	KeySec            = "Sec"
	KeyMatches        = "Matches"
	KeyMatchedPackets = "MatchedPackets"
	KeyPackets        = "Packets"
	KeyBytes          = "Bytes"
)

// Reporter receives one statistics map.
type Reporter func(map[string]uint64)

// realtimeMu serializes whole windows so that two concurrent Realtime calls
// each see a consistent set of snapshots.
var realtimeMu sync.Mutex

// Statistic reduces results and hands the map to report. sec == 0 selects
// cumulative totals; any other value selects the windowed delta since the
// previous windowed call. A nil report prints to stdout.
func Statistic(sec uint32, results []*MatchResult, report Reporter) {
	var info ResultInfo
	if sec == 0 {
		info = Total(results)
	} else {
		info = Realtime(results)
	}
	if report == nil {
		report = DefaultReporter(os.Stdout)
	}
	report(MakeStatistic(sec, info))
}

// Total sums the current counters of all results. It has no side effects.
func Total(results []*MatchResult) ResultInfo {
	var sum ResultInfo
	for _, r := range results {
		sum = sum.Add(r.Current())
	}
	return sum
}

// Realtime sums the counters accrued since the previous Realtime call and
// advances every result's snapshot.
func Realtime(results []*MatchResult) ResultInfo {
	realtimeMu.Lock()
	defer realtimeMu.Unlock()

	var sum ResultInfo
	for _, r := range results {
		sum = sum.Add(r.Advance())
	}
	return sum
}

// MakeStatistic converts a reduction into the reporter map.
func MakeStatistic(sec uint32, info ResultInfo) map[string]uint64 {
	return map[string]uint64{
		KeySec:            uint64(sec),
		KeyMatches:        info.Matches,
		KeyMatchedPackets: info.MatchedPackets,
		KeyPackets:        info.Packets,
		KeyBytes:          info.Bytes,
	}
}

// DefaultReporter prints each map as one line of sorted key=value pairs.
func DefaultReporter(w io.Writer) Reporter {
	return func(m map[string]uint64) {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i > 0 {
				fmt.Fprint(w, " ")
			}
			fmt.Fprintf(w, "%s=%d", k, m[k])
		}
		fmt.Fprintln(w)
	}
}
