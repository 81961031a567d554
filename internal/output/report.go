package output

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/torosent/regexbench/internal/metrics"
)

// Report field names, in print order.
const (
	FieldTotalMatches        = "TotalMatches"
	FieldTotalMatchedPackets = "TotalMatchedPackets"
	FieldUserTime            = "UserTime"
	FieldSystemTime          = "SystemTime"
	FieldTotalTime           = "TotalTime"
	FieldTotalBytes          = "TotalBytes"
	FieldTotalPackets        = "TotalPackets"
	FieldMbps                = "Mbps"
	FieldMpps                = "Mpps"
	FieldMaxMemory           = "MaximumMemoryUsed(kB)"
	FieldLatencyP50          = "LatencyP50(ns)"
	FieldLatencyP90          = "LatencyP90(ns)"
	FieldLatencyP99          = "LatencyP99(ns)"
)

// Prefix is the namespace of every report key.
const Prefix = "regexbench."

// ReportInput is everything needed to build the per-thread report.
type ReportInput struct {
	RunID         string
	Engine        string
	Repeat        int
	CorpusBytes   uint64 // payload bytes of one pass
	CorpusPackets uint64 // packets of one pass
	MaxMemoryKB   int64
	Results       []*metrics.MatchResult
}

// ThreadReport holds the computed metrics of one worker.
type ThreadReport struct {
	Key                 string // "thread<core>" or "thread<core>_<worker>" for a reused core
	Core                int
	Worker              int
	TotalMatches        uint64
	TotalMatchedPackets uint64
	UserTime            float64 // seconds
	SystemTime          float64 // seconds
	TotalTime           float64 // seconds
	TotalBytes          uint64
	TotalPackets        uint64
	Mbps                float64
	Mpps                float64
	MaxMemoryKB         int64
	Latency             *metrics.Latency
}

// RunInfo identifies the run.
type RunInfo struct {
	RunID   string
	Engine  string
	Repeat  int
	Threads int
}

// Document is the report of a finished run.
type Document struct {
	Run     RunInfo
	Threads []ThreadReport
}

// BuildReport computes the per-thread metrics. Throughput is zero when a
// worker consumed no measurable CPU time.
func BuildReport(in ReportInput) *Document {
	repeat := in.Repeat
	if repeat < 1 {
		repeat = 1
	}
	doc := &Document{
		Run: RunInfo{
			RunID:   in.RunID,
			Engine:  in.Engine,
			Repeat:  repeat,
			Threads: len(in.Results),
		},
		Threads: make([]ThreadReport, 0, len(in.Results)),
	}

	seen := make(map[int]bool, len(in.Results))
	for _, res := range in.Results {
		cur := res.Current()
		user := res.UserTime.Seconds()
		system := res.SystemTime.Seconds()
		total := user + system

		tr := ThreadReport{
			Key:                 threadKey(res, seen),
			Core:                res.Core,
			Worker:              res.Worker,
			TotalMatches:        cur.Matches,
			TotalMatchedPackets: cur.MatchedPackets,
			UserTime:            user,
			SystemTime:          system,
			TotalTime:           total,
			TotalBytes:          in.CorpusBytes,
			TotalPackets:        in.CorpusPackets,
			MaxMemoryKB:         in.MaxMemoryKB,
		}
		if total > 0 {
			tr.Mbps = float64(in.CorpusBytes) * float64(repeat) / total / 1e6 * 8
			tr.Mpps = float64(in.CorpusPackets) * float64(repeat) / total / 1e6
		}
		if res.RecordsLatency() {
			lat := res.Latency()
			tr.Latency = &lat
		}
		doc.Threads = append(doc.Threads, tr)
	}
	return doc
}

func threadKey(res *metrics.MatchResult, seen map[int]bool) string {
	key := "thread" + strconv.Itoa(res.Core)
	if seen[res.Core] {
		return key + "_" + strconv.Itoa(res.Worker)
	}
	seen[res.Core] = true
	return key
}

// Field is one rendered report value.
type Field struct {
	Name  string
	Value string
}

// Fields renders the thread's values in report order. Times use six
// significant digits; throughput uses six decimals.
func (t ThreadReport) Fields() []Field {
	fields := []Field{
		{FieldTotalMatches, strconv.FormatUint(t.TotalMatches, 10)},
		{FieldTotalMatchedPackets, strconv.FormatUint(t.TotalMatchedPackets, 10)},
		{FieldUserTime, formatSeconds(t.UserTime)},
		{FieldSystemTime, formatSeconds(t.SystemTime)},
		{FieldTotalTime, formatSeconds(t.TotalTime)},
		{FieldTotalBytes, strconv.FormatUint(t.TotalBytes, 10)},
		{FieldTotalPackets, strconv.FormatUint(t.TotalPackets, 10)},
		{FieldMbps, strconv.FormatFloat(t.Mbps, 'f', 6, 64)},
		{FieldMpps, strconv.FormatFloat(t.Mpps, 'f', 6, 64)},
		{FieldMaxMemory, strconv.FormatInt(t.MaxMemoryKB, 10)},
	}
	if t.Latency != nil {
		fields = append(fields,
			Field{FieldLatencyP50, strconv.FormatInt(int64(t.Latency.P50), 10)},
			Field{FieldLatencyP90, strconv.FormatInt(int64(t.Latency.P90), 10)},
			Field{FieldLatencyP99, strconv.FormatInt(int64(t.Latency.P99), 10)},
		)
	}
	return fields
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// PrintReport outputs the human-readable per-thread report. Headers are
// colored only when w is a terminal.
func PrintReport(w io.Writer, doc *Document) {
	header := color.New(color.FgCyan, color.Bold)
	if !isTerminal(w) {
		header.DisableColor()
	}

	header.Fprintf(w, "run %s", doc.Run.RunID)
	fmt.Fprintf(w, " engine=%s repeat=%d threads=%d\n\n", doc.Run.Engine, doc.Run.Repeat, doc.Run.Threads)
	for _, t := range doc.Threads {
		header.Fprintln(w, t.Key)
		for _, f := range t.Fields() {
			fmt.Fprintf(w, "%s : %s\n", f.Name, f.Value)
		}
		fmt.Fprintln(w)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
