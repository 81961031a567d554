// Package threshold evaluates pass/fail assertions against a benchmark report.
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/torosent/regexbench/internal/output"
)

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Metric    string  // e.g., "mbps", "total_time", "matches"
	Aggregate string  // "min", "max", "avg" or "sum" across threads
	Operator  string  // "<", "<=", ">", ">=", "=="
	Value     float64 // The threshold value to compare against
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

var thresholdPattern = regexp.MustCompile(`^([a-z_0-9]+):([a-z]+)\s*([<>=!]+)\s*([0-9.]+)$`)

// metricExtractors maps a metric name to its per-thread value.
var metricExtractors = map[string]func(output.ThreadReport) (float64, bool){
	"mbps":            func(t output.ThreadReport) (float64, bool) { return t.Mbps, true },
	"mpps":            func(t output.ThreadReport) (float64, bool) { return t.Mpps, true },
	"user_time":       func(t output.ThreadReport) (float64, bool) { return t.UserTime, true },
	"system_time":     func(t output.ThreadReport) (float64, bool) { return t.SystemTime, true },
	"total_time":      func(t output.ThreadReport) (float64, bool) { return t.TotalTime, true },
	"matches":         func(t output.ThreadReport) (float64, bool) { return float64(t.TotalMatches), true },
	"matched_packets": func(t output.ThreadReport) (float64, bool) { return float64(t.TotalMatchedPackets), true },
	"memory_kb":       func(t output.ThreadReport) (float64, bool) { return float64(t.MaxMemoryKB), true },
	"latency_p50":     latencyExtractor(func(l output.ThreadReport) int64 { return int64(l.Latency.P50) }),
	"latency_p90":     latencyExtractor(func(l output.ThreadReport) int64 { return int64(l.Latency.P90) }),
	"latency_p99":     latencyExtractor(func(l output.ThreadReport) int64 { return int64(l.Latency.P99) }),
}

func latencyExtractor(get func(output.ThreadReport) int64) func(output.ThreadReport) (float64, bool) {
	return func(t output.ThreadReport) (float64, bool) {
		if t.Latency == nil {
			return 0, false
		}
		return float64(get(t)), true
	}
}

// Evaluator evaluates thresholds against a built report.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks all thresholds against the report's threads.
func (e *Evaluator) Evaluate(doc *output.Document) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, evaluateOne(t, doc))
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func evaluateOne(t Threshold, doc *output.Document) Result {
	actual, err := aggregate(t, doc)
	if err != nil {
		return Result{
			Threshold: t,
			Pass:      false,
			Message:   fmt.Sprintf("✗ %s: error: %v", t.Raw, err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s: %.6g %s %.6g", status, t.Raw, actual, t.Operator, t.Value),
	}
}

func aggregate(t Threshold, doc *output.Document) (float64, error) {
	extract, ok := metricExtractors[t.Metric]
	if !ok {
		return 0, fmt.Errorf("unknown metric: %s", t.Metric)
	}
	if doc == nil || len(doc.Threads) == 0 {
		return 0, fmt.Errorf("report has no threads")
	}

	values := make([]float64, 0, len(doc.Threads))
	for _, tr := range doc.Threads {
		v, ok := extract(tr)
		if !ok {
			return 0, fmt.Errorf("metric %s was not recorded (enable --latency)", t.Metric)
		}
		values = append(values, v)
	}

	switch t.Aggregate {
	case "min":
		m := values[0]
		for _, v := range values[1:] {
			m = math.Min(m, v)
		}
		return m, nil
	case "max":
		m := values[0]
		for _, v := range values[1:] {
			m = math.Max(m, v)
		}
		return m, nil
	case "sum", "avg":
		var sum float64
		for _, v := range values {
			sum += v
		}
		if t.Aggregate == "avg" {
			return sum / float64(len(values)), nil
		}
		return sum, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q", t.Aggregate)
	}
}

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
// - "mbps:min > 100"          (slowest thread at least 100 Mbps)
// - "mpps:avg >= 0.5"         (mean packet rate)
// - "total_time:max < 30"     (no thread used more than 30s of CPU)
// - "matches:sum == 1200"     (exact match count across threads)
// - "latency_p99:max < 50000" (nanoseconds, requires --latency)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := thresholdPattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: metric:aggregate operator value, e.g., 'mbps:min > 100')", s)
	}

	metric := matches[1]
	agg := matches[2]
	operator := matches[3]
	valueStr := matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	if _, ok := metricExtractors[metric]; !ok {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: %s)", metric, strings.Join(supportedMetrics(), ", "))
	}

	if !isValidAggregate(agg) {
		return Threshold{}, fmt.Errorf("unsupported aggregate: %q (supported: min, max, avg, sum)", agg)
	}

	if !isValidOperator(operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:    metric,
		Aggregate: agg,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errors []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errors = append(errors, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errors, "; "))
	}

	return result, nil
}

func supportedMetrics() []string {
	names := make([]string, 0, len(metricExtractors))
	for name := range metricExtractors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isValidAggregate(aggregate string) bool {
	switch aggregate {
	case "min", "max", "avg", "sum":
		return true
	}
	return false
}

func isValidOperator(operator string) bool {
	valid := []string{"<", "<=", ">", ">=", "=="}
	for _, v := range valid {
		if operator == v {
			return true
		}
	}
	return false
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Handle floating point comparison with small epsilon
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
