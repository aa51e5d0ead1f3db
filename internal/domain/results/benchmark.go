package results

import (
	"fmt"
	"sort"
	"strings"
)

// BenchmarkReport holds one benchmark run: the raw nanosecond samples, their
// second-based conversions and the reduced statistics. Success and error are
// decided by the caller and passed through untouched.
type BenchmarkReport struct {
	RuleID                      string    `json:"rule_id"`
	LogType                     string    `json:"log_type"`
	Iterations                  int       `json:"iterations"`
	CompletedIterations         int       `json:"completed_iterations"`
	ReadTimeNanos               []int64   `json:"read_time_nanos"`
	ProcessingTimeNanos         []int64   `json:"processing_time_nanos"`
	ReadTimeSeconds             []float64 `json:"read_time_seconds"`
	ProcessingTimeSeconds       []float64 `json:"processing_time_seconds"`
	AvgReadTimeSeconds          float64   `json:"avg_read_time_seconds"`
	AvgProcessingTimeSeconds    float64   `json:"avg_processing_time_seconds"`
	MedianReadTimeSeconds       float64   `json:"median_read_time_seconds"`
	MedianProcessingTimeSeconds float64   `json:"median_processing_time_seconds"`
	Success                     bool      `json:"success"`
	ErrorMessage                *string   `json:"error_message"`
}

// NewBenchmarkReport reduces the raw timing samples. readNs and procNs are
// parallel arrays of nanosecond samples, one entry per completed iteration.
func NewBenchmarkReport(ruleID, logType string, iterations, completed int, readNs, procNs []int64, success bool, errorMessage *string) *BenchmarkReport {
	readSecs := toSeconds(readNs)
	procSecs := toSeconds(procNs)
	return &BenchmarkReport{
		RuleID:                      ruleID,
		LogType:                     logType,
		Iterations:                  iterations,
		CompletedIterations:         completed,
		ReadTimeNanos:               nonNil(readNs),
		ProcessingTimeNanos:         nonNil(procNs),
		ReadTimeSeconds:             readSecs,
		ProcessingTimeSeconds:       procSecs,
		AvgReadTimeSeconds:          mean(readSecs),
		AvgProcessingTimeSeconds:    mean(procSecs),
		MedianReadTimeSeconds:       median(readSecs),
		MedianProcessingTimeSeconds: median(procSecs),
		Success:                     success,
		ErrorMessage:                errorMessage,
	}
}

func (r *BenchmarkReport) JSON() (string, error) {
	return marshalIndent(r)
}

func (r *BenchmarkReport) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Benchmark %s (%s)\n", r.RuleID, r.LogType)
	fmt.Fprintf(&b, "\titerations: %d/%d\n", r.CompletedIterations, r.Iterations)
	fmt.Fprintf(&b, "\tavg read time: %fs\n", r.AvgReadTimeSeconds)
	fmt.Fprintf(&b, "\tavg processing time: %fs\n", r.AvgProcessingTimeSeconds)
	fmt.Fprintf(&b, "\tmedian read time: %fs\n", r.MedianReadTimeSeconds)
	fmt.Fprintf(&b, "\tmedian processing time: %fs\n", r.MedianProcessingTimeSeconds)
	fmt.Fprintf(&b, "\tsuccess: %t\n", r.Success)
	if r.ErrorMessage != nil {
		fmt.Fprintf(&b, "\terror: %s\n", *r.ErrorMessage)
	}
	return b.String()
}

func toSeconds(ns []int64) []float64 {
	out := make([]float64, len(ns))
	for i, v := range ns {
		out[i] = float64(v) / 1e9
	}
	return out
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// median takes the element at index len/2 of the sorted array. Even-length
// inputs resolve to the upper middle element, not the two-middle average.
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	return sorted[len(sorted)/2]
}

func nonNil(ns []int64) []int64 {
	if ns == nil {
		return []int64{}
	}
	return ns
}
