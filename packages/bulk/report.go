package bulk

import (
	"math"
	"strconv"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Latencies are recorded in microseconds, from 1us to 60s
const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Report summarises a finished bulk run
type Report struct {
	Total           int         `json:"total"`
	Successful      int         `json:"successful"`
	Failed          int         `json:"failed"`
	Skipped         int         `json:"skipped"`
	SuccessRate     float64     `json:"successRate"`
	AvgResponseTime float64     `json:"avgResponseTime"`
	StatusCodes     map[int]int `json:"statusCodes"`

	// Percentiles over tests that ran, in milliseconds
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

// GenerateReport reduces results to summary statistics. The success rate is
// a percentage rounded to two decimals; the mean response time counts every
// result, including failures that never reached the network.
func GenerateReport(results []Result) *Report {
	report := &Report{
		Total:       len(results),
		StatusCodes: make(map[int]int),
	}
	if len(results) == 0 {
		return report
	}

	histogram := hdrhistogram.New(minLatencyUs, maxLatencyUs, 3)
	var totalTime int64

	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			report.Successful++
		case StatusFailed:
			report.Failed++
		case StatusSkipped:
			report.Skipped++
		}

		report.StatusCodes[r.StatusCode]++
		totalTime += r.ResponseTime

		if r.Status != StatusSkipped {
			_ = histogram.RecordValue(clampLatency(r.ResponseTime * 1000))
		}
	}

	report.SuccessRate = round2(float64(report.Successful) / float64(report.Total) * 100)
	report.AvgResponseTime = float64(totalTime) / float64(report.Total)

	if histogram.TotalCount() > 0 {
		report.P50 = toMillis(histogram.ValueAtQuantile(50))
		report.P95 = toMillis(histogram.ValueAtQuantile(95))
		report.P99 = toMillis(histogram.ValueAtQuantile(99))
		report.Max = toMillis(histogram.Max())
	}

	return report
}

// Thresholds are pass/fail limits applied to a report. Zero disables a check.
type Thresholds struct {
	MinSuccessRate float64       `json:"minSuccessRate,omitempty" yaml:"minSuccessRate,omitempty"`
	P95            time.Duration `json:"p95,omitempty" yaml:"p95,omitempty"`
	P99            time.Duration `json:"p99,omitempty" yaml:"p99,omitempty"`
}

type ThresholdResult struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// Evaluate checks the report against t
func (r *Report) Evaluate(t Thresholds) []ThresholdResult {
	var results []ThresholdResult

	if t.MinSuccessRate > 0 {
		results = append(results, ThresholdResult{
			Name:     "success rate",
			Passed:   r.SuccessRate >= t.MinSuccessRate,
			Expected: ">= " + formatFloat(t.MinSuccessRate) + "%",
			Actual:   formatFloat(r.SuccessRate) + "%",
		})
	}

	if t.P95 > 0 {
		actual := millisToDuration(r.P95)
		results = append(results, ThresholdResult{
			Name:     "p95",
			Passed:   actual <= t.P95,
			Expected: "<= " + t.P95.String(),
			Actual:   actual.String(),
		})
	}

	if t.P99 > 0 {
		actual := millisToDuration(r.P99)
		results = append(results, ThresholdResult{
			Name:     "p99",
			Passed:   actual <= t.P99,
			Expected: "<= " + t.P99.String(),
			Actual:   actual.String(),
		})
	}

	return results
}

// AllPassed reports whether every threshold result passed
func AllPassed(results []ThresholdResult) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

func clampLatency(us int64) int64 {
	if us < minLatencyUs {
		return minLatencyUs
	}
	if us > maxLatencyUs {
		return maxLatencyUs
	}
	return us
}

func toMillis(us int64) float64 {
	return round2(float64(us) / 1000)
}

func millisToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}
