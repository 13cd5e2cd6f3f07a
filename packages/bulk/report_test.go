package bulk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReport(t *testing.T) {
	results := []Result{
		{TestID: "a", Status: StatusSuccess, StatusCode: 200, ResponseTime: 100},
		{TestID: "b", Status: StatusFailed, StatusCode: 0, ResponseTime: 0, Error: "refused"},
		{TestID: "c", Status: StatusSuccess, StatusCode: 200, ResponseTime: 200},
	}

	report := GenerateReport(results)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Successful)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 66.67, report.SuccessRate)
	assert.Equal(t, float64(100), report.AvgResponseTime)
	assert.Equal(t, map[int]int{200: 2, 0: 1}, report.StatusCodes)

	assert.InDelta(t, 100, report.P50, 1)
	assert.InDelta(t, 200, report.P99, 1)
	assert.InDelta(t, 200, report.Max, 1)
}

func TestGenerateReport_Empty(t *testing.T) {
	report := GenerateReport(nil)

	assert.Equal(t, 0, report.Total)
	assert.Equal(t, float64(0), report.SuccessRate)
	assert.Equal(t, float64(0), report.AvgResponseTime)
	assert.Empty(t, report.StatusCodes)
}

func TestGenerateReport_Skipped(t *testing.T) {
	report := GenerateReport([]Result{
		{Status: StatusSuccess, StatusCode: 204, ResponseTime: 40},
		{Status: StatusSkipped},
	})

	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, float64(50), report.SuccessRate)
	assert.Equal(t, float64(20), report.AvgResponseTime)
	assert.InDelta(t, 40, report.P95, 1)
}

func TestReportEvaluate(t *testing.T) {
	report := &Report{SuccessRate: 95, P95: 180, P99: 450}

	results := report.Evaluate(Thresholds{
		MinSuccessRate: 90,
		P95:            200 * time.Millisecond,
		P99:            300 * time.Millisecond,
	})

	require.Len(t, results, 3)
	assert.True(t, results[0].Passed)
	assert.Equal(t, ">= 90%", results[0].Expected)
	assert.Equal(t, "95%", results[0].Actual)
	assert.True(t, results[1].Passed)
	assert.False(t, results[2].Passed)
	assert.Equal(t, "450ms", results[2].Actual)
	assert.False(t, AllPassed(results))

	assert.Empty(t, report.Evaluate(Thresholds{}))
	assert.True(t, AllPassed(nil))
}
