package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitflow/packages/action"
	"github.com/abdul-hamid-achik/hitflow/packages/bulk"
	"github.com/abdul-hamid-achik/hitflow/packages/chain"
	"github.com/abdul-hamid-achik/hitflow/packages/core/env"
	"github.com/abdul-hamid-achik/hitflow/packages/core/runner"
)

var stamp = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func failedReport() *runner.Report {
	return &runner.Report{
		ID:       "run-1",
		DeviceID: "emulator-5554",
		Status:   runner.StatusFailed,
		Log: []action.LogEntry{
			{Time: stamp, Message: "Attempt 1/1: tap id=submit"},
		},
		FailedAction: &action.Action{Kind: action.KindTap, Element: action.Element{"id": "submit"}},
		FailedIndex:  0,
		Error:        "element not found",
		Executed:     1,
		StartedAt:    stamp,
		Duration:     120 * time.Millisecond,
	}
}

func chainResult() *chain.Result {
	return &chain.Result{
		Steps: []chain.StepResult{
			{
				Request:   &chain.Request{ID: "login", Method: "POST", URL: "https://api.test/login"},
				Response:  &chain.Response{StatusCode: 200, Duration: 30 * time.Millisecond},
				Extracted: map[string]any{"token": "abc"},
			},
			{
				Request:  &chain.Request{ID: "me", Name: "profile", Method: "GET", URL: "https://api.test/me"},
				Response: &chain.Response{StatusCode: 404, Duration: 10 * time.Millisecond},
			},
		},
		Variables: env.Variables{"token": "abc"},
		Duration:  45 * time.Millisecond,
	}
}

func bulkResults() ([]bulk.Result, *bulk.Report) {
	results := []bulk.Result{
		{TestID: "t1", Name: "health", Status: bulk.StatusSuccess, StatusCode: 200, ResponseTime: 100},
		{TestID: "t2", Name: "broken", Status: bulk.StatusFailed, Error: "connection refused"},
		{TestID: "t3", Name: "legacy", Status: bulk.StatusSkipped},
	}
	return results, bulk.GenerateReport(results)
}

func TestNew(t *testing.T) {
	for _, format := range []string{"", "console", "JSON", "junit"} {
		f, err := New(format, Options{Writer: &bytes.Buffer{}, NoColor: true})
		require.NoError(t, err, format)
		assert.NotNil(t, f)
	}

	_, err := New("html", Options{})
	assert.Error(t, err)
}

func TestConsoleFormatter(t *testing.T) {
	t.Run("failed run", func(t *testing.T) {
		var buf bytes.Buffer
		f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))
		f.FormatRun("login.yaml", failedReport())

		out := buf.String()
		assert.Contains(t, out, "Running: login.yaml")
		assert.Contains(t, out, "Device:  emulator-5554")
		assert.Contains(t, out, "Attempt 1/1: tap id=submit")
		assert.Contains(t, out, "step 1: tap id=submit")
		assert.Contains(t, out, "element not found")
		assert.Contains(t, out, "1 executed")
		assert.Contains(t, out, "failed")
	})

	t.Run("progress only when verbose", func(t *testing.T) {
		var buf bytes.Buffer
		NewConsoleFormatter(WithWriter(&buf), WithNoColor(true)).FormatProgress(50, "Step 2/4: tap")
		assert.Empty(t, buf.String())

		NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true)).FormatProgress(50, "Step 2/4: tap")
		assert.Contains(t, buf.String(), "[ 50%] Step 2/4: tap")
	})

	t.Run("chain", func(t *testing.T) {
		var buf bytes.Buffer
		f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))
		f.FormatChain("auth", chainResult(), errors.New("request orders: timeout"))

		out := buf.String()
		assert.Contains(t, out, "Chain: auth")
		assert.Contains(t, out, "login POST https://api.test/login")
		assert.Contains(t, out, "profile GET https://api.test/me")
		assert.Contains(t, out, "token = abc")
		assert.Contains(t, out, "request orders: timeout")
		assert.Contains(t, out, "Requests:  2")
	})

	t.Run("bulk", func(t *testing.T) {
		var buf bytes.Buffer
		results, report := bulkResults()
		f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))
		f.FormatBulk("smoke", results, report, []bulk.ThresholdResult{
			{Name: "success rate", Passed: false, Expected: ">= 90%", Actual: "33.33%"},
		})

		out := buf.String()
		assert.Contains(t, out, "Bulk: smoke")
		assert.Contains(t, out, "1 passed, 1 failed, 1 skipped, 3 total")
		assert.Contains(t, out, "Success rate:  33.33%")
		assert.Contains(t, out, "0×2, 200×1")
		assert.Contains(t, out, "success rate: 33.33% (expected >= 90%)")
	})
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))

	f.FormatHeader("v1")
	f.FormatRun("login.yaml", failedReport())
	f.FormatChain("auth", chainResult(), nil)
	results, report := bulkResults()
	f.FormatBulk("smoke", results, report, nil)
	f.FormatError(errors.New("history unavailable"))
	require.NoError(t, f.Flush(time.Second))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	require.Len(t, out.Runs, 1)
	assert.Equal(t, "failed", out.Runs[0].Status)
	require.NotNil(t, out.Runs[0].FailedIndex)
	assert.Equal(t, 0, *out.Runs[0].FailedIndex)
	assert.Equal(t, "tap id=submit", out.Runs[0].FailedAction)

	require.Len(t, out.Chains, 1)
	assert.Len(t, out.Chains[0].Steps, 2)
	assert.Equal(t, "abc", out.Chains[0].Variables["token"])

	require.Len(t, out.Bulk, 1)
	assert.Equal(t, 3, out.Bulk[0].Report.Total)
	assert.Equal(t, []string{"history unavailable"}, out.Errors)
	assert.Equal(t, float64(1000), out.Duration)
}

func TestJUnitFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJUnitFormatter(JUnitWithWriter(&buf))

	f.FormatRun("login.yaml", failedReport())
	f.FormatChain("auth", chainResult(), errors.New("boom"))
	results, report := bulkResults()
	f.FormatBulk("smoke", results, report, []bulk.ThresholdResult{{Name: "p95", Passed: true}})
	require.NoError(t, f.Flush(time.Second))

	assert.Contains(t, buf.String(), `<?xml version="1.0" encoding="UTF-8"?>`)

	var suites JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &suites))

	require.Len(t, suites.TestSuites, 3)
	assert.Equal(t, "hitflow", suites.Name)

	run := suites.TestSuites[0]
	assert.Equal(t, 1, run.Failures)
	require.NotNil(t, run.TestCases[0].Failure)
	assert.Contains(t, run.TestCases[0].Failure.Message, "element not found")

	ch := suites.TestSuites[1]
	assert.Equal(t, 3, ch.Tests)
	assert.Equal(t, 1, ch.Failures)
	assert.Equal(t, 1, ch.Errors)

	bk := suites.TestSuites[2]
	assert.Equal(t, 4, bk.Tests)
	assert.Equal(t, 1, bk.Failures)
	assert.Equal(t, 1, bk.Skipped)

	assert.Equal(t, 8, suites.Tests)
}
