package output

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/bulk"
	"github.com/abdul-hamid-achik/hitflow/packages/chain"
	"github.com/abdul-hamid-achik/hitflow/packages/core/runner"
)

// JUnit XML structures

// JUnitTestSuites is the root element
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr,omitempty"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Skipped    int              `xml:"skipped,attr"`
	Time       float64          `xml:"time,attr"`
	Timestamp  string           `xml:"timestamp,attr,omitempty"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite represents a test suite (typically a file)
type JUnitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Skipped   int             `xml:"skipped,attr"`
	Time      float64         `xml:"time,attr"`
	Timestamp string          `xml:"timestamp,attr,omitempty"`
	TestCases []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase represents a single test case
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

// JUnitFailure represents a test failure
type JUnitFailure struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

// JUnitError represents a test error
type JUnitError struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

// JUnitSkipped represents a skipped test
type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// JUnitFormatter formats test results as JUnit XML
type JUnitFormatter struct {
	writer     io.Writer
	testSuites []JUnitTestSuite
}

type JUnitOption func(*JUnitFormatter)

func NewJUnitFormatter(opts ...JUnitOption) *JUnitFormatter {
	f := &JUnitFormatter{
		writer:     os.Stdout,
		testSuites: make([]JUnitTestSuite, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JUnitWithWriter(w io.Writer) JUnitOption {
	return func(f *JUnitFormatter) {
		f.writer = w
	}
}

func (f *JUnitFormatter) FormatProgress(percent int, status string) {}

// FormatRun records a sequential run as a suite with a single case, since a
// run stops at its first failure
func (f *JUnitFormatter) FormatRun(name string, report *runner.Report) {
	tc := JUnitTestCase{
		Name:      name,
		ClassName: "run",
		Time:      report.Duration.Seconds(),
	}
	suite := JUnitTestSuite{
		Name:      name,
		Tests:     1,
		Time:      report.Duration.Seconds(),
		Timestamp: report.StartedAt.Format(time.RFC3339),
	}

	if !report.Passed() {
		suite.Failures++
		var content strings.Builder
		for _, entry := range report.Log {
			fmt.Fprintf(&content, "%s\n", entry.String())
		}
		message := report.Error
		if report.FailedAction != nil {
			message = fmt.Sprintf("step %d (%s): %s", report.FailedIndex+1, report.FailedAction.Describe(), report.Error)
		}
		tc.Failure = &JUnitFailure{
			Message: message,
			Type:    "ActionFailure",
			Content: content.String(),
		}
	}

	suite.TestCases = []JUnitTestCase{tc}
	f.testSuites = append(f.testSuites, suite)
}

func (f *JUnitFormatter) FormatChain(name string, result *chain.Result, err error) {
	suite := JUnitTestSuite{
		Name:      name,
		Timestamp: time.Now().Format(time.RFC3339),
		TestCases: make([]JUnitTestCase, 0),
	}

	if result != nil {
		suite.Time = result.Duration.Seconds()
		for _, step := range result.Steps {
			tc := JUnitTestCase{
				Name:      chainStepName(step.Request),
				ClassName: name,
				Time:      step.Response.Duration.Seconds(),
			}
			if step.Response.StatusCode >= 400 {
				suite.Failures++
				tc.Failure = &JUnitFailure{
					Message: fmt.Sprintf("%s %s returned %d", step.Request.Method, step.Request.URL, step.Response.StatusCode),
					Type:    "HTTPStatus",
				}
			}
			suite.TestCases = append(suite.TestCases, tc)
		}
	}

	if err != nil {
		suite.Errors++
		suite.TestCases = append(suite.TestCases, JUnitTestCase{
			Name:      "chain",
			ClassName: name,
			Error: &JUnitError{
				Message: err.Error(),
				Type:    "Error",
			},
		})
	}

	suite.Tests = len(suite.TestCases)
	f.testSuites = append(f.testSuites, suite)
}

func (f *JUnitFormatter) FormatBulk(name string, results []bulk.Result, report *bulk.Report, thresholds []bulk.ThresholdResult) {
	suite := JUnitTestSuite{
		Name:      name,
		Failures:  report.Failed,
		Skipped:   report.Skipped,
		Timestamp: time.Now().Format(time.RFC3339),
		TestCases: make([]JUnitTestCase, 0, len(results)+len(thresholds)),
	}

	for _, r := range results {
		seconds := float64(r.ResponseTime) / 1000
		suite.Time += seconds
		tc := JUnitTestCase{
			Name:      r.Name,
			ClassName: name,
			Time:      seconds,
		}
		switch r.Status {
		case bulk.StatusSkipped:
			tc.Skipped = &JUnitSkipped{Message: "skipped"}
		case bulk.StatusFailed:
			tc.Failure = &JUnitFailure{
				Message: r.Error,
				Type:    "BulkFailure",
				Content: fmt.Sprintf("status code %d", r.StatusCode),
			}
		}
		suite.TestCases = append(suite.TestCases, tc)
	}

	for _, t := range thresholds {
		tc := JUnitTestCase{
			Name:      "threshold: " + t.Name,
			ClassName: name,
		}
		if !t.Passed {
			suite.Failures++
			tc.Failure = &JUnitFailure{
				Message: fmt.Sprintf("expected %s, got %s", t.Expected, t.Actual),
				Type:    "ThresholdFailure",
			}
		}
		suite.TestCases = append(suite.TestCases, tc)
	}

	suite.Tests = len(suite.TestCases)
	f.testSuites = append(f.testSuites, suite)
}

func (f *JUnitFormatter) FormatError(err error) {
	f.testSuites = append(f.testSuites, JUnitTestSuite{
		Name:   "hitflow",
		Tests:  1,
		Errors: 1,
		TestCases: []JUnitTestCase{{
			Name:      "setup",
			ClassName: "hitflow",
			Error:     &JUnitError{Message: err.Error(), Type: "Error"},
		}},
	})
}

func (f *JUnitFormatter) FormatHeader(version string) {
	// No header needed for JUnit XML
}

// Flush writes the accumulated JUnit XML output
func (f *JUnitFormatter) Flush(totalDuration time.Duration) error {
	var totalTests, totalFailures, totalErrors, totalSkipped int
	for _, suite := range f.testSuites {
		totalTests += suite.Tests
		totalFailures += suite.Failures
		totalErrors += suite.Errors
		totalSkipped += suite.Skipped
	}

	suites := JUnitTestSuites{
		Name:       "hitflow",
		Tests:      totalTests,
		Failures:   totalFailures,
		Errors:     totalErrors,
		Skipped:    totalSkipped,
		Time:       totalDuration.Seconds(),
		Timestamp:  time.Now().Format(time.RFC3339),
		TestSuites: f.testSuites,
	}

	fmt.Fprintf(f.writer, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	encoder := xml.NewEncoder(f.writer)
	encoder.Indent("", "  ")
	return encoder.Encode(suites)
}
