package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/bulk"
	"github.com/abdul-hamid-achik/hitflow/packages/chain"
	"github.com/abdul-hamid-achik/hitflow/packages/core/env"
	"github.com/abdul-hamid-achik/hitflow/packages/core/runner"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Runs     []JSONRun   `json:"runs,omitempty"`
	Chains   []JSONChain `json:"chains,omitempty"`
	Bulk     []JSONBulk  `json:"bulk,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
}

// JSONRun represents one sequential action run
type JSONRun struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	DeviceID     string         `json:"deviceId,omitempty"`
	Status       string         `json:"status"`
	Executed     int            `json:"executed"`
	Skipped      int            `json:"skipped"`
	Log          []JSONLogEntry `json:"log"`
	FailedIndex  *int           `json:"failedIndex,omitempty"`
	FailedAction string         `json:"failedAction,omitempty"`
	Error        string         `json:"error,omitempty"`
	Screenshot   string         `json:"screenshot,omitempty"`
	Duration     float64        `json:"duration"`
}

type JSONLogEntry struct {
	Time    string `json:"time"`
	Message string `json:"message"`
}

// JSONChain represents one chain execution
type JSONChain struct {
	Name      string          `json:"name"`
	Steps     []JSONChainStep `json:"steps"`
	Variables env.Variables   `json:"variables,omitempty"`
	Error     string          `json:"error,omitempty"`
	Duration  float64         `json:"duration"`
}

type JSONChainStep struct {
	ID         string         `json:"id"`
	Method     string         `json:"method"`
	URL        string         `json:"url"`
	StatusCode int            `json:"statusCode"`
	Duration   float64        `json:"duration"`
	Extracted  map[string]any `json:"extracted,omitempty"`
}

// JSONBulk represents one bulk suite
type JSONBulk struct {
	Name       string                 `json:"name"`
	Results    []bulk.Result          `json:"results"`
	Report     *bulk.Report           `json:"report"`
	Thresholds []bulk.ThresholdResult `json:"thresholds,omitempty"`
}

// JSONFormatter collects results and writes one JSON document on Flush
type JSONFormatter struct {
	writer io.Writer
	output JSONOutput
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

func (f *JSONFormatter) FormatProgress(percent int, status string) {}

func (f *JSONFormatter) FormatRun(name string, report *runner.Report) {
	run := JSONRun{
		ID:         report.ID,
		Name:       name,
		DeviceID:   report.DeviceID,
		Status:     string(report.Status),
		Executed:   report.Executed,
		Skipped:    report.Skipped,
		Log:        make([]JSONLogEntry, len(report.Log)),
		Error:      report.Error,
		Screenshot: report.Screenshot,
		Duration:   float64(report.Duration.Milliseconds()),
	}
	for i, entry := range report.Log {
		run.Log[i] = JSONLogEntry{
			Time:    entry.Time.Format(time.RFC3339Nano),
			Message: entry.Message,
		}
	}
	if report.FailedAction != nil {
		idx := report.FailedIndex
		run.FailedIndex = &idx
		run.FailedAction = report.FailedAction.Describe()
	}

	f.output.Runs = append(f.output.Runs, run)
}

func (f *JSONFormatter) FormatChain(name string, result *chain.Result, err error) {
	c := JSONChain{Name: name, Steps: make([]JSONChainStep, 0)}
	if result != nil {
		for _, step := range result.Steps {
			c.Steps = append(c.Steps, JSONChainStep{
				ID:         step.Request.ID,
				Method:     step.Request.Method,
				URL:        step.Request.URL,
				StatusCode: step.Response.StatusCode,
				Duration:   float64(step.Response.Duration.Milliseconds()),
				Extracted:  step.Extracted,
			})
		}
		c.Variables = result.Variables
		c.Duration = float64(result.Duration.Milliseconds())
	}
	if err != nil {
		c.Error = err.Error()
	}

	f.output.Chains = append(f.output.Chains, c)
}

func (f *JSONFormatter) FormatBulk(name string, results []bulk.Result, report *bulk.Report, thresholds []bulk.ThresholdResult) {
	f.output.Bulk = append(f.output.Bulk, JSONBulk{
		Name:       name,
		Results:    results,
		Report:     report,
		Thresholds: thresholds,
	})
}

func (f *JSONFormatter) FormatError(err error) {
	f.output.Errors = append(f.output.Errors, err.Error())
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	f.output.Duration = float64(totalDuration.Milliseconds())
	f.output.Time = time.Now().Format(time.RFC3339)

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(f.output)
}
