package output

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/hitflow/packages/bulk"
	"github.com/abdul-hamid-achik/hitflow/packages/chain"
	"github.com/abdul-hamid-achik/hitflow/packages/core/runner"
)

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("hitflow"), version)
}

func (f *ConsoleFormatter) FormatProgress(percent int, status string) {
	if !f.verbose {
		return
	}
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(f.writer, "  %s %s\n", cyan(fmt.Sprintf("[%3d%%]", percent)), status)
}

func (f *ConsoleFormatter) FormatRun(name string, report *runner.Report) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n", bold("Running: "+name))
	if report.DeviceID != "" {
		fmt.Fprintf(f.writer, "Device:  %s\n", report.DeviceID)
	}
	fmt.Fprintf(f.writer, "\n")

	for _, entry := range report.Log {
		fmt.Fprintf(f.writer, "  %s %s\n", cyan(entry.Time.Format("15:04:05.000")), entry.Message)
	}

	if !report.Passed() {
		fmt.Fprintf(f.writer, "\n  %s", red("✗ "))
		if report.FailedAction != nil {
			fmt.Fprintf(f.writer, "step %d: %s", report.FailedIndex+1, report.FailedAction.Describe())
		}
		fmt.Fprintf(f.writer, "\n")
		if report.Error != "" {
			fmt.Fprintf(f.writer, "    %s %s\n", red("→"), formatValue(report.Error, 300))
		}
		if report.Screenshot != "" {
			fmt.Fprintf(f.writer, "    Screenshot captured (%d bytes)\n", len(report.Screenshot))
		}
	}

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Steps: ")
	if report.Executed > 0 {
		executed := fmt.Sprintf("%d executed", report.Executed)
		if report.Passed() {
			fmt.Fprintf(f.writer, "%s, ", green(executed))
		} else {
			fmt.Fprintf(f.writer, "%s, ", red(executed))
		}
	}
	if report.Skipped > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d skipped", report.Skipped)))
	}
	status := green(string(report.Status))
	if !report.Passed() {
		status = red(string(report.Status))
	}
	fmt.Fprintf(f.writer, "%s\n", status)
	fmt.Fprintf(f.writer, "Time:  %dms\n", report.Duration.Milliseconds())
	fmt.Fprintf(f.writer, "\n")
}

func (f *ConsoleFormatter) FormatChain(name string, result *chain.Result, err error) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n\n", bold("Chain: "+name))

	if result != nil {
		for _, step := range result.Steps {
			symbol := green("✓")
			if step.Response.StatusCode >= 400 {
				symbol = red("✗")
			}
			fmt.Fprintf(f.writer, "  %s %s %s %s %s\n",
				symbol, chainStepName(step.Request), step.Request.Method, step.Request.URL,
				cyan(fmt.Sprintf("(%d, %dms)", step.Response.StatusCode, step.Response.Duration.Milliseconds())))

			if f.verbose && len(step.Extracted) > 0 {
				for _, k := range sortedKeys(step.Extracted) {
					fmt.Fprintf(f.writer, "      %s = %s\n", k, formatValue(step.Extracted[k], 100))
				}
			}
		}
	}

	if err != nil {
		fmt.Fprintf(f.writer, "  %s %s\n", red("x"), red(err.Error()))
	}

	if result != nil {
		fmt.Fprintf(f.writer, "\nRequests:  %d\n", len(result.Steps))
		fmt.Fprintf(f.writer, "Variables: %d\n", len(result.Variables))
		fmt.Fprintf(f.writer, "Time:      %dms\n", result.Duration.Milliseconds())
	}
	fmt.Fprintf(f.writer, "\n")
}

func (f *ConsoleFormatter) FormatBulk(name string, results []bulk.Result, report *bulk.Report, thresholds []bulk.ThresholdResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n\n", bold("Bulk: "+name))

	for _, r := range results {
		switch r.Status {
		case bulk.StatusSkipped:
			fmt.Fprintf(f.writer, "  %s %s\n", yellow("-"), r.Name)
		case bulk.StatusSuccess:
			fmt.Fprintf(f.writer, "  %s %s %s\n", green("✓"), r.Name, cyan(fmt.Sprintf("(%d, %dms)", r.StatusCode, r.ResponseTime)))
		default:
			fmt.Fprintf(f.writer, "  %s %s %s\n", red("✗"), r.Name, red(fmt.Sprintf("(%d, %s)", r.StatusCode, r.Error)))
		}
	}

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Tests: ")
	if report.Successful > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", report.Successful)))
	}
	if report.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", report.Failed)))
	}
	if report.Skipped > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d skipped", report.Skipped)))
	}
	fmt.Fprintf(f.writer, "%d total\n", report.Total)
	fmt.Fprintf(f.writer, "Success rate:  %.2f%%\n", report.SuccessRate)
	fmt.Fprintf(f.writer, "Avg response:  %.2fms\n", report.AvgResponseTime)
	fmt.Fprintf(f.writer, "Latency:       p50=%.2fms p95=%.2fms p99=%.2fms\n", report.P50, report.P95, report.P99)

	if len(report.StatusCodes) > 0 {
		codes := make([]int, 0, len(report.StatusCodes))
		for code := range report.StatusCodes {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		fmt.Fprintf(f.writer, "Status codes: ")
		for i, code := range codes {
			if i > 0 {
				fmt.Fprintf(f.writer, ", ")
			}
			fmt.Fprintf(f.writer, "%d×%d", code, report.StatusCodes[code])
		}
		fmt.Fprintf(f.writer, "\n")
	}

	if len(thresholds) > 0 {
		fmt.Fprintf(f.writer, "\nThresholds:\n")
		for _, t := range thresholds {
			symbol := green("✓")
			if !t.Passed {
				symbol = red("✗")
			}
			fmt.Fprintf(f.writer, "  %s %s: %s (expected %s)\n", symbol, t.Name, t.Actual, t.Expected)
		}
	}
	fmt.Fprintf(f.writer, "\n")
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
