package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/bulk"
	"github.com/abdul-hamid-achik/hitflow/packages/chain"
	"github.com/abdul-hamid-achik/hitflow/packages/core/runner"
)

// Formatter renders the outcome of each kind of run
type Formatter interface {
	FormatHeader(version string)
	FormatProgress(percent int, status string)
	FormatRun(name string, report *runner.Report)
	FormatChain(name string, result *chain.Result, err error)
	FormatBulk(name string, results []bulk.Result, report *bulk.Report, thresholds []bulk.ThresholdResult)
	FormatError(err error)
}

// Flushable is implemented by formatters that write everything at the end
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// Options shared by every formatter
type Options struct {
	Writer  io.Writer
	Verbose bool
	NoColor bool
}

// New returns the formatter for format: console (default), json or junit
func New(format string, opts Options) (Formatter, error) {
	switch strings.ToLower(format) {
	case "", "console":
		consoleOpts := []ConsoleOption{WithVerbose(opts.Verbose), WithNoColor(opts.NoColor)}
		if opts.Writer != nil {
			consoleOpts = append(consoleOpts, WithWriter(opts.Writer))
		}
		return NewConsoleFormatter(consoleOpts...), nil
	case "json":
		var jsonOpts []JSONOption
		if opts.Writer != nil {
			jsonOpts = append(jsonOpts, JSONWithWriter(opts.Writer))
		}
		return NewJSONFormatter(jsonOpts...), nil
	case "junit":
		var junitOpts []JUnitOption
		if opts.Writer != nil {
			junitOpts = append(junitOpts, JUnitWithWriter(opts.Writer))
		}
		return NewJUnitFormatter(junitOpts...), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use console, json or junit)", format)
	}
}

// formatValue formats a value for display, truncating or summarizing large values
func formatValue(v any, maxLen int) string {
	switch val := v.(type) {
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

func chainStepName(r *chain.Request) string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}
