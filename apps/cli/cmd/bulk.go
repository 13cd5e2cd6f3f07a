package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/hitflow/packages/bulk"
	"github.com/abdul-hamid-achik/hitflow/packages/core/env"
	"github.com/abdul-hamid-achik/hitflow/packages/history"
	"github.com/abdul-hamid-achik/hitflow/packages/http"
	"github.com/abdul-hamid-achik/hitflow/packages/plan"
)

var bulkCmd = &cobra.Command{
	Use:   "bulk <file|directory>...",
	Short: "Run bulk request suites",
	Long: `Run a suite of independent HTTP requests, one after another or in parallel
chunks of --max-concurrent. A test succeeds when its response status is 2xx.

Examples:
  hitflow bulk smoke.yaml
  hitflow bulk smoke.yaml --parallel --max-concurrent 10
  hitflow bulk smoke.yaml --stop-on-error --delay 250ms --rps 20`,
	Args: cobra.MinimumNArgs(1),
	RunE: bulkCommand,
}

var (
	parallelFlag      bool
	maxConcurrentFlag int
	stopOnErrorFlag   bool
	delayFlag         time.Duration
	rpsFlag           float64
)

func init() {
	bulkCmd.Flags().BoolVarP(&parallelFlag, "parallel", "p", getEnvBool("HITFLOW_PARALLEL", false), "Run tests in parallel chunks (env: HITFLOW_PARALLEL)")
	bulkCmd.Flags().IntVar(&maxConcurrentFlag, "max-concurrent", getEnvInt("HITFLOW_MAX_CONCURRENT", bulk.DefaultMaxConcurrent), "Chunk size in parallel mode (env: HITFLOW_MAX_CONCURRENT)")
	bulkCmd.Flags().BoolVar(&stopOnErrorFlag, "stop-on-error", getEnvBool("HITFLOW_STOP_ON_ERROR", false), "Stop after the first failed test (env: HITFLOW_STOP_ON_ERROR)")
	bulkCmd.Flags().DurationVar(&delayFlag, "delay", 0, "Pause between sequential tests (e.g., 250ms)")
	bulkCmd.Flags().Float64Var(&rpsFlag, "rps", getEnvFloat("HITFLOW_RPS", 0), "Cap outgoing requests per second, 0 for no cap (env: HITFLOW_RPS)")
	addRequestFlags(bulkCmd)
}

// bulkSummary is the history form of a bulk run
type bulkSummary struct {
	Report     *bulk.Report           `json:"report"`
	Thresholds []bulk.ThresholdResult `json:"thresholds,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

func bulkCommand(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rps := s.cfg.Bulk.RateLimit
	if cmd.Flags().Changed("rps") || rpsFlag > 0 {
		rps = rpsFlag
	}
	client, err := newRequestClient(s, rps)
	if err != nil {
		return err
	}

	s.formatter.FormatHeader(version)
	executor := bulk.New(bulk.WithLogger(s.logger))

	runAll := func() (bool, error) {
		docs, err := loadPlans(args, plan.KindBulk, s.logger)
		if err != nil {
			s.formatter.FormatError(err)
			s.flush()
			return false, err
		}

		passed := true
		for _, doc := range docs {
			if ctx.Err() != nil {
				break
			}
			ok, err := runBulkPlan(ctx, cmd, s, executor, client, doc)
			if err != nil {
				s.flush()
				return false, err
			}
			passed = passed && ok
		}
		s.flush()
		return passed, nil
	}

	passed, err := runAll()
	if !watchFlag {
		if err != nil {
			return err
		}
		return s.finish(passed)
	}
	return watch(ctx, cmd, s, args, func() { _, _ = runAll() })
}

// bulkOptions layers config defaults, the plan's options and explicit flags
func bulkOptions(cmd *cobra.Command, s *session, p *plan.BulkPlan) bulk.Options {
	opts := bulk.Options{
		Parallel:      s.cfg.Bulk.GetParallel(),
		MaxConcurrent: s.cfg.Bulk.MaxConcurrent,
		StopOnError:   s.cfg.Bulk.GetStopOnError(),
		Delay:         time.Duration(s.cfg.Bulk.Delay) * time.Millisecond,
	}
	if p.Options != nil {
		opts = p.Options.ToOptions()
		if opts.MaxConcurrent == 0 {
			opts.MaxConcurrent = s.cfg.Bulk.MaxConcurrent
		}
	}

	flags := cmd.Flags()
	if flags.Changed("parallel") {
		opts.Parallel = parallelFlag
	}
	if flags.Changed("max-concurrent") {
		opts.MaxConcurrent = maxConcurrentFlag
	}
	if flags.Changed("stop-on-error") {
		opts.StopOnError = stopOnErrorFlag
	}
	if flags.Changed("delay") {
		opts.Delay = delayFlag
	}
	return opts
}

func runBulkPlan(ctx context.Context, cmd *cobra.Command, s *session, executor *bulk.Executor, client *http.Client, doc *plan.Document) (bool, error) {
	p := doc.Bulk
	vars, err := loadVariables(s, nil)
	if err != nil {
		s.formatter.FormatError(err)
		return false, err
	}

	opts := bulkOptions(cmd, s, p)
	s.logger.Info("running bulk suite",
		zap.String("plan", doc.Name),
		zap.Int("tests", len(p.Tests)),
		zap.Bool("parallel", opts.Parallel),
		zap.Int("maxConcurrent", opts.MaxConcurrent))

	started := time.Now()
	results, runErr := executor.Execute(ctx, p.Tests, bulkExecuteFunc(client, vars), opts, func(completed, total int, result bulk.Result) {
		s.formatter.FormatProgress(completed*100/total, fmt.Sprintf("%s: %s", result.Name, result.Status))
	})

	report := bulk.GenerateReport(results)
	thresholds := report.Evaluate(p.Thresholds.ToThresholds())
	s.formatter.FormatBulk(doc.Name, results, report, thresholds)
	if runErr != nil {
		s.formatter.FormatError(runErr)
	}

	passed := runErr == nil && report.Failed == 0 && bulk.AllPassed(thresholds)
	if ctx.Err() == nil && (runErr != nil || hasTransportFailure(results)) {
		s.unreachable = true
	}
	summary := bulkSummary{Report: report, Thresholds: thresholds}
	if runErr != nil {
		summary.Error = runErr.Error()
	}
	s.record(ctx, history.KindBulk, doc.Name, statusOf(passed), started, summary)

	return passed, nil
}

// hasTransportFailure reports whether a test failed without any HTTP status
func hasTransportFailure(results []bulk.Result) bool {
	for _, r := range results {
		if r.Failed() && r.StatusCode == 0 {
			return true
		}
	}
	return false
}

// bulkExecuteFunc sends each test over client after substituting vars
func bulkExecuteFunc(client *http.Client, vars env.Variables) bulk.ExecuteFunc {
	return func(ctx context.Context, t *bulk.Test) (*bulk.Response, error) {
		httpReq := http.NewRequest(t.Method, env.Substitute(t.URL, vars)).
			SetBody(env.Substitute(t.Body, vars))
		for k, v := range t.Headers {
			httpReq.SetHeader(k, env.Substitute(v, vars))
		}

		resp, err := client.Do(ctx, httpReq)
		if err != nil {
			return nil, err
		}
		return &bulk.Response{
			StatusCode: resp.StatusCode,
			Duration:   resp.Duration,
		}, nil
	}
}
