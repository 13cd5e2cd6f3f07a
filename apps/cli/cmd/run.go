package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/hitflow/packages/backend"
	"github.com/abdul-hamid-achik/hitflow/packages/core/executor"
	"github.com/abdul-hamid-achik/hitflow/packages/core/retry"
	"github.com/abdul-hamid-achik/hitflow/packages/core/runner"
	"github.com/abdul-hamid-achik/hitflow/packages/history"
	"github.com/abdul-hamid-achik/hitflow/packages/http"
	"github.com/abdul-hamid-achik/hitflow/packages/plan"
)

var runCmd = &cobra.Command{
	Use:   "run <file|directory>...",
	Short: "Run action plans against a device",
	Long: `Run ordered device actions through the automation backend. Each action is
retried according to its own retryCount and retryDelayMs; the run stops at the
first action that exhausts its attempts.

Examples:
  hitflow run login.yaml --device emulator-5554
  hitflow run ./flows/ --backend http://localhost:4723 --retries 2
  hitflow run login.yaml --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

var (
	deviceFlag        string
	backendFlag       string
	retriesFlag       int
	retryDelayFlag    int
	noScreenshotsFlag bool
	watchFlag         bool
)

func init() {
	runCmd.Flags().StringVarP(&deviceFlag, "device", "d", getEnvString("HITFLOW_DEVICE", ""), "Device ID to drive (env: HITFLOW_DEVICE)")
	runCmd.Flags().StringVar(&backendFlag, "backend", getEnvString("HITFLOW_BACKEND", ""), "Automation backend URL (env: HITFLOW_BACKEND)")
	runCmd.Flags().IntVar(&retriesFlag, "retries", getEnvInt("HITFLOW_RETRIES", 0), "Default extra attempts for actions without retryCount (env: HITFLOW_RETRIES)")
	runCmd.Flags().IntVar(&retryDelayFlag, "retry-delay", getEnvInt("HITFLOW_RETRY_DELAY", 0), "Default delay between attempts in ms (env: HITFLOW_RETRY_DELAY)")
	runCmd.Flags().BoolVar(&noScreenshotsFlag, "no-screenshots", getEnvBool("HITFLOW_NO_SCREENSHOTS", false), "Do not capture a screenshot when an action fails (env: HITFLOW_NO_SCREENSHOTS)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch plan files for changes and re-run")
}

// runSummary is the history form of a runner.Report, without the screenshot payload
type runSummary struct {
	DeviceID     string `json:"deviceId"`
	Executed     int    `json:"executed"`
	Skipped      int    `json:"skipped"`
	FailedIndex  int    `json:"failedIndex,omitempty"`
	FailedAction string `json:"failedAction,omitempty"`
	Error        string `json:"error,omitempty"`
	Screenshot   bool   `json:"screenshot,omitempty"`
}

func runCommand(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.Flags().Changed("backend") {
		s.cfg.BackendURL = backendFlag
	}
	if cmd.Flags().Changed("retries") {
		s.cfg.Retries = retriesFlag
	}
	if cmd.Flags().Changed("retry-delay") {
		s.cfg.RetryDelay = retryDelayFlag
	}

	r := newActionRunner(s)
	s.formatter.FormatHeader(version)

	runAll := func() bool {
		docs, err := loadPlans(args, plan.KindActions, s.logger)
		if err != nil {
			s.formatter.FormatError(err)
			s.flush()
			return false
		}

		passed := true
		for _, doc := range docs {
			if ctx.Err() != nil {
				break
			}
			if !runActionPlan(ctx, s, r, doc) {
				passed = false
			}
		}
		s.flush()
		return passed
	}

	passed := runAll()
	if !watchFlag {
		return s.finish(passed)
	}
	return watch(ctx, cmd, s, args, func() { runAll() })
}

func newActionRunner(s *session) *runner.Runner {
	// Backend calls carry their own deadline sized to each wait
	httpClient := http.NewClient(
		http.WithTimeout(0),
		http.WithValidateSSL(s.cfg.GetValidateSSL()),
		http.WithProxy(s.cfg.Proxy),
	)
	client := backend.NewClient(s.cfg.BackendURL,
		backend.WithHTTPClient(httpClient),
		backend.WithRequestTimeout(time.Duration(s.cfg.Timeout)*time.Millisecond),
	)

	retryOpts := []retry.Option{retry.WithLogger(s.logger)}
	if s.cfg.GetScreenshots() && !noScreenshotsFlag {
		retryOpts = append(retryOpts, retry.WithScreenshots(client))
	}

	exec := executor.New(client)
	return runner.New(retry.New(exec, retryOpts...), runner.WithLogger(s.logger))
}

func runActionPlan(ctx context.Context, s *session, r *runner.Runner, doc *plan.Document) bool {
	p := doc.Actions
	p.ApplyDefaults(plan.ActionDefaults{
		RetryCount:   &s.cfg.Retries,
		RetryDelayMs: &s.cfg.RetryDelay,
	})

	deviceID := p.DeviceID
	if deviceFlag != "" {
		deviceID = deviceFlag
	} else if deviceID == "" {
		deviceID = s.cfg.DeviceID
	}

	s.logger.Info("running action plan",
		zap.String("plan", doc.Name),
		zap.String("device", deviceID),
		zap.Int("actions", len(p.Actions)))

	report := r.Run(ctx, p.Actions, deviceID, s.formatter.FormatProgress, nil)
	s.formatter.FormatRun(doc.Name, report)

	summary := runSummary{
		DeviceID:   report.DeviceID,
		Executed:   report.Executed,
		Skipped:    report.Skipped,
		Error:      report.Error,
		Screenshot: report.Screenshot != "",
	}
	if report.FailedAction != nil {
		summary.FailedIndex = report.FailedIndex
		summary.FailedAction = report.FailedAction.Describe()
	}
	s.record(ctx, history.KindRun, doc.Name, string(report.Status), report.StartedAt, summary)

	if isTransportFailure(report.Cause) {
		s.unreachable = true
	}
	return report.Passed()
}

// isTransportFailure reports whether err came from failing to reach the
// backend rather than from the backend's answer
func isTransportFailure(err error) bool {
	var execErr *executor.ActionExecutionError
	return errors.As(err, &execErr) && execErr.Err != nil
}
