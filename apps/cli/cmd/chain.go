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

	"github.com/abdul-hamid-achik/hitflow/packages/chain"
	"github.com/abdul-hamid-achik/hitflow/packages/core/env"
	"github.com/abdul-hamid-achik/hitflow/packages/history"
	"github.com/abdul-hamid-achik/hitflow/packages/http"
	"github.com/abdul-hamid-achik/hitflow/packages/plan"
)

var chainCmd = &cobra.Command{
	Use:   "chain <file|directory>...",
	Short: "Run dependency-ordered request chains",
	Long: `Run HTTP requests in dependency order. Values captured from one response
(body path, header or cookie) become {{variables}} for the requests that follow.

Examples:
  hitflow chain checkout.yaml
  hitflow chain checkout.yaml --env staging --env-file .env.staging
  hitflow chain ./chains/ -o junit --output-file chains.xml`,
	Args: cobra.MinimumNArgs(1),
	RunE: chainCommand,
}

func init() {
	addRequestFlags(chainCmd)
}

// chainSummary is the history form of a chain result
type chainSummary struct {
	Steps     int           `json:"steps"`
	Failed    []string      `json:"failed,omitempty"`
	Variables env.Variables `json:"variables,omitempty"`
	Error     string        `json:"error,omitempty"`
}

func chainCommand(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newRequestClient(s, 0)
	if err != nil {
		return err
	}

	s.formatter.FormatHeader(version)

	runAll := func() (bool, error) {
		docs, err := loadPlans(args, plan.KindChain, s.logger)
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
			ok, err := runChainPlan(ctx, s, client, doc)
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

func runChainPlan(ctx context.Context, s *session, client *http.Client, doc *plan.Document) (bool, error) {
	vars, err := loadVariables(s, doc.Chain.Variables)
	if err != nil {
		s.formatter.FormatError(err)
		return false, err
	}

	s.logger.Info("running chain",
		zap.String("plan", doc.Name),
		zap.Int("requests", len(doc.Chain.Requests)))

	started := time.Now()
	resolver := chain.NewResolver(
		chain.WithInitialVariables(vars),
		chain.WithLogger(s.logger),
	)

	result, runErr := resolver.Execute(ctx, doc.Chain.Requests, chainExecuteFunc(client), func(completed, total int, _ env.Variables) {
		s.formatter.FormatProgress(completed*100/total, doc.Name)
	})

	var cycle *chain.CircularDependencyError
	if errors.As(runErr, &cycle) {
		s.formatter.FormatError(runErr)
		return false, exitWith(ExitParseError, nil)
	}

	s.formatter.FormatChain(doc.Name, result, runErr)

	summary := chainSummary{}
	passed := runErr == nil
	if result != nil {
		summary.Steps = len(result.Steps)
		summary.Variables = result.Variables
		for _, step := range result.Steps {
			if step.Response != nil && step.Response.StatusCode >= 400 {
				summary.Failed = append(summary.Failed, step.Request.ID)
				passed = false
			}
		}
	}
	if runErr != nil {
		summary.Error = runErr.Error()
		if ctx.Err() == nil {
			s.unreachable = true
		}
	}
	s.record(ctx, history.KindChain, doc.Name, statusOf(passed), started, summary)

	return passed, nil
}

// chainExecuteFunc sends each resolved chain request over client
func chainExecuteFunc(client *http.Client) chain.ExecuteFunc {
	return func(ctx context.Context, req *chain.Request, _ env.Variables) (*chain.Response, error) {
		httpReq := http.NewRequest(req.Method, req.URL).SetBody(req.Body)
		for k, v := range req.Headers {
			httpReq.SetHeader(k, v)
		}

		resp, err := client.Do(ctx, httpReq)
		if err != nil {
			return nil, err
		}

		return &chain.Response{
			StatusCode: resp.StatusCode,
			Headers:    resp.Headers,
			Body:       decodeBody(resp),
			Duration:   resp.Duration,
		}, nil
	}
}
