package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/hitflow/packages/core/config"
	"github.com/abdul-hamid-achik/hitflow/packages/history"
	"github.com/abdul-hamid-achik/hitflow/packages/observability"
	"github.com/abdul-hamid-achik/hitflow/packages/output"
)

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// session bundles what every executing command needs: the merged config,
// a logger, the output formatter and an optional history store.
type session struct {
	cfg       *config.Config
	logger    *zap.Logger
	formatter output.Formatter
	history   *history.Store
	out       io.Writer
	closeOut  func() error
	started   time.Time

	// unreachable is set when a request failed in transport
	unreachable bool
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, exitWith(ExitConfigError, fmt.Errorf("loading config: %w", err))
	}
	cfg = cfg.Merge(flagOverrides())

	logger := observability.NewStderrLogger(cfg.Logger, observability.Options{
		Color: !cfg.GetNoColor(),
		Name:  "hitflow",
	})
	zap.ReplaceGlobals(logger)

	s := &session{
		cfg:      cfg,
		logger:   logger,
		out:      cmd.OutOrStdout(),
		closeOut: func() error { return nil },
		started:  time.Now(),
	}

	if outputFileFlag != "" {
		f, err := os.Create(outputFileFlag)
		if err != nil {
			return nil, exitWith(ExitConfigError, fmt.Errorf("creating output file: %w", err))
		}
		s.out = f
		s.closeOut = f.Close
	}

	formatter, err := output.New(outputFlag, output.Options{
		Writer:  s.out,
		Verbose: cfg.GetVerbose(),
		NoColor: cfg.GetNoColor(),
	})
	if err != nil {
		_ = s.closeOut()
		return nil, exitWith(ExitUsageError, err)
	}
	s.formatter = formatter

	if !noHistoryFlag && cfg.HistoryPath != "" {
		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			logger.Warn("history disabled", zap.String("path", cfg.HistoryPath), zap.Error(err))
		} else {
			s.history = store
		}
	}

	return s, nil
}

// flagOverrides turns the persistent flags into a config layer
func flagOverrides() *config.Config {
	o := &config.Config{
		Logger: config.LoggerConfig{
			Level:  logLevelFlag,
			Format: logFormatFlag,
			File:   logFileFlag,
		},
	}
	if verboseFlag {
		o.Verbose = config.BoolPtr(true)
		if o.Logger.Level == "" {
			o.Logger.Level = "debug"
		}
	}
	if noColorFlag {
		o.NoColor = config.BoolPtr(true)
	}
	return o
}

// reset swaps in a fresh formatter so accumulating formats start clean on re-runs
func (s *session) reset() {
	formatter, err := output.New(outputFlag, output.Options{
		Writer:  s.out,
		Verbose: s.cfg.GetVerbose(),
		NoColor: s.cfg.GetNoColor(),
	})
	if err == nil {
		s.formatter = formatter
	}
	s.started = time.Now()
	s.unreachable = false
}

func (s *session) flush() {
	if flushable, ok := s.formatter.(output.Flushable); ok {
		if err := flushable.Flush(time.Since(s.started)); err != nil {
			s.logger.Warn("flushing output", zap.Error(err))
		}
	}
}

// record stores a finished run. Failures only cost the history entry.
func (s *session) record(ctx context.Context, kind history.Kind, name, status string, started time.Time, summary any) {
	if s.history == nil {
		return
	}
	data, err := json.Marshal(summary)
	if err != nil {
		s.logger.Warn("encoding history summary", zap.Error(err))
		return
	}
	run := &history.Run{
		Kind:      kind,
		Name:      name,
		Status:    status,
		StartedAt: started,
		Duration:  time.Since(started),
		Summary:   data,
	}
	if err := s.history.Record(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Warn("recording history", zap.Error(err))
		return
	}
	s.logger.Debug("recorded run", zap.String("id", run.ID), zap.String("kind", string(kind)))
}

func (s *session) close() {
	if s.history != nil {
		_ = s.history.Close()
	}
	_ = s.closeOut()
	_ = s.logger.Sync()
}

func statusOf(passed bool) string {
	if passed {
		return "passed"
	}
	return "failed"
}
