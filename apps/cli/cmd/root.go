package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "hitflow",
	Short: "Retrying action runs, request chains and bulk suites.",
	Long: `hitflow drives ordered device actions through an automation backend with
per-action retry, runs dependency-ordered HTTP request chains that pass values
from one response to the next, and executes bulk request suites with a
concurrency cap.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	configFlag     string
	outputFlag     string
	outputFileFlag string
	verboseFlag    bool
	noColorFlag    bool
	logLevelFlag   string
	logFormatFlag  string
	logFileFlag    string
	noHistoryFlag  bool
)

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", exitErr.Err)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitUsageError)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFlag, "config", getEnvString("HITFLOW_CONFIG", ""), "Path to config file (env: HITFLOW_CONFIG)")
	flags.StringVarP(&outputFlag, "output", "o", getEnvString("HITFLOW_OUTPUT", "console"), "Output format: console, json, junit (env: HITFLOW_OUTPUT)")
	flags.StringVar(&outputFileFlag, "output-file", getEnvString("HITFLOW_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: HITFLOW_OUTPUT_FILE)")
	flags.BoolVarP(&verboseFlag, "verbose", "v", getEnvBool("HITFLOW_VERBOSE", false), "Verbose output (env: HITFLOW_VERBOSE)")
	flags.BoolVar(&noColorFlag, "no-color", getEnvBool("HITFLOW_NO_COLOR", false), "Disable colored output (env: HITFLOW_NO_COLOR)")
	flags.StringVar(&logLevelFlag, "log-level", getEnvString("HITFLOW_LOG_LEVEL", ""), "Log level: debug, info, warn, error (env: HITFLOW_LOG_LEVEL)")
	flags.StringVar(&logFormatFlag, "log-format", getEnvString("HITFLOW_LOG_FORMAT", ""), "Log format: console, json (env: HITFLOW_LOG_FORMAT)")
	flags.StringVar(&logFileFlag, "log-file", getEnvString("HITFLOW_LOG_FILE", ""), "Also write JSON logs to this rotating file (env: HITFLOW_LOG_FILE)")
	flags.BoolVar(&noHistoryFlag, "no-history", getEnvBool("HITFLOW_NO_HISTORY", false), "Do not record this run in the history database (env: HITFLOW_NO_HISTORY)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(bulkCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
