package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitflow/packages/core/config"
	"github.com/abdul-hamid-achik/hitflow/packages/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs",
	Long: `List action runs, chains and bulk suites recorded in the history database.

Examples:
  hitflow history
  hitflow history --kind bulk --limit 5
  hitflow history show 3f0c2a8e-5d1b-4c55-9f7e-0a1b2c3d4e5f`,
	Args: cobra.NoArgs,
	RunE: historyListCommand,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recorded run with its summary",
	Args:  cobra.ExactArgs(1),
	RunE:  historyShowCommand,
}

var (
	historyKindFlag  string
	historyLimitFlag int
	historyJSONFlag  bool
)

func init() {
	historyCmd.Flags().StringVar(&historyKindFlag, "kind", "", "Only list runs of this kind: run, chain, bulk")
	historyCmd.Flags().IntVar(&historyLimitFlag, "limit", 20, "Maximum number of runs to list")
	historyCmd.PersistentFlags().BoolVar(&historyJSONFlag, "json", false, "Print as JSON")
	historyCmd.AddCommand(historyShowCmd)
}

func openHistory() (*history.Store, error) {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, exitWith(ExitConfigError, fmt.Errorf("loading config: %w", err))
	}
	if cfg.HistoryPath == "" {
		return nil, exitWith(ExitConfigError, fmt.Errorf("history is disabled: historyPath is empty"))
	}
	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return nil, exitWith(ExitConfigError, err)
	}
	return store, nil
}

func historyListCommand(cmd *cobra.Command, args []string) error {
	kind := history.Kind(historyKindFlag)
	switch kind {
	case "", history.KindRun, history.KindChain, history.KindBulk:
	default:
		return exitWith(ExitUsageError, fmt.Errorf("unknown kind %q (use run, chain or bulk)", historyKindFlag))
	}

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(context.Background(), history.ListOptions{Kind: kind, Limit: historyLimitFlag})
	if err != nil {
		return err
	}

	if historyJSONFlag {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
		return nil
	}

	if noColorFlag {
		color.NoColor = true
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tNAME\tSTATUS\tSTARTED\tDURATION")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			run.ID, run.Kind, run.Name, colorStatus(run.Status),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Duration.Round(time.Millisecond))
	}
	return w.Flush()
}

func historyShowCommand(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Get(context.Background(), args[0])
	if errors.Is(err, history.ErrNotFound) {
		return exitWith(ExitUsageError, err)
	}
	if err != nil {
		return err
	}

	if historyJSONFlag {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:       %s\n", run.ID)
	fmt.Fprintf(out, "Kind:     %s\n", run.Kind)
	fmt.Fprintf(out, "Name:     %s\n", run.Name)
	fmt.Fprintf(out, "Status:   %s\n", colorStatus(run.Status))
	fmt.Fprintf(out, "Started:  %s\n", run.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(out, "Duration: %s\n", run.Duration.Round(time.Millisecond))
	if len(run.Summary) > 0 {
		var pretty any
		if err := json.Unmarshal(run.Summary, &pretty); err == nil {
			data, _ := json.MarshalIndent(pretty, "", "  ")
			fmt.Fprintf(out, "Summary:\n%s\n", data)
		}
	}
	return nil
}

func colorStatus(status string) string {
	switch status {
	case "passed":
		return color.GreenString(status)
	case "failed":
		return color.RedString(status)
	}
	return status
}
