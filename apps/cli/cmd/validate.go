package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitflow/packages/chain"
	"github.com/abdul-hamid-achik/hitflow/packages/plan"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>",
	Short: "Validate plan files without executing them",
	Long: `Check action, chain and bulk plans against their schemas. Chains are also
checked for circular dependencies.

Examples:
  hitflow validate login.yaml
  hitflow validate ./plans/`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}

	if len(files) == 0 {
		return exitWith(ExitUsageError, fmt.Errorf("no .yaml, .yml or .json plan files found"))
	}

	hasErrors := false
	for _, file := range files {
		if err := validateFile(file); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
			var verr *plan.ValidationError
			if errors.As(err, &verr) {
				for _, issue := range verr.Issues {
					fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", issue)
				}
			}
			hasErrors = true
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
		}
	}

	if hasErrors {
		return exitWith(ExitParseError, fmt.Errorf("validation failed"))
	}

	return nil
}

func validateFile(file string) error {
	doc, err := plan.LoadFile(file)
	if err != nil {
		return err
	}
	if doc.Kind == plan.KindChain {
		if _, err := chain.TopologicalSort(doc.Chain.Requests); err != nil {
			return err
		}
	}
	return nil
}
