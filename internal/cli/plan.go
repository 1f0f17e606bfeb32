package cli

import (
	"github.com/spf13/cobra"
)

// newPlanCommand creates the "plan" subcommand: a forced dry run of a batch
// file that reports what apply would do.
func newPlanCommand(opts *Options, base baseEnv) *cobra.Command {
	defaultFile := defaultBatchPath
	if base.BatchFile != "" {
		defaultFile = base.BatchFile
	}
	defaultOutput := "yaml"
	if base.Output != "" {
		defaultOutput = base.Output
	}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what applying a batch file would do, without touching files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApply(cmd, opts, true)
		},
	}

	cmd.Flags().StringP("file", "f", defaultFile, "Path to the batch file")
	cmd.Flags().StringP("output", "o", defaultOutput, "Report format (yaml or json)")
	cmd.Flags().Bool("dry-run", true, "Always true for plan")
	cmd.Flags().Bool("no-backup", false, "Skip pre-mutation backups")
	cmd.Flags().Bool("no-rollback", false, "Keep applied operations when a later one fails")
	cmd.Flags().Bool("skip-validate", true, "Always true for plan")

	return cmd
}
