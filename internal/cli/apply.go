package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/codex-k8s/batchctl/internal/config"
	"github.com/codex-k8s/batchctl/internal/engine"
	"github.com/codex-k8s/batchctl/internal/logging"
	"github.com/codex-k8s/batchctl/internal/runner"
)

// validateTimeout bounds the post-batch validation command.
const validateTimeout = 10 * time.Minute

// newApplyCommand creates the "apply" subcommand that applies a batch file
// to the project directory.
func newApplyCommand(opts *Options, base baseEnv) *cobra.Command {
	defaultFile := defaultBatchPath
	if base.BatchFile != "" {
		defaultFile = base.BatchFile
	}
	defaultOutput := "yaml"
	if base.Output != "" {
		defaultOutput = base.Output
	}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a batch of file operations to the project directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApply(cmd, opts, false)
		},
	}

	cmd.Flags().StringP("file", "f", defaultFile, "Path to the batch file")
	cmd.Flags().StringP("output", "o", defaultOutput, "Report format (yaml or json)")
	cmd.Flags().Bool("dry-run", false, "Report what would happen without touching the filesystem")
	cmd.Flags().Bool("no-backup", false, "Skip pre-mutation backups")
	cmd.Flags().Bool("no-rollback", false, "Keep applied operations when a later one fails")
	cmd.Flags().Bool("skip-validate", false, "Skip the batch's validate command")

	return cmd
}

// runApply is shared between "apply" and "plan"; plan forces a dry run.
func runApply(cmd *cobra.Command, opts *Options, forceDryRun bool) error {
	logger := LoggerFromContext(cmd.Context())

	batchPath := cmd.Flag("file").Value.String()
	batch, err := config.LoadBatch(batchPath)
	if err != nil {
		return err
	}

	applyOpts := batch.EngineOptions(opts.ProjectRoot)
	if forceDryRun {
		applyOpts.DryRun = true
	}
	if flagBool(cmd, "dry-run") {
		applyOpts.DryRun = true
	}
	if flagBool(cmd, "no-backup") {
		applyOpts.Backup = false
	}
	if flagBool(cmd, "no-rollback") {
		applyOpts.RollbackOnError = false
	}

	logger.Info("applying batch file", "file", batchPath, "projectRoot", opts.ProjectRoot, "dryRun", applyOpts.DryRun)

	eng := engine.NewEngine(logger)
	report := eng.ApplyOperations(batch.Operations, applyOpts)

	format := cmd.Flag("output").Value.String()
	if err := writeReport(cmd.OutOrStdout(), report, format); err != nil {
		return err
	}

	if report.Failed() {
		return fmt.Errorf("batch %s failed", report.BatchID)
	}

	if applyOpts.DryRun || flagBool(cmd, "skip-validate") || batch.Validate == nil {
		return nil
	}
	return runValidate(cmd.Context(), logger, batch, opts.ProjectRoot)
}

// runValidate executes the batch's validate command against the project root.
func runValidate(ctx context.Context, logger *slog.Logger, batch *config.Batch, projectRoot string) error {
	envVars, err := batch.ValidateEnv(projectRoot)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	logger.Info("running validate command", "command", batch.Validate.Command)

	run := runner.NewRunner(logger)
	res := run.Run(runCtx, batch.Validate.Command, batch.Validate.Args, runner.Options{
		Dir:    projectRoot,
		Env:    envVars,
		Shell:  batch.Validate.Shell,
		Stream: logging.NewWriter(logger),
	})
	if !res.Success {
		return fmt.Errorf("validate command %q failed with exit code %d", batch.Validate.Command, res.ExitCode)
	}

	logger.Info("validate command succeeded")
	return nil
}

func flagBool(cmd *cobra.Command, name string) bool {
	value, _ := cmd.Flags().GetBool(name)
	return value
}
