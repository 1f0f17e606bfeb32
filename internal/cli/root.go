// Package cli defines the command-line interface for batchctl.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/codex-k8s/batchctl/internal/logging"
)

const (
	// defaultBatchPath is the default path to the batch file.
	defaultBatchPath = "batch.yaml"
)

// Options stores global CLI options shared between commands.
type Options struct {
	ProjectRoot string
	LogLevel    logging.Level
}

// Execute builds the root command, runs it with the provided args and logger, and returns any error.
func Execute(args []string, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewLogger(os.Stderr, logging.LevelInfo)
	}

	rootOpts := &Options{
		ProjectRoot: ".",
		LogLevel:    logging.LevelInfo,
	}

	rootCmd := newRootCommand(rootOpts, logger)
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

// newRootCommand constructs the root cobra.Command with global flags and subcommands.
func newRootCommand(opts *Options, logger *slog.Logger) *cobra.Command {
	var base baseEnv
	if err := parseEnv(&base); err != nil {
		logger.Warn("ignoring invalid BATCHCTL_* environment", "error", err)
	}

	defaultRoot := "."
	if base.ProjectRoot != "" {
		defaultRoot = base.ProjectRoot
	}
	defaultLevel := "info"
	if base.LogLevel != "" {
		defaultLevel = base.LogLevel
	}

	cmd := &cobra.Command{
		Use:   "batchctl",
		Short: "batchctl applies transactional file-operation batches",
		Long:  "batchctl applies ordered batches of create/update/delete file operations against a project directory, with per-file backups and best-effort rollback on first failure.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := logging.ParseLevel(cmd.Flag("log-level").Value.String())
			opts.LogLevel = level
			logger = logging.NewLogger(os.Stderr, level)
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, logger))
			logger.Debug("logger initialized", "level", level)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ProjectRoot, "project-root", "r", defaultRoot, "Project root directory all operation paths resolve against")
	cmd.PersistentFlags().String("log-level", defaultLevel, "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newApplyCommand(opts, base),
		newPlanCommand(opts, base),
		newSnapshotCommand(opts),
		newBackupsCommand(opts),
	)

	return cmd
}

// loggerKey is a private context key used to store a logger in command contexts.
type loggerKey struct{}

// LoggerFromContext extracts a logger from the context or falls back to a default logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return logging.NewLogger(os.Stderr, logging.LevelInfo)
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return logging.NewLogger(os.Stderr, logging.LevelInfo)
}
