package cli

import (
	"github.com/spf13/cobra"

	"github.com/codex-k8s/batchctl/internal/snapshot"
)

// newSnapshotCommand creates the "snapshot" subcommand that lists project
// files with their (size-capped) contents.
func newSnapshotCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print a recursive snapshot of the project directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			maxBytes, _ := cmd.Flags().GetInt("max-bytes")
			s := &snapshot.Snapshotter{MaxFileBytes: maxBytes}

			entries, err := s.Snapshot(opts.ProjectRoot)
			if err != nil {
				return err
			}
			logger.Debug("snapshot collected", "files", len(entries))

			format := cmd.Flag("output").Value.String()
			return writeReport(cmd.OutOrStdout(), entries, format)
		},
	}

	cmd.Flags().Int("max-bytes", snapshot.DefaultMaxFileBytes, "Per-file content cap in bytes")
	cmd.Flags().StringP("output", "o", "yaml", "Output format (yaml or json)")

	return cmd
}
