package cli

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/codex-k8s/batchctl/internal/backup"
)

// backupBatch summarizes one batch backup directory for inspection.
type backupBatch struct {
	// Path is the batch backup directory.
	Path string `yaml:"path" json:"path"`
	// CreatedAt is the batch timestamp decoded from the directory name.
	CreatedAt string `yaml:"createdAt,omitempty" json:"createdAt,omitempty"`
	// Files is the number of backup files in the directory.
	Files int `yaml:"files" json:"files"`
	// TotalBytes is the combined size of the backup files.
	TotalBytes int64 `yaml:"totalBytes" json:"totalBytes"`

	// millis is the decoded directory timestamp used for ordering, or -1
	// when the directory name is not a millisecond timestamp.
	millis int64
}

// newBackupsCommand creates the "backups" subcommand that lists batch
// backup directories. Backups are never pruned automatically, so this is
// the inspection surface for them.
func newBackupsCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List batch backup directories under the project root",
		RunE: func(cmd *cobra.Command, _ []string) error {
			batches, err := listBackupBatches(opts.ProjectRoot)
			if err != nil {
				return err
			}

			format := cmd.Flag("output").Value.String()
			return writeReport(cmd.OutOrStdout(), batches, format)
		},
	}

	cmd.Flags().StringP("output", "o", "yaml", "Output format (yaml or json)")

	return cmd
}

func listBackupBatches(projectRoot string) ([]backupBatch, error) {
	folder := filepath.Join(projectRoot, backup.FolderName)
	entries, err := os.ReadDir(folder)
	if err != nil {
		if os.IsNotExist(err) {
			return []backupBatch{}, nil
		}
		return nil, err
	}

	var batches []backupBatch
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		b := backupBatch{Path: filepath.Join(folder, entry.Name()), millis: -1}
		if millis, err := strconv.ParseInt(entry.Name(), 10, 64); err == nil {
			b.millis = millis
			b.CreatedAt = time.UnixMilli(millis).UTC().Format(time.RFC3339)
		}

		files, err := os.ReadDir(b.Path)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			b.Files++
			if info, err := f.Info(); err == nil {
				b.TotalBytes += info.Size()
			}
		}
		batches = append(batches, b)
	}

	// Oldest batch first; lexicographic names would misorder timestamps
	// with differing digit counts.
	sort.Slice(batches, func(i, j int) bool {
		if batches[i].millis != batches[j].millis {
			return batches[i].millis < batches[j].millis
		}
		return batches[i].Path < batches[j].Path
	})
	return batches, nil
}
