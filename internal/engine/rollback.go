package engine

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/codex-k8s/batchctl/internal/backup"
)

// rollback walks the undo records in reverse, last-applied-first, and
// best-effort restores pre-batch state. Every step failure is swallowed
// into a diagnostic note and the walk always completes; nothing escapes.
// The returned reverted slice is aligned with undo and marks the records
// whose on-disk state was actually restored. The batch backup folder is
// never deleted here.
func (e *Engine) rollback(undo []undoRecord, logger *slog.Logger) (notes []string, reverted []bool) {
	logger.Info("rolling back batch", "records", len(undo))

	reverted = make([]bool, len(undo))
	for i := len(undo) - 1; i >= 0; i-- {
		rec := undo[i]

		if rec.created {
			if err := os.Remove(rec.absPath); err != nil && !os.IsNotExist(err) {
				notes = append(notes, fmt.Sprintf("remove %s: %v", rec.op.Path, err))
				logger.Warn("rollback step failed", "path", rec.op.Path, "error", err)
				continue
			}
			reverted[i] = true
			continue
		}

		if rec.backupPath == "" {
			if rec.updated || rec.deleted {
				// Mutated without a backup: the pre-image is gone.
				notes = append(notes, fmt.Sprintf("restore %s: no backup recorded", rec.op.Path))
				logger.Warn("rollback has no backup to restore", "path", rec.op.Path)
			}
			// Dry-run no-op record otherwise, nothing to restore.
			continue
		}
		if !fileExists(rec.backupPath) {
			notes = append(notes, fmt.Sprintf("restore %s: backup %s missing", rec.op.Path, rec.backupPath))
			logger.Warn("rollback backup missing", "path", rec.op.Path, "backup", rec.backupPath)
			continue
		}
		if err := backup.CopyTo(rec.backupPath, rec.absPath); err != nil {
			notes = append(notes, fmt.Sprintf("restore %s: %v", rec.op.Path, err))
			logger.Warn("rollback step failed", "path", rec.op.Path, "error", err)
			continue
		}
		reverted[i] = true
	}

	logger.Info("rollback finished", "failedSteps", len(notes))
	return notes, reverted
}
