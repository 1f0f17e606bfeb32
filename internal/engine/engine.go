// Package engine contains the transactional apply logic for file-operation batches.
package engine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/codex-k8s/batchctl/internal/backup"
	"github.com/codex-k8s/batchctl/internal/pathguard"
)

// Engine applies ordered batches of file operations against a project root.
// Operations execute strictly sequentially; the engine assumes exclusive
// access to the project subtree for the duration of a batch.
type Engine struct {
	logger *slog.Logger
}

// NewEngine constructs an Engine that logs through the given logger.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Options controls how a batch is applied.
type Options struct {
	// DryRun reports what would happen without touching the filesystem.
	DryRun bool
	// Backup copies pre-mutation file state into the batch backup directory.
	Backup bool
	// RollbackOnError reverts everything applied earlier when an operation fails.
	RollbackOnError bool
	// ProjectRoot is the directory all operation paths resolve against.
	ProjectRoot string
}

// ApplyOperations validates, sequences and applies a batch of operations.
// Processing is fail-fast: the first failure aborts the batch, triggers a
// best-effort rollback when enabled, and the partial report is returned.
// One Result is emitted per attempted operation, in input order.
func (e *Engine) ApplyOperations(ops []Operation, opts Options) (report Report) {
	report.BatchID = uuid.NewString()
	logger := e.logger.With("batch", report.BatchID)

	store := backup.NewStore(opts.ProjectRoot)
	var backupDir string
	if opts.Backup {
		backupDir = store.BatchDir()
	}

	// The backup folder is created lazily; report it only once it exists.
	defer func() {
		if backupDir != "" && dirExists(backupDir) {
			report.BackupFolder = backupDir
		}
	}()

	logger.Info("applying batch", "operations", len(ops), "dryRun", opts.DryRun, "backup", opts.Backup)

	// Undo records are local to this call and never shared across batches.
	var undo []undoRecord

	for i, op := range ops {
		if err := validateShape(i, op); err != nil {
			report.Results = append(report.Results, failedResult(op, err))
			e.failBatch(&report, undo, opts, logger)
			return report
		}

		abs, err := pathguard.Resolve(opts.ProjectRoot, op.Path)
		if err != nil {
			report.Results = append(report.Results, failedResult(op, err))
			e.failBatch(&report, undo, opts, logger)
			return report
		}

		res, rec, err := e.applyOne(op, abs, opts, store, backupDir)
		if err != nil {
			report.Results = append(report.Results, failedResult(op, err))
			e.failBatch(&report, undo, opts, logger)
			return report
		}

		logger.Debug("operation finished", "path", op.Path, "action", op.Action, "status", res.Status)
		report.Results = append(report.Results, res)
		if rec != nil {
			rec.resultIndex = len(report.Results) - 1
			undo = append(undo, *rec)
		}
	}

	logger.Info("batch applied", "results", len(report.Results))
	return report
}

// applyOne dispatches a single validated operation. It returns a non-nil
// undo record for every success that must participate in rollback.
func (e *Engine) applyOne(op Operation, abs string, opts Options, store *backup.Store, backupDir string) (Result, *undoRecord, error) {
	switch op.Action {
	case ActionCreate:
		return e.applyCreate(op, abs, opts)
	case ActionUpdate:
		return e.applyUpdate(op, abs, opts, store, backupDir)
	case ActionDelete:
		return e.applyDelete(op, abs, opts, store, backupDir)
	}
	// Unreachable: the action set is validated at the boundary.
	return Result{}, nil, fmt.Errorf("unhandled action %q", string(op.Action))
}

func (e *Engine) applyCreate(op Operation, abs string, opts Options) (Result, *undoRecord, error) {
	if fileExists(abs) {
		return skippedResult(op, "already exists"), nil, nil
	}

	rec := &undoRecord{op: op, absPath: abs}
	if opts.DryRun {
		return appliedResult(op, ""), rec, nil
	}

	if err := writeFileAtomic(abs, []byte(op.Content)); err != nil {
		return Result{}, nil, err
	}
	rec.created = true
	return appliedResult(op, ""), rec, nil
}

func (e *Engine) applyUpdate(op Operation, abs string, opts Options, store *backup.Store, backupDir string) (Result, *undoRecord, error) {
	if !fileExists(abs) {
		res, rec, err := e.applyCreate(op, abs, opts)
		if err != nil {
			return Result{}, nil, err
		}
		res.Message = "created, was missing"
		return res, rec, nil
	}

	if !opts.DryRun {
		current, err := os.ReadFile(abs)
		if err != nil {
			return Result{}, nil, fmt.Errorf("read %q: %w", op.Path, err)
		}
		if string(current) == op.Content {
			return skippedResult(op, "content identical"), nil, nil
		}
	}

	rec := &undoRecord{op: op, absPath: abs}
	if opts.Backup {
		backupPath, err := store.Backup(abs, backupDir)
		if err != nil {
			return Result{}, nil, err
		}
		rec.backupPath = backupPath
	}

	if !opts.DryRun {
		if err := writeFileAtomic(abs, []byte(op.Content)); err != nil {
			return Result{}, nil, err
		}
		rec.updated = true
	}

	res := appliedResult(op, "")
	res.BackupPath = rec.backupPath
	return res, rec, nil
}

func (e *Engine) applyDelete(op Operation, abs string, opts Options, store *backup.Store, backupDir string) (Result, *undoRecord, error) {
	if !fileExists(abs) {
		return skippedResult(op, "file not found"), nil, nil
	}

	rec := &undoRecord{op: op, absPath: abs}
	if opts.Backup {
		backupPath, err := store.Backup(abs, backupDir)
		if err != nil {
			return Result{}, nil, err
		}
		rec.backupPath = backupPath
	}

	if !opts.DryRun {
		if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
			return Result{}, nil, fmt.Errorf("remove %q: %w", op.Path, err)
		}
		rec.deleted = true
	}

	res := appliedResult(op, "")
	res.BackupPath = rec.backupPath
	return res, rec, nil
}

// failBatch finalizes a failing batch: it rolls back everything applied so
// far when enabled and re-labels reverted report entries.
func (e *Engine) failBatch(report *Report, undo []undoRecord, opts Options, logger *slog.Logger) {
	logger.Warn("batch failed", "failedOperation", report.Results[len(report.Results)-1].Path)

	if !opts.RollbackOnError || len(undo) == 0 {
		return
	}

	notes, reverted := e.rollback(undo, logger)
	report.RollbackNotes = notes

	// Re-label only entries rollback actually reverted; mutations it could
	// not restore stay applied and are explained by a rollback note.
	for i, rec := range undo {
		if reverted[i] {
			report.Results[rec.resultIndex].Status = StatusRolledBack
		}
	}
}

func appliedResult(op Operation, message string) Result {
	return Result{Path: op.Path, Action: op.Action, Status: StatusApplied, Message: message}
}

func skippedResult(op Operation, message string) Result {
	return Result{Path: op.Path, Action: op.Action, Status: StatusSkipped, Message: message}
}

func failedResult(op Operation, err error) Result {
	return Result{Path: op.Path, Action: op.Action, Status: StatusFailed, Message: err.Error()}
}

// writeFileAtomic writes data to a unique temporary file in the target
// directory, then renames it over path. The rename is the only observable
// state transition, so no reader ever sees a partially written file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parent dirs for %q: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, ".batchctl-*")
	if err != nil {
		return fmt.Errorf("create temp file in %q: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file for %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file for %q: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp file for %q: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp file over %q: %w", path, err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
