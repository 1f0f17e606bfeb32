package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Action identifies the kind of file operation to perform.
type Action string

const (
	// ActionCreate writes a new file; an existing target is skipped.
	ActionCreate Action = "create"
	// ActionUpdate replaces the content of an existing file, creating it when missing.
	ActionUpdate Action = "update"
	// ActionDelete removes a file; a missing target is skipped.
	ActionDelete Action = "delete"
)

// ParseAction converts a textual action into an Action value.
func ParseAction(value string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(value))) {
	case ActionCreate:
		return ActionCreate, nil
	case ActionUpdate:
		return ActionUpdate, nil
	case ActionDelete:
		return ActionDelete, nil
	default:
		return "", fmt.Errorf("unknown action %q", value)
	}
}

// Operation describes a single file mutation within a batch.
// Path is relative to the project root; Content is required for create
// and update and treated as opaque bytes.
type Operation struct {
	// Path is the target file path relative to the project root.
	Path string `yaml:"path" json:"path"`
	// Action selects the mutation kind.
	Action Action `yaml:"action" json:"action"`
	// Content is the full desired file content for create/update.
	Content string `yaml:"content,omitempty" json:"content,omitempty"`
}

// Status classifies the outcome of one operation.
type Status string

const (
	// StatusApplied means the operation performed (or, in dry-run, would perform) its mutation.
	StatusApplied Status = "applied"
	// StatusSkipped means the operation was a no-op for its target state.
	StatusSkipped Status = "skipped"
	// StatusFailed means the operation aborted the batch.
	StatusFailed Status = "failed"
	// StatusRolledBack means the operation was applied and later reverted.
	StatusRolledBack Status = "rolled_back"
)

// Result records the outcome of one operation. Results are emitted in
// input order, exactly one per operation attempted.
type Result struct {
	// Path is the operation path as supplied by the caller.
	Path string `yaml:"path" json:"path"`
	// Action is the operation kind.
	Action Action `yaml:"action" json:"action"`
	// Status classifies the outcome.
	Status Status `yaml:"status" json:"status"`
	// Message explains skips and failures.
	Message string `yaml:"message,omitempty" json:"message,omitempty"`
	// BackupPath points at the pre-mutation copy, when one was taken.
	BackupPath string `yaml:"backupPath,omitempty" json:"backupPath,omitempty"`
}

// Report is the outcome of one batch.
type Report struct {
	// BatchID uniquely identifies the batch in logs and reports.
	BatchID string `yaml:"batchId" json:"batchId"`
	// Results holds one entry per attempted operation, in input order.
	Results []Result `yaml:"results" json:"results"`
	// BackupFolder is the batch backup directory, when one was created.
	BackupFolder string `yaml:"backupFolder,omitempty" json:"backupFolder,omitempty"`
	// RollbackNotes collects per-step diagnostics from a best-effort rollback.
	RollbackNotes []string `yaml:"rollbackNotes,omitempty" json:"rollbackNotes,omitempty"`
}

// Failed reports whether the batch stopped on a failing operation.
func (r Report) Failed() bool {
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			return true
		}
	}
	return false
}

// ShapeError indicates a malformed operation envelope.
type ShapeError struct {
	// Index is the zero-based position of the operation in the batch.
	Index int
	// Reason describes what part of the envelope is invalid.
	Reason string
}

func (e *ShapeError) Error() string {
	if e == nil {
		return "invalid operation shape"
	}
	return fmt.Sprintf("operation %d: invalid operation shape: %s", e.Index, e.Reason)
}

// IsShapeError reports whether err indicates a malformed operation.
func IsShapeError(err error) bool {
	var target *ShapeError
	return errors.As(err, &target)
}

// validateShape checks the operation envelope once at the engine boundary
// so the state machine below is total over the closed action set.
func validateShape(index int, op Operation) error {
	if strings.TrimSpace(op.Path) == "" {
		return &ShapeError{Index: index, Reason: "path is empty"}
	}
	switch op.Action {
	case ActionCreate, ActionUpdate, ActionDelete:
		return nil
	default:
		return &ShapeError{Index: index, Reason: fmt.Sprintf("unknown action %q", string(op.Action))}
	}
}

// undoRecord is the bookkeeping entry for one successfully applied
// operation. Records are local to a single ApplyOperations call and are
// consumed in reverse by rollback; discarding one never deletes the
// underlying backup file.
type undoRecord struct {
	op         Operation
	absPath    string
	created    bool
	updated    bool
	deleted    bool
	backupPath string
	// resultIndex links the record back to its report entry for re-labeling.
	resultIndex int
}
