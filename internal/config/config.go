// Package config contains the loader and strongly typed model for batch files.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/codex-k8s/batchctl/internal/engine"
	"github.com/codex-k8s/batchctl/internal/env"
)

// Batch represents one batch file: an ordered list of file operations plus
// apply settings and an optional post-batch validation command.
type Batch struct {
	// Settings controls how the batch is applied.
	Settings Settings `yaml:"settings,omitempty"`
	// EnvFiles lists .env files loaded into the validate command environment.
	EnvFiles []string `yaml:"envFiles,omitempty"`
	// Operations is the ordered operation list, applied strictly in order.
	Operations []engine.Operation `yaml:"operations"`
	// Validate optionally describes a command to run after a successful batch.
	Validate *ValidateSpec `yaml:"validate,omitempty"`
}

// Settings mirrors the engine apply options. Backup and rollback default
// to enabled when left unset in the batch file.
type Settings struct {
	// DryRun reports what would happen without touching the filesystem.
	DryRun bool `yaml:"dryRun,omitempty"`
	// Backup toggles pre-mutation backups; nil means enabled.
	Backup *bool `yaml:"backup,omitempty"`
	// RollbackOnError toggles rollback on first failure; nil means enabled.
	RollbackOnError *bool `yaml:"rollbackOnError,omitempty"`
}

// BackupEnabled reports whether pre-mutation backups are taken.
func (s Settings) BackupEnabled() bool {
	return s.Backup == nil || *s.Backup
}

// RollbackEnabled reports whether the batch rolls back on first failure.
func (s Settings) RollbackEnabled() bool {
	return s.RollbackOnError == nil || *s.RollbackOnError
}

// ValidateSpec describes the post-batch validation command.
type ValidateSpec struct {
	// Command is the binary or shell line to execute.
	Command string `yaml:"command"`
	// Args are the command arguments.
	Args []string `yaml:"args,omitempty"`
	// Shell runs the command as a "sh -c" script when true; args become
	// the positional parameters $1..$n.
	Shell bool `yaml:"shell,omitempty"`
	// Env holds extra environment variables for the command.
	Env map[string]string `yaml:"env,omitempty"`
}

// LoadBatch reads and validates a batch file. Unknown fields and malformed
// operations are rejected here, at the boundary, so downstream code works
// over a fixed, validated operation set.
func LoadBatch(path string) (*Batch, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file %q: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var batch Batch
	if err := dec.Decode(&batch); err != nil {
		return nil, fmt.Errorf("decode batch file %q: %w", path, err)
	}

	if err := batch.validate(); err != nil {
		return nil, fmt.Errorf("batch file %q: %w", path, err)
	}
	return &batch, nil
}

// validate checks the operation envelopes and the validate command shape.
func (b *Batch) validate() error {
	if len(b.Operations) == 0 {
		return fmt.Errorf("operations list is empty")
	}
	for i, op := range b.Operations {
		if strings.TrimSpace(op.Path) == "" {
			return fmt.Errorf("operation %d: path is empty", i)
		}
		action, err := engine.ParseAction(string(op.Action))
		if err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
		b.Operations[i].Action = action
	}
	if b.Validate != nil && strings.TrimSpace(b.Validate.Command) == "" {
		return fmt.Errorf("validate.command is empty")
	}
	return nil
}

// EngineOptions converts the batch settings into engine apply options.
func (b *Batch) EngineOptions(projectRoot string) engine.Options {
	return engine.Options{
		DryRun:          b.Settings.DryRun,
		Backup:          b.Settings.BackupEnabled(),
		RollbackOnError: b.Settings.RollbackEnabled(),
		ProjectRoot:     projectRoot,
	}
}

// ValidateEnv resolves the environment for the validate command: env files
// first, inline validate.env entries overriding them.
func (b *Batch) ValidateEnv(projectRoot string) (env.Vars, error) {
	files, err := env.LoadEnvFiles(filepath.Clean(projectRoot), b.EnvFiles)
	if err != nil {
		return nil, err
	}
	var inline env.Vars
	if b.Validate != nil {
		inline = b.Validate.Env
	}
	return env.Merge(files, inline), nil
}
