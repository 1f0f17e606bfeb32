// Package backup persists pre-mutation copies of project files into
// batch-scoped directories under the project root.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// FolderName is the directory under the project root that holds all
	// batch backup directories.
	FolderName = ".mcp_backups"

	// suffix marks backup files so they are recognizable on inspection.
	suffix = ".bak"
)

// Store copies files into a batch-timestamped backup directory.
// Backups are copies, never moves, and are never deleted by this package.
type Store struct {
	root string
}

// NewStore constructs a Store for the given project root.
func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

// BatchDir computes a fresh batch-scoped backup directory path.
// The directory itself is created lazily by Backup.
func (s *Store) BatchDir() string {
	millis := time.Now().UnixMilli()
	return filepath.Join(s.root, FolderName, strconv.FormatInt(millis, 10))
}

// Backup copies the file at absPath into dir and returns the backup path.
// The filename is the sanitized root-relative path plus a millisecond
// timestamp, so repeated backups of the same path within one batch never
// collide. Parent directories are created as needed.
func (s *Store) Backup(absPath, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir %q: %w", dir, err)
	}

	rel, err := filepath.Rel(s.root, absPath)
	if err != nil {
		rel = filepath.Base(absPath)
	}

	dest := filepath.Join(dir, backupName(rel, time.Now().UnixMilli()))
	for i := 0; fileExists(dest); i++ {
		dest = filepath.Join(dir, backupName(rel, time.Now().UnixMilli()+int64(i)+1))
	}

	if err := copyFile(absPath, dest); err != nil {
		return "", fmt.Errorf("backup %q: %w", absPath, err)
	}
	return dest, nil
}

// backupName flattens a relative path into a single filename.
func backupName(rel string, millis int64) string {
	sanitized := strings.ReplaceAll(filepath.ToSlash(rel), "/", "_")
	return sanitized + "." + strconv.FormatInt(millis, 10) + suffix
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// copyFile copies src to dst byte for byte, preserving the source mode.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// CopyTo restores a backup file over target, recreating parent directories.
// It is used by rollback and leaves the backup itself untouched.
func CopyTo(backupPath, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create parent dirs for %q: %w", target, err)
	}
	if err := copyFile(backupPath, target); err != nil {
		return fmt.Errorf("restore %q: %w", target, err)
	}
	return nil
}
