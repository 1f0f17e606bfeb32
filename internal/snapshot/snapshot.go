// Package snapshot recursively lists project files for context gathering.
// It is a read-only collaborator and takes no part in the transactional
// apply path.
package snapshot

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/codex-k8s/batchctl/internal/backup"
)

// DefaultMaxFileBytes caps how much of each file a snapshot carries.
const DefaultMaxFileBytes = 64 * 1024

// truncationMarker is appended to capped file content.
const truncationMarker = "\n... [content truncated]"

// Entry is one file in a snapshot.
type Entry struct {
	// Path is the file path relative to the snapshot root.
	Path string `yaml:"path" json:"path"`
	// Content is the file content, possibly truncated.
	Content string `yaml:"content" json:"content"`
	// Truncated reports whether Content was capped.
	Truncated bool `yaml:"truncated,omitempty" json:"truncated,omitempty"`
}

// Snapshotter walks a directory tree and captures file contents.
type Snapshotter struct {
	// MaxFileBytes caps per-file content; zero means DefaultMaxFileBytes.
	MaxFileBytes int
}

// Snapshot walks root and returns one entry per regular file, in walk
// order. The backup folder and .git are skipped.
func (s *Snapshotter) Snapshot(root string) ([]Entry, error) {
	maxBytes := s.MaxFileBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}

	var entries []Entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			switch d.Name() {
			case backup.FolderName, ".git":
				if path != root {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		entry, err := readEntry(path, rel, maxBytes)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot %q: %w", root, err)
	}
	return entries, nil
}

func readEntry(path, rel string, maxBytes int) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, fmt.Errorf("read %q: %w", rel, err)
	}

	entry := Entry{Path: filepath.ToSlash(rel)}
	if len(data) > maxBytes {
		entry.Content = string(data[:maxBytes]) + truncationMarker
		entry.Truncated = true
	} else {
		entry.Content = string(data)
	}
	return entry, nil
}
