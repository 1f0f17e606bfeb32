package cli

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/batchctl/internal/backup"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestApplyCommandAppliesBatch(t *testing.T) {
	root := t.TempDir()
	batchFile := filepath.Join(t.TempDir(), "batch.yaml")
	writeFile(t, batchFile, `
settings:
  backup: false
operations:
  - {path: hello.txt, action: create, content: "hello\n"}
`)

	err := Execute([]string{"apply", "-f", batchFile, "-r", root}, testLogger())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestApplyCommandFailsOnEscape(t *testing.T) {
	root := t.TempDir()
	batchFile := filepath.Join(t.TempDir(), "batch.yaml")
	writeFile(t, batchFile, `
operations:
  - {path: ../outside.txt, action: create, content: x}
`)

	err := Execute([]string{"apply", "-f", batchFile, "-r", root}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed")
}

func TestPlanCommandTouchesNothing(t *testing.T) {
	root := t.TempDir()
	batchFile := filepath.Join(t.TempDir(), "batch.yaml")
	writeFile(t, batchFile, `
operations:
  - {path: planned.txt, action: create, content: x}
`)

	err := Execute([]string{"plan", "-f", batchFile, "-r", root}, testLogger())
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(root, "planned.txt"))
}

func TestApplyCommandRunsValidate(t *testing.T) {
	root := t.TempDir()
	batchFile := filepath.Join(t.TempDir(), "batch.yaml")
	writeFile(t, batchFile, `
settings:
  backup: false
operations:
  - {path: a.txt, action: create, content: x}
validate:
  command: "test -f a.txt"
  shell: true
`)

	err := Execute([]string{"apply", "-f", batchFile, "-r", root}, testLogger())
	require.NoError(t, err)
}

func TestApplyCommandValidateFailure(t *testing.T) {
	root := t.TempDir()
	batchFile := filepath.Join(t.TempDir(), "batch.yaml")
	writeFile(t, batchFile, `
settings:
  backup: false
operations:
  - {path: a.txt, action: create, content: x}
validate:
  command: "exit 7"
  shell: true
`)

	err := Execute([]string{"apply", "-f", batchFile, "-r", root}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit code 7")
}

func TestSnapshotCommand(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "seen.txt"), "content")

	var out bytes.Buffer
	rootCmd := newRootCommand(&Options{ProjectRoot: "."}, testLogger())
	rootCmd.SetArgs([]string{"snapshot", "-r", root})
	rootCmd.SetOut(&out)
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "seen.txt")
}

func TestBackupsCommandEmpty(t *testing.T) {
	root := t.TempDir()

	batches, err := listBackupBatches(root)
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestBackupsCommandListsBatches(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, backup.FolderName, "1724999999999")
	writeFile(t, filepath.Join(dir, "a.txt.1724999999999.bak"), "backup bytes")

	batches, err := listBackupBatches(root)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, 1, batches[0].Files)
	assert.Equal(t, int64(len("backup bytes")), batches[0].TotalBytes)
	assert.NotEmpty(t, batches[0].CreatedAt)
}

func TestBackupsCommandOrdersByTimestamp(t *testing.T) {
	root := t.TempDir()
	// Lexicographically "999..." sorts after "1000...", but it is the
	// older batch and must come first.
	writeFile(t, filepath.Join(root, backup.FolderName, "999999999999", "old.bak"), "o")
	writeFile(t, filepath.Join(root, backup.FolderName, "1000000000000", "new.bak"), "n")

	batches, err := listBackupBatches(root)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, filepath.Join(root, backup.FolderName, "999999999999"), batches[0].Path)
	assert.Equal(t, filepath.Join(root, backup.FolderName, "1000000000000"), batches[1].Path)
}

func TestWriteReportFormats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, map[string]string{"k": "v"}, "yaml"))
	assert.Contains(t, buf.String(), "k: v")

	buf.Reset()
	require.NoError(t, writeReport(&buf, map[string]string{"k": "v"}, "json"))
	assert.Contains(t, buf.String(), `"k": "v"`)

	require.Error(t, writeReport(&buf, nil, "toml"))
}
