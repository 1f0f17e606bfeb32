package pathguard

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveInsideRoot(t *testing.T) {
	root := t.TempDir()

	got, err := Resolve(root, "sub/dir/file.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "sub", "dir", "file.txt"), got)
}

func TestResolveRootItself(t *testing.T) {
	root := t.TempDir()

	got, err := Resolve(root, ".")
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(root), got)
}

func TestResolveRejectsTraversal(t *testing.T) {
	root := t.TempDir()

	cases := []string{
		"../outside.txt",
		"../../etc/passwd",
		"sub/../../outside.txt",
	}
	for _, rel := range cases {
		_, err := Resolve(root, rel)
		require.Error(t, err, "path %q should be rejected", rel)
		assert.True(t, IsEscapeError(err))
	}
}

func TestResolveRejectsAbsolutePath(t *testing.T) {
	root := t.TempDir()

	_, err := Resolve(root, "/etc/passwd")
	require.Error(t, err)
	assert.True(t, IsEscapeError(err))
}

func TestResolveRejectsSiblingPrefix(t *testing.T) {
	// /tmp/proj-evil must not count as a descendant of /tmp/proj.
	root := t.TempDir()

	_, err := Resolve(root, "../"+filepath.Base(root)+"-evil/file.txt")
	require.Error(t, err)
	assert.True(t, IsEscapeError(err))
}

func TestIsEscapeErrorOtherError(t *testing.T) {
	assert.False(t, IsEscapeError(assert.AnError))
}
