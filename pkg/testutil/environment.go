package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestEnvironment is an isolated in-memory home directory plus managed
// repository root for exercising the link engine and backup store.
type TestEnvironment struct {
	FS      *MemoryFS
	HomeDir string
	JshRoot string
}

// NewTestEnvironment builds a MemoryFS with /home/user and
// /home/user/dotfiles created.
func NewTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()

	fs := NewMemoryFS()
	env := &TestEnvironment{
		FS:      fs,
		HomeDir: "/home/user",
		JshRoot: "/home/user/dotfiles",
	}
	require.NoError(t, fs.MkdirAll(env.HomeDir, 0755))
	require.NoError(t, fs.MkdirAll(env.JshRoot, 0755))
	return env
}

// WriteSource creates a file inside the repository and returns its
// absolute path.
func (e *TestEnvironment) WriteSource(t *testing.T, rel, content string) string {
	t.Helper()

	path := filepath.Join(e.JshRoot, rel)
	require.NoError(t, e.FS.WriteFile(path, []byte(content), 0644))
	return path
}

// WriteHome creates a real (non-symlink) file under the home directory
// and returns its absolute path.
func (e *TestEnvironment) WriteHome(t *testing.T, rel, content string) string {
	t.Helper()

	path := filepath.Join(e.HomeDir, rel)
	require.NoError(t, e.FS.WriteFile(path, []byte(content), 0644))
	return path
}

// BackupRoot returns the snapshot store root for this environment.
func (e *TestEnvironment) BackupRoot() string {
	return filepath.Join(e.HomeDir, ".jsh_backup")
}
