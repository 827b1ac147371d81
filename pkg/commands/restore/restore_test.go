// pkg/commands/restore/restore_test.go
// TEST TYPE: Command Integration
// DEPENDENCIES: Memory FS
// PURPOSE: Test restore command: latest selection, named snapshots,
// and the list suboperation

package restore_test

import (
	"path/filepath"
	"testing"

	"github.com/jovalle/jsh/pkg/commands/link"
	"github.com/jovalle/jsh/pkg/commands/restore"
	"github.com/jovalle/jsh/pkg/errors"
	"github.com/jovalle/jsh/pkg/platform"
	"github.com/jovalle/jsh/pkg/testutil"
	"github.com/jovalle/jsh/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnv(t *testing.T) *testutil.TestEnvironment {
	t.Helper()
	env := testutil.NewTestEnvironment(t)
	t.Setenv("HOME", env.HomeDir)
	t.Setenv(platform.EnvOverride, "linux")
	return env
}

func TestRun_LatestAfterLink(t *testing.T) {
	env := newEnv(t)
	env.WriteSource(t, "core/tmux.conf", "managed")
	dest := env.WriteHome(t, ".tmux.conf", "original content")
	env.WriteSource(t, "links.toml", "[[link]]\nsource = \"core/tmux.conf\"\n")

	linkReport, err := link.Run(link.Options{JshRoot: env.JshRoot, FileSystem: env.FS})
	require.NoError(t, err)
	require.NotEmpty(t, linkReport.SnapshotID)

	result, err := restore.Run(restore.Options{JshRoot: env.JshRoot, FileSystem: env.FS})
	require.NoError(t, err)
	assert.Equal(t, linkReport.SnapshotID, result.SnapshotID)
	require.Len(t, result.Results, 1)
	assert.Equal(t, types.RestoreRestored, result.Results[0].Outcome)

	data, err := env.FS.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "original content", string(data))
}

func TestRun_UnknownSnapshot(t *testing.T) {
	env := newEnv(t)

	_, err := restore.Run(restore.Options{
		JshRoot:    env.JshRoot,
		SnapshotID: "19990101_000000",
		FileSystem: env.FS,
	})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSnapshotNotFound))
}

func TestList(t *testing.T) {
	env := newEnv(t)
	backupRoot := filepath.Join(env.HomeDir, ".jsh_backup")
	for _, id := range []string{"20240101_120000", "20240301_090000"} {
		require.NoError(t, env.FS.MkdirAll(filepath.Join(backupRoot, id), 0755))
	}

	ids, err := restore.List(restore.Options{JshRoot: env.JshRoot, FileSystem: env.FS})
	require.NoError(t, err)
	assert.Equal(t, []string{"20240301_090000", "20240101_120000"}, ids)
}
