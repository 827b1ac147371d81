// pkg/backup/store_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: Memory FS
// PURPOSE: Test snapshot lifecycle: lazy creation, move-in backup,
// listing order, and non-destructive restore

package backup_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jovalle/jsh/pkg/backup"
	"github.com/jovalle/jsh/pkg/errors"
	"github.com/jovalle/jsh/pkg/testutil"
	"github.com/jovalle/jsh/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*backup.Store, *testutil.TestEnvironment) {
	t.Helper()
	env := testutil.NewTestEnvironment(t)
	return backup.NewStore(env.FS, env.BackupRoot(), env.HomeDir), env
}

func ownsNothing(string) bool { return false }

func TestBegin_IsLazy(t *testing.T) {
	store, env := newStore(t)

	snap := store.Begin()
	assert.False(t, snap.Created())

	// No directory exists until something is backed up.
	_, err := env.FS.Lstat(env.BackupRoot())
	assert.True(t, os.IsNotExist(err))

	ids, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestBackup_MovesPreservingHomeRelativePath(t *testing.T) {
	store, env := newStore(t)
	env.WriteHome(t, ".config/nvim/init.lua", "vim.opt.number = true")

	snap := store.Begin()
	backupPath, err := snap.Backup(filepath.Join(env.HomeDir, ".config/nvim/init.lua"))
	require.NoError(t, err)
	assert.True(t, snap.Created())

	assert.Equal(t, filepath.Join(snap.Dir(), ".config/nvim/init.lua"), backupPath)

	// Original is gone, backup holds the content.
	_, err = env.FS.Lstat(filepath.Join(env.HomeDir, ".config/nvim/init.lua"))
	assert.True(t, os.IsNotExist(err))
	data, err := env.FS.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, "vim.opt.number = true", string(data))
}

func TestBackup_FailureLeavesOriginalUntouched(t *testing.T) {
	store, env := newStore(t)
	dest := env.WriteHome(t, ".tmux.conf", "set -g mouse on")
	env.FS.InjectError(dest, os.ErrPermission)

	snap := store.Begin()
	_, err := snap.Backup(dest)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrBackupMove))

	// The move failed atomically: content is still at the destination.
	env.FS.InjectError(dest, nil)
	data, err := env.FS.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "set -g mouse on", string(data))

	// And the snapshot stayed uncreated: no empty directory appears.
	assert.False(t, snap.Created())
	ids, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestBackup_FailedMoveDoesNotShadowLatest(t *testing.T) {
	store, env := newStore(t)
	dest := env.WriteHome(t, ".tmux.conf", "X")

	first := store.Begin()
	_, err := first.Backup(dest)
	require.NoError(t, err)

	// The link step replaced the original with a managed symlink.
	source := env.WriteSource(t, "core/tmux.conf", "managed")
	require.NoError(t, env.FS.Symlink(source, dest))

	// A later run's backup move fails; its snapshot must leave no trace.
	blocked := env.WriteHome(t, ".zshrc", "z")
	env.FS.InjectError(blocked, os.ErrPermission)
	second := store.Begin()
	_, err = second.Backup(blocked)
	require.Error(t, err)
	assert.False(t, second.Created())

	ids, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID()}, ids, "the failed snapshot never becomes latest")

	// "latest" still resolves to the real snapshot and round-trips.
	owns := func(target string) bool { return target == source }
	results, err := store.Restore("latest", owns)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, types.RestoreRestored, results[0].Outcome)

	data, err := env.FS.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "X", string(data))
}

func TestList_NewestFirst(t *testing.T) {
	store, env := newStore(t)

	for _, id := range []string{"20240101_120000", "20240301_090000", "20231225_000000"} {
		require.NoError(t, env.FS.MkdirAll(filepath.Join(env.BackupRoot(), id), 0755))
	}
	// Non-snapshot entries are ignored.
	require.NoError(t, env.FS.MkdirAll(filepath.Join(env.BackupRoot(), "notes"), 0755))

	ids, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"20240301_090000", "20240101_120000", "20231225_000000"}, ids)

	latest, err := store.Latest()
	require.NoError(t, err)
	assert.Equal(t, "20240301_090000", latest)
}

func TestLatest_NoSnapshots(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.Latest()
	assert.True(t, errors.IsErrorCode(err, errors.ErrSnapshotNotFound))
}

func TestRestore_RoundTrip(t *testing.T) {
	store, env := newStore(t)
	dest := env.WriteHome(t, ".tmux.conf", "X")

	snap := store.Begin()
	_, err := snap.Backup(dest)
	require.NoError(t, err)

	// The link step would have created an owned symlink here.
	source := env.WriteSource(t, "core/tmux.conf", "managed")
	require.NoError(t, env.FS.Symlink(source, dest))

	owns := func(target string) bool { return target == source }
	results, err := store.Restore("latest", owns)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, types.RestoreRestored, results[0].Outcome)

	// Byte-for-byte round trip.
	data, err := env.FS.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "X", string(data))

	// Non-destructive: the snapshot entry survives.
	_, err = env.FS.Lstat(filepath.Join(snap.Dir(), ".tmux.conf"))
	assert.NoError(t, err)
}

func TestRestore_ResolvesRelativeSymlinkTarget(t *testing.T) {
	store, env := newStore(t)
	dest := env.WriteHome(t, ".tmux.conf", "X")

	snap := store.Begin()
	_, err := snap.Backup(dest)
	require.NoError(t, err)

	// The managed symlink uses a relative target; ownership is checked
	// against the resolved absolute path.
	source := env.WriteSource(t, "core/tmux.conf", "managed")
	require.NoError(t, env.FS.Symlink("dotfiles/core/tmux.conf", dest))

	owns := func(target string) bool { return target == source }
	results, err := store.Restore("latest", owns)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, types.RestoreRestored, results[0].Outcome)

	data, err := env.FS.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "X", string(data))
}

func TestRestore_IsRepeatable(t *testing.T) {
	store, env := newStore(t)
	dest := env.WriteHome(t, ".gitconfig", "original")

	snap := store.Begin()
	_, err := snap.Backup(dest)
	require.NoError(t, err)

	results, err := store.Restore(snap.ID(), ownsNothing)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, types.RestoreRestored, results[0].Outcome)

	// Second restore: destination now holds a real file jsh did not
	// create a symlink over, so it is skipped, never clobbered.
	results, err = store.Restore(snap.ID(), ownsNothing)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, types.RestoreSkipped, results[0].Outcome)
}

func TestRestore_SkipsUnmanagedSymlink(t *testing.T) {
	store, env := newStore(t)
	dest := env.WriteHome(t, ".gitconfig", "original")

	snap := store.Begin()
	_, err := snap.Backup(dest)
	require.NoError(t, err)

	// Someone else's symlink now occupies the destination.
	require.NoError(t, env.FS.Symlink("/etc/some-other-tool/conf", dest))

	results, err := store.Restore(snap.ID(), ownsNothing)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, types.RestoreSkipped, results[0].Outcome)

	// The foreign symlink is untouched.
	target, err := env.FS.Readlink(dest)
	require.NoError(t, err)
	assert.Equal(t, "/etc/some-other-tool/conf", target)
}

func TestRestore_MergesIntoExistingDirectories(t *testing.T) {
	store, env := newStore(t)
	env.WriteHome(t, ".config/app/settings.json", "{}")

	snap := store.Begin()
	_, err := snap.Backup(filepath.Join(env.HomeDir, ".config/app/settings.json"))
	require.NoError(t, err)

	// .config still exists as a real directory; restore recurses into
	// it instead of skipping at the top level.
	results, err := store.Restore(snap.ID(), ownsNothing)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, types.RestoreRestored, results[0].Outcome)
	assert.Equal(t, filepath.Join(".config", "app", "settings.json"), results[0].Entry)
}

func TestRestore_UnknownSnapshot(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.Restore("19990101_000000", ownsNothing)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSnapshotNotFound))
}

func TestBegin_SuffixesOnCollision(t *testing.T) {
	store, env := newStore(t)

	first := store.Begin()
	env.WriteHome(t, ".zshrc", "a")
	_, err := first.Backup(filepath.Join(env.HomeDir, ".zshrc"))
	require.NoError(t, err)

	second := store.Begin()
	assert.NotEqual(t, first.ID(), second.ID(), "two snapshots in the same second get distinct ids")
}
