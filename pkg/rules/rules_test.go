package rules_test

import (
	"path/filepath"
	"testing"

	"github.com/jovalle/jsh/pkg/rules"
	"github.com/jovalle/jsh/pkg/testutil"
	"github.com/jovalle/jsh/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Toml(t *testing.T) {
	fs := testutil.NewMemoryFS()
	root := "/dotfiles"
	content := `
[[link]]
source = "core/gitconfig"

[[link]]
source = "core/config/nvim"
target = "$XDG_CONFIG_HOME/nvim"
kind = "dir"
platform = "linux"
`
	require.NoError(t, fs.MkdirAll(root, 0755))
	require.NoError(t, fs.WriteFile(filepath.Join(root, "links.toml"), []byte(content), 0644))

	got, err := rules.Load(fs, root)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "core/gitconfig", got[0].Source)
	assert.Equal(t, types.KindFile, got[0].Kind, "kind should default to file")
	assert.Equal(t, types.PlatformAll, got[0].Platform, "platform should default to all")

	assert.Equal(t, types.KindDirectory, got[1].Kind)
	assert.Equal(t, types.PlatformLinux, got[1].Platform)
	assert.Equal(t, "$XDG_CONFIG_HOME/nvim", got[1].Target)
}

func TestLoad_Yaml(t *testing.T) {
	fs := testutil.NewMemoryFS()
	root := "/dotfiles"
	content := `
link:
  - source: core/tmux.conf
  - source: core/bin
    kind: children
`
	require.NoError(t, fs.MkdirAll(root, 0755))
	require.NoError(t, fs.WriteFile(filepath.Join(root, "links.yaml"), []byte(content), 0644))

	got, err := rules.Load(fs, root)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, types.KindDirectoryChildren, got[1].Kind)
}

func TestLoad_MalformedEntriesAreSkipped(t *testing.T) {
	fs := testutil.NewMemoryFS()
	root := "/dotfiles"
	content := `
[[link]]
source = "core/gitconfig"

[[link]]
target = "$HOME/.orphan"

[[link]]
source = "/etc/absolute"

[[link]]
source = "core/thing"
kind = "symlink-farm"
`
	require.NoError(t, fs.MkdirAll(root, 0755))
	require.NoError(t, fs.WriteFile(filepath.Join(root, "links.toml"), []byte(content), 0644))

	got, err := rules.Load(fs, root)
	require.NoError(t, err, "bad entries must not fail the load")
	require.Len(t, got, 1)
	assert.Equal(t, "core/gitconfig", got[0].Source)
}

func TestLoad_UnparseableFileIsStructural(t *testing.T) {
	fs := testutil.NewMemoryFS()
	root := "/dotfiles"
	require.NoError(t, fs.MkdirAll(root, 0755))
	require.NoError(t, fs.WriteFile(filepath.Join(root, "links.toml"), []byte("[[link\nsource="), 0644))

	_, err := rules.Load(fs, root)
	assert.Error(t, err)
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	fs := testutil.NewMemoryFS()
	require.NoError(t, fs.MkdirAll("/dotfiles", 0755))

	got, err := rules.Load(fs, "/dotfiles")
	require.NoError(t, err)
	assert.NotEmpty(t, got, "embedded defaults should load")
}

func TestForPlatform(t *testing.T) {
	list := []types.LinkRule{
		{Source: "a", Platform: types.PlatformAll},
		{Source: "b", Platform: types.PlatformMacOS},
		{Source: "c", Platform: types.PlatformLinux},
	}

	onLinux := rules.ForPlatform(list, types.PlatformLinux)
	require.Len(t, onLinux, 2)
	assert.Equal(t, "a", onLinux[0].Source)
	assert.Equal(t, "c", onLinux[1].Source)

	onMac := rules.ForPlatform(list, types.PlatformMacOS)
	require.Len(t, onMac, 2)
	assert.Equal(t, "b", onMac[1].Source)
}
