// internal/cli/commands_test.go
// TEST TYPE: CLI Surface
// DEPENDENCIES: None
// PURPOSE: Test command tree wiring, flag validation, and genconfig
// output

package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_HasExpectedCommands(t *testing.T) {
	root := NewRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"dotfiles", "adopt", "doctor", "genconfig", "version"} {
		assert.Contains(t, names, want)
	}

	dotfiles, _, err := root.Find([]string{"dotfiles"})
	require.NoError(t, err)
	var subs []string
	for _, c := range dotfiles.Commands() {
		subs = append(subs, c.Name())
	}
	for _, want := range []string{"link", "unlink", "status", "restore"} {
		assert.Contains(t, subs, want)
	}
}

func TestGenConfig_CommentsOutEveryValue(t *testing.T) {
	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"genconfig"})

	require.NoError(t, root.Execute())

	out := buf.String()
	assert.Contains(t, out, "# backup_dir")
	assert.Contains(t, out, "# strict")
	assert.Contains(t, out, "# private_dir")
}

func TestAdopt_SymlinkFlagsAreExclusive(t *testing.T) {
	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"adopt", "--skip-symlinks", "--follow-symlinks", "/tmp/x"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestAdopt_RequiresArgs(t *testing.T) {
	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"adopt"})

	assert.Error(t, root.Execute())
}
