// pkg/output/renderer_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None (in-memory writer, plain renderer)
// PURPOSE: Test report rendering: state glyphs, summary lines, home
// contraction

package output_test

import (
	"bytes"
	"testing"

	"github.com/jovalle/jsh/pkg/linker"
	"github.com/jovalle/jsh/pkg/output"
	"github.com/jovalle/jsh/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestRenderStatus(t *testing.T) {
	var buf bytes.Buffer
	r := output.NewPlainRenderer(&buf, "/home/user")

	report := &linker.Report{Results: []types.LinkResult{
		{Target: "/home/user/.gitconfig", Source: "/home/user/dotfiles/core/gitconfig", State: types.StateLinked},
		{Target: "/home/user/.zshrc", Source: "/home/user/dotfiles/core/zshrc", State: types.StateLinkedElsewhere},
		{Target: "/home/user/.tmux.conf", Source: "/home/user/dotfiles/core/tmux.conf", State: types.StateExists},
		{Target: "/home/user/.vimrc", Source: "/home/user/dotfiles/core/vimrc", State: types.StateAbsent},
	}}
	r.RenderStatus(report)

	out := buf.String()
	assert.Contains(t, out, "✓ ~/.gitconfig -> ~/dotfiles/core/gitconfig")
	assert.Contains(t, out, "~ ~/.zshrc")
	assert.Contains(t, out, "~ ~/.tmux.conf")
	assert.Contains(t, out, "- ~/.vimrc")
	assert.Contains(t, out, "1 linked, 1 linked elsewhere, 1 existing, 1 absent")
}

func TestRenderLink_SummaryAndSnapshot(t *testing.T) {
	var buf bytes.Buffer
	r := output.NewPlainRenderer(&buf, "/home/user")

	report := &linker.Report{
		Results: []types.LinkResult{
			{Target: "/home/user/.gitconfig", Outcome: types.OutcomeLinked},
			{Target: "/home/user/.tmux.conf", Outcome: types.OutcomeBackedUp,
				Backup: "/home/user/.jsh_backup/20240301_090000/.tmux.conf"},
			{Target: "/home/user/.zshrc", Outcome: types.OutcomeAlready},
			{Rule: types.LinkRule{Source: "core/gone"}, Outcome: types.OutcomeSkipped,
				Warning: "source does not exist"},
		},
		SnapshotID:  "20240301_090000",
		SnapshotDir: "/home/user/.jsh_backup/20240301_090000",
	}
	for _, res := range report.Results {
		report.Summary.Add(res)
	}
	r.RenderLink(report)

	out := buf.String()
	assert.Contains(t, out, "2 linked, 1 already linked, 1 skipped, 0 failed")
	assert.Contains(t, out, "original moved to ~/.jsh_backup/20240301_090000/.tmux.conf")
	assert.Contains(t, out, "originals backed up to ~/.jsh_backup/20240301_090000")
	assert.Contains(t, out, "! core/gone: source does not exist")
}

func TestRenderRestore_Tally(t *testing.T) {
	var buf bytes.Buffer
	r := output.NewPlainRenderer(&buf, "/home/user")

	r.RenderRestore("20240301_090000", []types.RestoreResult{
		{Entry: ".tmux.conf", Target: "/home/user/.tmux.conf", Outcome: types.RestoreRestored},
		{Entry: ".zshrc", Target: "/home/user/.zshrc", Outcome: types.RestoreSkipped,
			Warning: "destination exists and is not a jsh symlink: /home/user/.zshrc"},
	})

	out := buf.String()
	assert.Contains(t, out, "restoring snapshot 20240301_090000")
	assert.Contains(t, out, "✓ ~/.tmux.conf")
	assert.Contains(t, out, "1 restored, 1 skipped, 0 failed")
}

func TestRenderSnapshots(t *testing.T) {
	var buf bytes.Buffer
	r := output.NewPlainRenderer(&buf, "/home/user")

	r.RenderSnapshots(nil)
	assert.Contains(t, buf.String(), "no backup snapshots exist")

	buf.Reset()
	r.RenderSnapshots([]string{"20240301_090000", "20240101_120000"})
	out := buf.String()
	assert.Contains(t, out, "* 20240301_090000")
	assert.Contains(t, out, "  20240101_120000")
}

func TestRenderDoctor(t *testing.T) {
	var buf bytes.Buffer
	r := output.NewPlainRenderer(&buf, "/home/user")

	r.RenderDoctor([]types.DoctorCheck{
		{Name: "repository", OK: true, Detail: "/home/user/dotfiles"},
		{Name: "rules", OK: false, Detail: "links.toml not found"},
	})

	out := buf.String()
	assert.Contains(t, out, "✓ repository: /home/user/dotfiles")
	assert.Contains(t, out, "✗ rules: links.toml not found")
	assert.Contains(t, out, "1 check(s) failed")
}
