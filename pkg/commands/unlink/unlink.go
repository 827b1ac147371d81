// Package unlink removes the symlinks jsh owns.
package unlink

import (
	"github.com/jovalle/jsh/pkg/commands"
	"github.com/jovalle/jsh/pkg/linker"
	"github.com/jovalle/jsh/pkg/logging"
	"github.com/jovalle/jsh/pkg/types"
)

// Options holds options for the unlink command
type Options struct {
	JshRoot    string
	DryRun     bool
	FileSystem types.FS // Allow injecting a filesystem for testing
}

// Run loads the rules for the detected platform and unlinks them all.
// Only symlinks resolving into the repository are removed; real files
// and foreign symlinks are never touched.
func Run(opts Options) (*linker.Report, error) {
	logger := logging.GetLogger("commands.unlink")

	rt, err := commands.Setup(opts.JshRoot, opts.FileSystem)
	if err != nil {
		return nil, err
	}

	engine := linker.New(linker.Config{
		FS:       rt.FS,
		Paths:    rt.Paths,
		Store:    rt.Store,
		Platform: rt.Platform,
		DryRun:   opts.DryRun,
	})

	report := engine.Unlink(rt.Rules)
	logger.Info().
		Int("unlinked", report.Summary.Unlinked).
		Int("skipped", report.Summary.Skipped).
		Bool("dry_run", opts.DryRun).
		Msg("Unlink command completed")
	return report, nil
}
