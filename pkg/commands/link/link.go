// Package link applies every rule with the link action.
package link

import (
	"github.com/jovalle/jsh/pkg/commands"
	"github.com/jovalle/jsh/pkg/linker"
	"github.com/jovalle/jsh/pkg/logging"
	"github.com/jovalle/jsh/pkg/types"
)

// Options holds options for the link command
type Options struct {
	JshRoot    string
	DryRun     bool
	FileSystem types.FS // Allow injecting a filesystem for testing
}

// Run loads the rules for the detected platform and links them all.
func Run(opts Options) (*linker.Report, error) {
	logger := logging.GetLogger("commands.link")

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

	report := engine.Link(rt.Rules)
	logger.Info().
		Int("linked", report.Summary.Linked).
		Int("already", report.Summary.Already).
		Int("skipped", report.Summary.Skipped).
		Int("failed", report.Summary.Failed).
		Bool("dry_run", opts.DryRun).
		Msg("Link command completed")
	return report, nil
}
