// Package status reports the link state of every destination without
// mutating anything.
package status

import (
	"github.com/jovalle/jsh/pkg/commands"
	"github.com/jovalle/jsh/pkg/linker"
	"github.com/jovalle/jsh/pkg/types"
)

// Options holds options for the status command
type Options struct {
	JshRoot    string
	FileSystem types.FS // Allow injecting a filesystem for testing
}

// Run classifies every rule's destination for the detected platform.
func Run(opts Options) (*linker.Report, error) {
	rt, err := commands.Setup(opts.JshRoot, opts.FileSystem)
	if err != nil {
		return nil, err
	}

	engine := linker.New(linker.Config{
		FS:       rt.FS,
		Paths:    rt.Paths,
		Store:    rt.Store,
		Platform: rt.Platform,
	})
	return engine.Status(rt.Rules), nil
}
