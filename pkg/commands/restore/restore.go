// Package restore copies a backup snapshot's contents back into place.
package restore

import (
	"github.com/jovalle/jsh/pkg/commands"
	"github.com/jovalle/jsh/pkg/logging"
	"github.com/jovalle/jsh/pkg/types"
)

// Options holds options for the restore command
type Options struct {
	JshRoot    string
	SnapshotID string   // empty or "latest" selects the newest snapshot
	FileSystem types.FS // Allow injecting a filesystem for testing
}

// Result carries the resolved snapshot id and the per-entry outcomes.
type Result struct {
	SnapshotID string
	Results    []types.RestoreResult
}

// Run restores the chosen snapshot. The snapshot directory is left
// intact so the restore can be repeated.
func Run(opts Options) (*Result, error) {
	logger := logging.GetLogger("commands.restore")

	rt, err := commands.Setup(opts.JshRoot, opts.FileSystem)
	if err != nil {
		return nil, err
	}

	id := opts.SnapshotID
	if id == "" || id == "latest" {
		id, err = rt.Store.Latest()
		if err != nil {
			return nil, err
		}
	}

	results, err := rt.Store.Restore(id, rt.Paths.Owns)
	if err != nil {
		return nil, err
	}

	logger.Info().Str("snapshot", id).Int("entries", len(results)).Msg("Restore command completed")
	return &Result{SnapshotID: id, Results: results}, nil
}

// List returns the available snapshot ids, newest first.
func List(opts Options) ([]string, error) {
	rt, err := commands.Setup(opts.JshRoot, opts.FileSystem)
	if err != nil {
		return nil, err
	}
	return rt.Store.List()
}
