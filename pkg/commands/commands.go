// Package commands assembles the runtime every subcommand needs:
// filesystem, resolved paths, configuration, detected platform, the
// rule list filtered for that platform, and the backup store.
// Environment lookup happens here, once; the engine below never reads
// env vars.
package commands

import (
	"path/filepath"

	"github.com/jovalle/jsh/pkg/backup"
	"github.com/jovalle/jsh/pkg/config"
	"github.com/jovalle/jsh/pkg/filesystem"
	"github.com/jovalle/jsh/pkg/paths"
	"github.com/jovalle/jsh/pkg/platform"
	"github.com/jovalle/jsh/pkg/rules"
	"github.com/jovalle/jsh/pkg/types"
)

// Runtime holds the assembled collaborators for one command invocation.
type Runtime struct {
	FS       types.FS
	Paths    paths.Paths
	Config   *config.Config
	Platform types.Platform
	Rules    []types.LinkRule
	Store    *backup.Store
}

// Setup resolves the repository root and builds the runtime. A nil fs
// means the real filesystem; tests inject a memory FS.
func Setup(jshRoot string, fs types.FS) (*Runtime, error) {
	if fs == nil {
		fs = filesystem.NewOS()
	}

	p, err := paths.New(jshRoot)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(p.JshRoot())
	if err != nil {
		return nil, err
	}

	detected := platform.Detect()

	ruleList, err := rules.Load(fs, p.JshRoot())
	if err != nil {
		return nil, err
	}
	ruleList = rules.ForPlatform(ruleList, detected)

	backupRoot := p.BackupRoot()
	if cfg.BackupDir != "" {
		backupRoot = filepath.Join(p.HomeDir(), cfg.BackupDir)
	}

	return &Runtime{
		FS:       fs,
		Paths:    p,
		Config:   cfg,
		Platform: detected,
		Rules:    ruleList,
		Store:    backup.NewStore(fs, backupRoot, p.HomeDir()),
	}, nil
}
