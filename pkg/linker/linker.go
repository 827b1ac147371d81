// Package linker is the link engine: it applies one action (link,
// unlink, status) to every rule, inspecting each destination fresh and
// performing the requested transition. Real files displaced by link go
// through the backup store; per-rule failures become warnings and the
// run always continues to the next rule.
package linker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/jovalle/jsh/pkg/backup"
	"github.com/jovalle/jsh/pkg/logging"
	"github.com/jovalle/jsh/pkg/paths"
	"github.com/jovalle/jsh/pkg/types"
)

// Config wires the engine's collaborators. Environment lookup happens
// before construction; the engine itself never reads env vars.
type Config struct {
	FS       types.FS
	Paths    paths.Paths
	Store    *backup.Store
	Platform types.Platform
	DryRun   bool
}

// Engine applies link actions to rules.
type Engine struct {
	fs       types.FS
	paths    paths.Paths
	store    *backup.Store
	platform types.Platform
	dryRun   bool
	logger   zerolog.Logger
}

// New creates a link engine.
func New(cfg Config) *Engine {
	return &Engine{
		fs:       cfg.FS,
		paths:    cfg.Paths,
		store:    cfg.Store,
		platform: cfg.Platform,
		dryRun:   cfg.DryRun,
		logger:   logging.GetLogger("linker"),
	}
}

// Report is the outcome of one engine run.
type Report struct {
	Results []types.LinkResult
	Summary types.Summary

	// SnapshotID/SnapshotDir are set when at least one collision was
	// backed up during a link run.
	SnapshotID  string
	SnapshotDir string
}

// target is one concrete source→destination pair after rule fan-out.
type target struct {
	rule   types.LinkRule
	source string
	dest   string
}

// expand resolves a rule into its concrete destinations. A children
// rule enumerates the source directory fresh on every run.
func (e *Engine) expand(rule types.LinkRule) ([]target, error) {
	source := e.paths.SourcePath(rule.Source)

	if _, err := e.fs.Lstat(source); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("source does not exist: %s", source)
		}
		return nil, fmt.Errorf("cannot stat source %s: %v", source, err)
	}

	dest := rule.Target
	if dest == "" {
		dest = e.paths.DefaultTarget(rule.Source)
	} else {
		dest = e.paths.ExpandTarget(dest, e.platform)
	}

	switch rule.Kind {
	case types.KindDirectoryChildren:
		children, err := e.fs.ReadDir(source)
		if err != nil {
			return nil, fmt.Errorf("cannot list source directory %s: %v", source, err)
		}
		out := make([]target, 0, len(children))
		for _, c := range children {
			out = append(out, target{
				rule:   rule,
				source: filepath.Join(source, c.Name()),
				dest:   filepath.Join(dest, c.Name()),
			})
		}
		return out, nil

	default:
		return []target{{rule: rule, source: source, dest: dest}}, nil
	}
}

// Inspect classifies a destination against its expected source. The
// state is derived fresh on every call; the destination may have been
// changed by other processes since the last run.
func (e *Engine) Inspect(dest, expectedSource string) types.LinkState {
	info, err := e.fs.Lstat(dest)
	if err != nil {
		return types.StateAbsent
	}

	if info.Mode()&fs.ModeSymlink == 0 {
		return types.StateExists
	}

	linkTarget, err := e.fs.Readlink(dest)
	if err != nil {
		return types.StateLinkedElsewhere
	}
	if !filepath.IsAbs(linkTarget) {
		linkTarget = filepath.Join(filepath.Dir(dest), linkTarget)
	}
	if filepath.Clean(linkTarget) == filepath.Clean(expectedSource) {
		return types.StateLinked
	}
	return types.StateLinkedElsewhere
}

// Link applies the link transition to every rule. Collisions with real
// files are moved into one lazily created snapshot for the whole run.
func (e *Engine) Link(rules []types.LinkRule) *Report {
	report := &Report{}
	snap := e.store.Begin()

	for _, rule := range rules {
		targets, err := e.expand(rule)
		if err != nil {
			report.add(skipped(rule, err.Error()))
			continue
		}
		for _, tg := range targets {
			report.add(e.linkOne(tg, snap))
		}
	}

	if snap.Created() {
		report.SnapshotID = snap.ID()
		report.SnapshotDir = snap.Dir()
	}
	return report
}

func (e *Engine) linkOne(tg target, snap *backup.Snapshot) types.LinkResult {
	res := types.LinkResult{
		Rule:   tg.rule,
		Source: tg.source,
		Target: tg.dest,
		State:  e.Inspect(tg.dest, tg.source),
	}

	switch res.State {
	case types.StateLinked:
		res.Outcome = types.OutcomeAlready
		return res

	case types.StateAbsent:
		if e.dryRun {
			res.Outcome = types.OutcomeLinked
			return res
		}
		if err := e.createLink(tg); err != nil {
			return failed(res, err)
		}
		res.Outcome = types.OutcomeLinked
		e.logger.Info().Str("target", tg.dest).Str("source", tg.source).Msg("Linked")
		return res

	case types.StateLinkedElsewhere:
		if e.dryRun {
			res.Outcome = types.OutcomeLinked
			return res
		}
		if err := e.fs.Remove(tg.dest); err != nil {
			return failed(res, err)
		}
		if err := e.createLink(tg); err != nil {
			return failed(res, err)
		}
		res.Outcome = types.OutcomeLinked
		e.logger.Info().Str("target", tg.dest).Msg("Replaced foreign symlink")
		return res

	default: // StateExists: back up the real file, then link
		if e.dryRun {
			res.Outcome = types.OutcomeBackedUp
			return res
		}
		backupPath, err := snap.Backup(tg.dest)
		if err != nil {
			// The original is untouched; skip rather than risk data.
			res.Outcome = types.OutcomeSkipped
			res.Warning = warnText(err)
			e.logger.Warn().Str("target", tg.dest).Err(err).Msg("Backup failed, leaving destination untouched")
			return res
		}
		res.Backup = backupPath
		if err := e.createLink(tg); err != nil {
			// Put the original back so the destination is never lost.
			if rbErr := e.fs.Rename(backupPath, tg.dest); rbErr != nil {
				e.logger.Error().Err(rbErr).Str("target", tg.dest).Msg("Failed to roll back backup move")
			}
			return failed(res, err)
		}
		res.Outcome = types.OutcomeBackedUp
		e.logger.Info().Str("target", tg.dest).Str("backup", backupPath).Msg("Backed up original and linked")
		return res
	}
}

func (e *Engine) createLink(tg target) error {
	if err := e.fs.MkdirAll(filepath.Dir(tg.dest), 0755); err != nil {
		return fmt.Errorf("cannot create parent directory: %v", err)
	}
	if err := e.fs.Symlink(tg.source, tg.dest); err != nil {
		return fmt.Errorf("cannot create symlink: %v", err)
	}
	return nil
}

// Unlink removes symlinks jsh owns. Anything else is left untouched:
// real files, foreign symlinks, and absent destinations are never
// modified.
func (e *Engine) Unlink(rules []types.LinkRule) *Report {
	report := &Report{}

	for _, rule := range rules {
		targets, err := e.expand(rule)
		if err != nil {
			report.add(skipped(rule, err.Error()))
			continue
		}
		for _, tg := range targets {
			report.add(e.unlinkOne(tg))
		}
	}
	return report
}

func (e *Engine) unlinkOne(tg target) types.LinkResult {
	res := types.LinkResult{
		Rule:   tg.rule,
		Source: tg.source,
		Target: tg.dest,
		State:  e.Inspect(tg.dest, tg.source),
	}

	switch res.State {
	case types.StateLinked:
		// Linked means the symlink resolves to the expected source, but
		// ownership is still checked explicitly before removal.
		linkTarget, err := e.fs.Readlink(tg.dest)
		if err == nil && !filepath.IsAbs(linkTarget) {
			linkTarget = filepath.Join(filepath.Dir(tg.dest), linkTarget)
		}
		if err != nil || !e.paths.Owns(linkTarget) {
			res.Outcome = types.OutcomeSkipped
			res.Warning = "symlink target is outside the managed repository"
			return res
		}
		if e.dryRun {
			res.Outcome = types.OutcomeUnlinked
			return res
		}
		if err := e.fs.Remove(tg.dest); err != nil {
			return failed(res, err)
		}
		res.Outcome = types.OutcomeUnlinked
		e.logger.Info().Str("target", tg.dest).Msg("Unlinked")
		return res

	case types.StateAbsent:
		res.Outcome = types.OutcomeAlready
		return res

	default:
		res.Outcome = types.OutcomeSkipped
		res.Warning = "destination is not a jsh symlink"
		return res
	}
}

// Status is a pure read: it classifies every destination without any
// mutation.
func (e *Engine) Status(rules []types.LinkRule) *Report {
	report := &Report{}

	for _, rule := range rules {
		targets, err := e.expand(rule)
		if err != nil {
			report.add(skipped(rule, err.Error()))
			continue
		}
		for _, tg := range targets {
			res := types.LinkResult{
				Rule:   tg.rule,
				Source: tg.source,
				Target: tg.dest,
				State:  e.Inspect(tg.dest, tg.source),
			}
			report.Results = append(report.Results, res)
		}
	}
	return report
}

func (r *Report) add(res types.LinkResult) {
	r.Results = append(r.Results, res)
	r.Summary.Add(res)
}

func skipped(rule types.LinkRule, warning string) types.LinkResult {
	return types.LinkResult{
		Rule:    rule,
		Outcome: types.OutcomeSkipped,
		Warning: warning,
	}
}

func failed(res types.LinkResult, err error) types.LinkResult {
	res.Outcome = types.OutcomeFailed
	res.Warning = warnText(err)
	return res
}

// warnText renders an error as a warning line, adding remediation for
// permission failures.
func warnText(err error) string {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Sprintf("%v (requires elevated privileges)", err)
	}
	return err.Error()
}
