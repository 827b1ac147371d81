// Package adopt moves existing files into the managed repository and
// symlinks them back to their original locations, so the next link run
// treats them like any other rule destination.
package adopt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jovalle/jsh/pkg/commands"
	"github.com/jovalle/jsh/pkg/errors"
	"github.com/jovalle/jsh/pkg/logging"
	"github.com/jovalle/jsh/pkg/paths"
	"github.com/jovalle/jsh/pkg/types"
)

// DefaultAdoptDir is the repository subdirectory adopted files land in
// unless --private is given.
const DefaultAdoptDir = "core"

// SymlinkPolicy controls what adopt does when a source path is itself
// a symlink.
type SymlinkPolicy int

const (
	// SymlinkAsk skips foreign symlinks unless confirmed.
	SymlinkAsk SymlinkPolicy = iota
	// SymlinkSkip always skips symlink sources.
	SymlinkSkip
	// SymlinkFollow adopts the file the symlink resolves to.
	SymlinkFollow
)

// Options holds options for the adopt command
type Options struct {
	JshRoot     string
	SourcePaths []string
	Private     bool
	DryRun      bool
	Symlinks    SymlinkPolicy
	AssumeYes   bool
	FileSystem  types.FS // Allow injecting a filesystem for testing

	// Confirm is consulted per file when AssumeYes is false. nil means
	// adopt everything (the CLI wires an interactive prompt here).
	Confirm func(path string) bool
}

// Result reports what an adopt run did.
type Result struct {
	AdoptedFiles []types.AdoptedFile
	Skipped      []string
}

// Run adopts each source path in turn. A failed path aborts the run;
// the already-adopted files keep their symlinks.
func Run(opts Options) (*Result, error) {
	logger := logging.GetLogger("commands.adopt")
	logger.Info().
		Strs("source_paths", opts.SourcePaths).
		Bool("private", opts.Private).
		Bool("dry_run", opts.DryRun).
		Msg("Adopting files into repository")

	rt, err := commands.Setup(opts.JshRoot, opts.FileSystem)
	if err != nil {
		return nil, err
	}

	destDir := DefaultAdoptDir
	if opts.Private {
		destDir = rt.Config.PrivateDir
		if destDir == "" {
			destDir = "private"
		}
	}

	result := &Result{}
	for _, sourcePath := range opts.SourcePaths {
		adopted, skipReason, err := adoptOne(rt, logger, opts, destDir, sourcePath)
		if err != nil {
			return nil, fmt.Errorf("failed to adopt %s: %w", sourcePath, err)
		}
		if skipReason != "" {
			logger.Info().Str("source", sourcePath).Str("reason", skipReason).Msg("Skipped")
			result.Skipped = append(result.Skipped, fmt.Sprintf("%s: %s", sourcePath, skipReason))
			continue
		}
		result.AdoptedFiles = append(result.AdoptedFiles, *adopted)
	}

	logger.Info().Int("files_adopted", len(result.AdoptedFiles)).Msg("Adopt command completed")
	return result, nil
}

// adoptOne handles one path: policy checks, the move, and the symlink
// back. Returns a non-empty skip reason for paths left alone.
func adoptOne(rt *commands.Runtime, logger zerolog.Logger, opts Options, destDir, sourcePath string) (*types.AdoptedFile, string, error) {
	expanded := paths.ExpandHome(sourcePath)
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(rt.Paths.HomeDir(), expanded)
	}

	info, err := rt.FS.Lstat(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", errors.Newf(errors.ErrSourceMissing, "source file does not exist: %s", expanded)
		}
		return nil, "", err
	}

	// moveFrom is the file whose bytes enter the repository; linkAt is
	// where the symlink back is created. They differ only when a
	// symlink source is followed.
	moveFrom := expanded
	linkAt := expanded
	followedSymlink := false

	if info.Mode()&os.ModeSymlink != 0 {
		target, err := rt.FS.Readlink(expanded)
		if err != nil {
			return nil, "", err
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(expanded), target)
		}
		if rt.Paths.Owns(target) {
			// Already pointing into the repository. Idempotent, not an error.
			return nil, "already managed", nil
		}
		switch opts.Symlinks {
		case SymlinkSkip:
			return nil, "source is a symlink", nil
		case SymlinkFollow:
			if _, err := rt.FS.Stat(target); err != nil {
				return nil, "", fmt.Errorf("symlink source is broken: %s", expanded)
			}
			moveFrom = target
			followedSymlink = true
		default:
			return nil, "source is a symlink (use --follow-symlinks or --skip-symlinks)", nil
		}
	}

	if !opts.AssumeYes && opts.Confirm != nil && !opts.Confirm(expanded) {
		return nil, "declined", nil
	}

	destPath := filepath.Join(rt.Paths.JshRoot(), destDir, repoName(linkAt))
	if _, err := rt.FS.Lstat(destPath); err == nil {
		return nil, "", errors.Newf(errors.ErrDestConflict, "destination already exists: %s", destPath)
	}

	adopted := &types.AdoptedFile{
		OriginalPath: moveFrom,
		NewPath:      destPath,
		SymlinkPath:  linkAt,
	}
	if opts.DryRun {
		return adopted, "", nil
	}

	if err := rt.FS.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create destination directory: %w", err)
	}

	if err := rt.FS.Rename(moveFrom, destPath); err != nil {
		return nil, "", fmt.Errorf("failed to move file into repository: %w", err)
	}

	if followedSymlink {
		// The old symlink is replaced with one pointing into the repo.
		if err := rt.FS.Remove(linkAt); err != nil {
			if rbErr := rt.FS.Rename(destPath, moveFrom); rbErr != nil {
				return nil, "", fmt.Errorf("failed to replace symlink and also failed to roll back the move: %w", err)
			}
			return nil, "", fmt.Errorf("failed to replace symlink: %w", err)
		}
	}

	if err := rt.FS.Symlink(destPath, linkAt); err != nil {
		// Roll back the move so the original stays where it was.
		logger.Error().Err(err).Str("source", moveFrom).Str("destination", destPath).
			Msg("Failed to create symlink, rolling back move")
		if rbErr := rt.FS.Rename(destPath, moveFrom); rbErr != nil {
			return nil, "", fmt.Errorf("failed to create symlink and also failed to roll back the move: %w", err)
		}
		return nil, "", fmt.Errorf("failed to create symlink: %w", err)
	}

	logger.Info().Str("source", moveFrom).Str("destination", destPath).Msg("Adopted file")
	return adopted, "", nil
}

// repoName maps a home path to its repository file name, dropping the
// leading dot so ~/.gitconfig lands at core/gitconfig.
func repoName(path string) string {
	name := filepath.Base(path)
	return strings.TrimPrefix(name, ".")
}
