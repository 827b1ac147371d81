// Package backup implements the snapshot store: a durable, append-only
// holding area under the backup root for originals displaced by link.
// Snapshots are directories named by creation timestamp; restore copies
// a snapshot's contents back and leaves the snapshot in place.
package backup

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jovalle/jsh/pkg/errors"
	"github.com/jovalle/jsh/pkg/logging"
	"github.com/jovalle/jsh/pkg/types"
)

// TimestampLayout names snapshot directories so lexicographic order is
// chronological order.
const TimestampLayout = "20060102_150405"

var snapshotNameRe = regexp.MustCompile(`^\d{8}_\d{6}(_\d+)?$`)

// Store manages the snapshot tree under root.
type Store struct {
	fs   types.FS
	root string // backup root, e.g. ~/.jsh_backup
	home string // home directory backups are relative to
}

// NewStore creates a store. Nothing is created on disk until the first
// backup happens.
func NewStore(filesystem types.FS, root, home string) *Store {
	return &Store{fs: filesystem, root: root, home: home}
}

// Root returns the backup root directory.
func (s *Store) Root() string {
	return s.root
}

// Snapshot is the handle for one link invocation's backups. The
// directory is created lazily on the first Backup call so runs without
// collisions leave no empty snapshot directories behind.
type Snapshot struct {
	store   *Store
	id      string
	created bool
}

// Begin computes a new snapshot handle. If a directory for the current
// second already exists, a numeric suffix keeps the id unique.
func (s *Store) Begin() *Snapshot {
	id := time.Now().Format(TimestampLayout)
	candidate := id
	for n := 1; ; n++ {
		if _, err := s.fs.Lstat(filepath.Join(s.root, candidate)); err != nil {
			break
		}
		candidate = fmt.Sprintf("%s_%d", id, n)
	}
	return &Snapshot{store: s, id: candidate}
}

// ID returns the snapshot name.
func (sn *Snapshot) ID() string {
	return sn.id
}

// Created reports whether any file has been backed up into this
// snapshot yet.
func (sn *Snapshot) Created() bool {
	return sn.created
}

// Dir returns the snapshot directory path.
func (sn *Snapshot) Dir() string {
	return filepath.Join(sn.store.root, sn.id)
}

// Backup moves destPath into the snapshot, preserving its path
// relative to the home directory. The move is a single rename: it
// either fully succeeds or leaves the original untouched.
func (sn *Snapshot) Backup(destPath string) (string, error) {
	logger := logging.GetLogger("backup")

	rel, err := filepath.Rel(sn.store.home, destPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		// Destinations outside home keep only their base name.
		rel = filepath.Base(destPath)
	}

	backupPath := filepath.Join(sn.Dir(), rel)
	if err := sn.store.fs.MkdirAll(filepath.Dir(backupPath), 0755); err != nil {
		return "", errors.Wrapf(err, errors.ErrBackupMove, "failed to create backup directory for %s", destPath)
	}

	if err := sn.store.fs.Rename(destPath, backupPath); err != nil {
		if !sn.created {
			// Undo the directory tree so a failed first move leaves no
			// empty snapshot behind to shadow the real latest one.
			_ = sn.store.fs.RemoveAll(sn.Dir())
		}
		return "", errors.Wrapf(err, errors.ErrBackupMove, "failed to move %s into backup", destPath)
	}

	sn.created = true
	logger.Info().Str("from", destPath).Str("to", backupPath).Msg("Backed up original")
	return backupPath, nil
}

// List returns snapshot ids, newest first.
func (s *Store) List() ([]string, error) {
	entries, err := s.fs.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to list backup root %s", s.root)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() && snapshotNameRe.MatchString(e.Name()) {
			ids = append(ids, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}

// Latest returns the newest snapshot id.
func (s *Store) Latest() (string, error) {
	ids, err := s.List()
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", errors.New(errors.ErrSnapshotNotFound, "no backup snapshots exist")
	}
	return ids[0], nil
}

// Restore copies the chosen snapshot's entries back over the live
// destinations. The snapshot itself is left intact so restore can be
// repeated. owns reports whether a symlink target lies inside the
// managed repository; only such symlinks are removed before copying.
// Real files not produced by this tool are skipped, never clobbered.
func (s *Store) Restore(id string, owns func(string) bool) ([]types.RestoreResult, error) {
	if id == "" || id == "latest" {
		latest, err := s.Latest()
		if err != nil {
			return nil, err
		}
		id = latest
	}

	snapDir := filepath.Join(s.root, id)
	if _, err := s.fs.Lstat(snapDir); err != nil {
		return nil, errors.Newf(errors.ErrSnapshotNotFound, "no snapshot named %q", id)
	}

	logger := logging.GetLogger("backup")
	logger.Info().Str("snapshot", id).Msg("Restoring snapshot")

	var results []types.RestoreResult
	entries, err := s.fs.ReadDir(snapDir)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to read snapshot %s", id)
	}
	for _, e := range entries {
		s.restoreEntry(snapDir, e.Name(), owns, &results)
	}
	return results, nil
}

// restoreEntry restores one home-relative path. Real directories at
// the destination are merged by recursing; everything else is handled
// at this level.
func (s *Store) restoreEntry(snapDir, rel string, owns func(string) bool, results *[]types.RestoreResult) {
	logger := logging.GetLogger("backup")

	src := filepath.Join(snapDir, rel)
	dest := filepath.Join(s.home, rel)

	destInfo, lerr := s.fs.Lstat(dest)
	switch {
	case lerr == nil && destInfo.Mode()&fs.ModeSymlink != 0:
		target, err := s.fs.Readlink(dest)
		if err == nil && !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(dest), target)
		}
		if err != nil || !owns(target) {
			warn := fmt.Sprintf("destination is a symlink not managed by jsh: %s", dest)
			logger.Warn().Str("dest", dest).Msg("Skipping unmanaged symlink")
			*results = append(*results, types.RestoreResult{Entry: rel, Target: dest, Outcome: types.RestoreSkipped, Warning: warn})
			return
		}
		if err := s.fs.Remove(dest); err != nil {
			*results = append(*results, types.RestoreResult{Entry: rel, Target: dest, Outcome: types.RestoreFailed, Warning: err.Error()})
			return
		}

	case lerr == nil && destInfo.IsDir():
		srcInfo, err := s.fs.Lstat(src)
		if err == nil && srcInfo.IsDir() {
			// Merge into the existing directory.
			children, err := s.fs.ReadDir(src)
			if err != nil {
				*results = append(*results, types.RestoreResult{Entry: rel, Target: dest, Outcome: types.RestoreFailed, Warning: err.Error()})
				return
			}
			for _, c := range children {
				s.restoreEntry(snapDir, filepath.Join(rel, c.Name()), owns, results)
			}
			return
		}
		warn := fmt.Sprintf("destination is a directory not produced by jsh: %s", dest)
		*results = append(*results, types.RestoreResult{Entry: rel, Target: dest, Outcome: types.RestoreSkipped, Warning: warn})
		return

	case lerr == nil:
		warn := fmt.Sprintf("destination exists and is not a jsh symlink: %s", dest)
		logger.Warn().Str("dest", dest).Msg("Skipping existing file")
		*results = append(*results, types.RestoreResult{Entry: rel, Target: dest, Outcome: types.RestoreSkipped, Warning: warn})
		return
	}

	// Destination is clear: copy (never move) the entry back.
	if err := s.copyAll(src, dest); err != nil {
		*results = append(*results, types.RestoreResult{Entry: rel, Target: dest, Outcome: types.RestoreFailed, Warning: err.Error()})
		return
	}
	*results = append(*results, types.RestoreResult{Entry: rel, Target: dest, Outcome: types.RestoreRestored})
}

// copyAll recursively copies src to dest through the FS interface,
// preserving file modes and recreating symlinks.
func (s *Store) copyAll(src, dest string) error {
	info, err := s.fs.Lstat(src)
	if err != nil {
		return err
	}

	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		target, err := s.fs.Readlink(src)
		if err != nil {
			return err
		}
		if err := s.fs.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}
		return s.fs.Symlink(target, dest)

	case info.IsDir():
		if err := s.fs.MkdirAll(dest, info.Mode().Perm()); err != nil {
			return err
		}
		entries, err := s.fs.ReadDir(src)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := s.copyAll(filepath.Join(src, e.Name()), filepath.Join(dest, e.Name())); err != nil {
				return err
			}
		}
		return nil

	default:
		data, err := s.fs.ReadFile(src)
		if err != nil {
			return err
		}
		if err := s.fs.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}
		return s.fs.WriteFile(dest, data, info.Mode().Perm())
	}
}
