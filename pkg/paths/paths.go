// Package paths provides centralized path handling for jsh: repository
// root discovery, destination placeholder expansion, the backup root,
// and the symlink ownership predicate.
package paths

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/jovalle/jsh/pkg/errors"
	"github.com/jovalle/jsh/pkg/types"
)

// Environment variable names
const (
	// EnvJshDir is the primary environment variable for the managed
	// repository root.
	EnvJshDir = "JSH_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// BackupDirName is the directory under $HOME that accumulates
// timestamped backup snapshots. Not user-configurable here; overrides
// belong in pkg/config.
const BackupDirName = ".jsh_backup"

// Paths provides centralized path management for jsh
type Paths interface {
	// JshRoot returns the managed repository root.
	JshRoot() string

	// UsedFallback reports whether the cwd fallback was used for the root.
	UsedFallback() bool

	// HomeDir returns the user's home directory.
	HomeDir() string

	// BackupRoot returns the directory holding backup snapshots.
	BackupRoot() string

	// ConfigHome returns the XDG config home.
	ConfigHome() string

	// AppSupportDir returns the platform application-support directory:
	// ~/Library/Application Support on macOS, XDG data home on Linux.
	AppSupportDir(platform types.Platform) string

	// SourcePath resolves a rule source relative to the repository root.
	SourcePath(rel string) string

	// ExpandTarget resolves a destination path: placeholder expansion,
	// ~ expansion, and absolutization against $HOME.
	ExpandTarget(target string, platform types.Platform) string

	// DefaultTarget returns the destination used when a rule omits one:
	// $HOME/.<basename(source)>.
	DefaultTarget(source string) string

	// Owns reports whether a symlink target lies inside the repository
	// root. Exact prefix with a path separator boundary; a sibling
	// directory whose name merely starts with the root does not match.
	Owns(linkTarget string) bool
}

type paths struct {
	jshRoot      string
	homeDir      string
	usedFallback bool
}

// New creates a Paths instance rooted at jshRoot. If jshRoot is empty
// the root is discovered from JSH_DIR, the enclosing git repository, or
// the current directory as a last resort.
func New(jshRoot string) (Paths, error) {
	p := &paths{}

	if jshRoot == "" {
		root, usedFallback, err := findJshRoot()
		if err != nil {
			return nil, err
		}
		p.jshRoot = root
		p.usedFallback = usedFallback
	} else {
		p.jshRoot = ExpandHome(jshRoot)
	}

	absRoot, err := filepath.Abs(p.jshRoot)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to get absolute path for jsh root")
	}
	p.jshRoot = absRoot

	home, err := GetHomeDirectory()
	if err != nil {
		return nil, err
	}
	p.homeDir = home

	return p, nil
}

// findJshRoot determines the repository root using the following priority:
// 1. JSH_DIR environment variable
// 2. Git repository root ('git rev-parse --show-toplevel')
// 3. Current working directory (fallback, with warning by the caller)
func findJshRoot() (string, bool, error) {
	if root := os.Getenv(EnvJshDir); root != "" {
		return ExpandHome(root), false, nil
	}

	if gitRoot, err := findGitRoot(); err == nil && gitRoot != "" {
		return gitRoot, false, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", false, errors.Wrapf(err, errors.ErrFileAccess, "failed to get current directory")
	}
	return cwd, true, nil
}

// findGitRoot attempts to find the root of the current git repository
func findGitRoot() (string, error) {
	output, err := exec.Command("git", "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return "", err
	}

	gitRoot := strings.TrimSpace(string(output))
	if gitRoot == "" {
		return "", errors.New(errors.ErrNotFound, "git root is empty")
	}
	return gitRoot, nil
}

// ExpandHome expands a leading ~ to the home directory
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv(EnvHome)
		if homeDir == "" {
			return path
		}
	}

	if len(path) == 1 {
		return homeDir
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}

	// ~something (not the user's home)
	return path
}

// GetHomeDirectory returns the user's home directory with proper error handling
func GetHomeDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		if home := os.Getenv(EnvHome); home != "" {
			return home, nil
		}
		return "", errors.Wrapf(err, errors.ErrFileAccess, "failed to get home directory")
	}
	return homeDir, nil
}

func (p *paths) JshRoot() string    { return p.jshRoot }
func (p *paths) UsedFallback() bool { return p.usedFallback }
func (p *paths) HomeDir() string    { return p.homeDir }

func (p *paths) BackupRoot() string {
	return filepath.Join(p.homeDir, BackupDirName)
}

func (p *paths) ConfigHome() string {
	return xdg.ConfigHome
}

func (p *paths) AppSupportDir(platform types.Platform) string {
	if platform == types.PlatformMacOS {
		return filepath.Join(p.homeDir, "Library", "Application Support")
	}
	return xdg.DataHome
}

func (p *paths) SourcePath(rel string) string {
	return filepath.Join(p.jshRoot, rel)
}

// ExpandTarget resolves destination placeholders. Supported variables
// are $HOME, $XDG_CONFIG_HOME and $APP_SUPPORT; anything else is left
// for os.Expand to resolve from the environment.
func (p *paths) ExpandTarget(target string, platform types.Platform) string {
	expanded := os.Expand(target, func(name string) string {
		switch name {
		case "HOME":
			return p.homeDir
		case "XDG_CONFIG_HOME":
			return p.ConfigHome()
		case "APP_SUPPORT":
			return p.AppSupportDir(platform)
		default:
			return os.Getenv(name)
		}
	})

	expanded = ExpandHome(expanded)
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(p.homeDir, expanded)
	}
	return filepath.Clean(expanded)
}

// DefaultTarget maps a source to $HOME/.<basename>, adding the dot
// prefix only when the basename doesn't already carry one.
func (p *paths) DefaultTarget(source string) string {
	name := filepath.Base(source)
	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}
	return filepath.Join(p.homeDir, name)
}

// Owns implements the symlink ownership predicate on canonicalized
// absolute paths. The shell-era substring check could misfire on a
// sibling directory like ~/old.jsh-backup; this requires an exact
// prefix ending at a path separator.
func (p *paths) Owns(linkTarget string) bool {
	if linkTarget == "" {
		return false
	}
	abs, err := filepath.Abs(ExpandHome(linkTarget))
	if err != nil {
		return false
	}

	rel, err := filepath.Rel(p.jshRoot, filepath.Clean(abs))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
