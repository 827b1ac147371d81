package types

// RuleKind describes how a link rule maps to destinations.
type RuleKind string

const (
	// KindFile links a single file as one symlink.
	KindFile RuleKind = "file"

	// KindDirectory links an entire directory as one symlink.
	KindDirectory RuleKind = "dir"

	// KindDirectoryChildren creates one symlink per immediate child
	// of the source directory, enumerated fresh on every run.
	KindDirectoryChildren RuleKind = "children"
)

// Platform restricts a rule to one operating system.
type Platform string

const (
	PlatformAll     Platform = "all"
	PlatformMacOS   Platform = "macos"
	PlatformLinux   Platform = "linux"
	PlatformUnknown Platform = "unknown"
)

// Matches reports whether a rule tagged with p applies on the
// detected platform.
func (p Platform) Matches(detected Platform) bool {
	if p == "" || p == PlatformAll {
		return true
	}
	return p == detected
}

// LinkRule is one managed mapping from the jsh repository to a
// destination path. Source is never mutated; Target is resolved to an
// absolute, variable-free path before any filesystem operation.
type LinkRule struct {
	// Source is the path relative to the jsh repository root.
	Source string `koanf:"source"`

	// Target is the absolute destination path. May contain $HOME,
	// $XDG_CONFIG_HOME or $APP_SUPPORT placeholders. Empty means
	// $HOME/.<basename(source)>.
	Target string `koanf:"target"`

	// Kind selects file, dir, or children fan-out. Empty means file.
	Kind RuleKind `koanf:"kind"`

	// Platform limits the rule to one OS. Empty means all.
	Platform Platform `koanf:"platform"`
}

// Name returns a short display name for the rule.
func (r LinkRule) Name() string {
	return r.Source
}
