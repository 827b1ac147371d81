// Package cli builds the jsh command tree.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jovalle/jsh/internal/version"
	"github.com/jovalle/jsh/pkg/commands/adopt"
	"github.com/jovalle/jsh/pkg/commands/doctor"
	"github.com/jovalle/jsh/pkg/commands/link"
	"github.com/jovalle/jsh/pkg/commands/restore"
	"github.com/jovalle/jsh/pkg/commands/status"
	"github.com/jovalle/jsh/pkg/commands/unlink"
	"github.com/jovalle/jsh/pkg/config"
	"github.com/jovalle/jsh/pkg/logging"
	"github.com/jovalle/jsh/pkg/output"
	"github.com/jovalle/jsh/pkg/paths"
)

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	var (
		verbosity int
		jshDir    string
	)

	rootCmd := &cobra.Command{
		Use:   "jsh",
		Short: "A dotfile symlink manager",
		Long: `jsh links the files in a dotfiles repository into your home directory,
backs up anything it displaces, and can restore those backups later.
Rules live in links.toml at the repository root.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().StringVar(&jshDir, "dir", "", "Repository root (default: $JSH_DIR, the enclosing git repository, or the current directory)")

	rootCmd.AddCommand(newDotfilesCmd(&jshDir))
	rootCmd.AddCommand(newAdoptCmd(&jshDir))
	rootCmd.AddCommand(newDoctorCmd(&jshDir))
	rootCmd.AddCommand(newGenConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// session resolves the repository once per invocation and carries the
// pieces every subcommand rendering path needs.
type session struct {
	root     string
	cfg      *config.Config
	renderer *output.Renderer
}

func newSession(jshDir string) (*session, error) {
	p, err := paths.New(jshDir)
	if err != nil {
		return nil, err
	}
	if p.UsedFallback() {
		fmt.Fprintf(os.Stderr, "warning: no repository configured, using current directory %s (set JSH_DIR or pass --dir)\n", p.JshRoot())
	}

	cfg, err := config.Load(p.JshRoot())
	if err != nil {
		return nil, err
	}

	return &session{
		root:     p.JshRoot(),
		cfg:      cfg,
		renderer: output.NewRenderer(os.Stdout, p.HomeDir()),
	}, nil
}

// strictErr converts failures into a non-zero exit under strict mode.
func (s *session) strictErr(failed int) error {
	if s.cfg.Strict && failed > 0 {
		return fmt.Errorf("%d rule(s) failed (strict mode)", failed)
	}
	return nil
}

func newDotfilesCmd(jshDir *string) *cobra.Command {
	dotfilesCmd := &cobra.Command{
		Use:   "dotfiles",
		Short: "Manage dotfile symlinks",
	}

	var dryRun bool

	linkCmd := &cobra.Command{
		Use:   "link",
		Short: "Symlink every rule's source into place",
		Long: `Apply all rules for the current platform. Absent destinations become
symlinks; real files are moved into a timestamped backup snapshot first;
symlinks pointing elsewhere are replaced.`,
		Example: `  jsh dotfiles link
  jsh dotfiles link --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(*jshDir)
			if err != nil {
				return err
			}
			report, err := link.Run(link.Options{JshRoot: s.root, DryRun: dryRun})
			if err != nil {
				return err
			}
			s.renderer.RenderLink(report)
			return s.strictErr(report.Summary.Failed)
		},
	}
	linkCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview changes without executing them")

	var unlinkDryRun bool
	unlinkCmd := &cobra.Command{
		Use:   "unlink",
		Short: "Remove the symlinks jsh owns",
		Long: `Remove every rule destination that is a symlink resolving into the
repository. Real files and foreign symlinks are never touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(*jshDir)
			if err != nil {
				return err
			}
			report, err := unlink.Run(unlink.Options{JshRoot: s.root, DryRun: unlinkDryRun})
			if err != nil {
				return err
			}
			s.renderer.RenderUnlink(report)
			return s.strictErr(report.Summary.Failed)
		},
	}
	unlinkCmd.Flags().BoolVar(&unlinkDryRun, "dry-run", false, "Preview changes without executing them")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Report each destination's link state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(*jshDir)
			if err != nil {
				return err
			}
			report, err := status.Run(status.Options{JshRoot: s.root})
			if err != nil {
				return err
			}
			s.renderer.RenderStatus(report)
			return nil
		},
	}

	var listSnapshots bool
	restoreCmd := &cobra.Command{
		Use:   "restore [name|latest]",
		Short: "Copy a backup snapshot's files back into place",
		Long: `Copy the chosen snapshot's contents back over their original
locations. The snapshot is left intact; destinations occupied by files
jsh did not create are skipped.`,
		Example: `  jsh dotfiles restore
  jsh dotfiles restore latest
  jsh dotfiles restore 20240301_090000
  jsh dotfiles restore --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(*jshDir)
			if err != nil {
				return err
			}
			if listSnapshots {
				ids, err := restore.List(restore.Options{JshRoot: s.root})
				if err != nil {
					return err
				}
				s.renderer.RenderSnapshots(ids)
				return nil
			}
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			result, err := restore.Run(restore.Options{JshRoot: s.root, SnapshotID: id})
			if err != nil {
				return err
			}
			s.renderer.RenderRestore(result.SnapshotID, result.Results)
			return nil
		},
	}
	restoreCmd.Flags().BoolVar(&listSnapshots, "list", false, "List available snapshots instead of restoring")

	dotfilesCmd.AddCommand(linkCmd, unlinkCmd, statusCmd, restoreCmd)
	return dotfilesCmd
}

func newAdoptCmd(jshDir *string) *cobra.Command {
	var (
		private      bool
		dryRun       bool
		skipSymlinks bool
		follow       bool
		assumeYes    bool
	)

	adoptCmd := &cobra.Command{
		Use:   "adopt [flags] <path>...",
		Short: "Move existing files into the repository and symlink them back",
		Long: `Move each file into the managed repository and replace it with a
symlink, so it behaves like any other linked dotfile from then on.`,
		Example: `  jsh adopt ~/.gitconfig
  jsh adopt --private ~/.netrc
  jsh adopt -y ~/.zshrc ~/.tmux.conf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if skipSymlinks && follow {
				return fmt.Errorf("--skip-symlinks and --follow-symlinks are mutually exclusive")
			}

			s, err := newSession(*jshDir)
			if err != nil {
				return err
			}

			policy := adopt.SymlinkAsk
			if skipSymlinks {
				policy = adopt.SymlinkSkip
			}
			if follow {
				policy = adopt.SymlinkFollow
			}

			result, err := adopt.Run(adopt.Options{
				JshRoot:     s.root,
				SourcePaths: args,
				Private:     private,
				DryRun:      dryRun,
				Symlinks:    policy,
				AssumeYes:   assumeYes,
				Confirm: func(path string) bool {
					ok, _ := pterm.DefaultInteractiveConfirm.
						WithDefaultValue(true).
						Show(fmt.Sprintf("Adopt %s into the repository?", filepath.Base(path)))
					return ok
				},
			})
			if err != nil {
				return err
			}

			for _, skip := range result.Skipped {
				fmt.Fprintf(os.Stderr, "skipped %s\n", skip)
			}
			s.renderer.RenderAdopt(result.AdoptedFiles)
			return nil
		},
	}

	adoptCmd.Flags().BoolVar(&private, "private", false, "Place adopted files in the private directory")
	adoptCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview changes without executing them")
	adoptCmd.Flags().BoolVar(&skipSymlinks, "skip-symlinks", false, "Skip sources that are symlinks")
	adoptCmd.Flags().BoolVar(&follow, "follow-symlinks", false, "Adopt the file a symlink source resolves to")
	adoptCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not prompt for confirmation")

	return adoptCmd
}

func newDoctorCmd(jshDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check repository, rules, links, and backups for problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(*jshDir)
			if err != nil {
				return err
			}
			checks, err := doctor.Run(doctor.Options{JshRoot: s.root})
			if err != nil {
				return err
			}
			s.renderer.RenderDoctor(checks)
			for _, c := range checks {
				if !c.OK {
					return fmt.Errorf("doctor found problems")
				}
			}
			return nil
		},
	}
}

func newGenConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genconfig",
		Short: "Print a commented starter jsh.toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := config.GenerateConfigContent()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), content)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("jsh version %s\n", version.Version)
			fmt.Printf("  commit: %s\n", version.Commit)
			fmt.Printf("  built:  %s\n", version.Date)
		},
	}
}
