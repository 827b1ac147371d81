// Package doctor runs environment health checks: repository layout,
// rule loading, destination states, dangling managed symlinks, and the
// backup store.
package doctor

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/jovalle/jsh/pkg/commands"
	"github.com/jovalle/jsh/pkg/linker"
	"github.com/jovalle/jsh/pkg/logging"
	"github.com/jovalle/jsh/pkg/types"
)

// Options holds options for the doctor command
type Options struct {
	JshRoot    string
	FileSystem types.FS // Allow injecting a filesystem for testing
}

// Run executes all checks. The error return covers only setup failure;
// individual check failures are reported in the result.
func Run(opts Options) ([]types.DoctorCheck, error) {
	logger := logging.GetLogger("commands.doctor")

	rt, err := commands.Setup(opts.JshRoot, opts.FileSystem)
	if err != nil {
		return nil, err
	}

	var checks []types.DoctorCheck
	checks = append(checks, checkRepository(rt))
	checks = append(checks, checkRules(rt))
	checks = append(checks, checkDestinations(rt))
	checks = append(checks, checkDanglingSymlinks(rt))
	checks = append(checks, checkBackups(rt))

	failed := 0
	for _, c := range checks {
		if !c.OK {
			failed++
		}
	}
	logger.Info().Int("checks", len(checks)).Int("failed", failed).Msg("Doctor command completed")
	return checks, nil
}

func checkRepository(rt *commands.Runtime) types.DoctorCheck {
	root := rt.Paths.JshRoot()
	if _, err := rt.FS.Stat(root); err != nil {
		return types.DoctorCheck{Name: "repository", Detail: fmt.Sprintf("%s is not accessible", root)}
	}
	detail := root
	if rt.Paths.UsedFallback() {
		detail += " (cwd fallback, set JSH_DIR)"
	}
	return types.DoctorCheck{Name: "repository", OK: true, Detail: detail}
}

func checkRules(rt *commands.Runtime) types.DoctorCheck {
	if len(rt.Rules) == 0 {
		return types.DoctorCheck{Name: "rules", Detail: "no rules apply on this platform"}
	}
	return types.DoctorCheck{
		Name:   "rules",
		OK:     true,
		Detail: fmt.Sprintf("%d rule(s) for platform %s", len(rt.Rules), rt.Platform),
	}
}

// checkDestinations reuses the status classification: conflicts are
// destinations that exist but are not jsh's symlink.
func checkDestinations(rt *commands.Runtime) types.DoctorCheck {
	engine := linker.New(linker.Config{
		FS:       rt.FS,
		Paths:    rt.Paths,
		Store:    rt.Store,
		Platform: rt.Platform,
	})
	report := engine.Status(rt.Rules)

	var linked, conflicts, skipped, total int
	for _, res := range report.Results {
		if res.Outcome == types.OutcomeSkipped {
			skipped++
			continue
		}
		total++
		switch res.State {
		case types.StateLinked:
			linked++
		case types.StateExists, types.StateLinkedElsewhere:
			conflicts++
		}
	}

	detail := fmt.Sprintf("%d of %d destinations linked", linked, total)
	if conflicts > 0 {
		detail += fmt.Sprintf(", %d conflict(s)", conflicts)
	}
	if skipped > 0 {
		detail += fmt.Sprintf(", %d rule(s) skipped", skipped)
	}
	if conflicts > 0 || skipped > 0 {
		return types.DoctorCheck{Name: "destinations", Detail: detail}
	}
	return types.DoctorCheck{Name: "destinations", OK: true, Detail: detail}
}

// checkDanglingSymlinks sweeps the home directory's top level for
// symlinks that point into the repository but no longer resolve,
// typically left behind after a source file was deleted.
func checkDanglingSymlinks(rt *commands.Runtime) types.DoctorCheck {
	entries, err := rt.FS.ReadDir(rt.Paths.HomeDir())
	if err != nil {
		return types.DoctorCheck{Name: "dangling symlinks", Detail: fmt.Sprintf("cannot read home directory: %v", err)}
	}

	var dangling []string
	for _, e := range entries {
		path := filepath.Join(rt.Paths.HomeDir(), e.Name())
		info, err := rt.FS.Lstat(path)
		if err != nil || info.Mode()&fs.ModeSymlink == 0 {
			continue
		}
		target, err := rt.FS.Readlink(path)
		if err != nil {
			continue
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(path), target)
		}
		if !rt.Paths.Owns(target) {
			continue
		}
		if _, err := rt.FS.Stat(path); err != nil {
			dangling = append(dangling, e.Name())
		}
	}

	if len(dangling) > 0 {
		return types.DoctorCheck{
			Name:   "dangling symlinks",
			Detail: fmt.Sprintf("%d broken managed symlink(s): %v", len(dangling), dangling),
		}
	}
	return types.DoctorCheck{Name: "dangling symlinks", OK: true, Detail: "none"}
}

func checkBackups(rt *commands.Runtime) types.DoctorCheck {
	ids, err := rt.Store.List()
	if err != nil {
		return types.DoctorCheck{Name: "backups", Detail: fmt.Sprintf("cannot read backup root: %v", err)}
	}
	return types.DoctorCheck{
		Name:   "backups",
		OK:     true,
		Detail: fmt.Sprintf("%d snapshot(s) in %s", len(ids), rt.Store.Root()),
	}
}
