// Package output renders engine reports for the terminal. Styling is
// applied only when writing to a TTY; piped output stays plain so it
// can be grepped.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/jovalle/jsh/pkg/linker"
	"github.com/jovalle/jsh/pkg/output/styles"
	"github.com/jovalle/jsh/pkg/types"
)

// Renderer writes human-readable reports to out.
type Renderer struct {
	out   io.Writer
	home  string
	plain bool
}

// NewRenderer creates a renderer that styles output when out is a
// terminal and NO_COLOR is unset.
func NewRenderer(out io.Writer, home string) *Renderer {
	plain := true
	if f, ok := out.(*os.File); ok {
		if isatty.IsTerminal(f.Fd()) && os.Getenv("NO_COLOR") == "" {
			plain = false
		}
	}
	return &Renderer{out: out, home: home, plain: plain}
}

// NewPlainRenderer creates a renderer that never styles. Used in tests
// and for machine-friendly output.
func NewPlainRenderer(out io.Writer, home string) *Renderer {
	return &Renderer{out: out, home: home, plain: true}
}

func (r *Renderer) style(name, text string) string {
	if r.plain {
		return text
	}
	return styles.GetStyle(name).Render(text)
}

// contract shortens paths under the home directory to ~/...
func (r *Renderer) contract(path string) string {
	if r.home != "" && strings.HasPrefix(path, r.home+string(os.PathSeparator)) {
		return "~" + path[len(r.home):]
	}
	return path
}

func (r *Renderer) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

// RenderStatus prints one row per destination with its state glyph.
func (r *Renderer) RenderStatus(report *linker.Report) {
	counts := map[types.LinkState]int{}

	for _, res := range report.Results {
		if res.Outcome == types.OutcomeSkipped {
			r.printf("  %s %s: %s\n", r.style("Warning", "!"), res.Rule.Source, res.Warning)
			continue
		}
		counts[res.State]++
		glyph := r.style(glyphStyle(res.State), res.State.Glyph())
		r.printf("  %s %s %s %s\n",
			glyph,
			r.contract(res.Target),
			r.style("Muted", "->"),
			r.style("Path", r.contract(res.Source)))
	}

	r.printf("%s\n", r.style("Summary", fmt.Sprintf(
		"%d linked, %d linked elsewhere, %d existing, %d absent",
		counts[types.StateLinked],
		counts[types.StateLinkedElsewhere],
		counts[types.StateExists],
		counts[types.StateAbsent])))
}

func glyphStyle(state types.LinkState) string {
	switch state {
	case types.StateLinked:
		return "Success"
	case types.StateLinkedElsewhere, types.StateExists:
		return "Warning"
	default:
		return "Muted"
	}
}

// RenderLink prints the outcome of a link run followed by the summary
// line and, when collisions were backed up, the snapshot location.
func (r *Renderer) RenderLink(report *linker.Report) {
	r.renderOutcomes(report)

	s := report.Summary
	r.printf("%s\n", r.style("Summary", fmt.Sprintf(
		"%d linked, %d already linked, %d skipped, %d failed",
		s.Linked, s.Already, s.Skipped, s.Failed)))

	if report.SnapshotDir != "" {
		r.printf("%s\n", r.style("Muted", fmt.Sprintf(
			"originals backed up to %s", r.contract(report.SnapshotDir))))
	}
}

// RenderUnlink prints the outcome of an unlink run and its summary.
func (r *Renderer) RenderUnlink(report *linker.Report) {
	r.renderOutcomes(report)

	s := report.Summary
	r.printf("%s\n", r.style("Summary", fmt.Sprintf(
		"%d unlinked, %d already absent, %d skipped, %d failed",
		s.Unlinked, s.Already, s.Skipped, s.Failed)))
}

func (r *Renderer) renderOutcomes(report *linker.Report) {
	for _, res := range report.Results {
		target := res.Target
		if target == "" {
			target = res.Rule.Source
		}
		switch res.Outcome {
		case types.OutcomeLinked:
			r.printf("  %s %s\n", r.style("Success", "✓"), r.contract(target))
		case types.OutcomeBackedUp:
			r.printf("  %s %s %s\n", r.style("Success", "✓"), r.contract(target),
				r.style("Muted", fmt.Sprintf("(original moved to %s)", r.contract(res.Backup))))
		case types.OutcomeUnlinked:
			r.printf("  %s %s\n", r.style("Success", "✓"), r.contract(target))
		case types.OutcomeAlready:
			r.printf("  %s %s\n", r.style("Muted", "-"), r.contract(target))
		case types.OutcomeSkipped:
			r.printf("  %s %s: %s\n", r.style("Warning", "!"), r.contract(target), res.Warning)
		case types.OutcomeFailed:
			r.printf("  %s %s: %s\n", r.style("Error", "✗"), r.contract(target), res.Warning)
		}
	}
}

// RenderRestore prints per-entry restore outcomes and the final tally.
func (r *Renderer) RenderRestore(id string, results []types.RestoreResult) {
	r.printf("%s\n", r.style("Header", fmt.Sprintf("restoring snapshot %s", id)))

	var restored, skipped, failed int
	for _, res := range results {
		switch res.Outcome {
		case types.RestoreRestored:
			restored++
			r.printf("  %s %s\n", r.style("Success", "✓"), r.contract(res.Target))
		case types.RestoreSkipped:
			skipped++
			r.printf("  %s %s: %s\n", r.style("Warning", "!"), r.contract(res.Target), res.Warning)
		case types.RestoreFailed:
			failed++
			r.printf("  %s %s: %s\n", r.style("Error", "✗"), r.contract(res.Target), res.Warning)
		}
	}

	r.printf("%s\n", r.style("Summary", fmt.Sprintf(
		"%d restored, %d skipped, %d failed", restored, skipped, failed)))
}

// RenderSnapshots lists snapshot ids, newest first.
func (r *Renderer) RenderSnapshots(ids []string) {
	if len(ids) == 0 {
		r.printf("%s\n", r.style("Muted", "no backup snapshots exist"))
		return
	}
	for i, id := range ids {
		marker := " "
		if i == 0 {
			marker = r.style("Success", "*")
		}
		r.printf("%s %s\n", marker, id)
	}
}

// RenderAdopt prints the files moved into the repository.
func (r *Renderer) RenderAdopt(files []types.AdoptedFile) {
	for _, f := range files {
		r.printf("  %s %s %s %s\n",
			r.style("Success", "✓"),
			r.contract(f.OriginalPath),
			r.style("Muted", "->"),
			r.style("Path", r.contract(f.NewPath)))
	}
	r.printf("%s\n", r.style("Summary", fmt.Sprintf("%d adopted", len(files))))
}

// RenderDoctor prints one row per health check.
func (r *Renderer) RenderDoctor(checks []types.DoctorCheck) {
	failed := 0
	for _, c := range checks {
		if c.OK {
			r.printf("  %s %s: %s\n", r.style("Success", "✓"), c.Name, c.Detail)
		} else {
			failed++
			r.printf("  %s %s: %s\n", r.style("Error", "✗"), c.Name, c.Detail)
		}
	}
	if failed == 0 {
		r.printf("%s\n", r.style("Summary", "all checks passed"))
	} else {
		r.printf("%s\n", r.style("Summary", fmt.Sprintf("%d check(s) failed", failed)))
	}
}
