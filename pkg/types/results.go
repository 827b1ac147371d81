package types

// LinkOutcome describes what happened to one destination during a
// link or unlink run.
type LinkOutcome string

const (
	OutcomeLinked   LinkOutcome = "linked"
	OutcomeAlready  LinkOutcome = "already"
	OutcomeUnlinked LinkOutcome = "unlinked"
	OutcomeBackedUp LinkOutcome = "backed-up"
	OutcomeSkipped  LinkOutcome = "skipped"
	OutcomeFailed   LinkOutcome = "failed"
)

// LinkResult is the per-destination record produced by the link engine.
type LinkResult struct {
	Rule    LinkRule
	Source  string // absolute source path
	Target  string // absolute destination path
	State   LinkState
	Outcome LinkOutcome
	Backup  string // backup path, set when the original was displaced
	Warning string // set for skipped/failed outcomes
}

// Summary tallies one engine run. It is always reported, even when
// individual rules failed.
type Summary struct {
	Linked   int
	Already  int
	Unlinked int
	Skipped  int
	Failed   int
}

// Add folds one result into the tally.
func (s *Summary) Add(r LinkResult) {
	switch r.Outcome {
	case OutcomeLinked, OutcomeBackedUp:
		s.Linked++
	case OutcomeAlready:
		s.Already++
	case OutcomeUnlinked:
		s.Unlinked++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
}

// RestoreOutcome classifies one snapshot entry during restore.
type RestoreOutcome string

const (
	RestoreRestored RestoreOutcome = "restored"
	RestoreSkipped  RestoreOutcome = "skipped"
	RestoreFailed   RestoreOutcome = "failed"
)

// RestoreResult is the per-entry record produced by a restore run.
type RestoreResult struct {
	Entry   string // path relative to home
	Target  string // absolute destination path
	Outcome RestoreOutcome
	Warning string
}

// AdoptedFile records one path moved into the repository by adopt.
type AdoptedFile struct {
	OriginalPath string
	NewPath      string
	SymlinkPath  string
}

// DoctorCheck is one environment health check result.
type DoctorCheck struct {
	Name   string
	OK     bool
	Detail string
}
