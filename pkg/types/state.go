package types

// LinkState classifies one destination path at inspection time. It is
// derived fresh on every look; never cached, since the destination may
// be changed by other processes between runs.
type LinkState string

const (
	// StateLinked means the destination is a symlink to the expected source.
	StateLinked LinkState = "linked"

	// StateLinkedElsewhere means the destination is a symlink to a
	// different target.
	StateLinkedElsewhere LinkState = "linked-elsewhere"

	// StateExists means the destination is a real file or directory,
	// not a symlink.
	StateExists LinkState = "exists"

	// StateAbsent means nothing exists at the destination.
	StateAbsent LinkState = "absent"
)

// Glyph returns the one-character status marker used in display output.
func (s LinkState) Glyph() string {
	switch s {
	case StateLinked:
		return "✓"
	case StateLinkedElsewhere, StateExists:
		return "~"
	default:
		return "-"
	}
}
