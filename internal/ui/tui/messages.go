// Package tui provides a Bubble Tea progress view for deploy and delete runs
// and the styled rendering of connection instructions.
package tui

// PhaseMsg reports a phase transition.
type PhaseMsg struct {
	Phase   string
	Done    bool
	Skipped bool
	Err     error
}

// ErrMsg carries an error.
type ErrMsg struct{ Err error }

// DoneMsg signals that the operation is complete.
type DoneMsg struct{}
