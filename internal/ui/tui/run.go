package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/determined-ai/pedl-deploy/internal/deployment"
)

// Work is the operation shown by Run. It must honor ctx and report phase
// transitions through report.
type Work func(ctx context.Context, report deployment.Reporter) error

// Run shows m while work runs in the background. Quitting the view cancels
// the context passed to work; Run returns once work has returned.
func Run(ctx context.Context, m Model, work Work, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(m, opts...)

	workErr := make(chan error, 1)
	go func() {
		err := work(ctx, func(pr deployment.Progress) {
			p.Send(PhaseMsg{
				Phase:   string(pr.Phase),
				Done:    pr.Done,
				Skipped: pr.Skipped,
				Err:     pr.Err,
			})
		})
		if err != nil {
			p.Send(ErrMsg{Err: err})
		} else {
			p.Send(DoneMsg{})
		}
		workErr <- err
	}()

	finalModel, runErr := p.Run()
	cancel()
	err := <-workErr

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", runErr)
	}

	fm, ok := finalModel.(Model)
	if ok && errors.Is(fm.Err, ErrInterrupted) {
		return ErrInterrupted
	}
	if err != nil {
		return err
	}
	if ok && fm.Err != nil {
		return fm.Err
	}
	return nil
}
