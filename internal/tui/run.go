package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/snapledger/snapledger/internal/session"
)

// Run drives the review screen until the session returns to idle or
// the user quits. Controller snapshots are forwarded into the program
// as messages; the model never holds live session state.
func Run(ctx context.Context, ctrl *session.Controller) error {
	program := tea.NewProgram(NewModel(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))

	ctrl.Subscribe(func(snapshot session.Snapshot) {
		program.Send(snapshotMsg(snapshot))
	})

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("review UI failed: %w", err)
	}
	return nil
}
