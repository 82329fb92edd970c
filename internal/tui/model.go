// Package tui renders the batch review screen for a scan session. It
// is a pure consumer of session snapshots: every state change flows
// through the controller, and the screen re-renders from the snapshot
// it is handed.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/snapledger/snapledger/internal/edit"
	"github.com/snapledger/snapledger/internal/model"
	"github.com/snapledger/snapledger/internal/session"
)

// snapshotMsg carries a fresh session snapshot into the update loop.
type snapshotMsg session.Snapshot

// actionErrMsg reports a failed controller action.
type actionErrMsg struct {
	err error
}

// editorContext is the editor-side state populated by the edit
// coordinator's command plan. It implements edit.Runner.
type editorContext struct {
	receiptID string
	mode      string
	tx        model.DraftTransaction
	index     int
	active    bool
}

// Run applies one editor command. The coordinator guarantees the
// editing index arrives before the transaction.
func (e *editorContext) Run(cmd edit.Command) error {
	switch c := cmd.(type) {
	case edit.SetEditingIndex:
		e.index = c.Index
	case edit.SetTransaction:
		e.tx = c.Transaction
	case edit.SetEditorMode:
		e.mode = c.Mode
	case edit.Navigate:
		e.active = c.Route == edit.EditorRoute
	default:
		return fmt.Errorf("unknown edit command %T", cmd)
	}
	return nil
}

// Model is the bubbletea model for the review screen.
type Model struct {
	ctx      context.Context
	ctrl     *session.Controller
	lastErr  error
	snapshot session.Snapshot
	editor   editorContext
	keymap   KeyMap
	styles   Styles
	spinner  spinner.Model
	cursor   int
	width    int
	quitting bool
}

// NewModel creates a review model over the given controller.
func NewModel(ctx context.Context, ctrl *session.Controller) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		snapshot: ctrl.Snapshot(),
		keymap:   DefaultKeyMap(),
		styles:   DefaultStyles(),
		spinner:  sp,
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.snapshot = session.Snapshot(msg)
		if m.cursor >= len(m.snapshot.Receipts) {
			m.cursor = len(m.snapshot.Receipts) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		if m.snapshot.Phase == session.PhaseIdle {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case actionErrMsg:
		m.lastErr = msg.err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Dialogs swallow all input until resolved.
	if m.snapshot.Dialog != nil {
		switch {
		case key.Matches(msg, m.keymap.Confirm):
			return m, m.action(func() error { return m.ctrl.ConfirmDialog(m.ctx) })
		case key.Matches(msg, m.keymap.Decline), key.Matches(msg, m.keymap.Quit):
			m.ctrl.DeclineDialog()
			return m, nil
		}
		return m, nil
	}

	if m.editor.active {
		return m.handleEditorKey(msg)
	}

	switch {
	case key.Matches(msg, m.keymap.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keymap.Down):
		if m.cursor < len(m.snapshot.Receipts)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keymap.Commit):
		if receipt, ok := m.selected(); ok {
			id := receipt.ID
			return m, m.action(func() error { return m.ctrl.CommitItem(m.ctx, id) })
		}

	case key.Matches(msg, m.keymap.Accept):
		return m, m.action(func() error { return m.ctrl.UserAccepts(m.ctx) })

	case key.Matches(msg, m.keymap.Edit):
		if receipt, ok := m.selected(); ok {
			m.editor = editorContext{receiptID: receipt.ID}
			if err := m.ctrl.EditItem(m.cursor+1, &m.editor); err != nil {
				m.lastErr = err
				m.editor = editorContext{}
			}
		}

	case key.Matches(msg, m.keymap.Discard):
		if receipt, ok := m.selected(); ok {
			id := receipt.ID
			return m, m.action(func() error { return m.ctrl.DiscardItem(id) })
		}

	case key.Matches(msg, m.keymap.Retry):
		if receipt, ok := m.selected(); ok {
			id := receipt.ID
			return m, m.action(func() error { return m.ctrl.RetryItem(m.ctx, id) })
		}

	case key.Matches(msg, m.keymap.Quit):
		return m, m.action(m.ctrl.Cancel)
	}

	return m, nil
}

func (m Model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		id := m.editor.receiptID
		tx := m.editor.tx
		m.editor = editorContext{}
		return m, m.action(func() error { return m.ctrl.UpdateItem(id, tx) })
	case "esc", "q":
		m.editor = editorContext{}
	}
	return m, nil
}

// selected re-resolves the cursor against the current snapshot. The
// receipt under the cursor can change between renders, so the id is
// read at action time, never stored.
func (m Model) selected() (model.BatchReceipt, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snapshot.Receipts) {
		return model.BatchReceipt{}, false
	}
	return m.snapshot.Receipts[m.cursor], true
}

// action wraps a controller call in a command, routing failures to the
// status line.
func (m Model) action(fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return actionErrMsg{err: userFacing(err)}
		}
		return nil
	}
}
