// Package edit translates "edit this batch item" intents into an
// ordered list of editor commands executed by an effect runner, so the
// core stays testable without a UI harness.
package edit

import (
	"fmt"

	"github.com/snapledger/snapledger/internal/model"
)

// EditorRoute is the navigation target for the transaction editor view.
const EditorRoute = "transaction-editor"

// ModeExisting marks the editor as editing an existing batch item
// rather than creating a new transaction.
const ModeExisting = "existing"

// Command is one editor side effect. Exactly one variant per effect
// kind; the runner type-switches exhaustively.
type Command interface {
	editCommand()
}

// SetEditingIndex sets the editor's batch-position context. It must run
// before SetTransaction so the editor can resolve which batch item a
// save writes back to, even if further edits land before the
// transaction field is read.
type SetEditingIndex struct {
	Index int // 0-based
}

// SetTransaction hands the editor the transaction to edit, with the
// receipt's thumbnail reference already attached when one exists.
type SetTransaction struct {
	Transaction model.DraftTransaction
}

// SetEditorMode tells the editor whether it is editing or creating.
type SetEditorMode struct {
	Mode string
}

// Navigate instructs the shell to show the named view.
type Navigate struct {
	Route string
}

func (SetEditingIndex) editCommand() {}
func (SetTransaction) editCommand() {}
func (SetEditorMode) editCommand() {}
func (Navigate) editCommand() {}

// Runner executes editor commands in order. The presentation layer
// provides the real one; tests record.
type Runner interface {
	Run(cmd Command) error
}

// Plan is an ordered command list for one edit intent.
type Plan struct {
	ReceiptID string
	Commands  []Command
}

// Edit builds the command plan for editing the given receipt shown at
// the given 1-based UI position. The ordinal converts to the editor's
// 0-based positional context; the receipt's id-based identity is
// untouched by that conversion.
func Edit(receipt model.BatchReceipt, uiOrdinal int) (Plan, error) {
	if uiOrdinal < 1 {
		return Plan{}, fmt.Errorf("ui ordinal must be 1-based, got %d", uiOrdinal)
	}

	tx := receipt.Transaction
	if receipt.ImageRef != "" {
		tx.ImageRef = receipt.ImageRef
	}

	return Plan{
		ReceiptID: receipt.ID,
		Commands: []Command{
			SetEditingIndex{Index: uiOrdinal - 1},
			SetTransaction{Transaction: tx},
			SetEditorMode{Mode: ModeExisting},
			Navigate{Route: EditorRoute},
		},
	}, nil
}

// Run feeds the plan's commands to the runner in order, stopping at the
// first failure.
func Run(runner Runner, plan Plan) error {
	for _, cmd := range plan.Commands {
		if err := runner.Run(cmd); err != nil {
			return fmt.Errorf("edit command failed: %w", err)
		}
	}
	return nil
}
