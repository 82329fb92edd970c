package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/snapledger/snapledger/internal/common"
	"github.com/snapledger/snapledger/internal/model"
	"github.com/snapledger/snapledger/internal/session"
)

// View renders the review screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Receipt review"))
	b.WriteString("\n\n")

	switch m.snapshot.Phase {
	case session.PhaseScanning:
		b.WriteString(m.spinner.View())
		b.WriteString(" analyzing receipts...\n")
	case session.PhaseSaving:
		b.WriteString(m.spinner.View())
		b.WriteString(" saving...\n")
	default:
		m.renderList(&b)
	}

	if m.editor.active {
		b.WriteString("\n")
		b.WriteString(m.renderEditor())
	}

	if m.snapshot.Dialog != nil {
		b.WriteString("\n")
		b.WriteString(m.renderDialog())
	}

	status := "c commit · a accept all · e edit · d discard · r retry · q cancel"
	if m.lastErr != nil {
		status = m.styles.Failed.Render(statusText(m.lastErr))
	}
	b.WriteString(m.styles.StatusLine.Render(status))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderList(b *strings.Builder) {
	if len(m.snapshot.Receipts) == 0 {
		b.WriteString(m.styles.Dim.Render("no receipts in this batch"))
		b.WriteString("\n")
		return
	}

	for i, receipt := range m.snapshot.Receipts {
		line := fmt.Sprintf("%2d. %-12s %s", i+1, m.statusBadge(receipt), m.receiptSummary(receipt))
		if i == m.cursor {
			line = m.styles.Selected.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
}

func (m Model) statusBadge(receipt model.BatchReceipt) string {
	switch receipt.Status {
	case model.StatusReady:
		return m.styles.Ready.Render("READY")
	case model.StatusNeedsReview:
		return m.styles.NeedsWork.Render("NEEDS REVIEW")
	case model.StatusError:
		return m.styles.Failed.Render("ERROR")
	default:
		return string(receipt.Status)
	}
}

func (m Model) receiptSummary(receipt model.BatchReceipt) string {
	if receipt.Status == model.StatusError {
		return m.styles.Dim.Render(receipt.Error)
	}

	tx := receipt.Transaction
	merchant := tx.Merchant
	if merchant == "" {
		merchant = "(unknown merchant)"
	}
	return fmt.Sprintf("%-24s %s  %s  %.0f%%",
		merchant, tx.Date, model.FormatAmount(tx.Total, tx.Currency), receipt.Confidence*100)
}

// renderDialog type-switches the dialog union exhaustively; an unknown
// kind renders nothing rather than guessing.
func (m Model) renderDialog() string {
	switch d := m.snapshot.Dialog.(type) {
	case session.DiscardBatchDialog:
		return m.styles.DialogBox.Render(fmt.Sprintf(
			"Discard %d unsaved receipt(s)?\n\ny discard · n keep reviewing", d.ItemCount))
	case session.ErrorDialog:
		return m.styles.DialogBox.Render(fmt.Sprintf(
			"Something went wrong:\n%s\n\ny dismiss", d.Message))
	case session.CommitFailedDialog:
		return m.styles.DialogBox.Render(fmt.Sprintf(
			"Could not save receipt:\n%s\n\ny retry · n keep item", d.Message))
	default:
		return ""
	}
}

func (m Model) renderEditor() string {
	tx := m.editor.tx
	var items strings.Builder
	for _, item := range tx.Items {
		fmt.Fprintf(&items, "  %s × %d  %s\n", item.Name, item.Qty, model.FormatAmount(item.Price, tx.Currency))
	}

	return m.styles.DialogBox.Render(fmt.Sprintf(
		"Editing item %d\n\nMerchant: %s\nDate: %s\nTotal: %s\nCategory: %s\n%s\nenter save · esc back",
		m.editor.index+1, tx.Merchant, tx.Date, model.FormatAmount(tx.Total, tx.Currency), tx.Category, items.String()))
}

// userFacing translates known pipeline failures into errors carrying a
// message fit for the status line; anything else passes through.
func userFacing(err error) error {
	var persistErr *common.PersistError
	if errors.As(err, &persistErr) {
		return common.NewUserError("could not save receipt", err)
	}

	var capErr *common.CapacityError
	if errors.As(err, &capErr) {
		return common.NewUserError(
			fmt.Sprintf("only %d images fit in one batch", capErr.Limit), err)
	}

	return err
}

// statusText prefers the user-facing message when the error carries
// one; the wrapped detail stays available to the logs.
func statusText(err error) string {
	var userErr *common.UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}
	return err.Error()
}
