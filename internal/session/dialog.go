package session

// Dialog is the session's active modal descriptor. At most one dialog
// exists at a time; setting a new one replaces any prior dialog. The
// presentation layer type-switches on the concrete variant and renders
// only the kinds it knows.
type Dialog interface {
	dialogKind() string
}

// DiscardBatchDialog asks the user to confirm throwing away analyzed
// but unsaved batch items.
type DiscardBatchDialog struct {
	ItemCount int
}

// ErrorDialog surfaces a session-fatal failure awaiting acknowledgment.
type ErrorDialog struct {
	Message string
}

// CommitFailedDialog reports a per-item persistence failure and offers
// a retry.
type CommitFailedDialog struct {
	ReceiptID string
	Message   string
}

func (DiscardBatchDialog) dialogKind() string { return "discard-batch" }
func (ErrorDialog) dialogKind() string { return "error" }
func (CommitFailedDialog) dialogKind() string { return "commit-failed" }

// dialogAllowed reports whether a dialog kind may be shown in a phase.
// The controller never emits a dialog outside its valid phase set.
func dialogAllowed(d Dialog, phase Phase) bool {
	switch d.(type) {
	case DiscardBatchDialog:
		return phase == PhaseReviewing || phase == PhaseSaving
	case ErrorDialog:
		return phase == PhaseError
	case CommitFailedDialog:
		return phase == PhaseReviewing || phase == PhaseSaving
	default:
		return false
	}
}
