// Package session implements the scan-session state machine that
// drives receipt capture, analysis, review, and persistence.
package session

// Phase is the lifecycle state of a scan session.
type Phase string

// Session phases.
const (
	PhaseIdle      Phase = "IDLE"
	PhaseCapturing Phase = "CAPTURING"
	PhaseScanning  Phase = "SCANNING"
	PhaseReviewing Phase = "REVIEWING"
	PhaseSaving    Phase = "SAVING"
	PhaseError     Phase = "ERROR"
)

// Mode selects how captured images flow through the session. Modes are
// orthogonal to phases.
type Mode string

// Session modes. Statement is a reserved placeholder: it may enter
// Capturing and cancel, nothing else.
const (
	ModeSingle    Mode = "SINGLE"
	ModeBatch     Mode = "BATCH"
	ModeStatement Mode = "STATEMENT"
)
