package session

import "fmt"

// IllegalTransitionError reports an event that is not legal in the
// session's current phase. It indicates a broken caller contract, not
// a recoverable user condition: in strict mode the controller panics
// instead of returning it.
type IllegalTransitionError struct {
	Event string
	From  Phase
	Mode  Mode
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition: event %q in phase %s (mode %s)", e.Event, e.From, e.Mode)
}
