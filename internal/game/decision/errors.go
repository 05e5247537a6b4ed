package decision

import (
	"errors"
	"fmt"
)

var (
	// ErrRequestInFlight is returned when a request is started while another is outstanding.
	ErrRequestInFlight = errors.New("decision request already in flight")
	// ErrInvalidRequest is returned for malformed decision requests.
	ErrInvalidRequest = errors.New("invalid decision request")
	// ErrNoRequest is returned when no request is outstanding.
	ErrNoRequest = errors.New("no decision request outstanding")
	// ErrStaleRequest is returned for events addressed to a finished request.
	ErrStaleRequest = errors.New("stale decision request")
	// ErrProtocol covers malformed events.
	ErrProtocol = errors.New("protocol error")
	// ErrIllegalSelection covers items outside the published sets.
	ErrIllegalSelection = errors.New("illegal selection")
	// ErrSkillUnavailable covers clicks on skills the player cannot use now.
	ErrSkillUnavailable = errors.New("skill unavailable")
	// ErrNotCancelable is returned when cancel is not allowed.
	ErrNotCancelable = errors.New("decision cannot be canceled")
	// ErrNotReady is returned when confirm is pressed on an incomplete selection.
	ErrNotReady = errors.New("selection is not complete")
)

// RejectError describes a rejected client event. The session state is
// unchanged when it is returned.
type RejectError struct {
	Event  EventKind
	Reason string
	Err    error
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("%s rejected: %s: %v", e.Event, e.Reason, e.Err)
}

// Unwrap returns the error category.
func (e *RejectError) Unwrap() error {
	return e.Err
}

func reject(kind EventKind, err error, format string, args ...any) *RejectError {
	return &RejectError{Event: kind, Reason: fmt.Sprintf(format, args...), Err: err}
}
