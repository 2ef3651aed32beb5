package rsvp

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid rsvp transition")
	ErrCreatorPinned     = errors.New("session creator must stay accepted")
	ErrUnknownAction     = errors.New("unknown rsvp action")
)

// Action is a participant-initiated change.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionCancel  Action = "cancel"
	ActionDecline Action = "decline"
	ActionInvite  Action = "invite"
)

// Transition applies action to the current status.
//
//	unset  -> maybe (invite) | accepted (accept) | no (decline)
//	maybe  -> accepted (accept) | no (decline|cancel)
//	accepted -> maybe (cancel) | no (decline)
//	no     -> maybe (invite) | accepted (accept)
//
// The creator row is pinned to accepted.
func Transition(current Status, action Action, isCreator bool) (Status, error) {
	if isCreator {
		switch action {
		case ActionAccept:
			return StatusAccepted, nil
		case ActionCancel, ActionDecline, ActionInvite:
			return current, ErrCreatorPinned
		default:
			return current, fmt.Errorf("%w: %s", ErrUnknownAction, action)
		}
	}

	switch action {
	case ActionAccept:
		if current == StatusAccepted {
			return current, fmt.Errorf("%w: already accepted", ErrInvalidTransition)
		}
		return StatusAccepted, nil
	case ActionDecline:
		if current == StatusNo {
			return current, fmt.Errorf("%w: already declined", ErrInvalidTransition)
		}
		return StatusNo, nil
	case ActionCancel:
		switch current {
		case StatusAccepted:
			return StatusMaybe, nil
		case StatusMaybe:
			return StatusNo, nil
		default:
			return current, fmt.Errorf("%w: nothing to cancel from %q", ErrInvalidTransition, current)
		}
	case ActionInvite:
		switch current {
		case StatusUnset, StatusNo:
			return StatusMaybe, nil
		default:
			return current, fmt.Errorf("%w: cannot invite from %q", ErrInvalidTransition, current)
		}
	default:
		return current, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
}

// TriggersReplacement reports whether a decline leaves a full session one short.
// Cancelling back to maybe does not.
func TriggersReplacement(previous, next Status, acceptedBefore int) bool {
	return previous == StatusAccepted && next == StatusNo && acceptedBefore == 4
}

// CountAccepted counts accepted rows.
func CountAccepted(items []Rsvp) int {
	n := 0
	for _, item := range items {
		if item.Status == StatusAccepted {
			n++
		}
	}
	return n
}
