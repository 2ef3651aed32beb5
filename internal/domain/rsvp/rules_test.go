package rsvp

import (
	"errors"
	"testing"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name      string
		current   Status
		action    Action
		creator   bool
		want      Status
		targetErr error
	}{
		{name: "unset accept", current: StatusUnset, action: ActionAccept, want: StatusAccepted},
		{name: "unset invite", current: StatusUnset, action: ActionInvite, want: StatusMaybe},
		{name: "maybe accept", current: StatusMaybe, action: ActionAccept, want: StatusAccepted},
		{name: "maybe decline", current: StatusMaybe, action: ActionDecline, want: StatusNo},
		{name: "accepted decline", current: StatusAccepted, action: ActionDecline, want: StatusNo},
		{name: "accepted cancel", current: StatusAccepted, action: ActionCancel, want: StatusMaybe},
		{name: "no reinvite", current: StatusNo, action: ActionInvite, want: StatusMaybe},
		{name: "no accept", current: StatusNo, action: ActionAccept, want: StatusAccepted},
		{name: "double accept", current: StatusAccepted, action: ActionAccept, want: StatusAccepted, targetErr: ErrInvalidTransition},
		{name: "cancel unset", current: StatusUnset, action: ActionCancel, want: StatusUnset, targetErr: ErrInvalidTransition},
		{name: "invite accepted", current: StatusAccepted, action: ActionInvite, want: StatusAccepted, targetErr: ErrInvalidTransition},
		{name: "creator decline", current: StatusAccepted, action: ActionDecline, creator: true, want: StatusAccepted, targetErr: ErrCreatorPinned},
		{name: "creator cancel", current: StatusAccepted, action: ActionCancel, creator: true, want: StatusAccepted, targetErr: ErrCreatorPinned},
		{name: "unknown", current: StatusMaybe, action: Action("wave"), want: StatusMaybe, targetErr: ErrUnknownAction},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Transition(tc.current, tc.action, tc.creator)
			if tc.targetErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.targetErr != nil && !errors.Is(err, tc.targetErr) {
				t.Fatalf("expected %v, got %v", tc.targetErr, err)
			}
			if got != tc.want {
				t.Fatalf("status=%q want %q", got, tc.want)
			}
		})
	}
}

func TestTriggersReplacement(t *testing.T) {
	if !TriggersReplacement(StatusAccepted, StatusNo, 4) {
		t.Fatalf("decline from accepted on a full session should trigger replacement")
	}
	if TriggersReplacement(StatusMaybe, StatusNo, 4) {
		t.Fatalf("decline from maybe should not trigger replacement")
	}
	if TriggersReplacement(StatusAccepted, StatusNo, 5) {
		t.Fatalf("decline on an over-full session should not trigger replacement")
	}
	if TriggersReplacement(StatusAccepted, StatusMaybe, 4) {
		t.Fatalf("cancel back to maybe should not trigger replacement")
	}
}
