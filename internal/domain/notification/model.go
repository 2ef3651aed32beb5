package notification

import "context"

// Kind names a notification hook.
type Kind string

const (
	// KindSessionParticipants tells the invited players about their new session.
	KindSessionParticipants Kind = "session.participants"
	// KindSessionGroup announces the session to the rest of the group.
	KindSessionGroup Kind = "session.group"
)

// Job is a fire-and-forget notification request.
type Job struct {
	Kind         Kind           `json:"kind"`
	SessionID    string         `json:"session_id"`
	GroupID      string         `json:"group_id"`
	RecipientIDs []string       `json:"recipient_ids"`
	Payload      map[string]any `json:"payload,omitempty"`
}

// DedupKey identifies the job for idempotent delivery.
func (j Job) DedupKey() string {
	return string(j.Kind) + ":" + j.SessionID
}

// Publisher enqueues jobs for the delivery worker.
type Publisher interface {
	Enqueue(ctx context.Context, job Job) error
}
