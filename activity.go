package invites

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventInviteCreated ActivityEventType = "invite.created"
	ActivityEventInviteRevived ActivityEventType = "invite.revived"
	ActivityEventInviteResent  ActivityEventType = "invite.resent"
	ActivityEventInviteRevoked ActivityEventType = "invite.revoked"
)

// ActivityEvent captures audit-friendly information about an invite action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      ActorRef
	InviteID   string
	Email      string
	FromState  LifecycleState
	ToState    LifecycleState
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
