package invites

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type ResendInviteMessage struct {
	InviteID   uuid.UUID `json:"invite_id"`
	Sender     Identity
	OnResponse func(resp *ResendInviteResponse)
}

func (e ResendInviteMessage) Type() string { return "invite.resend" }

type ResendInviteResponse struct {
	Invite  *Invite
	Success bool
}

// ResendInviteHandler issues a fresh token for an existing invite and
// requests delivery again. The invite record itself is not mutated.
type ResendInviteHandler struct {
	repo     RepositoryManager
	tokens   TokenService
	notifier Notifier
	activity ActivitySink
}

func (h *ResendInviteHandler) Execute(ctx context.Context, event ResendInviteMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during invite resend",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendInviteHandler) execute(ctx context.Context, event ResendInviteMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	invite, err := resolveInvite(ctx, h.repo.Invites(), event.InviteID)
	if err != nil {
		return err
	}

	if err := deliverInvite(ctx, h.tokens, h.notifier, invite, event.Sender); err != nil {
		return err
	}

	sink := normalizeActivitySink(h.activity)
	if err := sink.Record(ctx, ActivityEvent{
		EventType:  ActivityEventInviteResent,
		Actor:      ActorFromIdentity(event.Sender),
		InviteID:   invite.ID.String(),
		Email:      invite.Email,
		FromState:  LifecycleActive,
		ToState:    LifecycleActive,
		OccurredAt: time.Now(),
	}); err != nil {
		defLogger{}.Warn("resend invite activity sink error: %v", err)
	}

	if event.OnResponse != nil {
		event.OnResponse(&ResendInviteResponse{
			Invite:  invite,
			Success: true,
		})
	}

	return nil
}
