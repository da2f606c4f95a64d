package invites

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type RevokeInviteMessage struct {
	InviteID   uuid.UUID `json:"invite_id"`
	Sender     Identity
	OnResponse func(resp *RevokeInviteResponse)
}

func (e RevokeInviteMessage) Type() string { return "invite.revoke" }

type RevokeInviteResponse struct {
	Invite  *Invite
	Success bool
}

// RevokeInviteHandler soft deletes an invite. Revoking an already revoked
// invite fails the resolve guard with Gone; that signal is deliberate, not an
// error to suppress.
type RevokeInviteHandler struct {
	repo         RepositoryManager
	activity     ActivitySink
	stateMachine InviteStateMachine
}

func (h *RevokeInviteHandler) Execute(ctx context.Context, event RevokeInviteMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during invite revocation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RevokeInviteHandler) execute(ctx context.Context, event RevokeInviteMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	invite, err := resolveInvite(ctx, h.repo.Invites(), event.InviteID)
	if err != nil {
		return err
	}

	invite, err = h.lifecycleMachine().Transition(ctx, ActorFromIdentity(event.Sender), invite, LifecycleRevoked)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to revoke invite")
	}

	if event.OnResponse != nil {
		event.OnResponse(&RevokeInviteResponse{
			Invite:  invite,
			Success: true,
		})
	}

	return nil
}

func (h *RevokeInviteHandler) lifecycleMachine() InviteStateMachine {
	if h.stateMachine == nil {
		h.stateMachine = NewInviteStateMachine(
			h.repo.Invites(),
			WithStateMachineActivitySink(h.activity),
		)
	}
	return h.stateMachine
}
