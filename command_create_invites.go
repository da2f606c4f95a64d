package invites

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type CreateInvitesMessage struct {
	Emails     []string `json:"emails"`
	Sender     Identity
	OnResponse func(resp *CreateInvitesResponse)
}

func (e CreateInvitesMessage) Type() string { return "invite.create" }

type CreateInvitesResponse struct {
	Invites []*Invite
	Success bool
}

// CreateInvitesHandler processes a batch of emails: each distinct address is
// checked against the user registry, upserted as an invite, and notified.
// The loop is intentionally non-transactional across the batch: a conflict or
// delivery failure partway through leaves earlier emails already invited and
// notified (at-least-once). Callers needing whole-batch atomicity must
// pre-validate the emails before invoking this handler.
type CreateInvitesHandler struct {
	repo     RepositoryManager
	tokens   TokenService
	notifier Notifier
	activity ActivitySink
}

func (h *CreateInvitesHandler) Execute(ctx context.Context, event CreateInvitesMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during invite creation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CreateInvitesHandler) execute(ctx context.Context, event CreateInvitesMessage) error {
	resp := &CreateInvitesResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	emails := dedupeEmails(event.Emails)
	if len(emails) == 0 {
		return ErrNoEmails
	}

	for _, email := range emails {
		exists, err := h.repo.Users().ExistsByEmail(ctx, email)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing user")
		}
		if exists {
			return ErrEmailIsUser.WithMetadata(map[string]any{
				"email": email,
			})
		}

		var invite *Invite
		var revived bool
		err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			var err error
			invite, revived, err = h.repo.Invites().UpsertInvitedTx(ctx, tx, email)
			return err
		})
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to upsert invite")
		}

		if err := deliverInvite(ctx, h.tokens, h.notifier, invite, event.Sender); err != nil {
			return err
		}

		h.recordActivity(ctx, invite, revived, event.Sender)

		resp.Invites = append(resp.Invites, invite)
	}

	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func (h *CreateInvitesHandler) recordActivity(ctx context.Context, invite *Invite, revived bool, sender Identity) {
	eventType := ActivityEventInviteCreated
	from := LifecycleActive
	if revived {
		eventType = ActivityEventInviteRevived
		from = LifecycleRevoked
	}

	sink := normalizeActivitySink(h.activity)
	err := sink.Record(ctx, ActivityEvent{
		EventType:  eventType,
		Actor:      ActorFromIdentity(sender),
		InviteID:   invite.ID.String(),
		Email:      invite.Email,
		FromState:  from,
		ToState:    LifecycleActive,
		OccurredAt: time.Now(),
	})
	if err != nil {
		defLogger{}.Warn("create invites activity sink error: %v", err)
	}
}

// dedupeEmails collapses repeated addresses to one operation each, keeping
// first-seen order so the batch is deterministic per call.
func dedupeEmails(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))

	for _, email := range emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}

	return out
}
