package invites

import (
	"context"
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// deliverInvite mints a fresh token for the invite and hands it to the
// notifier. Delivery failures propagate; the store write that preceded the
// send stays in place.
func deliverInvite(ctx context.Context, tokens TokenService, notifier Notifier, invite *Invite, sender Identity) error {
	token, err := tokens.IssueInviteToken(invite)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue invite token")
	}

	err = notifier.SendInvite(ctx, InviteNotification{
		InviteID: invite.ID.String(),
		Email:    invite.Email,
		Sender:   sender,
		Token:    token,
	})
	if err != nil {
		return goerrors.Wrap(err, ErrDeliveryFailed.Category, ErrDeliveryFailed.Message).
			WithTextCode(ErrDeliveryFailed.TextCode).
			WithCode(http.StatusBadGateway)
	}

	return nil
}

type logNotifier struct {
	logger Logger
}

// NewLogNotifier returns a Notifier that prints the notification instead of
// delivering it. Default for local development and tests.
func NewLogNotifier(logger Logger) Notifier {
	if logger == nil {
		logger = defLogger{}
	}
	return &logNotifier{logger: logger}
}

func (n *logNotifier) SendInvite(_ context.Context, notification InviteNotification) error {
	sender := "system"
	if notification.Sender != nil {
		sender = notification.Sender.Email()
	}

	n.logger.Info("====== SENDING INVITE NOTIFICATION =======")
	n.logger.Info(fmt.Sprintf("to: %s", notification.Email))
	n.logger.Info(fmt.Sprintf("from: %s", sender))
	n.logger.Info(fmt.Sprintf("link: /invites/accept?token=%s", notification.Token))

	return nil
}
