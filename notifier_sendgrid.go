package invites

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	goerrors "github.com/goliatone/go-errors"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const inviteEmailTemplate = `
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: white; border-radius: 12px; padding: 32px;">
		<h2 style="margin-top: 0;">You're invited!</h2>
		<p><strong>{{.SenderName}}</strong> invited you to join <strong>{{.AppName}}</strong>.</p>
		<div style="margin: 24px 0;">
			<a href="{{.AcceptURL}}" style="background: #2563eb; color: white; padding: 12px 32px; border-radius: 8px; text-decoration: none; font-weight: bold;">Accept Invite</a>
		</div>
		<p style="color: #999; font-size: 12px; margin-top: 24px;">If you weren't expecting this invitation you can ignore this email.</p>
	</div>
</body>
</html>`

// SendGridConfig configures the SendGrid-backed notifier.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	AppName   string
	// AcceptBaseURL is the page that consumes the invite token, e.g.
	// "https://app.example.com/invites/accept". The token rides in the query.
	AcceptBaseURL string
}

type sendGridNotifier struct {
	config   SendGridConfig
	client   *sendgrid.Client
	template *template.Template
	logger   Logger
}

// NewSendGridNotifier returns a Notifier that delivers invite emails through
// SendGrid.
func NewSendGridNotifier(config SendGridConfig, logger Logger) (Notifier, error) {
	if config.APIKey == "" {
		return nil, goerrors.New("sendgrid api key is required", goerrors.CategoryBadInput)
	}
	if config.FromEmail == "" {
		return nil, goerrors.New("sendgrid from email is required", goerrors.CategoryBadInput)
	}
	if logger == nil {
		logger = defLogger{}
	}

	tmpl, err := template.New("invite").Parse(inviteEmailTemplate)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to parse invite email template")
	}

	return &sendGridNotifier{
		config:   config,
		client:   sendgrid.NewSendClient(config.APIKey),
		template: tmpl,
		logger:   logger,
	}, nil
}

func (n *sendGridNotifier) SendInvite(ctx context.Context, notification InviteNotification) error {
	senderName := n.config.AppName
	if notification.Sender != nil && notification.Sender.Username() != "" {
		senderName = notification.Sender.Username()
	}

	var body bytes.Buffer
	err := n.template.Execute(&body, map[string]any{
		"SenderName": senderName,
		"AppName":    n.config.AppName,
		"AcceptURL":  fmt.Sprintf("%s?token=%s", n.config.AcceptBaseURL, notification.Token),
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render invite email")
	}

	subject := fmt.Sprintf("%s invited you to join %s", senderName, n.config.AppName)
	from := mail.NewEmail(n.config.FromName, n.config.FromEmail)
	to := mail.NewEmail("", notification.Email)
	message := mail.NewSingleEmail(from, subject, to, "", body.String())

	resp, err := n.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		n.logger.Error("sendgrid returned status %d for invite %s", resp.StatusCode, notification.InviteID)
		return goerrors.New("invite email was not accepted by sendgrid", goerrors.CategoryOperation).
			WithMetadata(map[string]any{
				"status_code": resp.StatusCode,
				"invite_id":   notification.InviteID,
			})
	}

	n.logger.Debug("invite email sent", "to", notification.Email, "invite_id", notification.InviteID)

	return nil
}
