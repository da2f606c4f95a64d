package invites

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of the already-authenticated actor issuing
// invites. Authentication itself happens upstream; every operation receives
// the sender explicitly instead of reading ambient request state.
type Identity interface {
	ID() string
	Username() string
	Email() string
	Role() string
}

// TokenService issues and verifies the single-use credentials bound to an
// invite. Same invite + email always round-trips to the same payload.
type TokenService interface {
	IssueInviteToken(invite *Invite) (string, error)
	Validate(tokenString string) (*InviteClaims, error)
}

// InviteNotification carries everything the transport needs to deliver an
// invitation message.
type InviteNotification struct {
	InviteID string
	Email    string
	Sender   Identity
	Token    string
}

// Notifier delivers invitation notifications; failures propagate to the
// caller and never roll back the store write made in the same operation.
type Notifier interface {
	SendInvite(ctx context.Context, notification InviteNotification) error
}

// Config holds invite options
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
	GetInviteBaseURL() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] INVITES "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] INVITES "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] INVITES "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] INVITES "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
