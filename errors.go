package invites

import (
	"net/http"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInviteNotFound = "invite_not_found"
	TextCodeInviteGone     = "invite_gone"
	TextCodeEmailIsUser    = "invite_email_is_user"
	TextCodeNoEmails       = "invite_no_emails"
	TextCodeDeliveryFailed = "invite_delivery_failed"
)

// ErrInviteNotFound is returned when the referenced invite id does not exist.
var ErrInviteNotFound = errors.New("invite not found", errors.CategoryNotFound).
	WithTextCode(TextCodeInviteNotFound).
	WithCode(errors.CodeNotFound)

// ErrInviteGone is returned when the invite exists but was revoked. Addressing
// a revoked invite is a deliberate "already gone" signal, distinct from not
// found, and repeated revokes surface it rather than a silent no-op.
var ErrInviteGone = errors.New("invite is gone", errors.CategoryConflict).
	WithTextCode(TextCodeInviteGone).
	WithCode(http.StatusGone)

// ErrEmailIsUser is returned when the invited email already belongs to a
// registered account; the offending email rides in the error metadata.
var ErrEmailIsUser = errors.New("email is already a user", errors.CategoryConflict).
	WithTextCode(TextCodeEmailIsUser).
	WithCode(errors.CodeConflict)

// ErrNoEmails is returned when a create batch arrives empty. Upstream
// validation should reject this first; the handler defends regardless.
var ErrNoEmails = errors.New("no emails to invite", errors.CategoryValidation).
	WithTextCode(TextCodeNoEmails).
	WithCode(errors.CodeBadRequest)

// ErrDeliveryFailed wraps notifier transport failures. The store write that
// preceded the send is not rolled back.
var ErrDeliveryFailed = errors.New("invite notification delivery failed", errors.CategoryOperation).
	WithTextCode(TextCodeDeliveryFailed).
	WithCode(http.StatusBadGateway)

// IsInviteNotFound will check for the not found signal
func IsInviteNotFound(err error) bool {
	return hasTextCode(err, TextCodeInviteNotFound)
}

// IsInviteGone will check for the gone signal
func IsInviteGone(err error) bool {
	return hasTextCode(err, TextCodeInviteGone)
}

// IsEmailConflict will check for the existing-user conflict
func IsEmailConflict(err error) bool {
	return hasTextCode(err, TextCodeEmailIsUser)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}
