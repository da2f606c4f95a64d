package invites

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PurposeInvite tags every token minted for the invite acceptance flow.
const PurposeInvite = "invite"

// InviteClaims is the payload signed into an invite token. The acceptance
// flow verifies the token and reads back the same invite id and email.
type InviteClaims struct {
	jwt.RegisteredClaims
	InviteID string `json:"invite_id,omitempty"`
	Email    string `json:"email,omitempty"`
	Purpose  string `json:"purpose,omitempty"`
}

// IsPurpose checks the purpose tag on the claims.
func (c *InviteClaims) IsPurpose(purpose string) bool {
	return c.Purpose == purpose
}

// Expires returns the expiration time
func (c *InviteClaims) Expires() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// IssuedTime returns the issued at time
func (c *InviteClaims) IssuedTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}
