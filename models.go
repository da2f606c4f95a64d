package invites

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// InviteStatus is the workflow status stored on an invite record.
type InviteStatus = string

const (
	// StatusInvited is the only status this package writes; records stay
	// "invited" until the acceptance flow (out of scope here) moves them on.
	StatusInvited InviteStatus = "invited"
	// StatusAccepted is reserved for the acceptance flow.
	StatusAccepted InviteStatus = "accepted"
)

// LifecycleState models the active/revoked axis of an invite, kept separate
// from InviteStatus. A revoked invite keeps its status but carries DeletedAt.
type LifecycleState string

const (
	// LifecycleActive means the invite is live and addressable.
	LifecycleActive LifecycleState = "active"
	// LifecycleRevoked means the invite was soft deleted and answers Gone.
	LifecycleRevoked LifecycleState = "revoked"
)

// Invite is the invite model
type Invite struct {
	bun.BaseModel `bun:"table:invites,alias:inv"`
	ID            uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string       `bun:"email,notnull" json:"email,omitempty"`
	Status        InviteStatus `bun:"status,notnull" json:"status,omitempty"`
	CreatedAt     *time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time   `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus backfills the default status on records built in memory.
func (i *Invite) EnsureStatus() {
	if i.Status == "" {
		i.Status = StatusInvited
	}
}

// Lifecycle returns the active/revoked state derived from DeletedAt.
func (i *Invite) Lifecycle() LifecycleState {
	if i.DeletedAt != nil {
		return LifecycleRevoked
	}
	return LifecycleActive
}

// IsRevoked reports whether the invite was soft deleted.
func (i *Invite) IsRevoked() bool {
	return i.Lifecycle() == LifecycleRevoked
}

// User is the reduced account model this package consults; creation guards
// against inviting an email that already belongs to a registered user.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}
