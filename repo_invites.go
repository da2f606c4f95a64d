package invites

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Search defaults mirror the caller-facing contract: creation time ascending,
// first page of 50.
const (
	DefaultSortField = "created_at"
	DefaultSortOrder = "ASC"
	DefaultLimit     = 50
)

// SearchParams drive a paginated scan over non-revoked invites. Any sort
// field name is accepted and passed through to the store's ordering.
type SearchParams struct {
	SortField string
	SortOrder string
	Skip      int
	Limit     int
}

// EnsureDefaults normalizes zero values and the sort order token.
func (p *SearchParams) EnsureDefaults() {
	if p.SortField == "" {
		p.SortField = DefaultSortField
	}
	if strings.EqualFold(p.SortOrder, "desc") {
		p.SortOrder = "DESC"
	} else {
		p.SortOrder = DefaultSortOrder
	}
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
}

// SearchResult carries one page of invites plus the total count of all
// non-revoked invites regardless of pagination, and echoes the effective
// skip/limit for client bookkeeping.
type SearchResult struct {
	Items []*Invite `json:"items"`
	Total int       `json:"total"`
	Skip  int       `json:"skip"`
	Limit int       `json:"limit"`
}

type Invites interface {
	repository.Repository[*Invite]

	FindByIDAny(ctx context.Context, id uuid.UUID) (*Invite, error)
	FindByIDAnyTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Invite, error)

	UpsertInvited(ctx context.Context, email string) (*Invite, bool, error)
	UpsertInvitedTx(ctx context.Context, tx bun.IDB, email string) (*Invite, bool, error)

	Revoke(ctx context.Context, invite *Invite) error
	RevokeTx(ctx context.Context, tx bun.IDB, invite *Invite) error

	Search(ctx context.Context, params SearchParams) (*SearchResult, error)
}

type invitesRepo struct {
	repository.Repository[*Invite]
	db    *bun.DB
	newID func(email string) uuid.UUID
}

var (
	_ Invites                        = (*invitesRepo)(nil)
	_ repository.Repository[*Invite] = (*invitesRepo)(nil)
	_ LifecycleStore                 = (*invitesRepo)(nil)
)

type InvitesOption func(*invitesRepo)

// WithDeterministicIDs derives invite ids from the email, so the same address
// always maps to the same record id even across environments.
func WithDeterministicIDs() InvitesOption {
	return func(r *invitesRepo) {
		r.newID = func(email string) uuid.UUID {
			if id, err := hashid.NewUUID(email); err == nil {
				return id
			}
			return uuid.New()
		}
	}
}

func NewInvitesRepository(db *bun.DB, opts ...InvitesOption) Invites {
	repo := repository.NewRepository[*Invite](db, repository.ModelHandlers[*Invite]{
		NewRecord: func() *Invite { return &Invite{} },
		GetID: func(i *Invite) uuid.UUID {
			if i == nil {
				return uuid.Nil
			}
			return i.ID
		},
		SetID: func(i *Invite, id uuid.UUID) {
			if i != nil {
				i.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	repoInvites := &invitesRepo{
		Repository: repo,
		db:         db,
		newID:      func(string) uuid.UUID { return uuid.New() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoInvites)
		}
	}

	return repoInvites
}

// FindByIDAny fetches an invite by id including soft-deleted records, so the
// caller can distinguish "gone" from "never existed".
func (a *invitesRepo) FindByIDAny(ctx context.Context, id uuid.UUID) (*Invite, error) {
	return a.FindByIDAnyTx(ctx, a.db, id)
}

func (a *invitesRepo) FindByIDAnyTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Invite, error) {
	record := &Invite{}
	err := tx.NewSelect().
		Model(record).
		WhereAllWithDeleted().
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id": id.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

// UpsertInvited atomically finds the invite matching {email, status:invited}
// in any soft-delete state and either revives it (clearing deleted_at,
// preserving id and created_at) or inserts a fresh record. The returned bool
// reports whether a previously revoked record was revived.
func (a *invitesRepo) UpsertInvited(ctx context.Context, email string) (*Invite, bool, error) {
	var record *Invite
	var revived bool

	err := a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		record, revived, err = a.UpsertInvitedTx(ctx, tx, email)
		return err
	})

	return record, revived, err
}

func (a *invitesRepo) UpsertInvitedTx(ctx context.Context, tx bun.IDB, email string) (*Invite, bool, error) {
	record := &Invite{}
	err := tx.NewSelect().
		Model(record).
		WhereAllWithDeleted().
		Where("?TableAlias.email = ?", email).
		Where("?TableAlias.status = ?", StatusInvited).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, false, err
		}

		record = &Invite{Email: email}
		prepareInviteDefaults(record, a.newID)
		created, err := a.Repository.CreateTx(ctx, tx, record)
		if err != nil {
			return nil, false, err
		}
		return created, false, nil
	}

	revived := record.DeletedAt != nil

	now := time.Now()
	_, err = tx.NewUpdate().
		Model(record).
		Set("deleted_at = NULL").
		Set("status = ?", StatusInvited).
		Set("updated_at = ?", now).
		WherePK().
		WhereAllWithDeleted().
		Exec(ctx)
	if err != nil {
		return nil, false, err
	}

	record.Status = StatusInvited
	record.DeletedAt = nil
	record.UpdatedAt = &now

	return record, revived, nil
}

// Revoke soft deletes the invite; the record stays addressable by id and
// reports its gone state on later mutation attempts.
func (a *invitesRepo) Revoke(ctx context.Context, invite *Invite) error {
	return a.RevokeTx(ctx, a.db, invite)
}

func (a *invitesRepo) RevokeTx(ctx context.Context, tx bun.IDB, invite *Invite) error {
	_, err := tx.NewDelete().
		Model(invite).
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}

	if invite.DeletedAt == nil {
		now := time.Now()
		invite.DeletedAt = &now
	}

	return nil
}

// Search scans non-revoked invites only; soft-deleted records neither show
// up in items nor count toward the total.
func (a *invitesRepo) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	params.EnsureDefaults()

	items := []*Invite{}
	err := a.db.NewSelect().
		Model(&items).
		OrderExpr("? ?", bun.Ident(params.SortField), bun.Safe(params.SortOrder)).
		Offset(params.Skip).
		Limit(params.Limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	total, err := a.db.NewSelect().
		Model((*Invite)(nil)).
		Count(ctx)
	if err != nil {
		return nil, err
	}

	return &SearchResult{
		Items: items,
		Total: total,
		Skip:  params.Skip,
		Limit: params.Limit,
	}, nil
}

func prepareInviteDefaults(record *Invite, newID func(email string) uuid.UUID) {
	if record == nil {
		return
	}

	record.EnsureStatus()

	if record.ID == uuid.Nil {
		record.ID = newID(record.Email)
	}
}
