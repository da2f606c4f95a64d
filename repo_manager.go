package invites

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-repository-bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Invites() Invites
	Users() Users
}

type mngr struct {
	db      *bun.DB
	invites Invites
	users   Users
}

func NewRepositoryManager(db *bun.DB, opts ...InvitesOption) RepositoryManager {
	return &mngr{
		db:      db,
		invites: NewInvitesRepository(db, opts...),
		users:   NewUsersRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.invites == nil {
		return errors.New("repository invites should be initialized")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Invites() Invites {
	return m.invites
}

func (m mngr) Users() Users {
	return m.users
}
